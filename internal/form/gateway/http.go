// internal/form/gateway/http.go
package gateway

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"

	apphttp "lead-capture/internal/common/http"
	"lead-capture/internal/common/logger"
	"lead-capture/internal/common/metrics"
	"lead-capture/internal/models"
)

// Options tunes the gateway independently of transport.
type Options struct {
	Profile        models.Profile
	MinQueryLength int
	MaxSuggestions int // 0 keeps every result
}

func (o Options) withDefaults() Options {
	if o.Profile == "" {
		o.Profile = models.ProfileBusiness
	}
	if o.MinQueryLength <= 0 {
		o.MinQueryLength = DefaultMinQueryLength
	}
	return o
}

// HTTPGateway talks to the real lead backend.
type HTTPGateway struct {
	client *apphttp.Client
	opts   Options
	logger logger.Logger
}

func NewHTTP(client *apphttp.Client, opts Options, log logger.Logger) *HTTPGateway {
	return &HTTPGateway{
		client: client,
		opts:   opts.withDefaults(),
		logger: logger.Component(log, "gateway.http"),
	}
}

// FetchInitialData loads a prefill record. Keys outside the profile are
// dropped.
func (g *HTTPGateway) FetchInitialData(ctx context.Context) (models.FormRecord, error) {
	var record models.FormRecord
	err := g.client.DoJSON(ctx, apphttp.Request{
		Operation: OpFetchInitialData,
		Method:    http.MethodGet,
		Path:      PathInitialData,
	}, &record)
	if err != nil {
		return nil, err
	}
	return g.opts.Profile.Strip(record), nil
}

// SearchAddresses returns candidate addresses for query. Short queries are
// answered locally with an empty list; any failure also yields an empty list.
func (g *HTTPGateway) SearchAddresses(ctx context.Context, query string) []models.AddressSuggestion {
	query = strings.TrimSpace(query)
	if !queryLongEnough(query, g.opts.MinQueryLength) {
		metrics.AddressSearches.WithLabelValues(metrics.OutcomeSkipped).Inc()
		return []models.AddressSuggestion{}
	}

	var results []models.AddressSuggestion
	err := g.client.DoJSON(ctx, apphttp.Request{
		Operation: OpSearchAddresses,
		Method:    http.MethodGet,
		Path:      PathAddressSearch,
		Query:     url.Values{"search": []string{query}},
	}, &results)
	if err != nil {
		metrics.AddressSearches.WithLabelValues(metrics.OutcomeFailure).Inc()
		g.logger.Warn("address search failed", map[string]interface{}{
			"query": query,
			"error": err.Error(),
		})
		return []models.AddressSuggestion{}
	}

	metrics.AddressSearches.WithLabelValues(metrics.OutcomeSuccess).Inc()
	return limit(results, g.opts.MaxSuggestions)
}

// Submit posts the record in the profile's wire shape.
func (g *HTTPGateway) Submit(ctx context.Context, record models.FormRecord) (models.SubmitResponse, error) {
	req := apphttp.Request{
		Operation: OpSubmit,
		Method:    http.MethodPost,
	}
	switch g.opts.Profile {
	case models.ProfileContact:
		req.Path = PathContactSubmit
		req.Body = g.opts.Profile.Strip(record)
	default:
		req.Path = PathBusinessSubmit
		req.Body = ToLeadPayload(record)
	}

	var resp models.SubmitResponse
	if err := g.client.DoJSON(ctx, req, &resp); err != nil {
		return models.SubmitResponse{}, err
	}
	return resp, nil
}

// ToLeadPayload maps a business record onto the backend's field names. The
// bill is sent as a number; an unparsable bill is omitted.
func ToLeadPayload(record models.FormRecord) models.LeadPayload {
	payload := models.LeadPayload{
		CompanyName:     record[models.FieldBusinessName],
		AddressStreet:   record[models.FieldAddress],
		AddressCity:     record[models.FieldCity],
		AddressState:    record[models.FieldState],
		AddressZip:      record[models.FieldZip],
		ContractEndDate: record[models.FieldContractEndDate],
		EnergyProvider:  record[models.FieldCurrentProvider],
		Phone:           record[models.FieldPhone],
		Email:           record[models.FieldEmail],
	}
	if bill, ok := models.ParseAmount(record[models.FieldEstimatedMonthlyBill]); ok {
		payload.MonthlyBill = &bill
	}
	return payload
}

func queryLongEnough(query string, min int) bool {
	return utf8.RuneCountInString(query) >= min
}

func limit(in []models.AddressSuggestion, max int) []models.AddressSuggestion {
	if in == nil {
		return []models.AddressSuggestion{}
	}
	if max > 0 && len(in) > max {
		return in[:max]
	}
	return in
}
