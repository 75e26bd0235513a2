// internal/form/gateway/gateway.go
package gateway

import (
	"context"
	"fmt"
	"time"

	apperrors "lead-capture/internal/common/errors"
	"lead-capture/internal/common/logger"
	"lead-capture/internal/common/metrics"
	"lead-capture/internal/models"
)

// Backend endpoints, relative to the configured base URL.
const (
	PathInitialData    = "/form/initial-data"
	PathAddressSearch  = "/ercot-master/search"
	PathBusinessSubmit = "/customer/submit"
	PathContactSubmit  = "/form/submit"
)

// Operation names used in logs, metrics and error details.
const (
	OpFetchInitialData = "fetchInitialData"
	OpSearchAddresses  = "searchAddresses"
	OpSubmit           = "submit"
)

// DefaultMinQueryLength is the shortest address query worth searching.
const DefaultMinQueryLength = 3

// Gateway is the lead backend as seen by the form pipeline. Fetch and submit
// failures come back as *errors.StandardError; address search never fails.
type Gateway interface {
	FetchInitialData(ctx context.Context) (models.FormRecord, error)
	SearchAddresses(ctx context.Context, query string) []models.AddressSuggestion
	Submit(ctx context.Context, record models.FormRecord) (models.SubmitResponse, error)
}

// guarded wraps any Gateway so that no panic or unclassified error escapes
// it, and records per-operation metrics.
type guarded struct {
	inner  Gateway
	logger logger.Logger
}

// Guard returns g wrapped with panic recovery, error normalization and
// metrics.
func Guard(g Gateway, log logger.Logger) Gateway {
	if already, ok := g.(*guarded); ok {
		return already
	}
	return &guarded{inner: g, logger: logger.Component(log, "gateway")}
}

func (g *guarded) FetchInitialData(ctx context.Context) (record models.FormRecord, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			record, err = nil, recovered(OpFetchInitialData, r)
		}
		err = g.finish(OpFetchInitialData, start, err)
	}()

	record, err = g.inner.FetchInitialData(ctx)
	if err != nil {
		return nil, err
	}
	return record.Clone(), nil
}

func (g *guarded) SearchAddresses(ctx context.Context, query string) (out []models.AddressSuggestion) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			g.logger.Warn("address search panicked", map[string]interface{}{"panic": fmt.Sprint(r)})
			out = []models.AddressSuggestion{}
		}
		metrics.GatewayDuration.WithLabelValues(OpSearchAddresses).Observe(time.Since(start).Seconds())
	}()

	out = g.inner.SearchAddresses(ctx, query)
	if out == nil {
		out = []models.AddressSuggestion{}
	}
	return out
}

func (g *guarded) Submit(ctx context.Context, record models.FormRecord) (resp models.SubmitResponse, err error) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			resp, err = models.SubmitResponse{}, recovered(OpSubmit, r)
		}
		err = g.finish(OpSubmit, start, err)
	}()

	resp, err = g.inner.Submit(ctx, record.Clone())
	if err == nil && !resp.Success {
		err = apperrors.NewSubmissionRejectedError(resp.Message)
	}
	return resp, err
}

func (g *guarded) finish(op string, start time.Time, err error) error {
	metrics.GatewayDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	if err == nil {
		metrics.GatewayRequests.WithLabelValues(op, metrics.OutcomeSuccess).Inc()
		return nil
	}

	stdErr := apperrors.Normalize(err)
	metrics.GatewayRequests.WithLabelValues(op, metrics.OutcomeFailure).Inc()
	g.logger.Warn("gateway call failed", map[string]interface{}{
		"operation":  op,
		"error_code": stdErr.Code,
		"category":   apperrors.Category(stdErr.Code),
		"retryable":  stdErr.Retryable,
		"details":    stdErr.Details,
	})
	return stdErr
}

func recovered(op string, r interface{}) error {
	return apperrors.NewInternalError(fmt.Sprintf("panic during %s: %v", op, r))
}
