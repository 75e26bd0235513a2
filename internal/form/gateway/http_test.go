// internal/form/gateway/http_test.go
package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "lead-capture/internal/common/errors"
	apphttp "lead-capture/internal/common/http"
	"lead-capture/internal/common/logger"
	"lead-capture/internal/models"
)

func newTestGateway(t *testing.T, handler http.HandlerFunc, opts Options, timeout time.Duration) Gateway {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	log := logger.NewTestLogger(t)
	client := apphttp.NewClient(server.URL+"/api", timeout)
	return Guard(NewHTTP(client, opts, log), log)
}

func TestHTTPGateway_FetchInitialData(t *testing.T) {
	tests := []struct {
		name     string
		handler  http.HandlerFunc
		timeout  time.Duration
		validate func(t *testing.T, record models.FormRecord, err error)
	}{
		{
			name: "success strips unknown keys",
			handler: func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, http.MethodGet, r.Method)
				assert.Equal(t, "/api/form/initial-data", r.URL.Path)
				assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
				_, _ = w.Write([]byte(`{"businessName":"Acme Co","city":"Austin","leadId":"L-1"}`))
			},
			validate: func(t *testing.T, record models.FormRecord, err error) {
				require.NoError(t, err)
				assert.Equal(t, models.FormRecord{"businessName": "Acme Co", "city": "Austin"}, record)
			},
		},
		{
			name: "non-2xx",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusInternalServerError)
			},
			validate: func(t *testing.T, record models.FormRecord, err error) {
				require.Error(t, err)
				assert.Nil(t, record)
				stdErr := apperrors.Normalize(err)
				assert.Equal(t, apperrors.ErrCodeUnexpectedStatus, stdErr.Code)
				assert.Equal(t, "HTTP error! status: 500", stdErr.Message)
			},
		},
		{
			name: "malformed payload",
			handler: func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(`{"businessName": 12}`))
			},
			validate: func(t *testing.T, record models.FormRecord, err error) {
				require.Error(t, err)
				assert.Equal(t, apperrors.ErrCodeMalformedPayload, apperrors.Normalize(err).Code)
			},
		},
		{
			name: "timeout",
			handler: func(w http.ResponseWriter, r *http.Request) {
				select {
				case <-r.Context().Done():
				case <-time.After(2 * time.Second):
				}
			},
			timeout: 50 * time.Millisecond,
			validate: func(t *testing.T, record models.FormRecord, err error) {
				require.Error(t, err)
				stdErr := apperrors.Normalize(err)
				assert.Equal(t, apperrors.ErrCodeRequestTimeout, stdErr.Code)
				assert.True(t, stdErr.Retryable)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			timeout := tt.timeout
			if timeout == 0 {
				timeout = 5 * time.Second
			}
			gw := newTestGateway(t, tt.handler, Options{}, timeout)
			record, err := gw.FetchInitialData(context.Background())
			tt.validate(t, record, err)
		})
	}
}

func TestHTTPGateway_FetchInitialData_Unreachable(t *testing.T) {
	log := logger.NewTestLogger(t)
	client := apphttp.NewClient("http://127.0.0.1:1/api", time.Second)
	gw := Guard(NewHTTP(client, Options{}, log), log)

	_, err := gw.FetchInitialData(context.Background())
	require.Error(t, err)
	assert.Equal(t, apperrors.ErrCodeTransportFailed, apperrors.Normalize(err).Code)
}

func TestHTTPGateway_SearchAddresses(t *testing.T) {
	var calls atomic.Int32
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/api/ercot-master/search", r.URL.Path)
		if r.URL.Query().Get("search") == "fail please" {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		assert.Equal(t, "123 Main", r.URL.Query().Get("search"))
		_ = json.NewEncoder(w).Encode([]models.AddressSuggestion{
			{Address: "123 Main St", City: "Austin", State: "TX", Zip: "78701"},
			{Address: "123 Main St Ste 200", City: "Houston", State: "TX", Zip: "77002"},
			{Address: "1230 Main Ave", City: "Dallas", State: "TX", Zip: "75202"},
		})
	}, Options{MaxSuggestions: 2}, 5*time.Second)

	ctx := context.Background()

	for _, short := range []string{"", "12", "  ab  "} {
		got := gw.SearchAddresses(ctx, short)
		require.NotNil(t, got)
		assert.Empty(t, got)
	}
	assert.Equal(t, int32(0), calls.Load(), "short queries must not reach the backend")

	got := gw.SearchAddresses(ctx, "  123 Main ")
	require.Len(t, got, 2)
	assert.Equal(t, "Austin", got[0].City)
	assert.Equal(t, int32(1), calls.Load())

	failed := gw.SearchAddresses(ctx, "fail please")
	require.NotNil(t, failed)
	assert.Empty(t, failed)
}

func TestHTTPGateway_Submit_Business(t *testing.T) {
	var got map[string]interface{}
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/customer/submit", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":true,"message":"ok"}`))
	}, Options{Profile: models.ProfileBusiness}, 5*time.Second)

	resp, err := gw.Submit(context.Background(), models.FormRecord{
		models.FieldBusinessName:         "Acme Co",
		models.FieldAddress:              "123 Main St",
		models.FieldCity:                 "Austin",
		models.FieldState:                "TX",
		models.FieldCurrentProvider:      "Reliant",
		models.FieldContractEndDate:      "2031-01-01",
		models.FieldEstimatedMonthlyBill: "$1,234.50",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)

	assert.Equal(t, map[string]interface{}{
		"company_name":      "Acme Co",
		"address_street":    "123 Main St",
		"address_city":      "Austin",
		"address_state":     "TX",
		"contract_end_date": "2031-01-01",
		"energy_provider":   "Reliant",
		"monthly_bill":      1234.5,
	}, got)
}

func TestHTTPGateway_Submit_Rejected(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantMsg string
	}{
		{name: "backend message", body: `{"success":false,"message":"Duplicate lead"}`, wantMsg: "Duplicate lead"},
		{name: "fallback message", body: `{"success":false}`, wantMsg: "Submission failed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}, Options{}, 5*time.Second)

			_, err := gw.Submit(context.Background(), models.FormRecord{models.FieldBusinessName: "Acme Co"})
			require.Error(t, err)
			stdErr := apperrors.Normalize(err)
			assert.Equal(t, apperrors.ErrCodeSubmissionRejected, stdErr.Code)
			assert.Equal(t, tt.wantMsg, stdErr.Message)
		})
	}
}

func TestHTTPGateway_Submit_Contact(t *testing.T) {
	var got map[string]string
	gw := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/form/submit", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":true}`))
	}, Options{Profile: models.ProfileContact}, 5*time.Second)

	_, err := gw.Submit(context.Background(), models.FormRecord{
		models.FieldName:  "John Doe",
		models.FieldEmail: "john@example.com",
	})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "John Doe", "email": "john@example.com"}, got)
}

func TestToLeadPayload_UnparsableBillOmitted(t *testing.T) {
	payload := ToLeadPayload(models.FormRecord{models.FieldEstimatedMonthlyBill: "n/a"})
	assert.Nil(t, payload.MonthlyBill)

	raw, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), "monthly_bill")
}
