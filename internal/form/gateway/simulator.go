// internal/form/gateway/simulator.go
package gateway

import (
	"context"
	"math/rand"
	"strings"
	"sync"
	"time"

	"lead-capture/internal/common/config"
	apperrors "lead-capture/internal/common/errors"
	"lead-capture/internal/common/logger"
	"lead-capture/internal/models"
)

// Simulator stands in for the backend outside production: canned data,
// randomized latency and a configurable failure rate per operation.
type Simulator struct {
	cfg    config.SimulatorConfig
	opts   Options
	logger logger.Logger

	mu   sync.Mutex
	rand *rand.Rand

	// submitted keeps every accepted record, newest last.
	submitted []models.FormRecord
}

// SimulatorOption customizes a Simulator.
type SimulatorOption func(*Simulator)

// WithRand fixes the random source, making failures reproducible.
func WithRand(r *rand.Rand) SimulatorOption {
	return func(s *Simulator) {
		s.rand = r
	}
}

func NewSimulator(cfg config.SimulatorConfig, opts Options, log logger.Logger, options ...SimulatorOption) *Simulator {
	s := &Simulator{
		cfg:    cfg,
		opts:   opts.withDefaults(),
		logger: logger.Component(log, "gateway.simulator"),
		rand:   rand.New(rand.NewSource(time.Now().UnixNano())),
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

func (s *Simulator) FetchInitialData(ctx context.Context) (models.FormRecord, error) {
	if err := s.delay(ctx, OpFetchInitialData, s.cfg.FetchLatency); err != nil {
		return nil, err
	}
	if s.fails(s.cfg.FetchFailRate) {
		return nil, simulatedFailure("Failed to fetch initial data")
	}
	return mockInitialData(s.opts.Profile), nil
}

func (s *Simulator) SearchAddresses(ctx context.Context, query string) []models.AddressSuggestion {
	query = strings.TrimSpace(query)
	if !queryLongEnough(query, s.opts.MinQueryLength) {
		return []models.AddressSuggestion{}
	}
	if err := s.delay(ctx, OpSearchAddresses, s.cfg.SearchLatency); err != nil {
		return []models.AddressSuggestion{}
	}
	if s.fails(s.cfg.SearchFailRate) {
		s.logger.Warn("simulated address search failure", map[string]interface{}{"query": query})
		return []models.AddressSuggestion{}
	}

	needle := strings.ToLower(query)
	out := []models.AddressSuggestion{}
	for _, a := range mockAddresses {
		if strings.Contains(strings.ToLower(a.Address), needle) {
			out = append(out, a)
		}
	}
	return limit(out, s.opts.MaxSuggestions)
}

func (s *Simulator) Submit(ctx context.Context, record models.FormRecord) (models.SubmitResponse, error) {
	if err := s.delay(ctx, OpSubmit, s.cfg.SubmitLatency); err != nil {
		return models.SubmitResponse{}, err
	}
	if s.fails(s.cfg.SubmitFailRate) {
		return models.SubmitResponse{}, simulatedFailure("Form submission failed")
	}

	s.mu.Lock()
	s.submitted = append(s.submitted, record.Clone())
	s.mu.Unlock()

	s.logger.Info("simulated submission accepted", map[string]interface{}{
		"fields": len(record),
	})
	return models.SubmitResponse{Success: true, Message: "Form submitted successfully"}, nil
}

// Submitted returns copies of every accepted record.
func (s *Simulator) Submitted() []models.FormRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.FormRecord, len(s.submitted))
	for i, r := range s.submitted {
		out[i] = r.Clone()
	}
	return out
}

// delay sleeps for base latency with +/-25% jitter, honoring ctx.
func (s *Simulator) delay(ctx context.Context, op string, latencyMs int) error {
	if latencyMs <= 0 {
		return ctx.Err()
	}
	base := config.GetDuration(latencyMs)

	s.mu.Lock()
	jitter := time.Duration((s.rand.Float64() - 0.5) * 0.5 * float64(base))
	s.mu.Unlock()

	timer := time.NewTimer(base + jitter)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return apperrors.NewTimeoutError(op, base)
	case <-timer.C:
		return nil
	}
}

func (s *Simulator) fails(rate float64) bool {
	if rate <= 0 {
		return false
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.Float64() < rate
}

func simulatedFailure(message string) error {
	return &apperrors.StandardError{
		Code:      apperrors.ErrCodeTransportFailed,
		Message:   message,
		Details:   "simulated failure",
		Retryable: true,
		Timestamp: time.Now().UTC(),
	}
}
