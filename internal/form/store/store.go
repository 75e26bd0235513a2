// internal/form/store/store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	apperrors "lead-capture/internal/common/errors"
	"lead-capture/internal/common/logger"
	"lead-capture/internal/common/metrics"
	"lead-capture/internal/form/gateway"
	"lead-capture/internal/models"
)

// InitialDataError is shown when the remote prefill fails.
const InitialDataError = "Failed to load initial data"

const defaultSaveTimeout = 2 * time.Second

var (
	ErrSubmitFailed  = errors.New("SUBMIT_FAILED")
	ErrHydrateFailed = errors.New("HYDRATE_FAILED")
)

// Drafts is the persistence the store writes through. Implementations never
// fail; see draft.Store.
type Drafts interface {
	Load(ctx context.Context) models.FormRecord
	Save(ctx context.Context, record models.FormRecord)
	Clear(ctx context.Context)
}

// Deps are the store's collaborators.
type Deps struct {
	Drafts      Drafts
	Gateway     gateway.Gateway
	Logger      logger.Logger
	SaveTimeout time.Duration

	// Profile, when set, limits SetField to the profile's fields.
	Profile models.Profile
}

// Store owns one visitor's FormRecord together with the loading flag and
// the operation error. It is the only writer of the draft.
type Store struct {
	mu       sync.RWMutex
	state    State
	inflight int
	rev      uint64
	// epoch changes whenever the record is discarded (reset or accepted
	// submit); a fetch begun in an older epoch does not merge.
	epoch uint64

	// saveMu serializes draft writes; persisted is the newest revision
	// written or cleared, so an older save arriving late is dropped.
	saveMu    sync.Mutex
	persisted uint64
	saves     sync.WaitGroup

	flight singleflight.Group

	drafts      Drafts
	gateway     gateway.Gateway
	logger      logger.Logger
	saveTimeout time.Duration
	profile     models.Profile
}

// New builds a store seeded from the persisted draft. No network call is
// made.
func New(ctx context.Context, deps Deps) *Store {
	s := &Store{
		drafts:      deps.Drafts,
		gateway:     deps.Gateway,
		logger:      logger.Component(deps.Logger, "store"),
		saveTimeout: deps.SaveTimeout,
		profile:     deps.Profile,
	}
	if s.saveTimeout <= 0 {
		s.saveTimeout = defaultSaveTimeout
	}

	initial := deps.Drafts.Load(ctx)
	if initial == nil {
		initial = models.FormRecord{}
	}
	s.state = State{FormData: initial.Clone()}
	return s
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return State{
		FormData: s.state.FormData.Clone(),
		Loading:  s.state.Loading,
		Error:    s.state.Error,
	}
}

// Phase returns the current lifecycle phase.
func (s *Store) Phase() Phase {
	return s.Snapshot().Phase()
}

// SetField updates one field, clears the operation error and saves the full
// record in the background.
func (s *Store) SetField(field, value string) {
	if s.profile != "" && !s.profile.Has(field) {
		s.logger.Warn("field outside profile ignored", map[string]interface{}{
			"field":   field,
			"profile": s.profile,
		})
		return
	}

	s.mu.Lock()
	s.state.FormData[field] = value
	s.state.Error = ""
	s.rev++
	rev := s.rev
	snapshot := s.state.FormData.Clone()
	s.mu.Unlock()

	s.persist(rev, snapshot)
}

// Submit sends the current record. Concurrent callers share one attempt.
// On success the record and draft are cleared; on failure the record is kept
// and the error message is set. A caller whose ctx ends stops waiting, but
// the shared attempt runs to completion under the gateway's own deadline.
func (s *Store) Submit(ctx context.Context) error {
	attemptCtx := context.WithoutCancel(ctx)
	ch := s.flight.DoChan("submit", func() (interface{}, error) {
		return nil, s.submit(attemptCtx)
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (s *Store) submit(ctx context.Context) error {
	snapshot, _ := s.begin()
	log := s.logger.WithFields(map[string]interface{}{"operation": "submit"})

	resp, err := s.gateway.Submit(ctx, snapshot)
	if err == nil && !resp.Success {
		err = apperrors.NewSubmissionRejectedError(resp.Message)
	}
	if err != nil {
		stdErr := apperrors.Normalize(err)
		s.end(stdErr.Message)
		metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeFailure, string(stdErr.Code)).Inc()
		log.Error("lead submission failed", map[string]interface{}{
			"error_code": stdErr.Code,
			"retryable":  stdErr.Retryable,
			"details":    stdErr.Details,
		})
		return fmt.Errorf("%w: %w", ErrSubmitFailed, stdErr)
	}

	s.mu.Lock()
	s.state.FormData = models.FormRecord{}
	s.state.Error = ""
	s.rev++
	s.epoch++
	rev := s.rev
	s.mu.Unlock()

	s.clearDraft(ctx, rev)
	s.end("")

	metrics.SubmissionsTotal.WithLabelValues(metrics.OutcomeSuccess, "").Inc()
	log.Info("lead submitted", map[string]interface{}{"fields": len(snapshot)})
	return nil
}

// Hydrate prefills the record from the backend. Values already present
// (typically restored from the draft) take precedence over remote ones.
func (s *Store) Hydrate(ctx context.Context) error {
	attemptCtx := context.WithoutCancel(ctx)
	ch := s.flight.DoChan("hydrate", func() (interface{}, error) {
		return nil, s.hydrate(attemptCtx)
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-ch:
		return res.Err
	}
}

func (s *Store) hydrate(ctx context.Context) error {
	_, epoch := s.begin()

	remote, err := s.gateway.FetchInitialData(ctx)
	if err != nil {
		s.end(InitialDataError)
		s.logger.Warn("initial data fetch failed", map[string]interface{}{
			"error": apperrors.Message(err),
		})
		return fmt.Errorf("%w: %w", ErrHydrateFailed, apperrors.Normalize(err))
	}

	s.mu.Lock()
	if s.epoch != epoch {
		s.mu.Unlock()
		s.end("")
		s.logger.Debug("initial data discarded after reset", nil)
		return nil
	}
	merged := remote.Clone()
	for k, v := range s.state.FormData {
		merged[k] = v
	}
	s.state.FormData = merged
	s.rev++
	rev := s.rev
	snapshot := merged.Clone()
	s.mu.Unlock()

	s.persist(rev, snapshot)
	s.end("")
	return nil
}

// Reset empties the record, clears the error and removes the draft.
func (s *Store) Reset(ctx context.Context) {
	s.mu.Lock()
	s.state.FormData = models.FormRecord{}
	s.state.Error = ""
	s.rev++
	s.epoch++
	rev := s.rev
	s.mu.Unlock()

	s.clearDraft(ctx, rev)
}

// Wait blocks until every background draft save has finished.
func (s *Store) Wait() {
	s.saves.Wait()
}

// begin marks an operation outstanding and returns the record to send
// together with the current epoch.
func (s *Store) begin() (models.FormRecord, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.inflight++
	s.state.Loading = true
	s.state.Error = ""
	return s.state.FormData.Clone(), s.epoch
}

// end closes an operation, setting errMsg when it failed.
func (s *Store) end(errMsg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.inflight > 0 {
		s.inflight--
	}
	s.state.Loading = s.inflight > 0
	if errMsg != "" {
		s.state.Error = errMsg
	}
}

func (s *Store) persist(rev uint64, snapshot models.FormRecord) {
	s.saves.Add(1)
	go func() {
		defer s.saves.Done()

		s.saveMu.Lock()
		defer s.saveMu.Unlock()
		if rev <= s.persisted {
			metrics.DraftOperations.WithLabelValues("save", metrics.OutcomeSuperseded).Inc()
			return
		}

		ctx, cancel := context.WithTimeout(context.Background(), s.saveTimeout)
		defer cancel()
		s.drafts.Save(ctx, snapshot)
		s.persisted = rev
	}()
}

func (s *Store) clearDraft(ctx context.Context, rev uint64) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if rev <= s.persisted {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.saveTimeout)
	defer cancel()
	s.drafts.Clear(ctx)
	s.persisted = rev
}
