// internal/form/surface/session.go
package surface

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"lead-capture/internal/common/config"
	"lead-capture/internal/common/logger"
	"lead-capture/internal/common/metrics"
	"lead-capture/internal/form/address"
	"lead-capture/internal/form/draft"
	"lead-capture/internal/form/gateway"
	"lead-capture/internal/form/store"
	"lead-capture/internal/form/validator"
)

// Session is one visitor's form pipeline: the store, the address controller
// and the validation errors shown next to each field.
type Session struct {
	ID      string
	Store   *store.Store
	Address *address.Controller

	mu       sync.Mutex
	errors   validator.ValidationErrorSet
	lastSeen time.Time
}

// Errors returns a copy of the current validation errors.
func (s *Session) Errors() validator.ValidationErrorSet {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errors.Clone()
}

// ApplyFieldResult records one field-level validation outcome.
func (s *Session) ApplyFieldResult(field, message string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors.Apply(field, message, ok)
}

// ReplaceErrors swaps in a whole-record validation result.
func (s *Session) ReplaceErrors(set validator.ValidationErrorSet) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.errors = set.Clone()
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *Session) close() {
	s.Address.Close()
	s.Store.Wait()
}

// Factory builds the pipeline for a session id.
type Factory func(ctx context.Context, id string) *Session

// FactoryDeps are the shared collaborators every session is wired to.
type FactoryDeps struct {
	Redis     redis.Cmdable
	Draft     config.DraftConfig
	Address   address.Options
	Gateway   gateway.Gateway
	Validator *validator.Validator
	Prefill   bool
	Logger    logger.Logger
}

// NewFactory returns a Factory that stores each session's draft under
// <prefix>:<session id> and validates address selections into the session.
func NewFactory(deps FactoryDeps) Factory {
	ttl := config.GetDuration(deps.Draft.TTL)

	return func(ctx context.Context, id string) *Session {
		log := logger.Component(deps.Logger, "session").WithFields(map[string]interface{}{"session": id})

		sess := &Session{
			ID:     id,
			errors: validator.ValidationErrorSet{},
		}
		sess.Store = store.New(ctx, store.Deps{
			Drafts:  draft.New(deps.Redis, deps.Draft.Key(id), ttl, log),
			Gateway: deps.Gateway,
			Logger:  log,
			Profile: deps.Validator.Profile(),
		})
		sess.Address = address.New(deps.Gateway, sess.Store, func(field, value string) {
			msg, ok := deps.Validator.ValidateField(field, value)
			sess.ApplyFieldResult(field, msg, ok)
		}, deps.Address, log)

		if deps.Prefill {
			go func() {
				_ = sess.Store.Hydrate(context.Background())
			}()
		}
		return sess
	}
}

// Registry keeps live sessions in memory and evicts idle ones.
type Registry struct {
	mu       sync.Mutex
	sessions map[string]*Session

	factory  Factory
	building singleflight.Group
	ttl      time.Duration
	now      func() time.Time
	logger   logger.Logger
}

func NewRegistry(factory Factory, ttl time.Duration, log logger.Logger) *Registry {
	return &Registry{
		sessions: map[string]*Session{},
		factory:  factory,
		ttl:      ttl,
		now:      time.Now,
		logger:   logger.Component(log, "sessions"),
	}
}

// Ensure returns the session for id, creating it when unknown. An id that is
// not a UUID is replaced with a fresh one. A known-format id the registry has
// not seen (for example after a restart) is adopted, which picks its draft
// back up. The new session is built outside the registry lock, so a slow
// draft load only delays its own visitor.
func (r *Registry) Ensure(ctx context.Context, id string) (*Session, bool) {
	if _, err := uuid.Parse(id); err != nil {
		id = uuid.NewString()
	}

	if sess, ok := r.lookup(id); ok {
		return sess, false
	}

	type built struct {
		sess    *Session
		created bool
	}
	v, _, _ := r.building.Do(id, func() (interface{}, error) {
		if sess, ok := r.lookup(id); ok {
			return built{sess: sess}, nil
		}
		sess := r.factory(context.WithoutCancel(ctx), id)
		sess.touch(r.now())

		r.mu.Lock()
		r.sessions[id] = sess
		metrics.ActiveSessions.Set(float64(len(r.sessions)))
		r.mu.Unlock()

		r.logger.Debug("session created", map[string]interface{}{"session": id})
		return built{sess: sess, created: true}, nil
	})
	res := v.(built)
	return res.sess, res.created
}

func (r *Registry) lookup(id string) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sess, ok := r.sessions[id]
	if ok {
		sess.touch(r.now())
	}
	return sess, ok
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// Evict drops sessions idle for longer than the TTL and returns how many
// were removed. Their drafts expire in Redis on the same TTL.
func (r *Registry) Evict() int {
	cutoff := r.now().Add(-r.ttl)

	r.mu.Lock()
	var expired []*Session
	for id, sess := range r.sessions {
		if sess.idleSince().Before(cutoff) {
			expired = append(expired, sess)
			delete(r.sessions, id)
		}
	}
	metrics.ActiveSessions.Set(float64(len(r.sessions)))
	r.mu.Unlock()

	for _, sess := range expired {
		sess.close()
	}
	if len(expired) > 0 {
		r.logger.Info("evicted idle sessions", map[string]interface{}{"count": len(expired)})
	}
	return len(expired)
}

// Run evicts idle sessions until ctx ends, then closes every session.
func (r *Registry) Run(ctx context.Context) error {
	interval := r.ttl / 4
	if interval < time.Second {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.Close()
			return nil
		case <-ticker.C:
			r.Evict()
		}
	}
}

// Close shuts every session down.
func (r *Registry) Close() {
	r.mu.Lock()
	sessions := r.sessions
	r.sessions = map[string]*Session{}
	metrics.ActiveSessions.Set(0)
	r.mu.Unlock()

	for _, sess := range sessions {
		sess.close()
	}
}
