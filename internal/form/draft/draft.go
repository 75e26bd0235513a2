// internal/form/draft/draft.go
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	apperrors "lead-capture/internal/common/errors"
	"lead-capture/internal/common/logger"
	"lead-capture/internal/common/metrics"
	"lead-capture/internal/models"
)

// Store persists one session's in-progress FormRecord under a single key.
// None of its operations return an error: a failing draft store must never
// block the visitor from completing the form.
type Store struct {
	rdb    redis.Cmdable
	key    string
	ttl    time.Duration
	logger logger.Logger
}

// New binds a draft store to key. The TTL is refreshed on every save so the
// draft lives exactly as long as the session.
func New(rdb redis.Cmdable, key string, ttl time.Duration, log logger.Logger) *Store {
	return &Store{
		rdb: rdb,
		key: key,
		ttl: ttl,
		logger: logger.Component(log, "draft").WithFields(map[string]interface{}{
			"key": key,
		}),
	}
}

// Key returns the storage key.
func (s *Store) Key() string {
	return s.key
}

// Load returns the persisted record. A missing key, unreadable store or
// corrupt content all yield an empty record.
func (s *Store) Load(ctx context.Context) models.FormRecord {
	raw, err := s.rdb.Get(ctx, s.key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			s.fail("load", err)
		} else {
			metrics.DraftOperations.WithLabelValues("load", metrics.OutcomeSkipped).Inc()
		}
		return models.FormRecord{}
	}

	record, err := decode(raw)
	if err != nil {
		s.fail("load", err)
		return models.FormRecord{}
	}

	metrics.DraftOperations.WithLabelValues("load", metrics.OutcomeSuccess).Inc()
	return record
}

// Save writes the full record, overwriting any previous draft.
func (s *Store) Save(ctx context.Context, record models.FormRecord) {
	if record == nil {
		record = models.FormRecord{}
	}
	payload, err := json.Marshal(record)
	if err != nil {
		s.fail("save", err)
		return
	}
	if err := s.rdb.Set(ctx, s.key, payload, s.ttl).Err(); err != nil {
		s.fail("save", err)
		return
	}
	metrics.DraftOperations.WithLabelValues("save", metrics.OutcomeSuccess).Inc()
}

// Clear removes the draft.
func (s *Store) Clear(ctx context.Context) {
	if err := s.rdb.Del(ctx, s.key).Err(); err != nil {
		s.fail("clear", err)
		return
	}
	metrics.DraftOperations.WithLabelValues("clear", metrics.OutcomeSuccess).Inc()
}

func (s *Store) fail(op string, err error) {
	stdErr := apperrors.NewPersistenceError(op, err)
	metrics.DraftOperations.WithLabelValues(op, metrics.OutcomeFailure).Inc()
	s.logger.Warn("draft operation failed", map[string]interface{}{
		"operation":  op,
		"error_code": stdErr.Code,
		"details":    stdErr.Details,
	})
}

// decode accepts only a JSON object whose values are all strings.
func decode(raw string) (models.FormRecord, error) {
	var generic map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &generic); err != nil {
		return nil, err
	}
	if generic == nil {
		return nil, ErrNotAnObject
	}

	record := make(models.FormRecord, len(generic))
	for k, v := range generic {
		s, ok := v.(string)
		if !ok {
			return nil, ErrNonStringValue
		}
		record[k] = s
	}
	return record, nil
}

var (
	ErrNotAnObject    = errors.New("DRAFT_NOT_AN_OBJECT")
	ErrNonStringValue = errors.New("DRAFT_NON_STRING_VALUE")
)
