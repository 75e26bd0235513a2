// internal/form/draft/draft_test.go
package draft

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-capture/internal/common/logger"
	"lead-capture/internal/models"
)

const testKey = "formData:session-1"

func newMiniStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return New(rdb, testKey, 30*time.Minute, logger.NewTestLogger(t)), mr
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, mr := newMiniStore(t)

	records := []models.FormRecord{
		{},
		{models.FieldBusinessName: "Acme Co"},
		{
			models.FieldBusinessName:         "Acme \"Energy\" Co",
			models.FieldAddress:              "123 Main St",
			models.FieldCity:                 "Austin",
			models.FieldState:                "TX",
			models.FieldEstimatedMonthlyBill: "1234.50",
			"ünïcode":                        "✓",
		},
	}

	for _, record := range records {
		store.Save(ctx, record)
		got := store.Load(ctx)
		if diff := cmp.Diff(record, got); diff != "" {
			t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
		}
	}

	assert.Equal(t, 30*time.Minute, mr.TTL(testKey))
}

func TestStore_LoadIsIdempotent(t *testing.T) {
	ctx := context.Background()
	store, _ := newMiniStore(t)

	store.Save(ctx, models.FormRecord{models.FieldCity: "Austin"})

	first := store.Load(ctx)
	second := store.Load(ctx)
	assert.Empty(t, cmp.Diff(first, second))
}

func TestStore_LoadDegradesToEmpty(t *testing.T) {
	tests := []struct {
		name  string
		setup func(mr *miniredis.Miniredis)
	}{
		{
			name:  "missing key",
			setup: func(mr *miniredis.Miniredis) {},
		},
		{
			name: "corrupt json",
			setup: func(mr *miniredis.Miniredis) {
				require.NoError(t, mr.Set(testKey, "{not json"))
			},
		},
		{
			name: "json array",
			setup: func(mr *miniredis.Miniredis) {
				require.NoError(t, mr.Set(testKey, `["a","b"]`))
			},
		},
		{
			name: "json null",
			setup: func(mr *miniredis.Miniredis) {
				require.NoError(t, mr.Set(testKey, `null`))
			},
		},
		{
			name: "non-string value",
			setup: func(mr *miniredis.Miniredis) {
				require.NoError(t, mr.Set(testKey, `{"city":"Austin","estimatedMonthlyBill":12}`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mr := newMiniStore(t)
			tt.setup(mr)

			got := store.Load(context.Background())
			require.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestStore_Clear(t *testing.T) {
	ctx := context.Background()
	store, mr := newMiniStore(t)

	store.Save(ctx, models.FormRecord{models.FieldCity: "Austin"})
	require.True(t, mr.Exists(testKey))

	store.Clear(ctx)
	assert.False(t, mr.Exists(testKey))
	assert.Empty(t, store.Load(ctx))

	// Clearing twice is harmless.
	store.Clear(ctx)
}

func TestStore_FailuresAreSwallowed(t *testing.T) {
	ctx := context.Background()
	db, mock := redismock.NewClientMock()
	store := New(db, testKey, time.Minute, logger.NewTestLogger(t))

	record := models.FormRecord{models.FieldCity: "Austin"}
	payload, err := json.Marshal(record)
	require.NoError(t, err)

	mock.ExpectGet(testKey).SetErr(errors.New("connection refused"))
	mock.ExpectSet(testKey, payload, time.Minute).SetErr(errors.New("OOM command not allowed"))
	mock.ExpectDel(testKey).SetErr(errors.New("connection refused"))

	assert.NotPanics(t, func() {
		assert.Empty(t, store.Load(ctx))
		store.Save(ctx, record)
		store.Clear(ctx)
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStore_LoadMissingKeyWithMock(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := New(db, testKey, time.Minute, logger.NewNoOpLogger())

	mock.ExpectGet(testKey).RedisNil()

	assert.Empty(t, store.Load(context.Background()))
	assert.Equal(t, testKey, store.Key())
	assert.NoError(t, mock.ExpectationsWereMet())
}
