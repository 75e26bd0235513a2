// internal/form/address/controller_test.go
package address

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lead-capture/internal/common/logger"
	"lead-capture/internal/models"
)

type scriptedSearcher struct {
	mu      sync.Mutex
	queries []string
	started chan string
	gates   map[string]chan struct{}
	results map[string][]models.AddressSuggestion
}

func newScriptedSearcher() *scriptedSearcher {
	return &scriptedSearcher{
		started: make(chan string, 16),
		gates:   map[string]chan struct{}{},
		results: map[string][]models.AddressSuggestion{},
	}
}

// SearchAddresses deliberately ignores ctx so a superseded query can still
// deliver its results late.
func (s *scriptedSearcher) SearchAddresses(_ context.Context, query string) []models.AddressSuggestion {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	gate := s.gates[query]
	result := s.results[query]
	s.mu.Unlock()

	s.started <- query
	if gate != nil {
		<-gate
	}
	return result
}

func (s *scriptedSearcher) seen() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.queries...)
}

type recordingSetter struct {
	mu     sync.Mutex
	fields []string
	values map[string]string
}

func (r *recordingSetter) SetField(field, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.values == nil {
		r.values = map[string]string{}
	}
	r.fields = append(r.fields, field)
	r.values[field] = value
}

type listRecorder struct {
	mu    sync.Mutex
	lists [][]models.AddressSuggestion
}

func (l *listRecorder) record(list []models.AddressSuggestion) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.lists = append(l.lists, list)
}

func (l *listRecorder) all() [][]models.AddressSuggestion {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([][]models.AddressSuggestion(nil), l.lists...)
}

func newTestController(t *testing.T, searcher Searcher, setter FieldSetter, validate ValidateFunc) *Controller {
	t.Helper()
	c := New(searcher, setter, validate, Options{Debounce: 20 * time.Millisecond}, logger.NewTestLogger(t))
	t.Cleanup(c.Close)
	return c
}

var (
	staleSuggestion = models.AddressSuggestion{Address: "123 Maple Dr", City: "Plano", State: "TX", Zip: "75023"}
	freshSuggestion = models.AddressSuggestion{Address: "123 Main St", City: "Austin", State: "TX", Zip: "78701"}
)

func TestController_LastQueryWins(t *testing.T) {
	searcher := newScriptedSearcher()
	staleGate := make(chan struct{})
	searcher.gates["123 Ma"] = staleGate
	searcher.results["123 Ma"] = []models.AddressSuggestion{staleSuggestion}
	searcher.results["123 Main"] = []models.AddressSuggestion{freshSuggestion}

	c := newTestController(t, searcher, &recordingSetter{}, nil)
	rec := &listRecorder{}
	c.Subscribe(rec.record)

	c.OnAddressInput("123 Ma")
	require.Equal(t, "123 Ma", <-searcher.started)

	c.OnAddressInput("123 Main")
	require.Equal(t, "123 Main", <-searcher.started)
	require.Eventually(t, func() bool { return len(c.Suggestions()) == 1 }, time.Second, 5*time.Millisecond)

	// The stale query resolves after the newer one.
	close(staleGate)
	c.Wait()

	assert.Equal(t, []models.AddressSuggestion{freshSuggestion}, c.Suggestions())
	for _, list := range rec.all() {
		assert.NotContains(t, list, staleSuggestion)
	}
}

func TestController_Debounce(t *testing.T) {
	searcher := newScriptedSearcher()
	searcher.results["123 Main"] = []models.AddressSuggestion{freshSuggestion}
	c := New(searcher, &recordingSetter{}, nil, Options{Debounce: 100 * time.Millisecond}, logger.NewTestLogger(t))
	t.Cleanup(c.Close)

	for _, text := range []string{"123", "123 ", "123 M", "123 Ma", "123 Mai", "123 Main"} {
		c.OnAddressInput(text)
	}

	require.Equal(t, "123 Main", <-searcher.started)
	c.Wait()

	assert.Equal(t, []string{"123 Main"}, searcher.seen())
	assert.Equal(t, []models.AddressSuggestion{freshSuggestion}, c.Suggestions())
}

func TestController_ShortQueryClears(t *testing.T) {
	searcher := newScriptedSearcher()
	searcher.results["123 Main"] = []models.AddressSuggestion{freshSuggestion}
	c := newTestController(t, searcher, &recordingSetter{}, nil)

	c.OnAddressInput("123 Main")
	<-searcher.started
	c.Wait()
	require.Len(t, c.Suggestions(), 1)

	c.OnAddressInput("12")
	assert.Empty(t, c.Suggestions())

	c.OnAddressInput("  ")
	c.Wait()
	assert.Equal(t, []string{"123 Main"}, searcher.seen(), "short input never searches")
}

func TestController_OnSuggestionSelected(t *testing.T) {
	searcher := newScriptedSearcher()
	searcher.results["123 Main"] = []models.AddressSuggestion{freshSuggestion}
	setter := &recordingSetter{}

	var mu sync.Mutex
	validated := map[string]string{}
	validate := func(field, value string) {
		mu.Lock()
		defer mu.Unlock()
		validated[field] = value
	}

	c := newTestController(t, searcher, setter, validate)
	c.OnAddressInput("123 Main")
	<-searcher.started
	c.Wait()
	require.Len(t, c.Suggestions(), 1)

	c.OnSuggestionSelected(freshSuggestion)
	c.Wait()

	assert.Equal(t, []string{models.FieldAddress, models.FieldCity, models.FieldState}, setter.fields)
	assert.Equal(t, "123 Main St", setter.values[models.FieldAddress])
	assert.Equal(t, "Austin", setter.values[models.FieldCity])
	assert.Equal(t, "TX", setter.values[models.FieldState])
	assert.Empty(t, c.Suggestions())

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, map[string]string{
		models.FieldAddress: "123 Main St",
		models.FieldCity:    "Austin",
		models.FieldState:   "TX",
	}, validated)
}

func TestController_BlurDropsPendingSearch(t *testing.T) {
	searcher := newScriptedSearcher()
	searcher.results["123 Main"] = []models.AddressSuggestion{freshSuggestion}
	c := New(searcher, &recordingSetter{}, nil, Options{Debounce: 50 * time.Millisecond}, logger.NewTestLogger(t))
	t.Cleanup(c.Close)

	c.OnAddressInput("123 Main")
	c.OnBlur()
	c.Wait()

	assert.Empty(t, searcher.seen())
	assert.Empty(t, c.Suggestions())
}

func TestController_Unsubscribe(t *testing.T) {
	searcher := newScriptedSearcher()
	searcher.results["123 Main"] = []models.AddressSuggestion{freshSuggestion}
	c := newTestController(t, searcher, &recordingSetter{}, nil)

	rec := &listRecorder{}
	unsubscribe := c.Subscribe(rec.record)
	unsubscribe()

	c.OnAddressInput("123 Main")
	<-searcher.started
	c.Wait()

	assert.Len(t, c.Suggestions(), 1)
	assert.Empty(t, rec.all())
}
