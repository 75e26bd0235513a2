// internal/form/address/controller.go
package address

import (
	"context"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"lead-capture/internal/common/logger"
	"lead-capture/internal/common/metrics"
	"lead-capture/internal/models"
)

const (
	DefaultDebounce       = 300 * time.Millisecond
	DefaultMinQueryLength = 3
)

// Searcher looks up candidate addresses. It never fails; errors come back as
// an empty list.
type Searcher interface {
	SearchAddresses(ctx context.Context, query string) []models.AddressSuggestion
}

// FieldSetter receives the fields a selected suggestion fans out into.
type FieldSetter interface {
	SetField(field, value string)
}

// ValidateFunc runs field-level validation for one field.
type ValidateFunc func(field, value string)

type Options struct {
	Debounce       time.Duration
	MinQueryLength int
}

// Controller turns partial address text into a short list of suggestions.
// Only the most recently issued query may update the list: every input,
// selection or blur bumps a sequence number and results carrying an older
// number are dropped.
type Controller struct {
	searcher Searcher
	setter   FieldSetter
	validate ValidateFunc
	opts     Options
	logger   logger.Logger

	mu          sync.Mutex
	seq         uint64
	timer       *time.Timer
	cancel      context.CancelFunc
	suggestions []models.AddressSuggestion
	listeners   map[int]func([]models.AddressSuggestion)
	nextID      int
	closed      bool
	version     uint64

	// notifyMu orders deliveries; a notification older than the last one
	// delivered is skipped.
	notifyMu sync.Mutex
	notified uint64

	pending sync.WaitGroup
}

func New(searcher Searcher, setter FieldSetter, validate ValidateFunc, opts Options, log logger.Logger) *Controller {
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultDebounce
	}
	if opts.MinQueryLength <= 0 {
		opts.MinQueryLength = DefaultMinQueryLength
	}
	return &Controller{
		searcher:  searcher,
		setter:    setter,
		validate:  validate,
		opts:      opts,
		logger:    logger.Component(log, "address"),
		listeners: map[int]func([]models.AddressSuggestion){},
	}
}

// OnAddressInput schedules a search for text after the quiet period. Each
// call restarts the period. Text under the minimum length clears the list.
func (c *Controller) OnAddressInput(text string) {
	query := strings.TrimSpace(text)

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	seq := c.invalidateLocked()

	if utf8.RuneCountInString(query) < c.opts.MinQueryLength {
		changed := c.setLocked(nil)
		c.mu.Unlock()
		c.notify(changed)
		return
	}

	c.pending.Add(1)
	c.timer = time.AfterFunc(c.opts.Debounce, func() {
		defer c.pending.Done()
		c.search(seq, query)
	})
	c.mu.Unlock()
}

// OnSuggestionSelected copies the suggestion into address, city and state,
// validates the three fields in the background and clears the list.
func (c *Controller) OnSuggestionSelected(s models.AddressSuggestion) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.invalidateLocked()
	c.mu.Unlock()

	fields := []struct{ name, value string }{
		{models.FieldAddress, s.Address},
		{models.FieldCity, s.City},
		{models.FieldState, s.State},
	}
	for _, f := range fields {
		c.setter.SetField(f.name, f.value)
	}

	if c.validate != nil {
		c.pending.Add(1)
		go func() {
			defer c.pending.Done()
			for _, f := range fields {
				c.validate(f.name, f.value)
			}
		}()
	}

	c.clear()
}

// OnBlur clears the list and drops any pending search.
func (c *Controller) OnBlur() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.invalidateLocked()
	c.mu.Unlock()

	c.clear()
}

// Suggestions returns a copy of the current list.
func (c *Controller) Suggestions() []models.AddressSuggestion {
	c.mu.Lock()
	defer c.mu.Unlock()
	return copyList(c.suggestions)
}

// Subscribe registers fn to receive every change of the list. The returned
// func unsubscribes.
func (c *Controller) Subscribe(fn func([]models.AddressSuggestion)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.listeners, id)
	}
}

// Close stops pending work. Further input is ignored.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.invalidateLocked()
	c.closed = true
	c.listeners = map[int]func([]models.AddressSuggestion){}
	c.mu.Unlock()

	c.Wait()
}

// Wait blocks until scheduled searches and background validations finish.
func (c *Controller) Wait() {
	c.pending.Wait()
}

func (c *Controller) search(seq uint64, query string) {
	c.mu.Lock()
	if seq != c.seq || c.closed {
		c.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	c.mu.Unlock()
	defer cancel()

	results := c.searcher.SearchAddresses(ctx, query)

	c.mu.Lock()
	if seq != c.seq || c.closed {
		c.mu.Unlock()
		metrics.AddressSearches.WithLabelValues(metrics.OutcomeSuperseded).Inc()
		c.logger.Debug("dropping superseded address results", map[string]interface{}{"query": query})
		return
	}
	changed := c.setLocked(results)
	c.mu.Unlock()

	c.notify(changed)
}

// invalidateLocked bumps the sequence, stops the debounce timer and cancels
// an in-flight search.
func (c *Controller) invalidateLocked() uint64 {
	c.seq++
	if c.timer != nil {
		if c.timer.Stop() {
			c.pending.Done()
		}
		c.timer = nil
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
	return c.seq
}

func (c *Controller) clear() {
	c.mu.Lock()
	changed := c.setLocked(nil)
	c.mu.Unlock()
	c.notify(changed)
}

// setLocked replaces the list and returns the listeners to notify together
// with the new list, or nil when nothing changed.
func (c *Controller) setLocked(list []models.AddressSuggestion) *notification {
	if len(list) == 0 && len(c.suggestions) == 0 {
		c.suggestions = nil
		return nil
	}
	c.suggestions = copyList(list)
	c.version++
	n := &notification{version: c.version, list: copyList(c.suggestions)}
	for _, fn := range c.listeners {
		n.listeners = append(n.listeners, fn)
	}
	return n
}

type notification struct {
	version   uint64
	list      []models.AddressSuggestion
	listeners []func([]models.AddressSuggestion)
}

func (c *Controller) notify(n *notification) {
	if n == nil {
		return
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if n.version <= c.notified {
		return
	}
	c.notified = n.version
	for _, fn := range n.listeners {
		fn(copyList(n.list))
	}
}

func copyList(in []models.AddressSuggestion) []models.AddressSuggestion {
	out := make([]models.AddressSuggestion, len(in))
	copy(out, in)
	return out
}
