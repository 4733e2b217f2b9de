package services

import (
	"sync"
	"time"

	"github.com/vytor/part107/internal/models"
)

// DefaultSessionTTL is how long an untouched study session or practice test
// stays in memory.
const DefaultSessionTTL = 12 * time.Hour

// Catalog is the read-only study content the services draw from.
type Catalog interface {
	Modules() []models.ModuleSummary
	Module(id string) (models.Module, bool)
	AllCards() []models.Card
	CardsByModule(moduleID string) []models.Card
	Card(id string) (models.Card, bool)
	AllQuestions() []models.Question
	QuestionsByModule(moduleID string) []models.Question
	ModuleForQuestion(questionID string) (string, bool)
}

type Option func(*options)

type options struct {
	now        func() time.Time
	ttl        time.Duration
	quickLimit int
}

func defaultOptions() options {
	return options{
		now: time.Now,
		ttl: DefaultSessionTTL,
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// WithSessionTTL sets how long idle sessions are kept. Zero keeps them forever.
func WithSessionTTL(ttl time.Duration) Option {
	return func(o *options) {
		o.ttl = ttl
	}
}

// WithQuickLimit sets the deck size of quick study sessions.
func WithQuickLimit(n int) Option {
	return func(o *options) {
		o.quickLimit = n
	}
}

func applyOptions(opts []Option) options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// entry is one live session. Its mutex serializes operations on value; the
// registry mutex only guards the map.
type entry[T any] struct {
	mu      sync.Mutex
	value   T
	touched time.Time
}

type registry[T any] struct {
	mu    sync.Mutex
	items map[string]*entry[T]
	ttl   time.Duration
}

func newRegistry[T any](ttl time.Duration) *registry[T] {
	return &registry[T]{items: make(map[string]*entry[T]), ttl: ttl}
}

// put stores v and drops entries idle for longer than the ttl.
func (r *registry[T]) put(id string, v T, now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.ttl > 0 {
		for key, e := range r.items {
			if now.Sub(e.touched) > r.ttl {
				delete(r.items, key)
			}
		}
	}
	r.items[id] = &entry[T]{value: v, touched: now}
}

func (r *registry[T]) get(id string, now time.Time) (*entry[T], bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.items[id]
	if !ok {
		return nil, false
	}
	if r.ttl > 0 && now.Sub(e.touched) > r.ttl {
		delete(r.items, id)
		return nil, false
	}
	e.touched = now
	return e, true
}

func (r *registry[T]) remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return false
	}
	delete(r.items, id)
	return true
}
