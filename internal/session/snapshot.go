// Package session запоминает, где пользователь был, и предлагает вернуться туда
// при следующем запуске.
package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/rajivgeraev/aqar/internal/kvstore"
	"github.com/rajivgeraev/aqar/internal/nav"
)

const storageKey = "session_snapshot"

// Snapshot – последний посещённый маршрут
type Snapshot struct {
	Path      string    `json:"path"`
	Search    string    `json:"search"`
	Timestamp time.Time `json:"timestamp"`
}

// Target возвращает адрес для перехода
func (s Snapshot) Target() string {
	return s.Path + s.Search
}

// Recorder принимает посещённые маршруты, обычно это history.Navigation
type Recorder interface {
	Record(route string)
}

// Clock возвращает текущее время
type Clock func() time.Time

type options struct {
	now    Clock
	logger *slog.Logger
}

// Option настраивает Tracker и Restorer
type Option func(*options)

// WithClock подменяет часы
func WithClock(c Clock) Option {
	return func(o *options) {
		if c != nil {
			o.now = c
		}
	}
}

// WithLogger задаёт логгер
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		if l != nil {
			o.logger = l
		}
	}
}

func buildOptions(opts []Option) options {
	o := options{now: time.Now, logger: slog.Default()}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// Tracker пишет снимок сессии при каждой смене маршрута
type Tracker struct {
	mu      sync.Mutex
	store   *kvstore.Store
	history Recorder
	now     Clock
}

// NewTracker создаёт трекер. history может быть nil.
func NewTracker(store *kvstore.Store, history Recorder, opts ...Option) *Tracker {
	o := buildOptions(opts)
	return &Tracker{store: store, history: history, now: o.now}
}

// RouteChanged сохраняет снимок и добавляет маршрут в историю навигации.
// Время снимка не уменьшается даже при переводе часов назад.
func (t *Tracker) RouteChanged(route nav.Route) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ts := t.now().UTC()
	if prev, ok := kvstore.Get[Snapshot](t.store, storageKey); ok && ts.Before(prev.Timestamp) {
		ts = prev.Timestamp
	}

	kvstore.Put(t.store, storageKey, Snapshot{
		Path:      route.Path,
		Search:    route.Search,
		Timestamp: ts,
	})

	if t.history != nil {
		t.history.Record(route.String())
	}
}

// Latest возвращает сохранённый снимок
func (t *Tracker) Latest() (Snapshot, bool) {
	snap, ok := kvstore.Get[Snapshot](t.store, storageKey)
	if !ok || snap.Path == "" {
		return Snapshot{}, false
	}
	return snap, true
}

// Observe фиксирует текущий маршрут и все последующие переходы, пока жив ctx
func (t *Tracker) Observe(ctx context.Context, router nav.Router) {
	changes, cancel := router.Subscribe()
	defer cancel()

	t.RouteChanged(router.Current())

	for {
		select {
		case <-ctx.Done():
			return
		case route, ok := <-changes:
			if !ok {
				return
			}
			t.RouteChanged(route)
		}
	}
}
