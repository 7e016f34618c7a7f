// Package nav описывает маршруты клиента и навигацию между ними.
package nav

import (
	"strings"
	"sync"

	"github.com/rajivgeraev/aqar/internal/watch"
)

// Route – путь и строка запроса
type Route struct {
	Path   string `json:"path"`
	Search string `json:"search"`
}

// ParseRoute разбирает "/path?query". Search сохраняет ведущий "?".
func ParseRoute(raw string) Route {
	raw = strings.TrimSpace(raw)
	if i := strings.Index(raw, "#"); i >= 0 {
		raw = raw[:i]
	}

	path, query, hasQuery := strings.Cut(raw, "?")
	if path == "" {
		path = "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}

	r := Route{Path: path}
	if hasQuery && query != "" {
		r.Search = "?" + query
	}
	return r
}

// String возвращает path + search
func (r Route) String() string {
	return r.Path + r.Search
}

// Router – клиентская навигация
type Router interface {
	Current() Route
	Navigate(to string)
	Subscribe() (<-chan Route, func())
}

// MemoryRouter хранит текущий маршрут в памяти
type MemoryRouter struct {
	mu      sync.RWMutex
	current Route
	changes *watch.Broadcaster[Route]
}

// NewMemoryRouter создаёт роутер, стоящий на start
func NewMemoryRouter(start string) *MemoryRouter {
	return &MemoryRouter{
		current: ParseRoute(start),
		changes: watch.NewBroadcaster[Route](),
	}
}

func (r *MemoryRouter) Current() Route {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.current
}

// Navigate переходит на маршрут to. Переход на тот же маршрут не уведомляет подписчиков.
func (r *MemoryRouter) Navigate(to string) {
	next := ParseRoute(to)

	r.mu.Lock()
	if next == r.current {
		r.mu.Unlock()
		return
	}
	r.current = next
	r.mu.Unlock()

	r.changes.Publish(next)
}

func (r *MemoryRouter) Subscribe() (<-chan Route, func()) {
	return r.changes.Subscribe(16)
}

// Close закрывает каналы подписчиков
func (r *MemoryRouter) Close() {
	r.changes.Close()
}
