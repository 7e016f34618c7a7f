// Package history хранит последние посещённые маршруты.
package history

import (
	"sync"

	"github.com/rajivgeraev/aqar/internal/kvstore"
	"github.com/rajivgeraev/aqar/internal/recent"
)

const (
	storageKey = "navigation_history"
	// MaxEntries – сколько маршрутов помнит история
	MaxEntries = 10
)

// Navigation – история навигации, самые свежие маршруты первыми
type Navigation struct {
	mu    sync.Mutex
	store *kvstore.Store
}

// NewNavigation создаёт историю поверх store
func NewNavigation(store *kvstore.Store) *Navigation {
	return &Navigation{store: store}
}

// Record переносит route в начало истории и сохраняет не более MaxEntries записей
func (n *Navigation) Record(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	list, _ := kvstore.Get[[]string](n.store, storageKey)
	kvstore.Put(n.store, storageKey, recent.Push(list, route, MaxEntries))
}

// List возвращает сохранённую историю
func (n *Navigation) List() []string {
	list, ok := kvstore.Get[[]string](n.store, storageKey)
	if !ok || list == nil {
		return []string{}
	}
	return list
}

// Clear очищает историю
func (n *Navigation) Clear() {
	n.mu.Lock()
	defer n.mu.Unlock()

	kvstore.Put(n.store, storageKey, []string{})
}
