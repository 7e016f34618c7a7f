// Package search запоминает последние фильтры и поисковые запросы.
package search

import (
	"strings"
	"sync"

	"github.com/rajivgeraev/aqar/internal/kvstore"
	"github.com/rajivgeraev/aqar/internal/prefs"
	"github.com/rajivgeraev/aqar/internal/recent"
)

const (
	filtersKey = "search_filters"
	recentKey  = "recent_searches"

	// MaxRecent – сколько запросов хранится в истории поиска
	MaxRecent = 5

	// All – значение фильтра «без ограничений»
	All = "all"
)

// Filters – состояние формы фильтров
type Filters struct {
	Category    string `json:"category"`
	City        string `json:"city"`
	ListingType string `json:"listingType"`
	MinPrice    string `json:"minPrice"`
	MaxPrice    string `json:"maxPrice"`
}

// DefaultFilters возвращает фильтры без ограничений
func DefaultFilters() Filters {
	return Filters{Category: All, City: All, ListingType: All}
}

// PreferenceSource отдаёт текущие настройки
type PreferenceSource interface {
	Get() prefs.Record
}

// Cache – кеш фильтров и недавних запросов
type Cache struct {
	mu    sync.Mutex
	store *kvstore.Store
	prefs PreferenceSource
}

// NewCache создаёт кеш. prefs нужен только для AutoSave.
func NewCache(store *kvstore.Store, prefs PreferenceSource) *Cache {
	return &Cache{store: store, prefs: prefs}
}

// SaveFilters перезаписывает сохранённые фильтры
func (c *Cache) SaveFilters(f Filters) {
	kvstore.Put(c.store, filtersKey, f)
}

// AutoSave сохраняет фильтры, если включена настройка autoSaveSearch
func (c *Cache) AutoSave(f Filters) bool {
	if c.prefs == nil || !c.prefs.Get().AutoSaveSearch {
		return false
	}
	c.SaveFilters(f)
	return true
}

// Filters возвращает сохранённые фильтры
func (c *Cache) Filters() (Filters, bool) {
	return kvstore.Get[Filters](c.store, filtersKey)
}

// AddRecentSearch добавляет запрос в начало истории поиска.
// Пустые после обрезки пробелов запросы игнорируются.
func (c *Cache) AddRecentSearch(term string) {
	term = strings.TrimSpace(term)
	if term == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	list, _ := kvstore.Get[[]string](c.store, recentKey)
	kvstore.Put(c.store, recentKey, recent.Push(list, term, MaxRecent))
}

// RecentSearches возвращает недавние запросы, самые свежие первыми
func (c *Cache) RecentSearches() []string {
	list, ok := kvstore.Get[[]string](c.store, recentKey)
	if !ok || list == nil {
		return []string{}
	}
	return list
}

// ClearRecentSearches очищает историю поиска
func (c *Cache) ClearRecentSearches() {
	c.mu.Lock()
	defer c.mu.Unlock()

	kvstore.Put(c.store, recentKey, []string{})
}
