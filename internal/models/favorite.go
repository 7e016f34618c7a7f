package models

import (
	"time"

	"github.com/google/uuid"
)

// Favorite представляет запись избранного объявления
type Favorite struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"user_id"`
	ListingID uuid.UUID `json:"listing_id"`
	CreatedAt time.Time `json:"created_at"`

	// Дополнительные поля для API
	Listing *Listing `json:"listing,omitempty"`
}

// FavoriteResponse представляет структуру ответа API с избранными объявлениями
type FavoriteResponse struct {
	Favorites []Favorite `json:"favorites"`
	Total     int        `json:"total"`
}

// Listings возвращает объявления из ответа, пропуская записи без объявления
func (r FavoriteResponse) Listings() []Listing {
	out := make([]Listing, 0, len(r.Favorites))
	for _, f := range r.Favorites {
		if f.Listing != nil {
			out = append(out, *f.Listing)
		}
	}
	return out
}

// FavoriteChange – уведомление об изменении избранного пользователя.
// Само изменённое объявление не передаётся.
type FavoriteChange struct {
	UserID string `json:"user_id"`
	Op     string `json:"op"`
}

// Операции над избранным
const (
	FavoriteOpInsert = "INSERT"
	FavoriteOpDelete = "DELETE"
)
