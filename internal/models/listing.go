package models

import (
	"time"

	"github.com/google/uuid"
)

// Типы сделок
const (
	ListingTypeSale = "sale"
	ListingTypeRent = "rent"
)

// Категории объявлений
const (
	CategoryRealEstate  = "real_estate"
	CategoryCars        = "cars"
	CategoryFurniture   = "furniture"
	CategoryElectronics = "electronics"
)

// ListingStatusActive – объявление опубликовано
const ListingStatusActive = "active"

// Listing представляет объявление в системе
type Listing struct {
	ID          uuid.UUID      `json:"id"`
	UserID      uuid.UUID      `json:"user_id"`
	Title       string         `json:"title"`
	Description string         `json:"description"`
	Category    string         `json:"category"`
	City        string         `json:"city"`
	ListingType string         `json:"listing_type"`
	Price       int64          `json:"price"`
	Currency    string         `json:"currency"`
	Status      string         `json:"status"`
	Images      []ListingImage `json:"images"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

// MainImage возвращает главное изображение или первое по порядку
func (l Listing) MainImage() (ListingImage, bool) {
	for _, img := range l.Images {
		if img.IsMain {
			return img, true
		}
	}
	if len(l.Images) > 0 {
		return l.Images[0], true
	}
	return ListingImage{}, false
}

// ListingImage представляет изображение объявления
type ListingImage struct {
	ID         uuid.UUID `json:"id"`
	ListingID  uuid.UUID `json:"listing_id"`
	URL        string    `json:"url"`
	PreviewURL string    `json:"preview_url,omitempty"`
	IsMain     bool      `json:"is_main"`
	Position   int       `json:"position"`
}
