// Package favorites держит в памяти избранное текущего пользователя и
// синхронизирует его с сервером.
//
// Состояние заменяется целиком при каждой загрузке. Любое push-уведомление
// об изменении приводит к одной полной перезагрузке, слияния нет.
package favorites

import (
	"context"
	"errors"

	"github.com/rajivgeraev/aqar/internal/models"
)

var (
	// ErrAuthRequired – операция требует вошедшего пользователя
	ErrAuthRequired = errors.New("authentication required")
	// ErrAlreadyFavorited – объявление уже в избранном
	ErrAlreadyFavorited = errors.New("listing already favorited")
	// ErrNotFound – объявления нет или оно не активно
	ErrNotFound = errors.New("listing not found")
)

// ChangeEvent – уведомление об изменении избранного
type ChangeEvent = models.FavoriteChange

// Subscription – открытая подписка на изменения избранного одного пользователя.
// Close освобождает подписку и закрывает канал Events.
type Subscription interface {
	Events() <-chan ChangeEvent
	Close() error
}

// Remote – серверное хранилище избранного
type Remote interface {
	ListFavorites(ctx context.Context, userID string) ([]models.Listing, error)
	AddFavorite(ctx context.Context, userID, listingID string) error
	RemoveFavorite(ctx context.Context, userID, listingID string) error
	SubscribeFavorites(ctx context.Context, userID string) (Subscription, error)
}
