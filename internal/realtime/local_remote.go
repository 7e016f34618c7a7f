package realtime

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/rajivgeraev/aqar/internal/favorites"
	"github.com/rajivgeraev/aqar/internal/models"
)

// FavoriteStore – хранилище избранного на стороне сервера
type FavoriteStore interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Favorite, error)
	Add(ctx context.Context, userID, listingID uuid.UUID) (uuid.UUID, error)
	Remove(ctx context.Context, userID, listingID uuid.UUID) error
}

// LocalRemote отдаёт избранное из хранилища и шины того же процесса.
// Уведомления приходят в шину от PGListener, сам LocalRemote их не публикует.
type LocalRemote struct {
	store FavoriteStore
	hub   *Hub
}

// NewLocalRemote создаёт LocalRemote
func NewLocalRemote(store FavoriteStore, hub *Hub) *LocalRemote {
	return &LocalRemote{store: store, hub: hub}
}

func (r *LocalRemote) ListFavorites(ctx context.Context, userID string) ([]models.Listing, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return nil, fmt.Errorf("user id: %w", err)
	}
	list, err := r.store.List(ctx, uid)
	if err != nil {
		return nil, err
	}
	return models.FavoriteResponse{Favorites: list}.Listings(), nil
}

func (r *LocalRemote) AddFavorite(ctx context.Context, userID, listingID string) error {
	uid, lid, err := parseIDs(userID, listingID)
	if err != nil {
		return err
	}
	_, err = r.store.Add(ctx, uid, lid)
	return err
}

func (r *LocalRemote) RemoveFavorite(ctx context.Context, userID, listingID string) error {
	uid, lid, err := parseIDs(userID, listingID)
	if err != nil {
		return err
	}
	return r.store.Remove(ctx, uid, lid)
}

func (r *LocalRemote) SubscribeFavorites(_ context.Context, userID string) (favorites.Subscription, error) {
	return r.hub.Subscribe(userID), nil
}

func parseIDs(userID, listingID string) (uuid.UUID, uuid.UUID, error) {
	uid, err := uuid.Parse(userID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("user id: %w", err)
	}
	lid, err := uuid.Parse(listingID)
	if err != nil {
		return uuid.Nil, uuid.Nil, fmt.Errorf("listing id %q: %w", listingID, favorites.ErrNotFound)
	}
	return uid, lid, nil
}
