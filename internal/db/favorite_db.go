package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rajivgeraev/aqar/internal/favorites"
	"github.com/rajivgeraev/aqar/internal/models"
)

// uniqueViolation – код ошибки PostgreSQL при нарушении уникальности
const uniqueViolation = "23505"

// FavoriteRepository хранит избранное в PostgreSQL. Каждое изменение
// в той же транзакции отправляет NOTIFY в канал channel.
type FavoriteRepository struct {
	pool    *pgxpool.Pool
	channel string
}

// NewFavoriteRepository создаёт репозиторий
func NewFavoriteRepository(pool *pgxpool.Pool, channel string) *FavoriteRepository {
	return &FavoriteRepository{pool: pool, channel: channel}
}

// List возвращает избранные активные объявления пользователя, новые первыми
func (r *FavoriteRepository) List(ctx context.Context, userID uuid.UUID) ([]models.Favorite, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := r.pool.Query(ctx, `
		SELECT f.id, f.user_id, f.listing_id, f.created_at,
			   l.id, l.user_id, l.title, l.description, l.category, l.city, l.listing_type,
			   l.price, l.currency, l.status, l.created_at, l.updated_at
		FROM favorites f
		JOIN listings l ON f.listing_id = l.id
		WHERE f.user_id = $1 AND l.status = 'active'
		ORDER BY f.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса избранных объявлений: %w", err)
	}
	defer rows.Close()

	var list []models.Favorite
	byListing := make(map[uuid.UUID]*models.Listing)
	var listingIDs []string

	for rows.Next() {
		var f models.Favorite
		var l models.Listing
		if err := rows.Scan(
			&f.ID, &f.UserID, &f.ListingID, &f.CreatedAt,
			&l.ID, &l.UserID, &l.Title, &l.Description, &l.Category, &l.City, &l.ListingType,
			&l.Price, &l.Currency, &l.Status, &l.CreatedAt, &l.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("ошибка сканирования строки: %w", err)
		}
		l.Images = []models.ListingImage{}
		f.Listing = &l
		list = append(list, f)
		listingIDs = append(listingIDs, l.ID.String())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка чтения избранных объявлений: %w", err)
	}

	for i := range list {
		byListing[list[i].ListingID] = list[i].Listing
	}
	if err := r.loadImages(ctx, listingIDs, byListing); err != nil {
		return nil, err
	}
	return list, nil
}

// loadImages подгружает изображения одним запросом, упорядочивая по позиции
func (r *FavoriteRepository) loadImages(ctx context.Context, ids []string, byListing map[uuid.UUID]*models.Listing) error {
	if len(ids) == 0 {
		return nil
	}

	rows, err := r.pool.Query(ctx, `
		SELECT id, listing_id, url, preview_url, is_main, position
		FROM listing_images
		WHERE listing_id = ANY($1::uuid[])
		ORDER BY listing_id, position ASC
	`, ids)
	if err != nil {
		return fmt.Errorf("ошибка запроса изображений: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var img models.ListingImage
		if err := rows.Scan(&img.ID, &img.ListingID, &img.URL, &img.PreviewURL, &img.IsMain, &img.Position); err != nil {
			return fmt.Errorf("ошибка сканирования изображения: %w", err)
		}
		if l, ok := byListing[img.ListingID]; ok {
			l.Images = append(l.Images, img)
		}
	}
	return rows.Err()
}

// Add добавляет объявление в избранное и возвращает id записи
func (r *FavoriteRepository) Add(ctx context.Context, userID, listingID uuid.UUID) (uuid.UUID, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var favoriteID uuid.UUID
	err := r.inTx(ctx, func(tx pgx.Tx) error {
		var exists bool
		if err := tx.QueryRow(ctx, `
			SELECT EXISTS(SELECT 1 FROM listings WHERE id = $1 AND status = 'active')
		`, listingID).Scan(&exists); err != nil {
			return fmt.Errorf("ошибка проверки объявления: %w", err)
		}
		if !exists {
			return favorites.ErrNotFound
		}

		err := tx.QueryRow(ctx, `
			INSERT INTO favorites (user_id, listing_id)
			VALUES ($1, $2)
			RETURNING id
		`, userID, listingID).Scan(&favoriteID)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
				return favorites.ErrAlreadyFavorited
			}
			return fmt.Errorf("ошибка добавления в избранное: %w", err)
		}

		return r.notify(ctx, tx, userID, models.FavoriteOpInsert)
	})
	if err != nil {
		return uuid.Nil, err
	}
	return favoriteID, nil
}

// Remove удаляет объявление из избранного пользователя
func (r *FavoriteRepository) Remove(ctx context.Context, userID, listingID uuid.UUID) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return r.inTx(ctx, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, `
			DELETE FROM favorites WHERE user_id = $1 AND listing_id = $2
		`, userID, listingID)
		if err != nil {
			return fmt.Errorf("ошибка удаления из избранного: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return favorites.ErrNotFound
		}

		return r.notify(ctx, tx, userID, models.FavoriteOpDelete)
	})
}

// Find возвращает id записи избранного, если объявление в избранном
func (r *FavoriteRepository) Find(ctx context.Context, userID, listingID uuid.UUID) (uuid.UUID, bool, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var favoriteID uuid.UUID
	err := r.pool.QueryRow(ctx, `
		SELECT id FROM favorites WHERE user_id = $1 AND listing_id = $2
	`, userID, listingID).Scan(&favoriteID)
	if errors.Is(err, pgx.ErrNoRows) {
		return uuid.Nil, false, nil
	}
	if err != nil {
		return uuid.Nil, false, fmt.Errorf("ошибка проверки избранного: %w", err)
	}
	return favoriteID, true, nil
}

func (r *FavoriteRepository) inTx(ctx context.Context, fn func(pgx.Tx) error) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка при начале транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := fn(tx); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}
	return nil
}

// notify ставит уведомление в очередь; PostgreSQL доставит его только после COMMIT
func (r *FavoriteRepository) notify(ctx context.Context, tx pgx.Tx, userID uuid.UUID, op string) error {
	payload, err := json.Marshal(models.FavoriteChange{UserID: userID.String(), Op: op})
	if err != nil {
		return err
	}
	if _, err := tx.Exec(ctx, `SELECT pg_notify($1, $2)`, r.channel, string(payload)); err != nil {
		return fmt.Errorf("ошибка отправки уведомления: %w", err)
	}
	return nil
}
