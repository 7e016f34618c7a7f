package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rajivgeraev/aqar/internal/models"
)

// ErrUserNotFound – пользователя нет
var ErrUserNotFound = errors.New("user not found")

// UserRepository хранит пользователей
type UserRepository struct {
	pool *pgxpool.Pool
}

// NewUserRepository создаёт репозиторий пользователей
func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

// UpsertTelegramUser создает нового пользователя через Telegram или обновляет существующего
func (r *UserRepository) UpsertTelegramUser(ctx context.Context, p models.TelegramProfile) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("ошибка при начале транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	var userID uuid.UUID
	err = tx.QueryRow(ctx, `
		SELECT user_id FROM telegram_users WHERE telegram_id = $1
	`, p.TelegramID).Scan(&userID)

	switch {
	case errors.Is(err, pgx.ErrNoRows):
		err = tx.QueryRow(ctx, `
			INSERT INTO users (first_name, last_name, username, avatar_url, last_login_at)
			VALUES ($1, $2, $3, $4, CURRENT_TIMESTAMP)
			RETURNING id
		`, p.FirstName, p.LastName, p.Username, p.PhotoURL).Scan(&userID)
		if err != nil {
			return nil, fmt.Errorf("ошибка при создании пользователя: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO telegram_users (user_id, telegram_id, username, first_name, last_name, photo_url, is_premium, language_code, raw_data)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, userID, p.TelegramID, p.Username, p.FirstName, p.LastName, p.PhotoURL, p.IsPremium, p.LanguageCode, p.RawData)
		if err != nil {
			return nil, fmt.Errorf("ошибка при создании Telegram пользователя: %w", err)
		}

	case err != nil:
		return nil, fmt.Errorf("ошибка при проверке существования пользователя Telegram: %w", err)

	default:
		_, err = tx.Exec(ctx, `
			UPDATE users SET last_login_at = CURRENT_TIMESTAMP WHERE id = $1
		`, userID)
		if err != nil {
			return nil, fmt.Errorf("ошибка при обновлении времени входа пользователя: %w", err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE telegram_users
			SET username = $1, first_name = $2, last_name = $3, photo_url = $4,
				is_premium = $5, language_code = $6, raw_data = $7, updated_at = CURRENT_TIMESTAMP
			WHERE telegram_id = $8
		`, p.Username, p.FirstName, p.LastName, p.PhotoURL, p.IsPremium, p.LanguageCode, p.RawData, p.TelegramID)
		if err != nil {
			return nil, fmt.Errorf("ошибка при обновлении Telegram пользователя: %w", err)
		}
	}

	if _, err = tx.Exec(ctx, `
		INSERT INTO user_sessions (user_id, login_time) VALUES ($1, CURRENT_TIMESTAMP)
	`, userID); err != nil {
		return nil, fmt.Errorf("ошибка при создании сессии пользователя: %w", err)
	}

	user, err := scanUser(tx.QueryRow(ctx, selectUser, userID))
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении пользователя: %w", err)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}
	return user, nil
}

// GetByID получает пользователя по ID
func (r *UserRepository) GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	return scanUser(r.pool.QueryRow(ctx, selectUser, userID))
}

const selectUser = `
	SELECT id, username, first_name, last_name, avatar_url, created_at, last_login_at, is_active
	FROM users WHERE id = $1
`

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	var username, firstName, lastName, avatarURL pgtype.Text

	if err := row.Scan(
		&user.ID, &username, &firstName, &lastName, &avatarURL,
		&user.CreatedAt, &user.LastLoginAt, &user.IsActive,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	// Преобразуем nullable поля
	user.Username = username.String
	user.FirstName = firstName.String
	user.LastName = lastName.String
	user.AvatarURL = avatarURL.String
	return &user, nil
}
