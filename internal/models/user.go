package models

import (
	"time"

	"github.com/google/uuid"
)

// User представляет пользователя в системе
type User struct {
	ID          uuid.UUID `json:"id"`
	Username    string    `json:"username"`
	FirstName   string    `json:"first_name"`
	LastName    string    `json:"last_name"`
	AvatarURL   string    `json:"avatar_url"`
	CreatedAt   time.Time `json:"created_at"`
	LastLoginAt time.Time `json:"last_login_at"`
	IsActive    bool      `json:"is_active"`
}

// TelegramProfile – данные пользователя из Telegram init data
type TelegramProfile struct {
	TelegramID   int64
	Username     string
	FirstName    string
	LastName     string
	PhotoURL     string
	IsPremium    bool
	LanguageCode string
	RawData      []byte
}
