package auth

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	initdata "github.com/telegram-mini-apps/init-data-golang"

	"github.com/rajivgeraev/aqar/internal/models"
	"github.com/rajivgeraev/aqar/internal/utils"
)

// initDataTTL – сколько живут данные запуска Telegram
const initDataTTL = 24 * time.Hour

// UserStore создаёт или обновляет пользователя Telegram
type UserStore interface {
	UpsertTelegramUser(ctx context.Context, p models.TelegramProfile) (*models.User, error)
}

// AuthService – структура для обработки авторизации
type AuthService struct {
	botToken   string
	users      UserStore
	jwtService *utils.JWTService
	logger     *slog.Logger
}

// NewAuthService – конструктор AuthService
func NewAuthService(botToken string, users UserStore, jwtService *utils.JWTService, logger *slog.Logger) *AuthService {
	return &AuthService{
		botToken:   botToken,
		users:      users,
		jwtService: jwtService,
		logger:     logger,
	}
}

// GetJWTService возвращает сервис токенов
func (s *AuthService) GetJWTService() *utils.JWTService {
	return s.jwtService
}

// TelegramAuthHandler проверяет initData, создает пользователя и возвращает JWT
func (s *AuthService) TelegramAuthHandler(c fiber.Ctx) error {
	var payload struct {
		InitData string `json:"init_data"`
	}

	if err := c.Bind().Body(&payload); err != nil || payload.InitData == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	}

	// Проверяем initData
	if err := initdata.Validate(payload.InitData, s.botToken, initDataTTL); err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid Telegram data"})
	}

	data, err := initdata.Parse(payload.InitData)
	if err != nil || data.User.ID == 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Failed to parse initData"})
	}

	rawUser, _ := json.Marshal(data.User)

	user, err := s.users.UpsertTelegramUser(c.Context(), models.TelegramProfile{
		TelegramID:   data.User.ID,
		Username:     data.User.Username,
		FirstName:    data.User.FirstName,
		LastName:     data.User.LastName,
		PhotoURL:     data.User.PhotoURL,
		IsPremium:    data.User.IsPremium,
		LanguageCode: data.User.LanguageCode,
		RawData:      rawUser,
	})
	if err != nil {
		s.logger.Error("telegram user upsert failed", "telegram_id", data.User.ID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to save user"})
	}

	jwtToken, err := s.jwtService.GenerateToken(user.ID.String())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to generate JWT"})
	}

	return c.JSON(fiber.Map{
		"token": jwtToken,
		"user":  user,
	})
}
