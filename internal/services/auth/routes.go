package auth

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/aqar/internal/db"
	"github.com/rajivgeraev/aqar/internal/middleware"
	"github.com/rajivgeraev/aqar/internal/models"
)

// ProfileStore читает пользователя по id
type ProfileStore interface {
	GetByID(ctx context.Context, userID uuid.UUID) (*models.User, error)
}

// SetupRoutes регистрирует маршруты в Fiber
func (s *AuthService) SetupRoutes(app *fiber.App) {
	app.Post("/api/auth/telegram", s.TelegramAuthHandler)

	// Защищенные маршруты
	protected := app.Group("/api")
	protected.Use(middleware.AuthMiddleware(s.jwtService))

	protected.Get("/profile", s.ProfileHandler)
}

// ProfileHandler возвращает профиль текущего пользователя
func (s *AuthService) ProfileHandler(c fiber.Ctx) error {
	profiles, ok := s.users.(ProfileStore)
	if !ok {
		return fiber.ErrNotImplemented
	}

	userID, err := uuid.Parse(middleware.UserID(c))
	if err != nil {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid user ID"})
	}

	user, err := profiles.GetByID(c.Context(), userID)
	if err != nil {
		if errors.Is(err, db.ErrUserNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		s.logger.Error("profile lookup failed", "user_id", userID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Failed to load profile"})
	}
	return c.JSON(user)
}
