package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/aqar/internal/utils"
)

// UserIDKey – ключ Locals с UUID пользователя
const UserIDKey = "userID"

// AuthMiddleware создаёт middleware для проверки JWT
func AuthMiddleware(jwtService *utils.JWTService) fiber.Handler {
	return func(c fiber.Ctx) error {
		authHeader := c.Get("Authorization")
		if authHeader == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Missing authorization header",
			})
		}

		// Проверяем Bearer токен
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid authorization header format",
			})
		}

		userID, err := jwtService.ExtractUserID(parts[1])
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": "Invalid or expired token",
			})
		}

		c.Locals(UserIDKey, userID)

		return c.Next()
	}
}

// UserID возвращает UUID пользователя, положенный AuthMiddleware
func UserID(c fiber.Ctx) string {
	id, _ := c.Locals(UserIDKey).(string)
	return id
}
