package favorite

import (
	"github.com/gofiber/fiber/v3"

	"github.com/rajivgeraev/aqar/internal/middleware"
)

// SetupRoutes настраивает маршруты для API избранного
func (s *FavoriteService) SetupRoutes(app *fiber.App) {
	api := app.Group("/api/favorites")

	// Защищенные маршруты (требуют авторизации)
	api.Use(middleware.AuthMiddleware(s.jwtService))

	api.Get("/", s.GetFavorites)
	api.Post("/", s.AddToFavorites)
	api.Delete("/:id", s.RemoveFromFavorites)
	api.Get("/:id/check", s.CheckFavorite)
}
