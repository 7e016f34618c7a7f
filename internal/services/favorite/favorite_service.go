package favorite

import (
	"context"
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/rajivgeraev/aqar/internal/favorites"
	"github.com/rajivgeraev/aqar/internal/middleware"
	"github.com/rajivgeraev/aqar/internal/models"
	"github.com/rajivgeraev/aqar/internal/utils"
)

// Repository – хранилище избранного
type Repository interface {
	List(ctx context.Context, userID uuid.UUID) ([]models.Favorite, error)
	Add(ctx context.Context, userID, listingID uuid.UUID) (uuid.UUID, error)
	Remove(ctx context.Context, userID, listingID uuid.UUID) error
	Find(ctx context.Context, userID, listingID uuid.UUID) (uuid.UUID, bool, error)
}

// FavoriteService представляет сервис для работы с избранными объявлениями
type FavoriteService struct {
	repo       Repository
	jwtService *utils.JWTService
	logger     *slog.Logger
}

// NewFavoriteService создает новый экземпляр FavoriteService
func NewFavoriteService(repo Repository, jwtService *utils.JWTService, logger *slog.Logger) *FavoriteService {
	return &FavoriteService{
		repo:       repo,
		jwtService: jwtService,
		logger:     logger,
	}
}

// AddToFavorites добавляет объявление в избранное
func (s *FavoriteService) AddToFavorites(c fiber.Ctx) error {
	userUUID, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	var requestData struct {
		ListingID string `json:"listing_id"`
	}
	if err := c.Bind().Body(&requestData); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат данных"})
	}
	if requestData.ListingID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "ID объявления не указан"})
	}

	listingUUID, err := uuid.Parse(requestData.ListingID)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID объявления"})
	}

	favoriteID, err := s.repo.Add(c.Context(), userUUID, listingUUID)
	switch {
	case errors.Is(err, favorites.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Объявление не найдено или не активно"})
	case errors.Is(err, favorites.ErrAlreadyFavorited):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Объявление уже добавлено в избранное"})
	case err != nil:
		s.logger.Error("add favorite failed", "user_id", userUUID, "listing_id", listingUUID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка добавления в избранное"})
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"id":      favoriteID,
		"message": "Объявление успешно добавлено в избранное",
	})
}

// RemoveFromFavorites удаляет объявление из избранного
func (s *FavoriteService) RemoveFromFavorites(c fiber.Ctx) error {
	userUUID, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	listingUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID объявления"})
	}

	err = s.repo.Remove(c.Context(), userUUID, listingUUID)
	switch {
	case errors.Is(err, favorites.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Объявление не найдено в избранном"})
	case err != nil:
		s.logger.Error("remove favorite failed", "user_id", userUUID, "listing_id", listingUUID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка удаления из избранного"})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Объявление успешно удалено из избранного",
	})
}

// GetFavorites возвращает список избранных объявлений пользователя
func (s *FavoriteService) GetFavorites(c fiber.Ctx) error {
	userUUID, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	list, err := s.repo.List(c.Context(), userUUID)
	if err != nil {
		s.logger.Error("list favorites failed", "user_id", userUUID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка получения избранных объявлений"})
	}
	if list == nil {
		list = []models.Favorite{}
	}

	return c.JSON(models.FavoriteResponse{
		Favorites: list,
		Total:     len(list),
	})
}

// CheckFavorite проверяет, добавлено ли объявление в избранное
func (s *FavoriteService) CheckFavorite(c fiber.Ctx) error {
	userUUID, ok := currentUser(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Пользователь не авторизован"})
	}

	listingUUID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Неверный формат ID объявления"})
	}

	favoriteID, found, err := s.repo.Find(c.Context(), userUUID, listingUUID)
	if err != nil {
		s.logger.Error("check favorite failed", "user_id", userUUID, "listing_id", listingUUID, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Ошибка проверки избранного"})
	}
	if !found {
		return c.JSON(fiber.Map{"is_favorite": false})
	}

	return c.JSON(fiber.Map{
		"is_favorite": true,
		"favorite_id": favoriteID,
	})
}

func currentUser(c fiber.Ctx) (uuid.UUID, bool) {
	id, err := uuid.Parse(middleware.UserID(c))
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}
