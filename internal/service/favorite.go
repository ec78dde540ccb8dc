package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/codenati22/loffy-back/internal/domain/models"
	"github.com/codenati22/loffy-back/internal/storage"
)

// FavoriteService определяет операции с избранным
type FavoriteService interface {
	GetFavorites(ctx context.Context, userID int64) ([]*models.FavoriteItem, error)
	AddToFavorites(ctx context.Context, userID, coffeeID int64) (*models.FavoriteEntry, error)
	RemoveFromFavorites(ctx context.Context, userID, favoriteID int64) error
}

type favoriteService struct {
	log          *slog.Logger
	favoriteRepo storage.FavoriteStorage
}

func NewFavoriteService(log *slog.Logger, favoriteRepo storage.FavoriteStorage) FavoriteService {
	return &favoriteService{
		log:          log,
		favoriteRepo: favoriteRepo,
	}
}

func (s *favoriteService) GetFavorites(ctx context.Context, userID int64) ([]*models.FavoriteItem, error) {
	const op = "service.FavoriteService.GetFavorites"

	items, err := s.favoriteRepo.GetFavoritesByUserID(ctx, userID)
	if err != nil {
		s.log.Error("failed to get favorites", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// AddToFavorites: повторное добавление — конфликт, а не тихий успех
func (s *favoriteService) AddToFavorites(ctx context.Context, userID, coffeeID int64) (*models.FavoriteEntry, error) {
	const op = "service.FavoriteService.AddToFavorites"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("coffeeID", coffeeID))

	entry, err := s.favoriteRepo.AddFavorite(ctx, userID, coffeeID)
	if err != nil {
		logger.Warn("failed to add favorite", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("favorite added")
	return entry, nil
}

func (s *favoriteService) RemoveFromFavorites(ctx context.Context, userID, favoriteID int64) error {
	const op = "service.FavoriteService.RemoveFromFavorites"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("favoriteID", favoriteID))

	if err := s.favoriteRepo.RemoveFavorite(ctx, userID, favoriteID); err != nil {
		logger.Warn("failed to remove favorite", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("favorite removed")
	return nil
}
