package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/codenati22/loffy-back/internal/domain/models"
	"github.com/codenati22/loffy-back/internal/storage"
)

// ErrInvalidQuantity — количество должно быть положительным
var ErrInvalidQuantity = errors.New("quantity must be positive")

// CartService определяет операции с корзиной
type CartService interface {
	GetCart(ctx context.Context, userID int64) ([]*models.CartItem, error)
	AddToCart(ctx context.Context, userID, coffeeID int64, quantity int) (*models.CartEntry, error)
	RemoveFromCart(ctx context.Context, userID, entryID int64) error
}

type cartService struct {
	log      *slog.Logger
	cartRepo storage.CartStorage
}

func NewCartService(log *slog.Logger, cartRepo storage.CartStorage) CartService {
	return &cartService{
		log:      log,
		cartRepo: cartRepo,
	}
}

func (s *cartService) GetCart(ctx context.Context, userID int64) ([]*models.CartItem, error) {
	const op = "service.CartService.GetCart"

	items, err := s.cartRepo.GetCartByUserID(ctx, userID)
	if err != nil {
		s.log.Error("failed to get cart", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return items, nil
}

// AddToCart добавляет позицию в корзину. Повторное добавление той же позиции
// увеличивает количество существующей строки, второй строки не появляется.
func (s *cartService) AddToCart(ctx context.Context, userID, coffeeID int64, quantity int) (*models.CartEntry, error) {
	const op = "service.CartService.AddToCart"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("coffeeID", coffeeID))

	if quantity <= 0 {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidQuantity)
	}

	entry, err := s.cartRepo.UpsertCartEntry(ctx, userID, coffeeID, quantity)
	if err != nil {
		logger.Warn("failed to add to cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("cart entry upserted", slog.Int("quantity", entry.Quantity))
	return entry, nil
}

func (s *cartService) RemoveFromCart(ctx context.Context, userID, entryID int64) error {
	const op = "service.CartService.RemoveFromCart"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID), slog.Int64("entryID", entryID))

	if err := s.cartRepo.RemoveCartEntry(ctx, userID, entryID); err != nil {
		logger.Warn("failed to remove cart entry", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("cart entry removed")
	return nil
}
