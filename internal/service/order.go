package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/codenati22/loffy-back/internal/domain/models"
	"github.com/codenati22/loffy-back/internal/storage"
	"github.com/shopspring/decimal"
)

var (
	// ErrCartEmpty — оформление заказа из пустой корзины
	ErrCartEmpty = errors.New("cart is empty")
	// ErrCartConflict — корзина изменилась между снимком и очисткой,
	// транзакция откачена, заказ не создан
	ErrCartConflict = errors.New("cart changed during checkout, please retry")
)

// OrderService определяет интерфейс оформления и просмотра заказов
type OrderService interface {
	CreateOrder(ctx context.Context, userID int64) (*models.Order, error)
	GetOrders(ctx context.Context, userID int64) ([]*models.Order, error)
}

type orderService struct {
	log       *slog.Logger
	db        *sql.DB
	cartRepo  storage.CartStorage
	orderRepo storage.OrderStorage
}

func NewOrderService(log *slog.Logger, db *sql.DB, cartRepo storage.CartStorage, orderRepo storage.OrderStorage) OrderService {
	return &orderService{
		log:       log,
		db:        db,
		cartRepo:  cartRepo,
		orderRepo: orderRepo,
	}
}

// CreateOrder превращает корзину в заказ внутри одной транзакции:
// снимок корзины с её строками под блокировкой, сумма по текущим ценам,
// вставка заказа и позиций, очистка ровно снятых строк. Любая ошибка
// откатывает всё целиком — частично созданный заказ невозможен.
// Блокировка строк сериализует параллельные оформления одного пользователя:
// второй запрос увидит уже пустую корзину.
func (s *orderService) CreateOrder(ctx context.Context, userID int64) (*models.Order, error) {
	const op = "service.OrderService.CreateOrder"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))
	logger.Info("starting checkout transaction")

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("failed to begin transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to begin transaction: %w", op, err)
	}

	// Снимок корзины с актуальными ценами, строки заблокированы до коммита
	lines, err := s.cartRepo.LockCartByUserIDTx(ctx, tx, userID)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to lock cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to lock cart: %w", op, err)
	}

	if len(lines) == 0 {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Warn("cart is empty")
		return nil, fmt.Errorf("%s: %w", op, ErrCartEmpty)
	}

	// Сумма заказа по ценам каталога на этот момент, дальше цены заморожены
	totalAmount := decimal.Zero
	entryIDs := make([]int64, 0, len(lines))
	for _, line := range lines {
		totalAmount = totalAmount.Add(line.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
		entryIDs = append(entryIDs, line.EntryID)
	}

	// Создаем заказ
	order, err := s.orderRepo.CreateOrderTx(ctx, tx, userID, totalAmount)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to create order", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create order: %w", op, err)
	}

	// Позиции заказа со снимком цен
	if err := s.orderRepo.CreateOrderItemsTx(ctx, tx, order.ID, lines); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to create order items", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create order items: %w", op, err)
	}

	// Очищаем ровно те строки, что вошли в снимок. Несовпадение числа
	// удаленных строк со снимком — признак гонки, заказ не фиксируем.
	cleared, err := s.cartRepo.ClearCartEntriesTx(ctx, tx, userID, entryIDs)
	if err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Error("failed to clear cart", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to clear cart: %w", op, err)
	}
	if cleared != int64(len(lines)) {
		if rbErr := tx.Rollback(); rbErr != nil {
			logger.Error("transaction rollback failed", slog.Any("error", rbErr))
		}
		logger.Warn("cart snapshot mismatch", slog.Int64("cleared", cleared), slog.Int("expected", len(lines)))
		return nil, fmt.Errorf("%s: %w", op, ErrCartConflict)
	}

	// Коммит транзакции
	if err := tx.Commit(); err != nil {
		logger.Error("failed to commit transaction", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to commit transaction: %w", op, err)
	}

	order.Items = make([]*models.OrderItem, 0, len(lines))
	for _, line := range lines {
		coffeeID := line.CoffeeID
		order.Items = append(order.Items, &models.OrderItem{
			OrderID:  order.ID,
			CoffeeID: &coffeeID,
			Quantity: line.Quantity,
			Price:    line.Price,
		})
	}

	logger.Info("order created",
		slog.Int64("orderID", order.ID),
		slog.String("totalAmount", totalAmount.String()),
	)
	return order, nil
}

// GetOrders возвращает заказы пользователя с вложенными позициями, новые первыми
func (s *orderService) GetOrders(ctx context.Context, userID int64) ([]*models.Order, error) {
	const op = "service.OrderService.GetOrders"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	orders, err := s.orderRepo.GetOrdersByUserID(ctx, userID)
	if err != nil {
		logger.Error("failed to get orders", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get orders: %w", op, err)
	}

	orderIDs := make([]int64, 0, len(orders))
	for _, order := range orders {
		orderIDs = append(orderIDs, order.ID)
	}

	itemsByOrder, err := s.orderRepo.GetOrderItemsByOrderIDs(ctx, orderIDs)
	if err != nil {
		logger.Error("failed to get order items", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to get order items: %w", op, err)
	}

	for _, order := range orders {
		items := itemsByOrder[order.ID]
		if items == nil {
			items = []*models.OrderItem{}
		}
		order.Items = items
	}
	return orders, nil
}
