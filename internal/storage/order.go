package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/codenati22/loffy-back/internal/domain/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

// OrderStorage описывает методы для работы с заказами.
// Создание заказа всегда идет через транзакцию, которую открывает сервис.
type OrderStorage interface {
	// CreateOrderTx вставляет строку заказа и возвращает ее с полями из БД
	CreateOrderTx(ctx context.Context, tx *sql.Tx, userID int64, totalAmount decimal.Decimal) (*models.Order, error)
	// CreateOrderItemsTx вставляет позиции заказа со снимком цен из корзины
	CreateOrderItemsTx(ctx context.Context, tx *sql.Tx, orderID int64, lines []*CartLine) error
	// GetOrdersByUserID возвращает заказы пользователя, новые первыми
	GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error)
	// GetOrderItemsByOrderIDs возвращает позиции по заказам с проекцией каталога
	GetOrderItemsByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64][]*models.OrderItem, error)
}

// orderRepository — конкретная реализация OrderStorage.
type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository создаёт новый репозиторий заказов.
func NewOrderRepository(db *sql.DB) OrderStorage {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateOrderTx(ctx context.Context, tx *sql.Tx, userID int64, totalAmount decimal.Decimal) (*models.Order, error) {
	order := &models.Order{}
	row := tx.QueryRowContext(ctx,
		`INSERT INTO orders (user_id, total_amount, status)
		 VALUES ($1, $2, $3)
		 RETURNING id, user_id, total_amount, status, created_at, updated_at`,
		userID, totalAmount, models.OrderStatusPending)
	if err := row.Scan(&order.ID, &order.UserID, &order.TotalAmount, &order.Status,
		&order.CreatedAt, &order.UpdatedAt); err != nil {
		return nil, fmt.Errorf("failed to create order: %w", err)
	}
	return order, nil
}

func (r *orderRepository) CreateOrderItemsTx(ctx context.Context, tx *sql.Tx, orderID int64, lines []*CartLine) error {
	for _, line := range lines {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO order_items (order_id, coffee_id, quantity, price)
			 VALUES ($1, $2, $3, $4)`,
			orderID, line.CoffeeID, line.Quantity, line.Price)
		if err != nil {
			return fmt.Errorf("failed to create order item: %w", err)
		}
	}
	return nil
}

func (r *orderRepository) GetOrdersByUserID(ctx context.Context, userID int64) ([]*models.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, user_id, total_amount, status, created_at, updated_at
		FROM orders
		WHERE user_id = $1
		ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var orders []*models.Order
	for rows.Next() {
		order := &models.Order{}
		if err := rows.Scan(&order.ID, &order.UserID, &order.TotalAmount, &order.Status,
			&order.CreatedAt, &order.UpdatedAt); err != nil {
			return nil, err
		}
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return orders, nil
}

// GetOrderItemsByOrderIDs собирает позиции всех заказов одним запросом.
// LEFT JOIN: цена и количество берутся из снимка в order_items,
// проекция каталога равна nil для удаленных позиций.
func (r *orderRepository) GetOrderItemsByOrderIDs(ctx context.Context, orderIDs []int64) (map[int64][]*models.OrderItem, error) {
	items := make(map[int64][]*models.OrderItem, len(orderIDs))
	if len(orderIDs) == 0 {
		return items, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT oi.id, oi.order_id, oi.coffee_id, oi.quantity, oi.price,
		       cf.id, cf.name, cf.price, cf.rating, cf.category, cf.description, cf.image_url
		FROM order_items oi
		LEFT JOIN coffees cf ON oi.coffee_id = cf.id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.id`, pq.Array(orderIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		item := &models.OrderItem{}
		var (
			coffeeID    sql.NullInt64
			name        sql.NullString
			price       decimal.NullDecimal
			rating      decimal.NullDecimal
			category    sql.NullString
			description *string
			imageURL    sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &item.CoffeeID, &item.Quantity, &item.Price,
			&coffeeID, &name, &price, &rating, &category, &description, &imageURL); err != nil {
			return nil, err
		}
		if coffeeID.Valid {
			item.Coffee = &models.Coffee{
				ID:          coffeeID.Int64,
				Name:        name.String,
				Price:       price.Decimal,
				Rating:      rating.Decimal,
				Category:    category.String,
				Description: description,
				ImageURL:    imageURL.String,
			}
		}
		items[item.OrderID] = append(items[item.OrderID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
