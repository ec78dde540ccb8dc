package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatusPending — статус заказа при создании, переходы статусов не реализованы
const OrderStatusPending = "pending"

// Order представляет оформленный заказ, после создания не изменяется
type Order struct {
	ID          int64           `json:"id"`
	UserID      int64           `json:"user_id"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	Status      string          `json:"status"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
	Items       []*OrderItem    `json:"order_items"`
}

// OrderItem — позиция заказа. Price — снимок цены на момент оформления,
// последующие изменения каталога его не затрагивают.
type OrderItem struct {
	ID       int64           `json:"id"`
	OrderID  int64           `json:"order_id"`
	CoffeeID *int64          `json:"coffee_id"`
	Quantity int             `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Coffee   *Coffee         `json:"coffee"`
}
