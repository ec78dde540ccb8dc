package models

import "time"

// CartEntry — строка корзины, не более одной на пару (user, coffee)
type CartEntry struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	CoffeeID  int64     `json:"coffee_id"`
	Quantity  int       `json:"quantity"`
	UpdatedAt time.Time `json:"updated_at"`
}

// CartItem — строка корзины в проекции для клиента.
// Coffee равен nil, если позиция каталога была удалена.
type CartItem struct {
	ID       int64   `json:"id"`
	Quantity int     `json:"quantity"`
	Coffee   *Coffee `json:"coffee"`
}
