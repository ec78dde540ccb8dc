package models

// FavoriteEntry — строка избранного
type FavoriteEntry struct {
	ID       int64 `json:"id"`
	UserID   int64 `json:"user_id"`
	CoffeeID int64 `json:"coffee_id"`
}

// FavoriteItem — избранное в проекции для клиента, как и у корзины
// Coffee равен nil для удаленных позиций каталога
type FavoriteItem struct {
	ID     int64   `json:"id"`
	Coffee *Coffee `json:"coffee"`
}
