package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/codenati22/loffy-back/internal/domain/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

var ErrCartItemNotFound = errors.New("cart item not found")

// CartLine — строка корзины с актуальной ценой каталога,
// используется при оформлении заказа
type CartLine struct {
	EntryID  int64
	CoffeeID int64
	Quantity int
	Price    decimal.Decimal
}

// CartStorage описывает методы для работы с корзиной
type CartStorage interface {
	// GetCartByUserID возвращает корзину с проекцией позиций каталога,
	// для удаленных позиций coffee равен nil
	GetCartByUserID(ctx context.Context, userID int64) ([]*models.CartItem, error)
	// UpsertCartEntry добавляет позицию в корзину, повторное добавление
	// увеличивает количество существующей строки
	UpsertCartEntry(ctx context.Context, userID, coffeeID int64, quantity int) (*models.CartEntry, error)
	// RemoveCartEntry удаляет строку корзины, принадлежащую пользователю
	RemoveCartEntry(ctx context.Context, userID, entryID int64) error
	// LockCartByUserIDTx блокирует строки корзины пользователя до конца транзакции
	LockCartByUserIDTx(ctx context.Context, tx *sql.Tx, userID int64) ([]*CartLine, error)
	// ClearCartEntriesTx удаляет ровно зафиксированные строки и возвращает число удаленных
	ClearCartEntriesTx(ctx context.Context, tx *sql.Tx, userID int64, entryIDs []int64) (int64, error)
}

type cartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) *cartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) GetCartByUserID(ctx context.Context, userID int64) ([]*models.CartItem, error) {
	// LEFT JOIN: строка корзины не пропадает, если позиция каталога удалена
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.quantity,
		       cf.id, cf.name, cf.price, cf.rating, cf.category, cf.description, cf.image_url
		FROM cart c
		LEFT JOIN coffees cf ON c.coffee_id = cf.id
		WHERE c.user_id = $1
		ORDER BY c.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.CartItem
	for rows.Next() {
		item := &models.CartItem{}
		var (
			coffeeID    sql.NullInt64
			name        sql.NullString
			price       decimal.NullDecimal
			rating      decimal.NullDecimal
			category    sql.NullString
			description *string
			imageURL    sql.NullString
		)
		if err := rows.Scan(&item.ID, &item.Quantity,
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
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

// UpsertCartEntry выполнен одной атомарной командой вместо проверки с последующей
// вставкой: гонка двух одновременных добавлений не создаст вторую строку
func (r *cartRepository) UpsertCartEntry(ctx context.Context, userID, coffeeID int64, quantity int) (*models.CartEntry, error) {
	entry := &models.CartEntry{}
	row := r.db.QueryRowContext(ctx, `
		INSERT INTO cart (user_id, coffee_id, quantity, updated_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, coffee_id)
		DO UPDATE SET quantity = cart.quantity + EXCLUDED.quantity, updated_at = NOW()
		RETURNING id, user_id, coffee_id, quantity, updated_at`,
		userID, coffeeID, quantity)
	if err := row.Scan(&entry.ID, &entry.UserID, &entry.CoffeeID, &entry.Quantity, &entry.UpdatedAt); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23503" { // foreign_key_violation
			return nil, ErrCoffeeNotFound
		}
		return nil, err
	}
	return entry, nil
}

// RemoveCartEntry удаляет строку только вместе с проверкой владельца:
// чужая строка неотличима от несуществующей
func (r *cartRepository) RemoveCartEntry(ctx context.Context, userID, entryID int64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM cart WHERE id = $1 AND user_id = $2", entryID, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCartItemNotFound
	}
	return nil
}

// LockCartByUserIDTx читает корзину с актуальными ценами и держит блокировку строк
// до конца транзакции: параллельное оформление заказа тем же пользователем
// дождется коммита и увидит уже пустую корзину
func (r *cartRepository) LockCartByUserIDTx(ctx context.Context, tx *sql.Tx, userID int64) ([]*CartLine, error) {
	rows, err := tx.QueryContext(ctx, `
		SELECT c.id, c.coffee_id, c.quantity, cf.price
		FROM cart c
		JOIN coffees cf ON c.coffee_id = cf.id
		WHERE c.user_id = $1
		ORDER BY c.id
		FOR UPDATE OF c`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var lines []*CartLine
	for rows.Next() {
		line := &CartLine{}
		if err := rows.Scan(&line.EntryID, &line.CoffeeID, &line.Quantity, &line.Price); err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

// ClearCartEntriesTx удаляет только строки из зафиксированного снимка,
// вызывающая сторона сверяет число удаленных с размером снимка
func (r *cartRepository) ClearCartEntriesTx(ctx context.Context, tx *sql.Tx, userID int64, entryIDs []int64) (int64, error) {
	res, err := tx.ExecContext(ctx,
		"DELETE FROM cart WHERE user_id = $1 AND id = ANY($2)", userID, pq.Array(entryIDs))
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
