package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/codenati22/loffy-back/internal/domain/models"
	"github.com/shopspring/decimal"
)

var ErrCoffeeNotFound = errors.New("coffee not found")

// CoffeeStorage описывает методы для работы с каталогом
type CoffeeStorage interface {
	// ListCoffees возвращает страницу каталога и общее число позиций
	ListCoffees(ctx context.Context, limit, offset int) ([]*models.Coffee, int, error)
	GetCoffeeByID(ctx context.Context, id int64) (*models.Coffee, error)
	CreateCoffee(ctx context.Context, coffee *models.Coffee) (*models.Coffee, error)
	// UpdateCoffee обновляет только переданные поля, nil оставляет прежнее значение
	UpdateCoffee(ctx context.Context, id int64, name *string, price, rating *decimal.Decimal, category, description, imageURL *string) (*models.Coffee, error)
	DeleteCoffee(ctx context.Context, id int64) error
}

type coffeeRepository struct {
	db *sql.DB
}

func NewCoffeeRepository(db *sql.DB) *coffeeRepository {
	return &coffeeRepository{db: db}
}

const coffeeColumns = "id, name, price, rating, category, description, image_url, created_at, updated_at"

func scanCoffeeRow(row *sql.Row) (*models.Coffee, error) {
	coffee := &models.Coffee{}
	err := row.Scan(
		&coffee.ID, &coffee.Name, &coffee.Price, &coffee.Rating, &coffee.Category,
		&coffee.Description, &coffee.ImageURL, &coffee.CreatedAt, &coffee.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCoffeeNotFound
		}
		return nil, err
	}
	return coffee, nil
}

func (r *coffeeRepository) ListCoffees(ctx context.Context, limit, offset int) ([]*models.Coffee, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM coffees").Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.db.QueryContext(ctx,
		"SELECT "+coffeeColumns+" FROM coffees ORDER BY id LIMIT $1 OFFSET $2", limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var coffees []*models.Coffee
	for rows.Next() {
		coffee := &models.Coffee{}
		if err := rows.Scan(
			&coffee.ID, &coffee.Name, &coffee.Price, &coffee.Rating, &coffee.Category,
			&coffee.Description, &coffee.ImageURL, &coffee.CreatedAt, &coffee.UpdatedAt,
		); err != nil {
			return nil, 0, err
		}
		coffees = append(coffees, coffee)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return coffees, total, nil
}

func (r *coffeeRepository) GetCoffeeByID(ctx context.Context, id int64) (*models.Coffee, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+coffeeColumns+" FROM coffees WHERE id = $1", id)
	return scanCoffeeRow(row)
}

func (r *coffeeRepository) CreateCoffee(ctx context.Context, coffee *models.Coffee) (*models.Coffee, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO coffees (name, price, rating, category, description, image_url)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+coffeeColumns,
		coffee.Name, coffee.Price, coffee.Rating, coffee.Category, coffee.Description, coffee.ImageURL,
	)
	return scanCoffeeRow(row)
}

func (r *coffeeRepository) UpdateCoffee(ctx context.Context, id int64, name *string, price, rating *decimal.Decimal, category, description, imageURL *string) (*models.Coffee, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE coffees
		 SET name = COALESCE($2, name),
		     price = COALESCE($3, price),
		     rating = COALESCE($4, rating),
		     category = COALESCE($5, category),
		     description = COALESCE($6, description),
		     image_url = COALESCE($7, image_url),
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+coffeeColumns,
		id, name, price, rating, category, description, imageURL,
	)
	return scanCoffeeRow(row)
}

func (r *coffeeRepository) DeleteCoffee(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, "DELETE FROM coffees WHERE id = $1", id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrCoffeeNotFound
	}
	return nil
}
