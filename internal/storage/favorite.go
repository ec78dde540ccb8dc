package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/codenati22/loffy-back/internal/domain/models"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
)

var (
	ErrFavoriteNotFound = errors.New("favorite item not found")
	ErrFavoriteExists   = errors.New("coffee already in favorites")
)

// FavoriteStorage описывает методы для работы с избранным
type FavoriteStorage interface {
	GetFavoritesByUserID(ctx context.Context, userID int64) ([]*models.FavoriteItem, error)
	AddFavorite(ctx context.Context, userID, coffeeID int64) (*models.FavoriteEntry, error)
	RemoveFavorite(ctx context.Context, userID, favoriteID int64) error
}

type favoriteRepository struct {
	db *sql.DB
}

func NewFavoriteRepository(db *sql.DB) *favoriteRepository {
	return &favoriteRepository{db: db}
}

func (r *favoriteRepository) GetFavoritesByUserID(ctx context.Context, userID int64) ([]*models.FavoriteItem, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT f.id,
		       cf.id, cf.name, cf.price, cf.rating, cf.category, cf.description, cf.image_url
		FROM favorites f
		LEFT JOIN coffees cf ON f.coffee_id = cf.id
		WHERE f.user_id = $1
		ORDER BY f.id`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []*models.FavoriteItem
	for rows.Next() {
		item := &models.FavoriteItem{}
		var (
			coffeeID    sql.NullInt64
			name        sql.NullString
			price       decimal.NullDecimal
			rating      decimal.NullDecimal
			category    sql.NullString
			description *string
			imageURL    sql.NullString
		)
		if err := rows.Scan(&item.ID,
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

// AddFavorite: уникальность пары (user, coffee) гарантирует ограничение БД
func (r *favoriteRepository) AddFavorite(ctx context.Context, userID, coffeeID int64) (*models.FavoriteEntry, error) {
	entry := &models.FavoriteEntry{}
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO favorites (user_id, coffee_id) VALUES ($1, $2)
		 RETURNING id, user_id, coffee_id`,
		userID, coffeeID)
	if err := row.Scan(&entry.ID, &entry.UserID, &entry.CoffeeID); err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) {
			switch pqErr.Code {
			case "23505": // unique_violation
				return nil, ErrFavoriteExists
			case "23503": // foreign_key_violation
				return nil, ErrCoffeeNotFound
			}
		}
		return nil, err
	}
	return entry, nil
}

func (r *favoriteRepository) RemoveFavorite(ctx context.Context, userID, favoriteID int64) error {
	res, err := r.db.ExecContext(ctx,
		"DELETE FROM favorites WHERE id = $1 AND user_id = $2", favoriteID, userID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrFavoriteNotFound
	}
	return nil
}
