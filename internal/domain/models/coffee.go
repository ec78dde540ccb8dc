package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Coffee представляет позицию каталога
type Coffee struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Rating      decimal.Decimal `json:"rating"`
	Category    string          `json:"category"`
	Description *string         `json:"description,omitempty"`
	ImageURL    string          `json:"imageUrl"`
	CreatedAt   time.Time       `json:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at"`
}
