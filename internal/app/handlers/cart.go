package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/codenati22/loffy-back/internal/jwt-new/jwtmiddleware"
	"github.com/codenati22/loffy-back/internal/service"
	"github.com/go-chi/chi/v5"
)

// AddToCartRequest — входной JSON добавления в корзину
type AddToCartRequest struct {
	CoffeeID int64 `json:"coffeeId" validate:"required"`
	Quantity int   `json:"quantity" validate:"required,gt=0"`
}

// GetCartHandler обрабатывает запрос GET /api/cart
func GetCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetCartHandler"
		logger := log.With(slog.String("op", op))

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("identity not found in context")
			respondError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		items, err := cartService.GetCart(r.Context(), identity.UserID)
		if err != nil {
			respondServiceError(w, logger, err)
			return
		}

		respondData(w, logger, http.StatusOK, items)
	}
}

// AddToCartHandler обрабатывает запрос POST /api/cart.
// Повторное добавление позиции увеличивает количество существующей строки.
func AddToCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddToCartHandler"
		logger := log.With(slog.String("op", op))

		var req AddToCartRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			respondError(w, logger, http.StatusBadRequest, "invalid request")
			return
		}

		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			respondError(w, logger, http.StatusBadRequest, "coffeeId and quantity (positive number) are required")
			return
		}

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("identity not found in context")
			respondError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		entry, err := cartService.AddToCart(r.Context(), identity.UserID, req.CoffeeID, req.Quantity)
		if err != nil {
			respondServiceError(w, logger, err)
			return
		}

		respondData(w, logger, http.StatusCreated, entry)
	}
}

// RemoveFromCartHandler обрабатывает запрос DELETE /api/cart/{id}.
// Удаление ограничено строками владельца: чужой id дает 404.
func RemoveFromCartHandler(log *slog.Logger, cartService service.CartService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RemoveFromCartHandler"
		logger := log.With(slog.String("op", op))

		entryID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			logger.Error("invalid cart item id")
			respondError(w, logger, http.StatusBadRequest, "Valid cart item ID is required")
			return
		}

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("identity not found in context")
			respondError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		if err := cartService.RemoveFromCart(r.Context(), identity.UserID, entryID); err != nil {
			respondServiceError(w, logger, err)
			return
		}

		respondMessage(w, logger, http.StatusOK, "Cart item removed successfully")
	}
}
