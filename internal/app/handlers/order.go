package handlers

import (
	"log/slog"
	"net/http"

	"github.com/codenati22/loffy-back/internal/jwt-new/jwtmiddleware"
	"github.com/codenati22/loffy-back/internal/service"
)

// GetOrdersHandler обрабатывает запрос GET /api/orders, новые заказы первыми
func GetOrdersHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetOrdersHandler"
		logger := log.With(slog.String("op", op))

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("identity not found in context")
			respondError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		orders, err := orderService.GetOrders(r.Context(), identity.UserID)
		if err != nil {
			respondServiceError(w, logger, err)
			return
		}

		respondData(w, logger, http.StatusOK, orders)
	}
}

// CreateOrderHandler обрабатывает запрос POST /api/orders:
// корзина целиком превращается в заказ и очищается
func CreateOrderHandler(log *slog.Logger, orderService service.OrderService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateOrderHandler"
		logger := log.With(slog.String("op", op))

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("identity not found in context")
			respondError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		order, err := orderService.CreateOrder(r.Context(), identity.UserID)
		if err != nil {
			respondServiceError(w, logger, err)
			return
		}

		respondData(w, logger, http.StatusCreated, order)
	}
}
