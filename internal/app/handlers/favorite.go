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

// AddToFavoritesRequest — входной JSON добавления в избранное
type AddToFavoritesRequest struct {
	CoffeeID int64 `json:"coffeeId" validate:"required"`
}

// GetFavoritesHandler обрабатывает запрос GET /api/favorites
func GetFavoritesHandler(log *slog.Logger, favoriteService service.FavoriteService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetFavoritesHandler"
		logger := log.With(slog.String("op", op))

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("identity not found in context")
			respondError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		items, err := favoriteService.GetFavorites(r.Context(), identity.UserID)
		if err != nil {
			respondServiceError(w, logger, err)
			return
		}

		respondData(w, logger, http.StatusOK, items)
	}
}

// AddToFavoritesHandler обрабатывает запрос POST /api/favorites
func AddToFavoritesHandler(log *slog.Logger, favoriteService service.FavoriteService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.AddToFavoritesHandler"
		logger := log.With(slog.String("op", op))

		var req AddToFavoritesRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			respondError(w, logger, http.StatusBadRequest, "invalid request")
			return
		}

		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			respondError(w, logger, http.StatusBadRequest, "coffeeId is required")
			return
		}

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("identity not found in context")
			respondError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		entry, err := favoriteService.AddToFavorites(r.Context(), identity.UserID, req.CoffeeID)
		if err != nil {
			respondServiceError(w, logger, err)
			return
		}

		respondData(w, logger, http.StatusCreated, entry)
	}
}

// RemoveFromFavoritesHandler обрабатывает запрос DELETE /api/favorites/{id}
func RemoveFromFavoritesHandler(log *slog.Logger, favoriteService service.FavoriteService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.RemoveFromFavoritesHandler"
		logger := log.With(slog.String("op", op))

		favoriteID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			logger.Error("invalid favorite item id")
			respondError(w, logger, http.StatusBadRequest, "Valid favorite item ID is required")
			return
		}

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("identity not found in context")
			respondError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		if err := favoriteService.RemoveFromFavorites(r.Context(), identity.UserID, favoriteID); err != nil {
			respondServiceError(w, logger, err)
			return
		}

		respondMessage(w, logger, http.StatusOK, "Favorite item removed successfully")
	}
}
