package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/codenati22/loffy-back/internal/service"
	"github.com/codenati22/loffy-back/internal/storage"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Envelope — единый формат ответа API
type Envelope struct {
	Success    bool        `json:"success"`
	Data       interface{} `json:"data,omitempty"`
	Message    string      `json:"message,omitempty"`
	Pagination *Pagination `json:"pagination,omitempty"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"pageSize"`
	TotalItems int `json:"totalItems"`
	TotalPages int `json:"totalPages"`
}

func respondJSON(w http.ResponseWriter, log *slog.Logger, status int, env Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(env); err != nil {
		log.Error("failed to encode response", slog.Any("error", err))
	}
}

func respondData(w http.ResponseWriter, log *slog.Logger, status int, data interface{}) {
	respondJSON(w, log, status, Envelope{Success: true, Data: data})
}

func respondMessage(w http.ResponseWriter, log *slog.Logger, status int, message string) {
	respondJSON(w, log, status, Envelope{Success: true, Message: message})
}

func respondError(w http.ResponseWriter, log *slog.Logger, status int, message string) {
	respondJSON(w, log, status, Envelope{Success: false, Message: message})
}

// respondServiceError переводит доменные ошибки в коды ответа.
// Неизвестные ошибки логируются и уходят наружу безликой 500-кой,
// детали хранилища клиенту не показываются.
func respondServiceError(w http.ResponseWriter, log *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(w, log, http.StatusUnauthorized, "Invalid email or password")
	case errors.Is(err, service.ErrWrongCurrentPassword):
		respondError(w, log, http.StatusUnauthorized, "Current password is incorrect")
	case errors.Is(err, service.ErrInvalidQuantity):
		respondError(w, log, http.StatusBadRequest, "coffeeId and quantity (positive number) are required")
	case errors.Is(err, service.ErrInvalidPrice):
		respondError(w, log, http.StatusBadRequest, "Price must be positive")
	case errors.Is(err, service.ErrInvalidRating):
		respondError(w, log, http.StatusBadRequest, "Rating must be between 0 and 5")
	case errors.Is(err, service.ErrCartEmpty):
		respondError(w, log, http.StatusBadRequest, "Cart is empty")
	case errors.Is(err, service.ErrCartConflict):
		respondError(w, log, http.StatusConflict, "Cart changed during checkout, please retry")
	case errors.Is(err, storage.ErrEmailTaken):
		respondError(w, log, http.StatusConflict, "User with this email already exists")
	case errors.Is(err, storage.ErrUsernameTaken):
		respondError(w, log, http.StatusConflict, "Username is already taken")
	case errors.Is(err, storage.ErrFavoriteExists):
		respondError(w, log, http.StatusConflict, "Coffee is already in favorites")
	case errors.Is(err, storage.ErrUserNotFound):
		respondError(w, log, http.StatusNotFound, "User not found")
	case errors.Is(err, storage.ErrCoffeeNotFound):
		respondError(w, log, http.StatusNotFound, "Coffee item not found")
	case errors.Is(err, storage.ErrCartItemNotFound):
		respondError(w, log, http.StatusNotFound, "Cart item not found or you do not have permission to delete it")
	case errors.Is(err, storage.ErrFavoriteNotFound):
		respondError(w, log, http.StatusNotFound, "Favorite item not found or you do not have permission to delete it")
	case errors.Is(err, storage.ErrResetTokenInvalid):
		respondError(w, log, http.StatusNotFound, "Invalid or expired reset token")
	default:
		log.Error("unhandled service error", slog.Any("error", err))
		respondError(w, log, http.StatusInternalServerError, "internal server error")
	}
}
