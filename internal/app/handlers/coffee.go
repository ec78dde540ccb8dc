package handlers

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/codenati22/loffy-back/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

// ListCoffeesHandler обрабатывает запрос GET /api/coffees?page=&pageSize=.
// Нумерация страниц с единицы, явные значения меньше единицы отклоняются.
func ListCoffeesHandler(log *slog.Logger, coffeeService service.CoffeeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ListCoffeesHandler"
		logger := log.With(slog.String("op", op))

		page, ok := queryIntDefault(r, "page", 1)
		if !ok || page < 1 {
			respondError(w, logger, http.StatusBadRequest, "page must be a positive number")
			return
		}
		pageSize, ok := queryIntDefault(r, "pageSize", 10)
		if !ok || pageSize < 1 {
			respondError(w, logger, http.StatusBadRequest, "pageSize must be a positive number")
			return
		}

		coffees, total, err := coffeeService.List(r.Context(), page, pageSize)
		if err != nil {
			respondServiceError(w, logger, err)
			return
		}

		totalPages := (total + pageSize - 1) / pageSize
		respondJSON(w, logger, http.StatusOK, Envelope{
			Success: true,
			Data:    coffees,
			Pagination: &Pagination{
				Page:       page,
				PageSize:   pageSize,
				TotalItems: total,
				TotalPages: totalPages,
			},
		})
	}
}

// CreateCoffeeHandler обрабатывает запрос POST /api/coffees (multipart, только админ)
func CreateCoffeeHandler(log *slog.Logger, coffeeService service.CoffeeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.CreateCoffeeHandler"
		logger := log.With(slog.String("op", op))

		image, err := readImageFile(r, "image")
		if err != nil {
			logger.Error("invalid multipart form", slog.Any("error", err))
			respondError(w, logger, http.StatusBadRequest, "invalid request")
			return
		}

		name := r.FormValue("name")
		priceStr := r.FormValue("price")
		ratingStr := r.FormValue("rating")
		category := r.FormValue("category")
		if name == "" || priceStr == "" || ratingStr == "" || category == "" || image == nil {
			respondError(w, logger, http.StatusBadRequest, "Name, price, rating, category, and image are required")
			return
		}

		price, err := decimal.NewFromString(priceStr)
		if err != nil {
			respondError(w, logger, http.StatusBadRequest, "price must be a number")
			return
		}
		rating, err := decimal.NewFromString(ratingStr)
		if err != nil {
			respondError(w, logger, http.StatusBadRequest, "rating must be a number")
			return
		}

		input := service.CoffeeInput{
			Name:     name,
			Price:    price,
			Rating:   rating,
			Category: category,
		}
		if description := r.FormValue("description"); description != "" {
			input.Description = &description
		}

		coffee, err := coffeeService.Create(r.Context(), input, *image)
		if err != nil {
			respondServiceError(w, logger, err)
			return
		}

		respondData(w, logger, http.StatusCreated, coffee)
	}
}

// UpdateCoffeeHandler обрабатывает запрос PATCH /api/coffees/{id}:
// меняются только переданные поля, картинка не обязательна
func UpdateCoffeeHandler(log *slog.Logger, coffeeService service.CoffeeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateCoffeeHandler"
		logger := log.With(slog.String("op", op))

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			respondError(w, logger, http.StatusBadRequest, "Valid ID is required")
			return
		}

		image, err := readImageFile(r, "image")
		if err != nil {
			logger.Error("invalid multipart form", slog.Any("error", err))
			respondError(w, logger, http.StatusBadRequest, "invalid request")
			return
		}

		var update service.CoffeeUpdate
		if name := r.FormValue("name"); name != "" {
			update.Name = &name
		}
		if priceStr := r.FormValue("price"); priceStr != "" {
			price, err := decimal.NewFromString(priceStr)
			if err != nil {
				respondError(w, logger, http.StatusBadRequest, "price must be a number")
				return
			}
			update.Price = &price
		}
		if ratingStr := r.FormValue("rating"); ratingStr != "" {
			rating, err := decimal.NewFromString(ratingStr)
			if err != nil {
				respondError(w, logger, http.StatusBadRequest, "rating must be a number")
				return
			}
			update.Rating = &rating
		}
		if category := r.FormValue("category"); category != "" {
			update.Category = &category
		}
		if description := r.FormValue("description"); description != "" {
			update.Description = &description
		}

		coffee, err := coffeeService.Update(r.Context(), id, update, image)
		if err != nil {
			respondServiceError(w, logger, err)
			return
		}

		respondData(w, logger, http.StatusOK, coffee)
	}
}

// DeleteCoffeeHandler обрабатывает запрос DELETE /api/coffees/{id}
func DeleteCoffeeHandler(log *slog.Logger, coffeeService service.CoffeeService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.DeleteCoffeeHandler"
		logger := log.With(slog.String("op", op))

		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil {
			respondError(w, logger, http.StatusBadRequest, "Valid ID is required")
			return
		}

		if err := coffeeService.Delete(r.Context(), id); err != nil {
			respondServiceError(w, logger, err)
			return
		}

		respondMessage(w, logger, http.StatusOK, "Coffee item deleted")
	}
}

// queryIntDefault читает числовой query-параметр, возвращая default при его отсутствии
func queryIntDefault(r *http.Request, name string, def int) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, true
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return value, true
}
