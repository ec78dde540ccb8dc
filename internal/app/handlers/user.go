package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/codenati22/loffy-back/internal/jwt-new/jwtmiddleware"
	"github.com/codenati22/loffy-back/internal/service"
)

// UpdateProfileRequest — частичное обновление профиля, nil-поля не меняются
type UpdateProfileRequest struct {
	FullName    *string `json:"fullName"`
	Username    *string `json:"username"`
	PhoneNumber *string `json:"phoneNumber"`
	Location    *string `json:"location"`
}

// ChangePasswordRequest — смена пароля с проверкой текущего
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=8"`
}

// ForgotPasswordRequest — запрос токена сброса пароля
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest — установка нового пароля по одноразовому токену
type ResetPasswordRequest struct {
	ResetToken  string `json:"resetToken" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=8"`
}

// GetProfileHandler обрабатывает запрос GET /api/users/me
func GetProfileHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.GetProfileHandler"
		logger := log.With(slog.String("op", op))

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("identity not found in context")
			respondError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		user, err := userService.GetProfile(r.Context(), identity.UserID)
		if err != nil {
			respondServiceError(w, logger, err)
			return
		}

		respondData(w, logger, http.StatusOK, user)
	}
}

// UpdateProfileHandler обрабатывает запрос PUT /api/users/me
func UpdateProfileHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UpdateProfileHandler"
		logger := log.With(slog.String("op", op))

		var req UpdateProfileRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			respondError(w, logger, http.StatusBadRequest, "invalid request")
			return
		}

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("identity not found in context")
			respondError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		user, err := userService.UpdateProfile(r.Context(), identity.UserID, req.FullName, req.Username, req.PhoneNumber, req.Location)
		if err != nil {
			respondServiceError(w, logger, err)
			return
		}

		respondData(w, logger, http.StatusOK, user)
	}
}

// UploadProfilePictureHandler обрабатывает запрос POST /api/users/me/profile-picture (multipart)
func UploadProfilePictureHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.UploadProfilePictureHandler"
		logger := log.With(slog.String("op", op))

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("identity not found in context")
			respondError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		image, err := readImageFile(r, "profilePicture")
		if err != nil {
			logger.Error("invalid multipart form", slog.Any("error", err))
			respondError(w, logger, http.StatusBadRequest, "invalid request")
			return
		}
		if image == nil {
			respondError(w, logger, http.StatusBadRequest, "Profile picture file is required")
			return
		}

		user, err := userService.UploadProfilePicture(r.Context(), identity.UserID, *image)
		if err != nil {
			respondServiceError(w, logger, err)
			return
		}

		respondData(w, logger, http.StatusOK, user)
	}
}

// ChangePasswordHandler обрабатывает запрос POST /api/users/change-password
func ChangePasswordHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ChangePasswordHandler"
		logger := log.With(slog.String("op", op))

		var req ChangePasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			respondError(w, logger, http.StatusBadRequest, "invalid request")
			return
		}

		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			respondError(w, logger, http.StatusBadRequest, "Current password and new password (min 8 characters) are required")
			return
		}

		identity, ok := jwtmiddleware.FromContext(r.Context())
		if !ok {
			logger.Error("identity not found in context")
			respondError(w, logger, http.StatusUnauthorized, "unauthorized")
			return
		}

		if err := userService.ChangePassword(r.Context(), identity.UserID, req.CurrentPassword, req.NewPassword); err != nil {
			respondServiceError(w, logger, err)
			return
		}

		respondMessage(w, logger, http.StatusOK, "Password changed successfully")
	}
}

// ForgotPasswordHandler обрабатывает запрос POST /api/users/forgot-password
func ForgotPasswordHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ForgotPasswordHandler"
		logger := log.With(slog.String("op", op))

		var req ForgotPasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			respondError(w, logger, http.StatusBadRequest, "invalid request")
			return
		}

		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			respondError(w, logger, http.StatusBadRequest, "Email is required")
			return
		}

		resetToken, err := userService.ForgotPassword(r.Context(), req.Email)
		if err != nil {
			respondServiceError(w, logger, err)
			return
		}

		respondData(w, logger, http.StatusOK, map[string]string{"resetToken": resetToken})
	}
}

// ResetPasswordHandler обрабатывает запрос POST /api/users/reset-password
func ResetPasswordHandler(log *slog.Logger, userService service.UserService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.ResetPasswordHandler"
		logger := log.With(slog.String("op", op))

		var req ResetPasswordRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			logger.Error("invalid request: decoding error", slog.Any("error", err))
			respondError(w, logger, http.StatusBadRequest, "invalid request")
			return
		}

		if err := validate.Struct(req); err != nil {
			logger.Error("invalid request: validation error", slog.Any("error", err))
			respondError(w, logger, http.StatusBadRequest, "Reset token and new password (min 8 characters) are required")
			return
		}

		if err := userService.ResetPassword(r.Context(), req.ResetToken, req.NewPassword); err != nil {
			respondServiceError(w, logger, err)
			return
		}

		respondMessage(w, logger, http.StatusOK, "Password reset successfully")
	}
}
