package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/codenati22/loffy-back/internal/domain/models"
	"github.com/codenati22/loffy-back/internal/storage"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// ErrWrongCurrentPassword — текущий пароль не совпал при смене пароля
var ErrWrongCurrentPassword = errors.New("current password is incorrect")

// UserService определяет операции с профилем пользователя
type UserService interface {
	GetProfile(ctx context.Context, userID int64) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, fullName, username, phoneNumber, location *string) (*models.User, error)
	UploadProfilePicture(ctx context.Context, userID int64, image ImageUpload) (*models.User, error)
	ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error
	ForgotPassword(ctx context.Context, email string) (string, error)
	ResetPassword(ctx context.Context, resetToken, newPassword string) error
}

type userService struct {
	log           *slog.Logger
	userRepo      storage.UserStorage
	resetRepo     storage.ResetTokenStorage
	files         FileStorage
	profileBucket string
	resetTokenTTL time.Duration
}

func NewUserService(log *slog.Logger, userRepo storage.UserStorage, resetRepo storage.ResetTokenStorage, files FileStorage, profileBucket string, resetTokenTTL time.Duration) UserService {
	return &userService{
		log:           log,
		userRepo:      userRepo,
		resetRepo:     resetRepo,
		files:         files,
		profileBucket: profileBucket,
		resetTokenTTL: resetTokenTTL,
	}
}

func (s *userService) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	const op = "service.UserService.GetProfile"

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		s.log.Error("failed to get user", slog.String("op", op), slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return user, nil
}

func (s *userService) UpdateProfile(ctx context.Context, userID int64, fullName, username, phoneNumber, location *string) (*models.User, error) {
	const op = "service.UserService.UpdateProfile"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	user, err := s.userRepo.UpdateProfile(ctx, userID, fullName, username, phoneNumber, location)
	if err != nil {
		logger.Warn("failed to update profile", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("profile updated")
	return user, nil
}

// UploadProfilePicture загружает картинку в хранилище и сохраняет публичную
// ссылку в профиле. Имя объекта включает uuid: два запроса не перезапишут друг друга.
func (s *userService) UploadProfilePicture(ctx context.Context, userID int64, image ImageUpload) (*models.User, error) {
	const op = "service.UserService.UploadProfilePicture"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	path := fmt.Sprintf("%d-%s.%s", userID, uuid.NewString(), normalizeExt(image.Ext))
	if err := s.files.Upload(ctx, s.profileBucket, path, image.Data, image.ContentType); err != nil {
		logger.Error("failed to upload profile picture", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to upload profile picture: %w", op, err)
	}

	pictureURL := s.files.PublicURL(s.profileBucket, path)
	user, err := s.userRepo.UpdateProfilePicture(ctx, userID, pictureURL)
	if err != nil {
		logger.Error("failed to store picture url", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to store picture url: %w", op, err)
	}

	logger.Info("profile picture updated")
	return user, nil
}

func (s *userService) ChangePassword(ctx context.Context, userID int64, currentPassword, newPassword string) error {
	const op = "service.UserService.ChangePassword"
	logger := s.log.With(slog.String("op", op), slog.Int64("userID", userID))

	user, err := s.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		logger.Error("failed to get user", slog.Any("error", err))
		return fmt.Errorf("%s: failed to get user: %w", op, err)
	}

	if err := bcrypt.CompareHashAndPassword(user.PassHash, []byte(currentPassword)); err != nil {
		logger.Warn("current password mismatch")
		return fmt.Errorf("%s: %w", op, ErrWrongCurrentPassword)
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, newHash); err != nil {
		logger.Error("failed to update password", slog.Any("error", err))
		return fmt.Errorf("%s: failed to update password: %w", op, err)
	}

	logger.Info("password changed")
	return nil
}

// ForgotPassword выдает одноразовый токен сброса, привязанный к пользователю
// и с ограниченным сроком жизни
func (s *userService) ForgotPassword(ctx context.Context, email string) (string, error) {
	const op = "service.UserService.ForgotPassword"
	logger := s.log.With(slog.String("op", op), slog.String("email", email))

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		logger.Warn("failed to get user", slog.Any("error", err))
		return "", fmt.Errorf("%s: %w", op, err)
	}

	resetToken := uuid.NewString()
	expiresAt := time.Now().Add(s.resetTokenTTL)
	if err := s.resetRepo.CreateResetToken(ctx, resetToken, user.ID, expiresAt); err != nil {
		logger.Error("failed to store reset token", slog.Any("error", err))
		return "", fmt.Errorf("%s: failed to store reset token: %w", op, err)
	}

	logger.Info("reset token issued", slog.Int64("userID", user.ID))
	return resetToken, nil
}

// ResetPassword гасит токен и ставит новый пароль его владельцу.
// Использованный, чужой или истекший токен отклоняется одинаково.
func (s *userService) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	const op = "service.UserService.ResetPassword"
	logger := s.log.With(slog.String("op", op))

	// Колонка токена имеет тип uuid: мусорную строку отсекаем до запроса
	if _, err := uuid.Parse(resetToken); err != nil {
		logger.Warn("malformed reset token")
		return fmt.Errorf("%s: %w", op, storage.ErrResetTokenInvalid)
	}

	userID, err := s.resetRepo.ConsumeResetToken(ctx, resetToken)
	if err != nil {
		logger.Warn("failed to consume reset token", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	newHash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		logger.Error("failed to hash password", slog.Any("error", err))
		return fmt.Errorf("%s: failed to hash password: %w", op, err)
	}

	if err := s.userRepo.UpdatePassword(ctx, userID, newHash); err != nil {
		logger.Error("failed to update password", slog.Any("error", err))
		return fmt.Errorf("%s: failed to update password: %w", op, err)
	}

	logger.Info("password reset completed", slog.Int64("userID", userID))
	return nil
}

func normalizeExt(ext string) string {
	if ext == "" {
		return "jpg"
	}
	return ext
}
