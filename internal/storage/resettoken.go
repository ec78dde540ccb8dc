package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

var ErrResetTokenInvalid = errors.New("invalid or expired reset token")

// ResetTokenStorage хранит одноразовые токены сброса пароля,
// каждый токен привязан к пользователю и имеет срок жизни
type ResetTokenStorage interface {
	CreateResetToken(ctx context.Context, token string, userID int64, expiresAt time.Time) error
	// ConsumeResetToken гасит токен и возвращает владельца, повторное
	// использование или истекший срок — ошибка
	ConsumeResetToken(ctx context.Context, token string) (int64, error)
}

type resetTokenRepository struct {
	db *sql.DB
}

func NewResetTokenRepository(db *sql.DB) ResetTokenStorage {
	return &resetTokenRepository{db: db}
}

func (r *resetTokenRepository) CreateResetToken(ctx context.Context, token string, userID int64, expiresAt time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO password_reset_tokens (token, user_id, expires_at) VALUES ($1, $2, $3)`,
		token, userID, expiresAt)
	return err
}

// ConsumeResetToken: удаление и проверка срока одной командой,
// токен нельзя использовать дважды
func (r *resetTokenRepository) ConsumeResetToken(ctx context.Context, token string) (int64, error) {
	var userID int64
	row := r.db.QueryRowContext(ctx,
		`DELETE FROM password_reset_tokens
		 WHERE token = $1 AND expires_at > NOW()
		 RETURNING user_id`, token)
	if err := row.Scan(&userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, ErrResetTokenInvalid
		}
		return 0, err
	}
	return userID, nil
}
