package storage

import (
	"context"
	"database/sql"
	"errors"

	"github.com/codenati22/loffy-back/internal/domain/models"
	"github.com/lib/pq"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrEmailTaken    = errors.New("email already taken")
	ErrUsernameTaken = errors.New("username already taken")
)

type UserStorage interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)
	UpdateProfile(ctx context.Context, id int64, fullName, username, phoneNumber, location *string) (*models.User, error)
	UpdatePassword(ctx context.Context, id int64, passHash []byte) error
	UpdateProfilePicture(ctx context.Context, id int64, pictureURL string) (*models.User, error)
}

type userRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *userRepository {
	return &userRepository{db: db}
}

const userColumns = "id, full_name, username, email, phone_number, pass_hash, role, profile_picture, location, created_at, updated_at"

func scanUser(row *sql.Row) (*models.User, error) {
	user := &models.User{}
	err := row.Scan(
		&user.ID, &user.FullName, &user.Username, &user.Email, &user.PhoneNumber,
		&user.PassHash, &user.Role, &user.ProfilePicture, &user.Location,
		&user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

// получение уже существующего пользователя
func (r *userRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email)
	return scanUser(row)
}

func (r *userRepository) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	row := r.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	return scanUser(row)
}

// CreateUser вставляет нового пользователя одной командой: уникальность email
// и username гарантируют ограничения БД, а не предварительные проверки
func (r *userRepository) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO users (full_name, username, email, phone_number, pass_hash, role)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING `+userColumns,
		user.FullName, user.Username, user.Email, user.PhoneNumber, user.PassHash, user.Role,
	)
	created := &models.User{}
	err := row.Scan(
		&created.ID, &created.FullName, &created.Username, &created.Email, &created.PhoneNumber,
		&created.PassHash, &created.Role, &created.ProfilePicture, &created.Location,
		&created.CreatedAt, &created.UpdatedAt,
	)
	if err != nil {
		return nil, translateUserConflict(err)
	}
	return created, nil
}

// UpdateProfile обновляет только переданные поля, nil оставляет прежнее значение
func (r *userRepository) UpdateProfile(ctx context.Context, id int64, fullName, username, phoneNumber, location *string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE users
		 SET full_name = COALESCE($2, full_name),
		     username = COALESCE($3, username),
		     phone_number = COALESCE($4, phone_number),
		     location = COALESCE($5, location),
		     updated_at = NOW()
		 WHERE id = $1
		 RETURNING `+userColumns,
		id, fullName, username, phoneNumber, location,
	)
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, err
		}
		return nil, translateUserConflict(err)
	}
	return user, nil
}

func (r *userRepository) UpdatePassword(ctx context.Context, id int64, passHash []byte) error {
	res, err := r.db.ExecContext(ctx,
		"UPDATE users SET pass_hash = $1, updated_at = NOW() WHERE id = $2", passHash, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *userRepository) UpdateProfilePicture(ctx context.Context, id int64, pictureURL string) (*models.User, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE users SET profile_picture = $1, updated_at = NOW() WHERE id = $2 RETURNING `+userColumns,
		pictureURL, id,
	)
	return scanUser(row)
}

// translateUserConflict превращает нарушение уникального ограничения в доменную ошибку,
// по имени ограничения различаем email и username
func translateUserConflict(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		switch pqErr.Constraint {
		case "users_email_key":
			return ErrEmailTaken
		case "users_username_key":
			return ErrUsernameTaken
		}
		return ErrEmailTaken
	}
	return err
}
