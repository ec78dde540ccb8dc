package storage_test

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/codenati22/loffy-back/internal/domain/models"
	"github.com/codenati22/loffy-back/internal/storage"
	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

const userColumnsSQL = "SELECT id, full_name, username, email, phone_number, pass_hash, role, profile_picture, location, created_at, updated_at FROM users WHERE email = \\$1"

func userRows(id int64, email string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "full_name", "username", "email", "phone_number", "pass_hash",
		"role", "profile_picture", "location", "created_at", "updated_at",
	}).AddRow(id, "Test User", "testuser", email, "+100000000", []byte("hashed-password"), "user", nil, nil, now, now)
}

func TestGetUserByEmail_Success(t *testing.T) {
	// Создаем sqlmock для эмуляции базы данных.
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)
	ctx := context.Background()
	email := "test@example.com"

	mock.ExpectQuery(userColumnsSQL).WithArgs(email).WillReturnRows(userRows(1, email))

	user, err := repo.GetUserByEmail(ctx, email)
	assert.NoError(t, err, "Expected no error when user is found")
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, email, user.Email)
	assert.Equal(t, []byte("hashed-password"), user.PassHash)
	assert.Nil(t, user.ProfilePicture)

	// Проверяем, что все ожидания sqlmock выполнены.
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUserByEmail_NoRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)
	ctx := context.Background()

	// Эмулируем ситуацию, когда запрос возвращает 0 строк.
	rows := sqlmock.NewRows([]string{"id"})
	mock.ExpectQuery(userColumnsSQL).WithArgs("missing@example.com").WillReturnRows(rows)

	user, err := repo.GetUserByEmail(ctx, "missing@example.com")
	assert.Error(t, err, "Expected error when user is not found")
	assert.True(t, errors.Is(err, storage.ErrUserNotFound))
	assert.Nil(t, user, "User should be nil when not found")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateUser_EmailConflict(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewUserRepository(db)
	ctx := context.Background()

	// Нарушение уникального ограничения по email транслируется в доменную ошибку
	pqErr := &pq.Error{Code: "23505", Constraint: "users_email_key"}
	mock.ExpectQuery("INSERT INTO users").WillReturnError(pqErr)

	user, err := repo.CreateUser(ctx, &models.User{
		FullName:    "Test User",
		Username:    "testuser",
		Email:       "test@example.com",
		PhoneNumber: "+100000000",
		PassHash:    []byte("hashed-password"),
	})
	assert.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrEmailTaken))
	assert.Nil(t, user)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertCartEntry_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewCartRepository(db)
	ctx := context.Background()

	// Повторное добавление той же позиции должно вернуть строку с накопленным количеством
	rows := sqlmock.NewRows([]string{"id", "user_id", "coffee_id", "quantity", "updated_at"}).
		AddRow(7, 1, 2, 5, time.Now())
	mock.ExpectQuery("INSERT INTO cart").WithArgs(int64(1), int64(2), 2).WillReturnRows(rows)

	entry, err := repo.UpsertCartEntry(ctx, 1, 2, 2)
	assert.NoError(t, err)
	assert.Equal(t, int64(7), entry.ID)
	assert.Equal(t, 5, entry.Quantity, "quantity should come from the accumulated row")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertCartEntry_UnknownCoffee(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewCartRepository(db)
	ctx := context.Background()

	// Нарушение внешнего ключа — позиции каталога не существует
	pqErr := &pq.Error{Code: "23503"}
	mock.ExpectQuery("INSERT INTO cart").WillReturnError(pqErr)

	entry, err := repo.UpsertCartEntry(ctx, 1, 999, 1)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrCoffeeNotFound))
	assert.Nil(t, entry)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveCartEntry_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewCartRepository(db)
	ctx := context.Background()

	query := regexp.QuoteMeta("DELETE FROM cart WHERE id = $1 AND user_id = $2")
	mock.ExpectExec(query).WithArgs(int64(42), int64(1)).WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.RemoveCartEntry(ctx, 1, 42)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrCartItemNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLockCartByUserIDTx_ReadsSnapshot(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewCartRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	tx, err := db.Begin()
	assert.NoError(t, err)

	rows := sqlmock.NewRows([]string{"id", "coffee_id", "quantity", "price"}).
		AddRow(10, 1, 2, "5.00").
		AddRow(11, 2, 1, "3.50")
	mock.ExpectQuery("SELECT c.id, c.coffee_id, c.quantity, cf.price").
		WithArgs(int64(1)).WillReturnRows(rows)

	lines, err := repo.LockCartByUserIDTx(ctx, tx, 1)
	assert.NoError(t, err)
	assert.Len(t, lines, 2)
	assert.True(t, lines[0].Price.Equal(decimal.RequireFromString("5.00")))
	assert.True(t, lines[1].Price.Equal(decimal.RequireFromString("3.50")))

	mock.ExpectCommit()
	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestClearCartEntriesTx_ReturnsDeletedCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewCartRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	tx, err := db.Begin()
	assert.NoError(t, err)

	query := regexp.QuoteMeta("DELETE FROM cart WHERE user_id = $1 AND id = ANY($2)")
	mock.ExpectExec(query).WithArgs(int64(1), pq.Array([]int64{10, 11})).
		WillReturnResult(sqlmock.NewResult(0, 2))

	cleared, err := repo.ClearCartEntriesTx(ctx, tx, 1, []int64{10, 11})
	assert.NoError(t, err)
	assert.Equal(t, int64(2), cleared)

	mock.ExpectCommit()
	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrderTx_Success(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewOrderRepository(db)
	ctx := context.Background()

	mock.ExpectBegin()
	tx, err := db.Begin()
	assert.NoError(t, err)

	now := time.Now()
	total := decimal.RequireFromString("13.50")
	rows := sqlmock.NewRows([]string{"id", "user_id", "total_amount", "status", "created_at", "updated_at"}).
		AddRow(3, 1, "13.50", "pending", now, now)
	mock.ExpectQuery("INSERT INTO orders").WillReturnRows(rows)

	order, err := repo.CreateOrderTx(ctx, tx, 1, total)
	assert.NoError(t, err)
	assert.Equal(t, int64(3), order.ID)
	assert.Equal(t, "pending", order.Status)
	assert.True(t, order.TotalAmount.Equal(total))

	mock.ExpectCommit()
	assert.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListCoffees_Pagination(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewCoffeeRepository(db)
	ctx := context.Background()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM coffees")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "name", "price", "rating", "category", "description", "image_url", "created_at", "updated_at"}).
		AddRow(1, "Latte", "4.50", "4.5", "milk", nil, "http://img/latte.jpg", now, now).
		AddRow(2, "Espresso", "3.00", "4.8", "classic", nil, "http://img/espresso.jpg", now, now)
	mock.ExpectQuery("SELECT id, name, price, rating, category, description, image_url, created_at, updated_at FROM coffees ORDER BY id LIMIT \\$1 OFFSET \\$2").
		WithArgs(2, 2).WillReturnRows(rows)

	coffees, total, err := repo.ListCoffees(ctx, 2, 2)
	assert.NoError(t, err)
	assert.Equal(t, 12, total)
	assert.Len(t, coffees, 2)
	assert.True(t, coffees[0].Price.Equal(decimal.RequireFromString("4.50")))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCoffee_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewCoffeeRepository(db)
	ctx := context.Background()

	query := regexp.QuoteMeta("DELETE FROM coffees WHERE id = $1")
	mock.ExpectExec(query).WithArgs(int64(99)).WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.DeleteCoffee(ctx, 99)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrCoffeeNotFound))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConsumeResetToken_Invalid(t *testing.T) {
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)
	defer db.Close()

	repo := storage.NewResetTokenRepository(db)
	ctx := context.Background()

	// Использованный или истекший токен — тот же ответ
	rows := sqlmock.NewRows([]string{"user_id"})
	mock.ExpectQuery("DELETE FROM password_reset_tokens").
		WithArgs("4b1b08f4-0000-0000-0000-000000000000").WillReturnRows(rows)

	userID, err := repo.ConsumeResetToken(ctx, "4b1b08f4-0000-0000-0000-000000000000")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrResetTokenInvalid))
	assert.Zero(t, userID)

	assert.NoError(t, mock.ExpectationsWereMet())
}
