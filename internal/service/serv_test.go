package service_test

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/codenati22/loffy-back/internal/domain/models"
	"github.com/codenati22/loffy-back/internal/service"
	"github.com/codenati22/loffy-back/internal/storage"
	"github.com/golang-jwt/jwt/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"golang.org/x/crypto/bcrypt"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeUserRepo — in-memory реализация storage.UserStorage
type fakeUserRepo struct {
	users  map[int64]*models.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*models.User), nextID: 1}
}

func (f *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (f *fakeUserRepo) GetUserByID(_ context.Context, id int64) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) CreateUser(_ context.Context, user *models.User) (*models.User, error) {
	for _, u := range f.users {
		if u.Email == user.Email {
			return nil, storage.ErrEmailTaken
		}
		if u.Username == user.Username {
			return nil, storage.ErrUsernameTaken
		}
	}
	stored := *user
	stored.ID = f.nextID
	f.nextID++
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	f.users[stored.ID] = &stored
	copied := stored
	return &copied, nil
}

func (f *fakeUserRepo) UpdateProfile(_ context.Context, id int64, fullName, username, phoneNumber, location *string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	if fullName != nil {
		u.FullName = *fullName
	}
	if username != nil {
		u.Username = *username
	}
	if phoneNumber != nil {
		u.PhoneNumber = *phoneNumber
	}
	if location != nil {
		u.Location = location
	}
	copied := *u
	return &copied, nil
}

func (f *fakeUserRepo) UpdatePassword(_ context.Context, id int64, passHash []byte) error {
	u, ok := f.users[id]
	if !ok {
		return storage.ErrUserNotFound
	}
	u.PassHash = passHash
	return nil
}

func (f *fakeUserRepo) UpdateProfilePicture(_ context.Context, id int64, pictureURL string) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	u.ProfilePicture = &pictureURL
	copied := *u
	return &copied, nil
}

// fakeResetRepo — in-memory реализация storage.ResetTokenStorage
type fakeResetRepo struct {
	tokens map[string]struct {
		userID    int64
		expiresAt time.Time
	}
}

func newFakeResetRepo() *fakeResetRepo {
	return &fakeResetRepo{tokens: make(map[string]struct {
		userID    int64
		expiresAt time.Time
	})}
}

func (f *fakeResetRepo) CreateResetToken(_ context.Context, token string, userID int64, expiresAt time.Time) error {
	f.tokens[token] = struct {
		userID    int64
		expiresAt time.Time
	}{userID, expiresAt}
	return nil
}

func (f *fakeResetRepo) ConsumeResetToken(_ context.Context, token string) (int64, error) {
	entry, ok := f.tokens[token]
	if !ok || entry.expiresAt.Before(time.Now()) {
		delete(f.tokens, token)
		return 0, storage.ErrResetTokenInvalid
	}
	delete(f.tokens, token)
	return entry.userID, nil
}

// fakeCartRepo — in-memory реализация storage.CartStorage.
// Цены позиций задаются через prices, clearShortfall эмулирует гонку
// при очистке снимка.
type fakeCartRepo struct {
	entries        map[int64]*models.CartEntry
	prices         map[int64]decimal.Decimal
	nextID         int64
	clearShortfall int64
}

func newFakeCartRepo() *fakeCartRepo {
	return &fakeCartRepo{
		entries: make(map[int64]*models.CartEntry),
		prices:  make(map[int64]decimal.Decimal),
		nextID:  1,
	}
}

func (f *fakeCartRepo) GetCartByUserID(_ context.Context, userID int64) ([]*models.CartItem, error) {
	var items []*models.CartItem
	for _, e := range f.entries {
		if e.UserID == userID {
			items = append(items, &models.CartItem{ID: e.ID, Quantity: e.Quantity})
		}
	}
	if items == nil {
		items = []*models.CartItem{}
	}
	return items, nil
}

func (f *fakeCartRepo) UpsertCartEntry(_ context.Context, userID, coffeeID int64, quantity int) (*models.CartEntry, error) {
	if _, ok := f.prices[coffeeID]; !ok {
		return nil, storage.ErrCoffeeNotFound
	}
	for _, e := range f.entries {
		if e.UserID == userID && e.CoffeeID == coffeeID {
			e.Quantity += quantity
			e.UpdatedAt = time.Now()
			copied := *e
			return &copied, nil
		}
	}
	entry := &models.CartEntry{
		ID:        f.nextID,
		UserID:    userID,
		CoffeeID:  coffeeID,
		Quantity:  quantity,
		UpdatedAt: time.Now(),
	}
	f.nextID++
	f.entries[entry.ID] = entry
	copied := *entry
	return &copied, nil
}

func (f *fakeCartRepo) RemoveCartEntry(_ context.Context, userID, entryID int64) error {
	e, ok := f.entries[entryID]
	if !ok || e.UserID != userID {
		return storage.ErrCartItemNotFound
	}
	delete(f.entries, entryID)
	return nil
}

func (f *fakeCartRepo) LockCartByUserIDTx(_ context.Context, _ *sql.Tx, userID int64) ([]*storage.CartLine, error) {
	var lines []*storage.CartLine
	for _, e := range f.entries {
		if e.UserID == userID {
			lines = append(lines, &storage.CartLine{
				EntryID:  e.ID,
				CoffeeID: e.CoffeeID,
				Quantity: e.Quantity,
				Price:    f.prices[e.CoffeeID],
			})
		}
	}
	return lines, nil
}

func (f *fakeCartRepo) ClearCartEntriesTx(_ context.Context, _ *sql.Tx, userID int64, entryIDs []int64) (int64, error) {
	var cleared int64
	for _, id := range entryIDs {
		if e, ok := f.entries[id]; ok && e.UserID == userID {
			delete(f.entries, id)
			cleared++
		}
	}
	return cleared - f.clearShortfall, nil
}

// fakeOrderRepo — in-memory реализация storage.OrderStorage
type fakeOrderRepo struct {
	orders map[int64]*models.Order
	items  map[int64][]*models.OrderItem
	nextID int64
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{
		orders: make(map[int64]*models.Order),
		items:  make(map[int64][]*models.OrderItem),
		nextID: 1,
	}
}

func (f *fakeOrderRepo) CreateOrderTx(_ context.Context, _ *sql.Tx, userID int64, totalAmount decimal.Decimal) (*models.Order, error) {
	order := &models.Order{
		ID:          f.nextID,
		UserID:      userID,
		TotalAmount: totalAmount,
		Status:      models.OrderStatusPending,
		CreatedAt:   time.Now(),
		UpdatedAt:   time.Now(),
	}
	f.nextID++
	f.orders[order.ID] = order
	copied := *order
	return &copied, nil
}

func (f *fakeOrderRepo) CreateOrderItemsTx(_ context.Context, _ *sql.Tx, orderID int64, lines []*storage.CartLine) error {
	for _, line := range lines {
		coffeeID := line.CoffeeID
		f.items[orderID] = append(f.items[orderID], &models.OrderItem{
			OrderID:  orderID,
			CoffeeID: &coffeeID,
			Quantity: line.Quantity,
			Price:    line.Price,
		})
	}
	return nil
}

func (f *fakeOrderRepo) GetOrdersByUserID(_ context.Context, userID int64) ([]*models.Order, error) {
	var orders []*models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			copied := *o
			orders = append(orders, &copied)
		}
	}
	return orders, nil
}

func (f *fakeOrderRepo) GetOrderItemsByOrderIDs(_ context.Context, orderIDs []int64) (map[int64][]*models.OrderItem, error) {
	result := make(map[int64][]*models.OrderItem)
	for _, id := range orderIDs {
		result[id] = f.items[id]
	}
	return result, nil
}

// fakeFiles — реализация service.FileStorage, запоминает загрузки
type fakeFiles struct {
	uploads map[string][]byte
}

func newFakeFiles() *fakeFiles {
	return &fakeFiles{uploads: make(map[string][]byte)}
}

func (f *fakeFiles) Upload(_ context.Context, bucket, path string, data []byte, _ string) error {
	f.uploads[bucket+"/"+path] = data
	return nil
}

func (f *fakeFiles) PublicURL(bucket, path string) string {
	return fmt.Sprintf("https://files.test/storage/v1/object/public/%s/%s", bucket, path)
}

// fakeCoffeeRepo — in-memory реализация storage.CoffeeStorage
type fakeCoffeeRepo struct {
	coffees map[int64]*models.Coffee
	nextID  int64
}

func newFakeCoffeeRepo() *fakeCoffeeRepo {
	return &fakeCoffeeRepo{coffees: make(map[int64]*models.Coffee), nextID: 1}
}

func (f *fakeCoffeeRepo) ListCoffees(_ context.Context, limit, offset int) ([]*models.Coffee, int, error) {
	var all []*models.Coffee
	for _, c := range f.coffees {
		all = append(all, c)
	}
	total := len(all)
	if offset >= total {
		return []*models.Coffee{}, total, nil
	}
	end := offset + limit
	if end > total {
		end = total
	}
	return all[offset:end], total, nil
}

func (f *fakeCoffeeRepo) GetCoffeeByID(_ context.Context, id int64) (*models.Coffee, error) {
	c, ok := f.coffees[id]
	if !ok {
		return nil, storage.ErrCoffeeNotFound
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCoffeeRepo) CreateCoffee(_ context.Context, coffee *models.Coffee) (*models.Coffee, error) {
	stored := *coffee
	stored.ID = f.nextID
	f.nextID++
	f.coffees[stored.ID] = &stored
	copied := stored
	return &copied, nil
}

func (f *fakeCoffeeRepo) UpdateCoffee(_ context.Context, id int64, name *string, price, rating *decimal.Decimal, category, description, imageURL *string) (*models.Coffee, error) {
	c, ok := f.coffees[id]
	if !ok {
		return nil, storage.ErrCoffeeNotFound
	}
	if name != nil {
		c.Name = *name
	}
	if price != nil {
		c.Price = *price
	}
	if rating != nil {
		c.Rating = *rating
	}
	if category != nil {
		c.Category = *category
	}
	if description != nil {
		c.Description = description
	}
	if imageURL != nil {
		c.ImageURL = *imageURL
	}
	copied := *c
	return &copied, nil
}

func (f *fakeCoffeeRepo) DeleteCoffee(_ context.Context, id int64) error {
	if _, ok := f.coffees[id]; !ok {
		return storage.ErrCoffeeNotFound
	}
	delete(f.coffees, id)
	return nil
}

func parseTokenClaims(t *testing.T, token, secret string) jwt.MapClaims {
	t.Helper()
	parsed, err := jwt.Parse(token, func(_ *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	assert.NoError(t, err)
	claims, ok := parsed.Claims.(jwt.MapClaims)
	assert.True(t, ok)
	return claims
}

func TestRegister_Success(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	userRepo := newFakeUserRepo()
	auth := service.NewAuthService(discardLogger(), userRepo, time.Hour)
	ctx := context.Background()

	user, token, err := auth.Register(ctx, "Test User", "testuser", "test@example.com", "+100000000", "password123")
	assert.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEmpty(t, token)

	// Пароль сохранен в виде bcrypt-хеша, не открытым текстом
	assert.NoError(t, bcrypt.CompareHashAndPassword(user.PassHash, []byte("password123")))

	claims := parseTokenClaims(t, token, "test-secret")
	assert.Equal(t, "1", claims["sub"])
	assert.Equal(t, "test@example.com", claims["email"])
	assert.Equal(t, models.RoleUser, claims["role"])
}

func TestRegister_EmailTaken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	userRepo := newFakeUserRepo()
	auth := service.NewAuthService(discardLogger(), userRepo, time.Hour)
	ctx := context.Background()

	_, _, err := auth.Register(ctx, "First", "first", "dup@example.com", "+1", "password123")
	assert.NoError(t, err)

	user, token, err := auth.Register(ctx, "Second", "second", "dup@example.com", "+2", "password123")
	assert.Error(t, err)
	assert.True(t, errors.Is(err, storage.ErrEmailTaken))
	assert.Nil(t, user)
	assert.Empty(t, token)
}

func TestRegisterThenLogin_SameIdentity(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	userRepo := newFakeUserRepo()
	auth := service.NewAuthService(discardLogger(), userRepo, time.Hour)
	ctx := context.Background()

	regUser, regToken, err := auth.Register(ctx, "Test User", "testuser", "test@example.com", "+100000000", "password123")
	assert.NoError(t, err)

	loginUser, loginToken, err := auth.Login(ctx, "test@example.com", "password123")
	assert.NoError(t, err)
	assert.Equal(t, regUser.ID, loginUser.ID)

	// Оба токена несут одну и ту же личность
	regClaims := parseTokenClaims(t, regToken, "test-secret")
	loginClaims := parseTokenClaims(t, loginToken, "test-secret")
	assert.Equal(t, regClaims["sub"], loginClaims["sub"])
	assert.Equal(t, regClaims["email"], loginClaims["email"])
	assert.Equal(t, regClaims["role"], loginClaims["role"])
}

func TestLogin_InvalidCredentials(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	userRepo := newFakeUserRepo()
	auth := service.NewAuthService(discardLogger(), userRepo, time.Hour)
	ctx := context.Background()

	_, _, err := auth.Register(ctx, "Test User", "testuser", "test@example.com", "+100000000", "password123")
	assert.NoError(t, err)

	// Неверный пароль и несуществующий email дают одну и ту же ошибку
	_, _, err = auth.Login(ctx, "test@example.com", "wrong-password")
	assert.True(t, errors.Is(err, service.ErrInvalidCredentials))

	_, _, err = auth.Login(ctx, "nobody@example.com", "password123")
	assert.True(t, errors.Is(err, service.ErrInvalidCredentials))
}

func TestAddToCart_AccumulatesQuantity(t *testing.T) {
	cartRepo := newFakeCartRepo()
	cartRepo.prices[1] = decimal.RequireFromString("5.00")
	carts := service.NewCartService(discardLogger(), cartRepo)
	ctx := context.Background()

	_, err := carts.AddToCart(ctx, 1, 1, 2)
	assert.NoError(t, err)

	entry, err := carts.AddToCart(ctx, 1, 1, 3)
	assert.NoError(t, err)
	assert.Equal(t, 5, entry.Quantity)

	// По-прежнему одна строка, а не две
	items, err := carts.GetCart(ctx, 1)
	assert.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestAddToCart_InvalidQuantity(t *testing.T) {
	cartRepo := newFakeCartRepo()
	cartRepo.prices[1] = decimal.RequireFromString("5.00")
	carts := service.NewCartService(discardLogger(), cartRepo)

	_, err := carts.AddToCart(context.Background(), 1, 1, 0)
	assert.True(t, errors.Is(err, service.ErrInvalidQuantity))

	_, err = carts.AddToCart(context.Background(), 1, 1, -3)
	assert.True(t, errors.Is(err, service.ErrInvalidQuantity))
}

func TestAddToCart_UnknownCoffee(t *testing.T) {
	carts := service.NewCartService(discardLogger(), newFakeCartRepo())

	_, err := carts.AddToCart(context.Background(), 1, 999, 1)
	assert.True(t, errors.Is(err, storage.ErrCoffeeNotFound))
}

func TestRemoveFromCart_Twice(t *testing.T) {
	cartRepo := newFakeCartRepo()
	cartRepo.prices[1] = decimal.RequireFromString("5.00")
	carts := service.NewCartService(discardLogger(), cartRepo)
	ctx := context.Background()

	entry, err := carts.AddToCart(ctx, 1, 1, 1)
	assert.NoError(t, err)

	assert.NoError(t, carts.RemoveFromCart(ctx, 1, entry.ID))

	// Повторное удаление той же строки — уже не найдена
	err = carts.RemoveFromCart(ctx, 1, entry.ID)
	assert.True(t, errors.Is(err, storage.ErrCartItemNotFound))
}

func newOrderFixture(t *testing.T) (*fakeCartRepo, *fakeOrderRepo, service.OrderService, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	assert.NoError(t, err)

	cartRepo := newFakeCartRepo()
	orderRepo := newFakeOrderRepo()
	orders := service.NewOrderService(discardLogger(), db, cartRepo, orderRepo)
	return cartRepo, orderRepo, orders, mock, func() { db.Close() }
}

func TestCreateOrder_Success(t *testing.T) {
	cartRepo, orderRepo, orders, mock, closeDB := newOrderFixture(t)
	defer closeDB()
	ctx := context.Background()

	cartRepo.prices[1] = decimal.RequireFromString("5.00")
	cartRepo.prices[2] = decimal.RequireFromString("3.50")
	_, err := cartRepo.UpsertCartEntry(ctx, 1, 1, 2)
	assert.NoError(t, err)
	_, err = cartRepo.UpsertCartEntry(ctx, 1, 2, 1)
	assert.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()

	order, err := orders.CreateOrder(ctx, 1)
	assert.NoError(t, err)
	assert.True(t, order.TotalAmount.Equal(decimal.RequireFromString("13.50")),
		"total should be 2*5.00 + 1*3.50, got %s", order.TotalAmount)
	assert.Equal(t, models.OrderStatusPending, order.Status)
	assert.Len(t, order.Items, 2)

	// Корзина очищена
	items, err := cartRepo.GetCartByUserID(ctx, 1)
	assert.NoError(t, err)
	assert.Empty(t, items)

	assert.Len(t, orderRepo.orders, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrder_EmptyCart(t *testing.T) {
	_, orderRepo, orders, mock, closeDB := newOrderFixture(t)
	defer closeDB()

	mock.ExpectBegin()
	mock.ExpectRollback()

	order, err := orders.CreateOrder(context.Background(), 1)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrCartEmpty))
	assert.Nil(t, order)

	// Заказ не создан
	assert.Empty(t, orderRepo.orders)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrder_SnapshotConflict(t *testing.T) {
	cartRepo, _, orders, mock, closeDB := newOrderFixture(t)
	defer closeDB()
	ctx := context.Background()

	cartRepo.prices[1] = decimal.RequireFromString("5.00")
	_, err := cartRepo.UpsertCartEntry(ctx, 1, 1, 2)
	assert.NoError(t, err)
	// Эмулируем гонку: часть снимка исчезла до очистки
	cartRepo.clearShortfall = 1

	mock.ExpectBegin()
	mock.ExpectRollback()

	order, err := orders.CreateOrder(ctx, 1)
	assert.Error(t, err)
	assert.True(t, errors.Is(err, service.ErrCartConflict))
	assert.Nil(t, order)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOrder_PriceSnapshotIsImmutable(t *testing.T) {
	cartRepo, _, orders, mock, closeDB := newOrderFixture(t)
	defer closeDB()
	ctx := context.Background()

	oldPrice := decimal.RequireFromString("5.00")
	cartRepo.prices[1] = oldPrice
	_, err := cartRepo.UpsertCartEntry(ctx, 1, 1, 1)
	assert.NoError(t, err)

	mock.ExpectBegin()
	mock.ExpectCommit()

	order, err := orders.CreateOrder(ctx, 1)
	assert.NoError(t, err)

	// Изменение цены в каталоге не задевает уже оформленный заказ
	cartRepo.prices[1] = decimal.RequireFromString("9.99")

	history, err := orders.GetOrders(ctx, 1)
	assert.NoError(t, err)
	assert.Len(t, history, 1)
	assert.Len(t, history[0].Items, 1)
	assert.True(t, history[0].Items[0].Price.Equal(oldPrice))
	assert.True(t, history[0].TotalAmount.Equal(order.TotalAmount))
}

func TestChangePassword_WrongCurrent(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	userRepo := newFakeUserRepo()
	auth := service.NewAuthService(discardLogger(), userRepo, time.Hour)
	users := service.NewUserService(discardLogger(), userRepo, newFakeResetRepo(), newFakeFiles(), "profile-pictures", 15*time.Minute)
	ctx := context.Background()

	user, _, err := auth.Register(ctx, "Test User", "testuser", "test@example.com", "+100000000", "password123")
	assert.NoError(t, err)

	err = users.ChangePassword(ctx, user.ID, "wrong-password", "newpassword1")
	assert.True(t, errors.Is(err, service.ErrWrongCurrentPassword))

	// Старый пароль по-прежнему действует
	_, _, err = auth.Login(ctx, "test@example.com", "password123")
	assert.NoError(t, err)
}

func TestForgotResetPassword_RoundTrip(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	userRepo := newFakeUserRepo()
	auth := service.NewAuthService(discardLogger(), userRepo, time.Hour)
	users := service.NewUserService(discardLogger(), userRepo, newFakeResetRepo(), newFakeFiles(), "profile-pictures", 15*time.Minute)
	ctx := context.Background()

	_, _, err := auth.Register(ctx, "Test User", "testuser", "test@example.com", "+100000000", "password123")
	assert.NoError(t, err)

	resetToken, err := users.ForgotPassword(ctx, "test@example.com")
	assert.NoError(t, err)
	assert.NotEmpty(t, resetToken)

	assert.NoError(t, users.ResetPassword(ctx, resetToken, "newpassword1"))

	// Новый пароль работает, старый — нет
	_, _, err = auth.Login(ctx, "test@example.com", "newpassword1")
	assert.NoError(t, err)
	_, _, err = auth.Login(ctx, "test@example.com", "password123")
	assert.True(t, errors.Is(err, service.ErrInvalidCredentials))

	// Токен одноразовый
	err = users.ResetPassword(ctx, resetToken, "anotherpassword")
	assert.True(t, errors.Is(err, storage.ErrResetTokenInvalid))
}

func TestResetPassword_MalformedToken(t *testing.T) {
	users := service.NewUserService(discardLogger(), newFakeUserRepo(), newFakeResetRepo(), newFakeFiles(), "profile-pictures", 15*time.Minute)

	err := users.ResetPassword(context.Background(), "not-a-uuid", "newpassword1")
	assert.True(t, errors.Is(err, storage.ErrResetTokenInvalid))
}

func TestForgotPassword_UnknownEmail(t *testing.T) {
	users := service.NewUserService(discardLogger(), newFakeUserRepo(), newFakeResetRepo(), newFakeFiles(), "profile-pictures", 15*time.Minute)

	_, err := users.ForgotPassword(context.Background(), "nobody@example.com")
	assert.True(t, errors.Is(err, storage.ErrUserNotFound))
}

func TestUploadProfilePicture_StoresFileAndURL(t *testing.T) {
	userRepo := newFakeUserRepo()
	files := newFakeFiles()
	users := service.NewUserService(discardLogger(), userRepo, newFakeResetRepo(), files, "profile-pictures", 15*time.Minute)
	ctx := context.Background()

	created, err := userRepo.CreateUser(ctx, &models.User{Email: "test@example.com", Username: "testuser"})
	assert.NoError(t, err)

	user, err := users.UploadProfilePicture(ctx, created.ID, service.ImageUpload{
		Data:        []byte("binary"),
		Ext:         "png",
		ContentType: "image/png",
	})
	assert.NoError(t, err)
	assert.NotNil(t, user.ProfilePicture)
	assert.Contains(t, *user.ProfilePicture, "profile-pictures/")
	assert.Len(t, files.uploads, 1)
}

func TestCreateCoffee_Validation(t *testing.T) {
	coffees := service.NewCoffeeService(discardLogger(), newFakeCoffeeRepo(), newFakeFiles(), "coffee-images")
	ctx := context.Background()
	image := service.ImageUpload{Data: []byte("img"), Ext: "jpg", ContentType: "image/jpeg"}

	_, err := coffees.Create(ctx, service.CoffeeInput{
		Name:   "Latte",
		Price:  decimal.Zero,
		Rating: decimal.RequireFromString("4.5"),
	}, image)
	assert.True(t, errors.Is(err, service.ErrInvalidPrice))

	_, err = coffees.Create(ctx, service.CoffeeInput{
		Name:   "Latte",
		Price:  decimal.RequireFromString("4.50"),
		Rating: decimal.RequireFromString("5.1"),
	}, image)
	assert.True(t, errors.Is(err, service.ErrInvalidRating))
}

func TestCreateCoffee_UploadsImage(t *testing.T) {
	files := newFakeFiles()
	coffees := service.NewCoffeeService(discardLogger(), newFakeCoffeeRepo(), files, "coffee-images")

	coffee, err := coffees.Create(context.Background(), service.CoffeeInput{
		Name:     "Latte",
		Price:    decimal.RequireFromString("4.50"),
		Rating:   decimal.RequireFromString("4.5"),
		Category: "milk",
	}, service.ImageUpload{Data: []byte("img"), Ext: "jpg", ContentType: "image/jpeg"})
	assert.NoError(t, err)
	assert.Contains(t, coffee.ImageURL, "coffee-images/")
	assert.Len(t, files.uploads, 1)
}

// fakeFavoriteRepo — in-memory реализация storage.FavoriteStorage
type fakeFavoriteRepo struct {
	entries map[int64]*models.FavoriteEntry
	nextID  int64
}

func newFakeFavoriteRepo() *fakeFavoriteRepo {
	return &fakeFavoriteRepo{entries: make(map[int64]*models.FavoriteEntry), nextID: 1}
}

func (f *fakeFavoriteRepo) GetFavoritesByUserID(_ context.Context, userID int64) ([]*models.FavoriteItem, error) {
	items := []*models.FavoriteItem{}
	for _, e := range f.entries {
		if e.UserID == userID {
			items = append(items, &models.FavoriteItem{ID: e.ID})
		}
	}
	return items, nil
}

func (f *fakeFavoriteRepo) AddFavorite(_ context.Context, userID, coffeeID int64) (*models.FavoriteEntry, error) {
	for _, e := range f.entries {
		if e.UserID == userID && e.CoffeeID == coffeeID {
			return nil, storage.ErrFavoriteExists
		}
	}
	entry := &models.FavoriteEntry{ID: f.nextID, UserID: userID, CoffeeID: coffeeID}
	f.nextID++
	f.entries[entry.ID] = entry
	copied := *entry
	return &copied, nil
}

func (f *fakeFavoriteRepo) RemoveFavorite(_ context.Context, userID, favoriteID int64) error {
	e, ok := f.entries[favoriteID]
	if !ok || e.UserID != userID {
		return storage.ErrFavoriteNotFound
	}
	delete(f.entries, favoriteID)
	return nil
}

func TestAddToFavorites_Duplicate(t *testing.T) {
	favorites := service.NewFavoriteService(discardLogger(), newFakeFavoriteRepo())
	ctx := context.Background()

	_, err := favorites.AddToFavorites(ctx, 1, 2)
	assert.NoError(t, err)

	// Повторное добавление — конфликт, второй строки не появляется
	_, err = favorites.AddToFavorites(ctx, 1, 2)
	assert.True(t, errors.Is(err, storage.ErrFavoriteExists))

	items, err := favorites.GetFavorites(ctx, 1)
	assert.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestRemoveFromFavorites_ForeignEntry(t *testing.T) {
	repo := newFakeFavoriteRepo()
	favorites := service.NewFavoriteService(discardLogger(), repo)
	ctx := context.Background()

	entry, err := favorites.AddToFavorites(ctx, 1, 2)
	assert.NoError(t, err)

	// Чужая строка неотличима от несуществующей
	err = favorites.RemoveFromFavorites(ctx, 99, entry.ID)
	assert.True(t, errors.Is(err, storage.ErrFavoriteNotFound))

	assert.NoError(t, favorites.RemoveFromFavorites(ctx, 1, entry.ID))
}
