package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/codenati22/loffy-back/internal/domain/models"
	"github.com/codenati22/loffy-back/internal/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPrice  = errors.New("price must be positive")
	ErrInvalidRating = errors.New("rating must be between 0 and 5")
)

// CoffeeInput — поля новой позиции каталога
type CoffeeInput struct {
	Name        string
	Price       decimal.Decimal
	Rating      decimal.Decimal
	Category    string
	Description *string
}

// CoffeeUpdate — частичное обновление, nil-поля не меняются
type CoffeeUpdate struct {
	Name        *string
	Price       *decimal.Decimal
	Rating      *decimal.Decimal
	Category    *string
	Description *string
}

// CoffeeService определяет операции каталога
type CoffeeService interface {
	List(ctx context.Context, page, pageSize int) ([]*models.Coffee, int, error)
	Create(ctx context.Context, input CoffeeInput, image ImageUpload) (*models.Coffee, error)
	Update(ctx context.Context, id int64, update CoffeeUpdate, image *ImageUpload) (*models.Coffee, error)
	Delete(ctx context.Context, id int64) error
}

type coffeeService struct {
	log          *slog.Logger
	coffeeRepo   storage.CoffeeStorage
	files        FileStorage
	coffeeBucket string
}

func NewCoffeeService(log *slog.Logger, coffeeRepo storage.CoffeeStorage, files FileStorage, coffeeBucket string) CoffeeService {
	return &coffeeService{
		log:          log,
		coffeeRepo:   coffeeRepo,
		files:        files,
		coffeeBucket: coffeeBucket,
	}
}

// List возвращает страницу каталога, нумерация страниц с единицы
func (s *coffeeService) List(ctx context.Context, page, pageSize int) ([]*models.Coffee, int, error) {
	const op = "service.CoffeeService.List"

	offset := (page - 1) * pageSize
	coffees, total, err := s.coffeeRepo.ListCoffees(ctx, pageSize, offset)
	if err != nil {
		s.log.Error("failed to list coffees", slog.String("op", op), slog.Any("error", err))
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return coffees, total, nil
}

// Create загружает картинку и вставляет позицию каталога. Загрузка и вставка
// не связаны транзакцией: при ошибке вставки объект в хранилище остается.
func (s *coffeeService) Create(ctx context.Context, input CoffeeInput, image ImageUpload) (*models.Coffee, error) {
	const op = "service.CoffeeService.Create"
	logger := s.log.With(slog.String("op", op), slog.String("name", input.Name))

	if err := validatePriceRating(input.Price, input.Rating); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	// Имя объекта со случайным uuid: загрузки в одну миллисекунду не перезапишутся
	path := fmt.Sprintf("coffees/%s.%s", uuid.NewString(), normalizeExt(image.Ext))
	imageURL, err := s.uploadImage(ctx, path, image)
	if err != nil {
		logger.Error("failed to upload image", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to upload image: %w", op, err)
	}

	coffee := &models.Coffee{
		Name:        input.Name,
		Price:       input.Price,
		Rating:      input.Rating,
		Category:    input.Category,
		Description: input.Description,
		ImageURL:    imageURL,
	}
	created, err := s.coffeeRepo.CreateCoffee(ctx, coffee)
	if err != nil {
		logger.Error("failed to create coffee", slog.Any("error", err))
		return nil, fmt.Errorf("%s: failed to create coffee: %w", op, err)
	}

	logger.Info("coffee created", slog.Int64("coffeeID", created.ID))
	return created, nil
}

// Update меняет только переданные поля. Новая картинка заменяет ссылку,
// старый объект в хранилище не удаляется.
func (s *coffeeService) Update(ctx context.Context, id int64, update CoffeeUpdate, image *ImageUpload) (*models.Coffee, error) {
	const op = "service.CoffeeService.Update"
	logger := s.log.With(slog.String("op", op), slog.Int64("coffeeID", id))

	if update.Price != nil && !update.Price.IsPositive() {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidPrice)
	}
	if update.Rating != nil && (update.Rating.IsNegative() || update.Rating.GreaterThan(decimal.NewFromInt(5))) {
		return nil, fmt.Errorf("%s: %w", op, ErrInvalidRating)
	}

	var imageURL *string
	if image != nil {
		path := fmt.Sprintf("coffees/%s.%s", uuid.NewString(), normalizeExt(image.Ext))
		url, err := s.uploadImage(ctx, path, *image)
		if err != nil {
			logger.Error("failed to upload image", slog.Any("error", err))
			return nil, fmt.Errorf("%s: failed to upload image: %w", op, err)
		}
		imageURL = &url
	}

	coffee, err := s.coffeeRepo.UpdateCoffee(ctx, id,
		update.Name, update.Price, update.Rating, update.Category, update.Description, imageURL)
	if err != nil {
		logger.Warn("failed to update coffee", slog.Any("error", err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("coffee updated")
	return coffee, nil
}

func (s *coffeeService) Delete(ctx context.Context, id int64) error {
	const op = "service.CoffeeService.Delete"
	logger := s.log.With(slog.String("op", op), slog.Int64("coffeeID", id))

	if err := s.coffeeRepo.DeleteCoffee(ctx, id); err != nil {
		logger.Warn("failed to delete coffee", slog.Any("error", err))
		return fmt.Errorf("%s: %w", op, err)
	}

	logger.Info("coffee deleted")
	return nil
}

func (s *coffeeService) uploadImage(ctx context.Context, path string, image ImageUpload) (string, error) {
	if err := s.files.Upload(ctx, s.coffeeBucket, path, image.Data, image.ContentType); err != nil {
		return "", err
	}
	return s.files.PublicURL(s.coffeeBucket, path), nil
}

func validatePriceRating(price, rating decimal.Decimal) error {
	if !price.IsPositive() {
		return ErrInvalidPrice
	}
	if rating.IsNegative() || rating.GreaterThan(decimal.NewFromInt(5)) {
		return ErrInvalidRating
	}
	return nil
}
