package main

import (
	"context"

	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/codenati22/loffy-back/internal/app"
	"github.com/codenati22/loffy-back/internal/app/handlers"
	"github.com/codenati22/loffy-back/internal/config"
	"github.com/codenati22/loffy-back/internal/jwt-new/jwtmiddleware"
	"github.com/codenati22/loffy-back/internal/lib/logger"
	"github.com/codenati22/loffy-back/internal/lib/logger/handlers/urllog"
	"github.com/codenati22/loffy-back/internal/service"
	"github.com/codenati22/loffy-back/internal/storage"
	"github.com/codenati22/loffy-back/internal/storage/blobstore"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// загружаем объект приложения, конфигом и подключением к БД
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.DB.Close()

	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(application.DB)
	coffeeRepo := storage.NewCoffeeRepository(application.DB)
	cartRepo := storage.NewCartRepository(application.DB)
	favoriteRepo := storage.NewFavoriteRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)
	resetRepo := storage.NewResetTokenRepository(application.DB)

	// клиент supabase storage для картинок каталога и аватарок
	files := blobstore.New(cfg.Storage.URL, cfg.Storage.ServiceKey)

	authService := service.NewAuthService(application.Logger, userRepo, time.Duration(cfg.JWT.TokenTTL)*time.Minute)
	userService := service.NewUserService(application.Logger, userRepo, resetRepo, files, cfg.Storage.ProfileBucket, time.Duration(cfg.ResetToken.TTL)*time.Minute)
	coffeeService := service.NewCoffeeService(application.Logger, coffeeRepo, files, cfg.Storage.CoffeeBucket)
	cartService := service.NewCartService(application.Logger, cartRepo)
	favoriteService := service.NewFavoriteService(application.Logger, favoriteRepo)
	orderService := service.NewOrderService(application.Logger, application.DB, cartRepo, orderRepo)

	// публичные эндпоинты
	router.Post("/api/auth/register", handlers.RegisterHandler(application.Logger, authService))
	router.Post("/api/auth/login", handlers.LoginHandler(application.Logger, authService))
	router.Get("/api/coffees", handlers.ListCoffeesHandler(application.Logger, coffeeService))
	router.Post("/api/users/forgot-password", handlers.ForgotPasswordHandler(application.Logger, userService))
	router.Post("/api/users/reset-password", handlers.ResetPasswordHandler(application.Logger, userService))

	router.Group(func(r chi.Router) {
		jwtMW := jwtmiddleware.NewJWTMiddleware()
		r.Use(jwtMW)

		// корзина
		r.Get("/api/cart", handlers.GetCartHandler(application.Logger, cartService))
		r.Post("/api/cart", handlers.AddToCartHandler(application.Logger, cartService))
		r.Delete("/api/cart/{id}", handlers.RemoveFromCartHandler(application.Logger, cartService))

		// избранное
		r.Get("/api/favorites", handlers.GetFavoritesHandler(application.Logger, favoriteService))
		r.Post("/api/favorites", handlers.AddToFavoritesHandler(application.Logger, favoriteService))
		r.Delete("/api/favorites/{id}", handlers.RemoveFromFavoritesHandler(application.Logger, favoriteService))

		// заказы
		r.Get("/api/orders", handlers.GetOrdersHandler(application.Logger, orderService))
		r.Post("/api/orders", handlers.CreateOrderHandler(application.Logger, orderService))

		// профиль
		r.Get("/api/users/me", handlers.GetProfileHandler(application.Logger, userService))
		r.Put("/api/users/me", handlers.UpdateProfileHandler(application.Logger, userService))
		r.Post("/api/users/me/profile-picture", handlers.UploadProfilePictureHandler(application.Logger, userService))
		r.Post("/api/users/change-password", handlers.ChangePasswordHandler(application.Logger, userService))

		// управление каталогом — только для админов
		r.Group(func(ar chi.Router) {
			ar.Use(jwtmiddleware.RequireAdmin)
			ar.Post("/api/coffees", handlers.CreateCoffeeHandler(application.Logger, coffeeService))
			ar.Patch("/api/coffees/{id}", handlers.UpdateCoffeeHandler(application.Logger, coffeeService))
			ar.Delete("/api/coffees/{id}", handlers.DeleteCoffeeHandler(application.Logger, coffeeService))
		})
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}
