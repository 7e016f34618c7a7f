package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/logger"
	"github.com/gofiber/fiber/v3/middleware/recover"

	"github.com/rajivgeraev/aqar/internal/config"
	"github.com/rajivgeraev/aqar/internal/db"
	"github.com/rajivgeraev/aqar/internal/logging"
	"github.com/rajivgeraev/aqar/internal/realtime"
	"github.com/rajivgeraev/aqar/internal/services/auth"
	"github.com/rajivgeraev/aqar/internal/services/favorite"
	"github.com/rajivgeraev/aqar/internal/utils"
)

func main() {
	// Загружаем конфигурацию
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Ошибка конфигурации: %v", err)
	}

	logs, err := logging.NewManager(os.Stderr, cfg.LogLevel)
	if err != nil {
		log.Fatalf("❌ Ошибка настройки логирования: %v", err)
	}
	logs.SetDefault()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Инициализируем базу данных
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, logs.Logger("db"))
	if err != nil {
		log.Fatalf("❌ Ошибка при инициализации базы данных: %v", err)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Fatalf("❌ Ошибка миграции: %v", err)
	}

	// Шина изменений избранного: NOTIFY из базы -> hub -> websocket
	hub := realtime.NewHub(logs.Logger("hub"))
	listener := realtime.NewPGListener(cfg.DatabaseURL, cfg.Realtime.NotifyChannel, hub, logs.Logger("pg-listener"))
	listener.Start(ctx)

	// Создаём экземпляр Fiber
	app := fiber.New(fiber.Config{
		AppName:      "Aqar API",
		ErrorHandler: errorHandler,
	})

	// Добавляем middleware
	app.Use(recover.New())
	if cfg.IsDevelopment() {
		app.Use(logger.New())
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowOrigins,
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowCredentials: false,
	}))

	// Создаём сервисы
	jwtService := utils.NewJWTService(cfg.JWTSecret)
	authService := auth.NewAuthService(cfg.TelegramBotToken, db.NewUserRepository(pool), jwtService, logs.Logger("auth"))
	favoriteService := favorite.NewFavoriteService(
		db.NewFavoriteRepository(pool, cfg.Realtime.NotifyChannel),
		jwtService,
		logs.Logger("favorites"),
	)

	// Регистрируем маршруты
	authService.SetupRoutes(app)
	favoriteService.SetupRoutes(app)

	gateway := realtime.NewGateway(hub, jwtService, cfg.Server.AllowOrigins, logs.Logger("gateway"))
	realtimeServer := &http.Server{
		Addr:              ":" + cfg.Realtime.Port,
		Handler:           gateway.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("✅ Realtime шлюз запущен на порту %s", cfg.Realtime.Port)
		if err := realtimeServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("❌ Ошибка realtime шлюза: %v", err)
			stop()
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		_ = realtimeServer.Shutdown(shutdownCtx)
		if err := app.ShutdownWithContext(shutdownCtx); err != nil {
			log.Printf("⚠️ Ошибка остановки API: %v", err)
		}
	}()

	// Запускаем сервер
	log.Printf("✅ Aqar API запущен на порту %s", cfg.Server.Port)
	if err := app.Listen(":"+cfg.Server.Port, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
		log.Printf("❌ Ошибка API: %v", err)
	}

	listener.Stop()
	hub.Close()
	log.Println("👋 Aqar API остановлен")
}

// errorHandler обрабатывает ошибки Fiber
func errorHandler(c fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError

	// Проверяем, является ли ошибка из Fiber
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}

	// Отправляем ошибку в JSON
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
