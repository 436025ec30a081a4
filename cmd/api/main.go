package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/havencare/haven-go-api/internal/config"
	"github.com/havencare/haven-go-api/internal/database"
	"github.com/havencare/haven-go-api/internal/handler"
	"github.com/havencare/haven-go-api/internal/middleware"
	"github.com/havencare/haven-go-api/internal/models"
	"github.com/havencare/haven-go-api/internal/realtime"
	"github.com/havencare/haven-go-api/internal/repository"
	"github.com/havencare/haven-go-api/internal/router"
	"github.com/havencare/haven-go-api/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(
		&models.User{},
		&models.FamilyRelation{},
		&models.EmergencyAlert{},
		&models.AlertResponder{},
		&models.LocationSample{},
		&models.ChatThread{},
		&models.ChatMessage{},
	); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	natsConn, err := database.ConnectNATS(cfg.NATSURL)
	if err != nil {
		log.Fatalf("failed to connect to nats: %v", err)
	}
	if natsConn != nil {
		defer natsConn.Close()
	}

	validate := validator.New(validator.WithRequiredStructEnabled())

	userRepo := repository.NewUserRepository(db)
	relationRepo := repository.NewRelationRepository(db)
	alertRepo := repository.NewAlertRepository(db)
	locationRepo := repository.NewLocationRepository(db)
	chatRepo := repository.NewChatRepository(db)

	registry := realtime.NewRegistry(logger)
	bridge := realtime.NewBridge(registry, redisClient, natsConn, cfg.ChannelBase, logger)
	registry.AttachBridge(bridge)

	runCtx, cancelRun := context.WithCancel(context.Background())
	defer cancelRun()
	bridge.Start(runCtx)

	directoryService := service.NewDirectoryService(userRepo, relationRepo, redisClient, cfg.ChannelBase, cfg.DirectoryCacheTTL, logger)
	presenceService := service.NewPresenceService(registry, logger)
	locationService := service.NewLocationService(locationRepo, directoryService, registry, validate, logger)
	emergencyService := service.NewEmergencyService(alertRepo, directoryService, registry, validate, logger)
	chatService := service.NewChatService(chatRepo, registry, validate, logger)

	realtimeHandler := handler.NewRealtimeHandler(registry, presenceService, locationService, emergencyService, chatService, logger)
	emergencyHandler := handler.NewEmergencyHandler(emergencyService, logger)
	locationHandler := handler.NewLocationHandler(locationService, logger)
	chatHandler := handler.NewChatHandler(chatService, logger)

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{Logger: &logger})
	router.Register(app, cfg, router.Dependencies{
		RealtimeHandler:  realtimeHandler,
		EmergencyHandler: emergencyHandler,
		LocationHandler:  locationHandler,
		ChatHandler:      chatHandler,
		JWTMiddleware:    middleware.JWTProtected(cfg.JWTSecret),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, cancelRun)
}

func waitForShutdown(app *fiber.App, cancelRun context.CancelFunc) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()
	cancelRun()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}

	log.Println("server stopped")
}
