package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mathsia/memocard-service/internal/cache"
	"github.com/mathsia/memocard-service/internal/config"
	"github.com/mathsia/memocard-service/internal/events"
	"github.com/mathsia/memocard-service/internal/handlers"
	"github.com/mathsia/memocard-service/internal/models"
	"github.com/mathsia/memocard-service/internal/repositories"
	"github.com/mathsia/memocard-service/internal/repositories/postgres"
	"github.com/mathsia/memocard-service/internal/services"
	"github.com/mathsia/memocard-service/internal/utils"
	"github.com/mathsia/memocard-service/pkg"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		os.Exit(1)
	}

	var logger utils.Logger
	if cfg.Environment == "production" {
		logger = utils.NewDefaultLogger()
	} else {
		logger = utils.NewDevelopmentLogger()
	}
	slogger := utils.ToSlogLogger(logger)

	db, err := pkg.InitDatabase(cfg)
	if err != nil {
		logger.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	if err := pkg.Migrate(db); err != nil {
		logger.Error("Failed to run migrations", "error", err)
		os.Exit(1)
	}

	repo := postgres.NewRepository(db)

	if err := bootstrapAdmin(context.Background(), repo, cfg, logger); err != nil {
		logger.Error("Failed to bootstrap admin account", "error", err)
		os.Exit(1)
	}

	// Redis and Kafka are optional: without them the service still grades
	// and records answers, just without caching or event delivery.
	var cacheService cache.CacheService = cache.NoopCache{}
	if client, err := pkg.NewRedisClient(cfg); err != nil {
		logger.Warn("Redis unavailable, caching disabled", "error", err)
	} else {
		defer client.Close()
		cacheService = cache.NewRedisCache(client, logger)
	}

	var publisher events.EventPublisher = events.NoopEventPublisher{}
	if p, err := events.NewKafkaEventPublisher(events.PublisherConfig{
		KafkaBrokers: cfg.KafkaBrokers,
		TopicName:    cfg.KafkaTopic,
		Logger:       slogger,
	}); err != nil {
		logger.Warn("Kafka unavailable, event publishing disabled", "error", err)
	} else {
		publisher = p
	}
	defer publisher.Close()

	validator := utils.NewValidator()

	memocardService := services.NewMemocardService(repo, slogger, validator, publisher, cacheService)
	studentService := services.NewStudentService(repo, slogger, validator, cacheService)
	authService := services.NewAuthService(repo, slogger, validator,
		cfg.JWTSecret,
		time.Duration(cfg.AccessTokenMinutes)*time.Minute,
		time.Duration(cfg.RefreshTokenDays)*24*time.Hour)
	importExportService := services.NewImportExportService(repo, slogger, validator)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.LoggerMiddleware(logger))

	handlerManager := handlers.NewHandlerManager(
		authService, memocardService, studentService, importExportService, logger)
	handlerManager.SetupRoutes(router)

	server := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		logger.Info("Starting memocard service", "port", cfg.Port, "environment", cfg.Environment)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Forced shutdown", "error", err)
	}
}

// bootstrapAdmin seeds the first admin account on an empty database so the
// catalog endpoints are reachable. Skipped when any admin already exists or
// when no bootstrap password is configured.
func bootstrapAdmin(ctx context.Context, repo repositories.Repository, cfg *config.Config, logger utils.Logger) error {
	count, err := repo.User().CountAdmins(ctx)
	if err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	if cfg.BootstrapAdminSecret == "" {
		logger.Warn("No admin accounts exist and BOOTSTRAP_ADMIN_PASSWORD is unset")
		return nil
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(cfg.BootstrapAdminSecret), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	admin := &models.User{
		ID:           uuid.NewString(),
		Username:     "admin",
		Email:        cfg.BootstrapAdminEmail,
		FullName:     "Administrator",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		IsActive:     true,
	}
	if err := repo.User().Create(ctx, admin); err != nil {
		return err
	}

	logger.Info("Bootstrap admin account created", "email", admin.Email)
	return nil
}
