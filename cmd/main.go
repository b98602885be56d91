package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"property-service/internal/config"
	"property-service/internal/events"
	"property-service/internal/handlers"
	"property-service/internal/health"
	"property-service/internal/middleware"
	"property-service/internal/payment"
	"property-service/internal/repository"
	"property-service/internal/services"
)

const version = "1.0.0"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}

	logger := newLogger(cfg.Log)
	gin.SetMode(cfg.Server.Mode)

	db, err := repository.NewDatabase(cfg.Database)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	if cfg.Database.AutoMigrate {
		if err := repository.AutoMigrate(db); err != nil {
			logger.WithError(err).Fatal("Failed to run migrations")
		}
		logger.Info("Database migrations completed")
	}

	gateway, err := payment.NewRazorpayGateway(cfg.Razorpay, logger)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize payment gateway")
	}

	redisClient := initRedis(cfg.Redis, logger)
	publisher := initPublisher(cfg.NATS, logger)

	users := repository.NewUserRepository(db)
	franchises := repository.NewFranchiseRepository(db)
	properties := repository.NewPropertyRepository(db)
	leads := repository.NewLeadRepository(db)

	passwords := services.NewPasswordService(cfg.JWT.BcryptCost)
	tokens := services.NewJWTService(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.ExpiryHours)

	healthChecker := health.NewHealthChecker(db, redisClient, version)
	if err := healthChecker.CheckDatabase(context.Background()); err != nil {
		logger.WithError(err).Fatal("Database is not reachable")
	}

	router := handlers.SetupRouter(handlers.RouterDeps{
		Auth:          services.NewAuthService(users, franchises, passwords, tokens, publisher, logger),
		Franchises:    services.NewFranchiseService(franchises, users, publisher, logger),
		Properties:    services.NewPropertyService(properties, publisher, logger),
		Leads:         services.NewLeadService(leads, properties, gateway, cfg.Razorpay.Currency, publisher, logger),
		Dashboards:    services.NewDashboardService(users, properties, leads),
		Lockout:       middleware.NewLoginLockout(redisClient, middleware.LockoutConfigFrom(cfg.Security), logger),
		AuthRateLimit: middleware.NewIPRateLimiter(cfg.Security.AuthRatePerSecond, cfg.Security.AuthRateBurst),
		Health:        healthChecker,
		CORSOrigins:   cfg.CORS.AllowedOrigins(),
		Logger:        logger,
	})

	serverAddr := fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeoutSeconds) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeoutSeconds) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeoutSeconds) * time.Second,
	}

	go func() {
		logger.WithFields(logrus.Fields{
			"addr":     serverAddr,
			"mode":     cfg.Server.Mode,
			"database": fmt.Sprintf("%s@%s:%s", cfg.Database.User, cfg.Database.Host, cfg.Database.Port),
		}).Info("Property service starting")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Failed to start server")
		}
	}()

	healthChecker.SetReady(true)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down...")
	healthChecker.SetReady(false)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	if closer, ok := publisher.(*events.NATSPublisher); ok {
		closer.Close()
	}
	if redisClient != nil {
		redisClient.Close()
	}
	if sqlDB, err := db.DB(); err == nil {
		sqlDB.Close()
	}
	logger.Info("Server exited")
}

func newLogger(cfg config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)
	return logger
}

// initRedis returns nil when Redis is disabled or unreachable; lockout then stays in memory.
func initRedis(cfg config.RedisConfig, logger *logrus.Logger) *redis.Client {
	if !cfg.Enabled {
		return nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.WithError(err).Warn("Redis connection failed, login lockout will use process memory")
		rdb.Close()
		return nil
	}

	logger.Info("Redis connection established")
	return rdb
}

func initPublisher(cfg config.NATSConfig, logger *logrus.Logger) events.Publisher {
	if !cfg.Enabled {
		return events.NoopPublisher{}
	}

	publisher, err := events.NewNATSPublisher(cfg, logger)
	if err != nil {
		logger.WithError(err).Warn("Failed to initialize events publisher, events won't be published")
		return events.NoopPublisher{}
	}
	return publisher
}
