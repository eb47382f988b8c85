package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"

	"github.com/moviehub/theater-api/internal/auth"
	"github.com/moviehub/theater-api/internal/cleanup"
	"github.com/moviehub/theater-api/internal/config"
	"github.com/moviehub/theater-api/internal/database"
	"github.com/moviehub/theater-api/internal/email"
	httpServer "github.com/moviehub/theater-api/internal/http"
	"github.com/moviehub/theater-api/internal/logging"
	"github.com/moviehub/theater-api/internal/migrations"
	"github.com/moviehub/theater-api/internal/password"
	"github.com/moviehub/theater-api/internal/profile"
	"github.com/moviehub/theater-api/internal/ratelimit"
	"github.com/moviehub/theater-api/internal/storage"
	"github.com/moviehub/theater-api/internal/token"
	"github.com/moviehub/theater-api/internal/user"
)

// @title           MovieHub Theater API
// @version         1.0
// @description     Account, session, and profile backend for the MovieHub ticketing platform.

// @host      localhost:8080
// @BasePath  /

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the access token.

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(cfg.Server.IsDevelopment())
	logger.Info("starting application",
		"env", cfg.Server.Env,
		"port", cfg.Server.Port,
	)

	db, err := initDB(cfg.Database)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	if err := runMigrations(db.DB); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	redisClient, err := initRedis(cfg.Redis)
	if err != nil {
		return fmt.Errorf("failed to initialize Redis: %w", err)
	}
	defer redisClient.Close()

	userRepo := user.NewRepository(db)
	tokenRepo := auth.NewRepository(db)
	profileRepo := profile.NewRepository(db)

	rateLimiter := ratelimit.NewLimiter(redisClient)

	tokenManager, err := initTokenManager(cfg.Auth)
	if err != nil {
		return fmt.Errorf("failed to initialize token manager: %w", err)
	}

	hasher, err := password.NewHasher(cfg.Auth.BcryptCost)
	if err != nil {
		return fmt.Errorf("failed to initialize password hasher: %w", err)
	}

	emailService := email.NewService(
		cfg.Email.SMTPHost,
		cfg.Email.SMTPPort,
		cfg.Email.SMTPUser,
		cfg.Email.SMTPPassword,
		cfg.Email.FrontendURL,
		logger,
	)

	storageClient, err := storage.NewClient(
		context.Background(),
		cfg.Storage.Endpoint,
		cfg.Storage.Region,
		cfg.Storage.AccessKey,
		cfg.Storage.SecretKey,
		cfg.Storage.Bucket,
	)
	if err != nil {
		return fmt.Errorf("failed to initialize storage client: %w", err)
	}

	accountService := auth.NewService(
		userRepo,
		tokenRepo,
		tokenManager,
		hasher,
		emailService,
		logger,
		cfg.Auth.RefreshTokenDuration,
		cfg.Auth.ActivationTokenDuration,
		cfg.Auth.ResetTokenDuration,
	)

	accountHandler := auth.NewHandler(accountService, rateLimiter, logger)
	profileHandler := profile.NewHandler(profileRepo, storageClient, logger)
	authMiddleware := auth.NewMiddleware(tokenManager, userRepo)

	// Hourly sweep of expired tokens
	scheduler := cleanup.NewScheduler(tokenRepo, logger)
	if err := scheduler.Start(); err != nil {
		return fmt.Errorf("failed to start cleanup scheduler: %w", err)
	}
	defer scheduler.Stop()

	router := httpServer.NewRouter(cfg, accountHandler, profileHandler, authMiddleware, logger)

	serverAddr := ":" + cfg.Server.Port
	server := httpServer.NewServer(
		serverAddr,
		router,
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		logger,
	)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- server.Start()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)
	case sig := <-shutdown:
		logger.Info("shutdown signal received", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// initDB initializes the database connection and returns a Bun DB instance
func initDB(cfg config.DatabaseConfig) (*bun.DB, error) {
	sqlDB, err := sql.Open("postgres", cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	sqlDB.SetMaxOpenConns(25)
	sqlDB.SetMaxIdleConns(5)

	return database.NewBunDB(sqlDB), nil
}

// runMigrations applies the embedded goose migrations.
func runMigrations(sqlDB *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)

	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.Up(sqlDB, "."); err != nil {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// initRedis initializes the Redis connection and returns a Redis client
func initRedis(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to ping Redis: %w", err)
	}

	return client, nil
}

// initTokenManager picks the signing backend from configuration.
func initTokenManager(cfg config.AuthConfig) (token.Manager, error) {
	switch cfg.TokenBackend {
	case "paseto":
		return token.NewPasetoManager(
			cfg.SecretKeyAccess,
			cfg.SecretKeyRefresh,
			cfg.AccessTokenDuration,
			cfg.RefreshTokenDuration,
		)
	default:
		return token.NewJWTManager(
			cfg.SecretKeyAccess,
			cfg.SecretKeyRefresh,
			cfg.SigningAlgorithm,
			cfg.AccessTokenDuration,
			cfg.RefreshTokenDuration,
		)
	}
}
