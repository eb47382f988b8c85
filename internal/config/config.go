package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Redis    RedisConfig
	Auth     AuthConfig
	Email    EmailConfig
	Storage  StorageConfig
}

type ServerConfig struct {
	Port            string
	Env             string // dev or prod
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	TrustedOrigins  []string // CORS allowed origins
}

type DatabaseConfig struct {
	Host           string
	Port           string
	User           string
	Password       string
	DBName         string
	SSLMode        string
	ChannelBinding string // "require" for Neon DB, empty for local
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type AuthConfig struct {
	// Token backend: "jwt" (HS256/HS384/HS512) or "paseto" (v4.local).
	TokenBackend string
	// Signing algorithm for the JWT backend.
	SigningAlgorithm string
	// Distinct secrets per token class so a compromised refresh key
	// cannot forge access tokens and vice versa. Must be 32 bytes each
	// for the PASETO backend.
	SecretKeyAccess  []byte
	SecretKeyRefresh []byte

	AccessTokenDuration  time.Duration
	RefreshTokenDuration time.Duration

	ActivationTokenDuration time.Duration
	ResetTokenDuration      time.Duration

	BcryptCost int
}

type EmailConfig struct {
	SMTPHost     string
	SMTPPort     string
	SMTPUser     string
	SMTPPassword string
	FrontendURL  string // base URL for activation/reset links
}

type StorageConfig struct {
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
}

// Load reads configuration from environment variables.
// A .env file is honored when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("SERVER_PORT", "8080"),
			Env:             getEnv("APP_ENV", "dev"),
			ReadTimeout:     getDurationEnv("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getDurationEnv("SERVER_WRITE_TIMEOUT", 10*time.Second),
			ShutdownTimeout: getDurationEnv("SERVER_SHUTDOWN_TIMEOUT", 15*time.Second),
			TrustedOrigins:  getSliceEnv("TRUSTED_ORIGINS", []string{"http://localhost:3000"}),
		},
		Database: DatabaseConfig{
			Host:           getEnv("DB_HOST", "localhost"),
			Port:           getEnv("DB_PORT", "5432"),
			User:           getEnv("DB_USER", "postgres"),
			Password:       getEnv("DB_PASSWORD", "postgres"),
			DBName:         getEnv("DB_NAME", "theater"),
			SSLMode:        getEnv("DB_SSLMODE", "disable"),
			ChannelBinding: getEnv("DB_CHANNEL_BINDING", ""),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getIntEnv("REDIS_DB", 0),
		},
		Auth: AuthConfig{
			TokenBackend:            getEnv("TOKEN_BACKEND", "jwt"),
			SigningAlgorithm:        getEnv("JWT_SIGNING_ALGORITHM", "HS256"),
			SecretKeyAccess:         []byte(getEnv("SECRET_KEY_ACCESS", "")),
			SecretKeyRefresh:        []byte(getEnv("SECRET_KEY_REFRESH", "")),
			AccessTokenDuration:     getDurationEnv("ACCESS_TOKEN_DURATION", 15*time.Minute),
			RefreshTokenDuration:    time.Duration(getIntEnv("LOGIN_TIME_DAYS", 7)) * 24 * time.Hour,
			ActivationTokenDuration: getDurationEnv("ACTIVATION_TOKEN_DURATION", 24*time.Hour),
			ResetTokenDuration:      getDurationEnv("RESET_TOKEN_DURATION", time.Hour),
			BcryptCost:              getIntEnv("BCRYPT_COST", 12),
		},
		Email: EmailConfig{
			SMTPHost:     getEnv("SMTP_HOST", ""),
			SMTPPort:     getEnv("SMTP_PORT", "587"),
			SMTPUser:     getEnv("SMTP_USER", ""),
			SMTPPassword: getEnv("SMTP_PASS", ""),
			FrontendURL:  getEnv("FRONTEND_URL", "http://localhost:3000"),
		},
		Storage: StorageConfig{
			Endpoint:  getEnv("S3_STORAGE_ENDPOINT", "http://localhost:9000"),
			Region:    getEnv("S3_REGION", "us-east-1"),
			AccessKey: getEnv("S3_STORAGE_ACCESS_KEY", "minioadmin"),
			SecretKey: getEnv("S3_STORAGE_SECRET_KEY", ""),
			Bucket:    getEnv("S3_BUCKET_NAME", "theater-storage"),
		},
	}

	if len(cfg.Auth.SecretKeyAccess) == 0 || len(cfg.Auth.SecretKeyRefresh) == 0 {
		return nil, fmt.Errorf("SECRET_KEY_ACCESS and SECRET_KEY_REFRESH must be set")
	}
	if string(cfg.Auth.SecretKeyAccess) == string(cfg.Auth.SecretKeyRefresh) {
		return nil, fmt.Errorf("SECRET_KEY_ACCESS and SECRET_KEY_REFRESH must differ")
	}
	switch cfg.Auth.TokenBackend {
	case "jwt":
		switch cfg.Auth.SigningAlgorithm {
		case "HS256", "HS384", "HS512":
		default:
			return nil, fmt.Errorf("unsupported JWT_SIGNING_ALGORITHM %q", cfg.Auth.SigningAlgorithm)
		}
	case "paseto":
		if len(cfg.Auth.SecretKeyAccess) != 32 || len(cfg.Auth.SecretKeyRefresh) != 32 {
			return nil, fmt.Errorf("paseto backend requires 32-byte secret keys")
		}
	default:
		return nil, fmt.Errorf("unsupported TOKEN_BACKEND %q", cfg.Auth.TokenBackend)
	}

	return cfg, nil
}

func (c *DatabaseConfig) ConnectionString() string {
	connStr := fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode,
	)

	if c.ChannelBinding != "" {
		connStr += fmt.Sprintf(" channel_binding=%s", c.ChannelBinding)
	}

	return connStr
}

// Address returns Redis connection address (host:port)
func (c *RedisConfig) Address() string {
	return fmt.Sprintf("%s:%s", c.Host, c.Port)
}

// IsDevelopment returns true if the environment is set to dev
func (c *ServerConfig) IsDevelopment() bool {
	return c.Env == "dev"
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	intValue, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return intValue
}

func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	seconds, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}

	return time.Duration(seconds) * time.Second
}

func getSliceEnv(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}

	if len(result) == 0 {
		return defaultValue
	}

	return result
}
