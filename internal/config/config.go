package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"pujabook/internal/database"
	"pujabook/internal/external"
	"pujabook/internal/messaging"
	"pujabook/internal/search"
	"pujabook/internal/service"
	"pujabook/internal/throttle"

	"github.com/joho/godotenv"
)

// Config содержит конфигурацию приложения
type Config struct {
	AppName        string
	AppVersion     string
	Port           string
	GinMode        string
	LogLevel       string
	LogFormat      string
	Debug          bool
	RequestTimeout time.Duration

	Database database.Config
	NATS     messaging.Config
	Search   search.Config
	Throttle throttle.Config
	Auth     service.AuthConfig
	Razorpay external.RazorpayConfig
	SMTP     external.SMTPConfig
	Twilio   external.TwilioConfig
}

// Load загружает конфигурацию из .env (если есть) и переменных окружения
func Load() *Config {
	if err := godotenv.Load(); err != nil {
		slog.Debug("No .env file loaded", "error", err)
	}

	return &Config{
		AppName:        getEnv("APP_NAME", "Global Pooja Booking API"),
		AppVersion:     getEnv("APP_VERSION", "1.0.0"),
		Port:           getEnv("PORT", "8000"),
		GinMode:        getEnv("GIN_MODE", "release"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogFormat:      getEnv("LOG_FORMAT", "json"),
		Debug:          getEnvBool("DEBUG", false),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),

		Database: database.Config{
			URL:                os.Getenv("DATABASE_URL"),
			Host:               getEnv("DB_HOST", "localhost"),
			Port:               getEnvInt("DB_PORT", 5432),
			User:               getEnv("DB_USER", "pujabook"),
			Password:           getEnv("DB_PASSWORD", "pujabook"),
			DBName:             getEnv("DB_NAME", "pujabook"),
			SSLMode:            getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:       getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:       getEnvInt("DB_MAX_IDLE_CONNS", 10),
			ConnMaxLifetimeMin: getEnvInt("DB_CONN_MAX_LIFETIME_MIN", 5),
			ConnMaxIdleTimeMin: getEnvInt("DB_CONN_MAX_IDLE_TIME_MIN", 1),
		},

		// NATS необязателен: пустой NATS_URL отключает публикацию событий
		NATS: messaging.Config{
			URL:       os.Getenv("NATS_URL"),
			ClusterID: getEnv("NATS_CLUSTER_ID", "pujabook"),
			ClientID:  getEnv("NATS_CLIENT_ID", "pujabook-api"),
		},

		Search: loadSearchConfig(),

		Throttle: throttle.Config{
			Addr:     os.Getenv("VALKEY_ADDR"),
			Password: os.Getenv("VALKEY_PASSWORD"),
			DB:       getEnvInt("VALKEY_DB", 0),
			Limit:    getEnvInt("OTP_REQUESTS_PER_WINDOW", 5),
			Window:   getEnvDuration("OTP_REQUEST_WINDOW", 15*time.Minute),
		},

		Auth: service.AuthConfig{
			SecretKey:      getEnv("SECRET_KEY", ""),
			Algorithm:      getEnv("ALGORITHM", "HS256"),
			AccessTokenTTL: time.Duration(getEnvInt("ACCESS_TOKEN_EXPIRE_MINUTES", 30)) * time.Minute,
			OTPTTL:         time.Duration(getEnvInt("OTP_EXPIRE_MINUTES", 10)) * time.Minute,
			ExposeOTP:      getEnvBool("OTP_EXPOSE_CODE", false),
		},

		Razorpay: external.RazorpayConfig{
			KeyID:     os.Getenv("RAZORPAY_KEY_ID"),
			KeySecret: os.Getenv("RAZORPAY_KEY_SECRET"),
			BaseURL:   getEnv("RAZORPAY_BASE_URL", "https://api.razorpay.com"),
			Timeout:   time.Duration(getEnvInt("RAZORPAY_TIMEOUT_SEC", 30)) * time.Second,
		},

		SMTP: external.SMTPConfig{
			Server:   os.Getenv("SMTP_SERVER"),
			Port:     getEnvInt("SMTP_PORT", 587),
			Username: os.Getenv("SMTP_USERNAME"),
			Password: os.Getenv("SMTP_PASSWORD"),
			From:     os.Getenv("EMAIL_FROM"),
			Timeout:  time.Duration(getEnvInt("SMTP_TIMEOUT_SEC", 15)) * time.Second,
		},

		Twilio: external.TwilioConfig{
			AccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			AuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			FromNumber: os.Getenv("TWILIO_FROM_NUMBER"),
		},
	}
}

// Validate проверяет обязательные параметры перед запуском сервера
func (c *Config) Validate() error {
	if c.Auth.SecretKey == "" {
		return fmt.Errorf("SECRET_KEY is required")
	}
	if c.Auth.Algorithm != "HS256" {
		return fmt.Errorf("unsupported token algorithm %q, only HS256 is supported", c.Auth.Algorithm)
	}
	if c.Auth.AccessTokenTTL <= 0 {
		return fmt.Errorf("ACCESS_TOKEN_EXPIRE_MINUTES must be positive")
	}
	if c.Auth.OTPTTL <= 0 {
		return fmt.Errorf("OTP_EXPIRE_MINUTES must be positive")
	}
	return nil
}

// getEnv получает значение переменной окружения или возвращает значение по умолчанию
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt получает целочисленное значение переменной окружения
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "1", "true", "yes", "on":
			return true
		case "0", "false", "no", "off":
			return false
		}
	}
	return defaultValue
}

// getEnvDuration принимает формат time.ParseDuration, например "15m"
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
