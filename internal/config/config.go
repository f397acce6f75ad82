package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const envProduction = "production"

type Config struct {
	App struct {
		Name           string   `envconfig:"APP_NAME" default:"genix-payouts"`
		Env            string   `envconfig:"APP_ENV" default:"development"`
		Port           int      `envconfig:"PORT" default:"8080"`
		AllowedOrigins []string `envconfig:"CORS_ALLOWED_ORIGINS" default:"*"`
	}

	DB struct {
		URL      string `envconfig:"DATABASE_URL"`
		Host     string `envconfig:"DB_HOST" default:"localhost"`
		Port     int    `envconfig:"DB_PORT" default:"5432"`
		User     string `envconfig:"DB_USER" default:"postgres"`
		Password string `envconfig:"DB_PASSWORD" default:""`
		Name     string `envconfig:"DB_NAME" default:"genix"`
		SSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	}

	Server struct {
		Timeout         time.Duration `envconfig:"SERVER_TIMEOUT" default:"30s"`
		ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"15s"`
	}

	Auth struct {
		JWTSecret string `envconfig:"AUTH_JWT_SECRET"`
		Audience  string `envconfig:"AUTH_JWT_AUDIENCE" default:"authenticated"`
	}

	Transfer struct {
		BaseURL   string        `envconfig:"TRANSFER_BASE_URL" default:"https://api.paystack.co"`
		SecretKey string        `envconfig:"TRANSFER_SECRET_KEY"`
		Timeout   time.Duration `envconfig:"TRANSFER_TIMEOUT" default:"30s"`
	}

	Payout struct {
		DestinationFields []string      `envconfig:"PAYOUT_DESTINATION_FIELDS" default:"paystack_recipient_code,transfer_recipient_code,payout_recipient_code,bank_recipient_code"`
		RunTimeout        time.Duration `envconfig:"PAYOUT_RUN_TIMEOUT" default:"10m"`
		LockName          string        `envconfig:"PAYOUT_LOCK_NAME" default:"payout-run"`
	}

	Redis struct {
		URL     string        `envconfig:"REDIS_URL"`
		LockTTL time.Duration `envconfig:"REDIS_LOCK_TTL" default:"30s"`
	}
}

func (c *Config) ConnectionString() string {
	if c.DB.URL != "" {
		return c.DB.URL
	}

	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.DB.User, c.DB.Password, c.DB.Host, c.DB.Port, c.DB.Name, c.DB.SSLMode)
}

func (c *Config) Production() bool {
	return c.App.Env == envProduction
}

// Load reads an optional .env file and then the process environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}
