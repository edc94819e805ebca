// Package config loads server configuration from the environment.
//
// Configuration comes from environment variables, with a .env file loaded
// first if present (via godotenv) so local development doesn't require
// exporting a dozen variables by hand. Every value has a sensible default
// except the ones that are genuinely secret or deployment-specific.
package config

import (
	"errors"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds everything the server needs at startup. Using a struct
// (instead of reading os.Getenv all over the codebase) keeps configuration
// in one place and makes wiring testable.
type Config struct {
	Env    string // development | staging | production
	Port   int
	DBPath string

	JWTSecret string

	// Google federated identity. All three must be set for the provider to
	// be available; otherwise /api/auth/verify-token returns a typed
	// "identity provider unavailable" error.
	GoogleClientID     string
	GoogleClientSecret string
	GoogleCallbackURL  string

	// SMTP transport for the reminder subsystem. Reminders are disabled when
	// SMTPHost is empty.
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	MailFrom string

	UploadDir string
	ClientURL string // SPA origin allowed by CORS
}

// Load reads the .env file (if any) and the environment.
func Load() (*Config, error) {
	// Missing .env is fine — production sets real environment variables.
	_ = godotenv.Load()

	cfg := &Config{
		Env:                getEnv("APP_ENV", "development"),
		Port:               getEnvInt("PORT", 8080),
		DBPath:             getEnv("DB_PATH", "data/tracker.db"),
		JWTSecret:          os.Getenv("JWT_SECRET"),
		GoogleClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		GoogleClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		GoogleCallbackURL:  os.Getenv("GOOGLE_CALLBACK_URL"),
		SMTPHost:           os.Getenv("SMTP_HOST"),
		SMTPPort:           getEnvInt("SMTP_PORT", 587),
		SMTPUser:           os.Getenv("SMTP_USER"),
		SMTPPass:           os.Getenv("SMTP_PASS"),
		MailFrom:           getEnv("MAIL_FROM", "no-reply@localhost"),
		UploadDir:          getEnv("UPLOAD_DIR", "data/uploads"),
		ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects configurations that would fail at runtime anyway.
func (c *Config) Validate() error {
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return errors.New("APP_ENV must be one of: development, staging, production")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return errors.New("PORT must be a valid TCP port")
	}
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	if c.SMTPHost != "" && c.MailFrom == "" {
		return errors.New("MAIL_FROM is required when SMTP_HOST is set")
	}
	return nil
}

// GoogleConfigured reports whether the federated identity provider has
// complete credentials.
func (c *Config) GoogleConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != "" && c.GoogleCallbackURL != ""
}

// MailConfigured reports whether the SMTP transport has enough configuration
// to dispatch email.
func (c *Config) MailConfigured() bool {
	return c.SMTPHost != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
