package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration, shared by the quiznox
// client and the local stub gateways.
type Config struct {
	// Client
	AuthAPIURL      string
	QuizAPIURL      string
	StateDir        string
	HTTPTimeout     time.Duration
	FetchRetries    int
	FetchRetryDelay time.Duration
	LogLevel        string
	LogFormat       string

	// Stub gateways (cmd/stubd)
	StubPort        string
	GinMode         string
	JWTSecret       string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	BcryptCost      int
	// AllowedOrigins controls CORS on the stub. Empty slice means all
	// origins are permitted (dev default).
	AllowedOrigins []string
}

// Load reads configuration from environment variables with sensible defaults.
// It loads .env file if present but does not fail if missing.
func Load() *Config {
	_ = godotenv.Load() // Ignore error — .env is optional

	return &Config{
		AuthAPIURL:      getEnv("AUTH_API_URL", "http://localhost:4000"),
		QuizAPIURL:      getEnv("QUIZ_API_URL", "http://localhost:3000"),
		StateDir:        getEnv("STATE_DIR", defaultStateDir()),
		HTTPTimeout:     time.Duration(getEnvInt("HTTP_TIMEOUT_SECONDS", 10)) * time.Second,
		FetchRetries:    getEnvInt("FETCH_RETRIES", 3),
		FetchRetryDelay: time.Duration(getEnvInt("FETCH_RETRY_DELAY_SECONDS", 2)) * time.Second,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		LogFormat:       getEnv("LOG_FORMAT", "pretty"),

		StubPort:        getEnv("STUB_PORT", "4000"),
		GinMode:         getEnv("GIN_MODE", "debug"),
		JWTSecret:       getEnv("JWT_SECRET", "change-this-to-a-secure-random-string"),
		AccessTokenTTL:  time.Duration(getEnvInt("ACCESS_TOKEN_TTL_MINUTES", 15)) * time.Minute,
		RefreshTokenTTL: time.Duration(getEnvInt("REFRESH_TOKEN_TTL_HOURS", 168)) * time.Hour,
		BcryptCost:      getEnvInt("BCRYPT_COST", 6),
		AllowedOrigins:  parseOrigins(getEnv("ALLOWED_ORIGINS", "")),
	}
}

// defaultStateDir resolves the durable client-state directory, preferring
// the user home directory and falling back to the working directory.
func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".quiznox"
	}
	return filepath.Join(home, ".quiznox")
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

// parseOrigins splits a comma-separated origins string into a trimmed slice.
// Returns nil (allow-all) if the input is empty.
func parseOrigins(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}
