// internal/config/config.go
//
// Server settings read from the environment.
// main loads an optional .env first (godotenv), so values may come from either.
//
// Variables:
//   - PORT, LOG_LEVEL, LOG_PRETTY
//   - STORE ("memory" | "sqlite"), SQLITE_DSN
//   - JWT_SECRET, TOKEN_TTL_HOURS, CLIENT_ORIGIN
//   - UNDO_DEPTH (0 = unbounded), REQUEST_TIMEOUT (Go duration)

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds every runtime setting of the server.
type Config struct {
	Port           string
	LogLevel       string
	LogPretty      bool
	Store          string // "memory" | "sqlite"
	SQLiteDSN      string
	JWTSecret      string
	TokenTTL       time.Duration
	ClientOrigin   string
	UndoDepth      int // 0 = unbounded
	RequestTimeout time.Duration
}

// Load reads the environment. Malformed numbers and durations fall back to defaults.
func Load() Config {
	return Config{
		Port:           getEnv("PORT", "5175"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		LogPretty:      envBool("LOG_PRETTY", false),
		Store:          strings.ToLower(getEnv("STORE", "memory")),
		SQLiteDSN:      getEnv("SQLITE_DSN", "file:darts?mode=memory&cache=shared"),
		JWTSecret:      getEnv("JWT_SECRET", "dev_secret_change_me"),
		TokenTTL:       time.Duration(envInt("TOKEN_TTL_HOURS", 12)) * time.Hour,
		ClientOrigin:   getEnv("CLIENT_ORIGIN", "http://localhost:5173"),
		UndoDepth:      envInt("UNDO_DEPTH", 0),
		RequestTimeout: envDuration("REQUEST_TIMEOUT", 10*time.Second),
	}
}

// getEnv returns the value of k or def if unset/empty.
func getEnv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}

func envInt(k string, def int) int {
	if n, err := strconv.Atoi(os.Getenv(k)); err == nil && n >= 0 {
		return n
	}
	return def
}

func envBool(k string, def bool) bool {
	if b, err := strconv.ParseBool(os.Getenv(k)); err == nil {
		return b
	}
	return def
}

func envDuration(k string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(k)); err == nil && d > 0 {
		return d
	}
	return def
}
