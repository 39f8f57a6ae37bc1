package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/raphaelgruber/relationships/internal/models"
)

// Config holds all configuration values.
type Config struct {
	// Widget definition
	WidgetFile      string
	DimOpacity      string // Raw value; see ParseDimOpacity
	PermissiveLinks bool

	// Server
	ServerAddr string
	ServerURL  string

	// Logging
	LogFile  string
	LogLevel slog.Level
}

// Load reads configuration from environment variables.
func Load() Config {
	return Config{
		// Widget
		WidgetFile:      getEnv("RELATIONSHIPS_WIDGET_FILE", ""),
		DimOpacity:      strings.TrimSpace(getEnv("RELATIONSHIPS_DIM_OPACITY", "")),
		PermissiveLinks: getEnv("RELATIONSHIPS_PERMISSIVE_LINKS", "false") == "true",

		// Server
		ServerAddr: getEnv("RELATIONSHIPS_SERVER_ADDR", ":8585"),
		ServerURL:  getEnv("RELATIONSHIPS_SERVER_URL", "http://localhost:8585"),

		// Logging
		LogFile:  getEnv("RELATIONSHIPS_LOG_FILE", "/tmp/relationships.log"),
		LogLevel: parseLogLevel(getEnv("RELATIONSHIPS_LOG_LEVEL", "INFO")),
	}
}

func getEnv(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

// ParseDimOpacity returns the configured default dim opacity, or nil when
// none is set. Range checks happen where the value is applied.
func (c Config) ParseDimOpacity() (*float64, error) {
	if c.DimOpacity == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(c.DimOpacity, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: RELATIONSHIPS_DIM_OPACITY %q is not a number", models.ErrInvalidConfiguration, c.DimOpacity)
	}
	return &v, nil
}

func parseLogLevel(s string) slog.Level {
	switch strings.ToUpper(s) {
	case "DEBUG":
		return slog.LevelDebug
	case "INFO":
		return slog.LevelInfo
	case "WARN", "WARNING":
		return slog.LevelWarn
	case "ERROR":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
