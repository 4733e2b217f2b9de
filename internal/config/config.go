package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverFile   = "file"
)

type Config struct {
	Addr             string
	StoreDriver      string
	DBPath           string
	DataFile         string
	LogLevel         string
	QuickSessionSize int
}

// Load reads configuration from a .env file (if present) and environment variables,
// applying defaults when values are missing or invalid.
func Load() Config {
	// Ignore error so the app still starts when .env is absent.
	_ = godotenv.Load()

	return Config{
		Addr:             envOr("ADDR", ":8080"),
		StoreDriver:      strings.ToLower(envOr("STORE_DRIVER", DriverSQLite)),
		DBPath:           envOr("DB_PATH", "file:part107.db"),
		DataFile:         envOr("DATA_FILE", "part107-progress.json"),
		LogLevel:         strings.ToUpper(envOr("LOG_LEVEL", "INFO")),
		QuickSessionSize: envIntOr("QUICK_SESSION_SIZE", 20),
	}
}

// Validate reports every invalid setting at once.
func (c Config) Validate() error {
	var errs []error

	if c.Addr == "" {
		errs = append(errs, errors.New("ADDR cannot be empty"))
	}

	switch strings.ToLower(c.StoreDriver) {
	case DriverSQLite:
		if c.DBPath == "" {
			errs = append(errs, errors.New("DB_PATH cannot be empty when STORE_DRIVER=sqlite"))
		}
	case DriverFile:
		if c.DataFile == "" {
			errs = append(errs, errors.New("DATA_FILE cannot be empty when STORE_DRIVER=file"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORE_DRIVER must be %q or %q, got %q", DriverSQLite, DriverFile, c.StoreDriver))
	}

	switch strings.ToUpper(c.LogLevel) {
	case "DEBUG", "INFO", "WARN", "ERROR":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of DEBUG, INFO, WARN, ERROR, got %q", c.LogLevel))
	}

	if c.QuickSessionSize < 1 {
		errs = append(errs, fmt.Errorf("QUICK_SESSION_SIZE must be positive, got %d", c.QuickSessionSize))
	}

	return errors.Join(errs...)
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
		log.Printf("invalid value for %s=%q, using default %d", key, v, def)
	}
	return def
}
