package config

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port            int
	Env             string
	LogLevel        string
	RequestTimeout  time.Duration
	ShutdownTimeout time.Duration

	// CORS
	AllowedOrigins []string

	// Lookup tables
	LookupsPath          string
	LookupsWatch         bool
	LookupsWatchDebounce time.Duration

	// Batch
	MaxBatchRows   int
	BatchWorkers   int
	BatchQueueSize int
}

// Load reads configuration from the environment, after applying any .env
// files found in the working directory. Missing .env files are not an error.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	cfg := &Config{
		Port:            getEnvInt("PORT", 8080),
		Env:             getEnv("ENV", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		RequestTimeout:  getEnvDuration("REQUEST_TIMEOUT", 10*time.Second),
		ShutdownTimeout: getEnvDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		LookupsPath:          getEnv("LOOKUPS_PATH", ""),
		LookupsWatch:         getEnvBool("LOOKUPS_WATCH", false),
		LookupsWatchDebounce: getEnvDuration("LOOKUPS_WATCH_DEBOUNCE", 250*time.Millisecond),

		MaxBatchRows:   getEnvInt("MAX_BATCH_ROWS", 1000),
		BatchWorkers:   getEnvInt("BATCH_WORKERS", runtime.NumCPU()),
		BatchQueueSize: getEnvInt("BATCH_QUEUE_SIZE", 1024),
	}

	// CORS
	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	for _, o := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid PORT %d: must be between 1 and 65535", c.Port)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("invalid REQUEST_TIMEOUT %s: must be positive", c.RequestTimeout)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("invalid SHUTDOWN_TIMEOUT %s: must be positive", c.ShutdownTimeout)
	}
	if c.MaxBatchRows <= 0 {
		return fmt.Errorf("invalid MAX_BATCH_ROWS %d: must be positive", c.MaxBatchRows)
	}
	if c.BatchWorkers <= 0 {
		return fmt.Errorf("invalid BATCH_WORKERS %d: must be positive", c.BatchWorkers)
	}
	if c.BatchQueueSize <= 0 {
		return fmt.Errorf("invalid BATCH_QUEUE_SIZE %d: must be positive", c.BatchQueueSize)
	}
	if c.LookupsWatch {
		if c.LookupsPath == "" {
			return errors.New("LOOKUPS_WATCH requires LOOKUPS_PATH")
		}
		if c.LookupsWatchDebounce <= 0 {
			return fmt.Errorf("invalid LOOKUPS_WATCH_DEBOUNCE %s: must be positive", c.LookupsWatchDebounce)
		}
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string {
	return ":" + strconv.Itoa(c.Port)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
