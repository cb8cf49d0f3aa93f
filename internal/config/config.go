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
	DatabaseURL       string
	DBMaxConns        int32
	DBMinConns        int32
	DBConnLifetime    time.Duration
	DBConnIdleTime    time.Duration
	BlobRoot          string
	BatchOpsPerSecond float64
	AuditQueryLimit   int
	LogLevel          string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL:       strings.TrimSpace(os.Getenv("DATABASE_URL")),
		DBMaxConns:        int32(getInt("DB_MAX_CONNS", 10)),
		DBMinConns:        int32(getInt("DB_MIN_CONNS", 2)),
		DBConnLifetime:    getDuration("DB_CONN_LIFETIME", 30*time.Minute),
		DBConnIdleTime:    getDuration("DB_CONN_IDLE_TIME", 5*time.Minute),
		BlobRoot:          getEnv("BLOB_ROOT", "./state/blobs"),
		BatchOpsPerSecond: getFloat("BATCH_OPS_PER_SECOND", 25),
		AuditQueryLimit:   getInt("AUDIT_QUERY_LIMIT", 50),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}

	if strings.TrimSpace(c.BlobRoot) == "" {
		return fmt.Errorf("BLOB_ROOT cannot be empty")
	}

	if c.DBMaxConns <= 0 || c.DBMinConns < 0 || c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("invalid database pool bounds: min=%d max=%d", c.DBMinConns, c.DBMaxConns)
	}

	if c.DBConnLifetime <= 0 || c.DBConnIdleTime <= 0 {
		return fmt.Errorf("database connection lifetimes must be positive")
	}

	if c.BatchOpsPerSecond <= 0 {
		return fmt.Errorf("BATCH_OPS_PER_SECOND must be positive")
	}

	if c.AuditQueryLimit <= 0 {
		return fmt.Errorf("AUDIT_QUERY_LIMIT must be positive")
	}

	return nil
}

func getEnv(key string, fallback string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}

	return v
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getDuration(key string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return v
}

func getFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}

	return v
}
