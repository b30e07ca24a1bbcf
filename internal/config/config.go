package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type envConfig struct {
	APP_PORT      string
	LOG_FILE_PATH string
	LOG_LEVEL     string

	DB_HOST              string
	DB_PORT              int
	DB_USER              string
	DB_PASSWORD          string
	DB_NAME              string
	DB_SSL_MODE          string
	DB_MAX_OPEN_CONNS    int
	DB_MAX_IDLE_CONNS    int
	DB_CONN_MAX_LIFETIME time.Duration

	GCP_PROJECT_ID string

	EXPORT_WINDOW_SIZE   int
	EXPORT_SPILL_DIR     string
	IMPORT_WORKERS       int
	IMPORT_MAX_UPLOAD_MB int64
	SCHEMA_TEMPLATE_PATH string
}

// DefaultEnvConfig is populated by LoadEnvConfig.
var DefaultEnvConfig = envConfig{
	APP_PORT:             "8080",
	LOG_LEVEL:            "info",
	DB_HOST:              "localhost",
	DB_PORT:              5432,
	DB_SSL_MODE:          "disable",
	DB_MAX_OPEN_CONNS:    25,
	DB_MAX_IDLE_CONNS:    5,
	DB_CONN_MAX_LIFETIME: 5 * time.Minute,
	EXPORT_WINDOW_SIZE:   500,
	IMPORT_WORKERS:       4,
	IMPORT_MAX_UPLOAD_MB: 20,
}

// LoadEnvConfig reads .env when present, then the process environment.
// Unset variables keep their defaults.
func LoadEnvConfig() error {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to load .env: %w", err)
	}

	c := &DefaultEnvConfig
	readString("APP_PORT", &c.APP_PORT)
	readString("LOG_FILE_PATH", &c.LOG_FILE_PATH)
	readString("LOG_LEVEL", &c.LOG_LEVEL)

	readString("DB_HOST", &c.DB_HOST)
	readString("DB_USER", &c.DB_USER)
	readString("DB_PASSWORD", &c.DB_PASSWORD)
	readString("DB_NAME", &c.DB_NAME)
	readString("DB_SSL_MODE", &c.DB_SSL_MODE)
	readString("GCP_PROJECT_ID", &c.GCP_PROJECT_ID)
	readString("EXPORT_SPILL_DIR", &c.EXPORT_SPILL_DIR)
	readString("SCHEMA_TEMPLATE_PATH", &c.SCHEMA_TEMPLATE_PATH)

	ints := []struct {
		key string
		dst *int
	}{
		{"DB_PORT", &c.DB_PORT},
		{"DB_MAX_OPEN_CONNS", &c.DB_MAX_OPEN_CONNS},
		{"DB_MAX_IDLE_CONNS", &c.DB_MAX_IDLE_CONNS},
		{"EXPORT_WINDOW_SIZE", &c.EXPORT_WINDOW_SIZE},
		{"IMPORT_WORKERS", &c.IMPORT_WORKERS},
	}
	for _, v := range ints {
		if err := readInt(v.key, v.dst); err != nil {
			return err
		}
	}

	if raw, ok := os.LookupEnv("IMPORT_MAX_UPLOAD_MB"); ok && raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid IMPORT_MAX_UPLOAD_MB %q: %w", raw, err)
		}
		c.IMPORT_MAX_UPLOAD_MB = n
	}
	if raw, ok := os.LookupEnv("DB_CONN_MAX_LIFETIME"); ok && raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return fmt.Errorf("invalid DB_CONN_MAX_LIFETIME %q: %w", raw, err)
		}
		c.DB_CONN_MAX_LIFETIME = d
	}
	return nil
}

func readString(key string, dst *string) {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		*dst = v
	}
}

func readInt(key string, dst *int) error {
	raw, ok := os.LookupEnv(key)
	if !ok || raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("invalid %s %q: %w", key, raw, err)
	}
	*dst = n
	return nil
}
