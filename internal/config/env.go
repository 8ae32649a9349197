package config

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

// Environment variables that override file values.
const (
	EnvBotToken      = "BOT_TOKEN"
	EnvOpenGov       = "OPEN_GOV_ENDPOINT"
	EnvDatabaseURL   = "DATABASE_URL"
	EnvStorageDriver = "STORAGE_DRIVER"
	EnvLogLevel      = "LOG_LEVEL"
)

// LoadEnvFile loads a dotenv file into the process environment. A missing
// file is not an error; variables already set are left alone.
func LoadEnvFile(path string) error {
	if strings.TrimSpace(path) == "" {
		return nil
	}
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// ApplyEnv overlays environment values onto cfg. lookup defaults to
// os.LookupEnv.
func ApplyEnv(cfg *Config, lookup func(string) (string, bool)) {
	if lookup == nil {
		lookup = os.LookupEnv
	}
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			*dst = strings.TrimSpace(v)
		}
	}
	set(EnvBotToken, &cfg.Telegram.Token)
	set(EnvOpenGov, &cfg.Weather.Endpoint)
	set(EnvDatabaseURL, &cfg.Storage.DSN)
	set(EnvStorageDriver, &cfg.Storage.Driver)
	set(EnvLogLevel, &cfg.Logging.Level)

	// A bare DATABASE_URL implies postgres unless the driver says otherwise.
	if _, ok := lookup(EnvDatabaseURL); ok && strings.TrimSpace(cfg.Storage.Driver) == "" {
		cfg.Storage.Driver = "postgres"
	}
}
