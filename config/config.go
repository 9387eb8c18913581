package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port         string
	LogLevel     string
	DefaultRoom  string
	ReadLimit    int64
	MDNS         bool
	MDNSInstance string
}

// Load reads an optional .env file and then the process environment.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Warn("no .env file found, using environment variables")
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config from lookup, applying defaults for unset keys.
func FromEnv(lookup func(string) (string, bool)) (Config, error) {
	cfg := Config{
		Port:        "8080",
		LogLevel:    "info",
		DefaultRoom: "default",
		ReadLimit:   64 * 1024,
	}

	if v, ok := lookup("PORT"); ok && v != "" {
		cfg.Port = v
	}
	if v, ok := lookup("LOG_LEVEL"); ok && v != "" {
		cfg.LogLevel = v
	}
	if v, ok := lookup("DEFAULT_ROOM"); ok && v != "" {
		cfg.DefaultRoom = v
	}
	if v, ok := lookup("READ_LIMIT"); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("invalid READ_LIMIT %q", v)
		}
		cfg.ReadLimit = n
	}
	if v, ok := lookup("MDNS"); ok && v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("invalid MDNS %q: %w", v, err)
		}
		cfg.MDNS = b
	}
	if v, ok := lookup("MDNS_INSTANCE"); ok {
		cfg.MDNSInstance = v
	}
	if cfg.MDNSInstance == "" {
		if host, err := os.Hostname(); err == nil {
			cfg.MDNSInstance = host
		}
	}
	return cfg, nil
}

// Level maps LogLevel onto a slog level, defaulting to info.
func (c Config) Level() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
