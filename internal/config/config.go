package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendBadger = "badger"
)

// LogConfig drives obslog.Init.
type LogConfig struct {
	Level   string
	Format  string // legacy | console | json
	File    string // empty disables file output
	Console bool
	Caller  bool
}

type AppConfig struct {
	ListenAddr string
	FeedAddr   string

	SaveSlot   string
	SaveMaxAge time.Duration
	RosterDir  string

	StoreBackend   string
	RedisURL       string
	RedisKeyPrefix string
	BadgerDir      string

	DatabaseURL string

	Log LogConfig
}

// Load reads the arena configuration from the environment.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ListenAddr:     "127.0.0.1:8480",
		FeedAddr:       "127.0.0.1:8481",
		SaveSlot:       "pokemon-chess-battle",
		SaveMaxAge:     24 * time.Hour,
		StoreBackend:   BackendMemory,
		RedisKeyPrefix: "pkbattle:",
		BadgerDir:      filepath.Join("data", "battles"),
		Log: LogConfig{
			Level:   "info",
			Format:  "legacy",
			File:    filepath.Join("logs", "arena.log"),
			Console: true,
		},
	}

	if v := getEnv("ARENA_LISTEN_ADDR"); v != "" {
		cfg.ListenAddr = v
	}
	if v := getEnv("ARENA_FEED_ADDR"); v != "" {
		cfg.FeedAddr = v
	}
	if v := getEnv("ARENA_SAVE_SLOT"); v != "" {
		cfg.SaveSlot = v
	}
	if v := getEnv("ARENA_SAVE_MAX_AGE"); v != "" {
		d, err := parseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("ARENA_SAVE_MAX_AGE: %w", err)
		}
		cfg.SaveMaxAge = d
	}
	cfg.RosterDir = getEnv("ARENA_ROSTER_DIR")

	if v := getEnv("STORE_BACKEND"); v != "" {
		cfg.StoreBackend = strings.ToLower(v)
	}
	cfg.RedisURL = getEnv("REDIS_URL")
	if v := getEnv("REDIS_KEY_PREFIX"); v != "" {
		cfg.RedisKeyPrefix = v
	}
	if v := getEnv("BADGER_DIR"); v != "" {
		cfg.BadgerDir = v
	}
	cfg.DatabaseURL = getEnv("DATABASE_URL")

	// 로그 설정
	if v := getEnv("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := strings.ToLower(getEnv("LOG_FORMAT")); v == "legacy" || v == "json" || v == "console" {
		cfg.Log.Format = v
	}
	if v, ok := getEnvBool("LOG_TO_FILE"); ok && !v {
		cfg.Log.File = ""
	}
	if v := getEnv("LOG_FILE"); v != "" && cfg.Log.File != "" {
		cfg.Log.File = v
	}
	if v, ok := getEnvBool("LOG_TO_CONSOLE"); ok {
		cfg.Log.Console = v
	}
	if v, ok := getEnvBool("LOG_CALLER"); ok {
		cfg.Log.Caller = v
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *AppConfig) validate() error {
	switch c.StoreBackend {
	case BackendMemory:
	case BackendRedis:
		if c.RedisURL == "" {
			return errors.New("REDIS_URL is required when STORE_BACKEND=redis")
		}
	case BackendBadger:
		if c.BadgerDir == "" {
			return errors.New("BADGER_DIR is required when STORE_BACKEND=badger")
		}
	default:
		return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
	}
	if c.ListenAddr == "" {
		return errors.New("ARENA_LISTEN_ADDR is required")
	}
	if c.SaveMaxAge < 0 {
		return errors.New("ARENA_SAVE_MAX_AGE must not be negative")
	}
	return nil
}

func getEnv(key string) string { return strings.TrimSpace(os.Getenv(key)) }

func getEnvBool(key string) (bool, bool) {
	v := getEnv(key)
	if v == "" {
		return false, false
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, false
	}
	return b, true
}

// parseDuration accepts Go durations ("24h") or plain seconds ("86400").
func parseDuration(v string) (time.Duration, error) {
	if n, err := strconv.Atoi(v); err == nil {
		return time.Duration(n) * time.Second, nil
	}
	return time.ParseDuration(v)
}
