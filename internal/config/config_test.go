package config

import (
	"testing"
	"time"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"ARENA_LISTEN_ADDR", "ARENA_SAVE_MAX_AGE", "STORE_BACKEND", "REDIS_URL", "LOG_TO_FILE", "LOG_FORMAT"} {
		t.Setenv(k, "")
	}
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StoreBackend != BackendMemory || cfg.SaveMaxAge != 24*time.Hour || cfg.SaveSlot == "" {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if cfg.Log.Format != "legacy" || cfg.Log.File == "" || !cfg.Log.Console {
		t.Fatalf("unexpected log defaults: %+v", cfg.Log)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORE_BACKEND", "Redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/2")
	t.Setenv("ARENA_SAVE_MAX_AGE", "3600")
	t.Setenv("LOG_TO_FILE", "false")
	t.Setenv("LOG_FORMAT", "json")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.StoreBackend != BackendRedis || cfg.RedisURL == "" {
		t.Fatalf("backend = %q url = %q", cfg.StoreBackend, cfg.RedisURL)
	}
	if cfg.SaveMaxAge != time.Hour {
		t.Fatalf("SaveMaxAge = %v", cfg.SaveMaxAge)
	}
	if cfg.Log.File != "" || cfg.Log.Format != "json" {
		t.Fatalf("log config = %+v", cfg.Log)
	}

	t.Setenv("ARENA_SAVE_MAX_AGE", "90m")
	cfg, err = Load()
	if err != nil || cfg.SaveMaxAge != 90*time.Minute {
		t.Fatalf("duration form: %v %v", cfg, err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"redis without url": {"STORE_BACKEND": "redis", "REDIS_URL": ""},
		"unknown backend":   {"STORE_BACKEND": "floppy"},
		"bad max age":       {"STORE_BACKEND": "memory", "ARENA_SAVE_MAX_AGE": "soon"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}
