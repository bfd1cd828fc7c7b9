package obslog

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap/zapcore"

	"github.com/park285/pokemon-chess-battle/internal/config"
)

func TestInit_WritesJSONFile(t *testing.T) {
	t.Cleanup(func() { Set(nil) })
	path := filepath.Join(t.TempDir(), "nested", "arena.log")
	if err := Init(config.LogConfig{Level: "debug", Format: "json", File: path}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	L().Debug("battle_test_entry")
	Sync()

	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(raw), `"msg":"battle_test_entry"`) {
		t.Fatalf("log file missing entry: %s", raw)
	}
}

func TestInit_LevelFilters(t *testing.T) {
	t.Cleanup(func() { Set(nil) })
	path := filepath.Join(t.TempDir(), "arena.log")
	if err := Init(config.LogConfig{Level: "warn", Format: "legacy", File: path}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	L().Info("hidden_entry")
	L().Warn("shown_entry")
	Sync()

	raw, _ := os.ReadFile(path)
	if strings.Contains(string(raw), "hidden_entry") || !strings.Contains(string(raw), "shown_entry") {
		t.Fatalf("unexpected log content: %s", raw)
	}
	if !strings.Contains(string(raw), " | ") {
		t.Fatalf("legacy format separator missing: %s", raw)
	}
}

func TestSetNilRestoresNop(t *testing.T) {
	Set(nil)
	if L() == nil {
		t.Fatalf("L() returned nil")
	}
	L().Info("discarded")
}

func TestInit_NamedLoggerCarriesComponent(t *testing.T) {
	t.Cleanup(func() { Set(nil) })
	path := filepath.Join(t.TempDir(), "arena.log")
	if err := Init(config.LogConfig{Level: "info", Format: "json", File: path}); err != nil {
		t.Fatalf("Init: %v", err)
	}
	L().Named("feed").Info("feed_subscribe")
	Sync()

	raw, _ := os.ReadFile(path)
	if !strings.Contains(string(raw), `"component":"feed"`) {
		t.Fatalf("component field missing: %s", raw)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":    zapcore.DebugLevel,
		" WARNING": zapcore.WarnLevel,
		"error":    zapcore.ErrorLevel,
		"":         zapcore.InfoLevel,
		"chatty":   zapcore.InfoLevel,
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
