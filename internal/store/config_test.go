package store

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return p
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, "{}\n"))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Listen != "127.0.0.1:5000" {
		t.Errorf("Expected default listen address, got %s", cfg.Listen)
	}
	if cfg.CallTimeoutSec != 30 {
		t.Errorf("Expected default 30s call timeout, got %d", cfg.CallTimeoutSec)
	}
	if cfg.Terminal.Backend != "MT5" || cfg.Terminal.GatewayURL != "http://127.0.0.1:5050" {
		t.Errorf("Expected MT5 gateway defaults, got %s %s", cfg.Terminal.Backend, cfg.Terminal.GatewayURL)
	}
	if cfg.History.Backend != "FILE" || cfg.History.Dir != "history_cache" {
		t.Errorf("Expected file history defaults, got %s %s", cfg.History.Backend, cfg.History.Dir)
	}
	if cfg.Trade.Magic != 2026 || cfg.Trade.Comment != "Pro Analyst Trade" || cfg.Trade.DefaultFilling != "FOK" {
		t.Errorf("Unexpected trade defaults: %+v", cfg.Trade)
	}
	if !cfg.StripUSDT() {
		t.Error("USDT stripping must default to on")
	}
}

func TestLoadConfigExplicitValues(t *testing.T) {
	cfg, err := LoadConfig(writeConfig(t, `
listen: 0.0.0.0:8080
terminal:
  backend: KITE
resolver:
  strip_usdt: false
history:
  backend: REDIS
  redis:
    addr: localhost:6379
`))
	if err != nil {
		t.Fatalf("LoadConfig failed: %v", err)
	}
	if cfg.Listen != "0.0.0.0:8080" {
		t.Errorf("Expected explicit listen address, got %s", cfg.Listen)
	}
	if cfg.StripUSDT() {
		t.Error("Expected USDT stripping disabled")
	}
	if cfg.History.Redis.Prefix != "graphist:" {
		t.Errorf("Expected default redis prefix, got %s", cfg.History.Redis.Prefix)
	}
}

func TestLoadConfigValidation(t *testing.T) {
	cases := []struct {
		name string
		body string
	}{
		{"unknown terminal backend", "terminal:\n  backend: FIX\n"},
		{"unknown history backend", "history:\n  backend: S3\n"},
		{"redis without addr", "history:\n  backend: REDIS\n"},
		{"negative timeout", "call_timeout_seconds: -5\n"},
	}
	for _, tc := range cases {
		if _, err := LoadConfig(writeConfig(t, tc.body)); err == nil {
			t.Errorf("Expected validation error for %s", tc.name)
		}
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("Expected error for missing config file")
	}
}
