package config

import (
	"testing"
	"time"
)

func validConfig() *Config {
	cfg := Defaults()
	cfg.Watcher.Addresses = []string{"0x1234567890abcdef1234567890abcdef12345678"}
	return cfg
}

func TestLoadDefaults(t *testing.T) {
	// Pin the env so the host environment can't leak in.
	for _, key := range []string{
		"STAGE", "WATCH_ADDRESSES", "WATCH_INTERVAL", "AGGREGATION_WINDOW",
		"MIN_TRADE_VALUE", "EVICT_FILLED", "STATE_FILE",
		"HYPERLIQUID_API_URL", "HYPERLIQUID_WS_URL", "USE_WEBSOCKET",
	} {
		t.Setenv(key, "")
	}

	cfg := Load()

	if cfg.IsProd {
		t.Error("expected non-prod by default")
	}
	if cfg.Watcher.Interval != 10*time.Second {
		t.Errorf("expected default interval 10s, got %v", cfg.Watcher.Interval)
	}
	if cfg.Watcher.AggregationWindow != 60*time.Second {
		t.Errorf("expected default window 60s, got %v", cfg.Watcher.AggregationWindow)
	}
	if cfg.Watcher.EvictFilled {
		t.Error("expected evictFilled off by default")
	}
	if cfg.State.FilePath != "data/state.json" {
		t.Errorf("unexpected default state file %q", cfg.State.FilePath)
	}
	if cfg.Hyperliquid.APIURL != "https://api.hyperliquid.xyz" {
		t.Errorf("unexpected default API URL %q", cfg.Hyperliquid.APIURL)
	}
	if cfg.Hyperliquid.UseWebSocket {
		t.Error("expected polling only by default")
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("STAGE", "PROD")
	t.Setenv("WATCH_ADDRESSES", "0xABCDEF7890abcdef1234567890abcdef12345678, 0x1111111111111111111111111111111111111111")
	t.Setenv("WATCH_INTERVAL", "5s")
	t.Setenv("AGGREGATION_WINDOW", "120")
	t.Setenv("MIN_TRADE_VALUE", "250.5")
	t.Setenv("EVICT_FILLED", "true")
	t.Setenv("STATE_FILE", "/tmp/ledger.json")
	t.Setenv("USE_WEBSOCKET", "yes")

	cfg := Load()

	if !cfg.IsProd {
		t.Error("expected prod stage")
	}
	if len(cfg.Watcher.Addresses) != 2 {
		t.Fatalf("expected 2 addresses, got %d", len(cfg.Watcher.Addresses))
	}
	// Addresses are lowercased so ledger keys and comparisons are stable.
	if cfg.Watcher.Addresses[0] != "0xabcdef7890abcdef1234567890abcdef12345678" {
		t.Errorf("expected lowercased address, got %q", cfg.Watcher.Addresses[0])
	}
	if cfg.Watcher.Interval != 5*time.Second {
		t.Errorf("expected 5s interval, got %v", cfg.Watcher.Interval)
	}
	// Bare numbers are seconds.
	if cfg.Watcher.AggregationWindow != 120*time.Second {
		t.Errorf("expected 120s window, got %v", cfg.Watcher.AggregationWindow)
	}
	if cfg.Watcher.MinTradeValue != 250.5 {
		t.Errorf("expected min trade value 250.5, got %v", cfg.Watcher.MinTradeValue)
	}
	if !cfg.Watcher.EvictFilled {
		t.Error("expected evictFilled on")
	}
	if cfg.State.FilePath != "/tmp/ledger.json" {
		t.Errorf("unexpected state file %q", cfg.State.FilePath)
	}
	if !cfg.Hyperliquid.UseWebSocket {
		t.Error("expected websocket enabled")
	}
}

func TestValidateValidConfig(t *testing.T) {
	result := validConfig().Validate()
	if !result.Valid {
		t.Errorf("expected valid config, got %v", result.Err())
	}
	if result.Err() != nil {
		t.Errorf("expected nil error, got %v", result.Err())
	}
}

func TestValidateRequiresAddresses(t *testing.T) {
	cfg := Defaults()

	result := cfg.Validate()
	if result.Valid {
		t.Error("expected invalid config without addresses")
	}
}

func TestValidateRejectsBadAddress(t *testing.T) {
	for _, addr := range []string{
		"1234567890abcdef1234567890abcdef12345678",   // no 0x
		"0x1234",                                     // too short
		"0xZZ34567890abcdef1234567890abcdef12345678", // not hex
	} {
		cfg := Defaults()
		cfg.Watcher.Addresses = []string{addr}

		if cfg.Validate().Valid {
			t.Errorf("expected %q to be rejected", addr)
		}
	}
}

func TestValidateRejectsShortInterval(t *testing.T) {
	cfg := validConfig()
	cfg.Watcher.Interval = 500 * time.Millisecond

	if cfg.Validate().Valid {
		t.Error("expected sub-second interval to be rejected")
	}
}

func TestValidateRejectsWindowBelowInterval(t *testing.T) {
	cfg := validConfig()
	cfg.Watcher.AggregationWindow = 5 * time.Second

	if cfg.Validate().Valid {
		t.Error("expected window below interval to be rejected")
	}
}

func TestValidateRejectsNegativeMinTradeValue(t *testing.T) {
	cfg := validConfig()
	cfg.Watcher.MinTradeValue = -1

	if cfg.Validate().Valid {
		t.Error("expected negative min trade value to be rejected")
	}
}

func TestValidateRejectsEmptyStateFile(t *testing.T) {
	cfg := validConfig()
	cfg.State.FilePath = "  "

	if cfg.Validate().Valid {
		t.Error("expected empty state file to be rejected")
	}
}

func TestValidateRejectsBadURLs(t *testing.T) {
	cfg := validConfig()
	cfg.Hyperliquid.APIURL = "ftp://api.hyperliquid.xyz"
	if cfg.Validate().Valid {
		t.Error("expected non-http API URL to be rejected")
	}

	cfg = validConfig()
	cfg.Hyperliquid.UseWebSocket = true
	cfg.Hyperliquid.WSURL = "https://api.hyperliquid.xyz/ws"
	if cfg.Validate().Valid {
		t.Error("expected non-ws URL to be rejected when streaming is on")
	}

	// WSURL is not checked when streaming is off.
	cfg = validConfig()
	cfg.Hyperliquid.UseWebSocket = false
	cfg.Hyperliquid.WSURL = "bogus"
	if !cfg.Validate().Valid {
		t.Error("expected ws URL to be ignored when streaming is off")
	}
}

func TestValidateRejectsBadHealthPort(t *testing.T) {
	cfg := validConfig()
	cfg.HealthServer.Port = 0
	if cfg.Validate().Valid {
		t.Error("expected port 0 to be rejected")
	}

	cfg = validConfig()
	cfg.HealthServer.Enabled = false
	cfg.HealthServer.Port = 0
	if !cfg.Validate().Valid {
		t.Error("expected port to be ignored when server is disabled")
	}
}
