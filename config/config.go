package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Environment
	IsProd bool `json:"is_prod"`

	// Watcher behavior
	Watcher WatcherConfig `json:"watcher"`

	// Durable event ledger
	State StateConfig `json:"state"`

	// Hyperliquid API
	Hyperliquid HyperliquidConfig `json:"hyperliquid"`

	// Discord
	Discord DiscordConfig `json:"discord"`

	// Telegram
	Telegram TelegramConfig `json:"telegram"`

	// Health server
	HealthServer HealthServerConfig `json:"health_server"`
}

// WatcherConfig holds the polling and aggregation settings.
type WatcherConfig struct {
	Addresses         []string      `json:"addresses"`          // Wallet addresses to watch
	Interval          time.Duration `json:"interval"`           // Poll cadence per cycle
	AggregationWindow time.Duration `json:"aggregation_window"` // How long to buffer events before summarizing
	MinTradeValue     float64       `json:"min_trade_value"`    // Accepted and validated; no filter is wired to it yet
	EvictFilled       bool          `json:"evict_filled"`       // Remove filled orders from active tracking
}

// StateConfig holds the event ledger persistence settings.
type StateConfig struct {
	FilePath string `json:"file_path"`
}

// HyperliquidConfig holds Hyperliquid API configuration.
type HyperliquidConfig struct {
	APIURL       string `json:"api_url"`
	WSURL        string `json:"ws_url"`
	UseWebSocket bool   `json:"use_websocket"` // If false, rely on polling only (default)
}

// DiscordConfig holds Discord-related configuration.
type DiscordConfig struct {
	BotToken      string `json:"-"` // Excluded - env var only
	ProdChannelID string `json:"prod_channel_id"`
	BetaChannelID string `json:"beta_channel_id"`
}

// TelegramConfig holds Telegram-related configuration.
type TelegramConfig struct {
	BotToken   string `json:"-"` // Excluded - env var only
	ProdChatID string `json:"prod_chat_id"`
	BetaChatID string `json:"beta_chat_id"`
}

// HealthServerConfig holds health check server configuration.
type HealthServerConfig struct {
	Enabled bool `json:"enabled"`
	Port    int  `json:"port"`
}

// Defaults returns a config with hardcoded default values.
func Defaults() *Config {
	return &Config{
		IsProd: false,
		Watcher: WatcherConfig{
			Interval:          10 * time.Second,
			AggregationWindow: 60 * time.Second,
			MinTradeValue:     0,
			EvictFilled:       false,
		},
		State: StateConfig{
			FilePath: "data/state.json",
		},
		Hyperliquid: HyperliquidConfig{
			APIURL:       "https://api.hyperliquid.xyz",
			WSURL:        "wss://api.hyperliquid.xyz/ws",
			UseWebSocket: false,
		},
		HealthServer: HealthServerConfig{
			Enabled: true,
			Port:    8080,
		},
	}
}

// Load loads configuration from environment variables with defaults.
func Load() *Config {
	return &Config{
		IsProd: envBool("STAGE", "PROD"),

		Watcher: WatcherConfig{
			Addresses:         normalizeAddresses(envStringSlice("WATCH_ADDRESSES")),
			Interval:          envDuration("WATCH_INTERVAL", 10*time.Second),
			AggregationWindow: envDuration("AGGREGATION_WINDOW", 60*time.Second),
			MinTradeValue:     envFloat("MIN_TRADE_VALUE", 0),
			EvictFilled:       envBoolDefault("EVICT_FILLED", false),
		},

		State: StateConfig{
			FilePath: envString("STATE_FILE", "data/state.json"),
		},

		Hyperliquid: HyperliquidConfig{
			APIURL:       envString("HYPERLIQUID_API_URL", "https://api.hyperliquid.xyz"),
			WSURL:        envString("HYPERLIQUID_WS_URL", "wss://api.hyperliquid.xyz/ws"),
			UseWebSocket: envBoolDefault("USE_WEBSOCKET", false),
		},

		Discord: DiscordConfig{
			BotToken:      envString("DISCORD_BOT_TOKEN", ""),
			ProdChannelID: envString("DISCORD_PROD_CHANNEL_ID", ""),
			BetaChannelID: envString("DISCORD_BETA_CHANNEL_ID", ""),
		},

		Telegram: TelegramConfig{
			BotToken:   envString("TELEGRAM_BOT_KEY", ""),
			ProdChatID: envString("TELEGRAM_PROD_CHAT_ID", ""),
			BetaChatID: envString("TELEGRAM_BETA_CHAT_ID", ""),
		},

		HealthServer: HealthServerConfig{
			Enabled: envBoolDefault("HEALTH_SERVER_ENABLED", true),
			Port:    envInt("HEALTH_SERVER_PORT", 8080),
		},
	}
}

// Helper functions for parsing environment variables

func envString(key, defaultVal string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return defaultVal
}

func envInt(key string, defaultVal int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return defaultVal
}

func envFloat(key string, defaultVal float64) float64 {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

func envDuration(key string, defaultVal time.Duration) time.Duration {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
		// Bare numbers are treated as seconds for parity with the yaml config
		// this replaced.
		if secs, err := strconv.Atoi(v); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultVal
}

func envBool(key, trueValue string) bool {
	return strings.EqualFold(strings.TrimSpace(os.Getenv(key)), trueValue)
}

func envBoolDefault(key string, defaultVal bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return defaultVal
	}
	return strings.EqualFold(v, "true") || strings.EqualFold(v, "1") || strings.EqualFold(v, "yes")
}

func envStringSlice(key string) []string {
	val := os.Getenv(key)
	if val == "" {
		return nil
	}
	parts := strings.Split(val, ",")
	result := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			result = append(result, p)
		}
	}
	return result
}

func normalizeAddresses(addresses []string) []string {
	if addresses == nil {
		return nil
	}
	result := make([]string, len(addresses))
	for i, a := range addresses {
		result[i] = strings.ToLower(a)
	}
	return result
}
