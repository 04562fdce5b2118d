package config

import (
	"fmt"
	"strings"
	"time"
)

// ValidationError represents a validation error for a specific field.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationResult holds the result of config validation.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

// Err collapses the result into a single error, or nil when valid.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	parts := make([]string, len(r.Errors))
	for i, e := range r.Errors {
		parts[i] = fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Errorf("invalid config: %s", strings.Join(parts, "; "))
}

// Validate checks the config for invalid values.
func (c *Config) Validate() ValidationResult {
	var errors []ValidationError

	errors = append(errors, validateWatcher(&c.Watcher)...)
	errors = append(errors, validateState(&c.State)...)
	errors = append(errors, validateHyperliquid(&c.Hyperliquid)...)
	errors = append(errors, validateHealthServer(&c.HealthServer)...)

	return ValidationResult{
		Valid:  len(errors) == 0,
		Errors: errors,
	}
}

func validateWatcher(w *WatcherConfig) []ValidationError {
	var errors []ValidationError

	if len(w.Addresses) == 0 {
		errors = append(errors, ValidationError{
			Field:   "watcher.addresses",
			Message: "at least one wallet address is required",
		})
	}
	for _, addr := range w.Addresses {
		if !isHexAddress(addr) {
			errors = append(errors, ValidationError{
				Field:   "watcher.addresses",
				Message: fmt.Sprintf("%q is not a 42-character hex address", addr),
			})
		}
	}

	if w.Interval < 1*time.Second {
		errors = append(errors, ValidationError{
			Field:   "watcher.interval",
			Message: "must be at least 1 second",
		})
	}

	if w.AggregationWindow < w.Interval {
		errors = append(errors, ValidationError{
			Field:   "watcher.aggregation_window",
			Message: "must be at least the poll interval",
		})
	}

	if w.MinTradeValue < 0 {
		errors = append(errors, ValidationError{
			Field:   "watcher.min_trade_value",
			Message: "must be non-negative",
		})
	}

	return errors
}

func validateState(s *StateConfig) []ValidationError {
	var errors []ValidationError

	if strings.TrimSpace(s.FilePath) == "" {
		errors = append(errors, ValidationError{
			Field:   "state.file_path",
			Message: "must not be empty",
		})
	}

	return errors
}

func validateHyperliquid(h *HyperliquidConfig) []ValidationError {
	var errors []ValidationError

	if !strings.HasPrefix(h.APIURL, "http://") && !strings.HasPrefix(h.APIURL, "https://") {
		errors = append(errors, ValidationError{
			Field:   "hyperliquid.api_url",
			Message: "must be an http(s) URL",
		})
	}

	if h.UseWebSocket && !strings.HasPrefix(h.WSURL, "ws://") && !strings.HasPrefix(h.WSURL, "wss://") {
		errors = append(errors, ValidationError{
			Field:   "hyperliquid.ws_url",
			Message: "must be a ws(s) URL",
		})
	}

	return errors
}

func validateHealthServer(hs *HealthServerConfig) []ValidationError {
	var errors []ValidationError

	if hs.Enabled && (hs.Port < 1 || hs.Port > 65535) {
		errors = append(errors, ValidationError{
			Field:   "health_server.port",
			Message: "must be between 1 and 65535",
		})
	}

	return errors
}

func isHexAddress(addr string) bool {
	if len(addr) != 42 || !strings.HasPrefix(addr, "0x") {
		return false
	}
	for _, r := range addr[2:] {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}
	return true
}
