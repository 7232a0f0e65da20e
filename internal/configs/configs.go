/*
Package configs is responsible for loading and parsing the client's configuration settings.

Settings come from operating system environment variables (optionally seeded from a
.env file by the entry point): the running environment, the backend wire contract,
the REST and real-time base URLs, the identity store backend and request pacing.
*/
package configs

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// VariantPrefixed is the /api-prefixed JSON contract with "username" fields and roles.
	VariantPrefixed = "prefixed"

	// VariantLegacy is the unprefixed contract using "nombre_usuario" and no roles.
	VariantLegacy = "legacy"

	// DefaultBackendOrigin is the local backend used when no URL is configured.
	DefaultBackendOrigin = "http://localhost:5001"
)

// AppConfig contains all configuration parameters required for the client to run.
type AppConfig struct {
	// General Settings
	Environment string
	LogLevel    string

	// Backend Settings
	APIVariant     string
	APIBaseURL     string
	SocketURL      string
	Transports     []string
	RequestTimeout time.Duration

	// Pacing Settings
	APIRateLimit float64
	APIRateBurst int

	// Identity Store Settings
	IdentityStore     string
	IdentityStorePath string
}

// IsDevelopment reports whether the client runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig reads and parses the configuration from environment variables.
// It provides defaults for each item and validates the result.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Settings ---
	cfg.Environment = os.Getenv("ENVIRONMENT")
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	cfg.LogLevel = os.Getenv("LOG_LEVEL")

	// --- Backend Settings ---
	cfg.APIVariant = strings.ToLower(os.Getenv("API_VARIANT"))
	if cfg.APIVariant == "" {
		cfg.APIVariant = VariantPrefixed
	}
	if cfg.APIVariant != VariantPrefixed && cfg.APIVariant != VariantLegacy {
		return nil, fmt.Errorf("invalid API_VARIANT %q: expected %q or %q", cfg.APIVariant, VariantPrefixed, VariantLegacy)
	}

	apiBaseEnv := os.Getenv("API_BASE_URL")
	cfg.APIBaseURL = apiBaseEnv
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = DefaultBackendOrigin
		if cfg.APIVariant == VariantPrefixed {
			cfg.APIBaseURL += "/api"
		}
	}
	if err := validateHTTPURL("API_BASE_URL", cfg.APIBaseURL); err != nil {
		return nil, err
	}

	// The real-time endpoint shares the REST base when only that one is set.
	cfg.SocketURL = os.Getenv("SOCKET_URL")
	if cfg.SocketURL == "" {
		if apiBaseEnv != "" {
			cfg.SocketURL = originOf(apiBaseEnv)
		} else {
			cfg.SocketURL = DefaultBackendOrigin
		}
	}
	if err := validateHTTPURL("SOCKET_URL", cfg.SocketURL); err != nil {
		return nil, err
	}

	cfg.Transports = []string{"websocket", "polling"}
	if transportsStr := os.Getenv("REALTIME_TRANSPORTS"); transportsStr != "" {
		cfg.Transports = nil
		for _, t := range strings.Split(transportsStr, ",") {
			trimmed := strings.ToLower(strings.TrimSpace(t))
			if trimmed == "" {
				continue
			}
			if trimmed != "websocket" && trimmed != "polling" {
				return nil, fmt.Errorf("invalid REALTIME_TRANSPORTS entry %q", trimmed)
			}
			cfg.Transports = append(cfg.Transports, trimmed)
		}
		if len(cfg.Transports) == 0 {
			return nil, fmt.Errorf("REALTIME_TRANSPORTS must name at least one transport")
		}
	}

	timeoutStr := os.Getenv("REQUEST_TIMEOUT_SECONDS")
	if timeoutStr == "" {
		timeoutStr = "15"
	}
	timeoutSecs, err := strconv.Atoi(timeoutStr)
	if err != nil {
		return nil, fmt.Errorf("invalid REQUEST_TIMEOUT_SECONDS environment variable: %w", err)
	}
	if timeoutSecs <= 0 {
		return nil, fmt.Errorf("REQUEST_TIMEOUT_SECONDS must be positive, got %d", timeoutSecs)
	}
	cfg.RequestTimeout = time.Duration(timeoutSecs) * time.Second

	// --- Pacing Settings ---
	if rateStr := os.Getenv("API_RATE_LIMIT"); rateStr != "" {
		r, err := strconv.ParseFloat(rateStr, 64)
		if err != nil || r < 0 {
			return nil, fmt.Errorf("invalid API_RATE_LIMIT environment variable: %q", rateStr)
		}
		cfg.APIRateLimit = r
	}

	cfg.APIRateBurst = 1
	if burstStr := os.Getenv("API_RATE_BURST"); burstStr != "" {
		b, err := strconv.Atoi(burstStr)
		if err != nil || b < 1 {
			return nil, fmt.Errorf("invalid API_RATE_BURST environment variable: %q", burstStr)
		}
		cfg.APIRateBurst = b
	}

	// --- Identity Store Settings ---
	cfg.IdentityStore = strings.ToLower(os.Getenv("IDENTITY_STORE"))
	if cfg.IdentityStore == "" {
		cfg.IdentityStore = "file"
	}
	switch cfg.IdentityStore {
	case "file", "sqlite", "memory":
	default:
		return nil, fmt.Errorf("invalid IDENTITY_STORE %q: expected file, sqlite or memory", cfg.IdentityStore)
	}

	cfg.IdentityStorePath = os.Getenv("IDENTITY_STORE_PATH")
	if cfg.IdentityStorePath == "" && cfg.IdentityStore != "memory" {
		name := "identity.json"
		if cfg.IdentityStore == "sqlite" {
			name = "identity.db"
		}
		cfg.IdentityStorePath = filepath.Join(configDir(), "botclient", name)
	}

	return cfg, nil
}

// configDir resolves $XDG_CONFIG_HOME, falling back to ~/.config and then the working directory.
func configDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config")
}

func validateHTTPURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s must be an absolute http(s) URL, got %q", name, raw)
	}
	if u.Host == "" {
		return fmt.Errorf("%s is missing a host: %q", name, raw)
	}
	return nil
}

// originOf returns scheme://host of raw, or raw itself when it does not parse.
func originOf(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return raw
	}
	return u.Scheme + "://" + u.Host
}
