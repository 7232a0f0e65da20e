package configs

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnvKeys = []string{
	"ENVIRONMENT", "LOG_LEVEL", "API_VARIANT", "API_BASE_URL", "SOCKET_URL",
	"REALTIME_TRANSPORTS", "REQUEST_TIMEOUT_SECONDS", "API_RATE_LIMIT",
	"API_RATE_BURST", "IDENTITY_STORE", "IDENTITY_STORE_PATH",
}

// clearEnv blanks every variable LoadConfig reads so host settings do not leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvKeys {
		t.Setenv(key, "")
	}
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
}

func TestLoadConfig_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, VariantPrefixed, cfg.APIVariant)
	assert.Equal(t, "http://localhost:5001/api", cfg.APIBaseURL)
	assert.Equal(t, "http://localhost:5001", cfg.SocketURL)
	assert.Equal(t, []string{"websocket", "polling"}, cfg.Transports)
	assert.Equal(t, 15*time.Second, cfg.RequestTimeout)
	assert.Zero(t, cfg.APIRateLimit)
	assert.Equal(t, 1, cfg.APIRateBurst)
	assert.Equal(t, "file", cfg.IdentityStore)
	assert.Equal(t, "identity.json", filepath.Base(cfg.IdentityStorePath))
}

func TestLoadConfig_LegacyDefaultsToBareBase(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_VARIANT", "legacy")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:5001", cfg.APIBaseURL)
}

func TestLoadConfig_SocketFollowsAPIBaseOrigin(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_BASE_URL", "https://bots.example.com/api")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "https://bots.example.com/api", cfg.APIBaseURL)
	assert.Equal(t, "https://bots.example.com", cfg.SocketURL)
}

func TestLoadConfig_ExplicitValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("SOCKET_URL", "https://rt.example.com")
	t.Setenv("REALTIME_TRANSPORTS", " polling ")
	t.Setenv("REQUEST_TIMEOUT_SECONDS", "3")
	t.Setenv("API_RATE_LIMIT", "2.5")
	t.Setenv("API_RATE_BURST", "4")
	t.Setenv("IDENTITY_STORE", "sqlite")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, "https://rt.example.com", cfg.SocketURL)
	assert.Equal(t, []string{"polling"}, cfg.Transports)
	assert.Equal(t, 3*time.Second, cfg.RequestTimeout)
	assert.Equal(t, 2.5, cfg.APIRateLimit)
	assert.Equal(t, 4, cfg.APIRateBurst)
	assert.Equal(t, "identity.db", filepath.Base(cfg.IdentityStorePath))
}

func TestLoadConfig_MemoryStoreHasNoPath(t *testing.T) {
	clearEnv(t)
	t.Setenv("IDENTITY_STORE", "memory")

	cfg, err := LoadConfig()
	require.NoError(t, err)
	assert.Empty(t, cfg.IdentityStorePath)
}

func TestLoadConfig_Invalid(t *testing.T) {
	tests := []struct {
		name, key, value string
	}{
		{"unknown variant", "API_VARIANT", "graphql"},
		{"relative api base", "API_BASE_URL", "/api"},
		{"socket without host", "SOCKET_URL", "http://"},
		{"unknown transport", "REALTIME_TRANSPORTS", "websocket,carrier-pigeon"},
		{"empty transports", "REALTIME_TRANSPORTS", " , "},
		{"non-numeric timeout", "REQUEST_TIMEOUT_SECONDS", "soon"},
		{"zero timeout", "REQUEST_TIMEOUT_SECONDS", "0"},
		{"negative rate", "API_RATE_LIMIT", "-1"},
		{"zero burst", "API_RATE_BURST", "0"},
		{"unknown store", "IDENTITY_STORE", "cookies"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			cfg, err := LoadConfig()
			assert.Error(t, err)
			assert.Nil(t, cfg)
		})
	}
}
