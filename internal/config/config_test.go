package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearServerEnv(t *testing.T) {
	for _, key := range []string{
		"ENV", "HTTP_ADDR", "DB_DSN", "MIGRATIONS", "REDIS_ADDR", "REDIS_PASSWORD",
		"REDIS_CHANNEL", "JWT_SECRET", "TELEGRAM_TOKEN", "WS_WRITE_TIMEOUT", "WS_BUFFER_SIZE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearServerEnv(t)

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Environment)
	assert.Equal(t, ":8000", cfg.HTTPAddr)
	assert.True(t, cfg.UseMemoryStore())
	assert.True(t, cfg.Migrations)
	assert.Equal(t, 5*time.Second, cfg.WSWriteTimeout)
	assert.Equal(t, 100, cfg.WSBufferSize)
	assert.Equal(t, "mentorship:frames", cfg.RedisChannel)
}

func TestLoadOverrides(t *testing.T) {
	clearServerEnv(t)
	t.Setenv("MIGRATIONS", "off")
	t.Setenv("WS_WRITE_TIMEOUT", "2s")
	t.Setenv("WS_BUFFER_SIZE", "16")
	t.Setenv("DB_DSN", "postgres://localhost/mentorship")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Migrations)
	assert.Equal(t, 2*time.Second, cfg.WSWriteTimeout)
	assert.Equal(t, 16, cfg.WSBufferSize)
	assert.False(t, cfg.UseMemoryStore())
}

func TestLoadRejectsMemoryStoreInProduction(t *testing.T) {
	clearServerEnv(t)
	t.Setenv("ENV", EnvProduction)
	t.Setenv("JWT_SECRET", "secret")

	_, err := Load()
	assert.ErrorContains(t, err, "DB_DSN")
}

func TestLoadRejectsBadValues(t *testing.T) {
	cases := map[string]string{
		"MIGRATIONS":       "maybe",
		"WS_WRITE_TIMEOUT": "soon",
		"WS_BUFFER_SIZE":   "0",
	}
	for key, value := range cases {
		t.Run(key, func(t *testing.T) {
			clearServerEnv(t)
			t.Setenv(key, value)
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadClient(t *testing.T) {
	t.Setenv("ENV", "")
	t.Setenv("API_BASE_URL", "https://api.example.com/")
	t.Setenv("WS_BASE_URL", "")
	t.Setenv("USER_ID", "42")
	t.Setenv("USER_ROLE", "")
	t.Setenv("API_TOKEN", "")
	t.Setenv("LOCAL_DB_PATH", "")
	t.Setenv("POLL_INTERVAL", "")

	cfg, err := LoadClient()
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.com", cfg.APIBaseURL)
	assert.Equal(t, "wss://api.example.com", cfg.WSBaseURL)
	assert.Equal(t, int64(42), cfg.UserID)
	assert.Equal(t, "student", cfg.UserRole)
	assert.Equal(t, 30*time.Second, cfg.PollInterval)
}

func TestLoadClientRequiresUserID(t *testing.T) {
	t.Setenv("USER_ID", "")
	_, err := LoadClient()
	assert.ErrorContains(t, err, "USER_ID")

	t.Setenv("USER_ID", "abc")
	_, err = LoadClient()
	assert.Error(t, err)
}
