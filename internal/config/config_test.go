package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("AUTOTRIAGE_DEFAULT_HOURS", "")
	t.Setenv("AUTOTRIAGE_HOURS_CLAMP", "")
	t.Setenv("REDIS_DB", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 720, cfg.Autotriage.DefaultHoursRemaining)
	assert.Equal(t, 0, cfg.Autotriage.HoursClamp)
	assert.Equal(t, "helpdesk.notifications", cfg.Notification.RedisChannel)
	assert.Equal(t, "0.0.0.0:8080", cfg.App.Addr())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("AUTOTRIAGE_DEFAULT_HOURS", "48")
	t.Setenv("AUTOTRIAGE_HOURS_CLAMP", "999")
	t.Setenv("AUTOTRIAGE_LOCK_TTL_SECONDS", "10")
	t.Setenv("APP_PORT", "9000")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 48, cfg.Autotriage.DefaultHoursRemaining)
	assert.Equal(t, 999, cfg.Autotriage.HoursClamp)
	assert.Equal(t, 10*time.Second, cfg.Autotriage.LockTTL())
	assert.Equal(t, "0.0.0.0:9000", cfg.App.Addr())
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("REDIS_DB", "one")
	_, err := Load()
	require.Error(t, err)

	t.Setenv("REDIS_DB", "0")
	t.Setenv("AUTOTRIAGE_HOURS_CLAMP", "-1")
	_, err = Load()
	require.Error(t, err)
}

func TestGetEnvHelpersFallBack(t *testing.T) {
	t.Setenv("SOME_INT", "x")
	t.Setenv("SOME_BOOL", "maybe")
	assert.Equal(t, 7, getEnvAsInt("SOME_INT", 7))
	assert.True(t, getEnvAsBool("SOME_BOOL", true))
	assert.Equal(t, 0*time.Second, AppConfig{}.RequestTimeout())
}
