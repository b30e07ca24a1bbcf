package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadEnvConfig(t *testing.T) {
	saved := DefaultEnvConfig
	t.Cleanup(func() { DefaultEnvConfig = saved })

	t.Setenv("APP_PORT", "9090")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("EXPORT_WINDOW_SIZE", "-1")
	t.Setenv("IMPORT_MAX_UPLOAD_MB", "64")
	t.Setenv("DB_CONN_MAX_LIFETIME", "90s")

	require.NoError(t, LoadEnvConfig())
	assert.Equal(t, "9090", DefaultEnvConfig.APP_PORT)
	assert.Equal(t, 6543, DefaultEnvConfig.DB_PORT)
	assert.Equal(t, -1, DefaultEnvConfig.EXPORT_WINDOW_SIZE)
	assert.Equal(t, int64(64), DefaultEnvConfig.IMPORT_MAX_UPLOAD_MB)
	assert.Equal(t, 90*time.Second, DefaultEnvConfig.DB_CONN_MAX_LIFETIME)
	assert.Equal(t, "disable", DefaultEnvConfig.DB_SSL_MODE)
}

func TestLoadEnvConfigRejectsBadNumbers(t *testing.T) {
	saved := DefaultEnvConfig
	t.Cleanup(func() { DefaultEnvConfig = saved })

	t.Setenv("IMPORT_WORKERS", "many")
	assert.Error(t, LoadEnvConfig())
}
