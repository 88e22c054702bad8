package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, BackendFile, cfg.StorageBackend)
	assert.Equal(t, "data/polls", cfg.DataDir)
	assert.Equal(t, 5*time.Minute, cfg.AutosaveInterval)
	assert.Equal(t, 3, cfg.SaveMaxAttempts)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("STORAGE_BACKEND", "redis")
	t.Setenv("REDIS_URL", "redis://localhost:6379/2")
	t.Setenv("AUTOSAVE_INTERVAL", "30s")
	t.Setenv("SAVE_MAX_ATTEMPTS", "5")
	t.Setenv("LOG_FORMAT", "json")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, BackendRedis, cfg.StorageBackend)
	assert.Equal(t, "redis://localhost:6379/2", cfg.RedisURL)
	assert.Equal(t, 30*time.Second, cfg.AutosaveInterval)
	assert.Equal(t, 5, cfg.SaveMaxAttempts)
	assert.Equal(t, "json", cfg.LogFormat)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown backend",
			env:     map[string]string{"STORAGE_BACKEND": "s3"},
			wantErr: `STORAGE_BACKEND must be one of file, redis, postgres, got "s3"`,
		},
		{
			name:    "redis without url",
			env:     map[string]string{"STORAGE_BACKEND": "redis", "REDIS_URL": ""},
			wantErr: "REDIS_URL is required for the redis backend",
		},
		{
			name:    "postgres without url",
			env:     map[string]string{"STORAGE_BACKEND": "postgres", "DATABASE_URL": ""},
			wantErr: "DATABASE_URL is required for the postgres backend",
		},
		{
			name:    "autosave too fast",
			env:     map[string]string{"AUTOSAVE_INTERVAL": "100ms"},
			wantErr: "AUTOSAVE_INTERVAL must be at least 1s, got 100ms",
		},
		{
			name:    "zero attempts",
			env:     map[string]string{"SAVE_MAX_ATTEMPTS": "0"},
			wantErr: "SAVE_MAX_ATTEMPTS must be at least 1, got 0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load()
			require.Error(t, err)
			assert.Equal(t, tt.wantErr, err.Error())
		})
	}
}
