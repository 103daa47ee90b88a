package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// chdir moves into dir for the duration of the test so no stray config
// or .env file is picked up
func chdir(t *testing.T, dir string) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

func TestLoad_Defaults(t *testing.T) {
	// Arrange
	chdir(t, t.TempDir())

	// Act
	cfg, err := Load("")

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "DietCompass", cfg.App.Name)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, RateLimitConfig{RequestsPerMin: 60, Burst: 10}, cfg.Server.RateLimit)
	assert.Equal(t, "sqlite", cfg.Storage.Backend)
	assert.Equal(t, 40, cfg.Planning.CatalogSliceSize)
	assert.Contains(t, cfg.Planning.FlexibleProfiles, "kid-friendly")
	assert.InDelta(t, 1.0, cfg.Scoring.Weights.Sum(), 1e-9)
	assert.Equal(t, "localhost:6379", cfg.GetRedisAddr())
}

func TestLoad_FileAndEnvOverride(t *testing.T) {
	// Arrange
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
server:
  port: 9000
  rate_limit:
    requests_per_min: 5
storage:
  backend: memory
planning:
  history_limit: 3
`), 0o600))
	t.Setenv("DIETCOMPASS_SERVER_PORT", "9100")

	// Act
	cfg, err := Load(path)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, "memory", cfg.Storage.Backend)
	assert.Equal(t, 3, cfg.Planning.HistoryLimit)
	assert.Equal(t, 5, cfg.Server.RateLimit.RequestsPerMin)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "defaults are valid", mutate: func(*Config) {}},
		{
			name:    "weights must sum to one",
			mutate:  func(c *Config) { c.Scoring.Weights.HeartHealth = 0.5 },
			wantErr: "must sum to 1.0",
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Storage.Backend = "etcd" },
			wantErr: "Backend",
		},
		{
			name:    "namespace without separator",
			mutate:  func(c *Config) { c.Storage.Namespace = "a:b" },
			wantErr: "Namespace",
		},
		{
			name:    "port range",
			mutate:  func(c *Config) { c.Server.Port = 70000 },
			wantErr: "Port",
		},
		{
			name:    "sampling rate range",
			mutate:  func(c *Config) { c.Monitoring.SamplingRate = 2 },
			wantErr: "SamplingRate",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)

			err := cfg.Validate()

			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
