package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, "{}\n"))
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, ":8080", cfg.Server.Addr())
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "auto", cfg.Routing.Provider)
	assert.Equal(t, 3, cfg.Routing.MaxRetries)
	assert.Equal(t, 20*time.Second, cfg.Routing.Timeout)
	assert.False(t, cfg.Redis.Enabled)
	assert.Equal(t, 24*time.Hour, cfg.Redis.TTL)
	assert.InDelta(t, 60.0, cfg.Planner.CorridorMiles, 1e-9)
	assert.InDelta(t, 20.0, cfg.Planner.DefaultMaxDetourMiles, 1e-9)
	assert.InDelta(t, 1.5, cfg.Planner.DefaultMinStopGallons, 1e-9)
	assert.InDelta(t, 1.5, cfg.Planner.DefaultStopPenalty, 1e-9)
	assert.InDelta(t, 10.0, cfg.Planner.DefaultMPG, 1e-9)
	assert.InDelta(t, 500.0, cfg.Planner.DefaultMaxRangeMiles, 1e-9)
	assert.True(t, cfg.Planner.EnforceVehicleConstraints)
	assert.True(t, cfg.Catalog.InMemoryIndex)
	assert.Equal(t, "/metrics", cfg.Metrics.Path)
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	path := writeConfigFile(t, `
server:
  port: 9000
routing:
  provider: osrm
  timeout: 5s
planner:
  corridor_miles: 40
  enforce_vehicle_constraints: false
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "osrm", cfg.Routing.Provider)
	assert.Equal(t, 5*time.Second, cfg.Routing.Timeout)
	assert.InDelta(t, 40.0, cfg.Planner.CorridorMiles, 1e-9)
	assert.False(t, cfg.Planner.EnforceVehicleConstraints)
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "planner:\n  corridor_miles: 40\n")
	t.Setenv("FUEL_PLANNER_CORRIDOR_MILES", "75")
	t.Setenv("FUEL_REDIS_ENABLED", "true")
	t.Setenv("DATABASE_URL", "postgres://fuel@localhost/fuel")
	t.Setenv("FUEL_DATABASE_DRIVER", "postgres")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.InDelta(t, 75.0, cfg.Planner.CorridorMiles, 1e-9)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://fuel@localhost/fuel", cfg.Database.URL)
}

func TestLoad_InvalidFile(t *testing.T) {
	_, err := Load(writeConfigFile(t, "server: [not, a, map\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}

func TestLoad_ValidationFailure(t *testing.T) {
	_, err := Load(writeConfigFile(t, "routing:\n  provider: teleport\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
	assert.Contains(t, err.Error(), "Provider")
}

func validConfig(t *testing.T) *Config {
	t.Helper()
	cfg, err := Load(writeConfigFile(t, "{}\n"))
	require.NoError(t, err)
	return cfg
}

func TestValidate_CrossFieldRules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{
			name:    "postgres without url",
			mutate:  func(c *Config) { c.Database.Driver = "postgres"; c.Database.URL = "" },
			wantErr: "required_for_postgres",
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.Database.Path = " " },
			wantErr: "required_for_sqlite",
		},
		{
			name:    "mapbox without token",
			mutate:  func(c *Config) { c.Routing.Provider = "mapbox"; c.Routing.MapboxToken = "" },
			wantErr: "required_for_mapbox",
		},
		{
			name:    "range below minimum",
			mutate:  func(c *Config) { c.Planner.DefaultMaxRangeMiles = 10 },
			wantErr: "DefaultMaxRangeMiles",
		},
		{
			name:    "metrics path without slash",
			mutate:  func(c *Config) { c.Metrics.Path = "metrics" },
			wantErr: "startswith",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig(t)
			tt.mutate(cfg)
			err := Validate(cfg)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_MapboxWithToken(t *testing.T) {
	cfg := validConfig(t)
	cfg.Routing.Provider = "mapbox"
	cfg.Routing.MapboxToken = "pk.test"
	assert.NoError(t, Validate(cfg))
}
