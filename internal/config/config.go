package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the service configuration.
type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Routing   RoutingConfig   `mapstructure:"routing"`
	Geocoding GeocodingConfig `mapstructure:"geocoding"`
	Planner   PlannerConfig   `mapstructure:"planner"`
	Catalog   CatalogConfig   `mapstructure:"catalog"`
	Metrics   MetricsConfig   `mapstructure:"metrics"`
}

type ServerConfig struct {
	Port              int           `mapstructure:"port" validate:"min=1,max=65535"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" validate:"gt=0"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

type DatabaseConfig struct {
	Driver string     `mapstructure:"driver" validate:"oneof=sqlite postgres"`
	Path   string     `mapstructure:"path"`
	URL    string     `mapstructure:"url"`
	Pool   PoolConfig `mapstructure:"pool"`
}

type PoolConfig struct {
	MaxOpen     int           `mapstructure:"max_open" validate:"min=1"`
	MaxIdle     int           `mapstructure:"max_idle" validate:"min=0"`
	MaxLifetime time.Duration `mapstructure:"max_lifetime"`
}

type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db" validate:"min=0"`
	TTL      time.Duration `mapstructure:"ttl" validate:"gt=0"`
}

type RoutingConfig struct {
	Provider      string        `mapstructure:"provider" validate:"oneof=auto osrm mapbox"`
	OSRMBaseURL   string        `mapstructure:"osrm_base_url" validate:"url"`
	MapboxBaseURL string        `mapstructure:"mapbox_base_url" validate:"url"`
	MapboxToken   string        `mapstructure:"mapbox_token"`
	MapboxProfile string        `mapstructure:"mapbox_profile" validate:"required"`
	Timeout       time.Duration `mapstructure:"timeout" validate:"gt=0"`
	MaxRetries    int           `mapstructure:"max_retries" validate:"min=1,max=10"`
	CacheTTL      time.Duration `mapstructure:"cache_ttl" validate:"gt=0"`
}

type GeocodingConfig struct {
	RemoteEnabled     bool          `mapstructure:"remote_enabled"`
	NominatimBaseURL  string        `mapstructure:"nominatim_base_url" validate:"url"`
	UserAgent         string        `mapstructure:"user_agent" validate:"required"`
	RequestsPerSecond float64       `mapstructure:"requests_per_second" validate:"gt=0"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"gt=0"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl" validate:"gt=0"`
}

type PlannerConfig struct {
	CorridorMiles             float64 `mapstructure:"corridor_miles" validate:"gt=0"`
	DefaultMaxDetourMiles     float64 `mapstructure:"default_max_detour_miles" validate:"gte=0"`
	DefaultMinStopGallons     float64 `mapstructure:"default_min_stop_gallons" validate:"gte=0"`
	DefaultStopPenalty        float64 `mapstructure:"default_stop_penalty" validate:"gte=0"`
	DefaultMPG                float64 `mapstructure:"default_mpg" validate:"gte=1"`
	DefaultMaxRangeMiles      float64 `mapstructure:"default_max_range_miles" validate:"gte=50"`
	EnforceVehicleConstraints bool    `mapstructure:"enforce_vehicle_constraints"`
}

type CatalogConfig struct {
	InMemoryIndex bool `mapstructure:"in_memory_index"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path" validate:"startswith=/"`
}

// Addr is the listen address for the HTTP server.
func (s ServerConfig) Addr() string {
	return fmt.Sprintf(":%d", s.Port)
}

// Load reads configuration with priority env > config file > defaults.
// Environment variables use the FUEL_ prefix with "." replaced by "_",
// e.g. FUEL_PLANNER_CORRIDOR_MILES. configPath may be empty.
func Load(configPath string) (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	registerDefaults(v)

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
	}

	v.SetEnvPrefix("FUEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("load config: read config file: %w", err)
		}
	}

	// Conventional unprefixed variables.
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		v.Set("database.url", dbURL)
	}
	if token := os.Getenv("MAPBOX_ACCESS_TOKEN"); token != "" {
		v.Set("routing.mapbox_token", token)
	}
	if port := os.Getenv("PORT"); port != "" {
		v.Set("server.port", port)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("load config: unmarshal: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("load config: invalid configuration: %w", err)
	}

	return &cfg, nil
}
