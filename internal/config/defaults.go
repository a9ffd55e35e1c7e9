package config

import (
	"time"

	"github.com/spf13/viper"
)

// registerDefaults sets every key so AutomaticEnv can override it on Unmarshal.
func registerDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_header_timeout", 5*time.Second)
	v.SetDefault("server.read_timeout", 10*time.Second)
	// Cold-cache plans wait on geocoding and routing upstreams.
	v.SetDefault("server.write_timeout", 120*time.Second)
	v.SetDefault("server.idle_timeout", 60*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.path", "data/app.db")
	v.SetDefault("database.url", "")
	v.SetDefault("database.pool.max_open", 10)
	v.SetDefault("database.pool.max_idle", 10)
	v.SetDefault("database.pool.max_lifetime", 30*time.Minute)

	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.ttl", 24*time.Hour)

	v.SetDefault("routing.provider", "auto")
	v.SetDefault("routing.osrm_base_url", "https://router.project-osrm.org")
	v.SetDefault("routing.mapbox_base_url", "https://api.mapbox.com")
	v.SetDefault("routing.mapbox_token", "")
	v.SetDefault("routing.mapbox_profile", "driving")
	v.SetDefault("routing.timeout", 20*time.Second)
	v.SetDefault("routing.max_retries", 3)
	v.SetDefault("routing.cache_ttl", 24*time.Hour)

	v.SetDefault("geocoding.remote_enabled", true)
	v.SetDefault("geocoding.nominatim_base_url", "https://nominatim.openstreetmap.org")
	v.SetDefault("geocoding.user_agent", "fuel-route-service/1.0")
	v.SetDefault("geocoding.requests_per_second", 1.0)
	v.SetDefault("geocoding.timeout", 10*time.Second)
	v.SetDefault("geocoding.cache_ttl", 24*time.Hour)

	v.SetDefault("planner.corridor_miles", 60.0)
	v.SetDefault("planner.default_max_detour_miles", 20.0)
	v.SetDefault("planner.default_min_stop_gallons", 1.5)
	v.SetDefault("planner.default_stop_penalty", 1.5)
	v.SetDefault("planner.default_mpg", 10.0)
	v.SetDefault("planner.default_max_range_miles", 500.0)
	v.SetDefault("planner.enforce_vehicle_constraints", true)

	v.SetDefault("catalog.in_memory_index", true)

	v.SetDefault("metrics.enabled", true)
	v.SetDefault("metrics.path", "/metrics")
}
