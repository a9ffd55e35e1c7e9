package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"fuel-route-service/internal/adapters/cache"
	"fuel-route-service/internal/adapters/geocoding"
	"fuel-route-service/internal/adapters/repositories"
	"fuel-route-service/internal/adapters/routing"
	"fuel-route-service/internal/api"
	"fuel-route-service/internal/config"
	"fuel-route-service/internal/metrics"
	"fuel-route-service/internal/platform/db"
	"fuel-route-service/internal/ports"
	"fuel-route-service/internal/services"
)

// main is the application composition root.
// It wires concrete adapters (SQL catalog, caches, routing and geocoding
// providers) behind ports and starts the HTTP server.
func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		log.Fatalf("Fatal error: %v", err)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	conn, dialect, err := db.OpenFromConfig(cfg.Database)
	if err != nil {
		return err
	}
	defer conn.Close()

	ctx := context.Background()
	if err := repositories.InitSchema(ctx, conn, dialect); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	stationRepo := repositories.NewStationRepository(conn, dialect)
	var catalog interface {
		ports.StationCatalog
		ports.StationLister
	} = stationRepo
	if cfg.Catalog.InMemoryIndex {
		idx, err := repositories.NewStationIndex(ctx, stationRepo)
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}
		log.Printf("station index loaded stations=%d", idx.Len())
		catalog = idx
	}

	gaz, err := repositories.NewCityRepository(conn, dialect).LoadIndex(ctx)
	if err != nil {
		return fmt.Errorf("run: %w", err)
	}
	if gaz.Len() == 0 {
		log.Println("city gazetteer is empty; local geocoding will miss (run dbtool import-cities)")
	}

	routeCache, geocodeCache, closeCache, err := buildCaches(ctx, cfg, conn, dialect)
	if err != nil {
		return err
	}
	defer closeCache()

	router, err := buildRouteProvider(cfg.Routing, routeCache)
	if err != nil {
		return err
	}

	geocoders := []ports.Geocoder{geocoding.NewLocal(gaz)}
	if cfg.Geocoding.RemoteEnabled {
		nominatim, err := geocoding.NewNominatim(
			cfg.Geocoding.NominatimBaseURL,
			cfg.Geocoding.UserAgent,
			cfg.Geocoding.RequestsPerSecond,
			cfg.Geocoding.Timeout,
		)
		if err != nil {
			return fmt.Errorf("run: %w", err)
		}
		geocoders = append(geocoders, nominatim)
	}
	geocoder := geocoding.NewChain(geocodeCache, cfg.Geocoding.CacheTTL, geocoders...)

	var recorder metrics.PlannerRecorder = metrics.Nop{}
	var metricsHandler http.Handler
	if cfg.Metrics.Enabled {
		reg := metrics.NewRegistry()
		collector := metrics.NewPlannerMetricsCollector()
		if err := collector.Register(reg); err != nil {
			return fmt.Errorf("run: %w", err)
		}
		recorder = collector
		metricsHandler = metrics.Handler(reg)
	}

	handler := api.NewRouter(api.RouterDeps{
		Trip: services.TripDeps{
			Geocoder: geocoder,
			Router:   router,
			Catalog:  catalog,
			Metrics:  recorder,
		},
		Planner:     cfg.Planner,
		Stations:    catalog,
		Metrics:     metricsHandler,
		MetricsPath: cfg.Metrics.Path,
	})

	// Timeouts are tuned for cold-cache route planning (external API latency).
	srv := &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening addr=%s routing=%s db=%s", srv.Addr, router.Name(), dialect)
		errCh <- srv.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("run: listen: %w", err)
		}
		return nil
	case sig := <-shutdown:
		log.Printf("Received signal %v, starting graceful shutdown", sig)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("run: graceful shutdown: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// buildCaches prefers Redis when enabled and falls back to the SQL tables.
func buildCaches(
	ctx context.Context,
	cfg *config.Config,
	conn *sql.DB,
	dialect db.Dialect,
) (ports.RouteCache, ports.GeocodeCache, func(), error) {
	if !cfg.Redis.Enabled {
		return cache.NewSQLRouteCache(conn, dialect), cache.NewSQLGeocodeCache(conn, dialect), func() {}, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	rc := cache.NewRedisCache(client)

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rc.Ping(pingCtx); err != nil {
		client.Close()
		return nil, nil, nil, fmt.Errorf("run: %w", err)
	}

	closeFn := func() {
		if err := client.Close(); err != nil {
			log.Printf("close redis client: %v", err)
		}
	}
	return rc, rc, closeFn, nil
}

// buildRouteProvider wires the configured routing provider(s), each behind the route cache.
// In auto mode Mapbox is tried first when a token is configured, then OSRM.
func buildRouteProvider(cfg config.RoutingConfig, rc ports.RouteCache) (ports.RouteProvider, error) {
	osrm := routing.NewCached(
		routing.NewOSRMProvider(cfg.OSRMBaseURL, cfg.Timeout, cfg.MaxRetries),
		rc, "driving", cfg.CacheTTL,
	)

	newMapbox := func() (ports.RouteProvider, error) {
		mb, err := routing.NewMapboxProvider(cfg.MapboxBaseURL, cfg.MapboxToken, cfg.MapboxProfile, cfg.Timeout, cfg.MaxRetries)
		if err != nil {
			return nil, fmt.Errorf("run: %w", err)
		}
		return routing.NewCached(mb, rc, mb.Profile(), cfg.CacheTTL), nil
	}

	switch cfg.Provider {
	case "osrm":
		return osrm, nil
	case "mapbox":
		return newMapbox()
	default:
		if cfg.MapboxToken == "" {
			return routing.NewFallback(osrm), nil
		}
		mb, err := newMapbox()
		if err != nil {
			return nil, err
		}
		return routing.NewFallback(mb, osrm), nil
	}
}
