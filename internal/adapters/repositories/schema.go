package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fuel-route-service/internal/platform/db"
)

// InitSchema creates the catalog and cache tables for the given dialect.
func InitSchema(ctx context.Context, conn *sql.DB, dialect db.Dialect) error {
	if conn == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for i, stmt := range schemaStatements(dialect) {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

func schemaStatements(dialect db.Dialect) []string {
	idColumn := "id INTEGER PRIMARY KEY AUTOINCREMENT"
	realType := "REAL"
	timestamp := "TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP"
	if dialect == db.Postgres {
		idColumn = "id BIGSERIAL PRIMARY KEY"
		realType = "DOUBLE PRECISION"
		timestamp = "TIMESTAMPTZ NOT NULL DEFAULT now()"
	}

	createStationsQuery := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS fuel_stations (
		%s,
		opis_truckstop_id TEXT NOT NULL,
		truckstop_name TEXT NOT NULL,
		address TEXT NOT NULL,
		city TEXT NOT NULL,
		state TEXT NOT NULL,
		rack_id TEXT NOT NULL,
		retail_price %s NOT NULL,
		latitude %s,
		longitude %s,
		imported_at %s
	);
	`, idColumn, realType, realType, realType, timestamp)

	createCitiesQuery := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS city_coordinates (
		city TEXT NOT NULL,
		state TEXT NOT NULL,
		latitude %s NOT NULL,
		longitude %s NOT NULL,
		source TEXT NOT NULL DEFAULT 'import',
		PRIMARY KEY (city, state)
	);
	`, realType, realType)

	createGeocodeCacheQuery := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS geocode_cache (
		query TEXT PRIMARY KEY,
		latitude %s NOT NULL,
		longitude %s NOT NULL,
		display_name TEXT NOT NULL,
		source TEXT NOT NULL,
		expires_at BIGINT NOT NULL
	);
	`, realType, realType)

	createRouteCacheQuery := `
	CREATE TABLE IF NOT EXISTS route_cache (
		cache_key TEXT PRIMARY KEY,
		payload TEXT NOT NULL,
		expires_at BIGINT NOT NULL
	);
	`

	return []string{
		createStationsQuery,
		createCitiesQuery,
		createGeocodeCacheQuery,
		createRouteCacheQuery,
		`CREATE INDEX IF NOT EXISTS idx_fuel_stations_state_city ON fuel_stations(state, city);`,
		`CREATE INDEX IF NOT EXISTS idx_fuel_stations_retail_price ON fuel_stations(retail_price);`,
		`CREATE INDEX IF NOT EXISTS idx_fuel_stations_lat_lon ON fuel_stations(latitude, longitude);`,
		`CREATE INDEX IF NOT EXISTS idx_city_coordinates_state_city ON city_coordinates(state, city);`,
	}
}
