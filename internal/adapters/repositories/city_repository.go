package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fuel-route-service/internal/gazetteer"
	"fuel-route-service/internal/platform/db"
)

// Stores the city coordinate gazetteer.
type CityRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewCityRepository(conn *sql.DB, dialect db.Dialect) *CityRepository {
	return &CityRepository{DB: conn, Dialect: dialect}
}

// Return every gazetteer row.
func (r *CityRepository) ListCities(ctx context.Context) ([]gazetteer.Entry, error) {
	if r.DB == nil {
		return nil, errors.New("city repository: DB is nil")
	}

	rows, err := r.DB.QueryContext(ctx, `
	SELECT
		city,
		state,
		latitude,
		longitude
	FROM city_coordinates
	ORDER BY state, city;
	`)
	if err != nil {
		return nil, fmt.Errorf("list cities: query city_coordinates table: %w", err)
	}
	defer rows.Close()

	entries := make([]gazetteer.Entry, 0, 1024)
	for rows.Next() {
		var e gazetteer.Entry
		if err := rows.Scan(&e.City, &e.State, &e.Latitude, &e.Longitude); err != nil {
			return nil, fmt.Errorf("list cities: scan row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list cities: row iteration: %w", err)
	}

	return entries, nil
}

// UpsertCities inserts or replaces gazetteer rows keyed by (city, state).
func (r *CityRepository) UpsertCities(ctx context.Context, entries []gazetteer.Entry, source string) (int, error) {
	if r.DB == nil {
		return 0, errors.New("city repository: DB is nil")
	}
	if len(entries) == 0 {
		return 0, nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("upsert cities: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, r.Dialect.Rebind(`
	INSERT INTO city_coordinates (city, state, latitude, longitude, source)
	VALUES (?, ?, ?, ?, ?)
	ON CONFLICT (city, state) DO UPDATE
	SET latitude = EXCLUDED.latitude,
		longitude = EXCLUDED.longitude,
		source = EXCLUDED.source;
	`))
	if err != nil {
		return 0, fmt.Errorf("upsert cities: prepare: %w", err)
	}
	defer stmt.Close()

	for _, e := range entries {
		if _, err := stmt.ExecContext(ctx, e.City, gazetteer.NormalizeState(e.State), e.Latitude, e.Longitude, source); err != nil {
			return 0, fmt.Errorf("upsert cities: city=%q state=%q: %w", e.City, e.State, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("upsert cities: commit: %w", err)
	}
	return len(entries), nil
}

// LoadIndex builds a gazetteer index from the stored rows.
func (r *CityRepository) LoadIndex(ctx context.Context) (*gazetteer.Index, error) {
	entries, err := r.ListCities(ctx)
	if err != nil {
		return nil, err
	}
	return gazetteer.NewIndex(entries), nil
}
