package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/platform/db"
	"fuel-route-service/internal/platform/obs"
	"fuel-route-service/internal/ports"
)

const stationColumns = `
		id,
		opis_truckstop_id,
		truckstop_name,
		address,
		city,
		state,
		rack_id,
		retail_price,
		latitude,
		longitude`

// SQL-backed implementation of the StationCatalog port for SQLite and Postgres.
type StationRepository struct {
	DB      *sql.DB
	Dialect db.Dialect
}

func NewStationRepository(conn *sql.DB, dialect db.Dialect) *StationRepository {
	return &StationRepository{DB: conn, Dialect: dialect}
}

// Return located stations inside bounds.
func (s *StationRepository) ListStationsInBounds(
	ctx context.Context,
	bounds domain.BoundingBox,
) (_ []domain.FuelStation, err error) {
	defer obs.Time(ctx, "stations.ListStationsInBounds")(&err)

	if s.DB == nil {
		return nil, errors.New("station repository: DB is nil")
	}

	query := s.Dialect.Rebind(`
	SELECT` + stationColumns + `
	FROM fuel_stations
	WHERE latitude IS NOT NULL
		AND longitude IS NOT NULL
		AND latitude BETWEEN ? AND ?
		AND longitude BETWEEN ? AND ?;
	`)

	rows, err := s.DB.QueryContext(ctx, query, bounds.MinLat, bounds.MaxLat, bounds.MinLon, bounds.MaxLon)
	if err != nil {
		return nil, fmt.Errorf("list stations in bounds: query fuel_stations table: %w", err)
	}
	defer rows.Close()

	return scanStations(rows, "list stations in bounds")
}

// Return the average retail price across the catalog.
func (s *StationRepository) AveragePrice(ctx context.Context) (float64, bool, error) {
	if s.DB == nil {
		return 0, false, errors.New("station repository: DB is nil")
	}

	var avg sql.NullFloat64
	err := s.DB.QueryRowContext(ctx, `SELECT AVG(retail_price) FROM fuel_stations;`).Scan(&avg)
	if err != nil {
		return 0, false, fmt.Errorf("average price: query fuel_stations table: %w", err)
	}
	return avg.Float64, avg.Valid, nil
}

// Return stations ordered by price, optionally filtered by state.
func (s *StationRepository) ListStations(
	ctx context.Context,
	filter ports.StationFilter,
) (_ []domain.FuelStation, err error) {
	defer obs.Time(ctx, "stations.ListStations")(&err)

	if s.DB == nil {
		return nil, errors.New("station repository: DB is nil")
	}

	var (
		where []string
		args  []any
	)
	if st := strings.TrimSpace(filter.State); st != "" {
		where = append(where, "state = ?")
		args = append(args, strings.ToUpper(st))
	}

	query := `
	SELECT` + stationColumns + `
	FROM fuel_stations`
	if len(where) > 0 {
		query += "\n\tWHERE " + strings.Join(where, " AND ")
	}
	query += "\n\tORDER BY retail_price, id"
	if filter.Limit > 0 {
		query += "\n\tLIMIT ?"
		args = append(args, filter.Limit)
	}

	rows, err := s.DB.QueryContext(ctx, s.Dialect.Rebind(query+";"), args...)
	if err != nil {
		return nil, fmt.Errorf("list stations: query fuel_stations table: %w", err)
	}
	defer rows.Close()

	return scanStations(rows, "list stations")
}

// Return every located station. Used to build the in-memory index.
func (s *StationRepository) ListLocatedStations(ctx context.Context) ([]domain.FuelStation, error) {
	if s.DB == nil {
		return nil, errors.New("station repository: DB is nil")
	}

	rows, err := s.DB.QueryContext(ctx, `
	SELECT`+stationColumns+`
	FROM fuel_stations
	WHERE latitude IS NOT NULL AND longitude IS NOT NULL
	ORDER BY id;
	`)
	if err != nil {
		return nil, fmt.Errorf("list located stations: query fuel_stations table: %w", err)
	}
	defer rows.Close()

	return scanStations(rows, "list located stations")
}

// Count returns the number of catalog rows.
func (s *StationRepository) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM fuel_stations;`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count stations: %w", err)
	}
	return n, nil
}

// InsertStations stores stations in one transaction and returns how many were written.
func (s *StationRepository) InsertStations(ctx context.Context, stations []domain.FuelStation) (int, error) {
	if s.DB == nil {
		return 0, errors.New("station repository: DB is nil")
	}
	if len(stations) == 0 {
		return 0, nil
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("insert stations: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, s.Dialect.Rebind(`
	INSERT INTO fuel_stations (
		opis_truckstop_id,
		truckstop_name,
		address,
		city,
		state,
		rack_id,
		retail_price,
		latitude,
		longitude
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);
	`))
	if err != nil {
		return 0, fmt.Errorf("insert stations: prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, st := range stations {
		if _, err := stmt.ExecContext(ctx,
			st.OPISID, st.Name, st.Address, st.City, st.State, st.RackID,
			st.RetailPrice, nullFloat(st.Latitude), nullFloat(st.Longitude),
		); err != nil {
			return 0, fmt.Errorf("insert stations: row %d opis_id=%q: %w", i+1, st.OPISID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("insert stations: commit tx: %w", err)
	}
	return len(stations), nil
}

// DeleteAll clears the catalog and returns the number of rows removed.
func (s *StationRepository) DeleteAll(ctx context.Context) (int64, error) {
	res, err := s.DB.ExecContext(ctx, `DELETE FROM fuel_stations;`)
	if err != nil {
		return 0, fmt.Errorf("delete stations: %w", err)
	}
	return res.RowsAffected()
}

func scanStations(rows *sql.Rows, op string) ([]domain.FuelStation, error) {
	stations := make([]domain.FuelStation, 0, 64)
	for rows.Next() {
		var (
			st       domain.FuelStation
			lat, lon sql.NullFloat64
		)
		err := rows.Scan(
			&st.ID, &st.OPISID, &st.Name, &st.Address, &st.City, &st.State,
			&st.RackID, &st.RetailPrice, &lat, &lon,
		)
		if err != nil {
			return nil, fmt.Errorf("%s: scan row: %w", op, err)
		}
		if lat.Valid && lon.Valid {
			st.Latitude = &lat.Float64
			st.Longitude = &lon.Float64
		}
		stations = append(stations, st)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: row iteration: %w", op, err)
	}

	return stations, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}
