package repositories

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"fuel-route-service/internal/domain"
	"fuel-route-service/internal/gazetteer"
)

// ErrCatalogNotEmpty is returned when importing prices over existing rows without clearing.
var ErrCatalogNotEmpty = errors.New("fuel_stations table is not empty; use --clear to avoid duplicate imports")

var priceColumns = []string{"OPIS Truckstop ID", "Truckstop Name", "Address", "City", "State", "Rack ID", "Retail Price"}

var cityColumns = []string{"city", "state", "latitude", "longitude"}

// ImportResult summarizes one price import.
type ImportResult struct {
	Loaded    int
	Imported  int
	Skipped   int
	Unlocated int
	Deleted   int64
}

// ReadPriceCSV parses a fuel price export. Rows whose retail price does not
// parse as a number are counted in skipped. limit > 0 caps the rows read.
func ReadPriceCSV(r io.Reader, limit int) (stations []domain.FuelStation, skipped int, err error) {
	cr, cols, err := openCSV(r, priceColumns)
	if err != nil {
		return nil, 0, fmt.Errorf("read price csv: %w", err)
	}

	read := 0
	for limit <= 0 || read < limit {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read price csv: line %d: %w", read+2, err)
		}
		read++

		field := func(name string) string { return strings.TrimSpace(rec[cols[name]]) }

		price, err := strconv.ParseFloat(field("Retail Price"), 64)
		if err != nil {
			skipped++
			continue
		}

		stations = append(stations, domain.FuelStation{
			OPISID:      field("OPIS Truckstop ID"),
			Name:        field("Truckstop Name"),
			Address:     field("Address"),
			City:        field("City"),
			State:       gazetteer.NormalizeState(field("State")),
			RackID:      field("Rack ID"),
			RetailPrice: price,
		})
	}

	return stations, skipped, nil
}

// ReadCityCSV parses a city,state,latitude,longitude gazetteer file. Rows
// with unparsable coordinates are counted in skipped.
func ReadCityCSV(r io.Reader) (entries []gazetteer.Entry, skipped int, err error) {
	cr, cols, err := openCSV(r, cityColumns)
	if err != nil {
		return nil, 0, fmt.Errorf("read city csv: %w", err)
	}

	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("read city csv: line %d: %w", line, err)
		}

		lat, latErr := strconv.ParseFloat(strings.TrimSpace(rec[cols["latitude"]]), 64)
		lon, lonErr := strconv.ParseFloat(strings.TrimSpace(rec[cols["longitude"]]), 64)
		city := strings.TrimSpace(rec[cols["city"]])
		state := strings.TrimSpace(rec[cols["state"]])
		if latErr != nil || lonErr != nil || city == "" || state == "" {
			skipped++
			continue
		}

		entries = append(entries, gazetteer.Entry{City: city, State: state, Latitude: lat, Longitude: lon})
	}

	return entries, skipped, nil
}

// ImportPrices resolves station coordinates through idx and stores them.
// Without clear it refuses to write into a non-empty catalog.
func ImportPrices(
	ctx context.Context,
	repo *StationRepository,
	idx *gazetteer.Index,
	stations []domain.FuelStation,
	clear bool,
) (ImportResult, error) {
	res := ImportResult{Loaded: len(stations)}

	if clear {
		n, err := repo.DeleteAll(ctx)
		if err != nil {
			return res, fmt.Errorf("import prices: %w", err)
		}
		res.Deleted = n
	} else {
		n, err := repo.Count(ctx)
		if err != nil {
			return res, fmt.Errorf("import prices: %w", err)
		}
		if n > 0 {
			return res, ErrCatalogNotEmpty
		}
	}

	for i := range stations {
		c, _, ok := idx.Lookup(stations[i].City, stations[i].State)
		if !ok {
			res.Unlocated++
			continue
		}
		lat, lon := c.Lat, c.Lon
		stations[i].Latitude = &lat
		stations[i].Longitude = &lon
	}

	n, err := repo.InsertStations(ctx, stations)
	if err != nil {
		return res, fmt.Errorf("import prices: %w", err)
	}
	res.Imported = n
	return res, nil
}

// openCSV reads the header row and maps each required column to its index.
// Every later row must have as many fields as the header.
func openCSV(r io.Reader, required []string) (*csv.Reader, map[string]int, error) {
	cr := csv.NewReader(r)

	header, err := cr.Read()
	if err != nil {
		return nil, nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			return nil, nil, fmt.Errorf("missing column %q", name)
		}
	}

	return cr, cols, nil
}
