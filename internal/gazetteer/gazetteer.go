// Package gazetteer resolves US "City, ST" names to approximate coordinates
// from an in-memory table of city centroids.
package gazetteer

import (
	"regexp"
	"strings"

	"fuel-route-service/internal/domain"
)

var (
	nonAlnum     = regexp.MustCompile(`[^a-z0-9 ]+`)
	whitespace   = regexp.MustCompile(`\s+`)
	cityStateRep = regexp.MustCompile(`^\s*([^,]+?)\s*,\s*([A-Za-z]{2})\s*$`)
)

// Entry is one city coordinate row.
type Entry struct {
	City      string
	State     string
	Latitude  float64
	Longitude float64
}

type cityKey struct {
	state string
	city  string
}

// Index answers city lookups. It is immutable after NewIndex and safe for
// concurrent use.
type Index struct {
	cities map[cityKey]domain.Coordinates
	states map[string]domain.Coordinates
}

// NewIndex averages duplicate city rows and precomputes a centroid per state.
func NewIndex(entries []Entry) *Index {
	type acc struct {
		lat, lon float64
		n        int
	}
	cities := make(map[cityKey]*acc, len(entries))
	states := make(map[string]*acc)

	for _, e := range entries {
		state := NormalizeState(e.State)
		city := NormalizeCity(e.City)
		if state == "" || city == "" {
			continue
		}

		k := cityKey{state: state, city: city}
		if cities[k] == nil {
			cities[k] = &acc{}
		}
		if states[state] == nil {
			states[state] = &acc{}
		}
		for _, a := range []*acc{cities[k], states[state]} {
			a.lat += e.Latitude
			a.lon += e.Longitude
			a.n++
		}
	}

	idx := &Index{
		cities: make(map[cityKey]domain.Coordinates, len(cities)),
		states: make(map[string]domain.Coordinates, len(states)),
	}
	for k, a := range cities {
		idx.cities[k] = domain.Coordinates{Lat: a.lat / float64(a.n), Lon: a.lon / float64(a.n)}
	}
	for s, a := range states {
		idx.states[s] = domain.Coordinates{Lat: a.lat / float64(a.n), Lon: a.lon / float64(a.n)}
	}
	return idx
}

// Lookup returns the city's coordinates, trying spelling variants, and falls
// back to the state centroid. exact is false for the fallback.
func (i *Index) Lookup(city, state string) (c domain.Coordinates, exact bool, ok bool) {
	if i == nil {
		return domain.Coordinates{}, false, false
	}
	st := NormalizeState(state)

	for _, v := range CityVariants(NormalizeCity(city)) {
		if c, found := i.cities[cityKey{state: st, city: v}]; found {
			return c, true, true
		}
	}

	c, ok = i.states[st]
	return c, false, ok
}

// Len reports the number of distinct cities.
func (i *Index) Len() int {
	if i == nil {
		return 0
	}
	return len(i.cities)
}

// NormalizeCity lowercases, replaces punctuation with spaces and collapses whitespace.
func NormalizeCity(s string) string {
	s = nonAlnum.ReplaceAllString(strings.ToLower(s), " ")
	return strings.TrimSpace(whitespace.ReplaceAllString(s, " "))
}

func NormalizeState(s string) string {
	return strings.ToUpper(strings.TrimSpace(s))
}

// CityVariants lists the normalized city followed by common alternate
// spellings ("st"/"saint", a trailing " city" dropped), without duplicates.
func CityVariants(normalized string) []string {
	variants := []string{normalized}
	if rest, ok := strings.CutPrefix(normalized, "st "); ok {
		variants = append(variants, "saint "+rest)
	}
	if rest, ok := strings.CutPrefix(normalized, "saint "); ok {
		variants = append(variants, "st "+rest)
	}
	if rest, ok := strings.CutSuffix(normalized, " city"); ok {
		variants = append(variants, rest)
	}

	out := variants[:0]
	seen := make(map[string]struct{}, len(variants))
	for _, v := range variants {
		if v == "" {
			continue
		}
		if _, dup := seen[v]; dup {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// ParseCityState splits "City, ST". ok is false for any other shape.
func ParseCityState(query string) (city, state string, ok bool) {
	m := cityStateRep.FindStringSubmatch(query)
	if m == nil {
		return "", "", false
	}
	return strings.TrimSpace(m[1]), strings.ToUpper(m[2]), true
}
