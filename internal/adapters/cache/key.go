package cache

import (
	"strconv"
	"strings"

	"github.com/cespare/xxhash/v2"
)

// Key hashes a raw cache key into a short namespaced key such as
// "fuelroute:route:9f86d081884c7d65".
func Key(namespace, raw string) string {
	return "fuelroute:" + namespace + ":" + strconv.FormatUint(xxhash.Sum64String(raw), 16)
}

// NormalizeQuery lowercases and collapses whitespace so equivalent location
// strings share a cache entry.
func NormalizeQuery(q string) string {
	return strings.ToLower(strings.Join(strings.Fields(q), " "))
}
