// Package place defines the normalized in-memory representation of one saved
// place, independent of the input format it came from.
package place

import (
	"math"

	geom "github.com/twpayne/go-geom"
)

// Status tracks where a record is in its resolution lifecycle.
type Status int

const (
	// StatusUnresolved means the record arrived without usable coordinates.
	StatusUnresolved Status = iota
	// StatusResolved means coordinates are present, either from input or
	// from a successful lookup.
	StatusResolved
	// StatusFailed means every lookup attempt ended in a terminal failure.
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusUnresolved:
		return "unresolved"
	case StatusResolved:
		return "resolved"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Lat float64
	Lon float64
}

// Valid reports whether both components are finite and within range.
func (c Coordinates) Valid() bool {
	if math.IsNaN(c.Lat) || math.IsInf(c.Lat, 0) ||
		math.IsNaN(c.Lon) || math.IsInf(c.Lon, 0) {
		return false
	}
	return c.Lat >= -90 && c.Lat <= 90 && c.Lon >= -180 && c.Lon <= 180
}

// IsNullIsland reports whether the pair sits at exactly (0, 0), which Google
// Maps exports use as a placeholder for missing coordinate data.
func (c Coordinates) IsNullIsland() bool {
	return c.Lat == 0 && c.Lon == 0
}

// Record is one saved place. Index is the position in the input sequence and
// doubles as the record identity when merging lookup outcomes back in; it is
// never mutated. Coords and Status are written exactly once after resolution.
type Record struct {
	Index   int
	Name    string
	Locator string // map-service URL; empty means search by Name
	Note    string
	Comment string
	Props   map[string]any // foreign GeoJSON properties, passed through

	// Geometry carries non-point input geometry verbatim. Records with a
	// non-point geometry are pass-through: there is nothing to resolve.
	Geometry geom.T

	Coords     *Coordinates
	Status     Status
	FailReason string // set when Status == StatusFailed

	// FromLookup marks coordinates that came out of the resolution engine
	// rather than the input file.
	FromLookup bool
}

// NeedsLookup reports whether the record must go through the resolution
// engine. Records that carried coordinates on input are authoritative and are
// never re-queried.
func (r *Record) NeedsLookup() bool {
	return r.Coords == nil && r.Geometry == nil
}

// Query returns the lookup query for the record. The locator URL is
// authoritative when present; the display name is the fallback for records
// that never had a URL (CSV rows with an empty URL column, shapefile points).
func (r *Record) Query() string {
	if r.Locator != "" {
		return r.Locator
	}
	return r.Name
}
