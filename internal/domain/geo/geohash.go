// Package geo implements geohash bucketing used for approximate locality search.
package geo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/mmcloughlin/geohash"
)

const base32 = "0123456789bcdefghjkmnpqrstuvwxyz"

// StoredPrecision is the geohash length persisted on every record.
const StoredPrecision = 9

// MaxPrefixLength bounds caller-supplied prefixes.
const MaxPrefixLength = StoredPrecision

// ErrInvalidCoordinates is returned for latitude/longitude out of range.
var ErrInvalidCoordinates = errors.New("invalid coordinates")

// ValidateCoordinates checks lat in [-90,90] and lng in [-180,180].
func ValidateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return fmt.Errorf("%w: latitude %g out of range", ErrInvalidCoordinates, lat)
	}
	if lng < -180 || lng > 180 {
		return fmt.Errorf("%w: longitude %g out of range", ErrInvalidCoordinates, lng)
	}
	return nil
}

// Encode returns the geohash of (lat, lng) with the given number of characters.
func Encode(lat, lng float64, precision int) string {
	if precision <= 0 {
		return ""
	}
	return geohash.EncodeWithPrecision(lat, lng, uint(precision))
}

// Box is the lat/lng rectangle covered by a geohash cell.
type Box = geohash.Box

// Decode returns the cell covered by hash.
func Decode(hash string) (Box, error) {
	if !ValidPrefix(hash) {
		return Box{}, fmt.Errorf("invalid geohash %q", hash)
	}
	return geohash.BoundingBox(hash), nil
}

// ValidPrefix reports whether p is a lower-case geohash of 1..MaxPrefixLength characters.
func ValidPrefix(p string) bool {
	if p == "" || len(p) > MaxPrefixLength {
		return false
	}
	for i := 0; i < len(p); i++ {
		if strings.IndexByte(base32, p[i]) < 0 {
			return false
		}
	}
	return true
}

// neighbor offsets in cell units: N, NE, E, SE, S, SW, W, NW.
var offsets = [8][2]float64{
	{1, 0}, {1, 1}, {0, 1}, {-1, 1},
	{-1, 0}, {-1, -1}, {0, -1}, {1, -1},
}

// Neighbors returns the adjacent same-precision cells clockwise from north.
// Longitude wraps at the antimeridian; cells beyond a pole are omitted, which
// geohash.Neighbors does not do.
func Neighbors(hash string) ([]string, error) {
	box, err := Decode(hash)
	if err != nil {
		return nil, err
	}
	lat, lng := box.Center()
	dLat := box.MaxLat - box.MinLat
	dLng := box.MaxLng - box.MinLng

	out := make([]string, 0, len(offsets))
	for _, o := range offsets {
		nLat := lat + o[0]*dLat
		if nLat > 90 || nLat < -90 {
			continue
		}
		nLng := lng + o[1]*dLng
		if nLng > 180 {
			nLng -= 360
		} else if nLng < -180 {
			nLng += 360
		}
		out = append(out, Encode(nLat, nLng, len(hash)))
	}
	return out, nil
}

// Grid returns the center cell of (lat, lng) followed by its neighbors, deduplicated.
func Grid(lat, lng float64, precision int) ([]string, error) {
	if err := ValidateCoordinates(lat, lng); err != nil {
		return nil, err
	}
	center := Encode(lat, lng, precision)
	around, err := Neighbors(center)
	if err != nil {
		return nil, err
	}
	seen := map[string]struct{}{center: {}}
	cells := []string{center}
	for _, c := range around {
		if _, ok := seen[c]; ok {
			continue
		}
		seen[c] = struct{}{}
		cells = append(cells, c)
	}
	return cells, nil
}

// PrecisionForRadius picks a cell size so that a 3x3 grid roughly covers radiusKm.
func PrecisionForRadius(radiusKm float64) int {
	switch {
	case radiusKm <= 1:
		return 6
	case radiusKm <= 5:
		return 5
	case radiusKm <= 25:
		return 4
	default:
		return 3
	}
}
