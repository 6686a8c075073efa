package domain

import (
	"fmt"
	"math"
)

// GeoPoint represents a geographic coordinate (WGS 84).
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Validate reports ErrInvalidCoordinate for NaN or out-of-range values.
func (p GeoPoint) Validate() error {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || p.Lat < -90 || p.Lat > 90 || p.Lon < -180 || p.Lon > 180 {
		return fmt.Errorf("%w: lat=%v lon=%v", ErrInvalidCoordinate, p.Lat, p.Lon)
	}
	return nil
}

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// BoundsOf returns the smallest box containing every marker position.
// ok is false when markers is empty.
func BoundsOf(markers []Marker) (b Bounds, ok bool) {
	for i, m := range markers {
		if i == 0 {
			b = Bounds{MinLat: m.Position.Lat, MinLon: m.Position.Lon, MaxLat: m.Position.Lat, MaxLon: m.Position.Lon}
			continue
		}
		b.MinLat = math.Min(b.MinLat, m.Position.Lat)
		b.MinLon = math.Min(b.MinLon, m.Position.Lon)
		b.MaxLat = math.Max(b.MaxLat, m.Position.Lat)
		b.MaxLon = math.Max(b.MaxLon, m.Position.Lon)
	}
	return b, len(markers) > 0
}
