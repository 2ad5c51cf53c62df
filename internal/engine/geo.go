package engine

import (
	"math"

	"github.com/law-makers/homeharvest/pkg/models"
)

const earthRadiusMiles = 3958.8

// BoundingBox is a lat/lon rectangle
type BoundingBox struct {
	North, South, East, West float64
}

// BoundingBoxAround returns the box enclosing a circle of radiusMiles
// around center
func BoundingBoxAround(center models.Coordinate, radiusMiles float64) BoundingBox {
	latDelta := radiusMiles / earthRadiusMiles * 180 / math.Pi
	cos := math.Cos(center.Lat * math.Pi / 180)
	if cos < 1e-6 {
		cos = 1e-6
	}
	lonDelta := latDelta / cos

	return BoundingBox{
		North: center.Lat + latDelta,
		South: center.Lat - latDelta,
		East:  center.Lon + lonDelta,
		West:  center.Lon - lonDelta,
	}
}

// DistanceMiles is the haversine distance between two points
func DistanceMiles(a, b models.Coordinate) float64 {
	toRad := math.Pi / 180
	dLat := (b.Lat - a.Lat) * toRad
	dLon := (b.Lon - a.Lon) * toRad
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Lat*toRad)*math.Cos(b.Lat*toRad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMiles * math.Asin(math.Sqrt(h))
}

// WithinRadius keeps properties inside the scope's radius. Properties
// without coordinates are dropped since they cannot be placed.
func WithinRadius(props []models.Property, scope models.ScopeSpec) []models.Property {
	if scope.Kind != models.ScopeRadius || scope.Center == nil || scope.Radius <= 0 {
		return props
	}
	out := props[:0]
	for _, p := range props {
		if p.Latitude == nil || p.Longitude == nil {
			continue
		}
		if DistanceMiles(*scope.Center, models.Coordinate{Lat: *p.Latitude, Lon: *p.Longitude}) <= scope.Radius {
			out = append(out, p)
		}
	}
	return out
}
