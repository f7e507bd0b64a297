package geo

import (
	"math"

	"roadmech/pkg/errors"
)

const earthRadiusMeters = 6371000.0

// Point is a WGS84 coordinate pair.
type Point struct {
	Latitude  float64 `json:"latitude" firestore:"latitude"`
	Longitude float64 `json:"longitude" firestore:"longitude"`
}

// Validate rejects out-of-range coordinates and the (0,0) sentinel that
// browsers send when geolocation fails. The same rule applies to booking,
// towing and profile locations.
func (p Point) Validate() error {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return errors.BadRequest("Invalid location coordinates", nil)
	}
	if p.Latitude == 0 && p.Longitude == 0 {
		return errors.BadRequest("Invalid location coordinates. Cannot be (0, 0)", nil)
	}
	if p.Latitude < -90 || p.Latitude > 90 || p.Longitude < -180 || p.Longitude > 180 {
		return errors.BadRequest("Location coordinates out of range", nil)
	}
	return nil
}

func (p Point) IsZero() bool {
	return p.Latitude == 0 && p.Longitude == 0
}

// Distance returns the great-circle distance between two points in meters.
func Distance(a, b Point) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return earthRadiusMeters * c
}
