// Package geo provides the spherical geometry used to place vessels on
// their routes.
package geo

import (
	"fmt"
	"math"
)

// EarthRadius is the mean earth radius in meters.
const EarthRadius = 6371000

// Coordinate is a latitude/longitude pair in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat" bson:"lat"`
	Lng float64 `json:"lng" bson:"lng"`
}

// Valid reports whether c lies within the latitude and longitude ranges.
func (c Coordinate) Valid() bool {
	return c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

func (c Coordinate) String() string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}

// Distance returns the great-circle distance between a and b in meters,
// computed with the haversine formula.
func Distance(a, b Coordinate) float64 {
	phi1 := a.Lat * math.Pi / 180
	phi2 := b.Lat * math.Pi / 180
	deltaPhi := (b.Lat - a.Lat) * math.Pi / 180
	deltaLambda := (b.Lng - a.Lng) * math.Pi / 180

	h := math.Sin(deltaPhi/2)*math.Sin(deltaPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(deltaLambda/2)*math.Sin(deltaLambda/2)
	c := 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))

	return EarthRadius * c
}

// ClosestPoint finds the point of line closest to target. It returns the
// index of that point and its distance in meters, or -1 if line is empty.
// Ties keep the earliest point.
func ClosestPoint(line []Coordinate, target Coordinate) (int, float64) {
	minIdx := -1
	minDist := math.MaxFloat64

	for i, c := range line {
		if d := Distance(c, target); d < minDist {
			minDist = d
			minIdx = i
		}
	}
	if minIdx < 0 {
		return -1, 0
	}
	return minIdx, minDist
}

// Length returns the length of line in meters.
func Length(line []Coordinate) float64 {
	var total float64
	for i := 1; i < len(line); i++ {
		total += Distance(line[i-1], line[i])
	}
	return total
}
