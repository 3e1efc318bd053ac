// Package geo provides great-circle distance computation between two
// latitude/longitude pairs.  It is a pure utility with no storage or
// network dependencies; event search uses it to filter and order
// results by proximity to the caller.
package geo

import "math"

// earthRadiusKm is the mean radius of the Earth used by the haversine
// formula.
const earthRadiusKm = 6371.0

// DistanceKm returns the haversine distance in kilometres between two
// coordinates.  Any of the four inputs may be nil, in which case no
// distance can be computed and ok is false.  Coordinates are degrees.
func DistanceKm(lat1, lon1, lat2, lon2 *float64) (km float64, ok bool) {
	if lat1 == nil || lon1 == nil || lat2 == nil || lon2 == nil {
		return 0, false
	}
	return distance(*lat1, *lon1, *lat2, *lon2), true
}

// distance implements the haversine formula for two points given in
// degrees.
func distance(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	dlat := (lat2 - lat1) * math.Pi / 180
	dlon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dlat/2)*math.Sin(dlat/2) +
		math.Cos(rlat1)*math.Cos(rlat2)*math.Sin(dlon/2)*math.Sin(dlon/2)
	c := 2 * math.Asin(math.Min(1, math.Sqrt(a)))
	return earthRadiusKm * c
}

// RoundKm rounds a distance to two decimal places for display.  Sorting
// must always use the full-precision value, never the rounded one.
func RoundKm(km float64) float64 {
	return math.Round(km*100) / 100
}
