package model

import "math"

// Gate is a coordinate pair on an area boundary.
type Gate struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Area is a geographic unit supplied by the area sensor. Read-only
// from the orchestrator's perspective.
type Area struct {
	ID    AreaID `json:"id"`
	Type  string `json:"type"`
	Gates []Gate `json:"gates,omitempty"`
}

// earthRadiusKM is the mean Earth radius used for haversine distances.
const earthRadiusKM = 6371

// HaversineKM returns the great-circle distance in kilometers between
// two gates interpreted as (latitude, longitude) degree pairs.
func HaversineKM(a, b Gate) float64 {
	dLat := radians(b.X - a.X)
	dLon := radians(b.Y - a.Y)
	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(radians(a.X))*math.Cos(radians(b.X))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}
