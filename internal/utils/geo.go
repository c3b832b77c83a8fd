package utils

import (
	"math"

	"clean-street/internal/models"
)

const earthRadiusKm = 6371

// CalculateDistance returns the great-circle distance in kilometres
// between two GeoJSON points (haversine).
func CalculateDistance(p1, p2 models.GeoPoint) float64 {
	lat1Rad := toRadians(p1.Latitude())
	lon1Rad := toRadians(p1.Longitude())
	lat2Rad := toRadians(p2.Latitude())
	lon2Rad := toRadians(p2.Longitude())

	deltaLat := lat2Rad - lat1Rad
	deltaLon := lon2Rad - lon1Rad

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

// ValidCoordinates reports whether lat/lon lie on the globe.
func ValidCoordinates(latitude, longitude float64) bool {
	if math.IsNaN(latitude) || math.IsNaN(longitude) {
		return false
	}
	return latitude >= -90 && latitude <= 90 && longitude >= -180 && longitude <= 180
}

// Round rounds v to the given number of decimal places.
func Round(v float64, places int) float64 {
	scale := math.Pow(10, float64(places))
	return math.Round(v*scale) / scale
}

func toRadians(degrees float64) float64 {
	return degrees * (math.Pi / 180)
}
