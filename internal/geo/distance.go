package geo

import (
	"math"

	"github.com/ukydev/anchor/internal/models"
)

// EarthRadiusKm is the radius used to turn linear distances into angular
// radii for $centerSphere queries.
const EarthRadiusKm = 6378.1

// DefaultRangeKm is the search radius used when a caller gives none.
const DefaultRangeKm = 10.0

// AngularRadius converts a distance in kilometres to radians.
func AngularRadius(km float64) float64 {
	return km / EarthRadiusKm
}

// DistanceKm returns the great-circle distance between two points.
func DistanceKm(a, b models.Coordinates) float64 {
	dLat := toRad(b.Lat - a.Lat)
	dLng := toRad(b.Lng - a.Lng)
	lat1 := toRad(a.Lat)
	lat2 := toRad(b.Lat)

	s := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(s), math.Sqrt(1-s))
	return EarthRadiusKm * c
}

// Within reports whether p lies inside the circle of radiusKm around center.
func Within(center, p models.Coordinates, radiusKm float64) bool {
	return DistanceKm(center, p) <= radiusKm
}

// Offset moves a point by the given distances, north and east, in kilometres.
func Offset(p models.Coordinates, northKm, eastKm float64) models.Coordinates {
	kmPerDegLat := math.Pi * EarthRadiusKm / 180
	kmPerDegLng := kmPerDegLat * math.Cos(toRad(p.Lat))
	return models.Coordinates{
		Lat: p.Lat + northKm/kmPerDegLat,
		Lng: p.Lng + eastKm/kmPerDegLng,
	}
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
