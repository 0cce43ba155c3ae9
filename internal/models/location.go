package models

import (
	"errors"
	"math"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var (
	ErrCoordinatesShape      = errors.New("coordinates must be [longitude, latitude]")
	ErrCoordinatesOutOfRange = errors.New("coordinates are invalid. longitude must be -180..180 and latitude must be -90..90")
)

// Coordinates is a geographic position.
//
// Three orders meet here and nowhere else:
//   - submissions carry [longitude, latitude]
//   - the user document stores and returns [latitude, longitude]
//   - the indexed GeoJSON point is [longitude, latitude]
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// FromLngLat builds coordinates from a submission pair.
func FromLngLat(lng, lat float64) Coordinates {
	return Coordinates{Lat: lat, Lng: lng}
}

// LngLat returns the pair in submission order.
func (c Coordinates) LngLat() []float64 { return []float64{c.Lng, c.Lat} }

// LatLng returns the pair in storage order.
func (c Coordinates) LatLng() []float64 { return []float64{c.Lat, c.Lng} }

// Point returns the GeoJSON point backing the 2dsphere index.
func (c Coordinates) Point() *GeoPoint {
	return &GeoPoint{Type: "Point", Coordinates: c.LngLat()}
}

// Validate checks that both values are finite and inside the valid ranges.
// Bounds are inclusive.
func (c Coordinates) Validate() error {
	if math.IsNaN(c.Lat) || math.IsNaN(c.Lng) || math.IsInf(c.Lat, 0) || math.IsInf(c.Lng, 0) {
		return ErrCoordinatesOutOfRange
	}
	if c.Lng < -180 || c.Lng > 180 || c.Lat < -90 || c.Lat > 90 {
		return ErrCoordinatesOutOfRange
	}
	return nil
}

// GeoPoint is a GeoJSON point.
type GeoPoint struct {
	Type        string    `bson:"type" json:"type"`
	Coordinates []float64 `bson:"coordinates" json:"coordinates"`
}

// Location is the location sub-document embedded in a user.
type Location struct {
	City      string `bson:"city,omitempty" json:"city,omitempty"`
	State     string `bson:"state,omitempty" json:"state,omitempty"`
	County    string `bson:"county,omitempty" json:"county,omitempty"`
	PlaceName string `bson:"placeName,omitempty" json:"placeName,omitempty"`
	// [latitude, longitude]
	Coordinates []float64 `bson:"coordinates,omitempty" json:"coordinates,omitempty"`
	Point       *GeoPoint `bson:"point,omitempty" json:"-"`
}

// IsEmpty reports whether no field of the location is populated.
func (l *Location) IsEmpty() bool {
	if l == nil {
		return true
	}
	return l.City == "" && l.State == "" && l.County == "" && l.PlaceName == "" &&
		len(l.Coordinates) == 0
}

// Coords decodes the stored [latitude, longitude] pair.
func (l *Location) Coords() (Coordinates, bool) {
	if l == nil || len(l.Coordinates) != 2 {
		return Coordinates{}, false
	}
	return Coordinates{Lat: l.Coordinates[0], Lng: l.Coordinates[1]}, true
}

// LocationUpdate is a validated partial location write. Empty strings and a
// nil Coordinates mean "leave untouched".
type LocationUpdate struct {
	City        string
	State       string
	County      string
	PlaceName   string
	Coordinates *Coordinates
}

// IsEmpty reports whether the update names no field.
func (u LocationUpdate) IsEmpty() bool {
	return u.City == "" && u.State == "" && u.County == "" && u.PlaceName == "" && u.Coordinates == nil
}

// NearbyUser is the public projection returned by proximity queries.
type NearbyUser struct {
	ID       primitive.ObjectID `bson:"_id" json:"id"`
	Name     string             `bson:"name" json:"name"`
	Username string             `bson:"username" json:"username"`
	Avatar   string             `bson:"avatar" json:"avatar"`
	Location Location           `bson:"location" json:"location"`
}

// LocationChanged is published after a user's location is written.
type LocationChanged struct {
	UserID    string    `json:"user_id"`
	Location  Location  `json:"location"`
	UpdatedAt time.Time `json:"updated_at"`
}
