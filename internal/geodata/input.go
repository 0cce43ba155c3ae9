package geodata

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/ukydev/anchor/internal/geo"
	"github.com/ukydev/anchor/internal/models"
)

const (
	msgNotNumbers   = "lat, lng, rangeKm must be numbers"
	msgCenterRange  = "lat must be -90..90 and lng must be -180..180"
	msgNegRange     = "rangeKm must not be negative"
	msgNoLocationFd = "Provide at least one location field: city, state, county, placeName, coordinates"
)

// NearbyQuery is a validated proximity search.
type NearbyQuery struct {
	Center  models.Coordinates
	RangeKm float64
}

// ParseNearbyQuery validates the raw lat, lng and rangeKm parameters. An
// absent rangeKm defaults to geo.DefaultRangeKm.
func ParseNearbyQuery(lat, lng, rangeKm string) (NearbyQuery, error) {
	latitude, okLat := parseFinite(lat)
	longitude, okLng := parseFinite(lng)
	km, okKm := geo.DefaultRangeKm, true
	if strings.TrimSpace(rangeKm) != "" {
		km, okKm = parseFinite(rangeKm)
	}
	if !okLat || !okLng || !okKm {
		return NearbyQuery{}, newError(ErrInvalidArgument, msgNotNumbers)
	}

	center := models.FromLngLat(longitude, latitude)
	if center.Validate() != nil {
		return NearbyQuery{}, newError(ErrInvalidArgument, msgCenterRange)
	}
	if km < 0 {
		return NearbyQuery{}, newError(ErrInvalidArgument, msgNegRange)
	}
	return NearbyQuery{Center: center, RangeKm: km}, nil
}

func parseFinite(s string) (float64, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

// LocationInput is a raw location submission. Non-string values for the
// text fields are ignored.
type LocationInput struct {
	City        any             `json:"city,omitempty"`
	State       any             `json:"state,omitempty"`
	County      any             `json:"county,omitempty"`
	PlaceName   any             `json:"placeName,omitempty"`
	Coordinates json.RawMessage `json:"coordinates,omitempty"`
}

// SetLocationRequest accepts either {"location": {...}} or the bare
// location object.
type SetLocationRequest struct {
	Location *LocationInput `json:"location"`
	LocationInput
}

// Input returns the submitted location, preferring the wrapped form.
func (r SetLocationRequest) Input() LocationInput {
	if r.Location != nil {
		return *r.Location
	}
	return r.LocationInput
}

// ParseLocationUpdate trims, coerces and validates a submission. Coordinates
// arrive as [longitude, latitude]. Any invalid part rejects the whole update.
func ParseLocationUpdate(in LocationInput) (models.LocationUpdate, error) {
	update := models.LocationUpdate{
		City:      trimIfString(in.City),
		State:     trimIfString(in.State),
		County:    trimIfString(in.County),
		PlaceName: trimIfString(in.PlaceName),
	}

	if len(in.Coordinates) > 0 {
		c, err := parseCoordinates(in.Coordinates)
		if err != nil {
			return models.LocationUpdate{}, err
		}
		update.Coordinates = &c
	}

	if update.IsEmpty() {
		return models.LocationUpdate{}, newError(ErrInvalidArgument, msgNoLocationFd)
	}
	return update, nil
}

func trimIfString(v any) string {
	s, ok := v.(string)
	if !ok {
		return ""
	}
	return strings.TrimSpace(s)
}

func parseCoordinates(raw json.RawMessage) (models.Coordinates, error) {
	var pair []json.RawMessage
	if err := json.Unmarshal(raw, &pair); err != nil || len(pair) != 2 {
		return models.Coordinates{}, newError(ErrInvalidArgument, models.ErrCoordinatesShape.Error())
	}

	lng, okLng := coerceNumber(pair[0])
	lat, okLat := coerceNumber(pair[1])
	if !okLng || !okLat {
		return models.Coordinates{}, newError(ErrInvalidArgument, models.ErrCoordinatesOutOfRange.Error())
	}

	c := models.FromLngLat(lng, lat)
	if err := c.Validate(); err != nil {
		return models.Coordinates{}, newError(ErrInvalidArgument, err.Error())
	}
	return c, nil
}

// coerceNumber accepts JSON numbers and numeric strings.
func coerceNumber(raw json.RawMessage) (float64, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		return parseFinite(s)
	case 'n', 't', 'f', '[', '{':
		return 0, false
	}
	var v float64
	if err := json.Unmarshal(raw, &v); err != nil {
		return 0, false
	}
	return v, true
}
