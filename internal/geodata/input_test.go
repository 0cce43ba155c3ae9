package geodata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ukydev/anchor/internal/models"
)

func TestParseNearbyQuery(t *testing.T) {
	tests := []struct {
		name     string
		lat, lng string
		rangeKm  string
		wantErr  string
		wantKm   float64
	}{
		{"defaults range", "12.9", "77.5", "", "", 10},
		{"explicit range", "12.9", "77.5", "50", "", 50},
		{"zero range", "12.9", "77.5", "0", "", 0},
		{"padded values", " 12.9 ", " 77.5", " 2.5 ", "", 2.5},
		{"missing lat", "", "77.5", "10", msgNotNumbers, 0},
		{"missing lng", "12.9", "", "10", msgNotNumbers, 0},
		{"non numeric", "abc", "77.5", "10", msgNotNumbers, 0},
		{"NaN", "NaN", "77.5", "10", msgNotNumbers, 0},
		{"infinite range", "12.9", "77.5", "Inf", msgNotNumbers, 0},
		{"non numeric range", "12.9", "77.5", "ten", msgNotNumbers, 0},
		{"latitude out of range", "91", "77.5", "10", msgCenterRange, 0},
		{"longitude out of range", "12.9", "-181", "10", msgCenterRange, 0},
		{"negative range", "12.9", "77.5", "-1", msgNegRange, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := ParseNearbyQuery(tt.lat, tt.lng, tt.rangeKm)
			if tt.wantErr != "" {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				assert.Equal(t, tt.wantErr, Message(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantKm, q.RangeKm)
			assert.Equal(t, 12.9, q.Center.Lat)
			assert.Equal(t, 77.5, q.Center.Lng)
		})
	}
}

func TestParseLocationUpdate(t *testing.T) {
	t.Run("wrapped and bare forms", func(t *testing.T) {
		wrapped, err := ParseLocationUpdate(rawInput(t, `{"location":{"city":"Pune"}}`))
		require.NoError(t, err)
		bare, err := ParseLocationUpdate(rawInput(t, `{"city":"Pune"}`))
		require.NoError(t, err)
		assert.Equal(t, wrapped, bare)
		assert.Equal(t, "Pune", bare.City)
	})

	t.Run("trims and ignores blanks and non strings", func(t *testing.T) {
		u, err := ParseLocationUpdate(rawInput(t,
			`{"location":{"city":"  Pune  ","state":"   ","county":42,"placeName":"Home"}}`))
		require.NoError(t, err)
		assert.Equal(t, models.LocationUpdate{City: "Pune", PlaceName: "Home"}, u)
	})

	t.Run("coordinates become lng lat pair", func(t *testing.T) {
		u, err := ParseLocationUpdate(rawInput(t, `{"location":{"coordinates":[77.5,12.9]}}`))
		require.NoError(t, err)
		require.NotNil(t, u.Coordinates)
		assert.Equal(t, 77.5, u.Coordinates.Lng)
		assert.Equal(t, 12.9, u.Coordinates.Lat)
		assert.Equal(t, []float64{12.9, 77.5}, u.Coordinates.LatLng())
	})

	t.Run("numeric strings are coerced", func(t *testing.T) {
		u, err := ParseLocationUpdate(rawInput(t, `{"coordinates":["77.5"," 12.9 "]}`))
		require.NoError(t, err)
		assert.Equal(t, models.FromLngLat(77.5, 12.9), *u.Coordinates)
	})

	t.Run("boundaries accepted", func(t *testing.T) {
		u, err := ParseLocationUpdate(rawInput(t, `{"coordinates":[180,90]}`))
		require.NoError(t, err)
		assert.Equal(t, models.FromLngLat(180, 90), *u.Coordinates)

		_, err = ParseLocationUpdate(rawInput(t, `{"coordinates":[-180,-90]}`))
		assert.NoError(t, err)
	})

	rejected := []struct {
		name string
		body string
		msg  string
	}{
		{"empty payload", `{}`, msgNoLocationFd},
		{"only blanks", `{"location":{"city":" ","state":""}}`, msgNoLocationFd},
		{"longitude just over", `{"coordinates":[180.0001,0]}`, models.ErrCoordinatesOutOfRange.Error()},
		{"latitude just under", `{"coordinates":[0,-90.0001]}`, models.ErrCoordinatesOutOfRange.Error()},
		{"single element", `{"coordinates":[77.5]}`, models.ErrCoordinatesShape.Error()},
		{"three elements", `{"coordinates":[77.5,12.9,1]}`, models.ErrCoordinatesShape.Error()},
		{"not an array", `{"coordinates":"77.5,12.9"}`, models.ErrCoordinatesShape.Error()},
		{"null", `{"location":{"coordinates":null}}`, models.ErrCoordinatesShape.Error()},
		{"non numeric element", `{"coordinates":["east",12.9]}`, models.ErrCoordinatesOutOfRange.Error()},
		{"boolean element", `{"coordinates":[true,12.9]}`, models.ErrCoordinatesOutOfRange.Error()},
		{"empty string element", `{"coordinates":["",12.9]}`, models.ErrCoordinatesOutOfRange.Error()},
		{"valid city with bad coordinates", `{"city":"Pune","coordinates":[0,100]}`, models.ErrCoordinatesOutOfRange.Error()},
	}
	for _, tt := range rejected {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLocationUpdate(rawInput(t, tt.body))
			assert.ErrorIs(t, err, ErrInvalidArgument)
			assert.Equal(t, tt.msg, Message(err))
		})
	}
}

func TestStatusCode(t *testing.T) {
	assert.Equal(t, 400, StatusCode(newError(ErrInvalidArgument, "x")))
	assert.Equal(t, 401, StatusCode(newError(ErrUnauthorized, "x")))
	assert.Equal(t, 404, StatusCode(newError(ErrNotFound, "x")))
	assert.Equal(t, 500, StatusCode(newError(ErrInternal, "x")))
	assert.Equal(t, 500, StatusCode(assert.AnError))
	assert.Equal(t, "Internal server error", Message(assert.AnError))
}
