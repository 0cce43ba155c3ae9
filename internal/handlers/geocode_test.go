package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/ukydev/anchor/internal/geocode"
	"github.com/ukydev/anchor/internal/models"
)

// MockGeocoder is a mock implementation of geocode.Geocoder
type MockGeocoder struct {
	mock.Mock
}

func (m *MockGeocoder) Search(ctx context.Context, query string) (models.Coordinates, error) {
	args := m.Called(ctx, query)
	return args.Get(0).(models.Coordinates), args.Error(1)
}

func (m *MockGeocoder) Reverse(ctx context.Context, at models.Coordinates) (*geocode.Address, error) {
	args := m.Called(ctx, at)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*geocode.Address), args.Error(1)
}

func TestGeocodeHandler_Search(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		g := new(MockGeocoder)
		g.On("Search", mock.Anything, "Pune, India").Return(models.FromLngLat(73.85, 18.52), nil)

		w := httptest.NewRecorder()
		NewGeocodeHandler(g, nil, testLogger()).Search(w, httptest.NewRequest("GET", "/geocode/search?q=Pune,+India", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"query":"Pune, India","lat":18.52,"lng":73.85}`, w.Body.String())
	})

	t.Run("no match", func(t *testing.T) {
		g := new(MockGeocoder)
		g.On("Search", mock.Anything, "Atlantis").Return(models.Coordinates{}, geocode.ErrNoResults)

		w := httptest.NewRecorder()
		NewGeocodeHandler(g, nil, testLogger()).Search(w, httptest.NewRequest("GET", "/geocode/search?q=Atlantis", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("upstream down", func(t *testing.T) {
		g := new(MockGeocoder)
		g.On("Search", mock.Anything, mock.Anything).Return(models.Coordinates{}, assert.AnError)

		w := httptest.NewRecorder()
		NewGeocodeHandler(g, nil, testLogger()).Search(w, httptest.NewRequest("GET", "/geocode/search?q=Pune", nil))
		assert.Equal(t, http.StatusBadGateway, w.Code)
	})

	t.Run("missing query", func(t *testing.T) {
		g := new(MockGeocoder)
		w := httptest.NewRecorder()
		NewGeocodeHandler(g, nil, testLogger()).Search(w, httptest.NewRequest("GET", "/geocode/search?q=+", nil))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		g.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
	})
}

func TestGeocodeHandler_Reverse(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		g := new(MockGeocoder)
		g.On("Reverse", mock.Anything, models.FromLngLat(73.85, 18.52)).
			Return(&geocode.Address{City: "Pune", State: "Maharashtra", Country: "India"}, nil)

		w := httptest.NewRecorder()
		NewGeocodeHandler(g, nil, testLogger()).Reverse(w, httptest.NewRequest("GET", "/geocode/reverse?lat=18.52&lng=73.85", nil))
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"city":"Pune"`)
	})

	t.Run("invalid coordinates", func(t *testing.T) {
		for _, q := range []string{"lat=&lng=1", "lat=91&lng=0", "lat=1&lng=east"} {
			g := new(MockGeocoder)
			w := httptest.NewRecorder()
			NewGeocodeHandler(g, nil, testLogger()).Reverse(w, httptest.NewRequest("GET", "/geocode/reverse?"+q, nil))
			assert.Equal(t, http.StatusBadRequest, w.Code, q)
		}
	})
}

type stubPurger struct {
	removed int
	err     error
}

func (p stubPurger) Purge(context.Context) (int, error) {
	return p.removed, p.err
}

func TestGeocodeHandler_PurgeCache(t *testing.T) {
	t.Run("reports removed entries", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewGeocodeHandler(new(MockGeocoder), stubPurger{removed: 3}, testLogger()).
			PurgeCache(w, httptest.NewRequest("DELETE", "/geocode/cache", nil))

		assert.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `{"message":"Geocode cache purged","removed":3}`, w.Body.String())
	})

	t.Run("no cache configured", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewGeocodeHandler(new(MockGeocoder), nil, testLogger()).
			PurgeCache(w, httptest.NewRequest("DELETE", "/geocode/cache", nil))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("purge failure", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewGeocodeHandler(new(MockGeocoder), stubPurger{err: assert.AnError}, testLogger()).
			PurgeCache(w, httptest.NewRequest("DELETE", "/geocode/cache", nil))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
	})

	t.Run("wrong method", func(t *testing.T) {
		w := httptest.NewRecorder()
		NewGeocodeHandler(new(MockGeocoder), stubPurger{}, testLogger()).
			PurgeCache(w, httptest.NewRequest("GET", "/geocode/cache", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, w.Code)
	})
}
