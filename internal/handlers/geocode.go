package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/anchor/internal/geocode"
	"github.com/ukydev/anchor/internal/models"
)

// CachePurger empties a geocoding cache.
type CachePurger interface {
	Purge(ctx context.Context) (int, error)
}

// GeocodeHandler proxies place lookups so browsers share one cache.
type GeocodeHandler struct {
	geocoder geocode.Geocoder
	purger   CachePurger
	logger   *logrus.Logger
}

// NewGeocodeHandler creates a new geocode handler. purger may be nil when no
// cache is configured.
func NewGeocodeHandler(geocoder geocode.Geocoder, purger CachePurger, logger *logrus.Logger) *GeocodeHandler {
	return &GeocodeHandler{geocoder: geocoder, purger: purger, logger: logger}
}

type searchResponse struct {
	Query string  `json:"query"`
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
}

// Search handles GET /geocode/search?q=
func (h *GeocodeHandler) Search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	q := strings.TrimSpace(r.URL.Query().Get("q"))
	if q == "" {
		writeError(w, http.StatusBadRequest, "q is required")
		return
	}

	coords, err := h.geocoder.Search(r.Context(), q)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, searchResponse{Query: q, Lat: coords.Lat, Lng: coords.Lng})
}

// Reverse handles GET /geocode/reverse?lat=&lng=
func (h *GeocodeHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	q := r.URL.Query()
	lat, errLat := strconv.ParseFloat(strings.TrimSpace(q.Get("lat")), 64)
	lng, errLng := strconv.ParseFloat(strings.TrimSpace(q.Get("lng")), 64)
	at := models.FromLngLat(lng, lat)
	if errLat != nil || errLng != nil || at.Validate() != nil {
		writeError(w, http.StatusBadRequest, "lat and lng must be valid coordinates")
		return
	}

	addr, err := h.geocoder.Reverse(r.Context(), at)
	if err != nil {
		h.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, addr)
}

// PurgeCache handles DELETE /geocode/cache
func (h *GeocodeHandler) PurgeCache(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	if h.purger == nil {
		writeError(w, http.StatusNotFound, "Geocode cache not configured")
		return
	}

	removed, err := h.purger.Purge(r.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to purge geocode cache")
		writeError(w, http.StatusInternalServerError, "Internal server error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Geocode cache purged",
		"removed": removed,
	})
}

func (h *GeocodeHandler) fail(w http.ResponseWriter, err error) {
	if errors.Is(err, geocode.ErrNoResults) {
		writeError(w, http.StatusNotFound, "No matching place found")
		return
	}
	h.logger.WithError(err).Error("Geocoding failed")
	writeError(w, http.StatusBadGateway, "Geocoding service unavailable")
}
