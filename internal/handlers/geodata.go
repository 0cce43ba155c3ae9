package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/anchor/internal/geodata"
	"github.com/ukydev/anchor/internal/middleware"
	"github.com/ukydev/anchor/internal/models"
)

// GeodataHandler exposes the proximity operations over HTTP.
type GeodataHandler struct {
	service *geodata.Service
	logger  *logrus.Logger
}

// NewGeodataHandler creates a new geodata handler
func NewGeodataHandler(service *geodata.Service, logger *logrus.Logger) *GeodataHandler {
	return &GeodataHandler{service: service, logger: logger}
}

type locationResponse struct {
	Location *models.Location `json:"location"`
}

type updateLocationResponse struct {
	Message  string           `json:"message"`
	Location *models.Location `json:"location"`
}

// Nearby handles GET /user/connect/nearby?lat=&lng=&rangeKm=
func (h *GeodataHandler) Nearby(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	q := r.URL.Query()
	query, err := geodata.ParseNearbyQuery(q.Get("lat"), q.Get("lng"), q.Get("rangeKm"))
	if err != nil {
		h.fail(w, r, err)
		return
	}

	result, err := h.service.Nearby(r.Context(), callerID(r), query)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// GetLocation handles GET /user/userlocation
func (h *GeodataHandler) GetLocation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	loc, err := h.service.GetLocation(r.Context(), callerID(r))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, locationResponse{Location: loc})
}

// SetLocation handles POST /user/connect/usergeodata
func (h *GeodataHandler) SetLocation(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req geodata.SetLocationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	loc, err := h.service.SetLocation(r.Context(), callerID(r), req.Input())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, updateLocationResponse{
		Message:  "User location updated",
		Location: loc,
	})
}

func (h *GeodataHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := geodata.StatusCode(err)
	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", r.URL.Path).Error("Geodata request failed")
	}
	writeError(w, status, geodata.Message(err))
}

func callerID(r *http.Request) string {
	if claims, ok := middleware.GetUserFromContext(r.Context()); ok {
		return claims.UserID
	}
	return ""
}
