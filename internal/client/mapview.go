package client

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/anchor/internal/geo"
	"github.com/ukydev/anchor/internal/models"
)

// NearbyRangeKm is the search radius the map asks for.
const NearbyRangeKm = 50.0

// MapState is the lifecycle of a map render.
type MapState string

const (
	MapIdle    MapState = "idle"
	MapLoading MapState = "loading"
	MapSuccess MapState = "success"
	MapEmpty   MapState = "empty"
	MapError   MapState = "error"
)

// Marker is one pin on the map.
type Marker struct {
	ID         string
	Lat        float64
	Lng        float64
	Tooltip    string
	Username   string
	Place      string
	Avatar     models.Avatar
	Image      string
	DistanceKm float64
	Self       bool
}

// NearbyFetcher runs a proximity search.
type NearbyFetcher interface {
	Nearby(ctx context.Context, center models.Coordinates, rangeKm float64) (*NearbyResponse, error)
}

// LocationGetter fetches the caller's stored location.
type LocationGetter interface {
	GetLocation(ctx context.Context) (*models.Location, error)
}

// MapView turns the caller's position and the nearby users into markers.
type MapView struct {
	fetcher NearbyFetcher
	logger  *logrus.Logger
	rangeKm float64

	mu      sync.RWMutex
	state   MapState
	markers []Marker
	self    *Marker
}

// NewMapView creates an idle map view.
func NewMapView(fetcher NearbyFetcher, logger *logrus.Logger) *MapView {
	return &MapView{
		fetcher: fetcher,
		logger:  logger,
		rangeKm: NearbyRangeKm,
		state:   MapIdle,
	}
}

// OwnPosition returns the caller's stored coordinates as [longitude,
// latitude], or nil when no usable location is stored or it cannot be
// fetched.
func OwnPosition(ctx context.Context, g LocationGetter, logger *logrus.Logger) []float64 {
	loc, err := g.GetLocation(ctx)
	if err != nil {
		var apiErr *APIError
		if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound {
			logger.WithError(err).Warn("Failed to fetch own location")
		}
		return nil
	}
	c, ok := loc.Coords()
	if !ok {
		return nil
	}
	return c.LngLat()
}

// Render fetches users near own, given as [longitude, latitude], and
// returns their markers. Without a position nothing is fetched and the view
// stays idle. Fetch failures are logged and produce no markers.
func (v *MapView) Render(ctx context.Context, own []float64) []Marker {
	if len(own) != 2 {
		v.set(MapIdle, nil, nil)
		return nil
	}
	center := models.Coordinates{Lat: own[1], Lng: own[0]}
	self := &Marker{
		Lat:     center.Lat,
		Lng:     center.Lng,
		Tooltip: "You are here",
		Self:    true,
	}
	v.set(MapLoading, nil, self)

	resp, err := v.fetcher.Nearby(ctx, center, v.rangeKm)
	if err != nil {
		v.logger.WithError(err).Warn("Failed to fetch nearby users")
		v.set(MapError, nil, self)
		return []Marker{}
	}

	markers := make([]Marker, 0, len(resp.Users))
	for i, u := range resp.Users {
		pos, ok := u.Location.Coords()
		if !ok {
			continue
		}
		avatar := ResolveAvatar(u.Avatar, i)
		tooltip := u.Name
		if tooltip == "" {
			tooltip = u.Username
		}
		place := u.Location.PlaceName
		if place == "" {
			place = u.Location.City
		}
		markers = append(markers, Marker{
			ID:         u.ID.Hex(),
			Lat:        pos.Lat,
			Lng:        pos.Lng,
			Tooltip:    tooltip,
			Username:   u.Username,
			Place:      place,
			Avatar:     avatar,
			Image:      AvatarSource(avatar),
			DistanceKm: geo.DistanceKm(center, pos),
		})
	}

	state := MapSuccess
	if len(markers) == 0 {
		state = MapEmpty
	}
	v.set(state, markers, self)
	return markers
}

func (v *MapView) set(state MapState, markers []Marker, self *Marker) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.state = state
	v.markers = markers
	v.self = self
}

func (v *MapView) State() MapState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return v.state
}

// Markers returns the markers of the last render, excluding the caller.
func (v *MapView) Markers() []Marker {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return append([]Marker(nil), v.markers...)
}

// Self returns the caller's marker, or nil while idle.
func (v *MapView) Self() *Marker {
	v.mu.RLock()
	defer v.mu.RUnlock()
	if v.self == nil {
		return nil
	}
	m := *v.self
	return &m
}
