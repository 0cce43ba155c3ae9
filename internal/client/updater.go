package client

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/anchor/internal/geocode"
	"github.com/ukydev/anchor/internal/models"
)

// User-visible messages of the update flow.
const (
	MsgManualSuccess = "Location updated successfully!"
	MsgDeviceSuccess = "GPS Location updated successfully!"
	MsgManualFailure = "Error finding or updating location. Please check your spelling."
	MsgGPSFailure    = "GPS Error: Please turn on location."
)

var (
	ErrPlaceNotFound = errors.New("location not found")
	ErrPosition      = errors.New(MsgGPSFailure)
)

// Positioner reports the device's current position.
type Positioner interface {
	CurrentPosition(ctx context.Context) (models.Coordinates, error)
}

// Notifier shows short success and error messages to the user.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// LocationSubmitter stores a location update.
type LocationSubmitter interface {
	SetLocation(ctx context.Context, payload LocationPayload) (*models.Location, error)
}

// LocationForm is what the user typed into the update form.
type LocationForm struct {
	City      string
	State     string
	Country   string
	PlaceName string
}

// Query joins the address parts into a geocoding query.
func (f LocationForm) Query() string {
	var parts []string
	for _, p := range []string{f.City, f.State, f.Country} {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return strings.Join(parts, ", ")
}

// Payload builds the submission for a position. The country goes into the
// county field.
func (f LocationForm) Payload(at models.Coordinates) LocationPayload {
	return LocationPayload{Location: LocationFields{
		City:        strings.TrimSpace(f.City),
		State:       strings.TrimSpace(f.State),
		County:      strings.TrimSpace(f.Country),
		PlaceName:   strings.TrimSpace(f.PlaceName),
		Coordinates: at.LngLat(),
	}}
}

// LocationUpdater drives the two ways a user sets their location: typing an
// address, or using the device position.
type LocationUpdater struct {
	api        LocationSubmitter
	geocoder   geocode.Geocoder
	positioner Positioner
	notifier   Notifier
	session    *Session
	logger     *logrus.Logger
}

// NewLocationUpdater wires an updater. positioner may be nil when the device
// has no position source.
func NewLocationUpdater(api LocationSubmitter, geocoder geocode.Geocoder, positioner Positioner, notifier Notifier, session *Session, logger *logrus.Logger) *LocationUpdater {
	return &LocationUpdater{
		api:        api,
		geocoder:   geocoder,
		positioner: positioner,
		notifier:   notifier,
		session:    session,
		logger:     logger,
	}
}

// UpdateManual geocodes the typed address and submits it.
func (u *LocationUpdater) UpdateManual(ctx context.Context, form LocationForm) (*models.Location, error) {
	log := u.logger.WithFields(logrus.Fields{"component": "location_updater", "method": "UpdateManual"})

	query := form.Query()
	if query == "" {
		u.notifier.Error(MsgManualFailure)
		return nil, ErrPlaceNotFound
	}
	at, err := u.geocoder.Search(ctx, query)
	if err != nil {
		log.WithError(err).WithField("query", query).Warn("Geocoding failed")
		u.notifier.Error(MsgManualFailure)
		if errors.Is(err, geocode.ErrNoResults) {
			return nil, ErrPlaceNotFound
		}
		return nil, err
	}

	loc, err := u.submit(ctx, form.Payload(at))
	if err != nil {
		log.WithError(err).Warn("Location submission failed")
		u.notifier.Error(MsgManualFailure)
		return nil, err
	}
	u.notifier.Success(MsgManualSuccess)
	return loc, nil
}

// UpdateFromDevice submits the device position. The address comes from a
// reverse lookup when that succeeds and from the form otherwise.
func (u *LocationUpdater) UpdateFromDevice(ctx context.Context, form LocationForm) (*models.Location, error) {
	log := u.logger.WithFields(logrus.Fields{"component": "location_updater", "method": "UpdateFromDevice"})

	if u.positioner == nil {
		u.notifier.Error(MsgGPSFailure)
		return nil, ErrPosition
	}
	at, err := u.positioner.CurrentPosition(ctx)
	if err == nil {
		err = at.Validate()
	}
	if err != nil {
		log.WithError(err).Warn("Device position unavailable")
		u.notifier.Error(MsgGPSFailure)
		return nil, fmt.Errorf("%w: %v", ErrPosition, err)
	}

	if addr, err := u.geocoder.Reverse(ctx, at); err != nil {
		log.WithError(err).Warn("Reverse geocoding failed, keeping form address")
	} else {
		form.City = addr.City
		form.State = addr.State
		form.Country = addr.Country
	}

	loc, err := u.submit(ctx, form.Payload(at))
	if err != nil {
		log.WithError(err).Warn("Location submission failed")
		u.notifier.Error("Backend Error: " + submitMessage(err))
		return nil, err
	}
	u.notifier.Success(MsgDeviceSuccess)
	return loc, nil
}

// submit shows the new location in the session before the server confirms
// it and puts the old one back if the request fails.
func (u *LocationUpdater) submit(ctx context.Context, payload LocationPayload) (*models.Location, error) {
	var stored *models.Location
	err := Optimistic(ctx,
		func() func() {
			prev := u.session.SetLocation(tentativeLocation(u.session.Location(), payload))
			return func() { u.session.SetLocation(prev) }
		},
		func(ctx context.Context) error {
			loc, err := u.api.SetLocation(ctx, payload)
			if err != nil {
				return err
			}
			stored = loc
			return nil
		},
	)
	if err != nil {
		return nil, err
	}
	if stored != nil {
		u.session.SetLocation(stored)
	}
	return stored, nil
}

// tentativeLocation mirrors what the server will store when payload is
// applied on top of current.
func tentativeLocation(current *models.Location, payload LocationPayload) *models.Location {
	f := payload.Location
	loc := &models.Location{}
	if current != nil {
		loc = current
	}
	if f.City != "" {
		loc.City = f.City
	}
	if f.State != "" {
		loc.State = f.State
	}
	if f.County != "" {
		loc.County = f.County
	}
	if f.PlaceName != "" {
		loc.PlaceName = f.PlaceName
	}
	if len(f.Coordinates) == 2 {
		c := models.FromLngLat(f.Coordinates[0], f.Coordinates[1])
		loc.Coordinates = c.LatLng()
	}
	return loc
}

func submitMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return "Failed to update"
}
