package geodata

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/ukydev/anchor/internal/db"
	"github.com/ukydev/anchor/internal/geo"
	"github.com/ukydev/anchor/internal/models"
)

// Publisher announces location changes to interested parties.
type Publisher interface {
	PublishLocationChanged(ctx context.Context, event models.LocationChanged) error
}

// NearbyResult is the response of a proximity search.
type NearbyResult struct {
	Count int                 `json:"count"`
	Users []models.NearbyUser `json:"users"`
}

// Service implements location storage, retrieval and proximity search.
type Service struct {
	store     db.LocationCollection
	publisher Publisher
	logger    *logrus.Logger
}

// NewService creates a geodata service. publisher may be nil.
func NewService(store db.LocationCollection, publisher Publisher, logger *logrus.Logger) *Service {
	return &Service{
		store:     store,
		publisher: publisher,
		logger:    logger,
	}
}

// Nearby returns every user other than the requester whose location lies
// within q.RangeKm of q.Center.
func (s *Service) Nearby(ctx context.Context, requesterID string, q NearbyQuery) (*NearbyResult, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service":  "geodata",
		"method":   "Nearby",
		"user_id":  requesterID,
		"lat":      q.Center.Lat,
		"lng":      q.Center.Lng,
		"range_km": q.RangeKm,
	})
	if requesterID == "" {
		return nil, newError(ErrUnauthorized, "Unauthorized")
	}

	users, err := s.store.FindUsersWithin(ctx, requesterID, q.Center, geo.AngularRadius(q.RangeKm))
	if err != nil {
		if errors.Is(err, db.ErrInvalidUserID) {
			log.WithError(err).Warn("Rejected nearby query with malformed identity")
			return nil, newError(ErrUnauthorized, "Unauthorized")
		}
		log.WithError(err).Error("Failed to query nearby users")
		return nil, newError(ErrInternal, "Internal server error")
	}
	if users == nil {
		users = []models.NearbyUser{}
	}

	log.WithField("count", len(users)).Debug("Nearby users found")
	return &NearbyResult{Count: len(users), Users: users}, nil
}

// GetLocation returns the caller's stored location. A location without any
// populated field counts as not set.
func (s *Service) GetLocation(ctx context.Context, userID string) (*models.Location, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "geodata",
		"method":  "GetLocation",
		"user_id": userID,
	})
	if userID == "" {
		return nil, newError(ErrUnauthorized, "Unauthorized")
	}

	loc, err := s.store.FindLocation(ctx, userID)
	if err != nil {
		return nil, s.storeError(log, err, "Failed to fetch location")
	}
	if loc.IsEmpty() {
		return nil, newError(ErrNotFound, "Location not set")
	}
	return loc, nil
}

// SetLocation validates a submission and writes only the fields it names.
// Nothing is written when any part of the submission is invalid.
func (s *Service) SetLocation(ctx context.Context, userID string, in LocationInput) (*models.Location, error) {
	log := s.logger.WithFields(logrus.Fields{
		"service": "geodata",
		"method":  "SetLocation",
		"user_id": userID,
	})
	if userID == "" {
		return nil, newError(ErrUnauthorized, "Unauthorized")
	}

	update, err := ParseLocationUpdate(in)
	if err != nil {
		log.WithError(err).Warn("Rejected location update")
		return nil, err
	}

	loc, err := s.store.SetLocation(ctx, userID, update)
	if err != nil {
		return nil, s.storeError(log, err, "Failed to update location")
	}
	if loc == nil {
		loc = &models.Location{}
	}
	log.Info("User location updated")

	s.publish(ctx, log, userID, *loc)
	return loc, nil
}

func (s *Service) publish(ctx context.Context, log *logrus.Entry, userID string, loc models.Location) {
	if s.publisher == nil {
		return
	}
	event := models.LocationChanged{
		UserID:    userID,
		Location:  loc,
		UpdatedAt: time.Now().UTC(),
	}
	if err := s.publisher.PublishLocationChanged(ctx, event); err != nil {
		log.WithError(err).Warn("Failed to publish location change")
	}
}

func (s *Service) storeError(log *logrus.Entry, err error, msg string) error {
	switch {
	case errors.Is(err, db.ErrUserNotFound):
		log.WithError(err).Warn("User not found")
		return newError(ErrNotFound, "User not found")
	case errors.Is(err, db.ErrInvalidUserID):
		log.WithError(err).Warn("Malformed identity")
		return newError(ErrUnauthorized, "Unauthorized")
	default:
		log.WithError(err).Error(msg)
		return newError(ErrInternal, "Internal server error")
	}
}
