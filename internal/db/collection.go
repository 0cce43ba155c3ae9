package db

import (
	"context"
	"errors"

	"github.com/ukydev/anchor/internal/models"
)

var (
	ErrUserNotFound  = errors.New("user not found")
	ErrInvalidUserID = errors.New("invalid user id")
	ErrDuplicateUser = errors.New("user already exists")
)

// UserCollection defines the interface for user database operations.
type UserCollection interface {
	InsertUser(ctx context.Context, user models.User) (*models.User, error)
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	FindUserByUsername(ctx context.Context, username string) (*models.User, error)
	FindUserByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateLastLogin(ctx context.Context, id string) error
	LocationCollection
}

// LocationCollection defines the location operations on users.
type LocationCollection interface {
	FindLocation(ctx context.Context, userID string) (*models.Location, error)
	SetLocation(ctx context.Context, userID string, update models.LocationUpdate) (*models.Location, error)
	FindUsersWithin(ctx context.Context, excludeID string, center models.Coordinates, radians float64) ([]models.NearbyUser, error)
}
