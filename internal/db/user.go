package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/anchor/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoUserCollection implements UserCollection for MongoDB
type MongoUserCollection struct {
	Collection *mongo.Collection
}

var nearbyProjection = bson.M{"_id": 1, "name": 1, "username": 1, "avatar": 1, "location": 1}

// InsertUser inserts a new user into the database
func (c *MongoUserCollection) InsertUser(ctx context.Context, user models.User) (*models.User, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	if _, err := c.Collection.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateUser
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return &user, nil
}

// FindUserByID finds a user by their ID
func (c *MongoUserCollection) FindUserByID(ctx context.Context, id string) (*models.User, error) {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, ErrInvalidUserID
	}
	return c.findOne(ctx, bson.M{"_id": objectID})
}

// FindUserByUsername finds a user by their username
func (c *MongoUserCollection) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return c.findOne(ctx, bson.M{"username": username})
}

// FindUserByEmail finds a user by their email
func (c *MongoUserCollection) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return c.findOne(ctx, bson.M{"email": email})
}

func (c *MongoUserCollection) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	var user models.User
	err := c.Collection.FindOne(ctx, filter).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return &user, nil
}

// UpdateLastLogin updates the last login time for a user
func (c *MongoUserCollection) UpdateLastLogin(ctx context.Context, id string) error {
	objectID, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrInvalidUserID
	}

	now := time.Now()
	_, err = c.Collection.UpdateOne(
		ctx,
		bson.M{"_id": objectID},
		bson.M{"$set": bson.M{"last_login": now, "updated_at": now}},
	)
	return err
}

// FindLocation returns the stored location of a user. A user without a
// location yields a nil location and no error.
func (c *MongoUserCollection) FindLocation(ctx context.Context, userID string) (*models.Location, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrInvalidUserID
	}

	var doc struct {
		Location *models.Location `bson:"location"`
	}
	opts := options.FindOne().SetProjection(bson.M{"_id": 1, "location": 1})
	err = c.Collection.FindOne(ctx, bson.M{"_id": objectID}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("find location: %w", err)
	}
	return doc.Location, nil
}

// SetLocation writes only the fields named by update and returns the
// resulting location. Coordinates are stored as [latitude, longitude]
// alongside the GeoJSON point used by the spatial index.
func (c *MongoUserCollection) SetLocation(ctx context.Context, userID string, update models.LocationUpdate) (*models.Location, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil, ErrInvalidUserID
	}
	if update.IsEmpty() {
		return nil, fmt.Errorf("empty location update")
	}

	set := LocationSetFields(update)
	set["updated_at"] = time.Now()

	opts := options.FindOneAndUpdate().
		SetReturnDocument(options.After).
		SetProjection(bson.M{"_id": 1, "location": 1})

	var doc struct {
		Location *models.Location `bson:"location"`
	}
	err = c.Collection.FindOneAndUpdate(ctx, bson.M{"_id": objectID}, bson.M{"$set": set}, opts).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("set location: %w", err)
	}
	return doc.Location, nil
}

// LocationSetFields builds the $set document for a location update.
func LocationSetFields(update models.LocationUpdate) bson.M {
	set := bson.M{}
	if update.City != "" {
		set["location.city"] = update.City
	}
	if update.State != "" {
		set["location.state"] = update.State
	}
	if update.County != "" {
		set["location.county"] = update.County
	}
	if update.PlaceName != "" {
		set["location.placeName"] = update.PlaceName
	}
	if update.Coordinates != nil {
		set["location.coordinates"] = update.Coordinates.LatLng()
		set["location.point"] = update.Coordinates.Point()
	}
	return set
}

// NearbyFilter builds the proximity filter: every user other than excludeID
// whose location point lies within radians of center.
func NearbyFilter(excludeID primitive.ObjectID, center models.Coordinates, radians float64) bson.M {
	return bson.M{
		"_id": bson.M{"$ne": excludeID},
		"location.point": bson.M{
			"$geoWithin": bson.M{
				"$centerSphere": bson.A{center.LngLat(), radians},
			},
		},
	}
}

// FindUsersWithin returns the public projection of users near center.
func (c *MongoUserCollection) FindUsersWithin(ctx context.Context, excludeID string, center models.Coordinates, radians float64) ([]models.NearbyUser, error) {
	if c.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	objectID, err := primitive.ObjectIDFromHex(excludeID)
	if err != nil {
		return nil, ErrInvalidUserID
	}

	opts := options.Find().SetProjection(nearbyProjection)
	cursor, err := c.Collection.Find(ctx, NearbyFilter(objectID, center, radians), opts)
	if err != nil {
		return nil, fmt.Errorf("find nearby users: %w", err)
	}
	defer cursor.Close(ctx)

	users := make([]models.NearbyUser, 0)
	if err := cursor.All(ctx, &users); err != nil {
		return nil, fmt.Errorf("decode nearby users: %w", err)
	}
	return users, nil
}
