package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/ukydev/anchor/internal/models"
)

// DefaultCacheTTL is how long a geocoding answer is reused.
const DefaultCacheTTL = 24 * time.Hour

// CachedGeocoder answers repeated lookups from Redis. Cache failures are
// logged and the lookup goes to the wrapped geocoder.
type CachedGeocoder struct {
	next   Geocoder
	rdb    *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewCachedGeocoder wraps next with a Redis cache.
func NewCachedGeocoder(next Geocoder, rdb *redis.Client, ttl time.Duration, logger *logrus.Logger) *CachedGeocoder {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedGeocoder{next: next, rdb: rdb, ttl: ttl, logger: logger}
}

// SearchKey is the cache key of a forward lookup.
func SearchKey(query string) string {
	return "geocode:search:" + strings.ToLower(strings.Join(strings.Fields(query), " "))
}

// ReverseKey is the cache key of a reverse lookup. Positions are rounded to
// about a metre.
func ReverseKey(at models.Coordinates) string {
	return fmt.Sprintf("geocode:reverse:%.5f,%.5f", at.Lat, at.Lng)
}

// Search implements Geocoder.
func (g *CachedGeocoder) Search(ctx context.Context, query string) (models.Coordinates, error) {
	key := SearchKey(query)
	var cached models.Coordinates
	if g.load(ctx, key, &cached) {
		return cached, nil
	}

	coords, err := g.next.Search(ctx, query)
	if err != nil {
		return models.Coordinates{}, err
	}
	g.store(ctx, key, coords)
	return coords, nil
}

// Reverse implements Geocoder.
func (g *CachedGeocoder) Reverse(ctx context.Context, at models.Coordinates) (*Address, error) {
	key := ReverseKey(at)
	var cached Address
	if g.load(ctx, key, &cached) {
		return &cached, nil
	}

	addr, err := g.next.Reverse(ctx, at)
	if err != nil {
		return nil, err
	}
	g.store(ctx, key, addr)
	return addr, nil
}

func (g *CachedGeocoder) load(ctx context.Context, key string, out interface{}) bool {
	val, err := g.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			g.logger.WithError(err).WithField("key", key).Warn("Geocode cache read failed")
		}
		return false
	}
	if err := json.Unmarshal(val, out); err != nil {
		g.logger.WithError(err).WithField("key", key).Warn("Discarding corrupt geocode cache entry")
		return false
	}
	return true
}

func (g *CachedGeocoder) store(ctx context.Context, key string, v interface{}) {
	val, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := g.rdb.Set(ctx, key, val, g.ttl).Err(); err != nil {
		g.logger.WithError(err).WithField("key", key).Warn("Geocode cache write failed")
	}
}

// Purge drops every cached lookup and reports how many entries went.
func (g *CachedGeocoder) Purge(ctx context.Context) (int, error) {
	var removed int
	iter := g.rdb.Scan(ctx, 0, "geocode:*", 100).Iterator()
	var batch []string
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		n, err := g.rdb.Del(ctx, batch...).Result()
		removed += int(n)
		batch = batch[:0]
		return err
	}
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := flush(); err != nil {
				return removed, fmt.Errorf("purge geocode cache: %w", err)
			}
		}
	}
	if err := iter.Err(); err != nil {
		return removed, fmt.Errorf("scan geocode cache: %w", err)
	}
	if err := flush(); err != nil {
		return removed, fmt.Errorf("purge geocode cache: %w", err)
	}
	g.logger.WithField("removed", removed).Info("Geocode cache purged")
	return removed, nil
}
