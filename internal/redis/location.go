package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"

	"ridehail/internal/domain"
)

const (
	driverGeoKey  = "drivers:geo"
	driverSeenKey = "drivers:geo:seen"
)

// LocationStore mirrors online driver positions into a Redis GEO set. A hash
// beside it records when each position was last reported.
type LocationStore struct {
	client *redis.Client
	now    func() time.Time
}

// NewLocationStore creates a new LocationStore.
func NewLocationStore(client *redis.Client) *LocationStore {
	return &LocationStore{client: client, now: time.Now}
}

// UpdateLocation writes the position and its timestamp in one MULTI block.
func (s *LocationStore) UpdateLocation(ctx context.Context, driverID string, location domain.Coordinates) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.GeoAdd(ctx, driverGeoKey, &redis.GeoLocation{
			Name:      driverID,
			Longitude: location.Lng,
			Latitude:  location.Lat,
		})
		pipe.HSet(ctx, driverSeenKey, driverID, s.now().Unix())
		return nil
	})
	return err
}

// RemoveLocation drops a driver from the index when they go offline.
func (s *LocationStore) RemoveLocation(ctx context.Context, driverID string) error {
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, driverGeoKey, driverID)
		pipe.HDel(ctx, driverSeenKey, driverID)
		return nil
	})
	return err
}
