package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"pos-dispatch/internal/geo"
)

type CachedDriverPosition struct {
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	OrderID   *string   `json:"order_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// DriverPositionCache keeps the most recent accepted position per driver.
// Entries expire after the TTL so a driver that stops reporting drops off
// the board.
type DriverPositionCache struct {
	client *goredis.Client
	ttl    time.Duration
}

func NewDriverPositionCache(client *goredis.Client, ttlSeconds int) *DriverPositionCache {
	return &DriverPositionCache{
		client: client,
		ttl:    time.Duration(ttlSeconds) * time.Second,
	}
}

func (c *DriverPositionCache) Set(ctx context.Context, driverID string, p geo.Point, orderID *string) error {
	data := CachedDriverPosition{
		Lat:       p.Lat,
		Lng:       p.Lng,
		OrderID:   orderID,
		Timestamp: time.Now(),
	}
	bytes, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal driver position: %w", err)
	}
	return c.client.Set(ctx, driverPositionKey(driverID), bytes, c.ttl).Err()
}

func (c *DriverPositionCache) Get(ctx context.Context, driverID string) (*CachedDriverPosition, error) {
	bytes, err := c.client.Get(ctx, driverPositionKey(driverID)).Bytes()
	if err == goredis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get driver position: %w", err)
	}

	var pos CachedDriverPosition
	if err := json.Unmarshal(bytes, &pos); err != nil {
		return nil, fmt.Errorf("unmarshal driver position: %w", err)
	}
	return &pos, nil
}

func (c *DriverPositionCache) Delete(ctx context.Context, driverID string) error {
	return c.client.Del(ctx, driverPositionKey(driverID)).Err()
}

func driverPositionKey(driverID string) string {
	return fmt.Sprintf("driver:position:%s", driverID)
}
