package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/01protocol/drifting-01/internal/domain"
)

// StatusCache implements domain.StatusCache using Redis. Engine status is
// stored as JSON at "status:{asset}", venue prices as hashes at
// "price:{venue}:{market}" with fields "price" and "ts" (Unix nanoseconds).
// Entries carry a TTL so a dead engine goes visibly stale instead of
// serving its last cycle forever.
type StatusCache struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ domain.StatusCache = (*StatusCache)(nil)

// NewStatusCache creates a StatusCache backed by the given Client. A zero
// ttl disables expiry.
func NewStatusCache(c *Client, ttl time.Duration) *StatusCache {
	return &StatusCache{rdb: c.Underlying(), ttl: ttl}
}

func statusKey(asset string) string {
	return "status:" + asset
}

func venuePriceKey(venue, market string) string {
	return "price:" + venue + ":" + market
}

// SetStatus mirrors one cycle's engine status.
func (sc *StatusCache) SetStatus(ctx context.Context, status domain.EngineStatus) error {
	data, err := json.Marshal(status)
	if err != nil {
		return fmt.Errorf("redis: marshal status %s: %w", status.Asset, err)
	}
	if err := sc.rdb.Set(ctx, statusKey(status.Asset), data, sc.ttl).Err(); err != nil {
		return fmt.Errorf("redis: set status %s: %w", status.Asset, err)
	}
	return nil
}

// GetStatus retrieves the last mirrored status for an asset. It returns
// domain.ErrNotFound when no status has been written or it has expired.
func (sc *StatusCache) GetStatus(ctx context.Context, asset string) (domain.EngineStatus, error) {
	data, err := sc.rdb.Get(ctx, statusKey(asset)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.EngineStatus{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.EngineStatus{}, fmt.Errorf("redis: get status %s: %w", asset, err)
	}

	var status domain.EngineStatus
	if err := json.Unmarshal(data, &status); err != nil {
		return domain.EngineStatus{}, fmt.Errorf("redis: unmarshal status %s: %w", asset, err)
	}
	return status, nil
}

// SetPrice stores the latest observed price for a venue market.
func (sc *StatusCache) SetPrice(ctx context.Context, venue, market string, price float64, ts time.Time) error {
	key := venuePriceKey(venue, market)
	fields := map[string]interface{}{
		"price": strconv.FormatFloat(price, 'f', -1, 64),
		"ts":    strconv.FormatInt(ts.UnixNano(), 10),
	}

	pipe := sc.rdb.Pipeline()
	pipe.HSet(ctx, key, fields)
	if sc.ttl > 0 {
		pipe.Expire(ctx, key, sc.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis: set price %s/%s: %w", venue, market, err)
	}
	return nil
}

// GetPrice retrieves the latest price and timestamp for a venue market.
// It returns domain.ErrNotFound when the key does not exist.
func (sc *StatusCache) GetPrice(ctx context.Context, venue, market string) (float64, time.Time, error) {
	key := venuePriceKey(venue, market)
	vals, err := sc.rdb.HGetAll(ctx, key).Result()
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: get price %s/%s: %w", venue, market, err)
	}
	if len(vals) == 0 {
		return 0, time.Time{}, domain.ErrNotFound
	}

	price, err := strconv.ParseFloat(vals["price"], 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse price %s/%s: %w", venue, market, err)
	}
	tsNano, err := strconv.ParseInt(vals["ts"], 10, 64)
	if err != nil {
		return 0, time.Time{}, fmt.Errorf("redis: parse ts %s/%s: %w", venue, market, err)
	}
	return price, time.Unix(0, tsNano), nil
}
