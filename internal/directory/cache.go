package directory

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	id "schoolbus/pkg/domain"
)

// CachedClient is a read-through redis cache in front of a directory Client.
// Reference data changes rarely; a short TTL keeps the attendance hot path
// off the directory service. Negative results are cached too so a bad period
// id cannot hammer the upstream.
type CachedClient struct {
	inner  Client
	redis  redis.Cmdable
	ttl    time.Duration
	logger *slog.Logger
}

const negativeMarker = "__absent__"

func NewCachedClient(inner Client, rdb redis.Cmdable, ttl time.Duration, logger *slog.Logger) *CachedClient {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedClient{inner: inner, redis: rdb, ttl: ttl, logger: logger}
}

func (c *CachedClient) GetPeriod(ctx context.Context, periodID id.PeriodID) (*Period, error) {
	key := "directory:period:" + periodID.String()
	var cached Period
	hit, absent := c.lookup(ctx, key, &cached)
	if absent {
		return nil, ErrPeriodNotFound
	}
	if hit {
		return &cached, nil
	}

	period, err := c.inner.GetPeriod(ctx, periodID)
	if err != nil {
		if errors.Is(err, ErrPeriodNotFound) {
			c.store(ctx, key, nil)
		}
		return nil, err
	}
	c.store(ctx, key, period)
	return period, nil
}

func (c *CachedClient) GetDistrict(ctx context.Context, districtID id.DistrictID) (*District, error) {
	key := "directory:district:" + districtID.String()
	var cached District
	hit, absent := c.lookup(ctx, key, &cached)
	if absent {
		return nil, ErrDistrictNotFound
	}
	if hit {
		return &cached, nil
	}

	district, err := c.inner.GetDistrict(ctx, districtID)
	if err != nil {
		if errors.Is(err, ErrDistrictNotFound) {
			c.store(ctx, key, nil)
		}
		return nil, err
	}
	c.store(ctx, key, district)
	return district, nil
}

// lookup reports (hit, absent). Cache failures degrade to a miss.
func (c *CachedClient) lookup(ctx context.Context, key string, out any) (bool, bool) {
	raw, err := c.redis.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WarnContext(ctx, "directory cache read failed", "key", key, "error", err)
		}
		return false, false
	}
	if raw == negativeMarker {
		return false, true
	}
	if err := json.Unmarshal([]byte(raw), out); err != nil {
		c.logger.WarnContext(ctx, "directory cache entry corrupt", "key", key, "error", err)
		return false, false
	}
	return true, false
}

func (c *CachedClient) store(ctx context.Context, key string, value any) {
	payload := negativeMarker
	if value != nil {
		raw, err := json.Marshal(value)
		if err != nil {
			c.logger.WarnContext(ctx, "directory cache marshal failed", "key", key, "error", err)
			return
		}
		payload = string(raw)
	}
	if err := c.redis.Set(ctx, key, payload, c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "directory cache write failed", "key", key, "error", err)
	}
}
