//go:build integration

package directory

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "schoolbus/pkg/domain"
	"schoolbus/pkg/testutil/containers"
)

// countingClient tracks how many times the upstream is actually asked.
type countingClient struct {
	period *Period
	calls  int
}

func (c *countingClient) GetPeriod(context.Context, id.PeriodID) (*Period, error) {
	c.calls++
	if c.period == nil {
		return nil, ErrPeriodNotFound
	}
	return c.period, nil
}

func (c *countingClient) GetDistrict(context.Context, id.DistrictID) (*District, error) {
	return nil, ErrDistrictNotFound
}

func TestCachedClient(t *testing.T) {
	rc := containers.NewRedisContainer(t)
	t.Cleanup(func() {
		_ = rc.Client.Close()
		_ = rc.Container.Terminate(context.Background())
	})

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := context.Background()

	t.Run("second read is served from cache", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		periodID := id.PeriodID(uuid.New())
		upstream := &countingClient{period: &Period{ID: periodID, Name: "Fall", Active: true}}
		cached := NewCachedClient(upstream, rc.Client, time.Minute, logger)

		first, err := cached.GetPeriod(ctx, periodID)
		require.NoError(t, err)
		second, err := cached.GetPeriod(ctx, periodID)
		require.NoError(t, err)

		assert.Equal(t, first, second)
		assert.Equal(t, 1, upstream.calls)
	})

	t.Run("negative results are cached", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		upstream := &countingClient{}
		cached := NewCachedClient(upstream, rc.Client, time.Minute, logger)
		periodID := id.PeriodID(uuid.New())

		_, err := cached.GetPeriod(ctx, periodID)
		require.ErrorIs(t, err, ErrPeriodNotFound)
		_, err = cached.GetPeriod(ctx, periodID)
		require.ErrorIs(t, err, ErrPeriodNotFound)

		assert.Equal(t, 1, upstream.calls, "absence must not hammer the upstream")
	})

	t.Run("expired entries fall through to the upstream", func(t *testing.T) {
		require.NoError(t, rc.FlushAll(ctx))
		periodID := id.PeriodID(uuid.New())
		upstream := &countingClient{period: &Period{ID: periodID, Name: "Fall", Active: true}}
		cached := NewCachedClient(upstream, rc.Client, 50*time.Millisecond, logger)

		_, err := cached.GetPeriod(ctx, periodID)
		require.NoError(t, err)

		time.Sleep(100 * time.Millisecond)

		_, err = cached.GetPeriod(ctx, periodID)
		require.NoError(t, err)
		assert.Equal(t, 2, upstream.calls)
	})
}
