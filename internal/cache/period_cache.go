package cache

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/carbonledger/internal/clock"
	"github.com/smallbiznis/carbonledger/internal/config"
	emissionsdomain "github.com/smallbiznis/carbonledger/internal/emissions/domain"
	obsmetrics "github.com/smallbiznis/carbonledger/internal/observability/metrics"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const defaultRollingTTL = 300 * time.Second

// Policy selects the retention rule for a cached period.
type Policy int

const (
	// PolicyRolling expires after the configured TTL; used for current-period
	// queries that drift as ingestion continues.
	PolicyRolling Policy = iota
	// PolicyBaseline retains until explicit invalidation; baseline periods
	// must never silently go stale after a backfill.
	PolicyBaseline
)

// PeriodKey identifies one memoized computation.
type PeriodKey struct {
	OrgID       snowflake.ID
	PeriodStart time.Time
	PeriodEnd   time.Time
	ScopeFilter string
}

func (k PeriodKey) String() string {
	return cacheKey(
		k.OrgID.String(),
		k.PeriodStart.UTC().Format(time.RFC3339),
		k.PeriodEnd.UTC().Format(time.RFC3339),
		k.ScopeFilter,
	)
}

type cachedPeriod struct {
	key      PeriodKey
	value    *emissionsdomain.PeriodEmissions
	storedAt time.Time
}

type PeriodCacheParam struct {
	fx.In

	Log     *zap.Logger
	Clock   clock.Clock
	Config  config.Config
	Metrics *obsmetrics.Metrics `optional:"true"`
}

// PeriodCache memoizes period computations with single-flight semantics:
// concurrent callers for the same uncached key share exactly one underlying
// computation and observe the same outcome.
type PeriodCache struct {
	log        *zap.Logger
	clock      clock.Clock
	metrics    *obsmetrics.Metrics
	entries    Cache[string, cachedPeriod]
	flight     singleflight.Group
	rollingTTL time.Duration
}

func NewPeriodCache(p PeriodCacheParam) *PeriodCache {
	ttl := p.Config.CacheTTLRolling
	if ttl <= 0 {
		ttl = defaultRollingTTL
	}
	return &PeriodCache{
		log:        p.Log.Named("cache.period"),
		clock:      p.Clock,
		metrics:    p.Metrics,
		entries:    NewTTLCache[string, cachedPeriod](),
		rollingTTL: ttl,
	}
}

// GetOrCompute returns the cached value for key, or runs compute once and
// shares the result with every concurrent caller. The shared computation is
// detached from the individual caller's cancellation: one caller going away
// must not fail the waiters.
func (c *PeriodCache) GetOrCompute(
	ctx context.Context,
	key PeriodKey,
	policy Policy,
	compute func(ctx context.Context) (*emissionsdomain.PeriodEmissions, error),
) (*emissionsdomain.PeriodEmissions, time.Time, error) {
	id := key.String()

	if cached, ok := c.entries.Get(id); ok {
		c.metrics.RecordCacheHit(ctx)
		return cached.value, cached.storedAt, nil
	}
	c.metrics.RecordCacheMiss(ctx)

	sharedCtx := context.WithoutCancel(ctx)
	result, err, _ := c.flight.Do(id, func() (any, error) {
		if cached, ok := c.entries.Get(id); ok {
			return cached, nil
		}
		value, err := compute(sharedCtx)
		if err != nil {
			return nil, err
		}
		entry := cachedPeriod{key: key, value: value, storedAt: c.clock.Now()}
		c.entries.Set(id, entry, c.ttlFor(policy))
		return entry, nil
	})
	if err != nil {
		return nil, time.Time{}, err
	}

	entry := result.(cachedPeriod)
	return entry.value, entry.storedAt, nil
}

// Put stores a value computed outside the cache, stamped at the current
// clock time. The baseline manager warms the baseline-year period here after
// a successful recompute so reads of that year skip the engine until the
// next staleness notification.
func (c *PeriodCache) Put(key PeriodKey, policy Policy, value *emissionsdomain.PeriodEmissions) {
	entry := cachedPeriod{key: key, value: value, storedAt: c.clock.Now()}
	c.entries.Set(key.String(), entry, c.ttlFor(policy))
}

// Invalidate drops every cached period for the organization overlapping
// [start, end). Called by the baseline manager on staleness notifications
// and by the ingestion pipeline after backfills.
func (c *PeriodCache) Invalidate(orgID snowflake.ID, start, end time.Time) int {
	dropped := 0
	c.entries.Range(func(id string, entry cachedPeriod) bool {
		if entry.key.OrgID != orgID {
			return true
		}
		if entry.key.PeriodStart.Before(end) && start.Before(entry.key.PeriodEnd) {
			c.entries.Delete(id)
			dropped++
		}
		return true
	})
	if dropped > 0 {
		c.log.Info("period cache invalidated",
			zap.String("org_id", orgID.String()),
			zap.Int("entries", dropped),
		)
	}
	return dropped
}

// InvalidateYear drops cached periods overlapping the calendar year.
func (c *PeriodCache) InvalidateYear(orgID snowflake.ID, year int, loc *time.Location) int {
	start, end := emissionsdomain.YearBounds(year, loc)
	return c.Invalidate(orgID, start, end)
}

func (c *PeriodCache) Len() int { return c.entries.Len() }

func (c *PeriodCache) ttlFor(policy Policy) time.Duration {
	if policy == PolicyBaseline {
		return 0
	}
	return c.rollingTTL
}
