package pagasa

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/typhoonwatch/bulletin-etl/internal/domain"
	"github.com/typhoonwatch/bulletin-etl/internal/observability"
)

const advisoryCacheKey = "advisory-report"

// CachedFeed decorates an advisory feed with a TTL cache so a batch of
// bulletins arriving together shares a single advisory fetch.
type CachedFeed struct {
	inner   domain.AdvisoryFeed
	cache   *gocache.Cache
	metrics *observability.Metrics
}

// NewCachedFeed creates a cache decorator around an advisory feed.
func NewCachedFeed(inner domain.AdvisoryFeed, ttl time.Duration, metrics *observability.Metrics) *CachedFeed {
	return &CachedFeed{
		inner:   inner,
		cache:   gocache.New(ttl, 2*ttl),
		metrics: metrics,
	}
}

func (c *CachedFeed) FetchAdvisory(ctx context.Context) (domain.AdvisoryReport, error) {
	if v, ok := c.cache.Get(advisoryCacheKey); ok {
		c.metrics.AdvisoryCache.WithLabelValues("hit").Inc()
		return v.(domain.AdvisoryReport), nil
	}
	c.metrics.AdvisoryCache.WithLabelValues("miss").Inc()

	report, err := c.inner.FetchAdvisory(ctx)
	if err != nil {
		return report, err
	}
	// Only cache non-empty reports so a transiently blank page can be retried.
	if !report.Empty() {
		c.cache.Set(advisoryCacheKey, report, gocache.DefaultExpiration)
	}
	return report, nil
}
