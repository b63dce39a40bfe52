package pagasa

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/typhoonwatch/bulletin-etl/internal/domain"
)

type countingFeed struct {
	calls  int
	report domain.AdvisoryReport
	err    error
}

func (f *countingFeed) FetchAdvisory(context.Context) (domain.AdvisoryReport, error) {
	f.calls++
	return f.report, f.err
}

func TestCachedFeed_CacheHit(t *testing.T) {
	inner := &countingFeed{report: domain.AdvisoryReport{Orange: []string{"Cagayan"}}}
	cached := NewCachedFeed(inner, time.Minute, testMetrics())

	r1, err := cached.FetchAdvisory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Cagayan"}, r1.Orange)

	r2, err := cached.FetchAdvisory(context.Background())
	require.NoError(t, err)
	assert.Equal(t, r1, r2)

	assert.Equal(t, 1, inner.calls, "should only call inner once")
}

func TestCachedFeed_EmptyReportNotCached(t *testing.T) {
	inner := &countingFeed{}
	cached := NewCachedFeed(inner, time.Minute, testMetrics())

	_, err := cached.FetchAdvisory(context.Background())
	require.NoError(t, err)
	_, err = cached.FetchAdvisory(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls, "empty reports must not be cached")
}

func TestCachedFeed_ErrorNotCached(t *testing.T) {
	inner := &countingFeed{err: errors.New("advisory page unreachable")}
	cached := NewCachedFeed(inner, time.Minute, testMetrics())

	_, err := cached.FetchAdvisory(context.Background())
	require.Error(t, err)
	_, err = cached.FetchAdvisory(context.Background())
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedFeed_TTLExpiry(t *testing.T) {
	inner := &countingFeed{report: domain.AdvisoryReport{Yellow: []string{"Ilocos Sur"}}}
	cached := NewCachedFeed(inner, 10*time.Millisecond, testMetrics())

	_, err := cached.FetchAdvisory(context.Background())
	require.NoError(t, err)

	time.Sleep(25 * time.Millisecond)

	_, err = cached.FetchAdvisory(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls, "expired entry should refetch")
}
