package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ciaranwalsh/retailpulse/internal/common"
	"github.com/ciaranwalsh/retailpulse/internal/featurecache"
	"github.com/ciaranwalsh/retailpulse/internal/model"
	"github.com/ciaranwalsh/retailpulse/internal/testutil"
)

var start = model.NewDate(2024, time.November, 13)

// rangeFixture has thirty days of flat history before start, sales on the
// first and third day of the range, and nothing in between.
func rangeFixture() *testutil.SalesBuilder {
	b := testutil.NewSalesBuilder()
	b.AddDaily(start.AddDays(-30), 30, "Baggot St", "Skincare", "Face Cream", 100)
	b.Add(testutil.Sale{Date: start, Location: "Baggot St", Category: "Skincare", Product: "Face Cream", Revenue: 110})
	b.Add(testutil.Sale{Date: start.AddDays(2), Location: "Baggot St", Category: "Skincare", Product: "Face Cream", Revenue: 90})
	return b
}

func testCache(t *testing.T) *featurecache.Cache {
	t.Helper()
	cache, err := featurecache.New(t.TempDir())
	require.NoError(t, err)
	return cache
}

func TestBuildRange(t *testing.T) {
	cache := testCache(t)
	builder := NewBuilder(rangeFixture().Build(), nil, cache)

	result, err := builder.BuildRange(context.Background(), start, start.AddDays(2))
	require.NoError(t, err)

	assert.Equal(t, Result{Built: 2, Empty: 1}, result)
	assert.True(t, cache.Exists(start))
	assert.False(t, cache.Exists(start.AddDays(1)), "empty day leaves no cache entry")
	assert.True(t, cache.Exists(start.AddDays(2)))
	assert.True(t, cache.HasBaselines(), "baselines persisted before the loop")
}

func TestBuildRangeSecondRunSkips(t *testing.T) {
	cache := testCache(t)
	builder := NewBuilder(rangeFixture().Build(), nil, cache)
	ctx := context.Background()

	_, err := builder.BuildRange(ctx, start, start.AddDays(2))
	require.NoError(t, err)

	result, err := builder.BuildRange(ctx, start, start.AddDays(2))
	require.NoError(t, err)
	assert.Equal(t, Result{Built: 0, Skipped: 2, Empty: 1}, result)
}

func TestBuildRangeForceRebuilds(t *testing.T) {
	cache := testCache(t)
	ctx := context.Background()

	_, err := NewBuilder(rangeFixture().Build(), nil, cache).BuildRange(ctx, start, start.AddDays(2))
	require.NoError(t, err)

	forced := NewBuilder(rangeFixture().Build(), nil, cache, WithForce())
	result, err := forced.BuildRange(ctx, start, start.AddDays(2))
	require.NoError(t, err)
	assert.Equal(t, Result{Built: 2, Skipped: 0, Empty: 1}, result)
}

func TestBuildRangeRejectsInvertedRange(t *testing.T) {
	builder := NewBuilder(rangeFixture().Build(), nil, testCache(t))

	_, err := builder.BuildRange(context.Background(), start, start.AddDays(-1))
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestBuildRangeNoBaselineHistory(t *testing.T) {
	// All sales sit after the range, so the baseline window ending at
	// start is empty and the build cannot be scored.
	sales := testutil.NewSalesBuilder().
		Add(testutil.Sale{Date: start.AddDays(5), Location: "Baggot St", Category: "Skincare", Product: "Face Cream", Revenue: 10}).
		Build()
	builder := NewBuilder(sales, nil, testCache(t))

	_, err := builder.BuildRange(context.Background(), start, start)
	assert.ErrorIs(t, err, common.ErrNoData)
}

func TestBuildRangeHonorsCancellation(t *testing.T) {
	builder := NewBuilder(rangeFixture().Build(), nil, testCache(t))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := builder.BuildRange(ctx, start, start.AddDays(2))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBuildDate(t *testing.T) {
	cache := testCache(t)
	builder := NewBuilder(rangeFixture().Build(), nil, cache)

	bundle, err := builder.BuildDate(context.Background(), start)
	require.NoError(t, err)

	assert.Equal(t, start, bundle.Date)
	require.NotNil(t, bundle.Anomalies, "scored even on a quiet day")
	assert.True(t, cache.Exists(start))
	assert.True(t, cache.HasBaselines(), "first build computes baselines on demand")
}

func TestBuildDateReusesPersistedBaselines(t *testing.T) {
	cache := testCache(t)
	fixed := &model.Baselines{
		CalculationDate: start,
		WindowDays:      30,
		TotalRevenue:    model.RevenueBaseline{MetricBaseline: model.MetricBaseline{Mean: 50, Std: 10}},
	}
	require.NoError(t, cache.PutBaselines(fixed))

	builder := NewBuilder(rangeFixture().Build(), nil, cache)
	bundle, err := builder.BuildDate(context.Background(), start)
	require.NoError(t, err)

	require.NotNil(t, bundle.Anomalies.TotalRevenueZ)
	assert.InDelta(t, 6.0, *bundle.Anomalies.TotalRevenueZ, 1e-9,
		"scored against the persisted baselines, not fresh ones")

	got, err := cache.GetBaselines()
	require.NoError(t, err)
	assert.Equal(t, fixed.TotalRevenue.Mean, got.TotalRevenue.Mean, "existing baselines untouched")
}
