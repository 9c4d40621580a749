package featurecache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ciaranwalsh/retailpulse/internal/common"
	"github.com/ciaranwalsh/retailpulse/internal/model"
)

func testCache(t *testing.T) *Cache {
	t.Helper()
	cache, err := New(t.TempDir())
	require.NoError(t, err)
	return cache
}

func testBundle(d model.Date, revenue float64) *model.FeatureBundle {
	return &model.FeatureBundle{
		Date:        d,
		ComputedAt:  time.Date(2024, 11, 16, 3, 0, 0, 0, time.UTC),
		DailyTotals: model.DailyTotals{TotalRevenue: revenue, TransactionCount: 1},
	}
}

func TestNewRequiresDirectory(t *testing.T) {
	_, err := New("")
	assert.ErrorIs(t, err, common.ErrInvalidConfig)
}

func TestPutGetRoundtrip(t *testing.T) {
	cache := testCache(t)
	d := model.NewDate(2024, time.November, 15)

	require.NoError(t, cache.Put(d, testBundle(d, 1234.56)))
	assert.True(t, cache.Exists(d))

	got, err := cache.Get(d)
	require.NoError(t, err)
	assert.Equal(t, d, got.Date)
	assert.InDelta(t, 1234.56, got.DailyTotals.TotalRevenue, 1e-9)
}

func TestGetAbsentIsNotFound(t *testing.T) {
	cache := testCache(t)

	_, err := cache.Get(model.NewDate(2024, time.November, 15))
	assert.ErrorIs(t, err, common.ErrNotFound)
	assert.NotErrorIs(t, err, common.ErrCorruptCache)
}

func TestGetCorruptIsNotAbsent(t *testing.T) {
	cache := testCache(t)
	d := model.NewDate(2024, time.November, 15)

	require.NoError(t, os.WriteFile(filepath.Join(cache.Dir(), d.String()+".json"), []byte("{not json"), 0o600))

	_, err := cache.Get(d)
	assert.ErrorIs(t, err, common.ErrCorruptCache)
	assert.NotErrorIs(t, err, common.ErrNotFound, "corruption must never read as a miss")
}

func TestBaselinesRoundtrip(t *testing.T) {
	cache := testCache(t)
	assert.False(t, cache.HasBaselines())

	_, err := cache.GetBaselines()
	assert.ErrorIs(t, err, common.ErrNotFound)

	baselines := &model.Baselines{
		CalculationDate: model.NewDate(2024, time.November, 15),
		WindowDays:      30,
		TotalRevenue:    model.RevenueBaseline{MetricBaseline: model.MetricBaseline{Mean: 100}},
	}
	require.NoError(t, cache.PutBaselines(baselines))
	assert.True(t, cache.HasBaselines())

	got, err := cache.GetBaselines()
	require.NoError(t, err)
	assert.Equal(t, 30, got.WindowDays)
	assert.InDelta(t, 100, got.TotalRevenue.Mean, 1e-9)
}

func TestListDatesIgnoresOtherFiles(t *testing.T) {
	cache := testCache(t)
	d1 := model.NewDate(2024, time.November, 15)
	d2 := model.NewDate(2024, time.November, 14)

	require.NoError(t, cache.Put(d1, testBundle(d1, 1)))
	require.NoError(t, cache.Put(d2, testBundle(d2, 2)))
	require.NoError(t, cache.PutBaselines(&model.Baselines{}))
	require.NoError(t, os.WriteFile(filepath.Join(cache.Dir(), "notes.txt"), []byte("x"), 0o600))

	dates, err := cache.ListDates()
	require.NoError(t, err)
	assert.Equal(t, []model.Date{d2, d1}, dates, "sorted ascending, baselines and strays excluded")

	latest, err := cache.LatestDate()
	require.NoError(t, err)
	assert.Equal(t, d1, latest)
}

func TestGetRangeSkipsGaps(t *testing.T) {
	cache := testCache(t)
	d1 := model.NewDate(2024, time.November, 13)
	d3 := model.NewDate(2024, time.November, 15)

	require.NoError(t, cache.Put(d1, testBundle(d1, 1)))
	require.NoError(t, cache.Put(d3, testBundle(d3, 3)))

	bundles, err := cache.GetRange(d1, d3)
	require.NoError(t, err)
	require.Len(t, bundles, 2)
	assert.Equal(t, d1, bundles[0].Date)
	assert.Equal(t, d3, bundles[1].Date)
}

func TestGetRangeCorruptFailsLoudly(t *testing.T) {
	cache := testCache(t)
	d := model.NewDate(2024, time.November, 14)
	require.NoError(t, os.WriteFile(filepath.Join(cache.Dir(), d.String()+".json"), []byte("?"), 0o600))

	_, err := cache.GetRange(d.AddDays(-1), d.AddDays(1))
	assert.ErrorIs(t, err, common.ErrCorruptCache)
}

func TestEvictOlderThanBoundary(t *testing.T) {
	cache := testCache(t)
	today := model.NewDate(2024, time.November, 15)
	cache.now = func() time.Time { return today.Time() }

	cutoff := today.AddDays(-90)
	onCutoff := cutoff
	tooOld := cutoff.AddDays(-1)
	recent := today.AddDays(-1)

	for _, d := range []model.Date{onCutoff, tooOld, recent} {
		require.NoError(t, cache.Put(d, testBundle(d, 1)))
	}
	require.NoError(t, cache.PutBaselines(&model.Baselines{}))

	deleted, err := cache.EvictOlderThan(90)
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	assert.True(t, cache.Exists(onCutoff), "the cutoff date itself is retained")
	assert.False(t, cache.Exists(tooOld))
	assert.True(t, cache.Exists(recent))
	assert.True(t, cache.HasBaselines(), "baselines are never evicted")
}

func TestStats(t *testing.T) {
	cache := testCache(t)
	d1 := model.NewDate(2024, time.November, 14)
	d2 := model.NewDate(2024, time.November, 15)

	require.NoError(t, cache.Put(d1, testBundle(d1, 1)))
	require.NoError(t, cache.Put(d2, testBundle(d2, 2)))
	require.NoError(t, cache.PutBaselines(&model.Baselines{}))

	stats, err := cache.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Count)
	assert.Equal(t, d1, stats.OldestDate)
	assert.Equal(t, d2, stats.NewestDate)
	assert.True(t, stats.HasBaselines)
	assert.Positive(t, stats.TotalSizeBytes)
}
