package stats

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/foodlog/internal/config"
	"github.com/mtlprog/foodlog/internal/docstore"
	"github.com/mtlprog/foodlog/internal/model"
)

var now = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

// fixedWeights returns a configured weight per author, 1.0 otherwise, and
// counts lookups.
type fixedWeights struct {
	mu      sync.Mutex
	weights map[string]float64
	calls   map[string]int
}

func (f *fixedWeights) GetAuthorWeight(_ context.Context, userID string) float64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = make(map[string]int)
	}
	f.calls[userID]++
	if w, ok := f.weights[userID]; ok {
		return w
	}
	return 1.0
}

func newTestAggregator(t *testing.T, store docstore.Store, weights WeightSource, opts ...Option) *Aggregator {
	t.Helper()
	opts = append([]Option{
		WithClock(func() time.Time { return now }),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	a, err := NewAggregator(store, weights, opts...)
	require.NoError(t, err)
	return a
}

func putReview(t *testing.T, store docstore.Store, r model.Review) {
	t.Helper()
	require.NoError(t, docstore.Put(context.Background(), store, docstore.CollectionReviews, r.ID, r))
}

func TestNewAggregator_Validation(t *testing.T) {
	_, err := NewAggregator(nil, &fixedWeights{})
	assert.Error(t, err)

	_, err = NewAggregator(docstore.NewMemory(), nil)
	assert.Error(t, err)
}

func TestAggregator_CalculateRollingStats_ZeroReviews(t *testing.T) {
	store := docstore.NewMemory()
	a := newTestAggregator(t, store, &fixedWeights{})

	stats, err := a.CalculateRollingStats(context.Background(), "empty")
	require.NoError(t, err)

	assert.Equal(t, "empty", stats.RestaurantID)
	assert.Zero(t, stats.TotalReviews)
	assert.Zero(t, stats.AverageRating)
	assert.Zero(t, stats.WeightedAverageRating)
	assert.Zero(t, stats.ReviewCount30d)
	assert.Zero(t, stats.AverageRating90d)
	assert.Equal(t, now, stats.LastUpdated)
	assert.Equal(t, 1, store.Count(docstore.CollectionStatsRolling))
}

func TestAggregator_CalculateRollingStats_Scenarios(t *testing.T) {
	tests := []struct {
		name         string
		weights      map[string]float64
		wantAverage  float64
		wantWeighted float64
	}{
		{
			name:         "default weights",
			wantAverage:  4.0,
			wantWeighted: 4.0,
		},
		{
			name:         "five star author weighs double",
			weights:      map[string]float64{"a5": 2.0},
			wantAverage:  4.0,
			wantWeighted: 4.25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := docstore.NewMemory()
			for _, r := range []model.Review{
				{ID: "1", RestaurantID: "R", AuthorID: "a5", Rating: 5, CreatedAt: now.Add(-time.Hour)},
				{ID: "2", RestaurantID: "R", AuthorID: "a3", Rating: 3, CreatedAt: now.Add(-time.Hour)},
				{ID: "3", RestaurantID: "R", AuthorID: "a4", Rating: 4, CreatedAt: now.Add(-time.Hour)},
				{ID: "other", RestaurantID: "X", AuthorID: "a1", Rating: 1, CreatedAt: now},
			} {
				putReview(t, store, r)
			}

			a := newTestAggregator(t, store, &fixedWeights{weights: tt.weights})
			stats, err := a.CalculateRollingStats(context.Background(), "R")
			require.NoError(t, err)

			assert.Equal(t, 3, stats.TotalReviews)
			assert.Equal(t, tt.wantAverage, stats.AverageRating)
			assert.Equal(t, tt.wantWeighted, stats.WeightedAverageRating)
		})
	}
}

func TestAggregator_CalculateRollingStats_Windows(t *testing.T) {
	store := docstore.NewMemory()
	for _, r := range []model.Review{
		{ID: "1", RestaurantID: "R", AuthorID: "a", Rating: 5, CreatedAt: now.AddDate(0, 0, -1)},
		{ID: "2", RestaurantID: "R", AuthorID: "b", Rating: 4, CreatedAt: now.AddDate(0, 0, -30)},
		{ID: "3", RestaurantID: "R", AuthorID: "c", Rating: 2, CreatedAt: now.AddDate(0, 0, -60)},
		{ID: "4", RestaurantID: "R", AuthorID: "d", Rating: 1, CreatedAt: now.AddDate(0, 0, -200)},
	} {
		putReview(t, store, r)
	}

	a := newTestAggregator(t, store, &fixedWeights{})
	stats, err := a.CalculateRollingStats(context.Background(), "R")
	require.NoError(t, err)

	assert.Equal(t, 4, stats.TotalReviews)
	assert.Equal(t, 2, stats.ReviewCount30d, "window boundary is inclusive")
	assert.Equal(t, 3.67, stats.AverageRating90d)
	assert.Equal(t, 3.0, stats.AverageRating)
}

func TestAggregator_CalculateRollingStats_WeightLookupPerDistinctAuthor(t *testing.T) {
	store := docstore.NewMemory()
	for _, r := range []model.Review{
		{ID: "1", RestaurantID: "R", AuthorID: "a", Rating: 5, CreatedAt: now},
		{ID: "2", RestaurantID: "R", AuthorID: "a", Rating: 4, CreatedAt: now},
		{ID: "3", RestaurantID: "R", AuthorID: "b", Rating: 3, CreatedAt: now},
	} {
		putReview(t, store, r)
	}

	weights := &fixedWeights{}
	a := newTestAggregator(t, store, weights)
	_, err := a.CalculateRollingStats(context.Background(), "R")
	require.NoError(t, err)

	assert.Equal(t, map[string]int{"a": 1, "b": 1}, weights.calls)
}

func TestAggregator_CalculateRollingStats_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("review scan failure", func(t *testing.T) {
		store := docstore.NewMemory()
		store.FailNext(docstore.CollectionReviews, errors.New("unavailable"))

		a := newTestAggregator(t, store, &fixedWeights{})
		_, err := a.CalculateRollingStats(ctx, "R")
		assert.ErrorContains(t, err, "list reviews")
		assert.Equal(t, 0, store.Count(docstore.CollectionStatsRolling))
	})

	t.Run("write failure", func(t *testing.T) {
		store := docstore.NewMemory()
		store.FailNext(docstore.CollectionStatsRolling, errors.New("read only"))

		a := newTestAggregator(t, store, &fixedWeights{})
		_, err := a.CalculateRollingStats(ctx, "R")
		assert.ErrorContains(t, err, "save rolling stats")
	})
}

func TestAggregator_UpdateDailyStats(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	for _, r := range []model.Review{
		{ID: "1", RestaurantID: "R", AuthorID: "a", Rating: 5, CreatedAt: time.Date(2025, 6, 14, 0, 30, 0, 0, time.UTC)},
		{ID: "2", RestaurantID: "R", AuthorID: "b", Rating: 3.5, CreatedAt: time.Date(2025, 6, 14, 23, 59, 0, 0, time.UTC)},
		{ID: "3", RestaurantID: "R", AuthorID: "c", Rating: 1, CreatedAt: time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC)},
	} {
		putReview(t, store, r)
	}
	a := newTestAggregator(t, store, &fixedWeights{})

	first, err := a.UpdateDailyStats(ctx, "R", "2025-06-14")
	require.NoError(t, err)
	assert.Equal(t, &model.RestaurantDailyStats{
		RestaurantID:  "R",
		Date:          "2025-06-14",
		ReviewCount:   2,
		TotalRating:   8.5,
		AverageRating: 4.25,
	}, first)

	second, err := a.UpdateDailyStats(ctx, "R", "2025-06-14")
	require.NoError(t, err)
	assert.Equal(t, first, second, "recomputing a day must not double count")
	assert.Equal(t, first, a.GetDailyStats(ctx, "R", "2025-06-14"))
	assert.Equal(t, 1, store.Count(docstore.CollectionStatsDaily))

	_, err = a.UpdateDailyStats(ctx, "R", "14/06/2025")
	assert.Error(t, err)
}

func TestAggregator_UpdateDailyStats_TimeZone(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	// 23:30 UTC on the 14th is already the 15th in Tokyo.
	putReview(t, store, model.Review{ID: "1", RestaurantID: "R", AuthorID: "a", Rating: 4, CreatedAt: time.Date(2025, 6, 14, 23, 30, 0, 0, time.UTC)})

	tuning := config.DefaultTuning()
	tuning.DailyStatsTimezone = "Asia/Tokyo"
	a := newTestAggregator(t, store, &fixedWeights{}, WithTuning(tuning))

	daily, err := a.UpdateDailyStats(ctx, "R", "2025-06-15")
	require.NoError(t, err)
	assert.Equal(t, 1, daily.ReviewCount)

	daily, err = a.UpdateDailyStats(ctx, "R", "2025-06-14")
	require.NoError(t, err)
	assert.Equal(t, 0, daily.ReviewCount)
	assert.Zero(t, daily.AverageRating)
}

func TestAggregator_GetRestaurantStats(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	a := newTestAggregator(t, store, &fixedWeights{})

	assert.Equal(t, &model.RestaurantStats{RestaurantID: "R"}, a.GetRestaurantStats(ctx, "R"))

	store.FailNext(docstore.CollectionStatsRolling, errors.New("unavailable"))
	assert.Equal(t, &model.RestaurantStats{RestaurantID: "R"}, a.GetRestaurantStats(ctx, "R"))

	putReview(t, store, model.Review{ID: "1", RestaurantID: "R", AuthorID: "a", Rating: 4, CreatedAt: now})
	_, err := a.CalculateRollingStats(ctx, "R")
	require.NoError(t, err)
	assert.Equal(t, 1, a.GetRestaurantStats(ctx, "R").TotalReviews)

	assert.Nil(t, a.GetDailyStats(ctx, "R", "2025-01-01"))
}

func TestAggregator_GetTopRatedRestaurants(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	for _, s := range []model.RestaurantStats{
		{RestaurantID: "single", TotalReviews: 1, WeightedAverageRating: 5.0},
		{RestaurantID: "pair", TotalReviews: 2, WeightedAverageRating: 4.9},
		{RestaurantID: "good", TotalReviews: 3, WeightedAverageRating: 4.2},
		{RestaurantID: "best", TotalReviews: 12, WeightedAverageRating: 4.6},
		{RestaurantID: "ok", TotalReviews: 40, WeightedAverageRating: 3.1},
	} {
		require.NoError(t, docstore.Put(ctx, store, docstore.CollectionStatsRolling, s.RestaurantID, s))
	}
	a := newTestAggregator(t, store, &fixedWeights{})

	top := a.GetTopRatedRestaurants(ctx, 2)
	require.Len(t, top, 2)
	assert.Equal(t, "best", top[0].RestaurantID)
	assert.Equal(t, "good", top[1].RestaurantID)

	all := a.GetTopRatedRestaurants(ctx, 10)
	ids := make([]string, 0, len(all))
	for _, s := range all {
		ids = append(ids, s.RestaurantID)
	}
	assert.Equal(t, []string{"best", "good", "ok"}, ids)

	store.FailNext(docstore.CollectionStatsRolling, errors.New("down"))
	assert.Empty(t, a.GetTopRatedRestaurants(ctx, 10))
}

func TestAggregator_StatsForRestaurants(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	require.NoError(t, docstore.Put(ctx, store, docstore.CollectionStatsRolling, "a",
		model.RestaurantStats{RestaurantID: "a", TotalReviews: 7}))

	tuning := config.DefaultTuning()
	tuning.StatsConcurrency = 2
	a := newTestAggregator(t, store, &fixedWeights{}, WithTuning(tuning))

	got := a.StatsForRestaurants(ctx, []string{"a", "b", "c"})
	require.Len(t, got, 3)
	assert.Equal(t, 7, got["a"].TotalReviews)
	assert.Equal(t, "b", got["b"].RestaurantID)
	assert.Zero(t, got["c"].TotalReviews)
}

func TestAggregator_RecomputeAll(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()
	for _, id := range []string{"r1", "r2"} {
		require.NoError(t, docstore.Put(ctx, store, docstore.CollectionRestaurants, id, model.Restaurant{ID: id}))
	}
	putReview(t, store, model.Review{ID: "1", RestaurantID: "r1", AuthorID: "a", Rating: 4, CreatedAt: now})
	a := newTestAggregator(t, store, &fixedWeights{})

	res, err := a.RecomputeAll(ctx, a.Today())
	require.NoError(t, err)
	assert.Equal(t, RecomputeResult{Restaurants: 2}, res)
	assert.Equal(t, 2, store.Count(docstore.CollectionStatsRolling))
	assert.Equal(t, 2, store.Count(docstore.CollectionStatsDaily))
	assert.Equal(t, 1, a.GetDailyStats(ctx, "r1", "2025-06-15").ReviewCount)

	t.Run("failures are counted and the run continues", func(t *testing.T) {
		store.FailNext(docstore.CollectionReviews, errors.New("flaky"))
		res, err := a.RecomputeAll(ctx, "2025-06-15")
		require.NoError(t, err)
		assert.Equal(t, RecomputeResult{Restaurants: 2, Failed: 1}, res)
	})

	t.Run("restaurant scan failure", func(t *testing.T) {
		store.FailNext(docstore.CollectionRestaurants, errors.New("down"))
		_, err := a.RecomputeAll(ctx, "2025-06-15")
		assert.Error(t, err)
	})

	t.Run("invalid date", func(t *testing.T) {
		_, err := a.RecomputeAll(ctx, "yesterday")
		assert.Error(t, err)
	})
}
