// Package stats recomputes restaurant rating aggregates from raw reviews.
package stats

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/samber/lo"
	"golang.org/x/sync/errgroup"

	"github.com/mtlprog/foodlog/internal/config"
	"github.com/mtlprog/foodlog/internal/docstore"
	"github.com/mtlprog/foodlog/internal/metrics"
	"github.com/mtlprog/foodlog/internal/model"
	"github.com/mtlprog/foodlog/internal/reputation"
)

// DateLayout is the format of daily stats dates.
const DateLayout = "2006-01-02"

// WeightSource provides the author weight applied to a review rating.
type WeightSource interface {
	GetAuthorWeight(ctx context.Context, userID string) float64
}

// Aggregator recomputes rolling and daily restaurant statistics.
type Aggregator struct {
	store   docstore.Store
	weights WeightSource
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	tuning  config.Tuning
	loc     *time.Location
}

// Option is a functional option for configuring an Aggregator.
type Option func(*Aggregator)

// WithLogger sets a custom logger for the aggregator.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Aggregator) {
		a.logger = logger
	}
}

// WithClock overrides the time source used for windows and LastUpdated.
func WithClock(now func() time.Time) Option {
	return func(a *Aggregator) {
		a.now = now
	}
}

// WithTuning sets windows, ranking gate, scan size and daily time zone.
func WithTuning(t config.Tuning) Option {
	return func(a *Aggregator) {
		a.tuning = t
		a.loc = t.Location()
	}
}

// WithMetrics records recompute counters and durations.
func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Aggregator) {
		a.metrics = m
	}
}

// NewAggregator creates a new statistics aggregator.
func NewAggregator(store docstore.Store, weights WeightSource, opts ...Option) (*Aggregator, error) {
	if store == nil {
		return nil, errors.New("document store is required")
	}
	if weights == nil {
		return nil, errors.New("weight source is required")
	}

	tuning := config.DefaultTuning()
	a := &Aggregator{
		store:   store,
		weights: weights,
		logger:  slog.Default(),
		now:     time.Now,
		tuning:  tuning,
		loc:     tuning.Location(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

func (a *Aggregator) reviewsFor(ctx context.Context, restaurantID string) ([]model.Review, error) {
	reviews, err := docstore.FetchAll[model.Review](ctx, a.store, docstore.CollectionReviews, docstore.ListOptions{
		Match: map[string]string{"restaurantId": restaurantID},
		Limit: a.tuning.ScanPageSize,
	})
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return reviews, nil
}

// CalculateRollingStats rescans all reviews of a restaurant and overwrites
// its rolling stats record.
func (a *Aggregator) CalculateRollingStats(ctx context.Context, restaurantID string) (stats *model.RestaurantStats, err error) {
	started := time.Now()
	defer func() { a.metrics.ObserveRecompute("rolling", started, err) }()

	reviews, err := a.reviewsFor(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	now := a.now()
	recentFrom := now.AddDate(0, 0, -a.tuning.RecentWindowDays)
	averageFrom := now.AddDate(0, 0, -a.tuning.AverageWindowDays)

	recent := lo.Filter(reviews, func(r model.Review, _ int) bool {
		return !r.CreatedAt.Before(recentFrom)
	})
	windowed := lo.Filter(reviews, func(r model.Review, _ int) bool {
		return !r.CreatedAt.Before(averageFrom)
	})

	stats = &model.RestaurantStats{
		RestaurantID:          restaurantID,
		TotalReviews:          len(reviews),
		AverageRating:         reputation.Round2(averageRating(reviews)),
		WeightedAverageRating: reputation.Round2(a.weightedAverage(ctx, reviews)),
		ReviewCount30d:        len(recent),
		AverageRating90d:      reputation.Round2(averageRating(windowed)),
		LastUpdated:           now,
	}

	if err := docstore.Put(ctx, a.store, docstore.CollectionStatsRolling, restaurantID, stats); err != nil {
		return nil, fmt.Errorf("save rolling stats: %w", err)
	}

	a.logger.Debug("rolling stats recomputed",
		"restaurant_id", restaurantID,
		"total_reviews", stats.TotalReviews,
		"weighted_average", stats.WeightedAverageRating,
	)
	return stats, nil
}

// weightedAverage is Σ(rating×w)/Σ(w) with one weight lookup per distinct author.
func (a *Aggregator) weightedAverage(ctx context.Context, reviews []model.Review) float64 {
	weights := make(map[string]float64)
	var sum, totalWeight float64
	for _, r := range reviews {
		w, ok := weights[r.AuthorID]
		if !ok {
			w = a.weights.GetAuthorWeight(ctx, r.AuthorID)
			weights[r.AuthorID] = w
		}
		sum += r.Rating * w
		totalWeight += w
	}
	if totalWeight == 0 {
		return 0
	}
	return sum / totalWeight
}

func averageRating(reviews []model.Review) float64 {
	if len(reviews) == 0 {
		return 0
	}
	return lo.SumBy(reviews, func(r model.Review) float64 { return r.Rating }) / float64(len(reviews))
}

// DailyKey is the document key of a restaurant's daily stats.
func DailyKey(restaurantID, date string) string {
	return restaurantID + "_" + date
}

// UpdateDailyStats recomputes the stats of one calendar day from scratch and
// overwrites the stored record. Running it twice yields the same record.
func (a *Aggregator) UpdateDailyStats(ctx context.Context, restaurantID, date string) (daily *model.RestaurantDailyStats, err error) {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return nil, fmt.Errorf("invalid date %q: %w", date, err)
	}

	started := time.Now()
	defer func() { a.metrics.ObserveRecompute("daily", started, err) }()

	reviews, err := a.reviewsFor(ctx, restaurantID)
	if err != nil {
		return nil, err
	}

	sameDay := lo.Filter(reviews, func(r model.Review, _ int) bool {
		return a.DateOf(r.CreatedAt) == date
	})

	total := lo.SumBy(sameDay, func(r model.Review) float64 { return r.Rating })
	daily = &model.RestaurantDailyStats{
		RestaurantID:  restaurantID,
		Date:          date,
		ReviewCount:   len(sameDay),
		TotalRating:   reputation.Round2(total),
		AverageRating: reputation.Round2(averageRating(sameDay)),
	}

	if err := docstore.Put(ctx, a.store, docstore.CollectionStatsDaily, DailyKey(restaurantID, date), daily); err != nil {
		return nil, fmt.Errorf("save daily stats: %w", err)
	}
	return daily, nil
}

// Today returns the current date in the daily stats time zone.
func (a *Aggregator) Today() string {
	return a.DateOf(a.now())
}

// DateOf returns the daily bucket date of t in the daily stats time zone.
func (a *Aggregator) DateOf(t time.Time) string {
	return t.In(a.loc).Format(DateLayout)
}

// GetRestaurantStats returns the stored rolling stats. Missing records and
// store failures yield a zero record.
func (a *Aggregator) GetRestaurantStats(ctx context.Context, restaurantID string) *model.RestaurantStats {
	stats, err := docstore.Fetch[model.RestaurantStats](ctx, a.store, docstore.CollectionStatsRolling, restaurantID)
	if err != nil {
		if !errors.Is(err, docstore.ErrNotFound) {
			a.logger.Warn("rolling stats lookup failed", "restaurant_id", restaurantID, "error", err)
		}
		return &model.RestaurantStats{RestaurantID: restaurantID}
	}
	return stats
}

// GetDailyStats returns the stored stats of one day, or nil.
func (a *Aggregator) GetDailyStats(ctx context.Context, restaurantID, date string) *model.RestaurantDailyStats {
	daily, err := docstore.Fetch[model.RestaurantDailyStats](ctx, a.store, docstore.CollectionStatsDaily, DailyKey(restaurantID, date))
	if err != nil {
		if !errors.Is(err, docstore.ErrNotFound) {
			a.logger.Warn("daily stats lookup failed", "restaurant_id", restaurantID, "date", date, "error", err)
		}
		return nil
	}
	return daily
}

// GetTopRatedRestaurants returns restaurants with enough reviews, best
// weighted average first. Store failures yield an empty list.
func (a *Aggregator) GetTopRatedRestaurants(ctx context.Context, limit int) []model.RestaurantStats {
	all, err := docstore.FetchAll[model.RestaurantStats](ctx, a.store, docstore.CollectionStatsRolling, docstore.ListOptions{
		Limit: a.tuning.ScanPageSize,
	})
	if err != nil {
		a.logger.Warn("rolling stats scan failed", "error", err)
		return []model.RestaurantStats{}
	}

	ranked := lo.Filter(all, func(s model.RestaurantStats, _ int) bool {
		return s.TotalReviews >= a.tuning.MinReviewsForRanking
	})
	slices.SortStableFunc(ranked, func(x, y model.RestaurantStats) int {
		switch {
		case x.WeightedAverageRating > y.WeightedAverageRating:
			return -1
		case x.WeightedAverageRating < y.WeightedAverageRating:
			return 1
		default:
			return 0
		}
	})

	if limit >= 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// StatsForRestaurants loads rolling stats of many restaurants in parallel.
// The result has one entry per id.
func (a *Aggregator) StatsForRestaurants(ctx context.Context, ids []string) map[string]*model.RestaurantStats {
	results := make([]*model.RestaurantStats, len(ids))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.tuning.StatsConcurrency)
	for i, id := range ids {
		g.Go(func() error {
			results[i] = a.GetRestaurantStats(gctx, id)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]*model.RestaurantStats, len(ids))
	for i, id := range ids {
		out[id] = results[i]
	}
	return out
}

// RecomputeResult summarises a RecomputeAll run.
type RecomputeResult struct {
	Restaurants int
	Failed      int
}

// RecomputeAll recomputes rolling stats and the daily stats of date for every
// restaurant. Failures are logged and counted; the run continues.
func (a *Aggregator) RecomputeAll(ctx context.Context, date string) (RecomputeResult, error) {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return RecomputeResult{}, fmt.Errorf("invalid date %q: %w", date, err)
	}

	docs, err := a.store.List(ctx, docstore.CollectionRestaurants, docstore.ListOptions{
		Limit: a.tuning.ScanPageSize,
	})
	if err != nil {
		return RecomputeResult{}, fmt.Errorf("list restaurants: %w", err)
	}

	var result RecomputeResult
	for _, doc := range docs {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.Restaurants++

		if _, err := a.CalculateRollingStats(ctx, doc.Key); err != nil {
			a.logger.Error("rolling stats recompute failed", "restaurant_id", doc.Key, "error", err)
			result.Failed++
			continue
		}
		if _, err := a.UpdateDailyStats(ctx, doc.Key, date); err != nil {
			a.logger.Error("daily stats recompute failed", "restaurant_id", doc.Key, "date", date, "error", err)
			result.Failed++
		}
	}

	a.logger.Info("stats recompute finished",
		"date", date,
		"restaurants", result.Restaurants,
		"failed", result.Failed,
	)
	return result, nil
}
