// Package review manages restaurant reviews and the vote workflow around them.
package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mtlprog/foodlog/internal/docstore"
	"github.com/mtlprog/foodlog/internal/model"
	"github.com/mtlprog/foodlog/internal/validate"
)

var (
	// ErrNotFound is returned when a review does not exist.
	ErrNotFound = errors.New("review not found")
	// ErrRestaurantNotFound is returned when a review targets an unknown restaurant.
	ErrRestaurantNotFound = errors.New("restaurant not found")
	// ErrForbidden is returned when a user edits a review they did not write.
	ErrForbidden = errors.New("review belongs to another user")
	// ErrStatsRecompute is returned when a review was stored but the
	// restaurant statistics could not be refreshed.
	ErrStatsRecompute = errors.New("restaurant stats recompute failed")
)

// DefaultListLimit caps review scans.
const DefaultListLimit = 1000

// StatsRecomputer refreshes restaurant aggregates after a review change.
type StatsRecomputer interface {
	CalculateRollingStats(ctx context.Context, restaurantID string) (*model.RestaurantStats, error)
	UpdateDailyStats(ctx context.Context, restaurantID, date string) (*model.RestaurantDailyStats, error)
	Today() string
	DateOf(t time.Time) string
}

// NameResolver resolves a user's display name.
type NameResolver interface {
	DisplayName(ctx context.Context, userID string) string
}

// Ratings are the optional sub-ratings of a review.
type Ratings struct {
	AtmosphereRating  *float64 `json:"atmosphereRating,omitempty" validate:"omitempty,gte=1,lte=5"`
	TasteRating       *float64 `json:"tasteRating,omitempty" validate:"omitempty,gte=1,lte=5"`
	ServiceRating     *float64 `json:"serviceRating,omitempty" validate:"omitempty,gte=1,lte=5"`
	ValuePriceRating  *float64 `json:"valuePriceRating,omitempty" validate:"omitempty,gte=1,lte=5"`
	CleanlinessRating *float64 `json:"cleanlinessRating,omitempty" validate:"omitempty,gte=1,lte=5"`
}

// Content is the user-editable part of a review.
type Content struct {
	Rating    float64  `json:"rating" validate:"gte=1,lte=5"`
	Comment   string   `json:"comment" validate:"max=2000"`
	VisitDate string   `json:"visitDate" validate:"omitempty,datetime=2006-01-02"`
	PhotoURLs []string `json:"photoUrls" validate:"max=10"`
	Ratings
}

// CreateInput is the payload of a new review.
type CreateInput struct {
	RestaurantID string `json:"restaurantId" validate:"required"`
	AuthorID     string `json:"authorId" validate:"required"`
	AuthorName   string `json:"authorName" validate:"max=100"`
	Content
}

// Service stores reviews and keeps restaurant stats in step with them.
type Service struct {
	store  docstore.Store
	stats  StatsRecomputer
	names  NameResolver
	logger *slog.Logger
	now    func() time.Time
	newID  func() string
}

// Option is a functional option for configuring a Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the time source of review timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator overrides the review id source.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

// NewService creates a new review service.
func NewService(store docstore.Store, stats StatsRecomputer, names NameResolver, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("document store is required")
	}
	if stats == nil {
		return nil, errors.New("stats recomputer is required")
	}
	if names == nil {
		return nil, errors.New("name resolver is required")
	}

	s := &Service{
		store:  store,
		stats:  stats,
		names:  names,
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create validates and stores a review, then recomputes the rolling stats
// and today's daily stats of its restaurant. When the recompute fails the
// review stays stored and an error wrapping ErrStatsRecompute is returned
// together with it.
func (s *Service) Create(ctx context.Context, in CreateInput) (*model.Review, error) {
	in.AuthorName = strings.TrimSpace(in.AuthorName)
	in.Comment = strings.TrimSpace(in.Comment)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	if _, err := s.store.Get(ctx, docstore.CollectionRestaurants, in.RestaurantID); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrRestaurantNotFound
		}
		return nil, fmt.Errorf("get restaurant: %w", err)
	}

	if in.AuthorName == "" {
		in.AuthorName = s.names.DisplayName(ctx, in.AuthorID)
	}

	now := s.now()
	r := &model.Review{
		ID:           s.newID(),
		RestaurantID: in.RestaurantID,
		AuthorID:     in.AuthorID,
		AuthorName:   in.AuthorName,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	applyContent(r, in.Content)

	if err := docstore.Put(ctx, s.store, docstore.CollectionReviews, r.ID, r); err != nil {
		return nil, fmt.Errorf("save review: %w", err)
	}

	s.logger.Info("review created",
		"review_id", r.ID,
		"restaurant_id", r.RestaurantID,
		"author_id", r.AuthorID,
		"rating", r.Rating,
	)

	if err := s.Recompute(ctx, r.RestaurantID); err != nil {
		return r, err
	}
	return r, nil
}

// Get returns a review or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*model.Review, error) {
	r, err := docstore.Fetch[model.Review](ctx, s.store, docstore.CollectionReviews, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get review: %w", err)
	}
	return r, nil
}

// Update fully replaces the content of a review written by editorID. Id,
// author and createdAt are kept.
func (s *Service) Update(ctx context.Context, id, editorID string, in Content) (*model.Review, error) {
	in.Comment = strings.TrimSpace(in.Comment)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.AuthorID != editorID {
		return nil, ErrForbidden
	}

	applyContent(r, in)
	r.UpdatedAt = s.now()

	if err := docstore.Put(ctx, s.store, docstore.CollectionReviews, r.ID, r); err != nil {
		return nil, fmt.Errorf("save review: %w", err)
	}

	if err := s.RecomputeFor(ctx, r); err != nil {
		return r, err
	}
	return r, nil
}

// Delete removes a review written by editorID and recomputes the stats of
// its restaurant.
func (s *Service) Delete(ctx context.Context, id, editorID string) error {
	r, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if r.AuthorID != editorID {
		return ErrForbidden
	}

	if err := s.store.Delete(ctx, docstore.CollectionReviews, id); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("delete review: %w", err)
	}

	s.logger.Info("review deleted", "review_id", id, "restaurant_id", r.RestaurantID)
	return s.RecomputeFor(ctx, r)
}

// Recompute refreshes the rolling stats and today's daily stats of a restaurant.
func (s *Service) Recompute(ctx context.Context, restaurantID string) error {
	return s.recompute(ctx, restaurantID, s.stats.Today())
}

// RecomputeFor refreshes the rolling stats of the review's restaurant and
// the daily stats of the day the review was created.
func (s *Service) RecomputeFor(ctx context.Context, r *model.Review) error {
	return s.recompute(ctx, r.RestaurantID, s.stats.DateOf(r.CreatedAt))
}

func (s *Service) recompute(ctx context.Context, restaurantID, date string) error {
	if _, err := s.stats.CalculateRollingStats(ctx, restaurantID); err != nil {
		s.logger.Error("rolling stats recompute failed", "restaurant_id", restaurantID, "error", err)
		return fmt.Errorf("%w: %w", ErrStatsRecompute, err)
	}
	if _, err := s.stats.UpdateDailyStats(ctx, restaurantID, date); err != nil {
		s.logger.Error("daily stats recompute failed", "restaurant_id", restaurantID, "date", date, "error", err)
		return fmt.Errorf("%w: %w", ErrStatsRecompute, err)
	}
	return nil
}

// ListByRestaurant returns the reviews of a restaurant, newest first.
func (s *Service) ListByRestaurant(ctx context.Context, restaurantID string) ([]model.Review, error) {
	return s.list(ctx, map[string]string{"restaurantId": restaurantID}, DefaultListLimit)
}

// ListByAuthor returns the reviews written by a user, newest first.
func (s *Service) ListByAuthor(ctx context.Context, authorID string) ([]model.Review, error) {
	return s.list(ctx, map[string]string{"authorId": authorID}, DefaultListLimit)
}

// Recent returns the latest reviews across all restaurants.
func (s *Service) Recent(ctx context.Context, limit int) ([]model.Review, error) {
	if limit <= 0 || limit > DefaultListLimit {
		limit = DefaultListLimit
	}
	return s.list(ctx, nil, limit)
}

func (s *Service) list(ctx context.Context, match map[string]string, limit int) ([]model.Review, error) {
	reviews, err := docstore.FetchAll[model.Review](ctx, s.store, docstore.CollectionReviews, docstore.ListOptions{
		Match: match,
		Order: docstore.OrderByCreatedAt,
		Desc:  true,
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	slices.SortStableFunc(reviews, func(a, b model.Review) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return reviews, nil
}

func applyContent(r *model.Review, c Content) {
	r.Rating = c.Rating
	r.Comment = c.Comment
	r.VisitDate = c.VisitDate
	r.PhotoURLs = c.PhotoURLs
	r.AtmosphereRating = c.AtmosphereRating
	r.TasteRating = c.TasteRating
	r.ServiceRating = c.ServiceRating
	r.ValuePriceRating = c.ValuePriceRating
	r.CleanlinessRating = c.CleanlinessRating
}
