package user

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/samber/lo"

	"github.com/mtlprog/foodlog/internal/docstore"
	"github.com/mtlprog/foodlog/internal/model"
	"github.com/mtlprog/foodlog/internal/reputation"
)

// RecentReviewCount is the number of latest reviews shown on a dashboard.
const RecentReviewCount = 5

// ReputationReader returns a user's reputation record.
type ReputationReader interface {
	GetUserReputation(ctx context.Context, userID string) (*model.UserReputation, error)
}

// StatsService builds per-user dashboard aggregates.
type StatsService struct {
	store      docstore.Store
	reputation ReputationReader
}

// NewStatsService creates a new dashboard stats service.
func NewStatsService(store docstore.Store, rep ReputationReader) (*StatsService, error) {
	if store == nil {
		return nil, errors.New("document store is required")
	}
	if rep == nil {
		return nil, errors.New("reputation reader is required")
	}
	return &StatsService{store: store, reputation: rep}, nil
}

// Stats aggregates the reviews and reputation of a user.
func (s *StatsService) Stats(ctx context.Context, userID string) (*model.UserStats, error) {
	reviews, err := docstore.FetchAll[model.Review](ctx, s.store, docstore.CollectionReviews, docstore.ListOptions{
		Match: map[string]string{"authorId": userID},
		Limit: DefaultScanLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("list user reviews: %w", err)
	}
	slices.SortStableFunc(reviews, func(a, b model.Review) int {
		return b.UpdatedAt.Compare(a.UpdatedAt)
	})

	rep, err := s.reputation.GetUserReputation(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get reputation: %w", err)
	}

	byCategory, err := s.reviewsByCategory(ctx, reviews)
	if err != nil {
		return nil, err
	}

	var average float64
	if len(reviews) > 0 {
		average = reputation.Round2(lo.SumBy(reviews, func(r model.Review) float64 { return r.Rating }) / float64(len(reviews)))
	}

	return &model.UserStats{
		TotalReviews:      len(reviews),
		AverageRating:     average,
		ReputationScore:   rep.ReputationScore,
		HelpfulVotes:      rep.TotalHelpfulVotes,
		NotHelpfulVotes:   rep.TotalNotHelpfulVotes,
		ReviewsByCategory: byCategory,
		RecentReviews:     lo.Slice(reviews, 0, RecentReviewCount),
		AuthorWeight:      reputation.WeightForScore(rep.ReputationScore),
		TrustLevel:        reputation.ClassifyTrust(rep.ReputationScore, len(reviews)),
	}, nil
}

// reviewsByCategory counts reviews per main category of their restaurant.
// Reviews of unknown restaurants are skipped.
func (s *StatsService) reviewsByCategory(ctx context.Context, reviews []model.Review) (map[string]int, error) {
	counts := make(map[string]int)
	categories := make(map[string]model.Category)
	for _, r := range reviews {
		c, ok := categories[r.RestaurantID]
		if !ok {
			restaurant, err := docstore.Fetch[model.Restaurant](ctx, s.store, docstore.CollectionRestaurants, r.RestaurantID)
			switch {
			case errors.Is(err, docstore.ErrNotFound):
			case err != nil:
				return nil, fmt.Errorf("get restaurant: %w", err)
			default:
				c = restaurant.Category
			}
			categories[r.RestaurantID] = c
		}
		if c == "" {
			continue
		}
		counts[string(c.Main())]++
	}
	return counts, nil
}
