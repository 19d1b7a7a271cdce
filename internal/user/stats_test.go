package user

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mtlprog/foodlog/internal/docstore"
	"github.com/mtlprog/foodlog/internal/model"
)

type stubReputation struct {
	rep *model.UserReputation
	err error
}

func (s stubReputation) GetUserReputation(_ context.Context, userID string) (*model.UserReputation, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.rep == nil {
		return &model.UserReputation{UserID: userID, ReputationScore: 1.0}, nil
	}
	return s.rep, nil
}

func TestStatsService_Stats(t *testing.T) {
	ctx := context.Background()
	store := docstore.NewMemory()

	for id, c := range map[string]model.Category{"sushi": model.CategorySushi, "ramen": model.CategoryRamen, "bistro": model.CategoryFrench} {
		require.NoError(t, docstore.Put(ctx, store, docstore.CollectionRestaurants, id, model.Restaurant{ID: id, Category: c}))
	}

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	restaurants := []string{"sushi", "ramen", "bistro", "sushi", "ramen", "sushi", "gone"}
	for i, rid := range restaurants {
		r := model.Review{
			ID:           fmt.Sprintf("r%d", i),
			RestaurantID: rid,
			AuthorID:     "kenji",
			Rating:       float64(i%5 + 1),
			UpdatedAt:    base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, docstore.Put(ctx, store, docstore.CollectionReviews, r.ID, r))
	}
	require.NoError(t, docstore.Put(ctx, store, docstore.CollectionReviews, "other",
		model.Review{ID: "other", RestaurantID: "sushi", AuthorID: "someone", Rating: 1}))

	rep := &model.UserReputation{UserID: "kenji", TotalHelpfulVotes: 20, TotalNotHelpfulVotes: 1, ReputationScore: 1.33}
	svc, err := NewStatsService(store, stubReputation{rep: rep})
	require.NoError(t, err)

	stats, err := svc.Stats(ctx, "kenji")
	require.NoError(t, err)

	assert.Equal(t, 7, stats.TotalReviews)
	// ratings 1,2,3,4,5,1,2
	assert.Equal(t, 2.57, stats.AverageRating)
	assert.Equal(t, 1.33, stats.ReputationScore)
	assert.Equal(t, 20, stats.HelpfulVotes)
	assert.Equal(t, 1, stats.NotHelpfulVotes)
	assert.Equal(t, map[string]int{"japanese": 5, "western": 1}, stats.ReviewsByCategory)
	require.Len(t, stats.RecentReviews, RecentReviewCount)
	assert.Equal(t, "r6", stats.RecentReviews[0].ID)
	assert.InDelta(t, 0.766, stats.AuthorWeight, 1e-9)
	assert.Equal(t, model.TrustExperienced, stats.TrustLevel)
}

func TestStatsService_NoReviews(t *testing.T) {
	svc, err := NewStatsService(docstore.NewMemory(), stubReputation{})
	require.NoError(t, err)

	stats, err := svc.Stats(context.Background(), "newbie")
	require.NoError(t, err)
	assert.Zero(t, stats.TotalReviews)
	assert.Zero(t, stats.AverageRating)
	assert.Empty(t, stats.RecentReviews)
	assert.Empty(t, stats.ReviewsByCategory)
	assert.Equal(t, model.TrustBeginner, stats.TrustLevel)
	assert.InDelta(t, 0.7, stats.AuthorWeight, 1e-9)
}

func TestStatsService_Errors(t *testing.T) {
	ctx := context.Background()

	store := docstore.NewMemory()
	svc, err := NewStatsService(store, stubReputation{})
	require.NoError(t, err)
	store.FailNext(docstore.CollectionReviews, errors.New("down"))
	_, err = svc.Stats(ctx, "u")
	assert.ErrorContains(t, err, "list user reviews")

	svc, err = NewStatsService(docstore.NewMemory(), stubReputation{err: errors.New("corrupt")})
	require.NoError(t, err)
	_, err = svc.Stats(ctx, "u")
	assert.ErrorContains(t, err, "get reputation")

	_, err = NewStatsService(nil, stubReputation{})
	assert.Error(t, err)
}
