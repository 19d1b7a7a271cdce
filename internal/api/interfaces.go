package api

import (
	"context"
	"io"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/foodlog/internal/model"
	"github.com/mtlprog/foodlog/internal/restaurant"
	"github.com/mtlprog/foodlog/internal/review"
	"github.com/mtlprog/foodlog/internal/user"
	"github.com/mtlprog/foodlog/internal/vote"
)

type restaurantService interface {
	Create(ctx context.Context, owner string, in restaurant.Input) (*model.Restaurant, error)
	Get(ctx context.Context, id string) (*model.Restaurant, error)
	Update(ctx context.Context, id, editor string, in restaurant.Input) (*model.Restaurant, error)
	List(ctx context.Context, opts restaurant.ListOptions) ([]model.Restaurant, error)
}

type reviewService interface {
	Create(ctx context.Context, in review.CreateInput) (*model.Review, error)
	Get(ctx context.Context, id string) (*model.Review, error)
	Update(ctx context.Context, id, editorID string, in review.Content) (*model.Review, error)
	Delete(ctx context.Context, id, editorID string) error
	Recompute(ctx context.Context, restaurantID string) error
	ListByRestaurant(ctx context.Context, restaurantID string) ([]model.Review, error)
	ListByAuthor(ctx context.Context, authorID string) ([]model.Review, error)
}

type votingService interface {
	Cast(ctx context.Context, reviewID, voterID string, kind model.VoteKind) (*vote.Result, error)
	Withdraw(ctx context.Context, reviewID, voterID string) error
}

type voteReader interface {
	GetVotesForReview(ctx context.Context, reviewID string) (vote.Tally, error)
	GetUserVoteForReview(ctx context.Context, reviewID, voterID string) (*model.ReviewVote, error)
}

type statsReader interface {
	GetRestaurantStats(ctx context.Context, restaurantID string) *model.RestaurantStats
	GetDailyStats(ctx context.Context, restaurantID, date string) *model.RestaurantDailyStats
	GetTopRatedRestaurants(ctx context.Context, limit int) []model.RestaurantStats
	StatsForRestaurants(ctx context.Context, ids []string) map[string]*model.RestaurantStats
	Today() string
}

type reputationReader interface {
	GetUserReputation(ctx context.Context, userID string) (*model.UserReputation, error)
	GetAuthorWeight(ctx context.Context, userID string) float64
	TopContributors(ctx context.Context, limit int) []model.UserReputation
}

type profileService interface {
	Get(ctx context.Context, principalID string) (*model.UserProfile, error)
	Upsert(ctx context.Context, principalID string, in user.ProfileInput) (*model.UserProfile, error)
	DisplayName(ctx context.Context, userID string) string
}

type userStatsReader interface {
	Stats(ctx context.Context, userID string) (*model.UserStats, error)
}

type likeService interface {
	LikeReview(ctx context.Context, reviewID, likerID string) (*model.Like, error)
	HasLiked(ctx context.Context, reviewID, likerID string) (bool, error)
	LikeCount(ctx context.Context, reviewID string) int
	Balance(ctx context.Context, userID string) (decimal.Decimal, error)
	Reward() decimal.Decimal
}

type imageStore interface {
	Upload(ctx context.Context, collection, name, contentType string, r io.Reader, size int64) (string, error)
	Image(ctx context.Context, key string) ([]byte, string, error)
}
