// Package token pays incentive tokens to review authors when their reviews
// are liked. User keys are ledger account ids.
package token

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mtlprog/foodlog/internal/docstore"
	"github.com/mtlprog/foodlog/internal/metrics"
	"github.com/mtlprog/foodlog/internal/model"
)

var (
	// ErrAlreadyLiked is returned for a second like of the same review by the same user.
	ErrAlreadyLiked = errors.New("review already liked")
	// ErrSelfLike is returned when an author likes their own review.
	ErrSelfLike = errors.New("cannot like own review")
	// ErrInvalidAccount is returned for user keys that are not ledger accounts.
	ErrInvalidAccount = errors.New("invalid ledger account")
)

// Ledger is the external token ledger.
type Ledger interface {
	Balance(ctx context.Context, account string) (decimal.Decimal, error)
	Mint(ctx context.Context, to string, amount decimal.Decimal, memo string) (string, error)
}

// ReviewGetter loads reviews.
type ReviewGetter interface {
	Get(ctx context.Context, id string) (*model.Review, error)
}

// Service records likes and mints their reward.
type Service struct {
	store   docstore.Store
	ledger  Ledger
	reviews ReviewGetter
	reward  decimal.Decimal
	logger  *slog.Logger
	metrics *metrics.Metrics
	now     func() time.Time
}

// Option is a functional option for configuring a Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics counts likes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// WithClock overrides the time source of like records.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a token service minting reward per like.
func NewService(store docstore.Store, ledger Ledger, reviews ReviewGetter, reward decimal.Decimal, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("document store is required")
	}
	if ledger == nil {
		return nil, errors.New("ledger is required")
	}
	if reviews == nil {
		return nil, errors.New("review getter is required")
	}
	if !reward.IsPositive() {
		return nil, fmt.Errorf("mint per like must be positive, got %s", reward)
	}

	s := &Service{
		store:   store,
		ledger:  ledger,
		reviews: reviews,
		reward:  reward,
		logger:  slog.Default(),
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// LikeKey is the document key of a like.
func LikeKey(reviewID, likerID string) string {
	return reviewID + "_" + likerID
}

// LikeReview records a like of liker on a review and mints the reward to the
// review author. Each (review, liker) pair mints at most once; the like is
// claimed before minting and released when the mint fails.
func (s *Service) LikeReview(ctx context.Context, reviewID, likerID string) (like *model.Like, err error) {
	defer func() { s.metrics.Like(err) }()

	r, err := s.reviews.Get(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if r.AuthorID == likerID {
		return nil, ErrSelfLike
	}

	key := LikeKey(reviewID, likerID)
	like = &model.Like{
		ReviewID:  reviewID,
		LikerID:   likerID,
		AuthorID:  r.AuthorID,
		CreatedAt: s.now(),
	}
	if err := docstore.Insert(ctx, s.store, docstore.CollectionReviewLikes, key, like); err != nil {
		if errors.Is(err, docstore.ErrExists) {
			return nil, ErrAlreadyLiked
		}
		return nil, fmt.Errorf("save like: %w", err)
	}

	hash, err := s.ledger.Mint(ctx, r.AuthorID, s.reward, "like "+reviewID)
	if err != nil {
		if delErr := s.store.Delete(ctx, docstore.CollectionReviewLikes, key); delErr != nil {
			s.logger.Error("failed to release like after mint failure", "review_id", reviewID, "liker_id", likerID, "error", delErr)
		}
		return nil, fmt.Errorf("mint reward: %w", err)
	}

	like.TxHash = hash
	if err := docstore.Put(ctx, s.store, docstore.CollectionReviewLikes, key, like); err != nil {
		// the reward is paid and the claim exists, only the hash is missing
		s.logger.Warn("failed to store like transaction hash", "review_id", reviewID, "tx_hash", hash, "error", err)
	}

	s.logger.Info("review liked",
		"review_id", reviewID,
		"liker_id", likerID,
		"author_id", r.AuthorID,
		"amount", FormatAmount(s.reward),
		"tx_hash", hash,
	)
	return like, nil
}

// HasLiked reports whether liker has liked a review.
func (s *Service) HasLiked(ctx context.Context, reviewID, likerID string) (bool, error) {
	_, err := s.store.Get(ctx, docstore.CollectionReviewLikes, LikeKey(reviewID, likerID))
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("get like: %w", err)
	}
	return true, nil
}

// LikeCount returns the number of likes of a review. Store failures count as zero.
func (s *Service) LikeCount(ctx context.Context, reviewID string) int {
	docs, err := s.store.List(ctx, docstore.CollectionReviewLikes, docstore.ListOptions{
		Match: map[string]string{"reviewId": reviewID},
	})
	if err != nil {
		s.logger.Warn("like count failed", "review_id", reviewID, "error", err)
		return 0
	}
	return len(docs)
}

// Balance returns the token balance of a user.
func (s *Service) Balance(ctx context.Context, userID string) (decimal.Decimal, error) {
	return s.ledger.Balance(ctx, userID)
}

// Reward returns the amount minted per like.
func (s *Service) Reward() decimal.Decimal {
	return s.reward
}
