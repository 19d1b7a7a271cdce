package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/mtlprog/foodlog/internal/metrics"
	"github.com/mtlprog/foodlog/internal/model"
	"github.com/mtlprog/foodlog/internal/vote"
)

// ErrSelfVote is returned when a user votes on their own review.
var ErrSelfVote = errors.New("cannot vote on own review")

// VoteLedger records review votes.
type VoteLedger interface {
	Vote(ctx context.Context, reviewID, voterID string, kind model.VoteKind) (*vote.Result, error)
	RemoveVote(ctx context.Context, reviewID, voterID string) error
	GetUserVoteForReview(ctx context.Context, reviewID, voterID string) (*model.ReviewVote, error)
}

// ReputationUpdater adjusts an author's vote counters.
type ReputationUpdater interface {
	IncrementVotes(ctx context.Context, userID string, kind model.VoteKind, delta int) (*model.UserReputation, error)
}

// VotingService casts and withdraws votes and applies their side effects:
// the author's reputation and the restaurant's stats.
type VotingService struct {
	reviews    *Service
	ledger     VoteLedger
	reputation ReputationUpdater
	metrics    *metrics.Metrics
	logger     *slog.Logger
}

// VotingOption is a functional option for configuring a VotingService.
type VotingOption func(*VotingService)

// WithVotingLogger sets a custom logger for the voting service.
func WithVotingLogger(logger *slog.Logger) VotingOption {
	return func(v *VotingService) {
		v.logger = logger
	}
}

// WithVotingMetrics counts vote actions.
func WithVotingMetrics(m *metrics.Metrics) VotingOption {
	return func(v *VotingService) {
		v.metrics = m
	}
}

// NewVotingService creates a new voting service.
func NewVotingService(reviews *Service, ledger VoteLedger, reputation ReputationUpdater, opts ...VotingOption) (*VotingService, error) {
	if reviews == nil {
		return nil, errors.New("review service is required")
	}
	if ledger == nil {
		return nil, errors.New("vote ledger is required")
	}
	if reputation == nil {
		return nil, errors.New("reputation updater is required")
	}

	v := &VotingService{
		reviews:    reviews,
		ledger:     ledger,
		reputation: reputation,
		logger:     slog.Default(),
	}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Cast records the vote of voter on a review. The author's reputation is
// incremented only for a first vote; changing the kind of an existing vote
// leaves the reputation counters untouched. The restaurant stats are
// recomputed afterwards.
func (v *VotingService) Cast(ctx context.Context, reviewID, voterID string, kind model.VoteKind) (*vote.Result, error) {
	r, err := v.reviews.Get(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if r.AuthorID == voterID {
		return nil, ErrSelfVote
	}

	res, err := v.ledger.Vote(ctx, reviewID, voterID, kind)
	if err != nil {
		return nil, fmt.Errorf("record vote: %w", err)
	}

	switch {
	case res.Previous == nil:
		if _, err := v.reputation.IncrementVotes(ctx, r.AuthorID, kind, 1); err != nil {
			return res, fmt.Errorf("update author reputation: %w", err)
		}
		v.metrics.Vote("cast", string(kind))
	case res.Changed():
		v.metrics.Vote("change", string(kind))
	}

	v.logger.Info("vote cast",
		"review_id", reviewID,
		"voter_id", voterID,
		"vote_type", string(kind),
		"first_vote", res.Previous == nil,
	)

	if err := v.reviews.RecomputeFor(ctx, r); err != nil {
		return res, err
	}
	return res, nil
}

// Withdraw removes the vote of voter on a review and recomputes the
// restaurant stats. Reputation counters are not decremented.
func (v *VotingService) Withdraw(ctx context.Context, reviewID, voterID string) error {
	r, err := v.reviews.Get(ctx, reviewID)
	if err != nil {
		return err
	}

	existing, err := v.ledger.GetUserVoteForReview(ctx, reviewID, voterID)
	if err != nil {
		return fmt.Errorf("get vote: %w", err)
	}
	if err := v.ledger.RemoveVote(ctx, reviewID, voterID); err != nil {
		return fmt.Errorf("remove vote: %w", err)
	}
	if existing != nil {
		v.metrics.Vote("withdraw", string(existing.VoteType))
	}

	return v.reviews.RecomputeFor(ctx, r)
}
