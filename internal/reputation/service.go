package reputation

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/mtlprog/foodlog/internal/docstore"
	"github.com/mtlprog/foodlog/internal/model"
)

// DefaultScanLimit caps reputation collection scans.
const DefaultScanLimit = 1000

// Scorer turns vote history into reputation scores and author weights.
type Scorer struct {
	repo      *Repository
	logger    *slog.Logger
	now       func() time.Time
	scanLimit int
}

// Option is a functional option for configuring a Scorer.
type Option func(*Scorer)

// WithLogger sets a custom logger for the scorer.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Scorer) {
		s.logger = logger
	}
}

// WithClock overrides the time source used for LastUpdated.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) {
		s.now = now
	}
}

// WithScanLimit sets the page size of full reputation scans.
func WithScanLimit(limit int) Option {
	return func(s *Scorer) {
		s.scanLimit = limit
	}
}

// NewScorer creates a new reputation scorer.
func NewScorer(store docstore.Store, opts ...Option) (*Scorer, error) {
	repo, err := NewRepository(store)
	if err != nil {
		return nil, fmt.Errorf("create repository: %w", err)
	}

	s := &Scorer{
		repo:      repo,
		logger:    slog.Default(),
		now:       time.Now,
		scanLimit: DefaultScanLimit,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *Scorer) defaultReputation(userID string) *model.UserReputation {
	return &model.UserReputation{
		UserID:          userID,
		ReputationScore: DefaultScore,
		LastUpdated:     s.now(),
	}
}

// GetUserReputation returns the reputation of a user.
// A missing record or a failing store yields the neutral default.
func (s *Scorer) GetUserReputation(ctx context.Context, userID string) (*model.UserReputation, error) {
	rep, err := s.repo.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("reputation lookup failed, using default", "user_id", userID, "error", err)
		return s.defaultReputation(userID), nil
	}
	if rep == nil {
		return s.defaultReputation(userID), nil
	}
	return rep, nil
}

// UpdateUserReputation sets absolute vote counters and recomputes the score.
func (s *Scorer) UpdateUserReputation(ctx context.Context, userID string, helpful, notHelpful int) (*model.UserReputation, error) {
	rep := &model.UserReputation{
		UserID:               userID,
		TotalHelpfulVotes:    helpful,
		TotalNotHelpfulVotes: notHelpful,
		ReputationScore:      ComputeScore(helpful, notHelpful),
		LastUpdated:          s.now(),
	}
	if err := s.repo.Save(ctx, rep); err != nil {
		return nil, err
	}
	return rep, nil
}

// IncrementVotes adds delta to the counter matching kind and persists the
// recomputed reputation. A missing record starts from zero counts; any other
// read failure is returned so counters are never rebuilt from a default.
func (s *Scorer) IncrementVotes(ctx context.Context, userID string, kind model.VoteKind, delta int) (*model.UserReputation, error) {
	dh, dn, ok := counterDelta(kind, delta)
	if !ok {
		return nil, fmt.Errorf("invalid vote kind %q", kind)
	}

	current, err := s.repo.Get(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("get current reputation: %w", err)
	}
	if current == nil {
		current = s.defaultReputation(userID)
	}

	rep, err := s.UpdateUserReputation(ctx, userID, current.TotalHelpfulVotes+dh, current.TotalNotHelpfulVotes+dn)
	if err != nil {
		return nil, fmt.Errorf("update reputation: %w", err)
	}

	s.logger.Debug("reputation updated",
		"user_id", userID,
		"vote_type", string(kind),
		"score", rep.ReputationScore,
	)
	return rep, nil
}

// GetAuthorWeight returns the multiplier applied to an author's ratings.
// Authors without a reputation record weigh exactly DefaultWeight; the
// weight is not derived from the default score in that case.
func (s *Scorer) GetAuthorWeight(ctx context.Context, userID string) float64 {
	rep, err := s.repo.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("author weight lookup failed, using default", "user_id", userID, "error", err)
		return DefaultWeight
	}
	if rep == nil {
		return DefaultWeight
	}
	return WeightForScore(rep.ReputationScore)
}

// TopContributors returns the highest scored users. Store errors yield an empty list.
func (s *Scorer) TopContributors(ctx context.Context, limit int) []model.UserReputation {
	reps, err := s.repo.List(ctx, s.scanLimit)
	if err != nil {
		s.logger.Warn("reputation scan failed", "error", err)
		return []model.UserReputation{}
	}

	slices.SortStableFunc(reps, func(a, b model.UserReputation) int {
		switch {
		case a.ReputationScore > b.ReputationScore:
			return -1
		case a.ReputationScore < b.ReputationScore:
			return 1
		default:
			return 0
		}
	})

	if limit >= 0 && len(reps) > limit {
		reps = reps[:limit]
	}
	return reps
}
