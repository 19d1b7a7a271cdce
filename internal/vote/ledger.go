// Package vote records helpful / not-helpful votes on reviews.
// At most one live vote exists per (review, voter); the ledger never touches
// reputation counters.
package vote

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/mtlprog/foodlog/internal/docstore"
	"github.com/mtlprog/foodlog/internal/model"
)

// Tally counts the votes of a review by kind.
type Tally struct {
	Helpful    int `json:"helpful"`
	NotHelpful int `json:"notHelpful"`
}

// Total returns the number of votes.
func (t Tally) Total() int {
	return t.Helpful + t.NotHelpful
}

func (t *Tally) add(kind model.VoteKind) {
	switch kind {
	case model.VoteHelpful:
		t.Helpful++
	case model.VoteNotHelpful:
		t.NotHelpful++
	}
}

// Result is the outcome of casting a vote.
type Result struct {
	Vote *model.ReviewVote
	// Previous is a copy of the vote before it was overwritten, nil for a new vote.
	Previous *model.ReviewVote
}

// Changed reports whether an existing vote switched kind.
func (r Result) Changed() bool {
	return r.Previous != nil && r.Previous.VoteType != r.Vote.VoteType
}

// Ledger stores review votes in the review_votes collection.
type Ledger struct {
	store     docstore.Store
	logger    *slog.Logger
	now       func() time.Time
	newID     func() string
	scanLimit int
}

// DefaultScanLimit caps vote collection scans.
const DefaultScanLimit = 10000

// Option is a functional option for configuring a Ledger.
type Option func(*Ledger)

// WithLogger sets a custom logger for the ledger.
func WithLogger(logger *slog.Logger) Option {
	return func(l *Ledger) {
		l.logger = logger
	}
}

// WithClock overrides the time source for new votes.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

// WithIDGenerator overrides the id source for new votes.
func WithIDGenerator(newID func() string) Option {
	return func(l *Ledger) {
		l.newID = newID
	}
}

// WithScanLimit sets the page size of vote scans.
func WithScanLimit(limit int) Option {
	return func(l *Ledger) {
		l.scanLimit = limit
	}
}

// NewLedger creates a new vote ledger.
func NewLedger(store docstore.Store, opts ...Option) (*Ledger, error) {
	if store == nil {
		return nil, errors.New("document store is required")
	}

	l := &Ledger{
		store:     store,
		logger:    slog.Default(),
		now:       time.Now,
		newID:     uuid.NewString,
		scanLimit: DefaultScanLimit,
	}
	for _, opt := range opts {
		opt(l)
	}
	return l, nil
}

// Vote records a vote of voter on review. An existing vote is overwritten in
// place keeping its id and createdAt; resubmitting the same kind is a no-op
// apart from the write.
//
// The lookup and the write are not atomic: two concurrent first votes of the
// same voter can both see no vote and create two records.
func (l *Ledger) Vote(ctx context.Context, reviewID, voterID string, kind model.VoteKind) (*Result, error) {
	if !kind.IsValid() {
		return nil, fmt.Errorf("invalid vote kind %q", kind)
	}

	existing, err := l.findVote(ctx, reviewID, voterID)
	if err != nil {
		return nil, err
	}

	result := &Result{}
	var v model.ReviewVote
	if existing != nil {
		prev := *existing
		result.Previous = &prev
		v = *existing
		v.VoteType = kind
	} else {
		v = model.ReviewVote{
			ID:        l.newID(),
			ReviewID:  reviewID,
			VoterID:   voterID,
			VoteType:  kind,
			CreatedAt: l.now(),
		}
	}

	if err := docstore.Put(ctx, l.store, docstore.CollectionReviewVotes, v.ID, v); err != nil {
		return nil, fmt.Errorf("save vote: %w", err)
	}

	l.logger.Debug("vote recorded",
		"review_id", reviewID,
		"voter_id", voterID,
		"vote_type", string(kind),
		"updated", existing != nil,
	)

	result.Vote = &v
	return result, nil
}

// RemoveVote deletes the vote of voter on review. Removing a missing vote is a no-op.
func (l *Ledger) RemoveVote(ctx context.Context, reviewID, voterID string) error {
	existing, err := l.findVote(ctx, reviewID, voterID)
	if err != nil {
		return err
	}
	if existing == nil {
		return nil
	}

	if err := l.store.Delete(ctx, docstore.CollectionReviewVotes, existing.ID); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("delete vote: %w", err)
	}
	return nil
}

// GetUserVoteForReview returns the vote of voter on review, or nil when there is none.
// Store failures are logged and reported as no vote.
func (l *Ledger) GetUserVoteForReview(ctx context.Context, reviewID, voterID string) (*model.ReviewVote, error) {
	v, err := l.findVote(ctx, reviewID, voterID)
	if err != nil {
		l.logger.Warn("vote lookup failed", "review_id", reviewID, "voter_id", voterID, "error", err)
		return nil, nil
	}
	return v, nil
}

// findVote is the lookup of the write path; it propagates store failures.
func (l *Ledger) findVote(ctx context.Context, reviewID, voterID string) (*model.ReviewVote, error) {
	votes, err := docstore.FetchAll[model.ReviewVote](ctx, l.store, docstore.CollectionReviewVotes, docstore.ListOptions{
		Match: map[string]string{"reviewId": reviewID, "voterId": voterID},
		Limit: l.scanLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("find vote: %w", err)
	}
	if len(votes) == 0 {
		return nil, nil
	}
	return &votes[0], nil
}

// GetVotesForReview counts the votes of a review by kind. Store failures yield a zero tally.
func (l *Ledger) GetVotesForReview(ctx context.Context, reviewID string) (Tally, error) {
	votes, err := docstore.FetchAll[model.ReviewVote](ctx, l.store, docstore.CollectionReviewVotes, docstore.ListOptions{
		Match: map[string]string{"reviewId": reviewID},
		Limit: l.scanLimit,
	})
	if err != nil {
		l.logger.Warn("vote tally failed", "review_id", reviewID, "error", err)
		return Tally{}, nil
	}

	var t Tally
	for _, v := range votes {
		t.add(v.VoteType)
	}
	return t, nil
}

// VotesByUser returns all votes cast by a voter, oldest first.
func (l *Ledger) VotesByUser(ctx context.Context, voterID string) ([]model.ReviewVote, error) {
	votes, err := docstore.FetchAll[model.ReviewVote](ctx, l.store, docstore.CollectionReviewVotes, docstore.ListOptions{
		Match: map[string]string{"voterId": voterID},
		Order: docstore.OrderByCreatedAt,
		Limit: l.scanLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("list votes by user: %w", err)
	}
	return votes, nil
}
