package reputation

import (
	"context"
	"errors"
	"fmt"

	"github.com/mtlprog/foodlog/internal/docstore"
	"github.com/mtlprog/foodlog/internal/model"
)

// Repository handles reputation record access.
type Repository struct {
	store docstore.Store
}

// NewRepository creates a new reputation repository.
func NewRepository(store docstore.Store) (*Repository, error) {
	if store == nil {
		return nil, errors.New("document store is required")
	}
	return &Repository{store: store}, nil
}

// Get returns the stored reputation of a user, or nil if none exists.
func (r *Repository) Get(ctx context.Context, userID string) (*model.UserReputation, error) {
	rep, err := docstore.Fetch[model.UserReputation](ctx, r.store, docstore.CollectionReputation, userID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("fetch reputation: %w", err)
	}
	return rep, nil
}

// Save overwrites the reputation record of a user.
func (r *Repository) Save(ctx context.Context, rep *model.UserReputation) error {
	if err := docstore.Put(ctx, r.store, docstore.CollectionReputation, rep.UserID, rep); err != nil {
		return fmt.Errorf("save reputation: %w", err)
	}
	return nil
}

// List returns up to limit reputation records.
func (r *Repository) List(ctx context.Context, limit int) ([]model.UserReputation, error) {
	reps, err := docstore.FetchAll[model.UserReputation](ctx, r.store, docstore.CollectionReputation, docstore.ListOptions{
		Limit: limit,
	})
	if err != nil {
		return nil, fmt.Errorf("list reputations: %w", err)
	}
	return reps, nil
}
