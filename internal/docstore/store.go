// Package docstore is a key/value document store organised in collections.
// Documents are opaque JSON payloads; callers decode them into their own types.
package docstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"time"
)

// Collection names used by the service.
const (
	CollectionRestaurants  = "restaurants"
	CollectionReviews      = "reviews"
	CollectionReviewVotes  = "review_votes"
	CollectionUsers        = "users"
	CollectionReputation   = "user_reputation"
	CollectionStatsDaily   = "stats_restaurant_daily"
	CollectionStatsRolling = "stats_restaurant_rolling"
	CollectionConfig       = "config"
	CollectionImages       = "images"
	CollectionReviewLikes  = "review_likes"
)

var (
	// ErrNotFound is returned when a document does not exist.
	ErrNotFound = errors.New("document not found")
	// ErrExists is returned by Create when the key is already taken.
	ErrExists = errors.New("document already exists")
)

// Doc is a stored document.
type Doc struct {
	Key       string
	Data      []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}

// OrderField selects the sort column of a listing.
type OrderField string

const (
	OrderByKey       OrderField = "key"
	OrderByCreatedAt OrderField = "created_at"
	OrderByUpdatedAt OrderField = "updated_at"
)

// ListOptions filters, orders and paginates a listing.
type ListOptions struct {
	// Match keeps documents whose top-level string field equals the value.
	Match  map[string]string
	Order  OrderField
	Desc   bool
	Limit  int
	Offset int
}

var fieldPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// Validate checks field names and pagination bounds.
func (o ListOptions) Validate() error {
	for field := range o.Match {
		if !fieldPattern.MatchString(field) {
			return fmt.Errorf("invalid match field %q", field)
		}
	}
	switch o.Order {
	case "", OrderByKey, OrderByCreatedAt, OrderByUpdatedAt:
	default:
		return fmt.Errorf("invalid order field %q", o.Order)
	}
	if o.Limit < 0 || o.Offset < 0 {
		return errors.New("limit and offset must not be negative")
	}
	return nil
}

// Store is the document store contract.
type Store interface {
	// Set creates or fully replaces the document at key.
	Set(ctx context.Context, collection, key string, data []byte) error
	// Create stores the document only if key is free, atomically. It
	// returns ErrExists otherwise.
	Create(ctx context.Context, collection, key string, data []byte) error
	// Get returns ErrNotFound when the document is absent.
	Get(ctx context.Context, collection, key string) (*Doc, error)
	List(ctx context.Context, collection string, opts ListOptions) ([]Doc, error)
	// Delete returns ErrNotFound when the document is absent.
	Delete(ctx context.Context, collection, key string) error
}

// Put encodes v as JSON and stores it.
func Put[T any](ctx context.Context, s Store, collection, key string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, key, err)
	}
	if err := s.Set(ctx, collection, key, data); err != nil {
		return fmt.Errorf("set %s/%s: %w", collection, key, err)
	}
	return nil
}

// Insert encodes v as JSON and stores it under a key that must be free.
// The returned error wraps ErrExists when the key is taken.
func Insert[T any](ctx context.Context, s Store, collection, key string, v T) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode %s/%s: %w", collection, key, err)
	}
	if err := s.Create(ctx, collection, key, data); err != nil {
		return fmt.Errorf("create %s/%s: %w", collection, key, err)
	}
	return nil
}

// Fetch loads and decodes a single document.
func Fetch[T any](ctx context.Context, s Store, collection, key string) (*T, error) {
	doc, err := s.Get(ctx, collection, key)
	if err != nil {
		return nil, err
	}
	var v T
	if err := json.Unmarshal(doc.Data, &v); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", collection, key, err)
	}
	return &v, nil
}

// FetchAll lists and decodes documents.
func FetchAll[T any](ctx context.Context, s Store, collection string, opts ListOptions) ([]T, error) {
	docs, err := s.List(ctx, collection, opts)
	if err != nil {
		return nil, err
	}
	items := make([]T, 0, len(docs))
	for _, doc := range docs {
		var v T
		if err := json.Unmarshal(doc.Data, &v); err != nil {
			return nil, fmt.Errorf("decode %s/%s: %w", collection, doc.Key, err)
		}
		items = append(items, v)
	}
	return items, nil
}
