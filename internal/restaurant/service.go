// Package restaurant manages the restaurant catalogue.
package restaurant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/mtlprog/foodlog/internal/docstore"
	"github.com/mtlprog/foodlog/internal/model"
	"github.com/mtlprog/foodlog/internal/validate"
)

var (
	// ErrNotFound is returned when a restaurant does not exist.
	ErrNotFound = errors.New("restaurant not found")
	// ErrForbidden is returned when a non-owner edits a restaurant.
	ErrForbidden = errors.New("restaurant belongs to another user")
)

// DefaultListLimit caps restaurant scans.
const DefaultListLimit = 1000

// Input is the editable part of a restaurant.
type Input struct {
	Name          string          `json:"name" validate:"required,max=200"`
	Category      model.Category  `json:"category" validate:"required,category"`
	Address       string          `json:"address" validate:"required,max=500"`
	Location      *model.Location `json:"location,omitempty"`
	PhoneNumber   string          `json:"phoneNumber" validate:"max=50"`
	BusinessHours string          `json:"businessHours" validate:"max=500"`
	Description   string          `json:"description" validate:"max=2000"`
	ImageURLs     []string        `json:"imageUrls" validate:"max=10"`
	Website       string          `json:"website" validate:"omitempty,url"`
}

type locationCheck struct {
	Lat float64 `json:"lat" validate:"latitude"`
	Lng float64 `json:"lng" validate:"longitude"`
}

func (in Input) validate() error {
	if err := validate.Struct(in); err != nil {
		return err
	}
	if in.Location != nil {
		return validate.Struct(locationCheck{Lat: in.Location.Lat, Lng: in.Location.Lng})
	}
	return nil
}

// Service stores restaurants.
type Service struct {
	store  docstore.Store
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

// WithClock overrides the time source of timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithIDGenerator overrides the restaurant id source.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) {
		s.newID = newID
	}
}

// NewService creates a new restaurant service.
func NewService(store docstore.Store, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("document store is required")
	}
	s := &Service{
		store:  store,
		logger: slog.Default(),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Create validates and stores a new restaurant owned by owner.
func (s *Service) Create(ctx context.Context, owner string, in Input) (*model.Restaurant, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.validate(); err != nil {
		return nil, err
	}

	now := s.now()
	r := &model.Restaurant{
		ID:        s.newID(),
		Owner:     owner,
		CreatedAt: now,
		UpdatedAt: now,
	}
	apply(r, in)

	if err := docstore.Put(ctx, s.store, docstore.CollectionRestaurants, r.ID, r); err != nil {
		return nil, fmt.Errorf("save restaurant: %w", err)
	}
	s.logger.Info("restaurant created", "restaurant_id", r.ID, "category", string(r.Category))
	return r, nil
}

// Get returns a restaurant or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*model.Restaurant, error) {
	r, err := docstore.Fetch[model.Restaurant](ctx, s.store, docstore.CollectionRestaurants, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("get restaurant: %w", err)
	}
	return r, nil
}

// Update replaces the editable fields of a restaurant. Restaurants without
// an owner can be edited by anyone signed in.
func (s *Service) Update(ctx context.Context, id, editor string, in Input) (*model.Restaurant, error) {
	in.Name = strings.TrimSpace(in.Name)
	if err := in.validate(); err != nil {
		return nil, err
	}

	r, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if r.Owner != "" && r.Owner != editor {
		return nil, ErrForbidden
	}

	apply(r, in)
	r.UpdatedAt = s.now()

	if err := docstore.Put(ctx, s.store, docstore.CollectionRestaurants, r.ID, r); err != nil {
		return nil, fmt.Errorf("save restaurant: %w", err)
	}
	return r, nil
}

// ListOptions filters and paginates List.
type ListOptions struct {
	Main   model.MainCategory
	Limit  int
	Offset int
}

// List returns restaurants ordered by name, optionally limited to one main category.
func (s *Service) List(ctx context.Context, opts ListOptions) ([]model.Restaurant, error) {
	all, err := docstore.FetchAll[model.Restaurant](ctx, s.store, docstore.CollectionRestaurants, docstore.ListOptions{
		Limit: DefaultListLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("list restaurants: %w", err)
	}

	if opts.Main != "" {
		all = lo.Filter(all, func(r model.Restaurant, _ int) bool {
			return r.Category.Main() == opts.Main
		})
	}
	slices.SortStableFunc(all, func(a, b model.Restaurant) int {
		return strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name))
	})

	if opts.Offset > 0 {
		if opts.Offset >= len(all) {
			return []model.Restaurant{}, nil
		}
		all = all[opts.Offset:]
	}
	if opts.Limit > 0 && len(all) > opts.Limit {
		all = all[:opts.Limit]
	}
	return all, nil
}

func apply(r *model.Restaurant, in Input) {
	r.Name = in.Name
	r.Category = in.Category
	r.Address = in.Address
	r.Location = in.Location
	r.PhoneNumber = in.PhoneNumber
	r.BusinessHours = in.BusinessHours
	r.Description = in.Description
	r.ImageURLs = in.ImageURLs
	r.Website = in.Website
}
