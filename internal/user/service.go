// Package user manages user profiles, display names and dashboard stats.
package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/mtlprog/foodlog/internal/docstore"
	"github.com/mtlprog/foodlog/internal/model"
	"github.com/mtlprog/foodlog/internal/validate"
)

// ErrDisplayNameTaken is returned when another user already uses a display name.
var ErrDisplayNameTaken = errors.New("display name already taken")

// DefaultScanLimit caps profile scans.
const DefaultScanLimit = 10000

// ProfileInput is the editable part of a profile.
type ProfileInput struct {
	DisplayName string `json:"displayName" validate:"required,min=2,max=50"`
}

// Service stores user profiles and resolves display names.
type Service struct {
	store  docstore.Store
	names  NameCache
	logger *slog.Logger
	now    func() time.Time
}

// Option is a functional option for configuring a Service.
type Option func(*Service)

// WithLogger sets a custom logger for the service.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithClock overrides the time source of profile timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates a new user service.
func NewService(store docstore.Store, names NameCache, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, errors.New("document store is required")
	}
	if names == nil {
		return nil, errors.New("name cache is required")
	}
	s := &Service{
		store:  store,
		names:  names,
		logger: slog.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Get returns the profile of a principal, or nil when none exists.
func (s *Service) Get(ctx context.Context, principalID string) (*model.UserProfile, error) {
	p, err := docstore.Fetch[model.UserProfile](ctx, s.store, docstore.CollectionUsers, principalID)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// Upsert creates or updates the profile of a principal. The display name is
// trimmed and must not be used by another principal; createdAt is kept.
func (s *Service) Upsert(ctx context.Context, principalID string, in ProfileInput) (*model.UserProfile, error) {
	in.DisplayName = strings.TrimSpace(in.DisplayName)
	if err := validate.Struct(in); err != nil {
		return nil, err
	}

	taken, err := s.IsDisplayNameTaken(ctx, in.DisplayName, principalID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, ErrDisplayNameTaken
	}

	existing, err := s.Get(ctx, principalID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	p := &model.UserProfile{
		PrincipalID: principalID,
		DisplayName: in.DisplayName,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if existing != nil {
		p.CreatedAt = existing.CreatedAt
	}

	if err := docstore.Put(ctx, s.store, docstore.CollectionUsers, principalID, p); err != nil {
		return nil, fmt.Errorf("save profile: %w", err)
	}
	s.names.Invalidate(ctx, principalID)
	return p, nil
}

// IsDisplayNameTaken reports whether a principal other than exclude uses
// name, compared case-insensitively.
func (s *Service) IsDisplayNameTaken(ctx context.Context, name, exclude string) (bool, error) {
	profiles, err := docstore.FetchAll[model.UserProfile](ctx, s.store, docstore.CollectionUsers, docstore.ListOptions{
		Limit: DefaultScanLimit,
	})
	if err != nil {
		return false, fmt.Errorf("list profiles: %w", err)
	}
	for _, p := range profiles {
		if p.PrincipalID != exclude && strings.EqualFold(p.DisplayName, name) {
			return true, nil
		}
	}
	return false, nil
}

// DisplayName returns the cached display name of a user, falling back to
// "User-" followed by the first 8 characters of the id.
func (s *Service) DisplayName(ctx context.Context, userID string) string {
	if name, ok := s.names.Get(ctx, userID); ok {
		return name
	}

	name := FallbackName(userID)
	p, err := s.Get(ctx, userID)
	if err != nil {
		s.logger.Warn("profile lookup failed", "user_id", userID, "error", err)
		return name
	}
	if p != nil && p.DisplayName != "" {
		name = p.DisplayName
	}

	s.names.Set(ctx, userID, name)
	return name
}

// FallbackName is the display name of a user without a profile.
func FallbackName(userID string) string {
	r := []rune(userID)
	if len(r) > 8 {
		r = r[:8]
	}
	return "User-" + string(r)
}
