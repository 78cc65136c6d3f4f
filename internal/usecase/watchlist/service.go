// Package watchlist keeps the instruments an owner follows without holding them.
package watchlist

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/easyasset/eam-backend/internal/domain"
)

// Service handles watchlist operations
type Service struct {
	Repo domain.WatchlistRepository
	Now  func() time.Time
	log  zerolog.Logger
}

// NewService creates a new watchlist Service
func NewService(repo domain.WatchlistRepository, log zerolog.Logger) *Service {
	return &Service{
		Repo: repo,
		Now:  time.Now,
		log:  log.With().Str("component", "watchlist_service").Logger(),
	}
}

// AddInput describes a new watchlist entry
type AddInput struct {
	Symbol string
	Market string
	Theme  string
	Reason string
}

// UpdateInput is a partial update; nil fields are left untouched
type UpdateInput struct {
	Theme  *string
	Reason *string
}

// Add puts an instrument on the owner's watchlist. An empty theme becomes domain.DefaultWatchTheme.
func (s *Service) Add(ctx context.Context, owner string, in AddInput) (*domain.WatchlistItem, error) {
	market, err := domain.ParseMarket(in.Market)
	if err != nil {
		return nil, err
	}

	item := &domain.WatchlistItem{
		ID:        uuid.New(),
		Owner:     owner,
		Symbol:    strings.ToUpper(strings.TrimSpace(in.Symbol)),
		Market:    market,
		Theme:     strings.TrimSpace(in.Theme),
		Reason:    in.Reason,
		CreatedAt: s.Now(),
	}
	if item.Theme == "" {
		item.Theme = domain.DefaultWatchTheme
	}
	if err := item.Validate(); err != nil {
		return nil, invalid(err)
	}

	if err := s.Repo.Create(ctx, item); err != nil {
		return nil, err
	}

	s.log.Info().Str("owner", owner).Str("symbol", item.Symbol).Str("market", string(market)).Msg("Watchlist item added")
	return item, nil
}

// List returns the owner's watchlist, newest first
func (s *Service) List(ctx context.Context, owner string) ([]*domain.WatchlistItem, error) {
	return s.Repo.List(ctx, owner)
}

// Update changes the theme or reason of an entry
func (s *Service) Update(ctx context.Context, owner string, id uuid.UUID, in UpdateInput) (*domain.WatchlistItem, error) {
	item, err := s.Repo.GetByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if in.Theme != nil {
		item.Theme = strings.TrimSpace(*in.Theme)
	}
	if in.Reason != nil {
		item.Reason = *in.Reason
	}
	if err := item.Validate(); err != nil {
		return nil, invalid(err)
	}

	if err := s.Repo.Update(ctx, item); err != nil {
		return nil, err
	}
	return item, nil
}

// Remove takes an entry off the owner's watchlist
func (s *Service) Remove(ctx context.Context, owner string, id uuid.UUID) error {
	if err := s.Repo.Delete(ctx, owner, id); err != nil {
		return err
	}
	s.log.Info().Str("owner", owner).Str("id", id.String()).Msg("Watchlist item removed")
	return nil
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
}
