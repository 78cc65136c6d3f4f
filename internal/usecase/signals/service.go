// Package signals records noteworthy market and holding events for an owner.
package signals

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/easyasset/eam-backend/internal/domain"
)

// MaxListLimit caps how many signals one listing returns
const MaxListLimit = 200

// HoldingLookup finds one of an owner's holdings
type HoldingLookup interface {
	GetByID(ctx context.Context, owner string, id uuid.UUID) (*domain.Holding, error)
}

// Service handles signal operations
type Service struct {
	Repo        domain.SignalRepository
	HoldingRepo HoldingLookup
	Now         func() time.Time
	log         zerolog.Logger
}

// NewService creates a new signal Service
func NewService(repo domain.SignalRepository, holdingRepo HoldingLookup, log zerolog.Logger) *Service {
	return &Service{
		Repo:        repo,
		HoldingRepo: holdingRepo,
		Now:         time.Now,
		log:         log.With().Str("component", "signal_service").Logger(),
	}
}

// CreateInput describes a new signal
type CreateInput struct {
	Type           string
	Sector         string
	Title          string
	Description    string
	Severity       string
	Source         string
	Data           map[string]interface{}
	RelatedSymbols []string
	HoldingID      *uuid.UUID
	ExpiresAt      *time.Time
}

// ListInput carries the raw listing filters; empty strings do not filter
type ListInput struct {
	Type        string
	Sector      string
	Status      string
	MinSeverity string
	Since       *time.Time
	Limit       int
}

// Create records a new active signal. A holding reference must point at one of the owner's holdings.
func (s *Service) Create(ctx context.Context, owner string, in CreateInput) (*domain.Signal, error) {
	kind, err := domain.ParseSignalType(in.Type)
	if err != nil {
		return nil, err
	}
	severity, err := domain.ParseSignalSeverity(in.Severity)
	if err != nil {
		return nil, err
	}
	if in.HoldingID != nil {
		if _, err := s.HoldingRepo.GetByID(ctx, owner, *in.HoldingID); err != nil {
			return nil, err
		}
	}

	symbols := make([]string, 0, len(in.RelatedSymbols))
	for _, sym := range in.RelatedSymbols {
		if sym = strings.ToUpper(strings.TrimSpace(sym)); sym != "" {
			symbols = append(symbols, sym)
		}
	}

	sig := &domain.Signal{
		ID:             uuid.New(),
		Owner:          owner,
		Type:           kind,
		Sector:         strings.TrimSpace(in.Sector),
		Title:          strings.TrimSpace(in.Title),
		Description:    in.Description,
		Severity:       severity,
		Status:         domain.SignalActive,
		Source:         strings.TrimSpace(in.Source),
		Data:           in.Data,
		RelatedSymbols: symbols,
		HoldingID:      in.HoldingID,
		CreatedAt:      s.Now(),
		ExpiresAt:      in.ExpiresAt,
	}
	if err := sig.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}

	if err := s.Repo.Create(ctx, sig); err != nil {
		return nil, err
	}

	s.log.Info().
		Str("owner", owner).
		Str("type", string(kind)).
		Str("severity", string(severity)).
		Msg("Signal created")
	return sig, nil
}

// Get retrieves one of the owner's signals
func (s *Service) Get(ctx context.Context, owner string, id uuid.UUID) (*domain.Signal, error) {
	return s.Repo.GetByID(ctx, owner, id)
}

// List returns the owner's signals matching the filters, newest first
func (s *Service) List(ctx context.Context, owner string, in ListInput) ([]*domain.Signal, error) {
	if in.Limit < 0 || in.Limit > MaxListLimit {
		return nil, fmt.Errorf("%w: limit must be 1-%d", domain.ErrInvalidInput, MaxListLimit)
	}

	filter := domain.SignalFilter{Since: in.Since, Limit: in.Limit}
	if in.Type != "" {
		kind, err := domain.ParseSignalType(in.Type)
		if err != nil {
			return nil, err
		}
		filter.Type = &kind
	}
	if in.Sector != "" {
		filter.Sector = &in.Sector
	}
	if in.Status != "" {
		status, err := domain.ParseSignalStatus(in.Status)
		if err != nil {
			return nil, err
		}
		filter.Status = &status
	}
	if in.MinSeverity != "" {
		severity, err := domain.ParseSignalSeverity(in.MinSeverity)
		if err != nil {
			return nil, err
		}
		filter.MinSeverity = &severity
	}

	return s.Repo.List(ctx, owner, filter)
}

// SetStatus moves a signal to the given status
func (s *Service) SetStatus(ctx context.Context, owner string, id uuid.UUID, status string) (*domain.Signal, error) {
	st, err := domain.ParseSignalStatus(status)
	if err != nil {
		return nil, err
	}
	if err := s.Repo.UpdateStatus(ctx, owner, id, st); err != nil {
		return nil, err
	}
	return s.Repo.GetByID(ctx, owner, id)
}

// MarkRead marks a signal as read
func (s *Service) MarkRead(ctx context.Context, owner string, id uuid.UUID) (*domain.Signal, error) {
	return s.SetStatus(ctx, owner, id, string(domain.SignalRead))
}

// Delete removes one of the owner's signals
func (s *Service) Delete(ctx context.Context, owner string, id uuid.UUID) error {
	return s.Repo.Delete(ctx, owner, id)
}
