package portfolio

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/easyasset/eam-backend/internal/domain"
	"github.com/easyasset/eam-backend/internal/usecase/allocation"
)

var hundred = decimal.NewFromInt(100)

// Position is the valuation and profit of a single holding
type Position struct {
	Holding     *domain.Holding
	Price       decimal.Decimal
	FromQuote   bool // False when priced at average cost
	MarketValue decimal.Decimal
	CostBasis   decimal.Decimal
	PnL         decimal.Decimal
	PnLPct      decimal.Decimal
	WeightPct   decimal.Decimal
}

// Snapshot is everything derived from one pass over an owner's active holdings
type Snapshot struct {
	Owner      string
	Targets    domain.TierTargets
	Allocation allocation.AllocationResult
	Rebalance  allocation.RebalanceResult
	Positions  []Position
}

// PortfolioService computes portfolio level views for an owner
type PortfolioService struct {
	HoldingRepo domain.HoldingRepository
	QuoteRepo   domain.QuoteRepository
	TargetRepo  domain.TargetRepository
	// DefaultTargets supplies the targets of an owner that has none stored
	DefaultTargets func(owner string) domain.TierTargets
	Threshold      decimal.Decimal
	log            zerolog.Logger
}

// NewPortfolioService creates a new PortfolioService instance
func NewPortfolioService(
	holdingRepo domain.HoldingRepository,
	quoteRepo domain.QuoteRepository,
	targetRepo domain.TargetRepository,
	log zerolog.Logger,
) *PortfolioService {
	return &PortfolioService{
		HoldingRepo:    holdingRepo,
		QuoteRepo:      quoteRepo,
		TargetRepo:     targetRepo,
		DefaultTargets: func(string) domain.TierTargets { return domain.DefaultTierTargets() },
		Threshold:      allocation.DefaultThreshold,
		log:            log.With().Str("component", "portfolio_service").Logger(),
	}
}

// Targets returns the owner's stored targets, or the configured defaults when none are stored
func (s *PortfolioService) Targets(ctx context.Context, owner string) (domain.TierTargets, error) {
	targets, err := s.TargetRepo.Get(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to load targets: %w", err)
	}
	if len(targets) == 0 {
		return s.DefaultTargets(owner), nil
	}
	return targets, nil
}

// SetTargets validates and stores the owner's targets
func (s *PortfolioService) SetTargets(ctx context.Context, owner string, targets domain.TierTargets) (domain.TierTargets, error) {
	if err := targets.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, err.Error())
	}
	if err := s.TargetRepo.Save(ctx, owner, targets); err != nil {
		return nil, fmt.Errorf("failed to save targets: %w", err)
	}
	return targets, nil
}

// Overview compares the owner's tier allocation with their targets
func (s *PortfolioService) Overview(ctx context.Context, owner string) (*allocation.AllocationResult, error) {
	snap, err := s.Snapshot(ctx, owner)
	if err != nil {
		return nil, err
	}
	return &snap.Allocation, nil
}

// RebalanceSuggestions lists the tiers drifting beyond the threshold
func (s *PortfolioService) RebalanceSuggestions(ctx context.Context, owner string) (*allocation.RebalanceResult, error) {
	snap, err := s.Snapshot(ctx, owner)
	if err != nil {
		return nil, err
	}
	return &snap.Rebalance, nil
}

// Positions values every active holding with its profit and weight
func (s *PortfolioService) Positions(ctx context.Context, owner string) ([]Position, error) {
	snap, err := s.Snapshot(ctx, owner)
	if err != nil {
		return nil, err
	}
	return snap.Positions, nil
}

// Snapshot loads the owner's active holdings and latest stored quotes once
// and derives the allocation, the rebalance suggestions and the positions from them
func (s *PortfolioService) Snapshot(ctx context.Context, owner string) (*Snapshot, error) {
	// 1. Active holdings
	holdings, err := s.HoldingRepo.ListActive(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to list holdings: %w", err)
	}

	// 2. Latest stored quote per instrument; a failed lookup falls back to cost
	quotes := s.loadQuotes(ctx, holdings)

	// 3. Targets
	targets, err := s.Targets(ctx, owner)
	if err != nil {
		return nil, err
	}

	// 4. Engine
	valuation := allocation.Valuate(holdings, quotes)
	alloc := allocation.AllocationFromValuation(valuation, targets)
	rebalance := allocation.ComputeRebalance(alloc.Allocations, alloc.TotalValue, s.Threshold)

	return &Snapshot{
		Owner:      owner,
		Targets:    targets,
		Allocation: alloc,
		Rebalance:  rebalance,
		Positions:  positionsFromValuation(valuation),
	}, nil
}

func (s *PortfolioService) loadQuotes(ctx context.Context, holdings []*domain.Holding) allocation.QuoteSnapshot {
	quotes := make([]*domain.Quote, 0, len(holdings))
	for _, h := range holdings {
		q, err := s.QuoteRepo.GetLatest(ctx, h.Symbol, h.Market)
		if err != nil {
			if !errors.Is(err, domain.ErrNotFound) {
				s.log.Warn().Err(err).Str("symbol", h.Symbol).Msg("Quote lookup failed, valuing at cost")
			}
			continue
		}
		quotes = append(quotes, q)
	}
	return allocation.NewQuoteSnapshot(quotes...)
}

// positionsFromValuation derives per holding P&L:
// pnl = (price - avg) * qty, pnl% = (price - avg) / avg * 100, weight = value / total * 100
func positionsFromValuation(v allocation.Valuation) []Position {
	positions := make([]Position, 0, len(v.Holdings))
	for _, ph := range v.Holdings {
		h := ph.Holding
		diff := ph.Price.Sub(h.AvgCost)

		pnlPct := decimal.Zero
		if h.AvgCost.IsPositive() {
			pnlPct = diff.Div(h.AvgCost).Mul(hundred)
		}
		weight := decimal.Zero
		if v.Total.IsPositive() {
			weight = ph.MarketValue.Div(v.Total).Mul(hundred)
		}

		positions = append(positions, Position{
			Holding:     h,
			Price:       ph.Price,
			FromQuote:   ph.FromQuote,
			MarketValue: ph.MarketValue.Round(2),
			CostBasis:   h.CostBasis().Round(2),
			PnL:         diff.Mul(h.Quantity).Round(2),
			PnLPct:      pnlPct.Round(2),
			WeightPct:   weight.Round(2),
		})
	}
	return positions
}
