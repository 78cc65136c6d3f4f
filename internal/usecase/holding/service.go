package holding

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/easyasset/eam-backend/internal/domain"
)

// HoldingService handles holding and transaction operations
type HoldingService struct {
	HoldingRepo     domain.HoldingRepository
	TransactionRepo domain.TransactionRepository
	QuoteRepo       domain.QuoteRepository
	Now             func() time.Time
	log             zerolog.Logger
}

// NewHoldingService creates a new HoldingService instance
func NewHoldingService(
	holdingRepo domain.HoldingRepository,
	transactionRepo domain.TransactionRepository,
	quoteRepo domain.QuoteRepository,
	log zerolog.Logger,
) *HoldingService {
	return &HoldingService{
		HoldingRepo:     holdingRepo,
		TransactionRepo: transactionRepo,
		QuoteRepo:       quoteRepo,
		Now:             time.Now,
		log:             log.With().Str("component", "holding_service").Logger(),
	}
}

// CreateInput describes a new position
type CreateInput struct {
	Symbol          string
	Market          string
	Tier            string
	Quantity        decimal.Decimal
	AvgCost         decimal.Decimal
	FirstBuyDate    time.Time
	BuyReason       string
	StopLossPrice   *decimal.Decimal
	TakeProfitPrice *decimal.Decimal
	Keywords        []string
	Notes           string
}

// UpdateInput is a partial update; nil fields are left untouched
type UpdateInput struct {
	Tier            *string
	Status          *string
	BuyReason       *string
	Notes           *string
	Keywords        *[]string
	StopLossPrice   *decimal.Decimal
	TakeProfitPrice *decimal.Decimal
}

// TradeInput describes a buy or sell against an existing holding
type TradeInput struct {
	Action   string
	Quantity decimal.Decimal
	Price    decimal.Decimal
	Reason   string
	Date     time.Time
}

// Create creates a new active holding for the owner
func (s *HoldingService) Create(ctx context.Context, owner string, in CreateInput) (*domain.Holding, error) {
	market, err := domain.ParseMarket(in.Market)
	if err != nil {
		return nil, err
	}
	tier, err := domain.ParseTier(in.Tier)
	if err != nil {
		return nil, err
	}

	now := s.Now()
	firstBuy := in.FirstBuyDate
	if firstBuy.IsZero() {
		firstBuy = now
	}

	h := &domain.Holding{
		ID:              uuid.New(),
		Owner:           owner,
		Symbol:          strings.ToUpper(strings.TrimSpace(in.Symbol)),
		Market:          market,
		Tier:            tier,
		Quantity:        in.Quantity,
		AvgCost:         in.AvgCost,
		FirstBuyDate:    firstBuy,
		BuyReason:       in.BuyReason,
		StopLossPrice:   in.StopLossPrice,
		TakeProfitPrice: in.TakeProfitPrice,
		Keywords:        in.Keywords,
		Notes:           in.Notes,
		Status:          domain.HoldingStatusActive,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := h.Validate(); err != nil {
		return nil, invalid(err)
	}

	if err := s.HoldingRepo.Create(ctx, h); err != nil {
		return nil, err
	}

	s.log.Info().Str("owner", owner).Str("symbol", h.Symbol).Str("tier", string(tier)).Msg("Holding created")
	return h, nil
}

// Get retrieves one of the owner's holdings
func (s *HoldingService) Get(ctx context.Context, owner string, id uuid.UUID) (*domain.Holding, error) {
	return s.HoldingRepo.GetByID(ctx, owner, id)
}

// List retrieves the owner's holdings
func (s *HoldingService) List(ctx context.Context, owner string, filter domain.HoldingFilter) ([]*domain.Holding, error) {
	return s.HoldingRepo.List(ctx, owner, filter)
}

// Update applies a partial update to a holding
func (s *HoldingService) Update(ctx context.Context, owner string, id uuid.UUID, in UpdateInput) (*domain.Holding, error) {
	h, err := s.HoldingRepo.GetByID(ctx, owner, id)
	if err != nil {
		return nil, err
	}

	if in.Tier != nil {
		if h.Tier, err = domain.ParseTier(*in.Tier); err != nil {
			return nil, err
		}
	}
	if in.Status != nil {
		if h.Status, err = domain.ParseHoldingStatus(*in.Status); err != nil {
			return nil, invalid(err)
		}
	}
	if in.BuyReason != nil {
		h.BuyReason = *in.BuyReason
	}
	if in.Notes != nil {
		h.Notes = *in.Notes
	}
	if in.Keywords != nil {
		h.Keywords = *in.Keywords
	}
	if in.StopLossPrice != nil {
		h.StopLossPrice = in.StopLossPrice
	}
	if in.TakeProfitPrice != nil {
		h.TakeProfitPrice = in.TakeProfitPrice
	}

	if err := h.Validate(); err != nil {
		return nil, invalid(err)
	}

	h.UpdatedAt = s.Now()
	if err := s.HoldingRepo.Update(ctx, h); err != nil {
		return nil, err
	}

	return h, nil
}

// Delete removes a holding and its transaction history
func (s *HoldingService) Delete(ctx context.Context, owner string, id uuid.UUID) error {
	if err := s.HoldingRepo.Delete(ctx, owner, id); err != nil {
		return err
	}
	s.log.Info().Str("owner", owner).Str("holding_id", id.String()).Msg("Holding deleted")
	return nil
}

// RecordTransaction applies a buy or sell to the holding and stores both atomically.
// Buys re-weight the average cost and reopen closed holdings; sells larger than the
// position are rejected with domain.ErrInsufficientQuantity.
func (s *HoldingService) RecordTransaction(ctx context.Context, owner string, holdingID uuid.UUID, in TradeInput) (*domain.Transaction, *domain.Holding, error) {
	action, err := domain.ParseTradeAction(strings.ToLower(strings.TrimSpace(in.Action)))
	if err != nil {
		return nil, nil, invalid(err)
	}

	h, err := s.HoldingRepo.GetByID(ctx, owner, holdingID)
	if err != nil {
		return nil, nil, err
	}

	now := s.Now()
	date := in.Date
	if date.IsZero() {
		date = now
	}

	tx := &domain.Transaction{
		ID:          uuid.New(),
		HoldingID:   h.ID,
		Action:      action,
		Quantity:    in.Quantity,
		Price:       in.Price,
		TotalAmount: in.Quantity.Mul(in.Price),
		Reason:      in.Reason,
		Date:        date,
		CreatedAt:   now,
	}
	if err := tx.Validate(); err != nil {
		return nil, nil, invalid(err)
	}

	if err := tx.ApplyTo(h); err != nil {
		if errors.Is(err, domain.ErrInsufficientQuantity) {
			return nil, nil, fmt.Errorf("cannot sell %s, only %s available: %w", in.Quantity, h.Quantity, err)
		}
		return nil, nil, invalid(err)
	}
	h.UpdatedAt = now

	if err := s.TransactionRepo.RecordTrade(ctx, h, tx); err != nil {
		return nil, nil, err
	}

	s.log.Info().
		Str("owner", owner).
		Str("symbol", h.Symbol).
		Str("action", string(action)).
		Str("quantity", tx.Quantity.String()).
		Str("price", tx.Price.String()).
		Str("status", string(h.Status)).
		Msg("Transaction recorded")

	return tx, h, nil
}

// ListTransactions retrieves the transaction history of one of the owner's holdings
func (s *HoldingService) ListTransactions(ctx context.Context, owner string, holdingID uuid.UUID) ([]*domain.Transaction, error) {
	if _, err := s.HoldingRepo.GetByID(ctx, owner, holdingID); err != nil {
		return nil, err
	}
	return s.TransactionRepo.ListByHolding(ctx, holdingID)
}

func invalid(err error) error {
	return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
}
