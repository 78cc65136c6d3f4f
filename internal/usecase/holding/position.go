package holding

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/easyasset/eam-backend/internal/domain"
)

// suggestWindow is how far back SuggestDate looks for a matching close
const suggestWindow = 60 * 24 * time.Hour

// PositionUpdate sets a holding's quantity and average cost directly,
// as read off a broker statement
type PositionUpdate struct {
	NewQuantity decimal.Decimal
	NewAvgCost  decimal.Decimal
	Date        *time.Time
	Reason      string
}

// PositionPreview is the trade implied by a PositionUpdate
type PositionPreview struct {
	Action        domain.TradeAction
	Quantity      decimal.Decimal
	InferredPrice decimal.Decimal
	SuggestedDate *time.Time
	OldQuantity   decimal.Decimal
	OldAvgCost    decimal.Decimal
}

// InferTrade derives the buy or sell that turns (oldQty, oldAvg) into (newQty, newAvg).
// The new quantity must not be negative. The implied price is rounded to 4 decimal
// places and must be positive.
func InferTrade(oldQty, oldAvg, newQty, newAvg decimal.Decimal) (domain.TradeAction, decimal.Decimal, decimal.Decimal, error) {
	if newQty.IsNegative() {
		return "", decimal.Zero, decimal.Zero, fmt.Errorf("%w: new quantity must not be negative", domain.ErrInvalidInput)
	}

	delta := newQty.Sub(oldQty)
	if delta.IsZero() {
		return "", decimal.Zero, decimal.Zero, fmt.Errorf("%w: quantity unchanged, no trade to infer", domain.ErrInvalidInput)
	}

	action := domain.TradeActionBuy
	if delta.IsNegative() {
		action = domain.TradeActionSell
	}

	price := newQty.Mul(newAvg).Sub(oldQty.Mul(oldAvg)).Div(delta)
	if !price.IsPositive() {
		return "", decimal.Zero, decimal.Zero, fmt.Errorf("%w: inferred price %s is not positive", domain.ErrInvalidInput, price.StringFixed(4))
	}

	return action, delta.Abs(), price.Round(4), nil
}

// SuggestDate picks the trade date whose close is nearest to price.
// Ties go to the most recent date. Quotes without a close are ignored.
func SuggestDate(quotes []*domain.Quote, price decimal.Decimal) *time.Time {
	var (
		best     *domain.Quote
		bestDiff decimal.Decimal
	)
	for _, q := range quotes {
		if q.Close == nil {
			continue
		}
		diff := q.Close.Sub(price).Abs()
		if best == nil || diff.LessThan(bestDiff) || (diff.Equal(bestDiff) && q.TradeDate.After(best.TradeDate)) {
			best = q
			bestDiff = diff
		}
	}
	if best == nil {
		return nil
	}
	d := best.TradeDate
	return &d
}

// PreviewPositionUpdate infers the trade behind a position update without saving anything
func (s *HoldingService) PreviewPositionUpdate(ctx context.Context, owner string, holdingID uuid.UUID, in PositionUpdate) (*PositionPreview, error) {
	h, err := s.HoldingRepo.GetByID(ctx, owner, holdingID)
	if err != nil {
		return nil, err
	}

	action, qty, price, err := InferTrade(h.Quantity, h.AvgCost, in.NewQuantity, in.NewAvgCost)
	if err != nil {
		return nil, err
	}

	preview := &PositionPreview{
		Action:        action,
		Quantity:      qty,
		InferredPrice: price,
		OldQuantity:   h.Quantity,
		OldAvgCost:    h.AvgCost,
	}

	if in.Date != nil {
		d := *in.Date
		preview.SuggestedDate = &d
		return preview, nil
	}

	if s.QuoteRepo != nil {
		now := s.Now()
		quotes, err := s.QuoteRepo.ListRange(ctx, h.Symbol, h.Market, now.Add(-suggestWindow), now)
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", h.Symbol).Msg("Failed to load quotes for date suggestion")
		} else {
			preview.SuggestedDate = SuggestDate(quotes, price)
		}
	}

	return preview, nil
}

// UpdatePosition sets the holding's quantity and average cost and records the inferred trade
func (s *HoldingService) UpdatePosition(ctx context.Context, owner string, holdingID uuid.UUID, in PositionUpdate) (*domain.Holding, *domain.Transaction, error) {
	h, err := s.HoldingRepo.GetByID(ctx, owner, holdingID)
	if err != nil {
		return nil, nil, err
	}

	action, qty, price, err := InferTrade(h.Quantity, h.AvgCost, in.NewQuantity, in.NewAvgCost)
	if err != nil {
		return nil, nil, err
	}

	now := s.Now()
	date := now
	if in.Date != nil {
		date = *in.Date
	}
	reason := in.Reason
	if reason == "" {
		reason = "add to position"
		if action == domain.TradeActionSell {
			reason = "trim position"
		}
	}

	tx := &domain.Transaction{
		ID:          uuid.New(),
		HoldingID:   h.ID,
		Action:      action,
		Quantity:    qty,
		Price:       price,
		TotalAmount: qty.Mul(price),
		Reason:      reason,
		Date:        date,
		CreatedAt:   now,
	}

	h.Quantity = in.NewQuantity
	if in.NewAvgCost.IsPositive() {
		h.AvgCost = in.NewAvgCost
	}
	if h.Quantity.IsZero() {
		h.Status = domain.HoldingStatusClosed
	} else {
		h.Status = domain.HoldingStatusActive
	}
	h.UpdatedAt = now

	if err := h.Validate(); err != nil {
		return nil, nil, invalid(err)
	}
	if err := tx.Validate(); err != nil {
		return nil, nil, invalid(err)
	}

	if err := s.TransactionRepo.RecordTrade(ctx, h, tx); err != nil {
		return nil, nil, err
	}

	s.log.Info().
		Str("owner", owner).
		Str("symbol", h.Symbol).
		Str("action", string(action)).
		Str("inferred_price", price.String()).
		Msg("Position updated")

	return h, tx, nil
}
