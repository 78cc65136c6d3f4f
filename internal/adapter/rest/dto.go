package rest

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/easyasset/eam-backend/internal/domain"
	"github.com/easyasset/eam-backend/internal/usecase/advisor"
	"github.com/easyasset/eam-backend/internal/usecase/allocation"
	"github.com/easyasset/eam-backend/internal/usecase/holding"
	"github.com/easyasset/eam-backend/internal/usecase/portfolio"
	"github.com/easyasset/eam-backend/internal/usecase/signals"
	"github.com/easyasset/eam-backend/internal/usecase/watchlist"
)

const dateLayout = "2006-01-02"

// money renders a decimal as a JSON number with two decimal places
func money(d decimal.Decimal) json.Number {
	return json.Number(d.StringFixed(2))
}

// exact renders a decimal as a JSON number without rounding
func exact(d decimal.Decimal) json.Number {
	return json.Number(d.String())
}

func optionalMoney(d *decimal.Decimal) *json.Number {
	if d == nil {
		return nil
	}
	n := money(*d)
	return &n
}

// parseDate accepts a plain date or an RFC 3339 timestamp. Empty input yields the zero time.
func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: date %q must be YYYY-MM-DD", domain.ErrInvalidInput, s)
	}
	return t, nil
}

// Requests

type createHoldingRequest struct {
	Symbol          string           `json:"symbol"`
	Market          string           `json:"market"`
	Tier            string           `json:"tier"`
	Quantity        decimal.Decimal  `json:"quantity"`
	AvgCost         decimal.Decimal  `json:"avg_cost"`
	FirstBuyDate    string           `json:"first_buy_date"`
	BuyReason       string           `json:"buy_reason"`
	StopLossPrice   *decimal.Decimal `json:"stop_loss_price"`
	TakeProfitPrice *decimal.Decimal `json:"take_profit_price"`
	Keywords        []string         `json:"keywords"`
	Notes           string           `json:"notes"`
}

func (req createHoldingRequest) toInput() (holding.CreateInput, error) {
	date, err := parseDate(req.FirstBuyDate)
	if err != nil {
		return holding.CreateInput{}, err
	}
	return holding.CreateInput{
		Symbol:          req.Symbol,
		Market:          req.Market,
		Tier:            req.Tier,
		Quantity:        req.Quantity,
		AvgCost:         req.AvgCost,
		FirstBuyDate:    date,
		BuyReason:       req.BuyReason,
		StopLossPrice:   req.StopLossPrice,
		TakeProfitPrice: req.TakeProfitPrice,
		Keywords:        req.Keywords,
		Notes:           req.Notes,
	}, nil
}

type updateHoldingRequest struct {
	Tier            *string          `json:"tier"`
	Status          *string          `json:"status"`
	BuyReason       *string          `json:"buy_reason"`
	Notes           *string          `json:"notes"`
	Keywords        *[]string        `json:"keywords"`
	StopLossPrice   *decimal.Decimal `json:"stop_loss_price"`
	TakeProfitPrice *decimal.Decimal `json:"take_profit_price"`
}

func (req updateHoldingRequest) toInput() holding.UpdateInput {
	return holding.UpdateInput{
		Tier:            req.Tier,
		Status:          req.Status,
		BuyReason:       req.BuyReason,
		Notes:           req.Notes,
		Keywords:        req.Keywords,
		StopLossPrice:   req.StopLossPrice,
		TakeProfitPrice: req.TakeProfitPrice,
	}
}

type tradeRequest struct {
	Action   string          `json:"action"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
	Reason   string          `json:"reason"`
	Date     string          `json:"date"`
}

type positionRequest struct {
	NewQuantity decimal.Decimal `json:"new_quantity"`
	NewAvgCost  decimal.Decimal `json:"new_avg_cost"`
	Date        string          `json:"date"`
	Reason      string          `json:"reason"`
}

func (req positionRequest) toInput() (holding.PositionUpdate, error) {
	in := holding.PositionUpdate{
		NewQuantity: req.NewQuantity,
		NewAvgCost:  req.NewAvgCost,
		Reason:      req.Reason,
	}
	if req.Date != "" {
		date, err := parseDate(req.Date)
		if err != nil {
			return in, err
		}
		in.Date = &date
	}
	return in, nil
}

// Responses

type holdingResponse struct {
	ID              string       `json:"id"`
	Symbol          string       `json:"symbol"`
	Market          string       `json:"market"`
	Tier            string       `json:"tier"`
	Quantity        json.Number  `json:"quantity"`
	AvgCost         json.Number  `json:"avg_cost"`
	FirstBuyDate    string       `json:"first_buy_date"`
	BuyReason       string       `json:"buy_reason"`
	StopLossPrice   *json.Number `json:"stop_loss_price"`
	TakeProfitPrice *json.Number `json:"take_profit_price"`
	Keywords        []string     `json:"keywords"`
	Notes           string       `json:"notes"`
	Status          string       `json:"status"`
	CreatedAt       time.Time    `json:"created_at"`
	UpdatedAt       time.Time    `json:"updated_at"`
}

func toHoldingResponse(h *domain.Holding) holdingResponse {
	keywords := h.Keywords
	if keywords == nil {
		keywords = []string{}
	}
	return holdingResponse{
		ID:              h.ID.String(),
		Symbol:          h.Symbol,
		Market:          string(h.Market),
		Tier:            string(h.Tier),
		Quantity:        exact(h.Quantity),
		AvgCost:         exact(h.AvgCost),
		FirstBuyDate:    h.FirstBuyDate.Format(dateLayout),
		BuyReason:       h.BuyReason,
		StopLossPrice:   optionalMoney(h.StopLossPrice),
		TakeProfitPrice: optionalMoney(h.TakeProfitPrice),
		Keywords:        keywords,
		Notes:           h.Notes,
		Status:          string(h.Status),
		CreatedAt:       h.CreatedAt,
		UpdatedAt:       h.UpdatedAt,
	}
}

func toHoldingResponses(holdings []*domain.Holding) []holdingResponse {
	out := make([]holdingResponse, 0, len(holdings))
	for _, h := range holdings {
		out = append(out, toHoldingResponse(h))
	}
	return out
}

type transactionResponse struct {
	ID          string      `json:"id"`
	HoldingID   string      `json:"holding_id"`
	Action      string      `json:"action"`
	Quantity    json.Number `json:"quantity"`
	Price       json.Number `json:"price"`
	TotalAmount json.Number `json:"total_amount"`
	Reason      string      `json:"reason"`
	Date        string      `json:"date"`
	CreatedAt   time.Time   `json:"created_at"`
}

func toTransactionResponse(tx *domain.Transaction) transactionResponse {
	return transactionResponse{
		ID:          tx.ID.String(),
		HoldingID:   tx.HoldingID.String(),
		Action:      string(tx.Action),
		Quantity:    exact(tx.Quantity),
		Price:       exact(tx.Price),
		TotalAmount: money(tx.TotalAmount),
		Reason:      tx.Reason,
		Date:        tx.Date.Format(dateLayout),
		CreatedAt:   tx.CreatedAt,
	}
}

type tradeResponse struct {
	Transaction transactionResponse `json:"transaction"`
	Holding     holdingResponse     `json:"holding"`
}

type previewResponse struct {
	Action        string      `json:"action"`
	Quantity      json.Number `json:"quantity"`
	InferredPrice json.Number `json:"inferred_price"`
	SuggestedDate *string     `json:"suggested_date"`
	OldQuantity   json.Number `json:"old_quantity"`
	OldAvgCost    json.Number `json:"old_avg_cost"`
}

func toPreviewResponse(p *holding.PositionPreview) previewResponse {
	resp := previewResponse{
		Action:        string(p.Action),
		Quantity:      exact(p.Quantity),
		InferredPrice: exact(p.InferredPrice),
		OldQuantity:   exact(p.OldQuantity),
		OldAvgCost:    exact(p.OldAvgCost),
	}
	if p.SuggestedDate != nil {
		d := p.SuggestedDate.Format(dateLayout)
		resp.SuggestedDate = &d
	}
	return resp
}

type allocationResponse struct {
	Tier        string      `json:"tier"`
	TargetPct   json.Number `json:"target_pct"`
	ActualPct   json.Number `json:"actual_pct"`
	DriftPct    json.Number `json:"drift_pct"`
	MarketValue json.Number `json:"market_value"`
}

type overviewResponse struct {
	TotalValue    json.Number          `json:"total_value"`
	HoldingsCount int                  `json:"holdings_count"`
	Allocations   []allocationResponse `json:"allocations"`
}

func toOverviewResponse(res *allocation.AllocationResult) overviewResponse {
	out := overviewResponse{
		TotalValue:    money(res.TotalValue),
		HoldingsCount: res.HoldingsCount,
		Allocations:   make([]allocationResponse, 0, len(res.Allocations)),
	}
	for _, a := range res.Allocations {
		out.Allocations = append(out.Allocations, allocationResponse{
			Tier:        string(a.Tier),
			TargetPct:   money(a.TargetPct),
			ActualPct:   money(a.ActualPct),
			DriftPct:    money(a.DriftPct),
			MarketValue: money(a.MarketValue),
		})
	}
	return out
}

type suggestionResponse struct {
	Tier     string      `json:"tier"`
	Action   string      `json:"action"`
	Amount   json.Number `json:"amount"`
	DriftPct json.Number `json:"drift_pct"`
}

type rebalanceResponse struct {
	NeedsRebalance bool                 `json:"needs_rebalance"`
	Suggestions    []suggestionResponse `json:"suggestions"`
}

func toRebalanceResponse(res *allocation.RebalanceResult) rebalanceResponse {
	out := rebalanceResponse{
		NeedsRebalance: res.NeedsRebalance,
		Suggestions:    make([]suggestionResponse, 0, len(res.Suggestions)),
	}
	for _, sg := range res.Suggestions {
		out.Suggestions = append(out.Suggestions, suggestionResponse{
			Tier:     string(sg.Tier),
			Action:   string(sg.Action),
			Amount:   money(sg.Amount),
			DriftPct: money(sg.DriftPct),
		})
	}
	return out
}

type positionResponse struct {
	HoldingID   string      `json:"holding_id"`
	Symbol      string      `json:"symbol"`
	Market      string      `json:"market"`
	Tier        string      `json:"tier"`
	Quantity    json.Number `json:"quantity"`
	AvgCost     json.Number `json:"avg_cost"`
	Price       json.Number `json:"price"`
	PriceSource string      `json:"price_source"`
	MarketValue json.Number `json:"market_value"`
	CostBasis   json.Number `json:"cost_basis"`
	PnL         json.Number `json:"pnl"`
	PnLPct      json.Number `json:"pnl_pct"`
	WeightPct   json.Number `json:"weight_pct"`
}

func toPositionResponses(positions []portfolio.Position) []positionResponse {
	out := make([]positionResponse, 0, len(positions))
	for _, p := range positions {
		source := "quote"
		if !p.FromQuote {
			source = "avg_cost"
		}
		out = append(out, positionResponse{
			HoldingID:   p.Holding.ID.String(),
			Symbol:      p.Holding.Symbol,
			Market:      string(p.Holding.Market),
			Tier:        string(p.Holding.Tier),
			Quantity:    exact(p.Holding.Quantity),
			AvgCost:     exact(p.Holding.AvgCost),
			Price:       exact(p.Price),
			PriceSource: source,
			MarketValue: money(p.MarketValue),
			CostBasis:   money(p.CostBasis),
			PnL:         money(p.PnL),
			PnLPct:      money(p.PnLPct),
			WeightPct:   money(p.WeightPct),
		})
	}
	return out
}

type alertResponse struct {
	HoldingID   string      `json:"holding_id"`
	Symbol      string      `json:"symbol"`
	Market      string      `json:"market"`
	Kind        string      `json:"kind"`
	Price       json.Number `json:"price"`
	Trigger     json.Number `json:"trigger"`
	DistancePct json.Number `json:"distance_pct"`
	Breached    bool        `json:"breached"`
}

func toAlertResponse(a domain.PriceAlert) alertResponse {
	return alertResponse{
		HoldingID:   a.HoldingID.String(),
		Symbol:      a.Symbol,
		Market:      string(a.Market),
		Kind:        string(a.Kind),
		Price:       exact(a.Price),
		Trigger:     exact(a.Trigger),
		DistancePct: money(a.DistancePct),
		Breached:    a.Breached,
	}
}

type healthWarningResponse struct {
	Kind    string      `json:"kind"`
	Subject string      `json:"subject"`
	Pct     json.Number `json:"pct"`
	Message string      `json:"message"`
}

type healthResponse struct {
	Score     int                     `json:"score"`
	Rating    string                  `json:"rating"`
	CashPct   json.Number             `json:"cash_pct"`
	MarketPct map[string]json.Number  `json:"market_pct"`
	Warnings  []healthWarningResponse `json:"warnings"`
}

func toHealthResponse(h domain.HealthReport) healthResponse {
	resp := healthResponse{
		Score:     h.Score,
		Rating:    string(h.Rating),
		CashPct:   money(h.CashPct),
		MarketPct: make(map[string]json.Number, len(h.MarketPct)),
		Warnings:  make([]healthWarningResponse, 0, len(h.Warnings)),
	}
	for m, pct := range h.MarketPct {
		resp.MarketPct[string(m)] = money(pct)
	}
	for _, w := range h.Warnings {
		resp.Warnings = append(resp.Warnings, healthWarningResponse{
			Kind:    string(w.Kind),
			Subject: w.Subject,
			Pct:     money(w.Pct),
			Message: w.Message,
		})
	}
	return resp
}

func toTargetsResponse(targets domain.TierTargets) map[string]json.Number {
	out := make(map[string]json.Number, len(targets))
	for _, tier := range domain.Tiers() {
		if pct, ok := targets[tier]; ok {
			out[string(tier)] = money(pct)
		}
	}
	return out
}

// parseTargets rejects unknown tier names before the targets reach validation
func parseTargets(raw map[string]decimal.Decimal) (domain.TierTargets, error) {
	targets := make(domain.TierTargets, len(raw))
	for name, pct := range raw {
		tier, err := domain.ParseTier(name)
		if err != nil {
			return nil, err
		}
		targets[tier] = pct
	}
	return targets, nil
}

type quoteResponse struct {
	Symbol    string       `json:"symbol"`
	Market    string       `json:"market"`
	Name      string       `json:"name"`
	TradeDate string       `json:"trade_date"`
	Open      *json.Number `json:"open"`
	High      *json.Number `json:"high"`
	Low       *json.Number `json:"low"`
	Close     *json.Number `json:"close"`
	Volume    *int64       `json:"volume"`
}

func toQuoteResponse(q *domain.Quote) quoteResponse {
	return quoteResponse{
		Symbol:    q.Symbol,
		Market:    string(q.Market),
		Name:      q.Name,
		TradeDate: q.TradeDate.Format(dateLayout),
		Open:      optionalMoney(q.Open),
		High:      optionalMoney(q.High),
		Low:       optionalMoney(q.Low),
		Close:     optionalMoney(q.Close),
		Volume:    q.Volume,
	}
}

type analysisResponse struct {
	StatusAssessment string    `json:"status_assessment"`
	Action           string    `json:"action"`
	KeyConcerns      []string  `json:"key_concerns"`
	NextCatalyst     string    `json:"next_catalyst"`
	Confidence       string    `json:"confidence"`
	Model            string    `json:"model"`
	AnalyzedAt       time.Time `json:"analyzed_at"`
}

type holdingAnalysisResponse struct {
	HoldingID string            `json:"holding_id"`
	Symbol    string            `json:"symbol"`
	Market    string            `json:"market"`
	Tier      string            `json:"tier"`
	Analysis  *analysisResponse `json:"analysis,omitempty"`
	Error     string            `json:"error,omitempty"`
}

func toAnalysisResponses(results []advisor.HoldingResult) []holdingAnalysisResponse {
	out := make([]holdingAnalysisResponse, 0, len(results))
	for _, res := range results {
		h := res.Position.Holding
		item := holdingAnalysisResponse{
			HoldingID: h.ID.String(),
			Symbol:    h.Symbol,
			Market:    string(h.Market),
			Tier:      string(h.Tier),
		}
		if res.Err != nil {
			item.Error = res.Err.Error()
		} else if a := res.Analysis; a != nil {
			concerns := a.KeyConcerns
			if concerns == nil {
				concerns = []string{}
			}
			item.Analysis = &analysisResponse{
				StatusAssessment: a.StatusAssessment,
				Action:           string(a.Action),
				KeyConcerns:      concerns,
				NextCatalyst:     a.NextCatalyst,
				Confidence:       string(a.Confidence),
				Model:            a.Model,
				AnalyzedAt:       a.AnalyzedAt,
			}
		}
		out = append(out, item)
	}
	return out
}

type reportResponse struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Title     string    `json:"title"`
	Format    string    `json:"format,omitempty"`
	Content   string    `json:"content,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

func toReportSummary(r *domain.Report) reportResponse {
	return reportResponse{
		ID:        r.ID.String(),
		Kind:      string(r.Kind),
		Title:     r.Title,
		CreatedAt: r.CreatedAt,
	}
}

// Watchlist

type addWatchlistRequest struct {
	Symbol string `json:"symbol"`
	Market string `json:"market"`
	Theme  string `json:"theme"`
	Reason string `json:"reason"`
}

func (req addWatchlistRequest) toInput() watchlist.AddInput {
	return watchlist.AddInput{
		Symbol: req.Symbol,
		Market: req.Market,
		Theme:  req.Theme,
		Reason: req.Reason,
	}
}

type updateWatchlistRequest struct {
	Theme  *string `json:"theme"`
	Reason *string `json:"reason"`
}

type watchlistResponse struct {
	ID        string    `json:"id"`
	Symbol    string    `json:"symbol"`
	Market    string    `json:"market"`
	Theme     string    `json:"theme"`
	Reason    string    `json:"reason"`
	CreatedAt time.Time `json:"created_at"`
}

func toWatchlistResponse(item *domain.WatchlistItem) watchlistResponse {
	return watchlistResponse{
		ID:        item.ID.String(),
		Symbol:    item.Symbol,
		Market:    string(item.Market),
		Theme:     item.Theme,
		Reason:    item.Reason,
		CreatedAt: item.CreatedAt,
	}
}

// Signals

type createSignalRequest struct {
	SignalType     string                 `json:"signal_type"`
	Sector         string                 `json:"sector"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	Severity       string                 `json:"severity"`
	Source         string                 `json:"source"`
	Data           map[string]interface{} `json:"data"`
	RelatedSymbols []string               `json:"related_symbols"`
	HoldingID      *uuid.UUID             `json:"holding_id"`
	ExpiresAt      *time.Time             `json:"expires_at"`
}

func (req createSignalRequest) toInput() signals.CreateInput {
	return signals.CreateInput{
		Type:           req.SignalType,
		Sector:         req.Sector,
		Title:          req.Title,
		Description:    req.Description,
		Severity:       req.Severity,
		Source:         req.Source,
		Data:           req.Data,
		RelatedSymbols: req.RelatedSymbols,
		HoldingID:      req.HoldingID,
		ExpiresAt:      req.ExpiresAt,
	}
}

type updateSignalRequest struct {
	Status string `json:"status"`
}

type signalResponse struct {
	ID             string                 `json:"id"`
	SignalType     string                 `json:"signal_type"`
	Sector         string                 `json:"sector,omitempty"`
	Title          string                 `json:"title"`
	Description    string                 `json:"description"`
	Severity       string                 `json:"severity"`
	Status         string                 `json:"status"`
	Source         string                 `json:"source"`
	Data           map[string]interface{} `json:"data,omitempty"`
	RelatedSymbols []string               `json:"related_symbols"`
	HoldingID      *string                `json:"holding_id,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
	ExpiresAt      *time.Time             `json:"expires_at,omitempty"`
}

func toSignalResponse(sig *domain.Signal) signalResponse {
	resp := signalResponse{
		ID:             sig.ID.String(),
		SignalType:     string(sig.Type),
		Sector:         sig.Sector,
		Title:          sig.Title,
		Description:    sig.Description,
		Severity:       string(sig.Severity),
		Status:         string(sig.Status),
		Source:         sig.Source,
		Data:           sig.Data,
		RelatedSymbols: sig.RelatedSymbols,
		CreatedAt:      sig.CreatedAt,
		ExpiresAt:      sig.ExpiresAt,
	}
	if resp.RelatedSymbols == nil {
		resp.RelatedSymbols = []string{}
	}
	if sig.HoldingID != nil {
		id := sig.HoldingID.String()
		resp.HoldingID = &id
	}
	return resp
}

// AI

type summarizeRequest struct {
	Text     string `json:"text"`
	MaxWords int    `json:"max_words"`
	Language string `json:"language"`
}
