package grpc

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/easyasset/eam-backend/internal/domain"
	"github.com/easyasset/eam-backend/internal/usecase/holding"
	"github.com/easyasset/eam-backend/internal/usecase/portfolio"
)

// Server implements the PortfolioService gRPC server
type Server struct {
	UnimplementedPortfolioServiceServer

	HoldingService   *holding.HoldingService
	PortfolioService *portfolio.PortfolioService
}

// NewServer creates a new gRPC server instance
func NewServer(
	holdingService *holding.HoldingService,
	portfolioService *portfolio.PortfolioService,
) *Server {
	return &Server{
		HoldingService:   holdingService,
		PortfolioService: portfolioService,
	}
}

// ownerFrom returns the owner injected by AuthInterceptor
func ownerFrom(ctx context.Context) (string, error) {
	owner, ok := OwnerFromContext(ctx)
	if !ok {
		return "", status.Error(codes.Unauthenticated, "no authenticated owner")
	}
	return owner, nil
}

// GetOverview handles the GetOverview RPC
func (s *Server) GetOverview(ctx context.Context, req *GetOverviewRequest) (*GetOverviewResponse, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.PortfolioService.Overview(ctx, owner)
	if err != nil {
		return nil, mapError(err)
	}

	allocations := make([]*Allocation, 0, len(result.Allocations))
	for _, a := range result.Allocations {
		allocations = append(allocations, &Allocation{
			Tier:        string(a.Tier),
			TargetPct:   a.TargetPct.StringFixed(2),
			ActualPct:   a.ActualPct.StringFixed(2),
			DriftPct:    a.DriftPct.StringFixed(2),
			MarketValue: a.MarketValue.StringFixed(2),
		})
	}

	return &GetOverviewResponse{
		TotalValue:    result.TotalValue.StringFixed(2),
		HoldingsCount: int32(result.HoldingsCount),
		Allocations:   allocations,
	}, nil
}

// GetRebalanceSuggestions handles the GetRebalanceSuggestions RPC
func (s *Server) GetRebalanceSuggestions(ctx context.Context, req *GetRebalanceSuggestionsRequest) (*GetRebalanceSuggestionsResponse, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}

	result, err := s.PortfolioService.RebalanceSuggestions(ctx, owner)
	if err != nil {
		return nil, mapError(err)
	}

	suggestions := make([]*RebalanceSuggestion, 0, len(result.Suggestions))
	for _, sg := range result.Suggestions {
		suggestions = append(suggestions, &RebalanceSuggestion{
			Tier:     string(sg.Tier),
			Action:   string(sg.Action),
			Amount:   sg.Amount.StringFixed(2),
			DriftPct: sg.DriftPct.StringFixed(2),
		})
	}

	return &GetRebalanceSuggestionsResponse{
		NeedsRebalance: result.NeedsRebalance,
		Suggestions:    suggestions,
	}, nil
}

// ListHoldings handles the ListHoldings RPC
func (s *Server) ListHoldings(ctx context.Context, req *ListHoldingsRequest) (*ListHoldingsResponse, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}

	// Empty filters are not applied
	var filter domain.HoldingFilter
	if req.Tier != "" {
		tier, err := domain.ParseTier(req.Tier)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid tier: %v", err)
		}
		filter.Tier = &tier
	}
	if req.Status != "" {
		st, err := domain.ParseHoldingStatus(req.Status)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "%v", err)
		}
		filter.Status = &st
	}

	holdings, err := s.HoldingService.List(ctx, owner, filter)
	if err != nil {
		return nil, mapError(err)
	}

	out := make([]*Holding, 0, len(holdings))
	for _, h := range holdings {
		out = append(out, domainHoldingToWire(h))
	}

	return &ListHoldingsResponse{Holdings: out}, nil
}

// RecordTransaction handles the RecordTransaction RPC
func (s *Server) RecordTransaction(ctx context.Context, req *RecordTransactionRequest) (*RecordTransactionResponse, error) {
	owner, err := ownerFrom(ctx)
	if err != nil {
		return nil, err
	}

	// Parse holding ID
	holdingID, err := uuid.Parse(req.HoldingId)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid holding_id format: %v", err)
	}

	// Parse quantity and price from string to decimal
	quantity, err := decimal.NewFromString(req.Quantity)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid quantity format: %v", err)
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "invalid price format: %v", err)
	}

	// Parse optional trade date
	var date time.Time
	if req.Date != "" {
		date, err = time.Parse("2006-01-02", req.Date)
		if err != nil {
			return nil, status.Errorf(codes.InvalidArgument, "invalid date format: %v", err)
		}
	}

	tx, h, err := s.HoldingService.RecordTransaction(ctx, owner, holdingID, holding.TradeInput{
		Action:   req.Action,
		Quantity: quantity,
		Price:    price,
		Reason:   req.Reason,
		Date:     date,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return &RecordTransactionResponse{
		TransactionId: tx.ID.String(),
		CreatedAt:     tx.CreatedAt,
		Holding:       domainHoldingToWire(h),
	}, nil
}

// domainHoldingToWire converts a domain Holding to its wire message
func domainHoldingToWire(h *domain.Holding) *Holding {
	return &Holding{
		Id:           h.ID.String(),
		Symbol:       h.Symbol,
		Market:       string(h.Market),
		Tier:         string(h.Tier),
		Quantity:     h.Quantity.String(),
		AvgCost:      h.AvgCost.String(),
		FirstBuyDate: h.FirstBuyDate.Format("2006-01-02"),
		Status:       string(h.Status),
	}
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, domain.ErrNotFound):
		return status.Errorf(codes.NotFound, "%s", err.Error())
	case errors.Is(err, domain.ErrInsufficientQuantity):
		return status.Errorf(codes.FailedPrecondition, "%s", err.Error())
	case errors.Is(err, domain.ErrInvalidInput),
		errors.Is(err, domain.ErrInvalidMarket),
		errors.Is(err, domain.ErrInvalidTier),
		errors.Is(err, domain.ErrUnsupportedMarket):
		return status.Errorf(codes.InvalidArgument, "%s", err.Error())
	case errors.Is(err, domain.ErrUnauthenticated):
		return status.Errorf(codes.Unauthenticated, "%s", err.Error())
	default:
		return status.Errorf(codes.Internal, "%s", err.Error())
	}
}
