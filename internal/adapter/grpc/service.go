package grpc

import (
	"context"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Wire messages of eam.v1.PortfolioService. Decimals travel as strings.

type GetOverviewRequest struct{}

type Allocation struct {
	Tier        string `json:"tier"`
	TargetPct   string `json:"target_pct"`
	ActualPct   string `json:"actual_pct"`
	DriftPct    string `json:"drift_pct"`
	MarketValue string `json:"market_value"`
}

type GetOverviewResponse struct {
	TotalValue    string        `json:"total_value"`
	HoldingsCount int32         `json:"holdings_count"`
	Allocations   []*Allocation `json:"allocations"`
}

type GetRebalanceSuggestionsRequest struct{}

type RebalanceSuggestion struct {
	Tier     string `json:"tier"`
	Action   string `json:"action"`
	Amount   string `json:"amount"`
	DriftPct string `json:"drift_pct"`
}

type GetRebalanceSuggestionsResponse struct {
	NeedsRebalance bool                   `json:"needs_rebalance"`
	Suggestions    []*RebalanceSuggestion `json:"suggestions"`
}

type ListHoldingsRequest struct {
	Tier   string `json:"tier,omitempty"`   // Empty means every tier
	Status string `json:"status,omitempty"` // Empty means every status
}

type Holding struct {
	Id           string `json:"id"`
	Symbol       string `json:"symbol"`
	Market       string `json:"market"`
	Tier         string `json:"tier"`
	Quantity     string `json:"quantity"`
	AvgCost      string `json:"avg_cost"`
	FirstBuyDate string `json:"first_buy_date"`
	Status       string `json:"status"`
}

type ListHoldingsResponse struct {
	Holdings []*Holding `json:"holdings"`
}

type RecordTransactionRequest struct {
	HoldingId string `json:"holding_id"`
	Action    string `json:"action"`
	Quantity  string `json:"quantity"`
	Price     string `json:"price"`
	Reason    string `json:"reason,omitempty"`
	Date      string `json:"date,omitempty"` // YYYY-MM-DD, defaults to today
}

type RecordTransactionResponse struct {
	TransactionId string    `json:"transaction_id"`
	CreatedAt     time.Time `json:"created_at"`
	Holding       *Holding  `json:"holding"`
}

const (
	PortfolioService_GetOverview_FullMethodName             = "/eam.v1.PortfolioService/GetOverview"
	PortfolioService_GetRebalanceSuggestions_FullMethodName = "/eam.v1.PortfolioService/GetRebalanceSuggestions"
	PortfolioService_ListHoldings_FullMethodName            = "/eam.v1.PortfolioService/ListHoldings"
	PortfolioService_RecordTransaction_FullMethodName       = "/eam.v1.PortfolioService/RecordTransaction"
)

// PortfolioServiceServer is the server API for eam.v1.PortfolioService
type PortfolioServiceServer interface {
	GetOverview(context.Context, *GetOverviewRequest) (*GetOverviewResponse, error)
	GetRebalanceSuggestions(context.Context, *GetRebalanceSuggestionsRequest) (*GetRebalanceSuggestionsResponse, error)
	ListHoldings(context.Context, *ListHoldingsRequest) (*ListHoldingsResponse, error)
	RecordTransaction(context.Context, *RecordTransactionRequest) (*RecordTransactionResponse, error)
}

// UnimplementedPortfolioServiceServer can be embedded to stay forward compatible
type UnimplementedPortfolioServiceServer struct{}

func (UnimplementedPortfolioServiceServer) GetOverview(context.Context, *GetOverviewRequest) (*GetOverviewResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetOverview not implemented")
}
func (UnimplementedPortfolioServiceServer) GetRebalanceSuggestions(context.Context, *GetRebalanceSuggestionsRequest) (*GetRebalanceSuggestionsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method GetRebalanceSuggestions not implemented")
}
func (UnimplementedPortfolioServiceServer) ListHoldings(context.Context, *ListHoldingsRequest) (*ListHoldingsResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method ListHoldings not implemented")
}
func (UnimplementedPortfolioServiceServer) RecordTransaction(context.Context, *RecordTransactionRequest) (*RecordTransactionResponse, error) {
	return nil, status.Errorf(codes.Unimplemented, "method RecordTransaction not implemented")
}

// RegisterPortfolioServiceServer registers srv on s
func RegisterPortfolioServiceServer(s grpc.ServiceRegistrar, srv PortfolioServiceServer) {
	s.RegisterService(&PortfolioService_ServiceDesc, srv)
}

func _PortfolioService_GetOverview_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetOverviewRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PortfolioServiceServer).GetOverview(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: PortfolioService_GetOverview_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PortfolioServiceServer).GetOverview(ctx, req.(*GetOverviewRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _PortfolioService_GetRebalanceSuggestions_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(GetRebalanceSuggestionsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PortfolioServiceServer).GetRebalanceSuggestions(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: PortfolioService_GetRebalanceSuggestions_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PortfolioServiceServer).GetRebalanceSuggestions(ctx, req.(*GetRebalanceSuggestionsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _PortfolioService_ListHoldings_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(ListHoldingsRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PortfolioServiceServer).ListHoldings(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: PortfolioService_ListHoldings_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PortfolioServiceServer).ListHoldings(ctx, req.(*ListHoldingsRequest))
	}
	return interceptor(ctx, in, info, handler)
}

func _PortfolioService_RecordTransaction_Handler(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
	in := new(RecordTransactionRequest)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(PortfolioServiceServer).RecordTransaction(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: PortfolioService_RecordTransaction_FullMethodName,
	}
	handler := func(ctx context.Context, req interface{}) (interface{}, error) {
		return srv.(PortfolioServiceServer).RecordTransaction(ctx, req.(*RecordTransactionRequest))
	}
	return interceptor(ctx, in, info, handler)
}

// PortfolioService_ServiceDesc is the grpc.ServiceDesc for eam.v1.PortfolioService
var PortfolioService_ServiceDesc = grpc.ServiceDesc{
	ServiceName: "eam.v1.PortfolioService",
	HandlerType: (*PortfolioServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "GetOverview", Handler: _PortfolioService_GetOverview_Handler},
		{MethodName: "GetRebalanceSuggestions", Handler: _PortfolioService_GetRebalanceSuggestions_Handler},
		{MethodName: "ListHoldings", Handler: _PortfolioService_ListHoldings_Handler},
		{MethodName: "RecordTransaction", Handler: _PortfolioService_RecordTransaction_Handler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "eam/v1/portfolio",
}

// PortfolioServiceClient is the client API for eam.v1.PortfolioService.
// Every call is sent with the JSON content subtype.
type PortfolioServiceClient interface {
	GetOverview(ctx context.Context, in *GetOverviewRequest, opts ...grpc.CallOption) (*GetOverviewResponse, error)
	GetRebalanceSuggestions(ctx context.Context, in *GetRebalanceSuggestionsRequest, opts ...grpc.CallOption) (*GetRebalanceSuggestionsResponse, error)
	ListHoldings(ctx context.Context, in *ListHoldingsRequest, opts ...grpc.CallOption) (*ListHoldingsResponse, error)
	RecordTransaction(ctx context.Context, in *RecordTransactionRequest, opts ...grpc.CallOption) (*RecordTransactionResponse, error)
}

type portfolioServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewPortfolioServiceClient creates a client on cc
func NewPortfolioServiceClient(cc grpc.ClientConnInterface) PortfolioServiceClient {
	return &portfolioServiceClient{cc}
}

func (c *portfolioServiceClient) invoke(ctx context.Context, method string, in, out interface{}, opts []grpc.CallOption) error {
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(CodecName)}, opts...)
	return c.cc.Invoke(ctx, method, in, out, opts...)
}

func (c *portfolioServiceClient) GetOverview(ctx context.Context, in *GetOverviewRequest, opts ...grpc.CallOption) (*GetOverviewResponse, error) {
	out := new(GetOverviewResponse)
	if err := c.invoke(ctx, PortfolioService_GetOverview_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *portfolioServiceClient) GetRebalanceSuggestions(ctx context.Context, in *GetRebalanceSuggestionsRequest, opts ...grpc.CallOption) (*GetRebalanceSuggestionsResponse, error) {
	out := new(GetRebalanceSuggestionsResponse)
	if err := c.invoke(ctx, PortfolioService_GetRebalanceSuggestions_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *portfolioServiceClient) ListHoldings(ctx context.Context, in *ListHoldingsRequest, opts ...grpc.CallOption) (*ListHoldingsResponse, error) {
	out := new(ListHoldingsResponse)
	if err := c.invoke(ctx, PortfolioService_ListHoldings_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *portfolioServiceClient) RecordTransaction(ctx context.Context, in *RecordTransactionRequest, opts ...grpc.CallOption) (*RecordTransactionResponse, error) {
	out := new(RecordTransactionResponse)
	if err := c.invoke(ctx, PortfolioService_RecordTransaction_FullMethodName, in, out, opts); err != nil {
		return nil, err
	}
	return out, nil
}
