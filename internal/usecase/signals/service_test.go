package signals

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/easyasset/eam-backend/internal/domain"
)

// MockSignalRepository is a mock implementation of SignalRepository for testing
type MockSignalRepository struct {
	mock.Mock
}

func (m *MockSignalRepository) Create(ctx context.Context, s *domain.Signal) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSignalRepository) GetByID(ctx context.Context, owner string, id uuid.UUID) (*domain.Signal, error) {
	args := m.Called(ctx, owner, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Signal), args.Error(1)
}

func (m *MockSignalRepository) List(ctx context.Context, owner string, filter domain.SignalFilter) ([]*domain.Signal, error) {
	args := m.Called(ctx, owner, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Signal), args.Error(1)
}

func (m *MockSignalRepository) UpdateStatus(ctx context.Context, owner string, id uuid.UUID, status domain.SignalStatus) error {
	args := m.Called(ctx, owner, id, status)
	return args.Error(0)
}

func (m *MockSignalRepository) Delete(ctx context.Context, owner string, id uuid.UUID) error {
	args := m.Called(ctx, owner, id)
	return args.Error(0)
}

// MockHoldingLookup is a mock implementation of HoldingLookup for testing
type MockHoldingLookup struct {
	mock.Mock
}

func (m *MockHoldingLookup) GetByID(ctx context.Context, owner string, id uuid.UUID) (*domain.Holding, error) {
	args := m.Called(ctx, owner, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Holding), args.Error(1)
}

var fixedNow = time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)

func newTestService() (*Service, *MockSignalRepository, *MockHoldingLookup) {
	repo := new(MockSignalRepository)
	holdings := new(MockHoldingLookup)
	svc := NewService(repo, holdings, zerolog.Nop())
	svc.Now = func() time.Time { return fixedNow }
	return svc, repo, holdings
}

func TestCreate_NormalisesAndStartsActive(t *testing.T) {
	ctx := context.Background()
	svc, repo, holdings := newTestService()
	holdingID := uuid.New()

	holdings.On("GetByID", ctx, "alice", holdingID).Return(&domain.Holding{ID: holdingID}, nil)
	repo.On("Create", ctx, mock.AnythingOfType("*domain.Signal")).Return(nil)

	sig, err := svc.Create(ctx, "alice", CreateInput{
		Type:           "holding",
		Sector:         " semis ",
		Title:          " Drawdown ",
		Description:    "Down 12% from the high",
		Severity:       "high",
		Source:         "manual",
		RelatedSymbols: []string{" nvda", "", "amd "},
		HoldingID:      &holdingID,
	})

	require.NoError(t, err)
	assert.Equal(t, domain.SignalHolding, sig.Type)
	assert.Equal(t, domain.SeverityHigh, sig.Severity)
	assert.Equal(t, domain.SignalActive, sig.Status)
	assert.Equal(t, "semis", sig.Sector)
	assert.Equal(t, "Drawdown", sig.Title)
	assert.Equal(t, []string{"NVDA", "AMD"}, sig.RelatedSymbols)
	assert.True(t, sig.CreatedAt.Equal(fixedNow))
	repo.AssertExpectations(t)
	holdings.AssertExpectations(t)
}

func TestCreate_RejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	svc, repo, holdings := newTestService()
	foreign := uuid.New()
	holdings.On("GetByID", ctx, "alice", foreign).Return(nil, fmt.Errorf("holding %s: %w", foreign, domain.ErrNotFound))

	valid := CreateInput{Type: "macro", Title: "CPI", Description: "Hot print", Severity: "medium", Source: "manual"}

	tests := []struct {
		name string
		edit func(in *CreateInput)
		want error
	}{
		{"unknown type", func(in *CreateInput) { in.Type = "rumour" }, domain.ErrInvalidInput},
		{"unknown severity", func(in *CreateInput) { in.Severity = "urgent" }, domain.ErrInvalidInput},
		{"empty title", func(in *CreateInput) { in.Title = "  " }, domain.ErrInvalidInput},
		{"empty description", func(in *CreateInput) { in.Description = "" }, domain.ErrInvalidInput},
		{"empty source", func(in *CreateInput) { in.Source = "" }, domain.ErrInvalidInput},
		{"foreign holding", func(in *CreateInput) { in.HoldingID = &foreign }, domain.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid
			tt.edit(&in)
			_, err := svc.Create(ctx, "alice", in)
			assert.ErrorIs(t, err, tt.want)
		})
	}

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestList_BuildsFilter(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()

	price := domain.SignalPrice
	read := domain.SignalRead
	high := domain.SeverityHigh
	sector := "energy"
	repo.On("List", ctx, "alice", domain.SignalFilter{
		Type:        &price,
		Sector:      &sector,
		Status:      &read,
		MinSeverity: &high,
		Limit:       10,
	}).Return([]*domain.Signal{}, nil)

	got, err := svc.List(ctx, "alice", ListInput{Type: "price", Sector: "energy", Status: "read", MinSeverity: "high", Limit: 10})
	require.NoError(t, err)
	assert.Empty(t, got)
	repo.AssertExpectations(t)
}

func TestList_RejectsBadFilters(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()

	for _, in := range []ListInput{
		{Type: "rumour"},
		{Status: "snoozed"},
		{MinSeverity: "urgent"},
		{Limit: MaxListLimit + 1},
		{Limit: -1},
	} {
		_, err := svc.List(ctx, "alice", in)
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	}
	repo.AssertNotCalled(t, "List", mock.Anything, mock.Anything, mock.Anything)
}

func TestMarkReadAndSetStatus(t *testing.T) {
	ctx := context.Background()
	svc, repo, _ := newTestService()
	id := uuid.New()

	repo.On("UpdateStatus", ctx, "alice", id, domain.SignalRead).Return(nil)
	repo.On("GetByID", ctx, "alice", id).Return(&domain.Signal{ID: id, Status: domain.SignalRead}, nil)

	sig, err := svc.MarkRead(ctx, "alice", id)
	require.NoError(t, err)
	assert.Equal(t, domain.SignalRead, sig.Status)

	_, err = svc.SetStatus(ctx, "alice", id, "snoozed")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	missing := uuid.New()
	repo.On("UpdateStatus", ctx, "alice", missing, domain.SignalArchived).Return(fmt.Errorf("signal %s: %w", missing, domain.ErrNotFound))
	_, err = svc.SetStatus(ctx, "alice", missing, "archived")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	repo.AssertExpectations(t)
}
