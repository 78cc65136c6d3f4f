package watchlist

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/easyasset/eam-backend/internal/domain"
)

// MockWatchlistRepository is a mock implementation of WatchlistRepository for testing
type MockWatchlistRepository struct {
	mock.Mock
}

func (m *MockWatchlistRepository) Create(ctx context.Context, item *domain.WatchlistItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockWatchlistRepository) GetByID(ctx context.Context, owner string, id uuid.UUID) (*domain.WatchlistItem, error) {
	args := m.Called(ctx, owner, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.WatchlistItem), args.Error(1)
}

func (m *MockWatchlistRepository) List(ctx context.Context, owner string) ([]*domain.WatchlistItem, error) {
	args := m.Called(ctx, owner)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.WatchlistItem), args.Error(1)
}

func (m *MockWatchlistRepository) Update(ctx context.Context, item *domain.WatchlistItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *MockWatchlistRepository) Delete(ctx context.Context, owner string, id uuid.UUID) error {
	args := m.Called(ctx, owner, id)
	return args.Error(0)
}

var fixedNow = time.Date(2024, 6, 3, 10, 0, 0, 0, time.UTC)

func newTestService() (*Service, *MockWatchlistRepository) {
	repo := new(MockWatchlistRepository)
	svc := NewService(repo, zerolog.Nop())
	svc.Now = func() time.Time { return fixedNow }
	return svc, repo
}

func TestAdd_NormalisesAndDefaultsTheme(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	repo.On("Create", ctx, mock.AnythingOfType("*domain.WatchlistItem")).Return(nil)

	item, err := svc.Add(ctx, "alice", AddInput{Symbol: " nvda ", Market: "us", Reason: "AI capex"})

	require.NoError(t, err)
	assert.Equal(t, "NVDA", item.Symbol)
	assert.Equal(t, domain.MarketUS, item.Market)
	assert.Equal(t, domain.DefaultWatchTheme, item.Theme)
	assert.Equal(t, "AI capex", item.Reason)
	assert.Equal(t, "alice", item.Owner)
	assert.True(t, item.CreatedAt.Equal(fixedNow))
	repo.AssertExpectations(t)
}

func TestAdd_RejectsInvalidInput(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	_, err := svc.Add(ctx, "alice", AddInput{Symbol: "7203", Market: "JP"})
	assert.ErrorIs(t, err, domain.ErrInvalidMarket)

	_, err = svc.Add(ctx, "alice", AddInput{Symbol: "  ", Market: "US"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Add(ctx, "alice", AddInput{Symbol: "NVDA", Market: "US", Theme: strings.Repeat("x", 101)})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestAdd_PassesConflictThrough(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()

	repo.On("Create", ctx, mock.Anything).Return(fmt.Errorf("NVDA/US is already on the watchlist: %w", domain.ErrConflict))

	_, err := svc.Add(ctx, "alice", AddInput{Symbol: "NVDA", Market: "US"})
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestUpdate_PatchesOnlyGivenFields(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()
	item := &domain.WatchlistItem{ID: uuid.New(), Owner: "alice", Symbol: "NVDA", Market: domain.MarketUS, Theme: "ai", Reason: "capex"}

	repo.On("GetByID", ctx, "alice", item.ID).Return(item, nil)
	repo.On("Update", ctx, item).Return(nil)

	theme := " chips "
	got, err := svc.Update(ctx, "alice", item.ID, UpdateInput{Theme: &theme})

	require.NoError(t, err)
	assert.Equal(t, "chips", got.Theme)
	assert.Equal(t, "capex", got.Reason)
	repo.AssertExpectations(t)
}

func TestUpdateAndRemove_UnknownItem(t *testing.T) {
	ctx := context.Background()
	svc, repo := newTestService()
	id := uuid.New()
	notFound := fmt.Errorf("watchlist item %s: %w", id, domain.ErrNotFound)

	repo.On("GetByID", ctx, "bob", id).Return(nil, notFound)
	repo.On("Delete", ctx, "bob", id).Return(notFound)

	reason := "x"
	_, err := svc.Update(ctx, "bob", id, UpdateInput{Reason: &reason})
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, svc.Remove(ctx, "bob", id), domain.ErrNotFound)

	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}
