package sqlstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/easyasset/eam-backend/internal/domain"
)

func setupTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, "sqlite", ":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	require.NoError(t, db.Migrate(ctx))
	return db
}

func newHolding(owner, symbol string, market domain.Market, tier domain.Tier) *domain.Holding {
	now := time.Now().UTC()
	return &domain.Holding{
		ID:           uuid.New(),
		Owner:        owner,
		Symbol:       symbol,
		Market:       market,
		Tier:         tier,
		Quantity:     decimal.NewFromInt(100),
		AvgCost:      decimal.RequireFromString("12.3456"),
		FirstBuyDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Keywords:     []string{"dividend"},
		Status:       domain.HoldingStatusActive,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func TestOpen_RejectsUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "mysql", "dsn")
	assert.Error(t, err)
}

func TestRebind(t *testing.T) {
	pg := &DB{dialect: DialectPostgres}
	lite := &DB{dialect: DialectSQLite}
	query := `SELECT * FROM holdings WHERE id = ? AND owner = ?`

	assert.Equal(t, `SELECT * FROM holdings WHERE id = $1 AND owner = $2`, pg.Rebind(query))
	assert.Equal(t, query, lite.Rebind(query))
}

func TestMigrate_IsIdempotent(t *testing.T) {
	db := setupTestDB(t)
	assert.NoError(t, db.Migrate(context.Background()))
}

func TestHoldingRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewHoldingRepository(db)
	ctx := context.Background()

	h := newHolding("alice", "600519", domain.MarketCN, domain.TierStable)
	h.StopLossPrice = decPtr("10.5")
	require.NoError(t, repo.Create(ctx, h))

	got, err := repo.GetByID(ctx, "alice", h.ID)
	require.NoError(t, err)
	assert.Equal(t, h.Symbol, got.Symbol)
	assert.Equal(t, domain.MarketCN, got.Market)
	assert.True(t, got.AvgCost.Equal(h.AvgCost))
	require.NotNil(t, got.StopLossPrice)
	assert.True(t, got.StopLossPrice.Equal(decimal.RequireFromString("10.5")))
	assert.Nil(t, got.TakeProfitPrice)
	assert.Equal(t, []string{"dividend"}, got.Keywords)
	assert.True(t, got.FirstBuyDate.Equal(h.FirstBuyDate))

	// Another owner cannot see it
	_, err = repo.GetByID(ctx, "bob", h.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestHoldingRepository_ListOrdersByTierThenSymbol(t *testing.T) {
	db := setupTestDB(t)
	repo := NewHoldingRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, newHolding("alice", "TSLA", domain.MarketUS, domain.TierGamble)))
	require.NoError(t, repo.Create(ctx, newHolding("alice", "00700", domain.MarketHK, domain.TierMedium)))
	require.NoError(t, repo.Create(ctx, newHolding("alice", "600036", domain.MarketCN, domain.TierStable)))
	require.NoError(t, repo.Create(ctx, newHolding("alice", "510300", domain.MarketCN, domain.TierStable)))
	require.NoError(t, repo.Create(ctx, newHolding("bob", "AAPL", domain.MarketUS, domain.TierStable)))

	closed := newHolding("alice", "09988", domain.MarketHK, domain.TierMedium)
	closed.Quantity = decimal.Zero
	closed.Status = domain.HoldingStatusClosed
	require.NoError(t, repo.Create(ctx, closed))

	all, err := repo.List(ctx, "alice", domain.HoldingFilter{})
	require.NoError(t, err)
	symbols := make([]string, 0, len(all))
	for _, h := range all {
		symbols = append(symbols, h.Symbol)
	}
	assert.Equal(t, []string{"510300", "600036", "00700", "09988", "TSLA"}, symbols)

	active, err := repo.ListActive(ctx, "alice")
	require.NoError(t, err)
	assert.Len(t, active, 4)

	tier := domain.TierMedium
	medium, err := repo.List(ctx, "alice", domain.HoldingFilter{Tier: &tier})
	require.NoError(t, err)
	assert.Len(t, medium, 2)

	owners, err := repo.ListOwners(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"alice", "bob"}, owners)
}

func TestHoldingRepository_UpdateAndDelete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewHoldingRepository(db)
	txRepo := NewTransactionRepository(db)
	ctx := context.Background()

	h := newHolding("alice", "00700", domain.MarketHK, domain.TierMedium)
	require.NoError(t, repo.Create(ctx, h))

	h.Notes = "core position"
	h.Tier = domain.TierStable
	h.TakeProfitPrice = decPtr("450")
	require.NoError(t, repo.Update(ctx, h))

	got, err := repo.GetByID(ctx, "alice", h.ID)
	require.NoError(t, err)
	assert.Equal(t, "core position", got.Notes)
	assert.Equal(t, domain.TierStable, got.Tier)
	assert.True(t, got.TakeProfitPrice.Equal(decimal.NewFromInt(450)))

	buy := &domain.Transaction{
		ID: uuid.New(), HoldingID: h.ID, Action: domain.TradeActionBuy,
		Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(1), TotalAmount: decimal.NewFromInt(1),
		Date: time.Now(), CreatedAt: time.Now(),
	}
	require.NoError(t, buy.ApplyTo(h))
	require.NoError(t, txRepo.RecordTrade(ctx, h, buy))

	require.NoError(t, repo.Delete(ctx, "alice", h.ID))
	_, err = repo.GetByID(ctx, "alice", h.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	txs, err := txRepo.ListByHolding(ctx, h.ID)
	require.NoError(t, err)
	assert.Empty(t, txs)

	assert.ErrorIs(t, repo.Delete(ctx, "alice", h.ID), domain.ErrNotFound)
}

func TestOpen_SQLiteEnforcesForeignKeys(t *testing.T) {
	db := setupTestDB(t)

	var enabled int
	require.NoError(t, db.QueryRowContext(context.Background(), `PRAGMA foreign_keys`).Scan(&enabled))
	assert.Equal(t, 1, enabled)
}

func TestHoldingRepository_DeleteWithTransactions(t *testing.T) {
	ctx := context.Background()
	db, err := Open(ctx, "sqlite", "file:delete_fk?mode=memory&_pragma=foreign_keys(1)")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate(ctx))

	repo := NewHoldingRepository(db)
	txRepo := NewTransactionRepository(db)

	h := newHolding("alice", "600519", domain.MarketCN, domain.TierStable)
	require.NoError(t, repo.Create(ctx, h))
	for i := 0; i < 2; i++ {
		buy := &domain.Transaction{
			ID: uuid.New(), HoldingID: h.ID, Action: domain.TradeActionBuy,
			Quantity: decimal.NewFromInt(10), Price: decimal.NewFromInt(20), TotalAmount: decimal.NewFromInt(200),
			Date: time.Now(), CreatedAt: time.Now(),
		}
		require.NoError(t, buy.ApplyTo(h))
		require.NoError(t, txRepo.RecordTrade(ctx, h, buy))
	}

	// Another owner cannot delete it, and its transactions survive
	assert.ErrorIs(t, repo.Delete(ctx, "bob", h.ID), domain.ErrNotFound)
	txs, err := txRepo.ListByHolding(ctx, h.ID)
	require.NoError(t, err)
	assert.Len(t, txs, 2)

	require.NoError(t, repo.Delete(ctx, "alice", h.ID))

	_, err = repo.GetByID(ctx, "alice", h.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	txs, err = txRepo.ListByHolding(ctx, h.ID)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestTransactionRepository_RecordTrade(t *testing.T) {
	db := setupTestDB(t)
	holdings := NewHoldingRepository(db)
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	h := newHolding("alice", "600519", domain.MarketCN, domain.TierStable)
	require.NoError(t, holdings.Create(ctx, h))

	first := &domain.Transaction{
		ID: uuid.New(), HoldingID: h.ID, Action: domain.TradeActionSell,
		Quantity: decimal.NewFromInt(40), Price: decimal.NewFromInt(15), TotalAmount: decimal.NewFromInt(600),
		Date: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), CreatedAt: time.Now(),
	}
	require.NoError(t, first.ApplyTo(h))
	require.NoError(t, repo.RecordTrade(ctx, h, first))

	second := &domain.Transaction{
		ID: uuid.New(), HoldingID: h.ID, Action: domain.TradeActionSell,
		Quantity: decimal.NewFromInt(60), Price: decimal.NewFromInt(16), TotalAmount: decimal.NewFromInt(960),
		Date: time.Date(2024, 4, 2, 0, 0, 0, 0, time.UTC), CreatedAt: time.Now(),
	}
	require.NoError(t, second.ApplyTo(h))
	require.NoError(t, repo.RecordTrade(ctx, h, second))

	got, err := holdings.GetByID(ctx, "alice", h.ID)
	require.NoError(t, err)
	assert.True(t, got.Quantity.IsZero())
	assert.Equal(t, domain.HoldingStatusClosed, got.Status)

	txs, err := repo.ListByHolding(ctx, h.ID)
	require.NoError(t, err)
	require.Len(t, txs, 2)
	assert.Equal(t, second.ID, txs[0].ID, "newest first")
	assert.True(t, txs[1].TotalAmount.Equal(decimal.NewFromInt(600)))
}

func TestTransactionRepository_RecordTradeRollsBackOnMissingHolding(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTransactionRepository(db)
	ctx := context.Background()

	ghost := newHolding("alice", "GHOST", domain.MarketUS, domain.TierGamble)
	tx := &domain.Transaction{
		ID: uuid.New(), HoldingID: ghost.ID, Action: domain.TradeActionBuy,
		Quantity: decimal.NewFromInt(1), Price: decimal.NewFromInt(1), TotalAmount: decimal.NewFromInt(1),
		Date: time.Now(), CreatedAt: time.Now(),
	}

	err := repo.RecordTrade(ctx, ghost, tx)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	txs, err := repo.ListByHolding(ctx, ghost.ID)
	require.NoError(t, err)
	assert.Empty(t, txs)
}

func TestQuoteRepository_UpsertAndLatest(t *testing.T) {
	db := setupTestDB(t)
	repo := NewQuoteRepository(db)
	ctx := context.Background()

	day1 := time.Date(2024, 5, 9, 0, 0, 0, 0, time.UTC)
	day2 := day1.AddDate(0, 0, 1)
	volume := int64(123456)

	require.NoError(t, repo.Upsert(ctx, &domain.Quote{Symbol: "600519", Market: domain.MarketCN, TradeDate: day1, Close: decPtr("1700")}))
	require.NoError(t, repo.Upsert(ctx, &domain.Quote{Symbol: "600519", Market: domain.MarketCN, TradeDate: day2, Close: decPtr("1710"), Volume: &volume}))
	// Same day again replaces the price
	require.NoError(t, repo.Upsert(ctx, &domain.Quote{Symbol: "600519", Market: domain.MarketCN, TradeDate: day2, Name: "Moutai", Close: decPtr("1720.5"), Volume: &volume}))

	latest, err := repo.GetLatest(ctx, "600519", domain.MarketCN)
	require.NoError(t, err)
	assert.True(t, latest.TradeDate.Equal(day2))
	assert.True(t, latest.Close.Equal(decimal.RequireFromString("1720.5")))
	assert.Equal(t, "Moutai", latest.Name)
	require.NotNil(t, latest.Volume)
	assert.Equal(t, volume, *latest.Volume)
	assert.Nil(t, latest.Open)

	_, err = repo.GetLatest(ctx, "600519", domain.MarketHK)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	quotes, err := repo.ListRange(ctx, "600519", domain.MarketCN, day1, day2)
	require.NoError(t, err)
	require.Len(t, quotes, 2)
	assert.True(t, quotes[0].TradeDate.Equal(day2))
}

func TestTargetRepository_SaveReplaces(t *testing.T) {
	db := setupTestDB(t)
	repo := NewTargetRepository(db)
	ctx := context.Background()

	empty, err := repo.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, repo.Save(ctx, "alice", domain.DefaultTierTargets()))
	custom := domain.TierTargets{
		domain.TierStable: decimal.NewFromInt(60),
		domain.TierMedium: decimal.RequireFromString("25.5"),
		domain.TierGamble: decimal.RequireFromString("14.5"),
	}
	require.NoError(t, repo.Save(ctx, "alice", custom))

	got, err := repo.Get(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.True(t, got[domain.TierMedium].Equal(decimal.RequireFromString("25.5")))
	assert.NoError(t, got.Validate())
}

func TestReportRepository_LatestAndList(t *testing.T) {
	db := setupTestDB(t)
	repo := NewReportRepository(db)
	ctx := context.Background()

	base := time.Date(2024, 5, 10, 18, 0, 0, 0, time.UTC)
	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		r := &domain.Report{
			ID:        uuid.New(),
			Owner:     "alice",
			Kind:      domain.ReportKindDaily,
			Title:     "Daily",
			Content:   "# Daily",
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		}
		require.NoError(t, repo.Create(ctx, r))
		ids = append(ids, r.ID)
	}

	latest, err := repo.GetLatest(ctx, "alice", domain.ReportKindDaily)
	require.NoError(t, err)
	assert.Equal(t, ids[2], latest.ID)

	list, err := repo.List(ctx, "alice", 2)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, ids[2], list[0].ID)
	assert.Equal(t, ids[1], list[1].ID)

	got, err := repo.GetByID(ctx, "alice", ids[0])
	require.NoError(t, err)
	assert.Equal(t, "# Daily", got.Content)

	_, err = repo.GetLatest(ctx, "bob", domain.ReportKindDaily)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
