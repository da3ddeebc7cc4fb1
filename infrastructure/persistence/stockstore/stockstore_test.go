package stockstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stocktracker-backend/domain/stock"
	"stocktracker-backend/infrastructure/persistence/tablestore"
	"stocktracker-backend/pkg/errors"
)

func TestPriceRepository_RoundTrip(t *testing.T) {
	ctx := context.Background()
	repo := NewPriceRepository(tablestore.NewMemoryStore(), zap.NewNop())

	snapshot := stock.PriceSnapshot{
		Symbol: "AAPL",
		When:   "2024-03-11",
		Open:   172.5,
		High:   174.2,
		Low:    171.9,
		Close:  173.1,
		Source: "eod-feed",
	}
	require.NoError(t, repo.Create(ctx, snapshot))

	got, err := repo.Get(ctx, "AAPL", "2024-03-11")
	require.NoError(t, err)
	assert.Equal(t, snapshot, got)

	err = repo.Create(ctx, snapshot)
	require.Error(t, err)
	assert.True(t, errors.IsAlreadyExists(err))
}

func TestPriceRepository_GetRangeSkipsMissingDays(t *testing.T) {
	ctx := context.Background()
	repo := NewPriceRepository(tablestore.NewMemoryStore(), zap.NewNop())

	require.NoError(t, repo.Create(ctx, stock.PriceSnapshot{Symbol: "AAPL", When: "2024-03-11", Close: 1}))
	require.NoError(t, repo.Create(ctx, stock.PriceSnapshot{Symbol: "AAPL", When: "2024-03-13", Close: 2}))

	got, err := repo.GetRange(ctx, "AAPL", "2024-03-11", "2024-03-15")
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "2024-03-11", got[0].When)
	assert.Equal(t, "2024-03-13", got[1].When)
}

func TestKpiRepository_SeriesDiscovery(t *testing.T) {
	ctx := context.Background()
	repo := NewKpiRepository(tablestore.NewMemoryStore(), zap.NewNop())

	records := []stock.KpiRecord{
		{SymbolKpiID: "AAPL_TrendToOpen", When: "2024-03-11", Result: 5.26},
		{SymbolKpiID: "AAPL_Debilidad", When: "2024-03-11", Result: 13.63},
		{SymbolKpiID: "MSFT_TrendToOpen", When: "2024-03-11", Result: 1.1},
	}
	for _, record := range records {
		require.NoError(t, repo.Create(ctx, record))
	}

	series, err := repo.GetSeriesBySymbol(ctx, "AAPL")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"AAPL_TrendToOpen", "AAPL_Debilidad"}, series)

	series, err = repo.GetSeriesBySymbol(ctx, "aapl")
	require.NoError(t, err)
	assert.Len(t, series, 2)
}

func TestKpiRepository_GetDates(t *testing.T) {
	ctx := context.Background()
	repo := NewKpiRepository(tablestore.NewMemoryStore(), zap.NewNop())

	require.NoError(t, repo.Create(ctx, stock.KpiRecord{SymbolKpiID: "AAPL_Interes", When: "2024-03-12", Result: 5}))
	require.NoError(t, repo.Create(ctx, stock.KpiRecord{SymbolKpiID: "AAPL_Interes", When: "2024-03-11", Result: 3}))

	dates, err := repo.GetDates(ctx, "AAPL_Interes")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-11", "2024-03-12"}, dates)
}

func TestKpiRepository_DeleteMissing(t *testing.T) {
	repo := NewKpiRepository(tablestore.NewMemoryStore(), zap.NewNop())

	err := repo.Delete(context.Background(), "AAPL_Interes", "2024-03-11")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}

func TestSymbolRepository_TrackedSymbols(t *testing.T) {
	ctx := context.Background()
	repo := NewSymbolRepository(tablestore.NewMemoryStore(), zap.NewNop())

	require.NoError(t, repo.Create(ctx, stock.TrackedSymbol{Symbol: "MSFT", ID: "2", Name: "Microsoft", Enabled: true}))
	require.NoError(t, repo.Create(ctx, stock.TrackedSymbol{Symbol: "AAPL", ID: "1", Name: "Apple", Enabled: true}))
	require.NoError(t, repo.Create(ctx, stock.TrackedSymbol{Symbol: "NOK", ID: "3", Name: "Nokia", Enabled: false}))

	all, err := repo.GetTrackedSymbols(ctx, false)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "AAPL", all[0].Symbol)

	enabled, err := repo.GetTrackedSymbols(ctx, true)
	require.NoError(t, err)
	require.Len(t, enabled, 2)
	for _, symbol := range enabled {
		assert.True(t, symbol.Enabled)
	}
}

func TestSymbolRepository_DuplicateCreate(t *testing.T) {
	ctx := context.Background()
	repo := NewSymbolRepository(tablestore.NewMemoryStore(), zap.NewNop())

	require.NoError(t, repo.Create(ctx, stock.TrackedSymbol{Symbol: "AAPL", ID: "1", Name: "Apple", Enabled: true}))

	err := repo.Create(ctx, stock.TrackedSymbol{Symbol: "AAPL", ID: "1", Name: "Apple Inc", Enabled: true})
	require.Error(t, err)
	assert.True(t, errors.IsAlreadyExists(err))
}

func TestSymbolRepository_OpaqueRowKey(t *testing.T) {
	ctx := context.Background()
	store := tablestore.NewMemoryStore()
	repo := NewSymbolRepository(store, zap.NewNop())

	require.NoError(t, repo.Create(ctx, stock.TrackedSymbol{Symbol: "AAPL", ID: "id-123", Name: "Apple", Enabled: true}))

	row, err := store.Get(ctx, "AAPL", "id-123")
	require.NoError(t, err)
	assert.Equal(t, "id-123", row.RowKey)

	got, err := repo.Get(ctx, "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "id-123", got.ID)
	assert.Equal(t, "Apple", got.Name)

	ok, err := repo.Exists(ctx, "AAPL")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, repo.Delete(ctx, "AAPL"))

	ok, err = repo.Exists(ctx, "AAPL")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = repo.Get(ctx, "AAPL")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	err = repo.Delete(ctx, "AAPL")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}
