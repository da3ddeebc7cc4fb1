package services

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stocktracker-backend/domain/stock"
	"stocktracker-backend/infrastructure/cache"
	"stocktracker-backend/infrastructure/persistence/stockstore"
	"stocktracker-backend/infrastructure/persistence/tablestore"
	"stocktracker-backend/pkg/errors"
)

type enqueued struct {
	Symbol string
	Date   string
}

type fakeKpiQueue struct {
	calls []enqueued
	err   error
}

func (q *fakeKpiQueue) EnqueueCalculation(ctx context.Context, symbol, date string) error {
	if q.err != nil {
		return q.err
	}
	q.calls = append(q.calls, enqueued{Symbol: symbol, Date: date})
	return nil
}

func newTrackerFixture(t *testing.T) (*TrackerService, *fakeKpiQueue) {
	t.Helper()
	symbols := stockstore.NewSymbolRepository(tablestore.NewMemoryStore(), zap.NewNop())
	queue := &fakeKpiQueue{}
	queries := cache.NewQueryCache(nil, 0, zap.NewNop())

	service := NewTrackerService(symbols, queue, nil, queries, zap.NewNop()).
		WithClock(func() time.Time {
			// A Monday, so the previous week holds exactly five business days.
			return time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)
		})
	return service, queue
}

func TestSaveTrackedSymbol_RegistersAndBackfills(t *testing.T) {
	service, queue := newTrackerFixture(t)

	saved, err := service.SaveTrackedSymbol(context.Background(), stock.TrackedSymbol{
		Symbol:  "AAPL",
		Name:    "Apple",
		Enabled: true,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, saved.ID)

	require.Len(t, queue.calls, 5)
	assert.Equal(t, enqueued{Symbol: "AAPL", Date: "2024-03-04"}, queue.calls[0])
	assert.Equal(t, enqueued{Symbol: "AAPL", Date: "2024-03-08"}, queue.calls[4])

	got, err := service.GetTrackedSymbol(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, saved, got)
}

func TestSaveTrackedSymbol_Duplicate(t *testing.T) {
	service, _ := newTrackerFixture(t)
	ctx := context.Background()

	_, err := service.SaveTrackedSymbol(ctx, stock.TrackedSymbol{Symbol: "AAPL", Name: "Apple"})
	require.NoError(t, err)

	_, err = service.SaveTrackedSymbol(ctx, stock.TrackedSymbol{Symbol: "AAPL", Name: "Apple Inc"})
	require.Error(t, err)
	assert.True(t, errors.IsAlreadyExists(err))
}

func TestSaveTrackedSymbol_Validation(t *testing.T) {
	service, queue := newTrackerFixture(t)
	ctx := context.Background()

	_, err := service.SaveTrackedSymbol(ctx, stock.TrackedSymbol{Name: "Apple"})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	_, err = service.SaveTrackedSymbol(ctx, stock.TrackedSymbol{Symbol: "AAPL"})
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))

	assert.Empty(t, queue.calls)
}

func TestSaveTrackedSymbol_QueueFailureDoesNotUndoSave(t *testing.T) {
	service, queue := newTrackerFixture(t)
	queue.err = assert.AnError

	_, err := service.SaveTrackedSymbol(context.Background(), stock.TrackedSymbol{
		Symbol: "AAPL",
		Name:   "Apple",
	})
	require.NoError(t, err)

	got, err := service.GetTrackedSymbol(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, "AAPL", got.Symbol)
}

func TestTrackedSymbolMutationsEvictCachedListings(t *testing.T) {
	ctx := context.Background()
	client, mock := redismock.NewClientMock()
	queries := cache.NewQueryCache(cache.NewRedisCache(client), time.Minute, zap.NewNop())
	symbols := stockstore.NewSymbolRepository(tablestore.NewMemoryStore(), zap.NewNop())
	service := NewTrackerService(symbols, &fakeKpiQueue{}, nil, queries, zap.NewNop())

	saved := stock.TrackedSymbol{Symbol: "AAPL", ID: "1", Name: "Apple", Enabled: true}
	encoded, err := json.Marshal([]stock.TrackedSymbol{saved})
	require.NoError(t, err)

	// Save evicts both listing keys, so the listing that follows misses
	// the cache and recomputes from the store.
	mock.ExpectDel(CacheKeyTrackedSymbolsAll, CacheKeyTrackedSymbolsEnabled).SetVal(2)
	mock.ExpectGet(CacheKeyTrackedSymbolsAll).RedisNil()
	mock.ExpectSet(CacheKeyTrackedSymbolsAll, encoded, time.Minute).SetVal("OK")
	mock.ExpectDel(CacheKeyTrackedSymbolsAll, CacheKeyTrackedSymbolsEnabled).SetVal(2)

	_, err = service.SaveTrackedSymbol(ctx, saved)
	require.NoError(t, err)

	listed, err := service.GetTrackedSymbols(ctx, false)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, saved, listed[0])

	require.NoError(t, service.DeleteTrackedSymbol(ctx, "AAPL"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetTrackedSymbols_EnabledFilter(t *testing.T) {
	service, _ := newTrackerFixture(t)
	ctx := context.Background()

	_, err := service.SaveTrackedSymbol(ctx, stock.TrackedSymbol{Symbol: "AAPL", Name: "Apple", Enabled: true})
	require.NoError(t, err)
	_, err = service.SaveTrackedSymbol(ctx, stock.TrackedSymbol{Symbol: "NOK", Name: "Nokia", Enabled: false})
	require.NoError(t, err)

	all, err := service.GetTrackedSymbols(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	enabled, err := service.GetTrackedSymbols(ctx, true)
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, "AAPL", enabled[0].Symbol)
}

func TestDeleteTrackedSymbol(t *testing.T) {
	service, _ := newTrackerFixture(t)
	ctx := context.Background()

	_, err := service.SaveTrackedSymbol(ctx, stock.TrackedSymbol{Symbol: "AAPL", Name: "Apple"})
	require.NoError(t, err)

	require.NoError(t, service.DeleteTrackedSymbol(ctx, "AAPL"))

	_, err = service.GetTrackedSymbol(ctx, "AAPL")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))

	err = service.DeleteTrackedSymbol(ctx, "AAPL")
	require.Error(t, err)
	assert.True(t, errors.IsNotFound(err))
}
