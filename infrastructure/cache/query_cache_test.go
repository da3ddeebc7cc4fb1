package cache

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
	"stocktracker-backend/pkg/errors"
)

func newMockedCache(t *testing.T, ttl time.Duration) (*QueryCache, redismock.ClientMock) {
	t.Helper()
	client, mock := redismock.NewClientMock()
	return NewQueryCache(NewRedisCache(client), ttl, zap.NewNop()), mock
}

func sampleSymbols() []stock.TrackedSymbol {
	return []stock.TrackedSymbol{
		{Symbol: "AAPL", ID: "1", Name: "Apple", Enabled: true},
		{Symbol: "MSFT", ID: "2", Name: "Microsoft", Enabled: true},
	}
}

func TestGetOrCompute_MissComputesAndStores(t *testing.T) {
	qc, mock := newMockedCache(t, time.Minute)
	symbols := sampleSymbols()
	encoded, err := json.Marshal(symbols)
	require.NoError(t, err)

	mock.ExpectGet("tracked-symbols-all").RedisNil()
	mock.ExpectSet("tracked-symbols-all", encoded, time.Minute).SetVal("OK")

	calls := 0
	got, err := GetOrCompute(context.Background(), qc, "tracked-symbols-all",
		func(ctx context.Context) ([]stock.TrackedSymbol, error) {
			calls++
			return symbols, nil
		})
	require.NoError(t, err)
	assert.Equal(t, symbols, got)
	assert.Equal(t, 1, calls)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCompute_HitSkipsFactory(t *testing.T) {
	qc, mock := newMockedCache(t, time.Minute)
	symbols := sampleSymbols()
	encoded, err := json.Marshal(symbols)
	require.NoError(t, err)

	mock.ExpectGet("tracked-symbols-all").SetVal(string(encoded))

	got, err := GetOrCompute(context.Background(), qc, "tracked-symbols-all",
		func(ctx context.Context) ([]stock.TrackedSymbol, error) {
			t.Fatal("factory must not run on a cache hit")
			return nil, nil
		})
	require.NoError(t, err)
	assert.Equal(t, symbols, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCompute_CorruptedEntryIsDroppedAndRecomputed(t *testing.T) {
	qc, mock := newMockedCache(t, time.Minute)
	symbols := sampleSymbols()
	encoded, err := json.Marshal(symbols)
	require.NoError(t, err)

	mock.ExpectGet("tracked-symbols-all").SetVal("{not json")
	mock.ExpectDel("tracked-symbols-all").SetVal(1)
	mock.ExpectSet("tracked-symbols-all", encoded, time.Minute).SetVal("OK")

	got, err := GetOrCompute(context.Background(), qc, "tracked-symbols-all",
		func(ctx context.Context) ([]stock.TrackedSymbol, error) {
			return symbols, nil
		})
	require.NoError(t, err)
	assert.Equal(t, symbols, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCompute_FactoryErrorNotCached(t *testing.T) {
	qc, mock := newMockedCache(t, time.Minute)

	mock.ExpectGet("tracked-symbols-all").RedisNil()

	_, err := GetOrCompute(context.Background(), qc, "tracked-symbols-all",
		func(ctx context.Context) ([]stock.TrackedSymbol, error) {
			return nil, errors.NewStoreUnavailableError("scan", nil)
		})
	require.Error(t, err)
	assert.True(t, errors.IsStoreUnavailable(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCompute_CacheFailureDegradesToFactory(t *testing.T) {
	qc, mock := newMockedCache(t, time.Minute)
	symbols := sampleSymbols()
	encoded, err := json.Marshal(symbols)
	require.NoError(t, err)

	mock.ExpectGet("tracked-symbols-all").SetErr(assert.AnError)
	mock.ExpectSet("tracked-symbols-all", encoded, time.Minute).SetErr(assert.AnError)

	got, err := GetOrCompute(context.Background(), qc, "tracked-symbols-all",
		func(ctx context.Context) ([]stock.TrackedSymbol, error) {
			return symbols, nil
		})
	require.NoError(t, err)
	assert.Equal(t, symbols, got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrCompute_NilCacheBypasses(t *testing.T) {
	qc := NewQueryCache(nil, 0, zap.NewNop())

	calls := 0
	got, err := GetOrCompute(context.Background(), qc, "key",
		func(ctx context.Context) (int, error) {
			calls++
			return 42, nil
		})
	require.NoError(t, err)
	assert.Equal(t, 42, got)
	assert.Equal(t, 1, calls)
}

func TestInvalidate(t *testing.T) {
	qc, mock := newMockedCache(t, time.Minute)

	mock.ExpectDel("tracked-symbols-all", "tracked-symbols-enabled").SetVal(2)

	err := qc.Invalidate(context.Background(), "tracked-symbols-all", "tracked-symbols-enabled")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDefaultTTLApplied(t *testing.T) {
	client, mock := redismock.NewClientMock()
	qc := NewQueryCache(NewRedisCache(client), 0, zap.NewNop())

	mock.ExpectGet("key").RedisNil()
	mock.ExpectSet("key", []byte(`"value"`), DefaultTTL).SetVal("OK")

	got, err := GetOrCompute(context.Background(), qc, "key",
		func(ctx context.Context) (string, error) { return "value", nil })
	require.NoError(t, err)
	assert.Equal(t, "value", got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetOrComputeTTL_OverridesConfiguredTTL(t *testing.T) {
	qc, mock := newMockedCache(t, time.Minute)

	mock.ExpectGet("key").RedisNil()
	mock.ExpectSet("key", []byte(`"value"`), 5*time.Second).SetVal("OK")

	got, err := GetOrComputeTTL(context.Background(), qc, "key", 5*time.Second,
		func(ctx context.Context) (string, error) { return "value", nil })
	require.NoError(t, err)
	assert.Equal(t, "value", got)
	assert.NoError(t, mock.ExpectationsWereMet())
}
