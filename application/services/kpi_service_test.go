package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"stocktracker-backend/application/ports"
	"stocktracker-backend/domain/stock"
	"stocktracker-backend/infrastructure/persistence/stockstore"
	"stocktracker-backend/infrastructure/persistence/tablestore"
	"stocktracker-backend/pkg/errors"
)

// failingKpiRepo delegates to a real repository but rejects the creation
// of one configured series.
type failingKpiRepo struct {
	ports.KpiRepository
	failOn string
}

func (f *failingKpiRepo) Create(ctx context.Context, record stock.KpiRecord) error {
	if record.SymbolKpiID == f.failOn {
		return errors.NewStoreUnavailableError("Create", assert.AnError)
	}
	return f.KpiRepository.Create(ctx, record)
}

type kpiFixture struct {
	service    *KpiService
	prices     *stockstore.PriceRepository
	kpis       ports.KpiRepository
	priceStore *tablestore.MemoryStore
	kpiStore   *tablestore.MemoryStore
}

func newKpiFixture(t *testing.T, wrap func(ports.KpiRepository) ports.KpiRepository) *kpiFixture {
	t.Helper()
	priceStore := tablestore.NewMemoryStore()
	kpiStore := tablestore.NewMemoryStore()
	prices := stockstore.NewPriceRepository(priceStore, zap.NewNop())

	var kpis ports.KpiRepository = stockstore.NewKpiRepository(kpiStore, zap.NewNop())
	if wrap != nil {
		kpis = wrap(kpis)
	}

	return &kpiFixture{
		service:    NewKpiService(prices, kpis, nil, zap.NewNop()),
		prices:     prices,
		kpis:       kpis,
		priceStore: priceStore,
		kpiStore:   kpiStore,
	}
}

func (f *kpiFixture) seedSnapshots(t *testing.T) {
	t.Helper()
	ctx := context.Background()
	// Friday before and the Monday under computation.
	require.NoError(t, f.prices.Create(ctx, stock.PriceSnapshot{
		Symbol: "AAPL", When: "2024-03-08", Open: 95, High: 98, Low: 93, Close: 96,
	}))
	require.NoError(t, f.prices.Create(ctx, stock.PriceSnapshot{
		Symbol: "AAPL", When: "2024-03-11", Open: 100, High: 115, Low: 95, Close: 110,
	}))
}

func TestCalculateKpis_PersistsFullDay(t *testing.T) {
	f := newKpiFixture(t, nil)
	f.seedSnapshots(t)

	report, err := f.service.CalculateKpis(context.Background(), "AAPL", "2024-03-11")
	require.NoError(t, err)
	assert.True(t, report.Succeeded())
	assert.Len(t, report.Applied, len(stock.Figures))
	assert.Empty(t, report.Compensated)

	record, err := f.kpis.Get(context.Background(), "AAPL_TrendToOpen", "2024-03-11")
	require.NoError(t, err)
	assert.InDelta(t, 5.263157, record.Result, 1e-6)

	dates, err := f.service.GetKpiDates(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-11"}, dates)
}

func TestCalculateKpis_MissingCurrentSnapshot(t *testing.T) {
	f := newKpiFixture(t, nil)

	_, err := f.service.CalculateKpis(context.Background(), "AAPL", "2024-03-11")
	require.Error(t, err)
	assert.True(t, errors.IsPreconditionMissing(err))
}

func TestCalculateKpis_MissingPreviousSnapshot(t *testing.T) {
	f := newKpiFixture(t, nil)
	require.NoError(t, f.prices.Create(context.Background(), stock.PriceSnapshot{
		Symbol: "AAPL", When: "2024-03-11", Open: 100, High: 115, Low: 95, Close: 110,
	}))

	_, err := f.service.CalculateKpis(context.Background(), "AAPL", "2024-03-11")
	require.Error(t, err)
	assert.True(t, errors.IsPreconditionMissing(err))
}

func TestCalculateKpis_InvalidDate(t *testing.T) {
	f := newKpiFixture(t, nil)

	_, err := f.service.CalculateKpis(context.Background(), "AAPL", "11-03-2024")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}

func TestCalculateKpis_RollbackCompensatesAppliedWrites(t *testing.T) {
	// The fourth figure in computation order fails, so exactly the three
	// earlier writes must be compensated.
	f := newKpiFixture(t, func(kpis ports.KpiRepository) ports.KpiRepository {
		return &failingKpiRepo{KpiRepository: kpis, failOn: "AAPL_Interes"}
	})
	f.seedSnapshots(t)

	report, err := f.service.CalculateKpis(context.Background(), "AAPL", "2024-03-11")
	require.Error(t, err)
	assert.False(t, report.Succeeded())
	assert.Equal(t, "AAPL_Interes", report.FailedAt)
	assert.Equal(t, []string{"AAPL_TrendToOpen", "AAPL_TrendToClose", "AAPL_TrendFromOpenToClose"}, report.Applied)
	assert.Equal(t, []string{"AAPL_TrendFromOpenToClose", "AAPL_TrendToClose", "AAPL_TrendToOpen"}, report.Compensated)

	// Nothing of the day survives.
	assert.Equal(t, 0, f.kpiStore.Len())
}

func TestCalculateKpis_NumericFailurePersistsNothing(t *testing.T) {
	f := newKpiFixture(t, nil)
	ctx := context.Background()
	require.NoError(t, f.prices.Create(ctx, stock.PriceSnapshot{
		Symbol: "AAPL", When: "2024-03-08", Open: 0, High: 98, Low: 93, Close: 96,
	}))
	require.NoError(t, f.prices.Create(ctx, stock.PriceSnapshot{
		Symbol: "AAPL", When: "2024-03-11", Open: 100, High: 115, Low: 95, Close: 110,
	}))

	_, err := f.service.CalculateKpis(ctx, "AAPL", "2024-03-11")
	require.Error(t, err)
	assert.True(t, errors.IsNumeric(err))
	assert.Equal(t, 0, f.kpiStore.Len())
}

func TestGetPersistedKpiNames(t *testing.T) {
	f := newKpiFixture(t, nil)
	f.seedSnapshots(t)

	_, err := f.service.CalculateKpis(context.Background(), "AAPL", "2024-03-11")
	require.NoError(t, err)

	names, err := f.service.GetPersistedKpiNames(context.Background(), "AAPL")
	require.NoError(t, err)
	require.Len(t, names, len(stock.FigureNames()))
	for _, figure := range stock.Figures {
		assert.Equal(t, figure.Explanation, names[stock.SeriesID("AAPL", figure.Name)])
	}
}

func TestGetKpiRange_UnrecognizedFigure(t *testing.T) {
	f := newKpiFixture(t, nil)

	_, err := f.service.GetKpiRange(context.Background(), "AAPL", "NoSuchFigure", "2024-03-11", "2024-03-15")
	require.Error(t, err)
	assert.True(t, errors.IsUnrecognizedKpi(err))
}

func TestGetKpiRange_CaseInsensitiveFigure(t *testing.T) {
	f := newKpiFixture(t, nil)
	f.seedSnapshots(t)

	_, err := f.service.CalculateKpis(context.Background(), "AAPL", "2024-03-11")
	require.NoError(t, err)

	records, err := f.service.GetKpiRange(context.Background(), "AAPL", "debilidad", "2024-03-11", "2024-03-11")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.InDelta(t, 13.636363, records[0].Result, 1e-6)
}

func TestGetKpiDates_NoSeries(t *testing.T) {
	f := newKpiFixture(t, nil)

	dates, err := f.service.GetKpiDates(context.Background(), "AAPL")
	require.NoError(t, err)
	assert.Empty(t, dates)
}

func TestPurgeOlderThan_RemovesStaleRows(t *testing.T) {
	f := newKpiFixture(t, nil)
	f.seedSnapshots(t)
	ctx := context.Background()

	_, err := f.service.CalculateKpis(ctx, "AAPL", "2024-03-11")
	require.NoError(t, err)

	// Backdate Friday's snapshot and one figure past the limit date.
	stale := time.Date(2024, 2, 1, 12, 0, 0, 0, time.UTC)
	f.priceStore.SetModifiedAt("AAPL", "2024-03-08", stale)
	f.kpiStore.SetModifiedAt("AAPL_TrendToOpen", "2024-03-11", stale)

	complete, err := f.service.PurgeOlderThan(ctx, "2024-02-01")
	require.NoError(t, err)
	assert.True(t, complete)

	assert.Equal(t, 1, f.priceStore.Len())
	assert.Equal(t, len(stock.Figures)-1, f.kpiStore.Len())
}

func TestPurgeOlderThan_InvalidDate(t *testing.T) {
	f := newKpiFixture(t, nil)

	_, err := f.service.PurgeOlderThan(context.Background(), "02/01/2024")
	require.Error(t, err)
	assert.True(t, errors.IsValidation(err))
}
