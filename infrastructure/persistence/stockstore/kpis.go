package stockstore

import (
	"context"
	"time"

	"go.uber.org/zap"

	"stocktracker-backend/domain/stock"
	"stocktracker-backend/infrastructure/persistence/repository"
	"stocktracker-backend/infrastructure/persistence/tablestore"
)

// KpiKey addresses one figure value: the composite "{symbol}_{figure}"
// series identifier partitions the table, the business date is the row key.
type KpiKey struct {
	SeriesID string
	Date     string
}

type kpiKeys struct{}

func (kpiKeys) ResolvePartition(key KpiKey) string { return key.SeriesID }
func (kpiKeys) ResolveRow(key KpiKey) string       { return key.Date }

type kpiCodec struct{}

func (kpiCodec) ToRow(record stock.KpiRecord) (tablestore.Row, error) {
	return tablestore.Row{
		PartitionKey: record.SymbolKpiID,
		RowKey:       record.When,
		Attributes: map[string]interface{}{
			"Result": record.Result,
		},
	}, nil
}

func (kpiCodec) FromRow(row tablestore.Row) (stock.KpiRecord, error) {
	return stock.KpiRecord{
		SymbolKpiID: row.PartitionKey,
		When:        row.RowKey,
		Result:      floatAttr(row.Attributes, "Result"),
	}, nil
}

// KpiRepository persists computed figure series.
type KpiRepository struct {
	series *repository.TimeSeries[stock.KpiRecord, KpiKey]
}

// NewKpiRepository creates the figure repository over its table store.
func NewKpiRepository(store tablestore.Store, logger *zap.Logger) *KpiRepository {
	return &KpiRepository{
		series: repository.NewTimeSeries[stock.KpiRecord, KpiKey](store, kpiKeys{}, kpiCodec{}, logger),
	}
}

func (r *KpiRepository) Create(ctx context.Context, record stock.KpiRecord) error {
	return r.series.Create(ctx, record)
}

func (r *KpiRepository) Get(ctx context.Context, seriesID, date string) (stock.KpiRecord, error) {
	return r.series.GetByKey(ctx, KpiKey{SeriesID: seriesID, Date: date})
}

func (r *KpiRepository) GetRange(ctx context.Context, seriesID, from, to string) ([]stock.KpiRecord, error) {
	return r.series.GetRange(ctx, seriesID, from, to)
}

func (r *KpiRepository) Exists(ctx context.Context, seriesID, date string) (bool, error) {
	return r.series.Exists(ctx, KpiKey{SeriesID: seriesID, Date: date})
}

func (r *KpiRepository) Delete(ctx context.Context, seriesID, date string) error {
	return r.series.DeleteByKey(ctx, KpiKey{SeriesID: seriesID, Date: date})
}

// GetSeriesBySymbol lists the series identifiers stored for one symbol.
// Partition keys are matched on the "{symbol}_" prefix case-insensitively,
// so a series written as "aapl_TrendToOpen" is still found for "AAPL".
func (r *KpiRepository) GetSeriesBySymbol(ctx context.Context, symbol string) ([]string, error) {
	return r.series.GetAllPartitions(ctx, symbol+"_")
}

func (r *KpiRepository) GetDates(ctx context.Context, seriesID string) ([]string, error) {
	return r.series.GetRowKeysInPartition(ctx, seriesID)
}

func (r *KpiRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (bool, error) {
	return r.series.PurgeOlderThan(ctx, cutoff)
}
