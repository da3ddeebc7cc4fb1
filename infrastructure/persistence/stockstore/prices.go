// Package stockstore implements the persistence ports on the partitioned
// table store: one table each for price snapshots, figure series and
// tracked symbols.
package stockstore

import (
	"context"
	"time"

	"go.uber.org/zap"

	"stocktracker-backend/domain/stock"
	"stocktracker-backend/infrastructure/persistence/repository"
	"stocktracker-backend/infrastructure/persistence/tablestore"
)

// PriceKey addresses one snapshot: the symbol partitions the table and
// the business date is the row key.
type PriceKey struct {
	Symbol string
	Date   string
}

type priceKeys struct{}

func (priceKeys) ResolvePartition(key PriceKey) string { return key.Symbol }
func (priceKeys) ResolveRow(key PriceKey) string       { return key.Date }

type priceCodec struct{}

func (priceCodec) ToRow(snapshot stock.PriceSnapshot) (tablestore.Row, error) {
	return tablestore.Row{
		PartitionKey: snapshot.Symbol,
		RowKey:       snapshot.When,
		Attributes: map[string]interface{}{
			"Open":   snapshot.Open,
			"High":   snapshot.High,
			"Low":    snapshot.Low,
			"Close":  snapshot.Close,
			"Source": snapshot.Source,
		},
	}, nil
}

func (priceCodec) FromRow(row tablestore.Row) (stock.PriceSnapshot, error) {
	return stock.PriceSnapshot{
		Symbol: row.PartitionKey,
		When:   row.RowKey,
		Open:   floatAttr(row.Attributes, "Open"),
		High:   floatAttr(row.Attributes, "High"),
		Low:    floatAttr(row.Attributes, "Low"),
		Close:  floatAttr(row.Attributes, "Close"),
		Source: stringAttr(row.Attributes, "Source"),
	}, nil
}

// PriceRepository persists daily price snapshots.
type PriceRepository struct {
	series *repository.TimeSeries[stock.PriceSnapshot, PriceKey]
}

// NewPriceRepository creates the snapshot repository over its table store.
func NewPriceRepository(store tablestore.Store, logger *zap.Logger) *PriceRepository {
	return &PriceRepository{
		series: repository.NewTimeSeries[stock.PriceSnapshot, PriceKey](store, priceKeys{}, priceCodec{}, logger),
	}
}

func (r *PriceRepository) Create(ctx context.Context, snapshot stock.PriceSnapshot) error {
	return r.series.Create(ctx, snapshot)
}

func (r *PriceRepository) Get(ctx context.Context, symbol, date string) (stock.PriceSnapshot, error) {
	return r.series.GetByKey(ctx, PriceKey{Symbol: symbol, Date: date})
}

func (r *PriceRepository) GetRange(ctx context.Context, symbol, from, to string) ([]stock.PriceSnapshot, error) {
	return r.series.GetRange(ctx, symbol, from, to)
}

func (r *PriceRepository) Exists(ctx context.Context, symbol, date string) (bool, error) {
	return r.series.Exists(ctx, PriceKey{Symbol: symbol, Date: date})
}

func (r *PriceRepository) Delete(ctx context.Context, symbol, date string) error {
	return r.series.DeleteByKey(ctx, PriceKey{Symbol: symbol, Date: date})
}

func (r *PriceRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (bool, error) {
	return r.series.PurgeOlderThan(ctx, cutoff)
}

// attribute helpers shared by the codecs in this package

func floatAttr(attrs map[string]interface{}, name string) float64 {
	switch v := attrs[name].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	default:
		return 0
	}
}

func stringAttr(attrs map[string]interface{}, name string) string {
	if v, ok := attrs[name].(string); ok {
		return v
	}
	return ""
}

func boolAttr(attrs map[string]interface{}, name string) bool {
	if v, ok := attrs[name].(bool); ok {
		return v
	}
	return false
}
