package stockstore

import (
	"context"
	"sort"

	"go.uber.org/zap"

	"stocktracker-backend/domain/stock"
	"stocktracker-backend/infrastructure/persistence/repository"
	"stocktracker-backend/infrastructure/persistence/tablestore"
	"stocktracker-backend/pkg/errors"
)

type symbolKeys struct{}

// Each tracked symbol occupies its own partition; the row key is the
// opaque id assigned at save time, so symbol-only lookups resolve the
// row through the partition.
func (symbolKeys) ResolvePartition(symbol stock.TrackedSymbol) string { return symbol.Symbol }
func (symbolKeys) ResolveRow(symbol stock.TrackedSymbol) string       { return symbol.ID }

type symbolCodec struct{}

func (symbolCodec) ToRow(symbol stock.TrackedSymbol) (tablestore.Row, error) {
	return tablestore.Row{
		PartitionKey: symbol.Symbol,
		RowKey:       symbol.ID,
		Attributes: map[string]interface{}{
			"Name":    symbol.Name,
			"URL":     symbol.URL,
			"Enabled": symbol.Enabled,
		},
	}, nil
}

func (symbolCodec) FromRow(row tablestore.Row) (stock.TrackedSymbol, error) {
	return stock.TrackedSymbol{
		Symbol:  row.PartitionKey,
		ID:      row.RowKey,
		Name:    stringAttr(row.Attributes, "Name"),
		URL:     stringAttr(row.Attributes, "URL"),
		Enabled: boolAttr(row.Attributes, "Enabled"),
	}, nil
}

// SymbolRepository persists the symbols the system tracks.
type SymbolRepository struct {
	repo *repository.Repository[stock.TrackedSymbol, stock.TrackedSymbol]
}

// NewSymbolRepository creates the tracked symbol repository over its table store.
func NewSymbolRepository(store tablestore.Store, logger *zap.Logger) *SymbolRepository {
	return &SymbolRepository{
		repo: repository.New[stock.TrackedSymbol, stock.TrackedSymbol](store, symbolKeys{}, symbolCodec{}, logger),
	}
}

func (r *SymbolRepository) Create(ctx context.Context, symbol stock.TrackedSymbol) error {
	return r.repo.Create(ctx, symbol)
}

// Get fetches the tracked symbol stored under the given ticker. The row
// id is opaque, so the lookup reads the partition.
func (r *SymbolRepository) Get(ctx context.Context, symbol string) (stock.TrackedSymbol, error) {
	stored, err := r.repo.GetAllInPartition(ctx, symbol)
	if err != nil {
		return stock.TrackedSymbol{}, err
	}
	if len(stored) == 0 {
		return stock.TrackedSymbol{}, errors.NewNotFoundError("tracked symbol", symbol, "")
	}
	return stored[0], nil
}

func (r *SymbolRepository) Exists(ctx context.Context, symbol string) (bool, error) {
	rows, err := r.repo.GetRowKeysInPartition(ctx, symbol)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

// GetTrackedSymbols walks every partition of the table and collects its
// symbols, sorted for stable responses.
func (r *SymbolRepository) GetTrackedSymbols(ctx context.Context, enabledOnly bool) ([]stock.TrackedSymbol, error) {
	partitions, err := r.repo.GetAllPartitions(ctx, "")
	if err != nil {
		return nil, err
	}

	var symbols []stock.TrackedSymbol
	for _, partition := range partitions {
		stored, err := r.repo.GetAllInPartition(ctx, partition)
		if err != nil {
			return nil, err
		}
		for _, symbol := range stored {
			if enabledOnly && !symbol.Enabled {
				continue
			}
			symbols = append(symbols, symbol)
		}
	}

	sort.Slice(symbols, func(i, j int) bool { return symbols[i].Symbol < symbols[j].Symbol })
	return symbols, nil
}

func (r *SymbolRepository) Delete(ctx context.Context, symbol string) error {
	stored, err := r.Get(ctx, symbol)
	if err != nil {
		return err
	}
	return r.repo.Delete(ctx, stored)
}
