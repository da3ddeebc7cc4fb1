package ports

import (
	"context"
	"time"

	"stocktracker-backend/domain/events"
	"stocktracker-backend/domain/stock"
)

// PriceRepository defines the interface for price snapshot persistence
// This is a port in hexagonal architecture - the domain doesn't know about the implementation
type PriceRepository interface {
	// Create persists a new snapshot, failing when the day already exists
	Create(ctx context.Context, snapshot stock.PriceSnapshot) error

	// Get retrieves one symbol's snapshot for a business date
	Get(ctx context.Context, symbol, date string) (stock.PriceSnapshot, error)

	// GetRange retrieves the stored snapshots of [from, to], skipping days without data
	GetRange(ctx context.Context, symbol, from, to string) ([]stock.PriceSnapshot, error)

	// Exists reports whether a snapshot is stored for the given day
	Exists(ctx context.Context, symbol, date string) (bool, error)

	// Delete removes one snapshot
	Delete(ctx context.Context, symbol, date string) error

	// PurgeOlderThan removes snapshots last modified at or before cutoff
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (bool, error)
}

// KpiRepository defines the interface for computed figure persistence.
// Series are addressed by the composite "{symbol}_{figure}" identifier.
type KpiRepository interface {
	// Create persists a new figure value, failing when the day already exists
	Create(ctx context.Context, record stock.KpiRecord) error

	// Get retrieves one figure value for a business date
	Get(ctx context.Context, seriesID, date string) (stock.KpiRecord, error)

	// GetRange retrieves the stored values of [from, to], skipping days without data
	GetRange(ctx context.Context, seriesID, from, to string) ([]stock.KpiRecord, error)

	// Exists reports whether a value is stored for the given day
	Exists(ctx context.Context, seriesID, date string) (bool, error)

	// Delete removes one figure value
	Delete(ctx context.Context, seriesID, date string) error

	// GetSeriesBySymbol lists the series identifiers persisted for a symbol
	GetSeriesBySymbol(ctx context.Context, symbol string) ([]string, error)

	// GetDates lists the business dates stored for one series
	GetDates(ctx context.Context, seriesID string) ([]string, error)

	// PurgeOlderThan removes values last modified at or before cutoff
	PurgeOlderThan(ctx context.Context, cutoff time.Time) (bool, error)
}

// SymbolRepository defines the interface for tracked symbol persistence
type SymbolRepository interface {
	// Create registers a new tracked symbol, failing on duplicates
	Create(ctx context.Context, symbol stock.TrackedSymbol) error

	// Get retrieves one tracked symbol
	Get(ctx context.Context, symbol string) (stock.TrackedSymbol, error)

	// Exists reports whether the symbol is already tracked
	Exists(ctx context.Context, symbol string) (bool, error)

	// GetTrackedSymbols lists tracked symbols, optionally only enabled ones
	GetTrackedSymbols(ctx context.Context, enabledOnly bool) ([]stock.TrackedSymbol, error)

	// Delete removes a tracked symbol
	Delete(ctx context.Context, symbol string) error
}

// KpiQueue dispatches deferred KPI calculation work
type KpiQueue interface {
	// EnqueueCalculation schedules the figures of one symbol and day
	EnqueueCalculation(ctx context.Context, symbol, date string) error
}

// CleanupQueue dispatches deferred retention sweeps
type CleanupQueue interface {
	// EnqueueCleanup schedules a purge of rows older than the limit date
	EnqueueCleanup(ctx context.Context, cleanupLimitDate string) error
}

// EventPublisher defines the interface for publishing domain events
type EventPublisher interface {
	// Publish sends a single event
	Publish(ctx context.Context, event events.DomainEvent) error

	// PublishBatch sends multiple events
	PublishBatch(ctx context.Context, events []events.DomainEvent) error
}

// Cache defines the interface for query-result caching
type Cache interface {
	// Get retrieves a raw cache entry, reporting whether it was present
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Set stores a raw cache entry with a TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes cache entries
	Delete(ctx context.Context, keys ...string) error
}
