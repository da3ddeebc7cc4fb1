package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"stocktracker-backend/application/ports"
	"stocktracker-backend/domain/events"
	"stocktracker-backend/domain/stock"
	"stocktracker-backend/infrastructure/cache"
	"stocktracker-backend/pkg/dateutil"
	"stocktracker-backend/pkg/errors"
)

// Cache keys of the tracked-symbol listings.
const (
	CacheKeyTrackedSymbolsAll     = "tracked-symbols-all"
	CacheKeyTrackedSymbolsEnabled = "tracked-symbols-enabled"
)

// TrackerService manages the set of symbols the system follows.
type TrackerService struct {
	symbols   ports.SymbolRepository
	kpiQueue  ports.KpiQueue
	publisher ports.EventPublisher
	queries   *cache.QueryCache
	logger    *zap.Logger
	now       func() time.Time
}

// NewTrackerService creates a new tracker service
func NewTrackerService(
	symbols ports.SymbolRepository,
	kpiQueue ports.KpiQueue,
	publisher ports.EventPublisher,
	queries *cache.QueryCache,
	logger *zap.Logger,
) *TrackerService {
	return &TrackerService{
		symbols:   symbols,
		kpiQueue:  kpiQueue,
		publisher: publisher,
		queries:   queries,
		logger:    logger,
		now:       time.Now,
	}
}

// WithClock overrides the service clock. Tests use it to pin the backfill
// window.
func (s *TrackerService) WithClock(now func() time.Time) *TrackerService {
	s.now = now
	return s
}

// SaveTrackedSymbol registers a new symbol, invalidates the cached
// listings and enqueues a KPI backfill for the previous week's business
// days. The backfill is best effort: a queue failure does not undo the
// registration.
func (s *TrackerService) SaveTrackedSymbol(ctx context.Context, symbol stock.TrackedSymbol) (stock.TrackedSymbol, error) {
	if symbol.Symbol == "" {
		return stock.TrackedSymbol{}, errors.NewValidationError("symbol is required")
	}
	if symbol.Name == "" {
		return stock.TrackedSymbol{}, errors.NewValidationError("name is required")
	}

	exists, err := s.symbols.Exists(ctx, symbol.Symbol)
	if err != nil {
		return stock.TrackedSymbol{}, err
	}
	if exists {
		return stock.TrackedSymbol{}, errors.NewAlreadyExistsError("symbol", symbol.Symbol, symbol.Symbol)
	}

	if symbol.ID == "" {
		symbol.ID = uuid.NewString()
	}
	if err := s.symbols.Create(ctx, symbol); err != nil {
		return stock.TrackedSymbol{}, err
	}

	s.invalidateListings(ctx)
	s.backfill(ctx, symbol.Symbol)
	s.publish(ctx, events.NewSymbolSaved(symbol.Symbol, symbol.Name, symbol.Enabled, s.now().UTC()))

	s.logger.Info("tracked symbol saved",
		zap.String("symbol", symbol.Symbol),
		zap.Bool("enabled", symbol.Enabled))
	return symbol, nil
}

// backfill enqueues a calculation for each business day of the previous
// week so a fresh symbol starts with history.
func (s *TrackerService) backfill(ctx context.Context, symbol string) {
	for _, day := range dateutil.PreviousWeekBusinessDays(s.now().UTC()) {
		date := dateutil.FormatRowKey(day)
		if err := s.kpiQueue.EnqueueCalculation(ctx, symbol, date); err != nil {
			s.logger.Warn("backfill enqueue failed",
				zap.String("symbol", symbol),
				zap.String("date", date),
				zap.Error(err))
		}
	}
}

// GetTrackedSymbol retrieves one tracked symbol.
func (s *TrackerService) GetTrackedSymbol(ctx context.Context, symbol string) (stock.TrackedSymbol, error) {
	return s.symbols.Get(ctx, symbol)
}

// GetTrackedSymbols lists tracked symbols through the query cache.
func (s *TrackerService) GetTrackedSymbols(ctx context.Context, enabledOnly bool) ([]stock.TrackedSymbol, error) {
	key := CacheKeyTrackedSymbolsAll
	if enabledOnly {
		key = CacheKeyTrackedSymbolsEnabled
	}
	return cache.GetOrCompute(ctx, s.queries, key, func(ctx context.Context) ([]stock.TrackedSymbol, error) {
		return s.symbols.GetTrackedSymbols(ctx, enabledOnly)
	})
}

// DeleteTrackedSymbol removes a symbol and invalidates the cached listings.
func (s *TrackerService) DeleteTrackedSymbol(ctx context.Context, symbol string) error {
	if err := s.symbols.Delete(ctx, symbol); err != nil {
		return err
	}
	s.invalidateListings(ctx)
	return nil
}

func (s *TrackerService) invalidateListings(ctx context.Context) {
	if err := s.queries.Invalidate(ctx, CacheKeyTrackedSymbolsAll, CacheKeyTrackedSymbolsEnabled); err != nil {
		s.logger.Warn("cache invalidation failed", zap.Error(err))
	}
}

func (s *TrackerService) publish(ctx context.Context, event events.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed",
			zap.String("eventType", event.GetEventType()),
			zap.Error(err))
	}
}
