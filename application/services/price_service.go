package services

import (
	"context"

	"go.uber.org/zap"

	"stocktracker-backend/application/ports"
	"stocktracker-backend/domain/stock"
	"stocktracker-backend/pkg/dateutil"
	"stocktracker-backend/pkg/errors"
)

// PriceService ingests and serves daily price snapshots.
type PriceService struct {
	prices   ports.PriceRepository
	kpiQueue ports.KpiQueue
	logger   *zap.Logger
}

// NewPriceService creates a new price service
func NewPriceService(prices ports.PriceRepository, kpiQueue ports.KpiQueue, logger *zap.Logger) *PriceService {
	return &PriceService{
		prices:   prices,
		kpiQueue: kpiQueue,
		logger:   logger,
	}
}

// RecordSnapshot stores one day of prices and enqueues the KPI
// calculation for that day. The enqueue is best effort: the snapshot
// stays stored when the queue is down and the day can be recalculated.
func (s *PriceService) RecordSnapshot(ctx context.Context, snapshot stock.PriceSnapshot) error {
	if snapshot.Symbol == "" {
		return errors.NewValidationError("symbol is required")
	}
	if _, err := dateutil.ParseRowKey(snapshot.When); err != nil {
		return err
	}
	if snapshot.Open <= 0 || snapshot.High <= 0 || snapshot.Low <= 0 || snapshot.Close <= 0 {
		return errors.NewValidationError("prices must be positive")
	}
	if snapshot.High < snapshot.Low {
		return errors.NewValidationError("high must not be below low")
	}

	if err := s.prices.Create(ctx, snapshot); err != nil {
		return err
	}

	if err := s.kpiQueue.EnqueueCalculation(ctx, snapshot.Symbol, snapshot.When); err != nil {
		s.logger.Warn("calculation enqueue failed",
			zap.String("symbol", snapshot.Symbol),
			zap.String("date", snapshot.When),
			zap.Error(err))
	}
	return nil
}

// GetSnapshot retrieves one day of prices.
func (s *PriceService) GetSnapshot(ctx context.Context, symbol, date string) (stock.PriceSnapshot, error) {
	return s.prices.Get(ctx, symbol, date)
}

// GetSnapshotRange retrieves the stored snapshots of [from, to].
func (s *PriceService) GetSnapshotRange(ctx context.Context, symbol, from, to string) ([]stock.PriceSnapshot, error) {
	return s.prices.GetRange(ctx, symbol, from, to)
}
