package repository

import (
	"context"
	"time"

	"go.uber.org/zap"

	"stocktracker-backend/infrastructure/persistence/tablestore"
	"stocktracker-backend/pkg/dateutil"
)

// TimeSeries extends Repository for tables whose row keys are calendar
// dates, one row per business day.
type TimeSeries[E any, K any] struct {
	*Repository[E, K]
	logger *zap.Logger
}

// NewTimeSeries wraps a repository with date-range operations.
func NewTimeSeries[E any, K any](store tablestore.Store, keys KeyResolver[K], codec Codec[E], logger *zap.Logger) *TimeSeries[E, K] {
	return &TimeSeries[E, K]{
		Repository: New[E, K](store, keys, codec, logger),
		logger:     logger,
	}
}

// GetRange fetches the entities of one partition for every business day
// in [from, to]. Days with no stored row are skipped, so weekends,
// holidays and gaps do not fail the range.
func (r *TimeSeries[E, K]) GetRange(ctx context.Context, partition, from, to string) ([]E, error) {
	days, err := dateutil.BusinessDaysInRange(from, to)
	if err != nil {
		return nil, err
	}

	var entities []E
	for _, day := range days {
		rowKey := dateutil.FormatRowKey(day)
		ok, err := r.Store().Exists(ctx, partition, rowKey)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		entity, err := r.GetByPartitionAndRow(ctx, partition, rowKey)
		if err != nil {
			return nil, err
		}
		entities = append(entities, entity)
	}
	return entities, nil
}

// PurgeOlderThan deletes every row last modified at or before cutoff,
// across all partitions. It reports true only when the full sweep
// completed without a failed page or batch.
func (r *TimeSeries[E, K]) PurgeOlderThan(ctx context.Context, cutoff time.Time) (bool, error) {
	pager := r.Store().ScanOlderThan(ctx, cutoff)
	purged := 0
	for pager.HasMorePages() {
		page, err := pager.NextPage()
		if err != nil {
			return false, err
		}
		if len(page) == 0 {
			continue
		}
		if err := r.Store().DeleteBatch(ctx, page); err != nil {
			return false, err
		}
		purged += len(page)
	}

	if purged > 0 {
		r.logger.Info("purged stale rows",
			zap.Int("count", purged),
			zap.Time("cutoff", cutoff))
	}
	return true, nil
}
