package services

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"stocktracker-backend/application/ports"
	"stocktracker-backend/domain/events"
	"stocktracker-backend/domain/stock"
	"stocktracker-backend/pkg/dateutil"
	"stocktracker-backend/pkg/errors"
)

// PersistReport describes the outcome of one day's KPI persistence.
// On success Applied holds every series written. On failure FailedAt
// names the series whose write failed and Compensated the series whose
// earlier writes were rolled back.
type PersistReport struct {
	Symbol      string   `json:"symbol"`
	When        string   `json:"when"`
	Applied     []string `json:"applied"`
	FailedAt    string   `json:"failedAt,omitempty"`
	Compensated []string `json:"compensated,omitempty"`
}

// Succeeded reports whether the full day was persisted.
func (r PersistReport) Succeeded() bool {
	return r.FailedAt == ""
}

// KpiService derives figures from price snapshots and manages the
// persisted series.
type KpiService struct {
	prices    ports.PriceRepository
	kpis      ports.KpiRepository
	publisher ports.EventPublisher
	logger    *zap.Logger
}

// NewKpiService creates a new KPI service
func NewKpiService(
	prices ports.PriceRepository,
	kpis ports.KpiRepository,
	publisher ports.EventPublisher,
	logger *zap.Logger,
) *KpiService {
	return &KpiService{
		prices:    prices,
		kpis:      kpis,
		publisher: publisher,
		logger:    logger,
	}
}

// CalculateKpis computes every figure of one symbol and day and persists
// them as a unit. Writes are sequential; when one fails, the records
// already written are compensated by deletion so the day never stays
// half-persisted. The report always describes what actually happened,
// also when an error is returned.
func (s *KpiService) CalculateKpis(ctx context.Context, symbol, date string) (PersistReport, error) {
	report := PersistReport{Symbol: symbol, When: date}

	day, err := dateutil.ParseRowKey(date)
	if err != nil {
		return report, err
	}

	current, err := s.snapshotFor(ctx, symbol, date)
	if err != nil {
		return report, err
	}
	previousDate := dateutil.FormatRowKey(dateutil.PreviousBusinessDay(day))
	previous, err := s.snapshotFor(ctx, symbol, previousDate)
	if err != nil {
		return report, err
	}

	records, err := stock.ComputeKpis(current, previous)
	if err != nil {
		return report, err
	}

	for _, record := range records {
		if err := s.kpis.Create(ctx, record); err != nil {
			report.FailedAt = record.SymbolKpiID
			report.Compensated = s.rollback(ctx, report.Applied, date)
			return report, errors.Wrapf(err, "persist %s for %s", record.SymbolKpiID, date)
		}
		report.Applied = append(report.Applied, record.SymbolKpiID)
	}

	s.publish(ctx, events.NewKpisPersisted(symbol, date, len(records), time.Now().UTC()))
	s.logger.Info("persisted KPIs",
		zap.String("symbol", symbol),
		zap.String("date", date),
		zap.Int("count", len(records)))
	return report, nil
}

// snapshotFor fetches one snapshot, mapping its absence to the missing
// precondition of the computation.
func (s *KpiService) snapshotFor(ctx context.Context, symbol, date string) (stock.PriceSnapshot, error) {
	snapshot, err := s.prices.Get(ctx, symbol, date)
	if err != nil {
		if errors.IsNotFound(err) {
			return stock.PriceSnapshot{}, errors.NewPreconditionMissingError(
				"no price snapshot for " + symbol + " on " + date).WithCause(err)
		}
		return stock.PriceSnapshot{}, err
	}
	return snapshot, nil
}

// rollback deletes the records written before a failed one, newest first.
// Each compensation probes for the row before deleting so a write that
// never landed is not treated as a rollback failure. Best effort: a
// failed compensation is logged and skipped.
func (s *KpiService) rollback(ctx context.Context, applied []string, date string) []string {
	compensated := make([]string, 0, len(applied))
	for i := len(applied) - 1; i >= 0; i-- {
		seriesID := applied[i]

		ok, err := s.kpis.Exists(ctx, seriesID, date)
		if err != nil {
			s.logger.Error("rollback probe failed",
				zap.String("series", seriesID),
				zap.String("date", date),
				zap.Error(err))
			continue
		}
		if !ok {
			continue
		}
		if err := s.kpis.Delete(ctx, seriesID, date); err != nil {
			s.logger.Error("rollback delete failed",
				zap.String("series", seriesID),
				zap.String("date", date),
				zap.Error(err))
			continue
		}
		compensated = append(compensated, seriesID)
	}
	return compensated
}

// GetPersistedKpiNames maps each series id with stored values for the
// symbol to that figure's explanation. A persisted id whose figure
// suffix is not a supported figure fails the whole listing.
func (s *KpiService) GetPersistedKpiNames(ctx context.Context, symbol string) (map[string]string, error) {
	series, err := s.kpis.GetSeriesBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}

	names := make(map[string]string, len(series))
	prefix := symbol + "_"
	for _, id := range series {
		if len(id) <= len(prefix) || !strings.EqualFold(id[:len(prefix)], prefix) {
			continue
		}
		figure, err := stock.FigureByName(id[len(prefix):])
		if err != nil {
			return nil, err
		}
		names[id] = figure.Explanation
	}
	return names, nil
}

// GetKpiRange returns one figure's stored values for [from, to]. The
// figure name is matched case-insensitively against the supported set.
func (s *KpiService) GetKpiRange(ctx context.Context, symbol, figureName, from, to string) ([]stock.KpiRecord, error) {
	figure, err := stock.FigureByName(figureName)
	if err != nil {
		return nil, err
	}
	return s.kpis.GetRange(ctx, stock.SeriesID(symbol, figure.Name), from, to)
}

// GetKpiDates lists the business dates with persisted figures for the
// symbol. All of a symbol's series share the same dates because a day is
// only ever persisted whole, so reading one series suffices.
func (s *KpiService) GetKpiDates(ctx context.Context, symbol string) ([]string, error) {
	series, err := s.kpis.GetSeriesBySymbol(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if len(series) == 0 {
		return nil, nil
	}
	return s.kpis.GetDates(ctx, series[0])
}

// GetFigureCatalog describes every supported figure.
func (s *KpiService) GetFigureCatalog() []stock.Figure {
	return stock.Figures
}

// PurgeOlderThan removes snapshots and figures last modified on or before
// the limit date. It reports true only when both sweeps completed.
func (s *KpiService) PurgeOlderThan(ctx context.Context, cleanupLimitDate string) (bool, error) {
	day, err := dateutil.ParseRowKey(cleanupLimitDate)
	if err != nil {
		return false, err
	}
	// The limit date itself is purged, so the cutoff is its end of day.
	cutoff := day.Add(24*time.Hour - time.Nanosecond)

	kpisComplete, err := s.kpis.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return false, err
	}
	pricesComplete, err := s.prices.PurgeOlderThan(ctx, cutoff)
	if err != nil {
		return false, err
	}

	complete := kpisComplete && pricesComplete
	s.publish(ctx, events.NewSeriesPurged(cleanupLimitDate, complete, time.Now().UTC()))
	return complete, nil
}

// publish sends a domain event, logging instead of failing the operation.
func (s *KpiService) publish(ctx context.Context, event events.DomainEvent) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Warn("event publish failed",
			zap.String("eventType", event.GetEventType()),
			zap.Error(err))
	}
}
