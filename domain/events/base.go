package events

import (
	"time"
)

// DomainEvent is the base interface for all domain events
// Events represent something that has happened in the past
type DomainEvent interface {
	GetAggregateID() string
	GetEventType() string
	GetTimestamp() time.Time
	GetVersion() int
}

// BaseEvent provides common event fields
type BaseEvent struct {
	AggregateID string    `json:"aggregate_id"`
	EventType   string    `json:"event_type"`
	Timestamp   time.Time `json:"timestamp"`
	Version     int       `json:"version"`
}

func (e BaseEvent) GetAggregateID() string  { return e.AggregateID }
func (e BaseEvent) GetEventType() string    { return e.EventType }
func (e BaseEvent) GetTimestamp() time.Time { return e.Timestamp }
func (e BaseEvent) GetVersion() int         { return e.Version }

// Symbol Events

// SymbolSaved is raised when a tracked symbol is registered
type SymbolSaved struct {
	BaseEvent
	Symbol  string `json:"symbol"`
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

// NewSymbolSaved creates a SymbolSaved event
func NewSymbolSaved(symbol, name string, enabled bool, timestamp time.Time) SymbolSaved {
	return SymbolSaved{
		BaseEvent: BaseEvent{
			AggregateID: symbol,
			EventType:   "symbol.saved",
			Timestamp:   timestamp,
			Version:     1,
		},
		Symbol:  symbol,
		Name:    name,
		Enabled: enabled,
	}
}

// KPI Events

// KpisPersisted is raised when a full day of figures is stored for a symbol
type KpisPersisted struct {
	BaseEvent
	Symbol string `json:"symbol"`
	When   string `json:"when"`
	Count  int    `json:"count"`
}

// NewKpisPersisted creates a KpisPersisted event
func NewKpisPersisted(symbol, when string, count int, timestamp time.Time) KpisPersisted {
	return KpisPersisted{
		BaseEvent: BaseEvent{
			AggregateID: symbol,
			EventType:   "kpis.persisted",
			Timestamp:   timestamp,
			Version:     1,
		},
		Symbol: symbol,
		When:   when,
		Count:  count,
	}
}

// SeriesPurged is raised when a retention sweep removes stale rows
type SeriesPurged struct {
	BaseEvent
	CleanupLimitDate string `json:"cleanup_limit_date"`
	Complete         bool   `json:"complete"`
}

// NewSeriesPurged creates a SeriesPurged event
func NewSeriesPurged(cleanupLimitDate string, complete bool, timestamp time.Time) SeriesPurged {
	return SeriesPurged{
		BaseEvent: BaseEvent{
			AggregateID: cleanupLimitDate,
			EventType:   "series.purged",
			Timestamp:   timestamp,
			Version:     1,
		},
		CleanupLimitDate: cleanupLimitDate,
		Complete:         complete,
	}
}
