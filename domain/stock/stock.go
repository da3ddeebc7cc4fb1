// Package stock holds the domain model: daily price snapshots, the KPI
// figures derived from them, and the symbols the system tracks.
package stock

import (
	"fmt"
	"strings"
)

// PriceSnapshot is one trading day of a symbol. When is the business
// date in row-key format (2006-01-02).
type PriceSnapshot struct {
	Symbol string  `json:"symbol"`
	When   string  `json:"when"`
	Open   float64 `json:"open"`
	High   float64 `json:"high"`
	Low    float64 `json:"low"`
	Close  float64 `json:"close"`
	Source string  `json:"source,omitempty"`
}

// KpiRecord is one computed figure value for one symbol and day.
// SymbolKpiID is the composite series identifier "{symbol}_{figure}".
type KpiRecord struct {
	SymbolKpiID string  `json:"symbolKpiId"`
	When        string  `json:"when"`
	Result      float64 `json:"result"`
}

// Symbol returns the symbol part of the composite series identifier.
func (k KpiRecord) Symbol() string {
	if i := strings.Index(k.SymbolKpiID, "_"); i >= 0 {
		return k.SymbolKpiID[:i]
	}
	return k.SymbolKpiID
}

// FigureName returns the figure part of the composite series identifier.
func (k KpiRecord) FigureName() string {
	if i := strings.Index(k.SymbolKpiID, "_"); i >= 0 {
		return k.SymbolKpiID[i+1:]
	}
	return ""
}

// SeriesID builds the composite identifier of one symbol's figure series.
func SeriesID(symbol, figureName string) string {
	return fmt.Sprintf("%s_%s", symbol, figureName)
}

// TrackedSymbol is a stock the system follows. Disabled symbols stay
// stored but are excluded from scheduled processing.
type TrackedSymbol struct {
	Symbol  string `json:"symbol"`
	ID      string `json:"id"`
	Name    string `json:"name"`
	URL     string `json:"url,omitempty"`
	Enabled bool   `json:"enabled"`
}
