package stock

import (
	"math"
	"strings"

	"stocktracker-backend/pkg/errors"
)

// Figure is one KPI derivable from a current and a previous snapshot.
type Figure struct {
	Name        string
	Explanation string
	compute     func(current, previous PriceSnapshot) float64
}

// Compute evaluates the figure, rejecting non-finite results such as a
// division by a zero price.
func (f Figure) Compute(current, previous PriceSnapshot) (float64, error) {
	result := f.compute(current, previous)
	if math.IsNaN(result) || math.IsInf(result, 0) {
		return 0, errors.NewNumericError(f.Name + " is undefined for the given prices").
			WithDetails(map[string]interface{}{
				"symbol": current.Symbol,
				"when":   current.When,
			})
	}
	return result, nil
}

// Figures lists every supported KPI in computation order.
var Figures = []Figure{
	{
		Name:        "TrendToOpen",
		Explanation: "Percentage change of today's open against the previous open.",
		compute: func(c, p PriceSnapshot) float64 {
			return (c.Open*100)/p.Open - 100
		},
	},
	{
		Name:        "TrendToClose",
		Explanation: "Percentage change of today's close against the previous close.",
		compute: func(c, p PriceSnapshot) float64 {
			return (c.Close*100)/p.Close - 100
		},
	},
	{
		Name:        "TrendFromOpenToClose",
		Explanation: "Percentage change of today's close against the previous open.",
		compute: func(c, p PriceSnapshot) float64 {
			return (c.Close*100)/p.Open - 100
		},
	},
	{
		Name:        "Interes",
		Explanation: "Absolute difference between today's open and the previous open.",
		compute: func(c, p PriceSnapshot) float64 {
			return c.Open - p.Open
		},
	},
	{
		Name:        "Fortaleza",
		Explanation: "How far today's high sits above today's close, as a percentage of the close.",
		compute: func(c, _ PriceSnapshot) float64 {
			return (c.High - c.Close) * 100 / c.Close
		},
	},
	{
		Name:        "Debilidad",
		Explanation: "How far today's close sits above today's low, as a percentage of the close.",
		compute: func(c, _ PriceSnapshot) float64 {
			return (c.Close - c.Low) * 100 / c.Close
		},
	},
}

// FigureByName looks a figure up by name, case-insensitively.
func FigureByName(name string) (Figure, error) {
	for _, figure := range Figures {
		if strings.EqualFold(figure.Name, name) {
			return figure, nil
		}
	}
	return Figure{}, errors.NewUnrecognizedKpiError(name)
}

// FigureNames lists the names of every supported figure.
func FigureNames() []string {
	names := make([]string, 0, len(Figures))
	for _, figure := range Figures {
		names = append(names, figure.Name)
	}
	return names
}

// ComputeKpis evaluates every figure for the current snapshot against its
// previous one. A single undefined figure fails the whole computation so
// a day is never persisted half-derived.
func ComputeKpis(current, previous PriceSnapshot) ([]KpiRecord, error) {
	records := make([]KpiRecord, 0, len(Figures))
	for _, figure := range Figures {
		result, err := figure.Compute(current, previous)
		if err != nil {
			return nil, err
		}
		records = append(records, KpiRecord{
			SymbolKpiID: SeriesID(current.Symbol, figure.Name),
			When:        current.When,
			Result:      result,
		})
	}
	return records, nil
}
