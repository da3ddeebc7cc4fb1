package stock

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stocktracker-backend/pkg/errors"
)

func snapshot(when string, open, high, low, close float64) PriceSnapshot {
	return PriceSnapshot{
		Symbol: "AAPL",
		When:   when,
		Open:   open,
		High:   high,
		Low:    low,
		Close:  close,
	}
}

func TestComputeKpis_Values(t *testing.T) {
	previous := snapshot("2024-03-11", 95, 98, 93, 96)
	current := snapshot("2024-03-12", 100, 115, 95, 110)

	records, err := ComputeKpis(current, previous)
	require.NoError(t, err)
	require.Len(t, records, len(Figures))

	byName := make(map[string]KpiRecord, len(records))
	for _, record := range records {
		byName[record.FigureName()] = record
	}

	assert.InDelta(t, 5.263157, byName["TrendToOpen"].Result, 1e-6)
	assert.InDelta(t, 14.583333, byName["TrendToClose"].Result, 1e-6)
	assert.InDelta(t, 15.789473, byName["TrendFromOpenToClose"].Result, 1e-6)
	assert.InDelta(t, 5.0, byName["Interes"].Result, 1e-9)
	assert.InDelta(t, 4.545454, byName["Fortaleza"].Result, 1e-6)
	assert.InDelta(t, 13.636363, byName["Debilidad"].Result, 1e-6)
}

func TestComputeKpis_RecordIdentity(t *testing.T) {
	records, err := ComputeKpis(
		snapshot("2024-03-12", 100, 115, 95, 110),
		snapshot("2024-03-11", 95, 98, 93, 96),
	)
	require.NoError(t, err)

	for _, record := range records {
		assert.Equal(t, "AAPL", record.Symbol())
		assert.Equal(t, "2024-03-12", record.When)
		assert.Equal(t, SeriesID("AAPL", record.FigureName()), record.SymbolKpiID)
	}
}

func TestComputeKpis_Deterministic(t *testing.T) {
	previous := snapshot("2024-03-11", 95, 98, 93, 96)
	current := snapshot("2024-03-12", 100, 115, 95, 110)

	first, err := ComputeKpis(current, previous)
	require.NoError(t, err)
	second, err := ComputeKpis(current, previous)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestComputeKpis_DivisionByZero(t *testing.T) {
	previous := snapshot("2024-03-11", 0, 98, 93, 96)
	current := snapshot("2024-03-12", 100, 115, 95, 110)

	_, err := ComputeKpis(current, previous)
	require.Error(t, err)
	assert.True(t, errors.IsNumeric(err))
}

func TestFigureByName(t *testing.T) {
	figure, err := FigureByName("trendtoopen")
	require.NoError(t, err)
	assert.Equal(t, "TrendToOpen", figure.Name)

	_, err = FigureByName("NoSuchFigure")
	require.Error(t, err)
	assert.True(t, errors.IsUnrecognizedKpi(err))
}

func TestSeriesID_RoundTrip(t *testing.T) {
	record := KpiRecord{SymbolKpiID: SeriesID("MSFT", "Fortaleza")}
	assert.Equal(t, "MSFT", record.Symbol())
	assert.Equal(t, "Fortaleza", record.FigureName())
}
