// Package dateutil holds the date conventions shared by the price and KPI
// series: row keys are calendar dates formatted as "2006-01-02", and only
// business days (Mon-Fri) carry trading data.
package dateutil

import (
	"time"

	"stocktracker-backend/pkg/errors"
)

// RowKeyLayout is the row-key date format used by every time-series table.
const RowKeyLayout = "2006-01-02"

// FormatRowKey renders a date as a series row key.
func FormatRowKey(t time.Time) string {
	return t.Format(RowKeyLayout)
}

// ParseRowKey parses a series row key back into a date.
func ParseRowKey(s string) (time.Time, error) {
	t, err := time.Parse(RowKeyLayout, s)
	if err != nil {
		return time.Time{}, errors.NewValidationError("invalid date '" + s + "', expected " + RowKeyLayout).WithCause(err)
	}
	return t, nil
}

// IsBusinessDay reports whether t falls on a weekday.
func IsBusinessDay(t time.Time) bool {
	switch t.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	default:
		return true
	}
}

// BusinessDaysInRange returns every weekday in [from, to], inclusive on both
// ends. The bounds are row-key formatted dates.
func BusinessDaysInRange(from, to string) ([]time.Time, error) {
	start, err := ParseRowKey(from)
	if err != nil {
		return nil, err
	}
	end, err := ParseRowKey(to)
	if err != nil {
		return nil, err
	}

	var days []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		if IsBusinessDay(d) {
			days = append(days, d)
		}
	}
	return days, nil
}

// PreviousWeekBusinessDays returns the business days in the eight calendar
// days before t, most recent last. Used to backfill a freshly tracked symbol.
func PreviousWeekBusinessDays(t time.Time) []time.Time {
	var days []time.Time
	for d := t.AddDate(0, 0, -8); !d.After(t.AddDate(0, 0, -1)); d = d.AddDate(0, 0, 1) {
		if IsBusinessDay(d) {
			days = append(days, d)
		}
	}
	return days
}

// PreviousBusinessDay returns the last weekday strictly before t.
func PreviousBusinessDay(t time.Time) time.Time {
	d := t.AddDate(0, 0, -1)
	for !IsBusinessDay(d) {
		d = d.AddDate(0, 0, -1)
	}
	return d
}
