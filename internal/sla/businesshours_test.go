package sla

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/RaythaHQ/ticket-system-sub001/internal/domain"
)

// 2026-01-09 is a Friday.
var friday1500 = time.Date(2026, time.January, 9, 15, 0, 0, 0, time.UTC)

func TestDueDateCalendarMode(t *testing.T) {
	calc := NewBusinessHoursCalculator(nil)
	due := calc.DueDate(friday1500, 480, nil)
	assert.Equal(t, friday1500.Add(8*time.Hour), due)
	assert.Equal(t, time.Date(2026, time.January, 9, 23, 0, 0, 0, time.UTC), due)
}

func TestDueDateSkipsWeekend(t *testing.T) {
	calc := NewBusinessHoursCalculator(nil)
	cfg := &domain.BusinessHoursConfig{
		Workdays: []time.Weekday{
			time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
		},
		StartOfDay: "09:00",
		EndOfDay:   "17:00",
	}

	// Friday 15:00 with an 8h budget: 2h consumed Friday, weekend skipped,
	// the remaining 6h land Monday from the 09:00 open.
	due := calc.DueDate(friday1500, 480, cfg)
	assert.Equal(t, time.Date(2026, time.January, 12, 15, 0, 0, 0, time.UTC), due)
}

func TestDueDateStartsOutsideWindow(t *testing.T) {
	calc := NewBusinessHoursCalculator(nil)
	cfg := &domain.BusinessHoursConfig{
		Workdays:   []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		StartOfDay: "09:00",
		EndOfDay:   "17:00",
	}

	// Friday 20:00, after close: the budget starts counting Monday 09:00.
	start := time.Date(2026, time.January, 9, 20, 0, 0, 0, time.UTC)
	due := calc.DueDate(start, 60, cfg)
	assert.Equal(t, time.Date(2026, time.January, 12, 10, 0, 0, 0, time.UTC), due)
}

func TestDueDateStartsBeforeOpen(t *testing.T) {
	calc := NewBusinessHoursCalculator(nil)
	cfg := &domain.BusinessHoursConfig{
		Workdays:   []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		StartOfDay: "09:00",
		EndOfDay:   "17:00",
	}

	start := time.Date(2026, time.January, 12, 6, 30, 0, 0, time.UTC) // Monday
	due := calc.DueDate(start, 120, cfg)
	assert.Equal(t, time.Date(2026, time.January, 12, 11, 0, 0, 0, time.UTC), due)
}

func TestDueDateSpansMultipleDays(t *testing.T) {
	calc := NewBusinessHoursCalculator(nil)
	cfg := &domain.BusinessHoursConfig{
		Workdays:   []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		StartOfDay: "09:00",
		EndOfDay:   "17:00",
	}

	// 20h budget from Monday 09:00: Mon 8h, Tue 8h, Wed 4h.
	start := time.Date(2026, time.January, 12, 9, 0, 0, 0, time.UTC)
	due := calc.DueDate(start, 1200, cfg)
	assert.Equal(t, time.Date(2026, time.January, 14, 13, 0, 0, 0, time.UTC), due)
}

func TestDueDateDegenerateConfigFallsBackToCalendar(t *testing.T) {
	calc := NewBusinessHoursCalculator(nil)

	cases := map[string]*domain.BusinessHoursConfig{
		"no workdays": {
			Workdays:   nil,
			StartOfDay: "09:00",
			EndOfDay:   "17:00",
		},
		"window never opens": {
			Workdays:   []time.Weekday{time.Monday},
			StartOfDay: "17:00",
			EndOfDay:   "09:00",
		},
		"unparseable times": {
			Workdays:   []time.Weekday{time.Monday},
			StartOfDay: "soon",
			EndOfDay:   "later",
		},
		// Out-of-range weekday values decode from JSON without error but
		// never match a real day; the walk must not spin looking for one.
		"no valid workdays": {
			Workdays:   []time.Weekday{9, -1},
			StartOfDay: "09:00",
			EndOfDay:   "17:00",
		},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			due := calc.DueDate(friday1500, 90, cfg)
			assert.Equal(t, friday1500.Add(90*time.Minute), due)
		})
	}
}

func TestDueDateMixedValidAndInvalidWorkdays(t *testing.T) {
	calc := NewBusinessHoursCalculator(nil)
	cfg := &domain.BusinessHoursConfig{
		Workdays:   []time.Weekday{9, time.Monday},
		StartOfDay: "09:00",
		EndOfDay:   "17:00",
	}

	// The bogus value is ignored; the config behaves as Monday-only.
	due := calc.DueDate(friday1500, 60, cfg)
	assert.Equal(t, time.Date(2026, time.January, 12, 10, 0, 0, 0, time.UTC), due)
}

func TestDueDateExactWindowBoundary(t *testing.T) {
	calc := NewBusinessHoursCalculator(nil)
	cfg := &domain.BusinessHoursConfig{
		Workdays:   []time.Weekday{time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday},
		StartOfDay: "09:00",
		EndOfDay:   "17:00",
	}

	// Budget consumes the Friday window exactly: due falls on the close.
	due := calc.DueDate(friday1500, 120, cfg)
	assert.Equal(t, time.Date(2026, time.January, 9, 17, 0, 0, 0, time.UTC), due)
}
