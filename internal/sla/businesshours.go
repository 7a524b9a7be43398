package sla

import (
	"time"

	"go.uber.org/zap"

	"github.com/RaythaHQ/ticket-system-sub001/internal/domain"
)

// BusinessHoursCalculator turns a minutes budget into a due timestamp. In
// calendar mode the due date is start + budget. In business-hours mode the
// budget is consumed only inside the configured weekly window, skipping
// non-workdays entirely.
type BusinessHoursCalculator struct {
	logger *zap.Logger
}

// NewBusinessHoursCalculator constructs a calculator.
func NewBusinessHoursCalculator(logger *zap.Logger) *BusinessHoursCalculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BusinessHoursCalculator{logger: logger}
}

// DueDate computes the deadline for the given start and budget. A nil config
// means calendar mode. A degenerate config (no workdays, window that never
// opens, unparseable times) falls back to calendar mode; the guard is what
// keeps the walk finite.
func (c *BusinessHoursCalculator) DueDate(start time.Time, budgetMinutes int, cfg *domain.BusinessHoursConfig) time.Time {
	if cfg == nil {
		return start.Add(time.Duration(budgetMinutes) * time.Minute)
	}
	startMin, endMin, err := cfg.DayWindow()
	if err != nil {
		c.logger.Warn("business hours config unusable, falling back to calendar time", zap.Error(err))
		return start.Add(time.Duration(budgetMinutes) * time.Minute)
	}

	cursor := start
	remaining := budgetMinutes
	for remaining > 0 {
		cursor = alignToWindow(cursor, cfg, startMin, endMin)
		windowEnd := midnightOf(cursor).Add(time.Duration(endMin) * time.Minute)
		available := int(windowEnd.Sub(cursor) / time.Minute)
		if available >= remaining {
			return cursor.Add(time.Duration(remaining) * time.Minute)
		}
		remaining -= available
		cursor = windowEnd
	}
	return cursor
}

// alignToWindow advances cursor to the next instant inside a work window,
// consuming no budget. Guaranteed to terminate because the config has at
// least one workday.
func alignToWindow(cursor time.Time, cfg *domain.BusinessHoursConfig, startMin, endMin int) time.Time {
	for {
		day := midnightOf(cursor)
		windowStart := day.Add(time.Duration(startMin) * time.Minute)
		windowEnd := day.Add(time.Duration(endMin) * time.Minute)

		if cfg.IsWorkday(cursor.Weekday()) && cursor.Before(windowEnd) {
			if cursor.Before(windowStart) {
				return windowStart
			}
			return cursor
		}
		cursor = day.AddDate(0, 0, 1)
	}
}

func midnightOf(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
