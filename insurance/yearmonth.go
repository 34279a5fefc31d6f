package insurance

import (
	"fmt"
	"time"
)

// =============================================================================
// YEAR MONTH - The calendar month every computation is keyed by
// =============================================================================

// YearMonth is a calendar month ("2025-03"). It is a comparable value type
// so it can participate in composite map keys directly.
type YearMonth struct {
	Year  int
	Month time.Month
}

// ParseYearMonth parses "YYYY-MM".
func ParseYearMonth(s string) (YearMonth, error) {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		return YearMonth{}, fmt.Errorf("invalid year-month %q: %w", s, ErrMissingPrerequisite)
	}
	return YearMonth{Year: t.Year(), Month: t.Month()}, nil
}

// YearMonthOf returns the month containing the given date.
func YearMonthOf(t time.Time) YearMonth {
	return YearMonth{Year: t.Year(), Month: t.Month()}
}

// CurrentYearMonth returns the month containing today.
func CurrentYearMonth() YearMonth {
	return YearMonthOf(time.Now().UTC())
}

// Previous returns the preceding calendar month, handling year rollover
// (January 2025 -> December 2024).
func (ym YearMonth) Previous() YearMonth {
	if ym.Month == time.January {
		return YearMonth{Year: ym.Year - 1, Month: time.December}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month - 1}
}

// Next returns the following calendar month.
func (ym YearMonth) Next() YearMonth {
	if ym.Month == time.December {
		return YearMonth{Year: ym.Year + 1, Month: time.January}
	}
	return YearMonth{Year: ym.Year, Month: ym.Month + 1}
}

// Start returns the first instant of the month (UTC, day granularity).
func (ym YearMonth) Start() time.Time {
	return time.Date(ym.Year, ym.Month, 1, 0, 0, 0, 0, time.UTC)
}

// NextStart returns the first instant of the following month.
// Month record queries use the half-open range [Start, NextStart).
func (ym YearMonth) NextStart() time.Time {
	return ym.Next().Start()
}

// Contains reports whether the date falls inside the month.
func (ym YearMonth) Contains(t time.Time) bool {
	return t.Year() == ym.Year && t.Month() == ym.Month
}

// IsZero reports whether the value is the zero YearMonth (no tag).
func (ym YearMonth) IsZero() bool {
	return ym.Year == 0 && ym.Month == 0
}

func (ym YearMonth) String() string {
	return fmt.Sprintf("%04d-%02d", ym.Year, int(ym.Month))
}
