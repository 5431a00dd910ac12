package dateutil

import (
	"fmt"
	"time"
)

// DateLayout is the calendar-date layout used in configuration files and exports.
const DateLayout = "2006-01-02"

// ParseDate parses a YYYY-MM-DD calendar date in UTC.
func ParseDate(s string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q (want YYYY-MM-DD): %w", s, err)
	}
	return t, nil
}

// MustParseDate is ParseDate for package-level tables; it panics on bad input.
func MustParseDate(s string) time.Time {
	t, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

// IsLeapYear checks if a year is a leap year
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

// DaysInMonth returns the number of days in the given month.
func DaysInMonth(year int, month time.Month) int {
	// day 0 of the next month is the last day of this one
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// EndOfMonth returns midnight on the last calendar day of date's month.
func EndOfMonth(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month()+1, 0, 0, 0, 0, 0, date.Location())
}

// AddMonthsEndOfMonth moves date forward by months calendar months and returns
// the last day of the target month. Unlike time.AddDate it never spills into
// the following month when the source day does not exist in the target month.
func AddMonthsEndOfMonth(date time.Time, months int) time.Time {
	return time.Date(date.Year(), date.Month()+time.Month(months)+1, 0, 0, 0, 0, 0, date.Location())
}

// BeginningOfMonth returns midnight on the first day of date's month.
func BeginningOfMonth(date time.Time) time.Time {
	return time.Date(date.Year(), date.Month(), 1, 0, 0, 0, 0, date.Location())
}
