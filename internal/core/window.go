package core

import (
	"fmt"
	"time"
)

// ServiceYearStart is the first month of a service year.
const ServiceYearStart = time.September

// Window is a closed range of ISO days.
type Window struct {
	Start string
	End   string
}

// Contains reports whether date lies within the window. Works on the ISO
// strings directly since they sort chronologically.
func (w Window) Contains(date string) bool {
	return date >= w.Start && date <= w.End
}

// MonthWindow returns the first and last day of month (1-12) in year.
// The last day is "day 0 of the next month" so leap years fall out of the
// calendar arithmetic.
func MonthWindow(year, month int) (start, end string, err error) {
	if month < 1 || month > 12 {
		return "", "", ErrInvalidMonth
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC)
	return FormatDate(first), FormatDate(last), nil
}

// ServiceYearWindow returns the September 1 - August 31 span containing ref.
// A reference in September or later starts the window in ref's own year.
func ServiceYearWindow(ref time.Time) (start, end string) {
	startYear := serviceStartYear(ref)
	first := time.Date(startYear, ServiceYearStart, 1, 0, 0, 0, 0, time.UTC)
	last := time.Date(startYear+1, ServiceYearStart, 0, 0, 0, 0, 0, time.UTC)
	return FormatDate(first), FormatDate(last)
}

// ServiceYearLabel renders the window containing ref as "2024/2025".
func ServiceYearLabel(ref time.Time) string {
	y := serviceStartYear(ref)
	return fmt.Sprintf("%d/%d", y, y+1)
}

func serviceStartYear(ref time.Time) int {
	if ref.Month() >= ServiceYearStart {
		return ref.Year()
	}
	return ref.Year() - 1
}

// ShiftMonth moves (year, month) by delta months, carrying across years.
func ShiftMonth(year, month, delta int) (int, int) {
	t := time.Date(year, time.Month(month)+time.Month(delta), 1, 0, 0, 0, 0, time.UTC)
	return t.Year(), int(t.Month())
}
