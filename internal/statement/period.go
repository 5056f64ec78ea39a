// Package statement reconstructs credit-card billing statements from a raw
// expense list and an account's closing day. It is a pure projection: a
// Statement has no identity or persistence and is recomputed from scratch
// whenever the underlying expenses or account configuration change.
package statement

import (
	"fmt"
	"time"

	"estratto/internal/core"
)

// Period identifies a billing statement, formatted "YYYY-MM". The string
// form sorts chronologically.
type Period string

// PeriodOf maps an expense date to the billing period it belongs to. A
// cycle that closes on day D > 1 collects charges up to and including D-1
// of the current month; charges on or after D roll into the cycle that
// closes next month, with December rolling the year forward. Closing day 1
// means plain calendar-month cycles: every charge stays in its own month.
// A closing day outside [1,31] is treated as 1.
func PeriodOf(date core.Date, closingDay int) Period {
	if closingDay < 1 || closingDay > 31 {
		closingDay = 1
	}
	year, month := date.Year(), date.Month()
	if closingDay > 1 && date.Day() >= closingDay {
		month++
		if month > 12 {
			month = 1
			year++
		}
	}
	return Period(fmt.Sprintf("%04d-%02d", year, month))
}

// Year returns the period's year, or 0 for a malformed key.
func (p Period) Year() int {
	y, _ := p.parts()
	return y
}

// Month returns the period's month, or 0 for a malformed key.
func (p Period) Month() int {
	_, m := p.parts()
	return m
}

func (p Period) parts() (year, month int) {
	if _, err := fmt.Sscanf(string(p), "%04d-%02d", &year, &month); err != nil {
		return 0, 0
	}
	return year, month
}

// AddMonths returns the period n months later (or earlier for negative n).
func (p Period) AddMonths(n int) Period {
	year, month := p.parts()
	t := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC).AddDate(0, n, 0)
	return Period(fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month())))
}

// CloseDate returns the concrete calendar date the statement closes: the
// account's closing day in the period's month, clamped to the last valid
// day of that month.
func (p Period) CloseDate(closingDay int) core.Date {
	if closingDay < 1 || closingDay > 31 {
		closingDay = 1
	}
	year, month := p.parts()
	day := closingDay
	if last := lastDayOfMonth(year, month); day > last {
		day = last
	}
	return core.NewDate(year, month, day)
}

// RepresentativeDate returns a date guaranteed to classify into p under the
// given closing day, regardless of month length. For closing day D > 1 that
// is min(15, D-1) of the period's month; for D = 1 any day of the month
// works, so the 15th is used.
func (p Period) RepresentativeDate(closingDay int) core.Date {
	if closingDay < 1 || closingDay > 31 {
		closingDay = 1
	}
	day := 15
	if closingDay > 1 && closingDay-1 < day {
		day = closingDay - 1
	}
	return core.NewDate(p.Year(), p.Month(), day)
}

func lastDayOfMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
