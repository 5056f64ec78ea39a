package statement

import (
	"sort"
	"time"

	"estratto/internal/core"

	"github.com/shopspring/decimal"
)

// State is the lifecycle tag of a statement relative to an observation
// date. Exactly one state holds for any statement and any date.
type State string

const (
	Past    State = "past"
	Current State = "current"
	Future  State = "future"
)

// Statement is the derived view of one billing period. Items holds every
// expense of the period sorted by date ascending; PrimaryItems and
// SecondaryItems partition the same set by settlement currency, preserving
// that order. Totals are sums of magnitudes, never net signed sums.
type Statement struct {
	Period         Period
	CloseDate      core.Date
	Items          []core.Expense
	PrimaryItems   []core.Expense
	SecondaryItems []core.Expense
	TotalPrimary   decimal.Decimal
	TotalSecondary decimal.Decimal
	HasTaxLine     bool
	State          State
}

// Build reconstructs the ordered statement list for one account. It is a
// pure function of its inputs: today is passed explicitly so callers and
// tests control the clock. Periods without expenses are never materialized,
// and an empty expense list yields an empty result.
func Build(expenses []core.Expense, account core.AccountConfig, today time.Time) []Statement {
	closingDay := account.NormalizedClosingDay()

	buckets := make(map[Period][]core.Expense)
	for _, e := range expenses {
		if e.AccountID != account.ID {
			continue
		}
		p := PeriodOf(e.Date, closingDay)
		buckets[p] = append(buckets[p], e)
	}
	if len(buckets) == 0 {
		return nil
	}

	out := make([]Statement, 0, len(buckets))
	for p, items := range buckets {
		out = append(out, buildOne(p, items, closingDay, today))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Period < out[j].Period
	})
	return out
}

func buildOne(p Period, items []core.Expense, closingDay int, today time.Time) Statement {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Date.Before(items[j].Date.Time)
	})

	st := Statement{
		Period:         p,
		CloseDate:      p.CloseDate(closingDay),
		Items:          items,
		TotalPrimary:   decimal.Zero,
		TotalSecondary: decimal.Zero,
	}
	for _, e := range items {
		if e.SecondaryDenominated() {
			st.SecondaryItems = append(st.SecondaryItems, e)
			st.TotalSecondary = st.TotalSecondary.Add(e.SecondaryAmount.Abs())
		} else {
			st.PrimaryItems = append(st.PrimaryItems, e)
			st.TotalPrimary = st.TotalPrimary.Add(e.PrimaryAmount.Abs())
		}
		if e.IsTaxLine() {
			st.HasTaxLine = true
		}
	}
	st.State = stateOf(st.CloseDate, today)
	return st
}

// stateOf classifies a close date against the observation date. The cycle
// closing within today's calendar month is Current even when its close day
// has already passed: the boundary is the cycle, not the instant.
func stateOf(closeDate core.Date, today time.Time) State {
	if closeDate.Year() == today.Year() && closeDate.Month() == int(today.Month()) {
		return Current
	}
	midnight := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if closeDate.Before(midnight) {
		return Past
	}
	return Future
}

// Find returns the statement with the given period key, if present.
func Find(statements []Statement, p Period) (Statement, bool) {
	for _, st := range statements {
		if st.Period == p {
			return st, true
		}
	}
	return Statement{}, false
}

// Adjacent resolves the statement immediately before or after the one with
// period p in an already-sorted statement list. ok is false when p is not
// present or the requested neighbour falls off either end.
func Adjacent(statements []Statement, p Period, next bool) (Statement, bool) {
	for i, st := range statements {
		if st.Period != p {
			continue
		}
		j := i - 1
		if next {
			j = i + 1
		}
		if j < 0 || j >= len(statements) {
			return Statement{}, false
		}
		return statements[j], true
	}
	return Statement{}, false
}
