package statement

import (
	"reflect"
	"testing"
	"time"

	"estratto/internal/core"

	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func day(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
}

var testAccount = core.AccountConfig{
	ID:                "carta",
	Name:              "Carta di credito",
	ClosingDay:        15,
	Currency:          "EUR",
	SecondaryCurrency: "USD",
}

func TestBuildSplitsAroundClosingDay(t *testing.T) {
	expenses := []core.Expense{
		{ID: "a", AccountID: "carta", Date: core.NewDate(2025, 1, 10), PrimaryAmount: dec("1000")},
		{ID: "b", AccountID: "carta", Date: core.NewDate(2025, 1, 20), PrimaryAmount: dec("500")},
	}

	statements := Build(expenses, testAccount, day(2025, 1, 12))
	if len(statements) != 2 {
		t.Fatalf("got %d statements, want 2", len(statements))
	}

	jan := statements[0]
	if jan.Period != "2025-01" || len(jan.Items) != 1 || jan.Items[0].ID != "a" {
		t.Errorf("first statement = %s with %d items, want 2025-01 with item a", jan.Period, len(jan.Items))
	}
	if jan.TotalPrimary.String() != "1000" {
		t.Errorf("2025-01 total = %s, want 1000", jan.TotalPrimary)
	}

	feb := statements[1]
	if feb.Period != "2025-02" || len(feb.Items) != 1 || feb.Items[0].ID != "b" {
		t.Errorf("second statement = %s with %d items, want 2025-02 with item b", feb.Period, len(feb.Items))
	}
	if feb.TotalPrimary.String() != "500" {
		t.Errorf("2025-02 total = %s, want 500", feb.TotalPrimary)
	}
}

func TestBuildSecondaryCurrencyPartition(t *testing.T) {
	account := core.AccountConfig{ID: "carta", ClosingDay: 1, Currency: "EUR", SecondaryCurrency: "USD"}
	expenses := []core.Expense{
		{ID: "s1", AccountID: "carta", Date: core.NewDate(2025, 3, 5), SecondaryAmount: dec("50")},
	}

	statements := Build(expenses, account, day(2025, 3, 10))
	if len(statements) != 1 {
		t.Fatalf("got %d statements, want 1", len(statements))
	}

	st := statements[0]
	if st.Period != "2025-03" {
		t.Errorf("period = %s, want 2025-03", st.Period)
	}
	if st.TotalSecondary.String() != "50" || !st.TotalPrimary.IsZero() {
		t.Errorf("totals = %s/%s, want 0/50", st.TotalPrimary, st.TotalSecondary)
	}
	if len(st.SecondaryItems) != 1 || len(st.PrimaryItems) != 0 {
		t.Errorf("partition = %d primary, %d secondary, want 0/1",
			len(st.PrimaryItems), len(st.SecondaryItems))
	}
}

func TestBuildBothAmountsStayPrimary(t *testing.T) {
	expenses := []core.Expense{
		{ID: "x", AccountID: "carta", Date: core.NewDate(2025, 3, 5),
			PrimaryAmount: dec("45.20"), SecondaryAmount: dec("50")},
	}

	statements := Build(expenses, testAccount, day(2025, 3, 10))
	st := statements[0]
	if len(st.PrimaryItems) != 1 || len(st.SecondaryItems) != 0 {
		t.Fatalf("expense with both amounts must classify as primary")
	}
	if st.TotalPrimary.String() != "45.2" {
		t.Errorf("total primary = %s, want 45.2", st.TotalPrimary)
	}
}

func TestBuildEmptyAndForeignExpenses(t *testing.T) {
	if got := Build(nil, testAccount, day(2025, 3, 10)); got != nil {
		t.Errorf("Build(nil) = %v, want nil", got)
	}

	foreign := []core.Expense{
		{ID: "o", AccountID: "altro", Date: core.NewDate(2025, 3, 5), PrimaryAmount: dec("10")},
	}
	if got := Build(foreign, testAccount, day(2025, 3, 10)); got != nil {
		t.Errorf("expenses of other accounts must not materialize statements, got %v", got)
	}
}

func TestBuildEveryExpenseInExactlyOneStatement(t *testing.T) {
	expenses := []core.Expense{
		{ID: "a", AccountID: "carta", Date: core.NewDate(2025, 1, 3), PrimaryAmount: dec("10")},
		{ID: "b", AccountID: "carta", Date: core.NewDate(2025, 1, 20), PrimaryAmount: dec("20")},
		{ID: "c", AccountID: "carta", Date: core.NewDate(2025, 2, 14), PrimaryAmount: dec("30")},
		{ID: "d", AccountID: "carta", Date: core.NewDate(2025, 2, 15), SecondaryAmount: dec("40")},
		{ID: "e", AccountID: "carta", Date: core.NewDate(2025, 12, 28), PrimaryAmount: dec("50")},
	}

	statements := Build(expenses, testAccount, day(2025, 2, 1))

	seen := make(map[string]int)
	for _, st := range statements {
		for _, e := range st.Items {
			seen[e.ID]++
		}
		// The currency partitions together are exactly the item list.
		if len(st.PrimaryItems)+len(st.SecondaryItems) != len(st.Items) {
			t.Errorf("statement %s: partition sizes %d+%d != %d items",
				st.Period, len(st.PrimaryItems), len(st.SecondaryItems), len(st.Items))
		}
	}
	for _, e := range expenses {
		if seen[e.ID] != 1 {
			t.Errorf("expense %s appears in %d statements, want 1", e.ID, seen[e.ID])
		}
	}
}

func TestBuildItemsSortedByDate(t *testing.T) {
	expenses := []core.Expense{
		{ID: "late", AccountID: "carta", Date: core.NewDate(2025, 1, 12), PrimaryAmount: dec("1")},
		{ID: "early", AccountID: "carta", Date: core.NewDate(2025, 1, 2), PrimaryAmount: dec("1")},
		{ID: "mid", AccountID: "carta", Date: core.NewDate(2025, 1, 7), PrimaryAmount: dec("1")},
	}

	statements := Build(expenses, testAccount, day(2025, 1, 20))
	st := statements[0]
	want := []string{"early", "mid", "late"}
	for i, e := range st.Items {
		if e.ID != want[i] {
			t.Fatalf("items order = %v, want %v", ids(st.Items), want)
		}
	}
}

func ids(items []core.Expense) []string {
	out := make([]string, len(items))
	for i, e := range items {
		out[i] = e.ID
	}
	return out
}

func TestBuildLifecycle(t *testing.T) {
	today := day(2025, 3, 20)
	expenses := []core.Expense{
		{ID: "p", AccountID: "carta", Date: core.NewDate(2025, 1, 3), PrimaryAmount: dec("1")},
		{ID: "c1", AccountID: "carta", Date: core.NewDate(2025, 3, 10), PrimaryAmount: dec("1")},
		{ID: "f", AccountID: "carta", Date: core.NewDate(2025, 3, 20), PrimaryAmount: dec("1")},
	}

	statements := Build(expenses, testAccount, today)
	if len(statements) != 3 {
		t.Fatalf("got %d statements, want 3", len(statements))
	}

	wantStates := map[Period]State{
		"2025-01": Past,
		"2025-03": Current, // closes Mar 15, already past, still the current cycle
		"2025-04": Future,
	}
	for _, st := range statements {
		want, ok := wantStates[st.Period]
		if !ok {
			t.Fatalf("unexpected period %s", st.Period)
		}
		if st.State != want {
			t.Errorf("state of %s = %s, want %s", st.Period, st.State, want)
		}
	}
}

func TestBuildTaxLineDetection(t *testing.T) {
	expenses := []core.Expense{
		{ID: "a", AccountID: "carta", Date: core.NewDate(2025, 3, 5), PrimaryAmount: dec("10")},
		{ID: "tax", AccountID: "carta", Date: core.NewDate(2025, 3, 15),
			PrimaryAmount: dec("2"), Category: core.CategoryTax},
	}

	statements := Build(expenses, testAccount, day(2025, 3, 10))
	for _, st := range statements {
		switch st.Period {
		case "2025-04":
			if !st.HasTaxLine {
				t.Error("statement with tax line not flagged")
			}
		default:
			if st.HasTaxLine {
				t.Errorf("statement %s flagged without tax line", st.Period)
			}
		}
	}
}

func TestBuildDeterministic(t *testing.T) {
	expenses := []core.Expense{
		{ID: "a", AccountID: "carta", Date: core.NewDate(2025, 1, 3), PrimaryAmount: dec("10")},
		{ID: "b", AccountID: "carta", Date: core.NewDate(2025, 2, 20), SecondaryAmount: dec("20")},
		{ID: "c", AccountID: "carta", Date: core.NewDate(2025, 3, 14), PrimaryAmount: dec("30")},
	}
	today := day(2025, 2, 1)

	first := Build(expenses, testAccount, today)
	second := Build(expenses, testAccount, today)
	if !reflect.DeepEqual(first, second) {
		t.Error("repeated Build calls with identical inputs differ")
	}
}

func TestFindAndAdjacent(t *testing.T) {
	expenses := []core.Expense{
		{ID: "a", AccountID: "carta", Date: core.NewDate(2025, 1, 3), PrimaryAmount: dec("1")},
		{ID: "b", AccountID: "carta", Date: core.NewDate(2025, 2, 3), PrimaryAmount: dec("1")},
		{ID: "c", AccountID: "carta", Date: core.NewDate(2025, 3, 3), PrimaryAmount: dec("1")},
	}
	statements := Build(expenses, testAccount, day(2025, 2, 1))

	if _, ok := Find(statements, "2025-02"); !ok {
		t.Error("Find missed an existing period")
	}
	if _, ok := Find(statements, "2024-01"); ok {
		t.Error("Find returned a missing period")
	}

	next, ok := Adjacent(statements, "2025-02", true)
	if !ok || next.Period != "2025-03" {
		t.Errorf("Adjacent next of 2025-02 = %v (%v), want 2025-03", next.Period, ok)
	}
	prev, ok := Adjacent(statements, "2025-02", false)
	if !ok || prev.Period != "2025-01" {
		t.Errorf("Adjacent previous of 2025-02 = %v (%v), want 2025-01", prev.Period, ok)
	}
	if _, ok := Adjacent(statements, "2025-03", true); ok {
		t.Error("Adjacent next of the last statement must fail")
	}
	if _, ok := Adjacent(statements, "2025-01", false); ok {
		t.Error("Adjacent previous of the first statement must fail")
	}
}
