package memory

import (
	"context"
	"errors"
	"testing"

	"estratto/internal/core"

	"github.com/shopspring/decimal"
)

func seeded() *Store {
	s := New([]core.AccountConfig{{ID: "carta", Name: "Carta", ClosingDay: 15, Currency: "EUR"}})
	s.Seed(
		core.Expense{ID: "a", AccountID: "carta", Date: core.NewDate(2025, 3, 5), PrimaryAmount: decimal.NewFromInt(10)},
		core.Expense{ID: "b", AccountID: "carta", Date: core.NewDate(2025, 3, 6), PrimaryAmount: decimal.NewFromInt(20)},
		core.Expense{ID: "x", AccountID: "altro", Date: core.NewDate(2025, 3, 7), PrimaryAmount: decimal.NewFromInt(30)},
	)
	return s
}

func TestListExpensesFiltersByAccount(t *testing.T) {
	s := seeded()
	got, err := s.ListExpenses(context.Background(), "carta")
	if err != nil {
		t.Fatalf("ListExpenses: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d expenses, want 2", len(got))
	}
	for _, e := range got {
		if e.AccountID != "carta" {
			t.Errorf("leaked expense %s of account %s", e.ID, e.AccountID)
		}
	}
}

func TestInsertExpenseValidates(t *testing.T) {
	s := seeded()
	_, err := s.InsertExpense(context.Background(), core.Expense{ID: "", AccountID: "carta", Date: core.NewDate(2025, 3, 8)})
	if !errors.Is(err, core.ErrEmptyExpenseID) {
		t.Fatalf("got %v, want ErrEmptyExpenseID", err)
	}
	if len(s.Expenses()) != 3 {
		t.Error("invalid expense must not be stored")
	}
}

func TestUpdateExpenseDatesBatchAllOrNothing(t *testing.T) {
	s := seeded()
	newDate := core.NewDate(2025, 4, 14)

	err := s.UpdateExpenseDatesBatch(context.Background(), []string{"a", "missing"}, newDate)
	if err == nil {
		t.Fatal("expected error for unknown id in batch")
	}

	// The known id must be untouched after the failed batch.
	for _, e := range s.Expenses() {
		if e.ID == "a" && e.Date.String() != "2025-03-05" {
			t.Errorf("date of a rewritten to %s despite failed batch", e.Date)
		}
	}

	if err := s.UpdateExpenseDatesBatch(context.Background(), []string{"a", "b"}, newDate); err != nil {
		t.Fatalf("valid batch failed: %v", err)
	}
	for _, e := range s.Expenses() {
		if (e.ID == "a" || e.ID == "b") && e.Date.String() != "2025-04-14" {
			t.Errorf("date of %s = %s, want 2025-04-14", e.ID, e.Date)
		}
	}
}

func TestPostTransferValidates(t *testing.T) {
	s := seeded()
	err := s.PostTransfer(context.Background(), core.Transfer{
		FromAccount: "conto",
		ToAccount:   "carta",
		Amount:      decimal.NewFromInt(0),
		Date:        core.NewDate(2025, 3, 20),
	})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("got %v, want ErrInvalidAmount", err)
	}
	if len(s.Transfers()) != 0 {
		t.Error("invalid transfer must not be stored")
	}
}
