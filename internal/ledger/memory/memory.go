package memory

import (
	"context"
	"fmt"
	"sync"

	"estratto/internal/core"
	"estratto/internal/ledger"
)

// Store is a mutex-guarded in-memory implementation of the ledger ports,
// used by tests and the "memory" backend.
type Store struct {
	mu        sync.Mutex
	accounts  []core.AccountConfig
	expenses  []core.Expense
	transfers []core.Transfer
}

var _ ledger.Store = (*Store)(nil)

func New(accounts []core.AccountConfig) *Store {
	return &Store{accounts: append([]core.AccountConfig(nil), accounts...)}
}

// Seed appends expenses without validation, for test setup.
func (s *Store) Seed(expenses ...core.Expense) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, expenses...)
}

func (s *Store) ListAccounts(_ context.Context) ([]core.AccountConfig, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.AccountConfig(nil), s.accounts...), nil
}

func (s *Store) ListExpenses(_ context.Context, accountID string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []core.Expense
	for _, e := range s.expenses {
		if e.AccountID == accountID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (s *Store) InsertExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses = append(s.expenses, e)
	return e, nil
}

func (s *Store) UpdateExpenseDate(_ context.Context, expenseID string, newDate core.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rewriteDates([]string{expenseID}, newDate)
}

func (s *Store) UpdateExpenseDatesBatch(_ context.Context, expenseIDs []string, newDate core.Date) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rewriteDates(expenseIDs, newDate)
}

// rewriteDates applies all rewrites or none: unknown ids fail the whole
// batch before anything is touched. Caller holds the lock.
func (s *Store) rewriteDates(expenseIDs []string, newDate core.Date) error {
	idx := make(map[string]int, len(expenseIDs))
	for _, id := range expenseIDs {
		found := false
		for i := range s.expenses {
			if s.expenses[i].ID == id {
				idx[id] = i
				found = true
				break
			}
		}
		if !found {
			return fmt.Errorf("expense %s not found", id)
		}
	}
	for _, i := range idx {
		s.expenses[i].Date = newDate
	}
	return nil
}

func (s *Store) PostTransfer(_ context.Context, t core.Transfer) error {
	if err := t.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.transfers = append(s.transfers, t)
	return nil
}

// Transfers returns a copy of the posted transfers, for test assertions.
func (s *Store) Transfers() []core.Transfer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transfer(nil), s.transfers...)
}

// Expenses returns a copy of all stored expenses, for test assertions.
func (s *Store) Expenses() []core.Expense {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Expense(nil), s.expenses...)
}
