package ledger

import (
	"context"

	"estratto/internal/core"
)

// Ports for the outbound collaborators. The statement engine owns no wire
// protocol or file format; it reads and writes through these interfaces and
// recomputes its projection after every mutation.
type (
	ExpenseLister interface {
		// ListExpenses returns every expense of the given account.
		ListExpenses(ctx context.Context, accountID string) ([]core.Expense, error)
	}

	ExpenseWriter interface {
		// InsertExpense persists a new expense and returns it as stored.
		InsertExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	}

	// ExpenseRescheduler rewrites expense dates. UpdateExpenseDatesBatch
	// must apply all rewrites or none; a half-applied batch would leave
	// items scattered across statements.
	ExpenseRescheduler interface {
		UpdateExpenseDate(ctx context.Context, expenseID string, newDate core.Date) error
		UpdateExpenseDatesBatch(ctx context.Context, expenseIDs []string, newDate core.Date) error
	}

	AccountLister interface {
		ListAccounts(ctx context.Context) ([]core.AccountConfig, error)
	}

	// TransferPoster settles a statement by moving its total between
	// accounts. It affects balances only, never an expense list.
	TransferPoster interface {
		PostTransfer(ctx context.Context, t core.Transfer) error
	}

	// ActivityMirror appends statement activity rows to an out-of-app
	// mirror (a spreadsheet in production). Used by the worker only.
	ActivityMirror interface {
		AppendActivity(ctx context.Context, row ActivityRow) (ref string, err error)
	}
)

// Store bundles every port a backend must provide.
type Store interface {
	ExpenseLister
	ExpenseWriter
	ExpenseRescheduler
	AccountLister
	TransferPoster
}

// ActivityRow is one mirrored statement event.
type ActivityRow struct {
	Date      string
	AccountID string
	Period    string
	Kind      string
	Currency  string
	Amount    string
	Detail    string
}
