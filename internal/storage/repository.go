package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"estratto/internal/core"
	"estratto/internal/ledger"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"
)

// SQLiteRepository implements every ledger port on a local SQLite file.
// Amounts are stored as decimal strings, dates as YYYY-MM-DD.
type SQLiteRepository struct {
	db *sql.DB
}

var _ ledger.Store = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) ListAccounts(ctx context.Context) ([]core.AccountConfig, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, closing_day, currency, secondary_currency
		 FROM accounts ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("query accounts: %w", err)
	}
	defer rows.Close()

	var out []core.AccountConfig
	for rows.Next() {
		var a core.AccountConfig
		if err := rows.Scan(&a.ID, &a.Name, &a.ClosingDay, &a.Currency, &a.SecondaryCurrency); err != nil {
			return nil, fmt.Errorf("scan account: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) UpsertAccount(ctx context.Context, a core.AccountConfig) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (id, name, closing_day, currency, secondary_currency)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   name = excluded.name,
		   closing_day = excluded.closing_day,
		   currency = excluded.currency,
		   secondary_currency = excluded.secondary_currency`,
		a.ID, a.Name, a.NormalizedClosingDay(), a.Currency, a.SecondaryCurrency)
	if err != nil {
		return fmt.Errorf("upsert account: %w", err)
	}
	return nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, accountID string) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, account_id, account_name, expense_date, primary_amount,
		        secondary_amount, category, installment_label, purchase_group, note
		 FROM expenses
		 WHERE account_id = ?
		 ORDER BY expense_date, id`, accountID)
	if err != nil {
		return nil, fmt.Errorf("query expenses: %w", err)
	}
	defer rows.Close()

	var out []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRepository) InsertExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO expenses (id, account_id, account_name, expense_date, primary_amount,
		                       secondary_amount, category, installment_label, purchase_group, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.AccountID, e.AccountName, e.Date.String(), e.PrimaryAmount.String(),
		e.SecondaryAmount.String(), e.Category, e.Installment, e.PurchaseGroup, e.Note)
	if err != nil {
		return core.Expense{}, fmt.Errorf("insert expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", e.ID,
		"account_id", e.AccountID,
		"date", e.Date.String(),
		"category", e.Category)

	return e, nil
}

func (r *SQLiteRepository) UpdateExpenseDate(ctx context.Context, expenseID string, newDate core.Date) error {
	return r.UpdateExpenseDatesBatch(ctx, []string{expenseID}, newDate)
}

// UpdateExpenseDatesBatch rewrites the dates of all given expenses inside
// one transaction: a partial rewrite would scatter items across statements,
// so either every row changes or none does.
func (r *SQLiteRepository) UpdateExpenseDatesBatch(ctx context.Context, expenseIDs []string, newDate core.Date) error {
	if len(expenseIDs) == 0 {
		return nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin batch update: %w", err)
	}
	defer tx.Rollback()

	args := make([]any, 0, len(expenseIDs)+1)
	args = append(args, newDate.String())
	for _, id := range expenseIDs {
		args = append(args, id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(expenseIDs)), ",")

	res, err := tx.ExecContext(ctx,
		`UPDATE expenses SET expense_date = ? WHERE id IN (`+placeholders+`)`, args...)
	if err != nil {
		return fmt.Errorf("batch update dates: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("batch update rows affected: %w", err)
	}
	if affected != int64(len(expenseIDs)) {
		return fmt.Errorf("batch update matched %d of %d expenses", affected, len(expenseIDs))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch update: %w", err)
	}

	slog.InfoContext(ctx, "Expense dates rewritten",
		"count", len(expenseIDs),
		"new_date", newDate.String())

	return nil
}

func (r *SQLiteRepository) PostTransfer(ctx context.Context, t core.Transfer) error {
	if err := t.Validate(); err != nil {
		return err
	}
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO transfers (id, from_account, to_account, amount, currency, transfer_date, note)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.ID, t.FromAccount, t.ToAccount, t.Amount.String(), t.Currency, t.Date.String(), t.Note)
	if err != nil {
		return fmt.Errorf("insert transfer: %w", err)
	}

	slog.InfoContext(ctx, "Transfer posted",
		"id", t.ID,
		"from_account", t.FromAccount,
		"to_account", t.ToAccount,
		"amount", t.Amount.String(),
		"currency", t.Currency)

	return nil
}

func scanExpense(rows *sql.Rows) (core.Expense, error) {
	var (
		e                  core.Expense
		date               string
		primary, secondary string
	)
	if err := rows.Scan(&e.ID, &e.AccountID, &e.AccountName, &date, &primary,
		&secondary, &e.Category, &e.Installment, &e.PurchaseGroup, &e.Note); err != nil {
		return core.Expense{}, fmt.Errorf("scan expense: %w", err)
	}

	parsed, err := core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("parse expense date %q: %w", date, err)
	}
	e.Date = parsed

	// Stored amounts went through ParseAmount on the way in, but rows
	// imported out-of-band get the same defensive treatment.
	e.PrimaryAmount = parseStoredAmount(primary)
	e.SecondaryAmount = parseStoredAmount(secondary)
	return e, nil
}

func parseStoredAmount(s string) decimal.Decimal {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return core.ParseAmount(s)
	}
	return d.Abs()
}
