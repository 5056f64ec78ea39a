// Package services orchestrates statement operations across the ledger
// store and AMQP. The service holds no derived state: every operation reads
// the current expense snapshot, and callers observe changes by rebuilding
// the statement projection afterwards.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"estratto/internal/amqp"
	"estratto/internal/core"
	"estratto/internal/ledger"
	"estratto/internal/statement"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Currency selects which side of a statement an operation targets.
type Currency string

const (
	CurrencyPrimary   Currency = "primary"
	CurrencySecondary Currency = "secondary"
)

// Direction selects the adjacent statement for a move.
type Direction string

const (
	DirectionPrevious Direction = "previous"
	DirectionNext     Direction = "next"
)

// Rejected preconditions. These are expected, checkable conditions, not
// failures: the store is never touched when one holds.
var (
	ErrUnknownAccount      = errors.New("unknown account")
	ErrUnknownStatement    = errors.New("unknown statement")
	ErrNothingToPay        = errors.New("statement total is zero for the selected currency")
	ErrNoAdjacentStatement = errors.New("no adjacent statement in that direction")
	ErrNotInStatement      = errors.New("expense does not belong to the statement")
	ErrEmptySelection      = errors.New("no expenses selected")
	ErrInvalidCurrency     = errors.New("invalid currency selector")
	ErrInvalidDirection    = errors.New("invalid move direction")
)

// ErrPersistence marks storage collaborator failures. The original error is
// kept in the chain; the service performs no retry and no local rollback.
var ErrPersistence = errors.New("persistence failed")

// MoveResult reports which expenses a move touched.
type MoveResult struct {
	Target     statement.Period
	NewDate    core.Date
	Moved      []string
	Propagated []string
}

// StatementService implements the statement mutations. Operations against
// the same account are serialized through a per-account mutex: two
// concurrent moves could otherwise both act on a stale adjacent-statement
// index.
type StatementService struct {
	store      ledger.Store
	amqpClient *amqp.Client

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewStatementService(store ledger.Store, amqpClient *amqp.Client) *StatementService {
	return &StatementService{
		store:      store,
		amqpClient: amqpClient,
		locks:      make(map[string]*sync.Mutex),
	}
}

func (s *StatementService) accountLock(accountID string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[accountID]
	if !ok {
		l = &sync.Mutex{}
		s.locks[accountID] = l
	}
	return l
}

// Account resolves an account configuration by id.
func (s *StatementService) Account(ctx context.Context, accountID string) (core.AccountConfig, error) {
	accounts, err := s.store.ListAccounts(ctx)
	if err != nil {
		return core.AccountConfig{}, fmt.Errorf("list accounts: %w", err)
	}
	for _, a := range accounts {
		if a.ID == accountID {
			return a, nil
		}
	}
	return core.AccountConfig{}, fmt.Errorf("%w: %s", ErrUnknownAccount, accountID)
}

// Accounts lists every account configuration.
func (s *StatementService) Accounts(ctx context.Context) ([]core.AccountConfig, error) {
	return s.store.ListAccounts(ctx)
}

// Statements rebuilds the statement projection for an account from the
// current expense snapshot.
func (s *StatementService) Statements(ctx context.Context, accountID string, today time.Time) ([]statement.Statement, core.AccountConfig, error) {
	account, err := s.Account(ctx, accountID)
	if err != nil {
		return nil, core.AccountConfig{}, err
	}
	expenses, err := s.store.ListExpenses(ctx, accountID)
	if err != nil {
		return nil, core.AccountConfig{}, fmt.Errorf("list expenses: %w", err)
	}
	return statement.Build(expenses, account, today), account, nil
}

// AddTaxLine synthesizes a stamp-duty expense dated at the statement's
// close date and persists it. A statement that already carries a tax line
// is not an error here: the new line is just another primary expense and
// the next rebuild folds it in.
func (s *StatementService) AddTaxLine(ctx context.Context, accountID string, period statement.Period, amount decimal.Decimal, note string, today time.Time) (core.Expense, error) {
	if !amount.IsPositive() {
		return core.Expense{}, core.ErrInvalidAmount
	}

	lock := s.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	statements, account, err := s.Statements(ctx, accountID, today)
	if err != nil {
		return core.Expense{}, err
	}
	st, ok := statement.Find(statements, period)
	if !ok {
		return core.Expense{}, fmt.Errorf("%w: %s", ErrUnknownStatement, period)
	}

	line := core.Expense{
		ID:            uuid.NewString(),
		AccountID:     account.ID,
		AccountName:   account.Name,
		Date:          st.CloseDate,
		PrimaryAmount: amount,
		Category:      core.CategoryTax,
		Note:          note,
	}
	stored, err := s.store.InsertExpense(ctx, line)
	if err != nil {
		return core.Expense{}, fmt.Errorf("%w: insert tax line: %w", ErrPersistence, err)
	}

	slog.InfoContext(ctx, "Tax line added",
		"account_id", account.ID,
		"period", string(period),
		"amount", amount.String(),
		"expense_id", stored.ID)

	msg := amqp.NewStatementEvent(amqp.EventTaxAdded, account.ID, string(period))
	msg.Currency = account.Currency
	msg.Amount = amount.String()
	msg.ExpenseIDs = []string{stored.ID}
	s.publish(ctx, msg)

	return stored, nil
}

// PayStatement settles one currency side of a statement by posting a
// transfer from the settlement account into the card account, dated today
// and annotated with the period. The statement's expense list is untouched.
func (s *StatementService) PayStatement(ctx context.Context, accountID string, period statement.Period, currency Currency, fromAccountID string, today time.Time) (core.Transfer, error) {
	if currency != CurrencyPrimary && currency != CurrencySecondary {
		return core.Transfer{}, fmt.Errorf("%w: %q", ErrInvalidCurrency, currency)
	}

	lock := s.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	statements, account, err := s.Statements(ctx, accountID, today)
	if err != nil {
		return core.Transfer{}, err
	}
	st, ok := statement.Find(statements, period)
	if !ok {
		return core.Transfer{}, fmt.Errorf("%w: %s", ErrUnknownStatement, period)
	}

	total := st.TotalPrimary
	code := account.Currency
	if currency == CurrencySecondary {
		total = st.TotalSecondary
		code = account.SecondaryCurrency
	}
	if !total.IsPositive() {
		return core.Transfer{}, fmt.Errorf("%w: %s %s", ErrNothingToPay, period, currency)
	}

	transfer := core.Transfer{
		ID:          uuid.NewString(),
		FromAccount: fromAccountID,
		ToAccount:   account.ID,
		Amount:      total,
		Currency:    code,
		Date:        core.NewDate(today.Year(), int(today.Month()), today.Day()),
		Note:        fmt.Sprintf("Estratto %s %s", account.Name, period),
	}
	if err := s.store.PostTransfer(ctx, transfer); err != nil {
		return core.Transfer{}, fmt.Errorf("%w: post transfer: %w", ErrPersistence, err)
	}

	slog.InfoContext(ctx, "Statement paid",
		"account_id", account.ID,
		"period", string(period),
		"currency", string(currency),
		"amount", total.String(),
		"from_account", fromAccountID)

	msg := amqp.NewStatementEvent(amqp.EventStatementPaid, account.ID, string(period))
	msg.Currency = code
	msg.Amount = total.String()
	msg.Detail = "from " + fromAccountID
	s.publish(ctx, msg)

	return transfer, nil
}

// MoveItems rewrites the dates of the selected expenses so they classify
// into the adjacent statement. The selected set is rewritten with a single
// batch call. With propagate set, every later installment of a moved
// purchase group is shifted by one period as well, selected by group id and
// sequence number, never by date.
func (s *StatementService) MoveItems(ctx context.Context, accountID string, period statement.Period, expenseIDs []string, dir Direction, propagate bool, today time.Time) (MoveResult, error) {
	if dir != DirectionPrevious && dir != DirectionNext {
		return MoveResult{}, fmt.Errorf("%w: %q", ErrInvalidDirection, dir)
	}
	if len(expenseIDs) == 0 {
		return MoveResult{}, ErrEmptySelection
	}

	lock := s.accountLock(accountID)
	lock.Lock()
	defer lock.Unlock()

	statements, account, err := s.Statements(ctx, accountID, today)
	if err != nil {
		return MoveResult{}, err
	}
	st, ok := statement.Find(statements, period)
	if !ok {
		return MoveResult{}, fmt.Errorf("%w: %s", ErrUnknownStatement, period)
	}

	selected := make(map[string]core.Expense, len(expenseIDs))
	for _, id := range expenseIDs {
		found := false
		for _, e := range st.Items {
			if e.ID == id {
				selected[id] = e
				found = true
				break
			}
		}
		if !found {
			return MoveResult{}, fmt.Errorf("%w: %s not in %s", ErrNotInStatement, id, period)
		}
	}

	adj, ok := statement.Adjacent(statements, period, dir == DirectionNext)
	if !ok {
		return MoveResult{}, fmt.Errorf("%w: %s %s", ErrNoAdjacentStatement, period, dir)
	}

	closingDay := account.NormalizedClosingDay()
	newDate := adj.Period.RepresentativeDate(closingDay)
	if err := s.store.UpdateExpenseDatesBatch(ctx, expenseIDs, newDate); err != nil {
		return MoveResult{}, fmt.Errorf("%w: rewrite dates: %w", ErrPersistence, err)
	}

	result := MoveResult{
		Target:  adj.Period,
		NewDate: newDate,
		Moved:   append([]string(nil), expenseIDs...),
	}

	if propagate {
		delta := 1
		if dir == DirectionPrevious {
			delta = -1
		}
		propagated, err := s.propagateInstallments(ctx, accountID, selected, closingDay, delta)
		if err != nil {
			return result, err
		}
		result.Propagated = propagated
	}

	slog.InfoContext(ctx, "Statement items moved",
		"account_id", account.ID,
		"from_period", string(period),
		"to_period", string(adj.Period),
		"moved", len(result.Moved),
		"propagated", len(result.Propagated))

	msg := amqp.NewStatementEvent(amqp.EventItemsMoved, account.ID, string(period))
	msg.Detail = "to " + string(adj.Period)
	msg.ExpenseIDs = append(result.Moved, result.Propagated...)
	s.publish(ctx, msg)

	return result, nil
}

// propagateInstallments shifts every installment that comes after a moved
// one in its purchase group by delta periods. Later installments usually
// live in different periods, so rewrites are batched per target date.
func (s *StatementService) propagateInstallments(ctx context.Context, accountID string, moved map[string]core.Expense, closingDay, delta int) ([]string, error) {
	groups := make(map[string]int) // purchase group -> lowest moved sequence
	for _, e := range moved {
		if e.PurchaseGroup == "" {
			continue
		}
		seq, _, ok := core.ParseInstallment(e.Installment)
		if !ok {
			continue
		}
		if cur, seen := groups[e.PurchaseGroup]; !seen || seq < cur {
			groups[e.PurchaseGroup] = seq
		}
	}
	if len(groups) == 0 {
		return nil, nil
	}

	expenses, err := s.store.ListExpenses(ctx, accountID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}

	byDate := make(map[core.Date][]string)
	var propagated []string
	for _, e := range expenses {
		minSeq, ok := groups[e.PurchaseGroup]
		if !ok {
			continue
		}
		if _, isMoved := moved[e.ID]; isMoved {
			continue
		}
		seq, _, ok := core.ParseInstallment(e.Installment)
		if !ok || seq <= minSeq {
			continue
		}
		target := statement.PeriodOf(e.Date, closingDay).AddMonths(delta)
		d := target.RepresentativeDate(closingDay)
		byDate[d] = append(byDate[d], e.ID)
		propagated = append(propagated, e.ID)
	}

	for d, ids := range byDate {
		if err := s.store.UpdateExpenseDatesBatch(ctx, ids, d); err != nil {
			return propagated, fmt.Errorf("%w: propagate installments: %w", ErrPersistence, err)
		}
	}
	return propagated, nil
}

// publish sends a statement event; failures are logged and swallowed, the
// mutation already succeeded.
func (s *StatementService) publish(ctx context.Context, msg *amqp.StatementEventMessage) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishStatementEvent(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish statement event",
			"kind", msg.Kind,
			"account_id", msg.AccountID,
			"period", msg.Period,
			"error", err)
	}
}
