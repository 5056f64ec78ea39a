package core

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// CategoryTax is the reserved category label that marks a statement-level
// stamp-duty line. Detection is case-insensitive on the trimmed label.
const CategoryTax = "Imposta di bollo"

type (
	Date struct {
		time.Time
	}

	// Expense is a single dated charge on a credit account. Amounts are
	// magnitudes, not signed values: PrimaryAmount is denominated in the
	// account currency, SecondaryAmount in the account's alternate currency.
	Expense struct {
		ID              string
		AccountID       string
		AccountName     string
		Date            Date
		PrimaryAmount   decimal.Decimal
		SecondaryAmount decimal.Decimal
		Category        string
		Installment     string // e.g. "3/12", empty when not part of a plan
		PurchaseGroup   string
		Note            string
	}

	// AccountConfig carries the billing configuration of a credit account.
	AccountConfig struct {
		ID                string
		Name              string
		ClosingDay        int // day-of-month ending a billing cycle, 1-31
		Currency          string
		SecondaryCurrency string
	}

	// Transfer is a balance movement between two accounts, used to settle a
	// statement. It never touches the expense list of either account.
	Transfer struct {
		ID          string
		FromAccount string
		ToAccount   string
		Amount      decimal.Decimal
		Currency    string
		Date        Date
		Note        string
	}
)

var (
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrEmptyAccount   = errors.New("empty account id")
	ErrEmptyExpenseID = errors.New("empty expense id")
	ErrZeroDate       = errors.New("date cannot be zero")
)

// NewDate creates a Date from year, month, day at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Day returns the day of the month.
func (d Date) Day() int {
	return d.Time.Day()
}

// Month returns the month as an int.
func (d Date) Month() int {
	return int(d.Time.Month())
}

// Year returns the year.
func (d Date) Year() int {
	return d.Time.Year()
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrZeroDate
	}
	return nil
}

// String formats the date at day granularity.
func (d Date) String() string {
	return d.Time.Format("2006-01-02")
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}

// SecondaryDenominated reports whether the expense is settled in the
// account's secondary currency. The rule is inherited from the source
// system: secondary iff a positive secondary amount and no primary amount.
// It lives here and nowhere else; do not re-derive it elsewhere.
func (e Expense) SecondaryDenominated() bool {
	return e.SecondaryAmount.IsPositive() && e.PrimaryAmount.IsZero()
}

// IsTaxLine reports whether the expense carries the reserved tax category.
func (e Expense) IsTaxLine() bool {
	return strings.EqualFold(strings.TrimSpace(e.Category), CategoryTax)
}

func (e Expense) Validate() error {
	if strings.TrimSpace(e.ID) == "" {
		return ErrEmptyExpenseID
	}
	if strings.TrimSpace(e.AccountID) == "" {
		return ErrEmptyAccount
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if e.PrimaryAmount.IsNegative() || e.SecondaryAmount.IsNegative() {
		return ErrInvalidAmount
	}
	if len(e.Note) > 500 {
		return errors.New("note too long (max 500 characters)")
	}
	return nil
}

// NormalizedClosingDay returns the account's closing day coerced into the
// valid [1,31] range. Anything outside defaults to 1, a full calendar-month
// cycle closing on the 1st.
func (a AccountConfig) NormalizedClosingDay() int {
	if a.ClosingDay < 1 || a.ClosingDay > 31 {
		return 1
	}
	return a.ClosingDay
}

func (t Transfer) Validate() error {
	if strings.TrimSpace(t.FromAccount) == "" || strings.TrimSpace(t.ToAccount) == "" {
		return ErrEmptyAccount
	}
	if !t.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return t.Date.Validate()
}
