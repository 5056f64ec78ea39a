package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"estratto/internal/core"
	"estratto/internal/services"
	"estratto/internal/statement"

	"github.com/shopspring/decimal"
)

type accountJSON struct {
	ID                string `json:"id"`
	Name              string `json:"name"`
	ClosingDay        int    `json:"closing_day"`
	Currency          string `json:"currency"`
	SecondaryCurrency string `json:"secondary_currency,omitempty"`
}

type expenseJSON struct {
	ID              string `json:"id"`
	Date            string `json:"date"`
	PrimaryAmount   string `json:"primary_amount"`
	SecondaryAmount string `json:"secondary_amount,omitempty"`
	Category        string `json:"category,omitempty"`
	Installment     string `json:"installment,omitempty"`
	PurchaseGroup   string `json:"purchase_group,omitempty"`
	Note            string `json:"note,omitempty"`
}

type statementJSON struct {
	Period         string        `json:"period"`
	CloseDate      string        `json:"close_date"`
	State          string        `json:"state"`
	TotalPrimary   string        `json:"total_primary"`
	TotalSecondary string        `json:"total_secondary"`
	HasTaxLine     bool          `json:"has_tax_line"`
	Items          []expenseJSON `json:"items"`
}

func toAccountJSON(a core.AccountConfig) accountJSON {
	return accountJSON{
		ID:                a.ID,
		Name:              a.Name,
		ClosingDay:        a.NormalizedClosingDay(),
		Currency:          a.Currency,
		SecondaryCurrency: a.SecondaryCurrency,
	}
}

func toExpenseJSON(e core.Expense) expenseJSON {
	out := expenseJSON{
		ID:            e.ID,
		Date:          e.Date.String(),
		PrimaryAmount: e.PrimaryAmount.String(),
		Category:      e.Category,
		Installment:   e.Installment,
		PurchaseGroup: e.PurchaseGroup,
		Note:          e.Note,
	}
	if e.SecondaryAmount.IsPositive() {
		out.SecondaryAmount = e.SecondaryAmount.String()
	}
	return out
}

func toStatementJSON(st statement.Statement) statementJSON {
	out := statementJSON{
		Period:         string(st.Period),
		CloseDate:      st.CloseDate.String(),
		State:          string(st.State),
		TotalPrimary:   st.TotalPrimary.String(),
		TotalSecondary: st.TotalSecondary.String(),
		HasTaxLine:     st.HasTaxLine,
		Items:          make([]expenseJSON, 0, len(st.Items)),
	}
	for _, e := range st.Items {
		out.Items = append(out.Items, toExpenseJSON(e))
	}
	return out
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError maps service errors onto HTTP statuses: rejected
// preconditions are 422, unknown targets 404, storage failures 502.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, services.ErrUnknownAccount),
		errors.Is(err, services.ErrUnknownStatement):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrNothingToPay),
		errors.Is(err, services.ErrNoAdjacentStatement),
		errors.Is(err, services.ErrNotInStatement),
		errors.Is(err, services.ErrEmptySelection),
		errors.Is(err, services.ErrInvalidCurrency),
		errors.Is(err, services.ErrInvalidDirection),
		errors.Is(err, core.ErrInvalidAmount):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.Is(err, services.ErrPersistence):
		slog.ErrorContext(r.Context(), "Persistence failure", "error", err, "url", r.URL.Path)
		respondError(w, http.StatusBadGateway, "persistence failed")
	default:
		slog.ErrorContext(r.Context(), "Unhandled service error", "error", err, "url", r.URL.Path)
		respondError(w, http.StatusInternalServerError, "internal error")
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	accounts, err := s.svc.Accounts(r.Context())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	out := make([]accountJSON, 0, len(accounts))
	for _, a := range accounts {
		out = append(out, toAccountJSON(a))
	}
	respondJSON(w, http.StatusOK, map[string]any{"accounts": out})
}

func (s *Server) handleListStatements(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")

	statements, account, err := s.svc.Statements(r.Context(), accountID, s.now())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	out := make([]statementJSON, 0, len(statements))
	for _, st := range statements {
		out = append(out, toStatementJSON(st))
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"account":    toAccountJSON(account),
		"statements": out,
	})
}

func (s *Server) handleAddTaxLine(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")
	period := statement.Period(r.PathValue("period"))

	var req struct {
		Amount string `json:"amount"`
		Note   string `json:"note"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, "invalid amount: "+req.Amount)
		return
	}

	// The engine treats a second tax line as an ordinary expense; the API
	// rejects it so a double-submitted form cannot duplicate the stamp duty.
	statements, _, err := s.svc.Statements(r.Context(), accountID, s.now())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	if st, ok := statement.Find(statements, period); ok && st.HasTaxLine {
		respondError(w, http.StatusConflict, "statement already has a tax line")
		return
	}

	line, err := s.svc.AddTaxLine(r.Context(), accountID, period, amount, req.Note, s.now())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{"tax_line": toExpenseJSON(line)})
}

func (s *Server) handlePayStatement(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")
	period := statement.Period(r.PathValue("period"))

	var req struct {
		Currency    string `json:"currency"`
		FromAccount string `json:"from_account"`
	}
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Currency == "" {
		req.Currency = string(services.CurrencyPrimary)
	}

	transfer, err := s.svc.PayStatement(r.Context(), accountID, period,
		services.Currency(req.Currency), req.FromAccount, s.now())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]any{
		"transfer": map[string]string{
			"id":           transfer.ID,
			"from_account": transfer.FromAccount,
			"to_account":   transfer.ToAccount,
			"amount":       transfer.Amount.String(),
			"currency":     transfer.Currency,
			"date":         transfer.Date.String(),
			"note":         transfer.Note,
		},
	})
}

func (s *Server) handleMoveItems(w http.ResponseWriter, r *http.Request) {
	accountID := r.PathValue("id")
	period := statement.Period(r.PathValue("period"))

	var req struct {
		ExpenseIDs []string `json:"expense_ids"`
		Direction  string   `json:"direction"`
		Propagate  bool     `json:"propagate"`
	}
	if !decodeBody(w, r, &req) {
		return
	}

	result, err := s.svc.MoveItems(r.Context(), accountID, period, req.ExpenseIDs,
		services.Direction(req.Direction), req.Propagate, s.now())
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]any{
		"target_period": string(result.Target),
		"new_date":      result.NewDate.String(),
		"moved":         result.Moved,
		"propagated":    result.Propagated,
	})
}
