package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"estratto/internal/amqp"
	"estratto/internal/ledger"
)

type fakeMirror struct {
	rows []ledger.ActivityRow
	err  error
}

func (f *fakeMirror) AppendActivity(_ context.Context, row ledger.ActivityRow) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.rows = append(f.rows, row)
	return "Movimenti!A2:G2", nil
}

func event(kind string) *amqp.StatementEventMessage {
	return &amqp.StatementEventMessage{
		Kind:      kind,
		AccountID: "carta",
		Period:    "2025-03",
		Currency:  "EUR",
		Amount:    "145.50",
		Timestamp: time.Date(2025, 3, 20, 10, 0, 0, 0, time.UTC),
	}
}

func TestHandleStatementEventAppendsRow(t *testing.T) {
	mirror := &fakeMirror{}
	w := NewMirrorWorker(mirror)

	if err := w.HandleStatementEvent(context.Background(), event(amqp.EventStatementPaid)); err != nil {
		t.Fatalf("HandleStatementEvent: %v", err)
	}

	if len(mirror.rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(mirror.rows))
	}
	row := mirror.rows[0]
	if row.Date != "2025-03-20" || row.AccountID != "carta" || row.Period != "2025-03" {
		t.Errorf("row = %+v", row)
	}
	if row.Kind != amqp.EventStatementPaid || row.Amount != "145.50" {
		t.Errorf("row kind/amount = %s/%s", row.Kind, row.Amount)
	}
}

func TestHandleStatementEventItemCount(t *testing.T) {
	mirror := &fakeMirror{}
	w := NewMirrorWorker(mirror)

	msg := event(amqp.EventItemsMoved)
	msg.Detail = "to 2025-04"
	msg.ExpenseIDs = []string{"a", "b", "c"}
	if err := w.HandleStatementEvent(context.Background(), msg); err != nil {
		t.Fatalf("HandleStatementEvent: %v", err)
	}

	if got := mirror.rows[0].Detail; got != "to 2025-04 (3 items)" {
		t.Errorf("detail = %q", got)
	}
}

func TestHandleStatementEventMirrorFailure(t *testing.T) {
	mirror := &fakeMirror{err: errors.New("quota exceeded")}
	w := NewMirrorWorker(mirror)

	if err := w.HandleStatementEvent(context.Background(), event(amqp.EventTaxAdded)); err == nil {
		t.Fatal("expected error so the delivery is requeued")
	}
}

func TestHandleStatementEventNoMirror(t *testing.T) {
	w := NewMirrorWorker(nil)
	if err := w.HandleStatementEvent(context.Background(), event(amqp.EventTaxAdded)); err != nil {
		t.Fatalf("nil mirror must skip, got %v", err)
	}
}
