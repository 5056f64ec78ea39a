package worker

import (
	"context"
	"fmt"
	"log/slog"

	"estratto/internal/amqp"
	"estratto/internal/ledger"
)

// MirrorWorker consumes statement events and appends one activity row per
// event to the configured mirror. Events are self-contained, so the worker
// never reads the database.
type MirrorWorker struct {
	mirror ledger.ActivityMirror
}

func NewMirrorWorker(mirror ledger.ActivityMirror) *MirrorWorker {
	return &MirrorWorker{mirror: mirror}
}

// HandleStatementEvent processes a single statement event from AMQP.
// Returning an error requeues the message.
func (w *MirrorWorker) HandleStatementEvent(ctx context.Context, msg *amqp.StatementEventMessage) error {
	slog.InfoContext(ctx, "Processing statement event",
		"kind", msg.Kind,
		"account_id", msg.AccountID,
		"period", msg.Period)

	if w.mirror == nil {
		slog.WarnContext(ctx, "No activity mirror configured, skipping event",
			"kind", msg.Kind,
			"account_id", msg.AccountID)
		return nil
	}

	row := ledger.ActivityRow{
		Date:      msg.Timestamp.Format("2006-01-02"),
		AccountID: msg.AccountID,
		Period:    msg.Period,
		Kind:      msg.Kind,
		Currency:  msg.Currency,
		Amount:    msg.Amount,
		Detail:    msg.Detail,
	}
	if msg.Kind == amqp.EventItemsMoved {
		row.Detail = fmt.Sprintf("%s (%d items)", msg.Detail, len(msg.ExpenseIDs))
	}

	ref, err := w.mirror.AppendActivity(ctx, row)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to mirror statement event",
			"kind", msg.Kind,
			"account_id", msg.AccountID,
			"period", msg.Period,
			"error", err)
		return fmt.Errorf("append activity row: %w", err)
	}

	slog.InfoContext(ctx, "Statement event mirrored",
		"kind", msg.Kind,
		"account_id", msg.AccountID,
		"period", msg.Period,
		"mirror_ref", ref)

	return nil
}
