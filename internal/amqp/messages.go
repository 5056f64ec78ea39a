package amqp

import (
	"encoding/json"
	"time"
)

// Event kinds published after a successful statement mutation.
const (
	EventTaxAdded      = "tax_added"
	EventStatementPaid = "statement_paid"
	EventItemsMoved    = "items_moved"
)

// StatementEventMessage describes one statement mutation. Messages are
// self-contained so the mirror worker never has to read the database back.
type StatementEventMessage struct {
	Kind       string    `json:"kind"`
	AccountID  string    `json:"account_id"`
	Period     string    `json:"period"`
	Currency   string    `json:"currency,omitempty"`
	Amount     string    `json:"amount,omitempty"`
	ExpenseIDs []string  `json:"expense_ids,omitempty"`
	Detail     string    `json:"detail,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// NewStatementEvent creates a message stamped with the current time.
func NewStatementEvent(kind, accountID, period string) *StatementEventMessage {
	return &StatementEventMessage{
		Kind:      kind,
		AccountID: accountID,
		Period:    period,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes.
func (m *StatementEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// StatementEventFromJSON creates a message from JSON bytes.
func StatementEventFromJSON(data []byte) (*StatementEventMessage, error) {
	var msg StatementEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
