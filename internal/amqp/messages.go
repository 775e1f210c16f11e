package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"tutorbook/internal/core"
)

// RecordAppendedMessage announces a stored record. It carries the full record
// so consumers need no access to the producer's storage.
type RecordAppendedMessage struct {
	UserID     string              `json:"userId"`
	Collection core.Collection     `json:"collection"`
	RecordID   string              `json:"recordId"`
	Payment    *core.PaymentRecord `json:"payment,omitempty"`
	Expense    *core.ExpenseRecord `json:"expense,omitempty"`
	Timestamp  time.Time           `json:"timestamp"`
}

func NewPaymentAppended(userID string, p core.PaymentRecord) *RecordAppendedMessage {
	return &RecordAppendedMessage{
		UserID:     userID,
		Collection: core.CollectionPayments,
		RecordID:   p.ID,
		Payment:    &p,
		Timestamp:  time.Now(),
	}
}

func NewExpenseAppended(userID string, e core.ExpenseRecord) *RecordAppendedMessage {
	return &RecordAppendedMessage{
		UserID:     userID,
		Collection: core.CollectionExpenses,
		RecordID:   e.ID,
		Expense:    &e,
		Timestamp:  time.Now(),
	}
}

// Validate checks that the payload matches the collection.
func (m *RecordAppendedMessage) Validate() error {
	if m.UserID == "" {
		return errors.New("missing user id")
	}
	switch m.Collection {
	case core.CollectionPayments:
		if m.Payment == nil {
			return errors.New("payments message without payment")
		}
	case core.CollectionExpenses:
		if m.Expense == nil {
			return errors.New("expenses message without expense")
		}
	default:
		return fmt.Errorf("%w: %q", core.ErrUnknownCollection, m.Collection)
	}
	return nil
}

// ToJSON converts the message to JSON bytes
func (m *RecordAppendedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RecordAppendedMessageFromJSON decodes and validates a message.
func RecordAppendedMessageFromJSON(data []byte) (*RecordAppendedMessage, error) {
	var msg RecordAppendedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if err := msg.Validate(); err != nil {
		return nil, err
	}
	return &msg, nil
}
