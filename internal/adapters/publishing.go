package adapters

import (
	"context"
	"log/slog"

	"tutorbook/internal/amqp"
	"tutorbook/internal/core"
	"tutorbook/internal/records"
)

// PublishingBackend wraps a records.Backend and announces every stored record
// on the event bus so the mirror worker can copy it.
type PublishingBackend struct {
	records.Backend
	publisher amqp.Publisher
	logger    *slog.Logger
}

var _ records.Backend = (*PublishingBackend)(nil)

// NewPublishingBackend returns backend unchanged in behaviour when publisher is nil.
func NewPublishingBackend(backend records.Backend, publisher amqp.Publisher, logger *slog.Logger) *PublishingBackend {
	if logger == nil {
		logger = slog.Default()
	}
	return &PublishingBackend{Backend: backend, publisher: publisher, logger: logger}
}

// AppendPayment stores first; a publish failure is logged and the record id
// is still returned because the record is already stored.
func (b *PublishingBackend) AppendPayment(ctx context.Context, userID string, p core.PaymentRecord) (string, error) {
	id, err := b.Backend.AppendPayment(ctx, userID, p)
	if err != nil {
		return "", err
	}
	p = p.Normalize()
	p.ID = id
	b.publish(ctx, amqp.NewPaymentAppended(userID, p))
	return id, nil
}

func (b *PublishingBackend) AppendExpense(ctx context.Context, userID string, e core.ExpenseRecord) (string, error) {
	id, err := b.Backend.AppendExpense(ctx, userID, e)
	if err != nil {
		return "", err
	}
	e = e.Normalize()
	e.ID = id
	b.publish(ctx, amqp.NewExpenseAppended(userID, e))
	return id, nil
}

func (b *PublishingBackend) publish(ctx context.Context, msg *amqp.RecordAppendedMessage) {
	if b.publisher == nil {
		b.logger.WarnContext(ctx, "AMQP publisher not available, skipping record message",
			"collection", msg.Collection, "record_id", msg.RecordID)
		return
	}
	if err := b.publisher.PublishRecordAppended(ctx, msg); err != nil {
		b.logger.ErrorContext(ctx, "Failed to publish record message",
			"collection", msg.Collection, "record_id", msg.RecordID, "error", err)
	}
}
