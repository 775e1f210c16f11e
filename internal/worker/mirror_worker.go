package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tutorbook/internal/amqp"
	"tutorbook/internal/cache"
	"tutorbook/internal/core"
	"tutorbook/internal/records"
)

const (
	seenCapacity = 4096
	seenTTL      = 24 * time.Hour
)

// Mirror is the destination of mirrored records.
type Mirror interface {
	records.PaymentWriter
	records.ExpenseWriter
}

// MirrorWorker copies every appended record to a secondary store, typically
// a Google spreadsheet the tutor reads directly.
type MirrorWorker struct {
	target Mirror
	seen   *cache.LRU[string, struct{}]
	logger *slog.Logger
}

func NewMirrorWorker(target Mirror, logger *slog.Logger) *MirrorWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &MirrorWorker{
		target: target,
		seen:   cache.NewLRU[string, struct{}](seenCapacity, seenTTL),
		logger: logger,
	}
}

// HandleRecordAppended is an amqp.Handler. A record id already mirrored by
// this worker is skipped.
func (w *MirrorWorker) HandleRecordAppended(ctx context.Context, msg *amqp.RecordAppendedMessage) error {
	key := string(msg.Collection) + ":" + msg.RecordID
	if msg.RecordID != "" {
		if _, dup := w.seen.Get(key); dup {
			w.logger.InfoContext(ctx, "Skipping already mirrored record",
				"collection", msg.Collection, "record_id", msg.RecordID)
			return nil
		}
	}

	var err error
	switch msg.Collection {
	case core.CollectionPayments:
		_, err = w.target.AppendPayment(ctx, msg.UserID, *msg.Payment)
	case core.CollectionExpenses:
		_, err = w.target.AppendExpense(ctx, msg.UserID, *msg.Expense)
	default:
		err = fmt.Errorf("%w: %q", core.ErrUnknownCollection, msg.Collection)
	}
	if err != nil {
		return fmt.Errorf("mirror %s %s: %w", msg.Collection, msg.RecordID, err)
	}

	if msg.RecordID != "" {
		w.seen.Set(key, struct{}{})
	}
	w.logger.InfoContext(ctx, "Record mirrored",
		"collection", msg.Collection,
		"record_id", msg.RecordID,
		"user_id", msg.UserID)
	return nil
}

// Consumer is the subscribe side of the event bus.
type Consumer interface {
	Consume(ctx context.Context, handler amqp.Handler) error
}

// Run consumes until ctx is cancelled.
func (w *MirrorWorker) Run(ctx context.Context, consumer Consumer) error {
	err := consumer.Consume(ctx, w.HandleRecordAppended)
	if ctx.Err() != nil {
		return nil
	}
	return err
}
