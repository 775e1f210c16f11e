package records

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"tutorbook/internal/core"
	"tutorbook/internal/notify"
)

// reloadTimeout bounds the fetch issued for each change notification.
const reloadTimeout = 10 * time.Second

// Live adds change notification and subscriptions on top of a Backend.
// Appends are announced through the publisher; subscriptions listen on the hub
// and reload the whole collection on every event.
type Live struct {
	Backend
	hub       *notify.Hub
	publisher notify.Publisher
	logger    *slog.Logger
}

var _ Store = (*Live)(nil)

// NewLive wires backend to hub. A nil publisher publishes straight to the hub.
func NewLive(backend Backend, hub *notify.Hub, publisher notify.Publisher, logger *slog.Logger) *Live {
	if publisher == nil {
		publisher = hub
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Live{Backend: backend, hub: hub, publisher: publisher, logger: logger}
}

func (l *Live) AppendPayment(ctx context.Context, userID string, p core.PaymentRecord) (string, error) {
	id, err := l.Backend.AppendPayment(ctx, userID, p)
	if err != nil {
		return "", err
	}
	l.announce(ctx, userID, core.CollectionPayments)
	return id, nil
}

func (l *Live) AppendExpense(ctx context.Context, userID string, e core.ExpenseRecord) (string, error) {
	id, err := l.Backend.AppendExpense(ctx, userID, e)
	if err != nil {
		return "", err
	}
	l.announce(ctx, userID, core.CollectionExpenses)
	return id, nil
}

// announce never fails the append; the record is already stored.
func (l *Live) announce(ctx context.Context, userID string, c core.Collection) {
	ev := notify.Event{UserID: userID, Collection: c}
	if err := l.publisher.Publish(ctx, ev); err != nil {
		l.logger.WarnContext(ctx, "Change notification failed",
			"user_id", userID, "collection", c, "error", err)
	}
}

// SubscribePayments delivers the current collection immediately and again
// after every append.
func (l *Live) SubscribePayments(userID string, onChange func([]core.PaymentRecord)) error {
	if onChange == nil {
		return fmt.Errorf("subscribe payments: nil callback")
	}
	reload := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
		defer cancel()
		items, err := l.FetchAllPayments(ctx, userID)
		if err != nil {
			return err
		}
		onChange(items)
		return nil
	}
	if err := reload(); err != nil {
		return core.NewReadError("subscribe payments", err)
	}
	l.hub.Subscribe(userID, core.CollectionPayments, func(notify.Event) {
		if err := reload(); err != nil {
			l.logger.Error("Payments reload failed", "user_id", userID, "error", err)
		}
	})
	return nil
}

func (l *Live) SubscribeExpenses(userID string, onChange func([]core.ExpenseRecord)) error {
	if onChange == nil {
		return fmt.Errorf("subscribe expenses: nil callback")
	}
	reload := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), reloadTimeout)
		defer cancel()
		items, err := l.FetchAllExpenses(ctx, userID)
		if err != nil {
			return err
		}
		onChange(items)
		return nil
	}
	if err := reload(); err != nil {
		return core.NewReadError("subscribe expenses", err)
	}
	l.hub.Subscribe(userID, core.CollectionExpenses, func(notify.Event) {
		if err := reload(); err != nil {
			l.logger.Error("Expenses reload failed", "user_id", userID, "error", err)
		}
	})
	return nil
}

// Hub exposes the hub so transports can register cancellable watchers.
func (l *Live) Hub() *notify.Hub { return l.hub }
