// Package records defines the per-user record store contract and the
// live-subscription layer shared by every backend.
package records

import (
	"context"

	"tutorbook/internal/core"
)

// Ports for record store backends.
type (
	PaymentWriter interface {
		AppendPayment(ctx context.Context, userID string, p core.PaymentRecord) (recordID string, err error)
	}

	ExpenseWriter interface {
		AppendExpense(ctx context.Context, userID string, e core.ExpenseRecord) (recordID string, err error)
	}

	// Reader returns complete collections in insertion order.
	Reader interface {
		FetchAllPayments(ctx context.Context, userID string) ([]core.PaymentRecord, error)
		FetchAllExpenses(ctx context.Context, userID string) ([]core.ExpenseRecord, error)
	}

	// StudentFinder filters payments by exact student name. No match is an
	// empty slice, not an error.
	StudentFinder interface {
		FindPaymentsByStudent(ctx context.Context, userID, studentName string) ([]core.PaymentRecord, error)
	}

	// Subscriber registers process-lifetime change callbacks. Each callback
	// receives the full current collection.
	Subscriber interface {
		SubscribePayments(userID string, onChange func([]core.PaymentRecord)) error
		SubscribeExpenses(userID string, onChange func([]core.ExpenseRecord)) error
	}

	// Backend is what a storage implementation provides.
	Backend interface {
		PaymentWriter
		ExpenseWriter
		Reader
		StudentFinder
	}

	// Store is the full record store adapter seen by services.
	Store interface {
		Backend
		Subscriber
	}
)

// FilterByStudent is the exact-match filter used by backends without a query engine.
func FilterByStudent(payments []core.PaymentRecord, studentName string) []core.PaymentRecord {
	out := make([]core.PaymentRecord, 0)
	for _, p := range payments {
		if p.StudentName == studentName {
			out = append(out, p)
		}
	}
	return out
}
