package services

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"tutorbook/internal/core"
	"tutorbook/internal/records"
	"tutorbook/internal/report"
)

// Bookkeeping records payments and expenses and builds per-student documents.
type Bookkeeping struct {
	store  records.Backend
	logger *slog.Logger
}

func NewBookkeeping(store records.Backend, logger *slog.Logger) *Bookkeeping {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bookkeeping{store: store, logger: logger}
}

// RecordPayment normalizes and validates p before storing it.
func (b *Bookkeeping) RecordPayment(ctx context.Context, userID string, p core.PaymentRecord) (core.PaymentRecord, error) {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return core.PaymentRecord{}, err
	}
	id, err := b.store.AppendPayment(ctx, userID, p)
	if err != nil {
		return core.PaymentRecord{}, err
	}
	p.ID = id
	b.logger.InfoContext(ctx, "Payment recorded",
		"user_id", userID, "record_id", id, "student", p.StudentName, "amount", p.Amount.StringFixed(2))
	return p, nil
}

func (b *Bookkeeping) RecordExpense(ctx context.Context, userID string, e core.ExpenseRecord) (core.ExpenseRecord, error) {
	e = e.Normalize()
	if err := e.Validate(); err != nil {
		return core.ExpenseRecord{}, err
	}
	id, err := b.store.AppendExpense(ctx, userID, e)
	if err != nil {
		return core.ExpenseRecord{}, err
	}
	e.ID = id
	b.logger.InfoContext(ctx, "Expense recorded",
		"user_id", userID, "record_id", id, "type", e.Type, "amount", e.Amount.StringFixed(2))
	return e, nil
}

// StudentHistory returns every payment of one student, possibly none.
func (b *Bookkeeping) StudentHistory(ctx context.Context, userID, student string) ([]core.PaymentRecord, error) {
	student = strings.TrimSpace(student)
	if student == "" {
		return nil, core.NewValidationError("studentName", core.ErrEmptyStudent)
	}
	return b.store.FindPaymentsByStudent(ctx, userID, student)
}

func (b *Bookkeeping) Invoice(ctx context.Context, userID, student string) (report.InvoiceDocument, error) {
	history, err := b.StudentHistory(ctx, userID, student)
	if err != nil {
		return report.InvoiceDocument{}, err
	}
	return report.BuildInvoiceDocumentModel(strings.TrimSpace(student), history), nil
}

// InvoiceLink builds the WhatsApp deep link for the student's first payment
// carrying a contact number.
func (b *Bookkeeping) InvoiceLink(ctx context.Context, userID, student string) (string, error) {
	history, err := b.StudentHistory(ctx, userID, student)
	if err != nil {
		return "", err
	}
	contact, ok := report.FirstContact(history)
	if !ok {
		return "", core.NewEmptyResultError(fmt.Sprintf("contact number for %q", student))
	}
	return report.WhatsAppLink(contact, contact.StudentName)
}
