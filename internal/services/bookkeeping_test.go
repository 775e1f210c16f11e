package services

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"tutorbook/internal/core"
	"tutorbook/internal/records/memory"
)

func payment(student, amount, date, contact string) core.PaymentRecord {
	d, err := core.ParseDate(date)
	if err != nil {
		panic(err)
	}
	return core.PaymentRecord{
		StudentName:   student,
		Category:      "Math",
		Amount:        decimal.RequireFromString(amount),
		Date:          d,
		ContactNumber: contact,
	}
}

func TestRecordPayment(t *testing.T) {
	svc := NewBookkeeping(memory.New(), nil)
	ctx := context.Background()

	got, err := svc.RecordPayment(ctx, "u1", payment("  Ann ", "50", "2024-01-10", ""))
	if err != nil {
		t.Fatalf("record payment: %v", err)
	}
	if got.ID == "" || got.StudentName != "Ann" || got.ContactNumber != core.NoContact {
		t.Fatalf("unexpected stored payment %+v", got)
	}

	_, err = svc.RecordPayment(ctx, "u1", payment("Ann", "0", "2024-01-10", ""))
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRecordExpense(t *testing.T) {
	svc := NewBookkeeping(memory.New(), nil)
	d, _ := core.ParseDate("2024-02-01")

	got, err := svc.RecordExpense(context.Background(), "u1", core.ExpenseRecord{Type: " Books ", Amount: decimal.NewFromInt(20), Date: d})
	if err != nil {
		t.Fatalf("record expense: %v", err)
	}
	if got.ID == "" || got.Type != "Books" {
		t.Fatalf("unexpected stored expense %+v", got)
	}

	_, err = svc.RecordExpense(context.Background(), "u1", core.ExpenseRecord{Amount: decimal.NewFromInt(20), Date: d})
	if !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestStudentHistoryAndInvoice(t *testing.T) {
	svc := NewBookkeeping(memory.New(), nil)
	ctx := context.Background()
	for _, p := range []core.PaymentRecord{
		payment("Ann", "50", "2024-01-10", ""),
		payment("Bob", "30", "2024-01-11", ""),
		payment("Ann", "25.5", "2024-02-10", "+1 (555) 010-2030"),
	} {
		if _, err := svc.RecordPayment(ctx, "u1", p); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}

	history, err := svc.StudentHistory(ctx, "u1", "Ann")
	if err != nil || len(history) != 2 {
		t.Fatalf("expected 2 payments for Ann, got %d err=%v", len(history), err)
	}

	none, err := svc.StudentHistory(ctx, "u1", "Zoe")
	if err != nil || none == nil || len(none) != 0 {
		t.Fatalf("expected empty non-nil history, got %v err=%v", none, err)
	}

	if _, err := svc.StudentHistory(ctx, "u1", "  "); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error for blank student, got %v", err)
	}

	doc, err := svc.Invoice(ctx, "u1", "Ann")
	if err != nil {
		t.Fatalf("invoice: %v", err)
	}
	if doc.Total != "$75.50" || len(doc.LineItems) != 2 {
		t.Fatalf("unexpected invoice %+v", doc)
	}

	link, err := svc.InvoiceLink(ctx, "u1", "Ann")
	if err != nil {
		t.Fatalf("invoice link: %v", err)
	}
	if !strings.HasPrefix(link, "https://wa.me/15550102030?text=") {
		t.Fatalf("unexpected link %q", link)
	}

	if _, err := svc.InvoiceLink(ctx, "u1", "Bob"); !errors.Is(err, core.ErrEmptyResult) {
		t.Fatalf("expected empty result for Bob, got %v", err)
	}
}
