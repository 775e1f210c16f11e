// Package aggregate folds raw payment and expense records into per-student
// summaries, per-month totals and the overall balance.
//
// Every function is pure. When several records share a grouping key the
// non-additive fields are taken from the last record in iteration order
// (fold-left, last element wins); records are never re-sorted by date.
package aggregate

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"tutorbook/internal/core"
)

type (
	StudentSummary struct {
		StudentName     string          `json:"studentName"`
		TotalAmount     decimal.Decimal `json:"totalAmount"`
		PaymentCount    int             `json:"paymentCount"`
		LastPaymentDate core.Date       `json:"lastPaymentDate"`
		Category        string          `json:"category"`
	}

	// StudentSummaries is keyed by student name in first-appearance order.
	StudentSummaries = Ordered[StudentSummary]

	// Totals maps a bucket label to a summed amount in first-appearance order.
	Totals = Ordered[decimal.Decimal]

	Balance struct {
		TotalIncome   decimal.Decimal `json:"totalIncome"`
		TotalExpenses decimal.Decimal `json:"totalExpenses"`
		Balance       decimal.Decimal `json:"balance"`
	}
)

// SummarizeByStudent groups payments by student name.
func SummarizeByStudent(payments []core.PaymentRecord) (*StudentSummaries, error) {
	out := &StudentSummaries{}
	for i, p := range payments {
		if strings.TrimSpace(p.StudentName) == "" {
			return nil, core.NewValidationError(fmt.Sprintf("payments[%d].studentName", i), core.ErrEmptyStudent)
		}
		s, _ := out.Get(p.StudentName)
		s.StudentName = p.StudentName
		s.TotalAmount = s.TotalAmount.Add(p.Amount)
		s.PaymentCount++
		s.LastPaymentDate = p.Date
		s.Category = p.Category
		out.Set(p.StudentName, s)
	}
	return out, nil
}

// MonthlyTotals sums amount per bucket of date. A nil key buckets by month
// name, merging years.
func MonthlyTotals[T any](records []T, date func(T) core.Date, amount func(T) decimal.Decimal, key BucketFunc) (*Totals, error) {
	if key == nil {
		key = ByMonthName
	}
	out := &Totals{}
	for i, r := range records {
		d := date(r)
		if d.IsZero() {
			return nil, core.NewValidationError(fmt.Sprintf("records[%d].date", i), core.ErrInvalidDate)
		}
		label := key(d)
		sum, _ := out.Get(label)
		out.Set(label, sum.Add(amount(r)))
	}
	return out, nil
}

// PaymentTotals is MonthlyTotals over payment dates and amounts.
func PaymentTotals(payments []core.PaymentRecord, key BucketFunc) (*Totals, error) {
	return MonthlyTotals(payments,
		func(p core.PaymentRecord) core.Date { return p.Date },
		func(p core.PaymentRecord) decimal.Decimal { return p.Amount },
		key)
}

// ExpenseTotals is MonthlyTotals over expense dates and amounts.
func ExpenseTotals(expenses []core.ExpenseRecord, key BucketFunc) (*Totals, error) {
	return MonthlyTotals(expenses,
		func(e core.ExpenseRecord) core.Date { return e.Date },
		func(e core.ExpenseRecord) decimal.Decimal { return e.Amount },
		key)
}

// ComputeBalance returns overall income, expenses and their difference.
// Amounts are not rounded.
func ComputeBalance(payments []core.PaymentRecord, expenses []core.ExpenseRecord) Balance {
	var b Balance
	for _, p := range payments {
		b.TotalIncome = b.TotalIncome.Add(p.Amount)
	}
	for _, e := range expenses {
		b.TotalExpenses = b.TotalExpenses.Add(e.Amount)
	}
	b.Balance = b.TotalIncome.Sub(b.TotalExpenses)
	return b
}

// LatestAmountByStudent returns each student's last-iterated payment amount.
func LatestAmountByStudent(payments []core.PaymentRecord) (*Ordered[decimal.Decimal], error) {
	out := &Ordered[decimal.Decimal]{}
	for i, p := range payments {
		if strings.TrimSpace(p.StudentName) == "" {
			return nil, core.NewValidationError(fmt.Sprintf("payments[%d].studentName", i), core.ErrEmptyStudent)
		}
		out.Set(p.StudentName, p.Amount)
	}
	return out, nil
}
