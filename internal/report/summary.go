package report

import (
	"fmt"

	"tutorbook/internal/aggregate"
	"tutorbook/internal/core"
)

// StudentRow is one row of the per-student overview table.
type StudentRow struct {
	StudentName     string `json:"studentName"`
	Payments        string `json:"payments"`
	LastPaymentDate string `json:"lastPaymentDate"`
	Category        string `json:"category"`
}

// StudentSummaryText renders "<count> payments, $<total>".
func StudentSummaryText(s aggregate.StudentSummary) string {
	return fmt.Sprintf("%d payments, %s", s.PaymentCount, core.FormatUSD(s.TotalAmount))
}

// BuildStudentRows keeps the summaries' order.
func BuildStudentRows(summaries *aggregate.StudentSummaries) []StudentRow {
	rows := make([]StudentRow, 0, summaries.Len())
	for _, s := range summaries.Values() {
		rows = append(rows, StudentRow{
			StudentName:     s.StudentName,
			Payments:        StudentSummaryText(s),
			LastPaymentDate: s.LastPaymentDate.String(),
			Category:        s.Category,
		})
	}
	return rows
}

// BalanceView is the formatted balance panel.
type BalanceView struct {
	TotalIncome   string `json:"totalIncome"`
	TotalExpenses string `json:"totalExpenses"`
	Balance       string `json:"balance"`
}

func FormatBalance(b aggregate.Balance) BalanceView {
	return BalanceView{
		TotalIncome:   core.FormatUSD(b.TotalIncome),
		TotalExpenses: core.FormatUSD(b.TotalExpenses),
		Balance:       core.FormatUSD(b.Balance),
	}
}
