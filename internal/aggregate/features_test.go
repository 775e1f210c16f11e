package aggregate_test

import (
	"context"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/cucumber/godog"
	"github.com/cucumber/godog/colors"
	"github.com/shopspring/decimal"

	"tutorbook/internal/aggregate"
	"tutorbook/internal/core"
	"tutorbook/internal/records/memory"
	"tutorbook/internal/report"
)

const featureUser = "feature-user"

type scenarioState struct {
	store     *memory.Store
	summaries *aggregate.StudentSummaries
	totals    *aggregate.Totals
	balance   aggregate.Balance
	found     []core.PaymentRecord
	invoice   report.InvoiceDocument
}

type stateKey struct{}

func state(ctx context.Context) *scenarioState {
	return ctx.Value(stateKey{}).(*scenarioState)
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		Name:                "aggregation",
		ScenarioInitializer: initializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			Output:   colors.Colored(os.Stdout),
			Strict:   true,
			TestingT: t,
		},
	}
	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

func initializeScenario(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return context.WithValue(ctx, stateKey{}, &scenarioState{store: memory.New()}), nil
	})

	sc.Step(`^the following payments:$`, theFollowingPayments)
	sc.Step(`^the following expenses:$`, theFollowingExpenses)
	sc.Step(`^I summarize payments by student$`, iSummarizeByStudent)
	sc.Step(`^I compute the balance$`, iComputeTheBalance)
	sc.Step(`^I total payments by month$`, iTotalByMonth(aggregate.BucketMonth))
	sc.Step(`^I total payments by month and year$`, iTotalByMonth(aggregate.BucketMonthYear))
	sc.Step(`^I build the invoice for "([^"]*)"$`, iBuildTheInvoiceFor)

	sc.Step(`^student "([^"]*)" has a total of (\S+) over (\d+) payments?$`, studentHasTotal)
	sc.Step(`^student "([^"]*)" last paid on "([^"]*)" for "([^"]*)"$`, studentLastPaid)
	sc.Step(`^there (?:is|are) (\d+) students? in the summary$`, studentCount)
	sc.Step(`^total income is (\S+), total expenses is (\S+) and balance is (\S+)$`, balanceIs)
	sc.Step(`^the formatted balance is "([^"]*)"$`, formattedBalanceIs)
	sc.Step(`^the total for "([^"]*)" is (\S+)$`, totalForIs)
	sc.Step(`^the month labels are "([^"]*)"$`, monthLabelsAre)
	sc.Step(`^the student query returned no payments$`, noPaymentsFound)
	sc.Step(`^the invoice has (\d+) line items and total "([^"]*)"$`, invoiceHas)
}

// tableRows maps each data row to header -> value.
func tableRows(table *godog.Table) []map[string]string {
	if len(table.Rows) == 0 {
		return nil
	}
	headers := table.Rows[0].Cells
	out := make([]map[string]string, 0, len(table.Rows)-1)
	for _, row := range table.Rows[1:] {
		m := make(map[string]string, len(headers))
		for i, cell := range row.Cells {
			m[headers[i].Value] = cell.Value
		}
		out = append(out, m)
	}
	return out
}

func theFollowingPayments(ctx context.Context, table *godog.Table) error {
	s := state(ctx)
	for _, row := range tableRows(table) {
		amount, err := core.ParseAmount(row["amount"])
		if err != nil {
			return err
		}
		date, err := core.ParseDate(row["date"])
		if err != nil {
			return err
		}
		p := core.PaymentRecord{StudentName: row["student"], Category: row["category"], Amount: amount, Date: date}
		if _, err := s.store.AppendPayment(ctx, featureUser, p); err != nil {
			return err
		}
	}
	return nil
}

func theFollowingExpenses(ctx context.Context, table *godog.Table) error {
	s := state(ctx)
	for _, row := range tableRows(table) {
		amount, err := core.ParseAmount(row["amount"])
		if err != nil {
			return err
		}
		date, err := core.ParseDate(row["date"])
		if err != nil {
			return err
		}
		e := core.ExpenseRecord{Type: row["type"], Amount: amount, Date: date}
		if _, err := s.store.AppendExpense(ctx, featureUser, e); err != nil {
			return err
		}
	}
	return nil
}

func iSummarizeByStudent(ctx context.Context) error {
	s := state(ctx)
	payments, err := s.store.FetchAllPayments(ctx, featureUser)
	if err != nil {
		return err
	}
	s.summaries, err = aggregate.SummarizeByStudent(payments)
	return err
}

func iComputeTheBalance(ctx context.Context) error {
	s := state(ctx)
	payments, err := s.store.FetchAllPayments(ctx, featureUser)
	if err != nil {
		return err
	}
	expenses, err := s.store.FetchAllExpenses(ctx, featureUser)
	if err != nil {
		return err
	}
	s.balance = aggregate.ComputeBalance(payments, expenses)
	return nil
}

func iTotalByMonth(b aggregate.Bucketing) func(context.Context) error {
	return func(ctx context.Context) error {
		s := state(ctx)
		payments, err := s.store.FetchAllPayments(ctx, featureUser)
		if err != nil {
			return err
		}
		s.totals, err = aggregate.PaymentTotals(payments, b.Func())
		return err
	}
}

func iBuildTheInvoiceFor(ctx context.Context, student string) error {
	s := state(ctx)
	found, err := s.store.FindPaymentsByStudent(ctx, featureUser, student)
	if err != nil {
		return err
	}
	s.found = found
	s.invoice = report.BuildInvoiceDocumentModel(student, found)
	return nil
}

func studentHasTotal(ctx context.Context, student, total string, count int) error {
	sum, ok := state(ctx).summaries.Get(student)
	if !ok {
		return fmt.Errorf("no summary for %s", student)
	}
	if !sum.TotalAmount.Equal(decimal.RequireFromString(total)) {
		return fmt.Errorf("total for %s = %s, want %s", student, sum.TotalAmount, total)
	}
	if sum.PaymentCount != count {
		return fmt.Errorf("count for %s = %d, want %d", student, sum.PaymentCount, count)
	}
	return nil
}

func studentLastPaid(ctx context.Context, student, date, category string) error {
	sum, ok := state(ctx).summaries.Get(student)
	if !ok {
		return fmt.Errorf("no summary for %s", student)
	}
	if sum.LastPaymentDate.String() != date || sum.Category != category {
		return fmt.Errorf("last payment for %s = %s/%s, want %s/%s", student, sum.LastPaymentDate, sum.Category, date, category)
	}
	return nil
}

func studentCount(ctx context.Context, n int) error {
	if got := state(ctx).summaries.Len(); got != n {
		return fmt.Errorf("got %d students, want %d", got, n)
	}
	return nil
}

func balanceIs(ctx context.Context, income, expenses, balance string) error {
	b := state(ctx).balance
	checks := []struct {
		name string
		got  decimal.Decimal
		want string
	}{
		{"income", b.TotalIncome, income},
		{"expenses", b.TotalExpenses, expenses},
		{"balance", b.Balance, balance},
	}
	for _, c := range checks {
		if !c.got.Equal(decimal.RequireFromString(c.want)) {
			return fmt.Errorf("%s = %s, want %s", c.name, c.got, c.want)
		}
	}
	return nil
}

func formattedBalanceIs(ctx context.Context, want string) error {
	if got := report.FormatBalance(state(ctx).balance).Balance; got != want {
		return fmt.Errorf("formatted balance = %s, want %s", got, want)
	}
	return nil
}

func totalForIs(ctx context.Context, label, want string) error {
	got, ok := state(ctx).totals.Get(label)
	if !ok {
		return fmt.Errorf("no bucket %q in %v", label, state(ctx).totals.Keys())
	}
	if !got.Equal(decimal.RequireFromString(want)) {
		return fmt.Errorf("bucket %q = %s, want %s", label, got, want)
	}
	return nil
}

func monthLabelsAre(ctx context.Context, want string) error {
	if got := strings.Join(state(ctx).totals.Keys(), ","); got != want {
		return fmt.Errorf("labels = %s, want %s", got, want)
	}
	return nil
}

func noPaymentsFound(ctx context.Context) error {
	if n := len(state(ctx).found); n != 0 {
		return fmt.Errorf("expected no payments, got %d", n)
	}
	return nil
}

func invoiceHas(ctx context.Context, items int, total string) error {
	inv := state(ctx).invoice
	if len(inv.LineItems) != items || inv.Total != total {
		return fmt.Errorf("invoice has %d items totalling %s, want %d and %s", len(inv.LineItems), inv.Total, items, total)
	}
	return nil
}
