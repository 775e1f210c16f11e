package report

import (
	"github.com/shopspring/decimal"

	"tutorbook/internal/aggregate"
)

// NarrowWidth is the viewport width below which charts switch to lines.
const NarrowWidth = 480

type ChartSeries struct {
	Labels        []string          `json:"labels"`
	IncomeValues  []decimal.Decimal `json:"incomeValues"`
	ExpenseValues []decimal.Decimal `json:"expenseValues"`
}

// BuildChartSeries labels follow the income keys. A month with income but no
// expenses gets a zero expense value; expense-only months are not plotted.
func BuildChartSeries(income, expenses *aggregate.Totals) ChartSeries {
	labels := income.Keys()
	s := ChartSeries{
		Labels:        labels,
		IncomeValues:  make([]decimal.Decimal, len(labels)),
		ExpenseValues: make([]decimal.Decimal, len(labels)),
	}
	for i, l := range labels {
		s.IncomeValues[i], _ = income.Get(l)
		s.ExpenseValues[i], _ = expenses.Get(l)
	}
	return s
}

// Chart.js configuration shapes.
type (
	ChartConfig struct {
		Type    string       `json:"type"`
		Data    ChartData    `json:"data"`
		Options ChartOptions `json:"options"`
	}

	ChartData struct {
		Labels   []string       `json:"labels"`
		Datasets []ChartDataset `json:"datasets"`
	}

	ChartDataset struct {
		Label           string    `json:"label"`
		Data            []float64 `json:"data"`
		BackgroundColor string    `json:"backgroundColor"`
		BorderColor     string    `json:"borderColor"`
		BorderWidth     int       `json:"borderWidth"`
	}

	ChartOptions struct {
		Responsive          bool         `json:"responsive"`
		MaintainAspectRatio bool         `json:"maintainAspectRatio"`
		AspectRatio         int          `json:"aspectRatio"`
		Scales              ChartScales  `json:"scales"`
		Plugins             ChartPlugins `json:"plugins"`
	}

	ChartScales struct {
		Y ChartAxis `json:"y"`
		X ChartAxis `json:"x"`
	}

	ChartAxis struct {
		BeginAtZero bool       `json:"beginAtZero,omitempty"`
		Title       ChartTitle `json:"title"`
		Ticks       ChartTicks `json:"ticks"`
	}

	ChartTicks struct {
		Prefix      string `json:"prefix,omitempty"`
		MaxRotation int    `json:"maxRotation,omitempty"`
		MinRotation int    `json:"minRotation,omitempty"`
	}

	ChartPlugins struct {
		Legend ChartLegend `json:"legend"`
		Title  ChartTitle  `json:"title"`
	}

	ChartLegend struct {
		Display bool `json:"display"`
	}

	ChartTitle struct {
		Display bool   `json:"display"`
		Text    string `json:"text"`
	}
)

var (
	incomeStyle  = ChartDataset{Label: "Monthly Income", BackgroundColor: "rgba(75, 192, 192, 0.6)", BorderColor: "rgba(75, 192, 192, 1)", BorderWidth: 1}
	expenseStyle = ChartDataset{Label: "Monthly Expenses", BackgroundColor: "rgba(255, 99, 132, 0.6)", BorderColor: "rgba(255, 99, 132, 1)", BorderWidth: 1}
)

// ChartType picks "line" for narrow viewports and "bar" otherwise. A
// non-positive width counts as wide.
func ChartType(width int) string {
	if width > 0 && width < NarrowWidth {
		return "line"
	}
	return "bar"
}

func floats(values []decimal.Decimal) []float64 {
	out := make([]float64, len(values))
	for i, v := range values {
		out[i] = v.InexactFloat64()
	}
	return out
}

func baseOptions(yTitle, title string, legend bool) ChartOptions {
	return ChartOptions{
		Responsive:  true,
		AspectRatio: 1,
		Scales: ChartScales{
			Y: ChartAxis{BeginAtZero: true, Title: ChartTitle{Display: true, Text: yTitle}, Ticks: ChartTicks{Prefix: "$"}},
			X: ChartAxis{Title: ChartTitle{Display: true, Text: "Month"}, Ticks: ChartTicks{MaxRotation: 45, MinRotation: 45}},
		},
		Plugins: ChartPlugins{Legend: ChartLegend{Display: legend}, Title: ChartTitle{Display: true, Text: title}},
	}
}

// IncomeExpenseChart is the combined dashboard chart.
func IncomeExpenseChart(s ChartSeries, width int) ChartConfig {
	income, expense := incomeStyle, expenseStyle
	income.Data = floats(s.IncomeValues)
	expense.Data = floats(s.ExpenseValues)
	return ChartConfig{
		Type:    ChartType(width),
		Data:    ChartData{Labels: append([]string{}, s.Labels...), Datasets: []ChartDataset{income, expense}},
		Options: baseOptions("Amount ($)", "Monthly Income & Expenses", true),
	}
}

// ExpenseChart plots expenses alone, labelled by the expense keys.
func ExpenseChart(expenses *aggregate.Totals, width int) ChartConfig {
	ds := expenseStyle
	ds.Data = floats(expenses.Values())
	return ChartConfig{
		Type:    ChartType(width),
		Data:    ChartData{Labels: expenses.Keys(), Datasets: []ChartDataset{ds}},
		Options: baseOptions("Expenses ($)", "Monthly Expenses", false),
	}
}
