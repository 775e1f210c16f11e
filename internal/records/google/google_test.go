package google

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"tutorbook/internal/aggregate"
	"tutorbook/internal/core"
)

// fakeSheets serves the subset of the Sheets values API the client uses.
type fakeSheets struct {
	mu     sync.Mutex
	sheets map[string][][]any
	fail   bool
}

func (f *fakeSheets) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		http.Error(w, `{"error":{"code":400,"message":"rejected"}}`, http.StatusBadRequest)
		return
	}
	_, rng, ok := strings.Cut(r.URL.Path, "/values/")
	if !ok {
		http.NotFound(w, r)
		return
	}
	sheet, _, _ := strings.Cut(rng, "!")
	w.Header().Set("Content-Type", "application/json")
	switch {
	case r.Method == http.MethodPost && strings.HasSuffix(rng, ":append"):
		var vr gsheet.ValueRange
		if err := json.NewDecoder(r.Body).Decode(&vr); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		f.sheets[sheet] = append(f.sheets[sheet], vr.Values...)
		_ = json.NewEncoder(w).Encode(gsheet.AppendValuesResponse{
			Updates: &gsheet.UpdateValuesResponse{UpdatedRange: sheet + "!A1"},
		})
	case r.Method == http.MethodGet:
		_ = json.NewEncoder(w).Encode(gsheet.ValueRange{Range: rng, Values: f.sheets[sheet]})
	default:
		http.Error(w, "unsupported", http.StatusMethodNotAllowed)
	}
}

func newTestClient(t *testing.T, fake *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)
	c, err := New(context.Background(), Config{SpreadsheetID: "sheet-id"}, nil,
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication())
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	return c
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	if _, err := New(context.Background(), Config{}, nil); err == nil {
		t.Fatal("expected error for missing spreadsheet id")
	}
}

func TestCredentialOptions(t *testing.T) {
	if _, err := CredentialOptions("", ""); err == nil {
		t.Fatal("expected error without credentials")
	}
	if _, err := CredentialOptions("", "/does/not/exist.json"); err == nil {
		t.Fatal("expected error for unreadable file")
	}
	opts, err := CredentialOptions(`{"type":"service_account"}`, "/ignored")
	if err != nil || len(opts) != 2 {
		t.Fatalf("unexpected options %v err=%v", opts, err)
	}
}

func TestClientAppendAndFetch(t *testing.T) {
	fake := &fakeSheets{sheets: map[string][][]any{
		DefaultPaymentsSheet: {{"user_id", "id", "student", "category", "amount", "date", "contact"}},
	}}
	c := newTestClient(t, fake)
	ctx := context.Background()

	id, err := c.AppendPayment(ctx, "u1", core.PaymentRecord{StudentName: "Ana", Category: "Book", Amount: decimal.NewFromInt(50), Date: core.NewDate(2024, 1, 10)})
	if err != nil || id == "" {
		t.Fatalf("append: id=%q err=%v", id, err)
	}
	mirrored, err := c.AppendPayment(ctx, "u1", core.PaymentRecord{ID: "keep-me", StudentName: "Ana", Category: "Lesson", Amount: decimal.RequireFromString("30.5"), Date: core.NewDate(2024, 1, 20), ContactNumber: "393331234567"})
	if err != nil || mirrored != "keep-me" {
		t.Fatalf("expected source id kept, got %q err=%v", mirrored, err)
	}
	if _, err := c.AppendPayment(ctx, "u2", core.PaymentRecord{StudentName: "Bo", Amount: decimal.NewFromInt(5), Date: core.NewDate(2024, 1, 5)}); err != nil {
		t.Fatalf("append: %v", err)
	}

	got, err := c.FetchAllPayments(ctx, "u1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 2 || got[0].ID != id || got[1].ID != "keep-me" {
		t.Fatalf("unexpected payments %+v", got)
	}
	if !got[1].Amount.Equal(decimal.RequireFromString("30.5")) || got[1].ContactNumber != "393331234567" || got[0].ContactNumber != core.NoContact {
		t.Fatalf("fields not preserved: %+v", got)
	}

	ana, err := c.FindPaymentsByStudent(ctx, "u1", "Ana")
	if err != nil || len(ana) != 2 {
		t.Fatalf("unexpected find result %v err=%v", ana, err)
	}

	if _, err := c.AppendExpense(ctx, "u1", core.ExpenseRecord{Type: "Rent", Amount: decimal.NewFromInt(20), Date: core.NewDate(2024, 2, 1)}); err != nil {
		t.Fatalf("append expense: %v", err)
	}
	exps, err := c.FetchAllExpenses(ctx, "u1")
	if err != nil || len(exps) != 1 || exps[0].Type != "Rent" {
		t.Fatalf("unexpected expenses %+v err=%v", exps, err)
	}
}

func TestClientSkipsMalformedRows(t *testing.T) {
	fake := &fakeSheets{sheets: map[string][][]any{
		DefaultExpensesSheet: {
			{"u1", "a", "Rent", "12,50", "2024-03-01"},
			{"u1", "b", "Rent", "n/a", "2024-03-02"},
			{"u1", "c", "Rent", "3"},
			{"u1", "d", "Rent", "-30", "2024-03-03"},
			{"u1", "e", "  ", "4", "2024-03-04"},
		},
		DefaultPaymentsSheet: {
			{"u1", "a", "Ana", "Lesson", "50", "2024-01-10", "N/A"},
			{"u1", "b", "", "Lesson", "30", "2024-01-11", "N/A"},
			{"u1", "c", "Bo", "Lesson", "-30", "2024-01-12", "N/A"},
			{"u1", "d", "Bo", "Lesson", "0", "2024-01-13", "N/A"},
		},
	}}
	c := newTestClient(t, fake)
	ctx := context.Background()
	got, err := c.FetchAllExpenses(ctx, "u1")
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(got) != 1 || !got[0].Amount.Equal(decimal.RequireFromString("12.5")) {
		t.Fatalf("expected only the well-formed row, got %+v", got)
	}

	payments, err := c.FetchAllPayments(ctx, "u1")
	if err != nil {
		t.Fatalf("fetch payments: %v", err)
	}
	if len(payments) != 1 || payments[0].StudentName != "Ana" {
		t.Fatalf("expected only Ana's payment, got %+v", payments)
	}
	if _, err := aggregate.SummarizeByStudent(payments); err != nil {
		t.Fatalf("summaries over fetched rows: %v", err)
	}
	totals, err := aggregate.PaymentTotals(payments, nil)
	if err != nil {
		t.Fatalf("totals: %v", err)
	}
	if jan, _ := totals.Get("January"); !jan.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("January income %s, want 50", jan)
	}
}

func TestClientErrors(t *testing.T) {
	fake := &fakeSheets{sheets: map[string][][]any{}}
	c := newTestClient(t, fake)
	ctx := context.Background()

	if _, err := c.AppendExpense(ctx, "u1", core.ExpenseRecord{Amount: decimal.NewFromInt(1), Date: core.NewDate(2024, 1, 1)}); !errors.Is(err, core.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if _, err := c.AppendExpense(ctx, "", core.ExpenseRecord{Type: "Rent", Amount: decimal.NewFromInt(1), Date: core.NewDate(2024, 1, 1)}); !errors.Is(err, core.ErrWrite) {
		t.Fatalf("expected write error for empty user, got %v", err)
	}

	fake.mu.Lock()
	fake.fail = true
	fake.mu.Unlock()
	if _, err := c.AppendPayment(ctx, "u1", core.PaymentRecord{StudentName: "Ana", Amount: decimal.NewFromInt(1), Date: core.NewDate(2024, 1, 1)}); !errors.Is(err, core.ErrWrite) {
		t.Fatalf("expected write error, got %v", err)
	}
	if _, err := c.FetchAllPayments(ctx, "u1"); !errors.Is(err, core.ErrRead) {
		t.Fatalf("expected read error, got %v", err)
	}
}
