package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"tutorbook/internal/core"
	"tutorbook/internal/records"
)

const (
	DefaultPaymentsSheet = "Payments"
	DefaultExpensesSheet = "Expenses"

	paymentCols = 7 // user, id, student, category, amount, date, contact
	expenseCols = 5 // user, id, type, amount, date
)

type Config struct {
	SpreadsheetID string
	PaymentsSheet string
	ExpensesSheet string
}

// Client stores records as rows of two sheets, one row per record with the
// owning user in column A.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	paymentsSheet string
	expensesSheet string
	logger        *slog.Logger
}

var _ records.Backend = (*Client)(nil)

// New creates a Sheets-backed store. opts are passed to the API client.
func New(ctx context.Context, cfg Config, logger *slog.Logger, opts ...goption.ClientOption) (*Client, error) {
	id := strings.TrimSpace(cfg.SpreadsheetID)
	if id == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if logger == nil {
		logger = slog.Default()
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: id,
		paymentsSheet: orDefault(cfg.PaymentsSheet, DefaultPaymentsSheet),
		expensesSheet: orDefault(cfg.ExpensesSheet, DefaultExpensesSheet),
		logger:        logger,
	}, nil
}

// CredentialOptions builds client options from inline service account JSON
// or a credentials file, the inline value taking precedence.
func CredentialOptions(inlineJSON, file string) ([]goption.ClientOption, error) {
	var credentialsJSON []byte
	switch {
	case strings.TrimSpace(inlineJSON) != "":
		credentialsJSON = []byte(inlineJSON)
	case strings.TrimSpace(file) != "":
		b, err := os.ReadFile(strings.TrimSpace(file))
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		credentialsJSON = b
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	return []goption.ClientOption{
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsScope),
	}, nil
}

func orDefault(v, def string) string {
	if v = strings.TrimSpace(v); v != "" {
		return v
	}
	return def
}

func (c *Client) fullRange(sheet string, cols int) string {
	return fmt.Sprintf("%s!A:%c", sheet, 'A'+cols-1)
}

// AppendPayment keeps a non-empty p.ID so mirrored rows match their source.
func (c *Client) AppendPayment(ctx context.Context, userID string, p core.PaymentRecord) (string, error) {
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return "", err
	}
	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}
	row := []any{userID, id, p.StudentName, p.Category, p.Amount.String(), p.Date.String(), p.ContactNumber}
	if err := c.appendRow(ctx, c.paymentsSheet, paymentCols, row); err != nil {
		return "", core.NewWriteError("append payment", err)
	}
	return id, nil
}

func (c *Client) AppendExpense(ctx context.Context, userID string, e core.ExpenseRecord) (string, error) {
	e = e.Normalize()
	if err := e.Validate(); err != nil {
		return "", err
	}
	id := e.ID
	if id == "" {
		id = uuid.NewString()
	}
	row := []any{userID, id, e.Type, e.Amount.String(), e.Date.String()}
	if err := c.appendRow(ctx, c.expensesSheet, expenseCols, row); err != nil {
		return "", core.NewWriteError("append expense", err)
	}
	return id, nil
}

func (c *Client) appendRow(ctx context.Context, sheet string, cols int, row []any) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}
	if strings.TrimSpace(fmt.Sprint(row[0])) == "" {
		return errors.New("empty user id")
	}
	vr := &gsheet.ValueRange{Values: [][]any{row}}
	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, c.fullRange(sheet, cols), vr).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", sheet, err)
	}
	updated := ""
	if resp.Updates != nil {
		updated = resp.Updates.UpdatedRange
	}
	c.logger.InfoContext(ctx, "Row appended to sheet", "sheet", sheet, "range", updated)
	return nil
}

func (c *Client) readRows(ctx context.Context, sheet string, cols int) ([][]string, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}
	rng := c.fullRange(sheet, cols)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	out := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		out = append(out, toStrings(row))
	}
	return out, nil
}

func (c *Client) FetchAllPayments(ctx context.Context, userID string) ([]core.PaymentRecord, error) {
	rows, err := c.readRows(ctx, c.paymentsSheet, paymentCols)
	if err != nil {
		return nil, core.NewReadError("fetch payments", err)
	}
	out := make([]core.PaymentRecord, 0)
	for i, cols := range rows {
		if safeGet(cols, 0) != userID {
			continue
		}
		p, err := parsePaymentRow(cols)
		if err != nil {
			c.logger.WarnContext(ctx, "Skipping malformed payment row", "sheet", c.paymentsSheet, "row", i+1, "error", err)
			continue
		}
		out = append(out, p)
	}
	return out, nil
}

func (c *Client) FetchAllExpenses(ctx context.Context, userID string) ([]core.ExpenseRecord, error) {
	rows, err := c.readRows(ctx, c.expensesSheet, expenseCols)
	if err != nil {
		return nil, core.NewReadError("fetch expenses", err)
	}
	out := make([]core.ExpenseRecord, 0)
	for i, cols := range rows {
		if safeGet(cols, 0) != userID {
			continue
		}
		e, err := parseExpenseRow(cols)
		if err != nil {
			c.logger.WarnContext(ctx, "Skipping malformed expense row", "sheet", c.expensesSheet, "row", i+1, "error", err)
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

func (c *Client) FindPaymentsByStudent(ctx context.Context, userID, studentName string) ([]core.PaymentRecord, error) {
	all, err := c.FetchAllPayments(ctx, userID)
	if err != nil {
		return nil, err
	}
	return records.FilterByStudent(all, studentName), nil
}

func parsePaymentRow(cols []string) (core.PaymentRecord, error) {
	amount, err := parseAmountCell(safeGet(cols, 4))
	if err != nil {
		return core.PaymentRecord{}, err
	}
	date, err := core.ParseDate(safeGet(cols, 5))
	if err != nil {
		return core.PaymentRecord{}, fmt.Errorf("date %q: %w", safeGet(cols, 5), err)
	}
	p := core.PaymentRecord{
		ID:            safeGet(cols, 1),
		StudentName:   safeGet(cols, 2),
		Category:      safeGet(cols, 3),
		Amount:        amount,
		Date:          date,
		ContactNumber: safeGet(cols, 6),
	}.Normalize()
	if err := p.Validate(); err != nil {
		return core.PaymentRecord{}, err
	}
	return p, nil
}

func parseExpenseRow(cols []string) (core.ExpenseRecord, error) {
	amount, err := parseAmountCell(safeGet(cols, 3))
	if err != nil {
		return core.ExpenseRecord{}, err
	}
	date, err := core.ParseDate(safeGet(cols, 4))
	if err != nil {
		return core.ExpenseRecord{}, fmt.Errorf("date %q: %w", safeGet(cols, 4), err)
	}
	e := core.ExpenseRecord{ID: safeGet(cols, 1), Type: safeGet(cols, 2), Amount: amount, Date: date}.Normalize()
	if err := e.Validate(); err != nil {
		return core.ExpenseRecord{}, err
	}
	return e, nil
}

// parseAmountCell accepts plain numbers and a decimal comma.
func parseAmountCell(s string) (decimal.Decimal, error) {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("amount %q: %w", s, err)
	}
	return d, nil
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func safeGet(arr []string, idx int) string {
	if idx < 0 || idx >= len(arr) {
		return ""
	}
	return arr[idx]
}
