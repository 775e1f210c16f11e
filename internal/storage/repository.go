package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tutorbook/internal/core"
	"tutorbook/internal/records"

	_ "modernc.org/sqlite"
)

// SQLiteRepository stores records in a local SQLite file.
type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
}

var _ records.Backend = (*SQLiteRepository)(nil)

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db, queries: New(db)}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database answers.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLiteRepository) AppendPayment(ctx context.Context, userID string, p core.PaymentRecord) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", core.NewWriteError("append payment", fmt.Errorf("empty user id"))
	}
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return "", err
	}
	row, err := r.queries.CreatePayment(ctx, CreatePaymentParams{
		ID:            uuid.NewString(),
		UserID:        userID,
		StudentName:   p.StudentName,
		Category:      p.Category,
		Amount:        p.Amount.String(),
		PaidOn:        p.Date.String(),
		ContactNumber: p.ContactNumber,
	})
	if err != nil {
		return "", core.NewWriteError("append payment", err)
	}

	slog.InfoContext(ctx, "Payment saved to SQLite",
		"id", row.ID,
		"user_id", userID,
		"student", row.StudentName,
		"amount", row.Amount,
		"date", row.PaidOn)

	return row.ID, nil
}

func (r *SQLiteRepository) AppendExpense(ctx context.Context, userID string, e core.ExpenseRecord) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", core.NewWriteError("append expense", fmt.Errorf("empty user id"))
	}
	e = e.Normalize()
	if err := e.Validate(); err != nil {
		return "", err
	}
	row, err := r.queries.CreateExpense(ctx, CreateExpenseParams{
		ID:          uuid.NewString(),
		UserID:      userID,
		ExpenseType: e.Type,
		Amount:      e.Amount.String(),
		SpentOn:     e.Date.String(),
	})
	if err != nil {
		return "", core.NewWriteError("append expense", err)
	}

	slog.InfoContext(ctx, "Expense saved to SQLite",
		"id", row.ID,
		"user_id", userID,
		"type", row.ExpenseType,
		"amount", row.Amount,
		"date", row.SpentOn)

	return row.ID, nil
}

func (r *SQLiteRepository) FetchAllPayments(ctx context.Context, userID string) ([]core.PaymentRecord, error) {
	rows, err := r.queries.ListPaymentsByUser(ctx, userID)
	if err != nil {
		return nil, core.NewReadError("fetch payments", err)
	}
	return toPayments(rows)
}

func (r *SQLiteRepository) FindPaymentsByStudent(ctx context.Context, userID, studentName string) ([]core.PaymentRecord, error) {
	rows, err := r.queries.ListPaymentsByStudent(ctx, ListPaymentsByStudentParams{UserID: userID, StudentName: studentName})
	if err != nil {
		return nil, core.NewReadError("find payments by student", err)
	}
	return toPayments(rows)
}

func (r *SQLiteRepository) FetchAllExpenses(ctx context.Context, userID string) ([]core.ExpenseRecord, error) {
	rows, err := r.queries.ListExpensesByUser(ctx, userID)
	if err != nil {
		return nil, core.NewReadError("fetch expenses", err)
	}
	out := make([]core.ExpenseRecord, 0, len(rows))
	for _, row := range rows {
		amount, date, err := parseStored(row.Amount, row.SpentOn)
		if err != nil {
			return nil, core.NewReadError("decode expense "+row.ID, err)
		}
		out = append(out, core.ExpenseRecord{ID: row.ID, Type: row.ExpenseType, Amount: amount, Date: date})
	}
	return out, nil
}

func toPayments(rows []Payment) ([]core.PaymentRecord, error) {
	out := make([]core.PaymentRecord, 0, len(rows))
	for _, row := range rows {
		amount, date, err := parseStored(row.Amount, row.PaidOn)
		if err != nil {
			return nil, core.NewReadError("decode payment "+row.ID, err)
		}
		out = append(out, core.PaymentRecord{
			ID:            row.ID,
			StudentName:   row.StudentName,
			Category:      row.Category,
			Amount:        amount,
			Date:          date,
			ContactNumber: row.ContactNumber,
		})
	}
	return out, nil
}

func parseStored(amount, date string) (decimal.Decimal, core.Date, error) {
	a, err := decimal.NewFromString(amount)
	if err != nil {
		return decimal.Zero, core.Date{}, fmt.Errorf("amount %q: %w", amount, err)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return decimal.Zero, core.Date{}, fmt.Errorf("date %q: %w", date, err)
	}
	return a, d, nil
}
