package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...interface{}) (sql.Result, error)
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...interface{}) *sql.Row
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

type Queries struct {
	db DBTX
}

func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

type Payment struct {
	Seq           int64
	ID            string
	UserID        string
	StudentName   string
	Category      string
	Amount        string
	PaidOn        string
	ContactNumber string
}

type Expense struct {
	Seq         int64
	ID          string
	UserID      string
	ExpenseType string
	Amount      string
	SpentOn     string
}

const createPayment = `
INSERT INTO payments (id, user_id, student_name, category, amount, paid_on, contact_number)
VALUES (?, ?, ?, ?, ?, ?, ?)
RETURNING seq, id, user_id, student_name, category, amount, paid_on, contact_number
`

type CreatePaymentParams struct {
	ID            string
	UserID        string
	StudentName   string
	Category      string
	Amount        string
	PaidOn        string
	ContactNumber string
}

func (q *Queries) CreatePayment(ctx context.Context, arg CreatePaymentParams) (Payment, error) {
	row := q.db.QueryRowContext(ctx, createPayment,
		arg.ID, arg.UserID, arg.StudentName, arg.Category, arg.Amount, arg.PaidOn, arg.ContactNumber)
	var i Payment
	err := row.Scan(&i.Seq, &i.ID, &i.UserID, &i.StudentName, &i.Category, &i.Amount, &i.PaidOn, &i.ContactNumber)
	return i, err
}

const createExpense = `
INSERT INTO expenses (id, user_id, expense_type, amount, spent_on)
VALUES (?, ?, ?, ?, ?)
RETURNING seq, id, user_id, expense_type, amount, spent_on
`

type CreateExpenseParams struct {
	ID          string
	UserID      string
	ExpenseType string
	Amount      string
	SpentOn     string
}

func (q *Queries) CreateExpense(ctx context.Context, arg CreateExpenseParams) (Expense, error) {
	row := q.db.QueryRowContext(ctx, createExpense, arg.ID, arg.UserID, arg.ExpenseType, arg.Amount, arg.SpentOn)
	var i Expense
	err := row.Scan(&i.Seq, &i.ID, &i.UserID, &i.ExpenseType, &i.Amount, &i.SpentOn)
	return i, err
}

const listPaymentsByUser = `
SELECT seq, id, user_id, student_name, category, amount, paid_on, contact_number
FROM payments WHERE user_id = ? ORDER BY seq
`

func (q *Queries) ListPaymentsByUser(ctx context.Context, userID string) ([]Payment, error) {
	return q.listPayments(ctx, listPaymentsByUser, userID)
}

const listPaymentsByStudent = `
SELECT seq, id, user_id, student_name, category, amount, paid_on, contact_number
FROM payments WHERE user_id = ? AND student_name = ? ORDER BY seq
`

type ListPaymentsByStudentParams struct {
	UserID      string
	StudentName string
}

func (q *Queries) ListPaymentsByStudent(ctx context.Context, arg ListPaymentsByStudentParams) ([]Payment, error) {
	return q.listPayments(ctx, listPaymentsByStudent, arg.UserID, arg.StudentName)
}

func (q *Queries) listPayments(ctx context.Context, query string, args ...interface{}) ([]Payment, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Payment{}
	for rows.Next() {
		var i Payment
		if err := rows.Scan(&i.Seq, &i.ID, &i.UserID, &i.StudentName, &i.Category, &i.Amount, &i.PaidOn, &i.ContactNumber); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const listExpensesByUser = `
SELECT seq, id, user_id, expense_type, amount, spent_on
FROM expenses WHERE user_id = ? ORDER BY seq
`

func (q *Queries) ListExpensesByUser(ctx context.Context, userID string) ([]Expense, error) {
	rows, err := q.db.QueryContext(ctx, listExpensesByUser, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	items := []Expense{}
	for rows.Next() {
		var i Expense
		if err := rows.Scan(&i.Seq, &i.ID, &i.UserID, &i.ExpenseType, &i.Amount, &i.SpentOn); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Close(); err != nil {
		return nil, err
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
