package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateLayout is the calendar date layout used at every boundary.
const DateLayout = "2006-01-02"

// NoContact marks a payment entered without a contact number.
const NoContact = "N/A"

const (
	CollectionPayments Collection = "payments"
	CollectionExpenses Collection = "expenses"
)

type (
	// Collection names one of the per-user record collections.
	Collection string

	Date struct {
		time.Time
	}

	PaymentRecord struct {
		ID            string          `json:"id,omitempty"`
		StudentName   string          `json:"studentName"`
		Category      string          `json:"category"`
		Amount        decimal.Decimal `json:"amount"`
		Date          Date            `json:"date"`
		ContactNumber string          `json:"contactNumber"`
	}

	ExpenseRecord struct {
		ID     string          `json:"id,omitempty"`
		Type   string          `json:"type"`
		Amount decimal.Decimal `json:"amount"`
		Date   Date            `json:"date"`
	}
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrInvalidDate       = errors.New("invalid date")
	ErrEmptyStudent      = errors.New("empty student name")
	ErrEmptyType         = errors.New("empty expense type")
	ErrNameTooLong       = errors.New("value too long (max 200 characters)")
	ErrUnknownCollection = errors.New("unknown collection")
)

const maxTextLen = 200

func (c Collection) IsValid() bool {
	return c == CollectionPayments || c == CollectionExpenses
}

func (c Collection) String() string { return string(c) }

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD calendar date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidDate
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Normalize trims text fields and fills the contact sentinel.
func (p PaymentRecord) Normalize() PaymentRecord {
	p.StudentName = strings.TrimSpace(p.StudentName)
	p.Category = strings.TrimSpace(p.Category)
	p.ContactNumber = strings.TrimSpace(p.ContactNumber)
	if p.ContactNumber == "" {
		p.ContactNumber = NoContact
	}
	return p
}

// HasContact reports whether a usable contact number was recorded.
func (p PaymentRecord) HasContact() bool {
	c := strings.TrimSpace(p.ContactNumber)
	return c != "" && c != NoContact
}

func (p PaymentRecord) Validate() error {
	if strings.TrimSpace(p.StudentName) == "" {
		return NewValidationError("studentName", ErrEmptyStudent)
	}
	if len(p.StudentName) > maxTextLen {
		return NewValidationError("studentName", ErrNameTooLong)
	}
	if len(p.Category) > maxTextLen {
		return NewValidationError("category", ErrNameTooLong)
	}
	if !p.Amount.IsPositive() {
		return NewValidationError("amount", ErrInvalidAmount)
	}
	if err := p.Date.Validate(); err != nil {
		return NewValidationError("date", err)
	}
	return nil
}

func (e ExpenseRecord) Normalize() ExpenseRecord {
	e.Type = strings.TrimSpace(e.Type)
	return e
}

func (e ExpenseRecord) Validate() error {
	if strings.TrimSpace(e.Type) == "" {
		return NewValidationError("type", ErrEmptyType)
	}
	if len(e.Type) > maxTextLen {
		return NewValidationError("type", ErrNameTooLong)
	}
	if !e.Amount.IsPositive() {
		return NewValidationError("amount", ErrInvalidAmount)
	}
	if err := e.Date.Validate(); err != nil {
		return NewValidationError("date", err)
	}
	return nil
}
