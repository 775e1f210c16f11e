package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"tutorbook/internal/core"
	"tutorbook/internal/validate"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

type (
	credentialsRequest struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	// Amounts arrive as strings so both "12.50" and "12,50" are accepted.
	paymentRequest struct {
		StudentName   string `json:"studentName" validate:"required,max=200"`
		Category      string `json:"category" validate:"max=200"`
		Amount        string `json:"amount" validate:"required"`
		Date          string `json:"date" validate:"required"`
		ContactNumber string `json:"contactNumber" validate:"max=32"`
	}

	expenseRequest struct {
		Type   string `json:"type" validate:"required,max=200"`
		Amount string `json:"amount" validate:"required"`
		Date   string `json:"date" validate:"required"`
	}
)

// decodeJSON reads a single JSON object, rejecting unknown fields.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	if err := dec.Decode(&struct{}{}); !errors.Is(err, io.EOF) {
		return errors.New("request body must contain a single JSON object")
	}
	return nil
}

// validateRequest checks the decoded body against its validate tags.
func validateRequest(req any) error {
	return validate.Struct(req)
}

func parseAmountAndDate(amount, date string) (core.PaymentRecord, error) {
	var out core.PaymentRecord
	a, err := core.ParseAmount(amount)
	if err != nil {
		return out, core.NewValidationError("amount", err)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return out, core.NewValidationError("date", err)
	}
	out.Amount, out.Date = a, d
	return out, nil
}

func (p paymentRequest) record() (core.PaymentRecord, error) {
	rec, err := parseAmountAndDate(p.Amount, p.Date)
	if err != nil {
		return core.PaymentRecord{}, err
	}
	rec.StudentName = sanitizeInput(p.StudentName)
	rec.Category = sanitizeInput(p.Category)
	rec.ContactNumber = sanitizeInput(p.ContactNumber)
	return rec, nil
}

func (e expenseRequest) record() (core.ExpenseRecord, error) {
	rec, err := parseAmountAndDate(e.Amount, e.Date)
	if err != nil {
		return core.ExpenseRecord{}, err
	}
	return core.ExpenseRecord{Type: sanitizeInput(e.Type), Amount: rec.Amount, Date: rec.Date}, nil
}

// parseWidth reads the viewport width; absent or malformed means unknown (0).
func parseWidth(r *http.Request) int {
	v := strings.TrimSpace(r.URL.Query().Get("width"))
	if v == "" {
		return 0
	}
	w, err := strconv.Atoi(v)
	if err != nil || w < 0 {
		return 0
	}
	return w
}

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if r < 32 && r != '\t' {
			return -1
		}
		return r
	}, s))
}
