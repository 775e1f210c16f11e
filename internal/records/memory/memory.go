package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"tutorbook/internal/core"
	"tutorbook/internal/records"
)

type collections struct {
	payments []core.PaymentRecord
	expenses []core.ExpenseRecord
}

// Store keeps every user's collections in process memory.
type Store struct {
	mu    sync.Mutex
	seq   int
	users map[string]*collections
}

var _ records.Backend = (*Store)(nil)

func New() *Store {
	return &Store{users: make(map[string]*collections)}
}

// Seed is the on-disk shape accepted by NewFromFile, keyed by user id.
type Seed map[string]struct {
	Payments []core.PaymentRecord `json:"payments"`
	Expenses []core.ExpenseRecord `json:"expenses"`
}

// NewFromFile loads a JSON seed. A missing file yields an empty store.
func NewFromFile(path string) (*Store, error) {
	s := New()
	path = strings.TrimSpace(path)
	if path == "" {
		return s, nil
	}
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed: %w", err)
	}
	var seed Seed
	if err := json.Unmarshal(b, &seed); err != nil {
		return nil, fmt.Errorf("decode seed: %w", err)
	}
	ctx := context.Background()
	for user, c := range seed {
		for i, p := range c.Payments {
			if _, err := s.AppendPayment(ctx, user, p); err != nil {
				return nil, fmt.Errorf("seed payment %d for %s: %w", i, user, err)
			}
		}
		for i, e := range c.Expenses {
			if _, err := s.AppendExpense(ctx, user, e); err != nil {
				return nil, fmt.Errorf("seed expense %d for %s: %w", i, user, err)
			}
		}
	}
	return s, nil
}

func (s *Store) user(id string) *collections {
	c, ok := s.users[id]
	if !ok {
		c = &collections{}
		s.users[id] = c
	}
	return c
}

// AppendPayment stores the payment and returns a synthetic record id.
func (s *Store) AppendPayment(_ context.Context, userID string, p core.PaymentRecord) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", core.NewWriteError("append payment", fmt.Errorf("empty user id"))
	}
	p = p.Normalize()
	if err := p.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	p.ID = fmt.Sprintf("mem:%d", s.seq)
	c := s.user(userID)
	c.payments = append(c.payments, p)
	return p.ID, nil
}

func (s *Store) AppendExpense(_ context.Context, userID string, e core.ExpenseRecord) (string, error) {
	if strings.TrimSpace(userID) == "" {
		return "", core.NewWriteError("append expense", fmt.Errorf("empty user id"))
	}
	e = e.Normalize()
	if err := e.Validate(); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	e.ID = fmt.Sprintf("mem:%d", s.seq)
	c := s.user(userID)
	c.expenses = append(c.expenses, e)
	return e.ID, nil
}

func (s *Store) FetchAllPayments(_ context.Context, userID string) ([]core.PaymentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.users[userID]
	if !ok {
		return []core.PaymentRecord{}, nil
	}
	return append([]core.PaymentRecord{}, c.payments...), nil
}

func (s *Store) FetchAllExpenses(_ context.Context, userID string) ([]core.ExpenseRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.users[userID]
	if !ok {
		return []core.ExpenseRecord{}, nil
	}
	return append([]core.ExpenseRecord{}, c.expenses...), nil
}

func (s *Store) FindPaymentsByStudent(ctx context.Context, userID, studentName string) ([]core.PaymentRecord, error) {
	all, err := s.FetchAllPayments(ctx, userID)
	if err != nil {
		return nil, err
	}
	return records.FilterByStudent(all, studentName), nil
}
