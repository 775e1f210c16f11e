package backend

import (
	"context"

	"tutorbook/internal/notify"
	"tutorbook/internal/records"
)

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// ReadyFunc reports whether the backing services are reachable.
type ReadyFunc func(ctx context.Context) error

// BackendResult is a live record store plus what it needs to be shut down.
type BackendResult struct {
	Store   records.Store
	Hub     *notify.Hub
	Ready   ReadyFunc
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Memory specific
	MemorySeedFile string

	// SQLite specific
	SQLiteDBPath string

	// Google Sheets specific
	GoogleSpreadsheetID      string
	GooglePaymentsSheet      string
	GoogleExpensesSheet      string
	GoogleServiceAccountJSON string
	GoogleServiceAccountFile string

	// Optional record event publishing
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Optional cross-process change relay
	RedisURL     string
	RedisChannel string
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend BackendType = "sqlite"
	SheetsBackend BackendType = "sheets"
	MemoryBackend BackendType = "memory"
)

func (bt BackendType) String() string {
	return string(bt)
}

func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, SheetsBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
