package backend

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tutorbook/internal/adapters"
	"tutorbook/internal/amqp"
	"tutorbook/internal/notify"
	"tutorbook/internal/records"
	"tutorbook/internal/records/google"
	"tutorbook/internal/records/memory"
	"tutorbook/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &DefaultFactory{logger: logger}
}

// resources collects cleanup and readiness checks in creation order.
type resources struct {
	closers []func() error
	checks  []ReadyFunc
}

func (r *resources) cleanup() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (r *resources) ready(ctx context.Context) error {
	for _, check := range r.checks {
		if err := check(ctx); err != nil {
			return err
		}
	}
	return nil
}

// CreateBackend builds the storage backend, then layers AMQP publishing and
// live subscriptions on top of it.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	res := &resources{}
	base, err := f.createStorage(ctx, config, res)
	if err != nil {
		_ = res.cleanup()
		return nil, err
	}

	var backend records.Backend = base
	if config.AMQPURL != "" {
		client, err := amqp.NewClient(config.AMQPURL, config.AMQPExchange, config.AMQPQueue, f.logger)
		if err != nil {
			f.logger.Warn("Failed to initialize AMQP client, continuing without mirroring", "error", err)
		} else {
			f.logger.Info("Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			res.closers = append(res.closers, client.Close)
			res.checks = append(res.checks, func(context.Context) error {
				if client.IsClosed() {
					return errors.New("amqp connection closed")
				}
				return nil
			})
			backend = adapters.NewPublishingBackend(base, client, f.logger)
		}
	}

	hub := notify.NewHub()
	var publisher notify.Publisher
	if config.RedisURL != "" {
		n, err := f.startRedis(ctx, config, hub, res)
		if err != nil {
			_ = res.cleanup()
			return nil, err
		}
		publisher = n
	}

	f.logger.Info("Initialized record store",
		"backend", config.Type,
		"amqp_enabled", backend != base,
		"redis_enabled", publisher != nil)

	return &BackendResult{
		Store:   records.NewLive(backend, hub, publisher, f.logger),
		Hub:     hub,
		Ready:   res.ready,
		Cleanup: res.cleanup,
	}, nil
}

func (f *DefaultFactory) createStorage(ctx context.Context, config Config, res *resources) (records.Backend, error) {
	switch config.Type {
	case SQLiteBackend:
		repo, err := storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		res.closers = append(res.closers, repo.Close)
		res.checks = append(res.checks, repo.Ping)
		f.logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
		return repo, nil

	case SheetsBackend:
		cli, err := NewSheetsClient(ctx, config, f.logger)
		if err != nil {
			return nil, err
		}
		f.logger.Info("Initialized Google Sheets backend", "spreadsheet_id", config.GoogleSpreadsheetID)
		return cli, nil

	case MemoryBackend:
		store, err := memory.NewFromFile(config.MemorySeedFile)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize memory backend: %w", err)
		}
		f.logger.Info("Initialized memory backend", "seed_file", config.MemorySeedFile)
		return store, nil

	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}

func (f *DefaultFactory) startRedis(ctx context.Context, config Config, hub *notify.Hub, res *resources) (*notify.RedisNotifier, error) {
	client, err := notify.NewRedisClient(ctx, config.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Redis: %w", err)
	}
	res.closers = append(res.closers, client.Close)
	res.checks = append(res.checks, func(ctx context.Context) error {
		return client.Ping(ctx).Err()
	})

	n := notify.NewRedisNotifier(client, hub, config.RedisChannel, f.logger)
	// The relay outlives the constructor context; Close stops it.
	if err := n.Start(context.WithoutCancel(ctx)); err != nil {
		return nil, err
	}
	res.closers = append(res.closers, n.Close)
	f.logger.Info("Initialized Redis change relay", "channel", config.RedisChannel)
	return n, nil
}

// NewSheetsClient opens the spreadsheet with service account credentials.
func NewSheetsClient(ctx context.Context, config Config, logger *slog.Logger) (*google.Client, error) {
	opts, err := google.CredentialOptions(config.GoogleServiceAccountJSON, config.GoogleServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("google credentials: %w", err)
	}
	cli, err := google.New(ctx, config.SheetsConfig(), logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Google Sheets client: %w", err)
	}
	return cli, nil
}
