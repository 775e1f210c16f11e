package services

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"tutorbook/internal/aggregate"
	"tutorbook/internal/cache"
	"tutorbook/internal/core"
	"tutorbook/internal/notify"
	"tutorbook/internal/records"
	"tutorbook/internal/report"
)

const (
	DefaultSnapshotTTL  = 5 * time.Minute
	DefaultSnapshotSize = 256
)

// Snapshot is everything the dashboard shows for one user.
type Snapshot struct {
	Balance       report.BalanceView                  `json:"balance"`
	Students      []report.StudentRow                 `json:"students"`
	LatestAmounts *aggregate.Ordered[decimal.Decimal] `json:"latestAmounts"`
	Income        *aggregate.Totals                   `json:"monthlyIncome"`
	Expenses      *aggregate.Totals                   `json:"monthlyExpenses"`
	Series        report.ChartSeries                  `json:"series"`
	GeneratedAt   time.Time                           `json:"generatedAt"`
}

// Charts holds both dashboard chart configurations.
type Charts struct {
	IncomeExpense report.ChartConfig `json:"incomeExpense"`
	Expenses      report.ChartConfig `json:"expenses"`
}

type DashboardConfig struct {
	Bucketing aggregate.Bucketing
	CacheTTL  time.Duration
	CacheSize int
}

// Dashboard builds and caches per-user snapshots. Cached snapshots are
// dropped as soon as the hub reports a change for that user.
type Dashboard struct {
	reader records.Reader
	hub    *notify.Hub
	bucket aggregate.BucketFunc
	cache  *cache.LRU[string, *Snapshot]
	logger *slog.Logger

	mu          sync.Mutex
	generations map[string]uint64
	watching    map[string][]func()
}

func NewDashboard(reader records.Reader, hub *notify.Hub, cfg DashboardConfig, logger *slog.Logger) *Dashboard {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = DefaultSnapshotTTL
	}
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultSnapshotSize
	}
	return &Dashboard{
		reader:      reader,
		hub:         hub,
		bucket:      cfg.Bucketing.Func(),
		cache:       cache.NewLRU[string, *Snapshot](cfg.CacheSize, cfg.CacheTTL),
		logger:      logger,
		generations: make(map[string]uint64),
		watching:    make(map[string][]func()),
	}
}

// Cache exposes the snapshot cache to the janitor.
func (d *Dashboard) Cache() cache.Cleaner { return d.cache }

// Snapshot returns the cached snapshot or builds a fresh one.
func (d *Dashboard) Snapshot(ctx context.Context, userID string) (*Snapshot, error) {
	if s, ok := d.cache.Get(userID); ok {
		return s, nil
	}

	gen := d.track(userID)
	s, err := d.build(ctx, userID)
	if err != nil {
		return nil, err
	}

	d.mu.Lock()
	if d.generations[userID] == gen {
		d.cache.Set(userID, s)
	}
	d.mu.Unlock()
	return s, nil
}

func (d *Dashboard) build(ctx context.Context, userID string) (*Snapshot, error) {
	var (
		payments []core.PaymentRecord
		expenses []core.ExpenseRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		payments, err = d.reader.FetchAllPayments(gctx, userID)
		return err
	})
	g.Go(func() error {
		var err error
		expenses, err = d.reader.FetchAllExpenses(gctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summaries, err := aggregate.SummarizeByStudent(payments)
	if err != nil {
		return nil, err
	}
	latest, err := aggregate.LatestAmountByStudent(payments)
	if err != nil {
		return nil, err
	}
	income, err := aggregate.PaymentTotals(payments, d.bucket)
	if err != nil {
		return nil, err
	}
	spent, err := aggregate.ExpenseTotals(expenses, d.bucket)
	if err != nil {
		return nil, err
	}

	d.logger.DebugContext(ctx, "Dashboard snapshot built",
		"user_id", userID, "payments", len(payments), "expenses", len(expenses))

	return &Snapshot{
		Balance:       report.FormatBalance(aggregate.ComputeBalance(payments, expenses)),
		Students:      report.BuildStudentRows(summaries),
		LatestAmounts: latest,
		Income:        income,
		Expenses:      spent,
		Series:        report.BuildChartSeries(income, spent),
		GeneratedAt:   time.Now().UTC(),
	}, nil
}

// Charts renders the chart configurations for a viewport width.
func (d *Dashboard) Charts(ctx context.Context, userID string, width int) (Charts, error) {
	s, err := d.Snapshot(ctx, userID)
	if err != nil {
		return Charts{}, err
	}
	return Charts{
		IncomeExpense: report.IncomeExpenseChart(s.Series, width),
		Expenses:      report.ExpenseChart(s.Expenses, width),
	}, nil
}

// Invalidate drops the cached snapshot for userID.
func (d *Dashboard) Invalidate(userID string) {
	d.mu.Lock()
	d.generations[userID]++
	d.cache.Delete(userID)
	d.mu.Unlock()
}

// track returns the current generation and makes sure hub events for
// userID invalidate its cache entry.
func (d *Dashboard) track(userID string) uint64 {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.watching[userID]; !ok && d.hub != nil {
		onChange := func(notify.Event) { d.Invalidate(userID) }
		d.watching[userID] = []func(){
			d.hub.Subscribe(userID, core.CollectionPayments, onChange),
			d.hub.Subscribe(userID, core.CollectionExpenses, onChange),
		}
	}
	return d.generations[userID]
}

// Watch calls fn with a fresh snapshot after every change to the user's
// records. Rebuild failures are logged and skipped.
func (d *Dashboard) Watch(userID string, fn func(*Snapshot)) (cancel func()) {
	if d.hub == nil {
		return func() {}
	}
	onChange := func(ev notify.Event) {
		d.Invalidate(userID)
		ctx, done := context.WithTimeout(context.Background(), 10*time.Second)
		defer done()
		s, err := d.Snapshot(ctx, userID)
		if err != nil {
			d.logger.Warn("Dashboard refresh failed",
				"user_id", userID, "collection", ev.Collection, "error", err)
			return
		}
		fn(s)
	}
	cancels := []func(){
		d.hub.Subscribe(userID, core.CollectionPayments, onChange),
		d.hub.Subscribe(userID, core.CollectionExpenses, onChange),
	}
	return func() {
		for _, c := range cancels {
			c()
		}
	}
}

// Close stops cache invalidation subscriptions.
func (d *Dashboard) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for user, cancels := range d.watching {
		for _, c := range cancels {
			c()
		}
		delete(d.watching, user)
	}
}
