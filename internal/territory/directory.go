package territory

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	rcron "github.com/robfig/cron/v3"

	"github.com/GuyfromMontana/MFC-single-agent/internal/territory/metrics"
	"github.com/GuyfromMontana/MFC-single-agent/internal/territory/models"
)

// TerritoryLister is the slice of the store the directory rebuilds from.
type TerritoryLister interface {
	ListTerritories(ctx context.Context) ([]*models.Territory, error)
}

// Directory is an in-memory snapshot of every territory, used in place of a
// per-call table scan. Refresh rebuilds the snapshot wholesale and swaps it
// atomically; readers never see a partially built snapshot.
type Directory struct {
	store    TerritoryLister
	snapshot atomic.Pointer[directorySnapshot]
	logger   *slog.Logger
	metrics  *metrics.Metrics
}

type directorySnapshot struct {
	territories []*models.Territory
	loadedAt    time.Time
}

// DirectoryOption configures a Directory.
type DirectoryOption func(*Directory)

func WithDirectoryLogger(logger *slog.Logger) DirectoryOption {
	return func(d *Directory) { d.logger = logger }
}

func WithDirectoryMetrics(m *metrics.Metrics) DirectoryOption {
	return func(d *Directory) { d.metrics = m }
}

// NewDirectory creates an empty directory; call Refresh before use.
func NewDirectory(store TerritoryLister, opts ...DirectoryOption) *Directory {
	d := &Directory{store: store, logger: slog.Default()}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Refresh reloads all territories. On error the previous snapshot stays.
func (d *Directory) Refresh(ctx context.Context) error {
	territories, err := d.store.ListTerritories(ctx)
	d.metrics.ObserveRefresh(len(territories), err)
	if err != nil {
		return fmt.Errorf("refresh territory directory: %w", err)
	}
	d.snapshot.Store(&directorySnapshot{territories: territories, loadedAt: time.Now()})
	d.logger.InfoContext(ctx, "territory directory refreshed", "territories", len(territories))
	return nil
}

// Loaded reports whether a snapshot is available.
func (d *Directory) Loaded() bool {
	return d.snapshot.Load() != nil
}

// LoadedAt returns when the current snapshot was built.
func (d *Directory) LoadedAt() time.Time {
	if s := d.snapshot.Load(); s != nil {
		return s.loadedAt
	}
	return time.Time{}
}

// Match returns the first territory covering county. The boolean is false
// when nothing matches or no snapshot has been loaded.
func (d *Directory) Match(county string) (*models.Territory, bool) {
	s := d.snapshot.Load()
	if s == nil {
		return nil, false
	}
	return matchCounty(s.territories, county)
}

// Schedule registers a periodic Refresh on c. Each run is bounded by timeout.
func (d *Directory) Schedule(c *rcron.Cron, spec string, timeout time.Duration) (rcron.EntryID, error) {
	id, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		if err := d.Refresh(ctx); err != nil {
			d.logger.WarnContext(ctx, "scheduled territory refresh failed", "error", err)
		}
	})
	if err != nil {
		return 0, fmt.Errorf("schedule territory refresh %q: %w", spec, err)
	}
	return id, nil
}

func matchCounty(territories []*models.Territory, county string) (*models.Territory, bool) {
	for _, t := range territories {
		if t.Covers(county) {
			return t, true
		}
	}
	return nil, false
}
