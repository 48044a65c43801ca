package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// DefaultRefreshInterval is how often the refresher polls its source
const DefaultRefreshInterval = 5 * time.Minute

// Refresher polls a Source and swaps a new index into the Store when the dataset
// version advances.
type Refresher struct {
	source   Source
	store    *Store
	interval time.Duration
	logger   *slog.Logger
}

// NewRefresher creates a new Refresher instance
func NewRefresher(source Source, store *Store, interval time.Duration, logger *slog.Logger) *Refresher {
	if interval <= 0 {
		interval = DefaultRefreshInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Refresher{source: source, store: store, interval: interval, logger: logger}
}

// Refresh performs one poll and reports whether a new index was installed
func (r *Refresher) Refresh(ctx context.Context) (bool, error) {
	var current uint64
	if ix, err := r.store.Current(); err == nil {
		current = ix.Version()
	}

	version, err := r.source.Version(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to check catalog version: %w", err)
	}
	if current != 0 && version <= current {
		return false, nil
	}

	ds, err := r.source.Load(ctx)
	if err != nil {
		return false, fmt.Errorf("failed to load catalog: %w", err)
	}
	if current != 0 && ds.Version <= current {
		return false, nil
	}

	ix, err := BuildIndex(ds)
	if err != nil {
		return false, fmt.Errorf("failed to index catalog version %d: %w", ds.Version, err)
	}
	if err := r.store.Swap(ix); err != nil {
		return false, err
	}

	r.logger.Info("Catalog swapped", "version", ix.Version(), "previous_version", current, "items", ix.Len())
	return true, nil
}

// Run polls until ctx is cancelled. Poll failures keep the current snapshot.
func (r *Refresher) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Refresh(ctx); err != nil {
				r.logger.Warn("Catalog refresh failed", "error", err)
			}
		}
	}
}
