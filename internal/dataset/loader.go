package dataset

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"

	"customer-insights-engine/internal/cache"
	"customer-insights-engine/internal/observability"
)

// LoadError reports a failed attempt to materialize the dataset: the backing
// resource was missing, unreadable, or did not decode into the expected shape.
// The underlying cause is preserved for errors.Is/As.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("loading customer dataset from %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// Loader materializes the customer graph from its Source and caches it.
// The cached snapshot is immutable; replacing it is one atomic swap, and the
// Loader is the only writer. Readers that hit the cache never take a lock.
type Loader struct {
	src  Source
	snap cache.Snapshot[[]Customer]

	mu sync.Mutex // serializes loads; lazy init runs at most once per miss
}

func NewLoader(src Source) *Loader {
	return &Loader{src: src}
}

// Source names the backing resource, for logs.
func (l *Loader) Source() string { return l.src.Name() }

// ReadCustomers returns the cached snapshot, loading it on first use. A failed
// load installs nothing and surfaces as a *LoadError; the next call tries again.
func (l *Loader) ReadCustomers(ctx context.Context) ([]Customer, error) {
	if cs, ok := l.snap.Load(); ok {
		return cs, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	// another caller may have finished the load while we waited
	if cs, ok := l.snap.Load(); ok {
		return cs, nil
	}
	return l.load(ctx)
}

// ReloadCustomers loads a fresh snapshot, bypassing and replacing the cache.
// On failure the previously cached snapshot, if any, stays installed.
func (l *Loader) ReloadCustomers(ctx context.Context) ([]Customer, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.load(ctx)
}

func (l *Loader) load(ctx context.Context) ([]Customer, error) {
	cs, err := l.src.Load(ctx)
	if err != nil {
		observability.DatasetLoads.WithLabelValues("error").Inc()
		return nil, &LoadError{Source: l.src.Name(), Err: err}
	}
	l.snap.Store(cs)
	observability.DatasetLoads.WithLabelValues("success").Inc()
	observability.DatasetCustomers.Set(float64(len(cs)))
	log.Debug().Str("source", l.src.Name()).Int("customers", len(cs)).Msg("dataset snapshot installed")
	return cs, nil
}
