package datasource

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"forex-signal-bot/src/helpers"
	"forex-signal-bot/src/interfaces"
	"forex-signal-bot/src/logger"
	"forex-signal-bot/src/models"
)

// BarRouter sends each pair to the first registered source that supports it.
// Registration order is routing priority.
type BarRouter struct {
	Logger  *logger.Logger
	mu      sync.RWMutex
	sources []interfaces.IBarProvider
}

// -----------------------------------------------------------------------------

func NewBarRouter(sources []interfaces.IBarProvider, log *logger.Logger) *BarRouter {
	if log == nil {
		log = logger.NewLogger(nil, "BarRouter")
	}
	r := &BarRouter{Logger: log}
	for _, s := range sources {
		if err := r.AddSource(s); err != nil {
			r.Logger.Warning("%v", err)
		}
	}
	return r
}

// -----------------------------------------------------------------------------

// AddSource appends a source at the lowest priority.
func (r *BarRouter) AddSource(source interfaces.IBarProvider) error {
	return r.InsertSource(source, -1)
}

// -----------------------------------------------------------------------------

// InsertSource registers a source at position pos; a negative or
// out-of-range pos appends it.
func (r *BarRouter) InsertSource(source interfaces.IBarProvider, pos int) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := source.Name()
	for _, s := range r.sources {
		if s.Name() == name {
			return fmt.Errorf("source %s already exists", name)
		}
	}
	if pos < 0 || pos >= len(r.sources) {
		r.sources = append(r.sources, source)
	} else {
		r.sources = append(r.sources[:pos], append([]interfaces.IBarProvider{source}, r.sources[pos:]...)...)
	}
	r.Logger.Info("Added source: %s", name)
	return nil
}

// -----------------------------------------------------------------------------

// RemoveSource drops a source by name.
func (r *BarRouter) RemoveSource(name string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, s := range r.sources {
		if s.Name() == name {
			r.sources = append(r.sources[:i], r.sources[i+1:]...)
			r.Logger.Info("Removed source: %s", name)
			return nil
		}
	}
	return fmt.Errorf("source %s not found", name)
}

// -----------------------------------------------------------------------------

// SourceNames lists registered sources in priority order.
func (r *BarRouter) SourceNames() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.sources))
	for i, s := range r.sources {
		names[i] = s.Name()
	}
	return names
}

// -----------------------------------------------------------------------------

// Route returns the source that serves pair.
func (r *BarRouter) Route(pair string) (interfaces.IBarProvider, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, s := range r.sources {
		if s.Supports(pair) {
			return s, nil
		}
	}
	return nil, helpers.NewDataSourceError(fmt.Sprintf("no data source for %s", strings.ToUpper(pair)), nil)
}

// -----------------------------------------------------------------------------

func (r *BarRouter) Name() string {
	return "BarRouter"
}

// -----------------------------------------------------------------------------

func (r *BarRouter) Supports(pair string) bool {
	_, err := r.Route(pair)
	return err == nil
}

// -----------------------------------------------------------------------------

// FetchBars delegates to the routed source.
func (r *BarRouter) FetchBars(ctx context.Context, pair, interval, lookback string) (models.MBarSeries, error) {
	src, err := r.Route(pair)
	if err != nil {
		return nil, err
	}
	r.Logger.Debug("Routing %s %s to %s", pair, interval, src.Name())
	return src.FetchBars(ctx, pair, interval, lookback)
}
