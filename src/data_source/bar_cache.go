package datasource

import (
	"container/list"
	"context"
	"fmt"
	"sync"
	"time"

	"forex-signal-bot/src/interfaces"
	"forex-signal-bot/src/logger"
	"forex-signal-bot/src/models"
)

type cacheEntry struct {
	key       string
	bars      models.MBarSeries
	fetchedAt time.Time
}

// -----------------------------------------------------------------------------
// BarCache keeps recently fetched series in memory so the API, the bot and
// the gRPC service do not refetch the same pair within TTL.
// -----------------------------------------------------------------------------

type BarCache struct {
	Source     interfaces.IBarProvider
	TTL        time.Duration
	MaxEntries int
	Logger     *logger.Logger
	Now        func() time.Time

	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front = most recently used
	hits    int
	misses  int
}

// -----------------------------------------------------------------------------

func NewBarCache(source interfaces.IBarProvider, ttl time.Duration, maxEntries int, log *logger.Logger) *BarCache {
	if log == nil {
		log = logger.NewLogger(nil, "BarCache")
	}
	if maxEntries <= 0 {
		maxEntries = 256
	}
	return &BarCache{
		Source:     source,
		TTL:        ttl,
		MaxEntries: maxEntries,
		Logger:     log,
		Now:        time.Now,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
	}
}

// -----------------------------------------------------------------------------

func (c *BarCache) Name() string {
	return "BarCache(" + c.Source.Name() + ")"
}

func (c *BarCache) Supports(pair string) bool {
	return c.Source.Supports(pair)
}

// -----------------------------------------------------------------------------

// FetchBars serves a fresh cached copy or fetches from the wrapped source.
// Errors and empty series are not cached.
func (c *BarCache) FetchBars(ctx context.Context, pair, interval, lookback string) (models.MBarSeries, error) {
	key := fmt.Sprintf("%s|%s|%s", pair, interval, lookback)

	if bars, ok := c.lookup(key); ok {
		return bars, nil
	}

	bars, err := c.Source.FetchBars(ctx, pair, interval, lookback)
	if err != nil || len(bars) == 0 {
		return bars, err
	}

	c.store(key, bars)
	return bars.Clone(), nil
}

// -----------------------------------------------------------------------------

func (c *BarCache) lookup(key string) (models.MBarSeries, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		c.misses++
		return nil, false
	}
	entry := el.Value.(*cacheEntry)
	if c.Now().Sub(entry.fetchedAt) >= c.TTL {
		c.order.Remove(el)
		delete(c.entries, key)
		c.misses++
		return nil, false
	}

	c.order.MoveToFront(el)
	c.hits++
	return entry.bars.Clone(), true
}

// -----------------------------------------------------------------------------

func (c *BarCache) store(key string, bars models.MBarSeries) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value = &cacheEntry{key: key, bars: bars.Clone(), fetchedAt: c.Now()}
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, bars: bars.Clone(), fetchedAt: c.Now()})

	for c.order.Len() > c.MaxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}

// -----------------------------------------------------------------------------

// Stats returns hit and miss counts and the number of cached series.
func (c *BarCache) Stats() (hits, misses, size int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses, c.order.Len()
}

// -----------------------------------------------------------------------------

// Purge drops every cached series.
func (c *BarCache) Purge() {
	c.mu.Lock()
	n := c.order.Len()
	c.entries = make(map[string]*list.Element)
	c.order.Init()
	c.mu.Unlock()

	c.Logger.Info("Purged %d cached series", n)
}
