package pricecache

import (
	"context"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/shopspring/decimal"

	"github.com/muhammadchandra19/otc-monitor/pkg/errors"
	"github.com/muhammadchandra19/otc-monitor/pkg/logger"
	priceDomain "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/domain/price"
	priceInfra "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/infrastructure/redis/price"
)

// DefaultFlushInterval bounds both staleness and store round-trips.
const DefaultFlushInterval = time.Second

// Options configures a cache.
type Options struct {
	FlushInterval time.Duration
	Clock         clock.Clock
}

type cache struct {
	store    priceInfra.PriceStore
	logger   logger.Interface
	clock    clock.Clock
	interval time.Duration

	// mu guards pending, timer and closed.
	mu      sync.Mutex
	pending map[string]decimal.Decimal
	timer   *clock.Timer
	closed  bool

	// flushMu keeps a single flush in flight.
	flushMu sync.Mutex
}

// NewCache creates a write-coalescing price cache in front of store.
func NewCache(store priceInfra.PriceStore, logger logger.Interface, opts Options) priceDomain.Cache {
	if opts.FlushInterval <= 0 {
		opts.FlushInterval = DefaultFlushInterval
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}

	return &cache{
		store:    store,
		logger:   logger,
		clock:    opts.Clock,
		interval: opts.FlushInterval,
		pending:  make(map[string]decimal.Decimal),
	}
}

// Ingest merges every usable price in raw into the pending batch and arms the
// flush timer when it is not already armed. It never blocks on I/O.
func (c *cache) Ingest(raw []byte) {
	samples := parseMessage(raw)
	if len(samples) == 0 {
		c.logger.Debug("Ignored price message", logger.NewField("bytes", len(raw)))
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}

	for asset, price := range samples {
		c.pending[asset] = price
	}

	if c.timer == nil {
		c.timer = c.clock.AfterFunc(c.interval, func() {
			c.Flush(context.Background())
		})
	}
}

// Flush swaps the pending batch out and writes it with one multi-field write.
// Write failures are logged and the batch is dropped.
func (c *cache) Flush(ctx context.Context) {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	c.mu.Lock()
	batch := c.pending
	c.pending = make(map[string]decimal.Decimal)
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.mu.Unlock()

	if len(batch) == 0 {
		return
	}

	values := make(map[string]string, len(batch))
	for asset, price := range batch {
		values[asset] = price.String()
	}

	if err := c.store.SetMany(ctx, values); err != nil {
		c.logger.Error(errors.TracerFromError(err), logger.NewField("assets", len(values)))
		return
	}

	c.logger.Debug("Flushed prices", logger.NewField("assets", len(values)))
}

// Close stops scheduling and writes whatever is still pending.
func (c *cache) Close(ctx context.Context) {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()

	c.Flush(ctx)
}

// Pending returns the number of assets waiting for the next flush.
func (c *cache) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.pending)
}
