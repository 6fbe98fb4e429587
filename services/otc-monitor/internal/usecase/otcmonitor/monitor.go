package otcmonitor

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/benbjohnson/clock"

	"github.com/muhammadchandra19/otc-monitor/pkg/errors"
	"github.com/muhammadchandra19/otc-monitor/pkg/logger"
	"github.com/muhammadchandra19/otc-monitor/pkg/scheduler"
	"github.com/muhammadchandra19/otc-monitor/pkg/util"
	executionDomain "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/domain/execution"
	otcDomain "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/domain/otc"
	priceDomain "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/domain/price"
	orderInfra "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/infrastructure/postgresql/order"
)

// Defaults applied by NewMonitor.
const (
	DefaultRefreshInterval = 2 * time.Minute
	DefaultBroker          = "otc"
)

var openStatuses = []orderInfra.Status{orderInfra.StatusNew, orderInfra.StatusPartiallyFilled}

// Options configures a monitor.
type Options struct {
	RefreshInterval time.Duration
	Broker          string
	Clock           clock.Clock
}

type monitor struct {
	orders   orderInfra.OrderRepository
	resolver priceDomain.Resolver
	executor executionDomain.Executor
	logger   logger.Interface
	clock    clock.Clock
	broker   string

	started   atomic.Bool
	scheduler *scheduler.Scheduler

	// refreshMu keeps a single refresh in flight.
	refreshMu sync.Mutex

	// indexMu guards index. Slices in index are never mutated in place.
	indexMu sync.RWMutex
	index   map[string][]*orderInfra.Order

	// claimedMu guards claimed, the ids handed off while still open.
	claimedMu sync.Mutex
	claimed   map[string]struct{}
}

// NewMonitor creates the resting order monitor.
func NewMonitor(
	orders orderInfra.OrderRepository,
	resolver priceDomain.Resolver,
	executor executionDomain.Executor,
	logger logger.Interface,
	opts Options,
) otcDomain.Monitor {
	if opts.RefreshInterval <= 0 {
		opts.RefreshInterval = DefaultRefreshInterval
	}
	if opts.Broker == "" {
		opts.Broker = DefaultBroker
	}
	if opts.Clock == nil {
		opts.Clock = clock.New()
	}

	m := &monitor{
		orders:   orders,
		resolver: resolver,
		executor: executor,
		logger:   logger,
		clock:    opts.Clock,
		broker:   opts.Broker,
		index:    make(map[string][]*orderInfra.Order),
		claimed:  make(map[string]struct{}),
	}

	m.scheduler = scheduler.New(m.runCycle, logger, scheduler.Options{
		Name:       "otc-order-refresh",
		Interval:   opts.RefreshInterval,
		RunOnStart: true,
		Clock:      opts.Clock,
	})

	return m
}

// Start refreshes once and then on every interval. Calls after the first are no-ops.
func (m *monitor) Start(ctx context.Context) error {
	if !m.started.CompareAndSwap(false, true) {
		return nil
	}

	if err := m.scheduler.Start(ctx); err != nil {
		m.started.Store(false)
		return err
	}
	return nil
}

// Stop halts scheduling and waits for the in-flight cycle, bounded by ctx.
func (m *monitor) Stop(ctx context.Context) error {
	if !m.started.Load() {
		return nil
	}
	return m.scheduler.Stop(ctx)
}

// Initialized reports whether Start has been called.
func (m *monitor) Initialized() bool {
	return m.started.Load()
}

func (m *monitor) runCycle(ctx context.Context) {
	ctx = util.WithRequestID(ctx, "")
	_ = m.Refresh(ctx)
}

// Refresh rebuilds the index from the open orders tagged with the broker and
// evaluates every indexed symbol. On query failure the previous index stays.
func (m *monitor) Refresh(ctx context.Context) error {
	m.refreshMu.Lock()
	defer m.refreshMu.Unlock()

	page, err := m.orders.List(ctx, orderInfra.Filter{
		Statuses:      openStatuses,
		SortField:     orderInfra.SortByCreatedAt,
		SortDirection: "DESC",
	})
	if err != nil {
		m.logger.ErrorContext(ctx, errors.TracerFromError(err), logger.NewField("action", "refresh_open_orders"))
		return err
	}

	index := make(map[string][]*orderInfra.Order)
	open := make(map[string]struct{}, len(page.Data))
	total := 0
	for _, o := range page.Data {
		if o == nil || o.Broker() != m.broker {
			continue
		}
		index[o.Symbol] = append(index[o.Symbol], o)
		open[o.ID] = struct{}{}
		total++
	}

	m.indexMu.Lock()
	m.index = index
	m.indexMu.Unlock()

	m.releaseClosed(ctx, open)

	m.logger.InfoContext(ctx, "Refreshed open orders",
		logger.NewField("orders", total),
		logger.NewField("symbols", len(index)),
	)

	symbols := make([]string, 0, len(index))
	for symbol := range index {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	for _, symbol := range symbols {
		m.EvaluateSymbol(ctx, symbol)
	}

	return nil
}

// EvaluateSymbol checks every indexed order of symbol against the current
// market price and hands each triggered order to the executor.
func (m *monitor) EvaluateSymbol(ctx context.Context, symbol string) []executionDomain.Trigger {
	triggers := m.decide(ctx, symbol)

	for _, trigger := range triggers {
		m.handOff(ctx, trigger)
	}

	return triggers
}

func (m *monitor) decide(ctx context.Context, symbol string) []executionDomain.Trigger {
	current, ok := m.resolver.MarketPrice(ctx, symbol)
	if !ok {
		m.logger.DebugContext(ctx, "Market price unknown", logger.NewField("symbol", symbol))
		return nil
	}

	m.indexMu.RLock()
	orders := m.index[symbol]
	m.indexMu.RUnlock()

	now := m.clock.Now()
	var triggers []executionDomain.Trigger
	for _, o := range orders {
		if !o.Status.IsOpen() {
			continue
		}
		if o.Type != "" && o.Type != orderInfra.TypeLimit {
			continue
		}

		limit, ok := parsePrice(o.Price)
		if !ok {
			continue
		}

		if !crossed(o.Side, current, limit) {
			continue
		}

		triggers = append(triggers, executionDomain.Trigger{
			Order:       o,
			MarketPrice: current,
			LimitPrice:  limit,
			At:          now,
		})
	}

	return triggers
}

func (m *monitor) handOff(ctx context.Context, trigger executionDomain.Trigger) {
	fields := []logger.Field{
		logger.NewField("order_id", trigger.Order.ID),
		logger.NewField("symbol", trigger.Order.Symbol),
	}

	err := m.executor.Execute(ctx, trigger)
	switch {
	case err == nil:
		m.markClaimed(trigger.Order.ID)
		m.removeFromIndex(trigger.Order)
	case errors.ErrorCodeEquals(err, errors.ExecutionAlreadyClaimed):
		m.logger.DebugContext(ctx, "Order already handed off", fields...)
		m.markClaimed(trigger.Order.ID)
		m.removeFromIndex(trigger.Order)
	default:
		m.logger.ErrorContext(ctx, errors.TracerFromError(err), fields...)
	}
}

func (m *monitor) markClaimed(id string) {
	m.claimedMu.Lock()
	m.claimed[id] = struct{}{}
	m.claimedMu.Unlock()
}

// releaseClosed releases the claims of handed-off orders that are no longer
// open. Failed releases are kept and retried on the next refresh.
func (m *monitor) releaseClosed(ctx context.Context, open map[string]struct{}) {
	m.claimedMu.Lock()
	var closed []string
	for id := range m.claimed {
		if _, ok := open[id]; !ok {
			closed = append(closed, id)
		}
	}
	m.claimedMu.Unlock()
	sort.Strings(closed)

	for _, id := range closed {
		if err := m.executor.Release(ctx, id); err != nil {
			m.logger.ErrorContext(ctx, errors.TracerFromError(err), logger.NewField("order_id", id))
			continue
		}

		m.claimedMu.Lock()
		delete(m.claimed, id)
		m.claimedMu.Unlock()
	}
}

// removeFromIndex drops a handed-off order until the next refresh rebuilds the index.
func (m *monitor) removeFromIndex(o *orderInfra.Order) {
	m.indexMu.Lock()
	defer m.indexMu.Unlock()

	current := m.index[o.Symbol]
	kept := make([]*orderInfra.Order, 0, len(current))
	for _, candidate := range current {
		if candidate.ID != o.ID {
			kept = append(kept, candidate)
		}
	}

	if len(kept) == 0 {
		delete(m.index, o.Symbol)
		return
	}
	m.index[o.Symbol] = kept
}

// Index returns the number of indexed orders per symbol.
func (m *monitor) Index() map[string]int {
	m.indexMu.RLock()
	defer m.indexMu.RUnlock()

	counts := make(map[string]int, len(m.index))
	for symbol, orders := range m.index {
		counts[symbol] = len(orders)
	}
	return counts
}

// crossed reports whether the market has reached the limit from the order's side.
func crossed(side orderInfra.Side, current, limit float64) bool {
	switch side {
	case orderInfra.SideBuy:
		return current <= limit
	case orderInfra.SideSell:
		return current >= limit
	default:
		return false
	}
}

func parsePrice(raw string) (float64, bool) {
	return priceDomain.ParseFloat(raw)
}
