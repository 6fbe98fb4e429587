package price

import "context"

//go:generate mockgen -source=interface.go -destination=mock/price_mock.go -package=mock

// Cache absorbs raw feed messages and coalesces them into batched store writes.
type Cache interface {
	Ingest(raw []byte)
	Flush(ctx context.Context)
	Close(ctx context.Context)
	Pending() int
}

// Resolver derives market prices from the per-asset prices in the shared store.
type Resolver interface {
	LegPrice(ctx context.Context, asset string) (float64, bool)
	MarketPrice(ctx context.Context, symbol string) (float64, bool)
}
