package crossrate

import (
	"context"
	"strings"

	"github.com/muhammadchandra19/otc-monitor/pkg/errors"
	"github.com/muhammadchandra19/otc-monitor/pkg/logger"
	priceDomain "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/domain/price"
	priceInfra "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/infrastructure/redis/price"
)

// DefaultStableAsset is the asset every stored price is quoted in.
const DefaultStableAsset = "usdt"

const separator = "-"

type resolver struct {
	store       priceInfra.PriceStore
	logger      logger.Interface
	stableAsset string
}

// NewResolver creates a Resolver over store. An empty stableAsset uses DefaultStableAsset.
func NewResolver(store priceInfra.PriceStore, logger logger.Interface, stableAsset string) priceDomain.Resolver {
	stableAsset = strings.ToLower(strings.TrimSpace(stableAsset))
	if stableAsset == "" {
		stableAsset = DefaultStableAsset
	}

	return &resolver{
		store:       store,
		logger:      logger,
		stableAsset: stableAsset,
	}
}

// LegPrice returns the stable-quoted price of asset. The stable asset is
// always 1. Absent, unreadable and non-finite values are unknown.
func (r *resolver) LegPrice(ctx context.Context, asset string) (float64, bool) {
	asset = strings.ToLower(strings.TrimSpace(asset))
	if asset == "" {
		return 0, false
	}
	if asset == r.stableAsset {
		return 1, true
	}

	raw, ok, err := r.store.Get(ctx, asset)
	if err != nil {
		r.logger.ErrorContext(ctx, errors.TracerFromError(err), logger.NewField("asset", asset))
		return 0, false
	}
	if !ok {
		return 0, false
	}

	price, ok := priceDomain.ParseFloat(raw)
	if !ok {
		r.logger.DebugContext(ctx, "Stored price is not numeric",
			logger.NewField("asset", asset),
			logger.NewField("value", raw),
		)
		return 0, false
	}
	return price, true
}

// MarketPrice returns base/quote for a "base-quote" symbol, or unknown when
// the symbol is malformed, a leg is unknown, or the quote leg is zero.
func (r *resolver) MarketPrice(ctx context.Context, symbol string) (float64, bool) {
	legs := strings.Split(strings.ToLower(strings.TrimSpace(symbol)), separator)
	if len(legs) != 2 || legs[0] == "" || legs[1] == "" {
		return 0, false
	}

	base, ok := r.LegPrice(ctx, legs[0])
	if !ok {
		return 0, false
	}

	quote, ok := r.LegPrice(ctx, legs[1])
	if !ok || quote == 0 {
		return 0, false
	}

	return base / quote, true
}
