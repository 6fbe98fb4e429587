package main

import (
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"

	orderInfra "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/infrastructure/postgresql/order"
)

// parseReferences reads "btc-usdt=65000,ton-btc=0.00008" into symbol -> price.
func parseReferences(s string) (map[string]float64, error) {
	refs := make(map[string]float64)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		symbol, raw, ok := strings.Cut(pair, "=")
		if !ok || strings.Count(symbol, "-") != 1 {
			return nil, fmt.Errorf("invalid reference %q, want base-quote=price", pair)
		}
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || price <= 0 {
			return nil, fmt.Errorf("invalid reference price for %s: %q", symbol, raw)
		}
		refs[strings.ToLower(symbol)] = price
	}
	if len(refs) == 0 {
		return nil, fmt.Errorf("no reference prices given")
	}
	return refs, nil
}

// generateOrders creates count open limit orders spread around each reference
// price. Buys rest below the reference and sells above it, so none of them
// trigger until the market moves by up to spread.
func generateOrders(rng *rand.Rand, refs map[string]float64, count int, spread float64, broker string, now time.Time) []*orderInfra.Order {
	symbols := make([]string, 0, len(refs))
	for symbol := range refs {
		symbols = append(symbols, symbol)
	}
	sort.Strings(symbols)

	orders := make([]*orderInfra.Order, 0, count)
	for i := range count {
		symbol := symbols[i%len(symbols)]
		offset := refs[symbol] * spread * (0.1 + 0.9*rng.Float64())

		side := orderInfra.SideBuy
		price := refs[symbol] - offset
		if rng.IntN(2) == 1 {
			side = orderInfra.SideSell
			price = refs[symbol] + offset
		}

		status := orderInfra.StatusNew
		if rng.IntN(4) == 0 {
			status = orderInfra.StatusPartiallyFilled
		}

		createdAt := now.Add(-time.Duration(count-i) * time.Second)
		orders = append(orders, &orderInfra.Order{
			ID:        ulid.MustNew(ulid.Timestamp(createdAt), ulid.DefaultEntropy()).String(),
			UserID:    fmt.Sprintf("user-%03d", rng.IntN(100)),
			Symbol:    symbol,
			Side:      side,
			Price:     decimal.NewFromFloat(price).Round(8).String(),
			Quantity:  decimal.NewFromFloat(0.01 + rng.Float64()*5).Round(4).String(),
			Status:    status,
			Type:      orderInfra.TypeLimit,
			Meta:      map[string]any{"broker": broker},
			CreatedAt: createdAt,
			UpdatedAt: createdAt,
		})
	}

	return orders
}
