package main

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// snapshotMessage carries every asset at once.
type snapshotMessage struct {
	Data map[string]any `json:"data"`
}

// incrementalMessage carries a single asset.
type incrementalMessage struct {
	Symbol string `json:"symbol"`
	Data   any    `json:"data"`
}

// walker moves each asset price by a bounded random step on every tick.
type walker struct {
	rng        *rand.Rand
	volatility float64
	assets     []string
	prices     map[string]float64
}

// parseBasePrices reads "btc=65000,eth=3000" into an asset -> price map.
func parseBasePrices(s string) (map[string]float64, error) {
	prices := make(map[string]float64)
	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		asset, raw, ok := strings.Cut(pair, "=")
		if !ok || asset == "" {
			return nil, fmt.Errorf("invalid base price %q, want asset=price", pair)
		}
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || price <= 0 {
			return nil, fmt.Errorf("invalid base price for %s: %q", asset, raw)
		}
		prices[strings.ToLower(asset)] = price
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("no base prices given")
	}
	return prices, nil
}

func newWalker(rng *rand.Rand, base map[string]float64, volatility float64) *walker {
	w := &walker{
		rng:        rng,
		volatility: volatility,
		prices:     make(map[string]float64, len(base)),
	}
	for asset, price := range base {
		w.assets = append(w.assets, asset)
		w.prices[asset] = price
	}
	sort.Strings(w.assets)
	return w
}

// step moves one asset and returns its new price. Prices never go below zero.
func (w *walker) step(asset string) float64 {
	move := (w.rng.Float64()*2 - 1) * w.volatility
	next := w.prices[asset] * (1 + move)
	if next <= 0 {
		next = w.prices[asset]
	}
	w.prices[asset] = next
	return next
}

// snapshot advances every asset and encodes them in one message. Payload
// shapes rotate between object, string and number so consumers see all three.
func (w *walker) snapshot() ([]byte, error) {
	data := make(map[string]any, len(w.assets))
	for i, asset := range w.assets {
		data[asset] = encodePayload(i, w.step(asset))
	}
	return json.Marshal(snapshotMessage{Data: data})
}

// incremental advances one random asset.
func (w *walker) incremental() (string, []byte, error) {
	asset := w.assets[w.rng.IntN(len(w.assets))]
	raw, err := json.Marshal(incrementalMessage{
		Symbol: asset,
		Data:   encodePayload(w.rng.IntN(3), w.step(asset)),
	})
	return asset, raw, err
}

func encodePayload(shape int, price float64) any {
	value := decimal.NewFromFloat(price).Round(8)
	switch shape % 3 {
	case 0:
		return map[string]string{"price": value.String()}
	case 1:
		return value.String()
	default:
		return value.InexactFloat64()
	}
}
