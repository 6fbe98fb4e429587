package pricecache

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	priceDomain "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/domain/price"
)

// priceKeys are the object fields a payload may carry its price in, by precedence.
var priceKeys = []string{"price", "last", "close"}

// message is the envelope of both feed shapes. A non-empty Symbol marks an
// incremental update with Data as its payload; otherwise Data is a snapshot
// object keyed by asset.
type message struct {
	Symbol string          `json:"symbol"`
	Data   json.RawMessage `json:"data"`
}

// parseMessage extracts every usable asset price from raw. Unusable entries
// are dropped individually; a snapshot keeps its valid entries.
func parseMessage(raw []byte) map[string]decimal.Decimal {
	var msg message
	if err := json.Unmarshal(raw, &msg); err != nil {
		return nil
	}

	if symbol := normalizeAsset(msg.Symbol); symbol != "" {
		price, ok := parsePayload(msg.Data)
		if !ok {
			return nil
		}
		return map[string]decimal.Decimal{symbol: price}
	}

	if !isObject(msg.Data) {
		return nil
	}

	var snapshot map[string]json.RawMessage
	if err := json.Unmarshal(msg.Data, &snapshot); err != nil {
		return nil
	}

	samples := make(map[string]decimal.Decimal, len(snapshot))
	for asset, payload := range snapshot {
		asset = normalizeAsset(asset)
		if asset == "" {
			continue
		}
		if price, ok := parsePayload(payload); ok {
			samples[asset] = price
		}
	}
	return samples
}

// parsePayload accepts a JSON number, a numeric string, or an object carrying
// one of priceKeys. The first present non-null key decides the outcome.
func parsePayload(payload json.RawMessage) (decimal.Decimal, bool) {
	if !isObject(payload) {
		return parseScalar(payload)
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return decimal.Decimal{}, false
	}

	for _, key := range priceKeys {
		value, ok := fields[key]
		if !ok || isNull(value) {
			continue
		}
		return parseScalar(value)
	}
	return decimal.Decimal{}, false
}

func parseScalar(value json.RawMessage) (decimal.Decimal, bool) {
	value = bytes.TrimSpace(value)
	if len(value) == 0 {
		return decimal.Decimal{}, false
	}

	switch c := value[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return decimal.Decimal{}, false
		}
		return parseDecimal(s)
	case c == '-' || (c >= '0' && c <= '9'):
		return parseDecimal(string(value))
	default:
		return decimal.Decimal{}, false
	}
}

// parseDecimal rejects empty, non-numeric, non-finite and out-of-bounds values.
func parseDecimal(s string) (decimal.Decimal, bool) {
	return priceDomain.ParseDecimal(s)
}

func normalizeAsset(asset string) string {
	return strings.ToLower(strings.TrimSpace(asset))
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
