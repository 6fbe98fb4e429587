package main

import (
	"math/rand/v2"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	orderInfra "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/infrastructure/postgresql/order"
)

func TestParseReferences(t *testing.T) {
	testCases := []struct {
		name    string
		input   string
		want    map[string]float64
		wantErr bool
	}{
		{
			name:  "cross and stable symbols",
			input: "BTC-USDT=65000,ton-btc=0.00008",
			want:  map[string]float64{"btc-usdt": 65000, "ton-btc": 0.00008},
		},
		{
			name:    "symbol without separator",
			input:   "btcusdt=65000",
			wantErr: true,
		},
		{
			name:    "negative price",
			input:   "btc-usdt=-1",
			wantErr: true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseReferences(tc.input)
			if tc.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestGenerateOrders(t *testing.T) {
	refs := map[string]float64{"btc-usdt": 65000, "eth-usdt": 3200}
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	orders := generateOrders(rand.New(rand.NewPCG(7, 8)), refs, 40, 0.02, "otc", now)
	require.Len(t, orders, 40)

	ids := map[string]bool{}
	for _, o := range orders {
		assert.False(t, ids[o.ID], "duplicate id %s", o.ID)
		ids[o.ID] = true

		assert.Equal(t, "otc", o.Broker())
		assert.Equal(t, orderInfra.TypeLimit, o.Type)
		assert.True(t, o.Status.IsOpen())
		assert.True(t, o.CreatedAt.Before(now))

		price, err := decimal.NewFromString(o.Price)
		require.NoError(t, err)
		ref := decimal.NewFromFloat(refs[o.Symbol])
		if o.Side == orderInfra.SideBuy {
			assert.True(t, price.LessThan(ref), "buy %s above reference", o.Price)
		} else {
			assert.True(t, price.GreaterThan(ref), "sell %s below reference", o.Price)
		}
	}
}
