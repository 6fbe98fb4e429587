package crossrate

import (
	"context"
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	mockLogger "github.com/muhammadchandra19/otc-monitor/pkg/logger/mock"
	mockStore "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/infrastructure/redis/price/mock"
	"github.com/stretchr/testify/assert"
)

func TestResolver_MarketPrice(t *testing.T) {
	ctx := context.Background()

	testCases := []struct {
		name      string
		symbol    string
		mockFn    func(store *mockStore.MockPriceStore, log *mockLogger.MockInterface)
		wantPrice float64
		wantOK    bool
	}{
		{
			name:   "quote leg is the stable asset",
			symbol: "btc-usdt",
			mockFn: func(store *mockStore.MockPriceStore, log *mockLogger.MockInterface) {
				store.EXPECT().Get(ctx, "btc").Return("65000", true, nil)
			},
			wantPrice: 65000,
			wantOK:    true,
		},
		{
			name:   "cross rate divides base by quote",
			symbol: "TON-BTC",
			mockFn: func(store *mockStore.MockPriceStore, log *mockLogger.MockInterface) {
				store.EXPECT().Get(ctx, "ton").Return("0.0000035", true, nil)
				store.EXPECT().Get(ctx, "btc").Return("65000", true, nil)
			},
			wantPrice: 0.0000035 / 65000,
			wantOK:    true,
		},
		{
			name:   "stable base leg",
			symbol: "usdt-btc",
			mockFn: func(store *mockStore.MockPriceStore, log *mockLogger.MockInterface) {
				store.EXPECT().Get(ctx, "btc").Return("50000", true, nil)
			},
			wantPrice: 1.0 / 50000,
			wantOK:    true,
		},
		{
			name:   "no separator",
			symbol: "btcusdt",
			mockFn: func(store *mockStore.MockPriceStore, log *mockLogger.MockInterface) {},
		},
		{
			name:   "two separators",
			symbol: "btc-usdt-perp",
			mockFn: func(store *mockStore.MockPriceStore, log *mockLogger.MockInterface) {},
		},
		{
			name:   "empty leg",
			symbol: "btc-",
			mockFn: func(store *mockStore.MockPriceStore, log *mockLogger.MockInterface) {},
		},
		{
			name:   "empty symbol",
			symbol: "",
			mockFn: func(store *mockStore.MockPriceStore, log *mockLogger.MockInterface) {},
		},
		{
			name:   "unknown base leg",
			symbol: "xyz-usdt",
			mockFn: func(store *mockStore.MockPriceStore, log *mockLogger.MockInterface) {
				store.EXPECT().Get(ctx, "xyz").Return("", false, nil)
			},
		},
		{
			name:   "unknown quote leg",
			symbol: "ton-xyz",
			mockFn: func(store *mockStore.MockPriceStore, log *mockLogger.MockInterface) {
				store.EXPECT().Get(ctx, "ton").Return("0.0000035", true, nil)
				store.EXPECT().Get(ctx, "xyz").Return("", false, nil)
			},
		},
		{
			name:   "quote leg is zero",
			symbol: "ton-btc",
			mockFn: func(store *mockStore.MockPriceStore, log *mockLogger.MockInterface) {
				store.EXPECT().Get(ctx, "ton").Return("0.0000035", true, nil)
				store.EXPECT().Get(ctx, "btc").Return("0", true, nil)
			},
		},
		{
			name:   "stored value is not numeric",
			symbol: "btc-usdt",
			mockFn: func(store *mockStore.MockPriceStore, log *mockLogger.MockInterface) {
				store.EXPECT().Get(ctx, "btc").Return("NaN", true, nil)
				log.EXPECT().DebugContext(ctx, "Stored price is not numeric", gomock.Any(), gomock.Any())
			},
		},
		{
			name:   "stored value with exponent out of bounds",
			symbol: "btc-usdt",
			mockFn: func(store *mockStore.MockPriceStore, log *mockLogger.MockInterface) {
				store.EXPECT().Get(ctx, "btc").Return("1e-1000000", true, nil)
				log.EXPECT().DebugContext(ctx, "Stored price is not numeric", gomock.Any(), gomock.Any())
			},
		},
		{
			name:   "lookup error is logged and unknown",
			symbol: "btc-usdt",
			mockFn: func(store *mockStore.MockPriceStore, log *mockLogger.MockInterface) {
				store.EXPECT().Get(ctx, "btc").Return("", false, errors.New("i/o timeout"))
				log.EXPECT().ErrorContext(ctx, gomock.Any(), gomock.Any())
			},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			store := mockStore.NewMockPriceStore(ctrl)
			log := mockLogger.NewMockInterface(ctrl)
			tc.mockFn(store, log)

			price, ok := NewResolver(store, log, "").MarketPrice(ctx, tc.symbol)
			assert.Equal(t, tc.wantOK, ok)
			assert.Equal(t, tc.wantPrice, price)
		})
	}
}

func TestResolver_LegPrice(t *testing.T) {
	ctx := context.Background()
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()

	store := mockStore.NewMockPriceStore(ctrl)
	store.EXPECT().Get(ctx, "usdt").Return("1.0002", true, nil)

	r := NewResolver(store, mockLogger.NewMockInterface(ctrl), "USDC")

	price, ok := r.LegPrice(ctx, "usdc")
	assert.True(t, ok)
	assert.Equal(t, float64(1), price)

	price, ok = r.LegPrice(ctx, "USDT")
	assert.True(t, ok)
	assert.Equal(t, 1.0002, price)

	_, ok = r.LegPrice(ctx, " ")
	assert.False(t, ok)
}
