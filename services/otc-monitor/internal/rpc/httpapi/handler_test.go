package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/muhammadchandra19/otc-monitor/pkg/httplib/healthcheck"
	mockLogger "github.com/muhammadchandra19/otc-monitor/pkg/logger/mock"
	mockOtc "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/domain/otc/mock"
	mockPrice "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/domain/price/mock"
	mockStore "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/infrastructure/redis/price/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	monitor  *mockOtc.MockMonitor
	resolver *mockPrice.MockResolver
	prices   *mockStore.MockPriceStore
	logger   *mockLogger.MockInterface
}

func newFixture(t *testing.T) *fixture {
	ctrl := gomock.NewController(t)
	f := &fixture{
		monitor:  mockOtc.NewMockMonitor(ctrl),
		resolver: mockPrice.NewMockResolver(ctrl),
		prices:   mockStore.NewMockPriceStore(ctrl),
		logger:   mockLogger.NewMockInterface(ctrl),
	}
	f.logger.EXPECT().DebugContext(gomock.Any(), "Handled request", gomock.Any()).AnyTimes()
	return f
}

func (f *fixture) routes(health healthcheck.HealthCheck, origins ...string) http.Handler {
	return NewHandler(f.monitor, f.resolver, f.prices, f.logger).Routes(health, origins)
}

func TestHandler_Routes(t *testing.T) {
	testCases := []struct {
		name       string
		method     string
		target     string
		mockFn     func(f *fixture)
		wantStatus int
		wantBody   string
	}{
		{
			name:   "known market price",
			method: http.MethodGet,
			target: "/v1/markets/ton-btc/price",
			mockFn: func(f *fixture) {
				f.resolver.EXPECT().MarketPrice(gomock.Any(), "ton-btc").Return(0.5, true)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"symbol":"ton-btc","price":0.5}`,
		},
		{
			name:   "unknown market price",
			method: http.MethodGet,
			target: "/v1/markets/doge-usdt/price",
			mockFn: func(f *fixture) {
				f.resolver.EXPECT().MarketPrice(gomock.Any(), "doge-usdt").Return(0.0, false)
			},
			wantStatus: http.StatusNotFound,
			wantBody:   `{"error":"price unknown for doge-usdt"}`,
		},
		{
			name:   "all stored prices",
			method: http.MethodGet,
			target: "/v1/prices",
			mockFn: func(f *fixture) {
				f.prices.EXPECT().All(gomock.Any()).Return(map[string]string{"btc": "65000", "eth": "3000"}, nil)
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"btc":"65000","eth":"3000"}`,
		},
		{
			name:   "price store down",
			method: http.MethodGet,
			target: "/v1/prices",
			mockFn: func(f *fixture) {
				f.prices.EXPECT().All(gomock.Any()).Return(nil, errors.New("connection refused"))
				f.logger.EXPECT().ErrorContext(gomock.Any(), gomock.Any())
			},
			wantStatus: http.StatusBadGateway,
			wantBody:   `{"error":"price store unavailable"}`,
		},
		{
			name:   "order index",
			method: http.MethodGet,
			target: "/v1/otc/index",
			mockFn: func(f *fixture) {
				f.monitor.EXPECT().Initialized().Return(true)
				f.monitor.EXPECT().Index().Return(map[string]int{"btc-usdt": 2})
			},
			wantStatus: http.StatusOK,
			wantBody:   `{"initialized":true,"symbols":{"btc-usdt":2}}`,
		},
		{
			name:   "refresh accepted",
			method: http.MethodPost,
			target: "/v1/otc/refresh",
			mockFn: func(f *fixture) {
				f.monitor.EXPECT().Refresh(gomock.Any()).Return(nil)
				f.monitor.EXPECT().Initialized().Return(true)
				f.monitor.EXPECT().Index().Return(map[string]int{"eth-usdt": 1})
			},
			wantStatus: http.StatusAccepted,
			wantBody:   `{"initialized":true,"symbols":{"eth-usdt":1}}`,
		},
		{
			name:   "refresh failed",
			method: http.MethodPost,
			target: "/v1/otc/refresh",
			mockFn: func(f *fixture) {
				f.monitor.EXPECT().Refresh(gomock.Any()).Return(errors.New("query failed"))
			},
			wantStatus: http.StatusBadGateway,
			wantBody:   `{"error":"order query failed"}`,
		},
		{
			name:       "refresh requires POST",
			method:     http.MethodGet,
			target:     "/v1/otc/refresh",
			mockFn:     func(f *fixture) {},
			wantStatus: http.StatusMethodNotAllowed,
		},
		{
			name:       "health without probes",
			method:     http.MethodGet,
			target:     "/health",
			mockFn:     func(f *fixture) {},
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok"}`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f := newFixture(t)
			tc.mockFn(f)

			rec := httptest.NewRecorder()
			f.routes(healthcheck.HealthCheck{}).ServeHTTP(rec, httptest.NewRequest(tc.method, tc.target, nil))

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.wantBody != "" {
				assert.JSONEq(t, tc.wantBody, rec.Body.String())
			}
		})
	}
}

func TestHandler_HealthProbeFailure(t *testing.T) {
	f := newFixture(t)
	health := healthcheck.HealthCheck{
		Probes: map[string]healthcheck.Probe{
			"redis":      func(ctx context.Context) error { return errors.New("dial tcp: refused") },
			"postgresql": func(ctx context.Context) error { return nil },
		},
	}

	rec := httptest.NewRecorder()
	f.routes(health).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	var report healthcheck.Report
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.Equal(t, "unhealthy", report.Status)
	assert.Equal(t, "ok", report.Checks["postgresql"])
	assert.Equal(t, "dial tcp: refused", report.Checks["redis"])
}

func TestHandler_RefreshOutlivesClientDisconnect(t *testing.T) {
	f := newFixture(t)
	f.monitor.EXPECT().
		Refresh(gomock.Any()).
		DoAndReturn(func(ctx context.Context) error {
			assert.NoError(t, ctx.Err())
			_, hasDeadline := ctx.Deadline()
			assert.True(t, hasDeadline)
			return nil
		})
	f.monitor.EXPECT().Initialized().Return(true)
	f.monitor.EXPECT().Index().Return(map[string]int{"btc-usdt": 1})

	gone, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodPost, "/v1/otc/refresh", nil).WithContext(gone)
	rec := httptest.NewRecorder()
	f.routes(healthcheck.HealthCheck{}).ServeHTTP(rec, req)

	assert.Equal(t, http.StatusAccepted, rec.Code)
}

func TestHandler_RequestID(t *testing.T) {
	f := newFixture(t)
	f.monitor.EXPECT().Initialized().Return(false)
	f.monitor.EXPECT().Index().Return(map[string]int{})

	req := httptest.NewRequest(http.MethodGet, "/v1/otc/index", nil)
	req.Header.Set("X-Request-ID", "req-42")
	rec := httptest.NewRecorder()
	f.routes(healthcheck.HealthCheck{}).ServeHTTP(rec, req)

	assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
}

func TestHandler_CORS(t *testing.T) {
	f := newFixture(t)
	handler := f.routes(healthcheck.HealthCheck{}, "https://ops.example.com")

	req := httptest.NewRequest(http.MethodOptions, "/v1/otc/refresh", nil)
	req.Header.Set("Origin", "https://ops.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "https://ops.example.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodOptions, "/v1/otc/refresh", nil)
	req.Header.Set("Origin", "https://evil.example.com")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
