package healthcheck

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck_Handler(t *testing.T) {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	testCases := []struct {
		name       string
		method     string
		path       string
		probes     map[string]Probe
		wantStatus int
		assertFn   func(t *testing.T, body []byte)
	}{
		{
			name:       "healthy",
			method:     http.MethodGet,
			path:       "/health",
			probes:     map[string]Probe{"redis": func(context.Context) error { return nil }},
			wantStatus: http.StatusOK,
			assertFn: func(t *testing.T, body []byte) {
				var report Report
				require.NoError(t, json.Unmarshal(body, &report))
				assert.Equal(t, "ok", report.Status)
				assert.Equal(t, "ok", report.Checks["redis"])
			},
		},
		{
			name:   "one probe failing",
			method: http.MethodGet,
			path:   "/health",
			probes: map[string]Probe{
				"redis":      func(context.Context) error { return nil },
				"postgresql": func(context.Context) error { return errors.New("connection refused") },
			},
			wantStatus: http.StatusServiceUnavailable,
			assertFn: func(t *testing.T, body []byte) {
				var report Report
				require.NoError(t, json.Unmarshal(body, &report))
				assert.Equal(t, "unhealthy", report.Status)
				assert.Equal(t, "connection refused", report.Checks["postgresql"])
				assert.Equal(t, "ok", report.Checks["redis"])
			},
		},
		{
			name:       "other path passes through",
			method:     http.MethodGet,
			path:       "/v1/otc/index",
			wantStatus: http.StatusTeapot,
		},
		{
			name:       "post to health passes through",
			method:     http.MethodPost,
			path:       "/health",
			wantStatus: http.StatusTeapot,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(tc.method, tc.path, nil)

			HealthCheck{Probes: tc.probes}.Handler(next).ServeHTTP(rec, req)

			assert.Equal(t, tc.wantStatus, rec.Code)
			if tc.assertFn != nil {
				tc.assertFn(t, rec.Body.Bytes())
			}
		})
	}
}
