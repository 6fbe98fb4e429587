package httpapi

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/muhammadchandra19/otc-monitor/pkg/httplib/healthcheck"
	"github.com/muhammadchandra19/otc-monitor/pkg/logger"
	"github.com/muhammadchandra19/otc-monitor/pkg/util"
)

const requestIDHeader = "X-Request-ID"

// Routes builds the admin router. GET /health is answered by health before
// routing; allowedOrigins enables CORS for browser dashboards when non-empty.
func (h *Handler) Routes(health healthcheck.HealthCheck, allowedOrigins []string) http.Handler {
	router := mux.NewRouter()
	router.Use(h.requestID, h.accessLog)

	api := router.PathPrefix("/v1").Subrouter()
	api.HandleFunc("/markets/{symbol}/price", h.getMarketPrice).Methods(http.MethodGet)
	api.HandleFunc("/prices", h.listPrices).Methods(http.MethodGet)
	api.HandleFunc("/otc/index", h.getIndex).Methods(http.MethodGet)
	api.HandleFunc("/otc/refresh", h.refresh).Methods(http.MethodPost)

	var handler http.Handler = health.Handler(router)
	if len(allowedOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins: allowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", requestIDHeader},
		}).Handler(handler)
	}

	return handler
}

func (h *Handler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := util.WithRequestID(r.Context(), r.Header.Get(requestIDHeader))
		w.Header().Set(requestIDHeader, util.GetRequestID(ctx))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(status int) {
	s.status = status
	s.ResponseWriter.WriteHeader(status)
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		h.logger.DebugContext(r.Context(), "Handled request",
			logger.NewField("method", r.Method),
			logger.NewField("path", r.URL.Path),
			logger.NewField("status", rec.status),
			logger.NewField("duration", time.Since(start).String()),
		)
	})
}
