package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/muhammadchandra19/otc-monitor/pkg/errors"
	"github.com/muhammadchandra19/otc-monitor/pkg/logger"
	otcDomain "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/domain/otc"
	priceDomain "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/domain/price"
	priceInfra "github.com/muhammadchandra19/otc-monitor/services/otc-monitor/internal/infrastructure/redis/price"
)

// refreshTimeout bounds a refresh started over HTTP. The refresh is not tied
// to the client connection so a disconnect cannot abort it half way.
const refreshTimeout = 30 * time.Second

// Handler serves the admin API of the monitor.
type Handler struct {
	monitor  otcDomain.Monitor
	resolver priceDomain.Resolver
	prices   priceInfra.PriceStore
	logger   logger.Interface
}

// NewHandler creates a new Handler.
func NewHandler(
	monitor otcDomain.Monitor,
	resolver priceDomain.Resolver,
	prices priceInfra.PriceStore,
	logger logger.Interface,
) *Handler {
	return &Handler{
		monitor:  monitor,
		resolver: resolver,
		prices:   prices,
		logger:   logger,
	}
}

// PriceResponse is the body of GET /v1/markets/{symbol}/price.
type PriceResponse struct {
	Symbol string  `json:"symbol"`
	Price  float64 `json:"price"`
}

// IndexResponse is the body of the index endpoints.
type IndexResponse struct {
	Initialized bool           `json:"initialized"`
	Symbols     map[string]int `json:"symbols"`
}

// ErrorResponse is the body of every non-2xx answer.
type ErrorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) getMarketPrice(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]

	price, ok := h.resolver.MarketPrice(r.Context(), symbol)
	if !ok {
		respondJSON(w, http.StatusNotFound, ErrorResponse{Error: "price unknown for " + symbol})
		return
	}

	respondJSON(w, http.StatusOK, PriceResponse{Symbol: symbol, Price: price})
}

func (h *Handler) listPrices(w http.ResponseWriter, r *http.Request) {
	prices, err := h.prices.All(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), errors.TracerFromError(err))
		respondJSON(w, http.StatusBadGateway, ErrorResponse{Error: "price store unavailable"})
		return
	}

	respondJSON(w, http.StatusOK, prices)
}

func (h *Handler) getIndex(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, IndexResponse{
		Initialized: h.monitor.Initialized(),
		Symbols:     h.monitor.Index(),
	})
}

func (h *Handler) refresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(r.Context()), refreshTimeout)
	defer cancel()

	if err := h.monitor.Refresh(ctx); err != nil {
		respondJSON(w, http.StatusBadGateway, ErrorResponse{Error: "order query failed"})
		return
	}

	respondJSON(w, http.StatusAccepted, IndexResponse{
		Initialized: h.monitor.Initialized(),
		Symbols:     h.monitor.Index(),
	})
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
