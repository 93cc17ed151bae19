// Package httpapi is the HTTP order-submission surface: it accepts orders
// over JSON and binds them onto the core's OrderBook.Submit contract, one
// order book per symbol.
package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"fenrir/internal/book"
	"fenrir/internal/engine"
)

// Server exposes the order-submission and cancel surface over HTTP.
type Server struct {
	registry *engine.Registry
	http     *http.Server
}

// New builds a Server listening on addr, dispatching into registry.
func New(addr string, registry *engine.Registry) *Server {
	s := &Server{registry: registry}
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/orders", s.handleSubmit)
	mux.HandleFunc("DELETE /api/v1/orders/{symbol}/{id}", s.handleCancel)
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	s.http = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return s
}

// Run serves until ctx is cancelled, then gracefully shuts down.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", s.http.Addr).Msg("http submission surface listening")
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return s.http.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}

// submitRequest is the wire shape of one order submission: side, type,
// price and quantity, plus the symbol it's routed on. Unknown fields are
// ignored by encoding/json's default decode behavior.
type submitRequest struct {
	Symbol    string `json:"symbol"`
	Side      string `json:"side"`
	OrderType string `json:"order_type"`
	Price     string `json:"price"`
	Quantity  string `json:"quantity"`
}

type tradeView struct {
	TradeID       uint64 `json:"trade_id"`
	Symbol        string `json:"symbol"`
	Price         string `json:"price"`
	Quantity      string `json:"quantity"`
	TimestampNS   int64  `json:"timestamp_ns"`
	MakerOrderID  uint64 `json:"maker_order_id"`
	TakerOrderID  uint64 `json:"taker_order_id"`
	AggressorSide string `json:"aggressor_side"`
}

type submitResponse struct {
	Status         string      `json:"status"`
	Symbol         string      `json:"symbol,omitempty"`
	TradesExecuted int         `json:"trades_executed,omitempty"`
	Trades         []tradeView `json:"trades,omitempty"`
	Message        string      `json:"message,omitempty"`
}

// handleSubmit responds with {status:"success", symbol, trades_executed}
// enriched with the full trade list, or {status:"error", message} on
// validation failure.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "malformed request body")
		return
	}
	if req.Symbol == "" {
		writeError(w, http.StatusBadRequest, "missing required field: symbol")
		return
	}

	side, ok := book.ParseSide(req.Side)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid side")
		return
	}
	orderType, ok := book.ParseOrderType(req.OrderType)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid order_type")
		return
	}

	price, err := parseDecimal(req.Price, orderType == book.MarketOrder)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid price")
		return
	}
	quantity, err := parseDecimal(req.Quantity, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid quantity")
		return
	}

	ob := s.registry.GetOrCreate(req.Symbol)
	trades, err := ob.Submit(engine.SubmitRequest{
		ClientRef: uuid.New().String(),
		Side:      side,
		Type:      orderType,
		Price:     price,
		Quantity:  quantity,
	})
	if err != nil {
		log.Info().Err(err).Str("symbol", req.Symbol).Msg("order rejected")
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	views := make([]tradeView, len(trades))
	for i, t := range trades {
		views[i] = tradeView{
			TradeID:       t.TradeID,
			Symbol:        t.Symbol,
			Price:         t.Price.String(),
			Quantity:      t.Quantity.String(),
			TimestampNS:   t.TimestampNS,
			MakerOrderID:  t.MakerOrderID,
			TakerOrderID:  t.TakerOrderID,
			AggressorSide: t.AggressorSide.String(),
		}
	}

	writeJSON(w, http.StatusOK, submitResponse{
		Status:         "success",
		Symbol:         req.Symbol,
		TradesExecuted: len(trades),
		Trades:         views,
	})
}

// handleCancel cancels a resting order by the book's own assigned id.
// Cancelling an absent order responds 404 with an error body
// ({status:"error", message:"order not found"}).
func (s *Server) handleCancel(w http.ResponseWriter, r *http.Request) {
	symbol := r.PathValue("symbol")
	idStr := r.PathValue("id")

	orderID, err := strconv.ParseUint(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid order id")
		return
	}

	ob, ok := s.registry.Get(symbol)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown symbol")
		return
	}

	if !ob.Cancel(orderID) {
		writeError(w, http.StatusNotFound, "order not found")
		return
	}
	writeJSON(w, http.StatusOK, submitResponse{Status: "success", Symbol: symbol})
}

type statusResponse struct {
	Symbol          string `json:"symbol"`
	OrdersAccepted  uint64 `json:"orders_accepted"`
	OrdersRejected  uint64 `json:"orders_rejected"`
	TradesEmitted   uint64 `json:"trades_emitted"`
	ObserverDropped uint64 `json:"observer_dropped"`
	ObserverRemoved uint64 `json:"observer_removed"`
	BidLevels       int    `json:"bid_levels"`
	AskLevels       int    `json:"ask_levels"`
}

// handleStatus exposes a book's counters: accepted/rejected order counts,
// trades emitted, observer drop/removal counts, and current level counts
// per side.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		writeError(w, http.StatusBadRequest, "missing symbol query parameter")
		return
	}

	ob, ok := s.registry.Get(symbol)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown symbol")
		return
	}

	st := ob.Status()
	writeJSON(w, http.StatusOK, statusResponse{
		Symbol:          symbol,
		OrdersAccepted:  st.OrdersAccepted,
		OrdersRejected:  st.OrdersRejected,
		TradesEmitted:   st.TradesEmitted,
		ObserverDropped: st.ObserverDropped,
		ObserverRemoved: st.ObserverRemoved,
		BidLevels:       st.BidLevels,
		AskLevels:       st.AskLevels,
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, submitResponse{Status: "error", Message: message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
