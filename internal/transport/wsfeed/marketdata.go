// Package wsfeed serves the two streaming surfaces clients subscribe to
// over websocket: periodic depth-of-book snapshots and a live trade tape.
// Each connection is served by its own handler loop; the trade tape
// registers one engine trade observer per connection, and the package
// keeps no subscriber registry of its own.
package wsfeed

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"fenrir/internal/book"
	"fenrir/internal/engine"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Market-data/trade-tape subscribers are a public read-only feed; no
	// origin restriction is meaningful here the way it would be for an
	// authenticated order-entry endpoint.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type levelView struct {
	Price    string `json:"price"`
	Quantity string `json:"quantity"`
}

type snapshotMessage struct {
	Symbol string      `json:"symbol"`
	Bids   []levelView `json:"bids"`
	Asks   []levelView `json:"asks"`
}

// MarketDataServer pushes periodic depth snapshots to subscribed clients,
// one connection per symbol stream.
type MarketDataServer struct {
	registry *engine.Registry
	interval time.Duration
	depth    int
}

// NewMarketDataServer builds a server pushing snapshots of the given
// depth every interval.
func NewMarketDataServer(registry *engine.Registry, interval time.Duration, depth int) *MarketDataServer {
	return &MarketDataServer{registry: registry, interval: interval, depth: depth}
}

// Handler upgrades GET /api/v1/marketdata?symbol=... to a websocket and
// streams snapshots until the client disconnects.
func (m *MarketDataServer) Handler(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		http.Error(w, "missing symbol query parameter", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("marketdata upgrade failed")
		return
	}
	defer conn.Close()

	ob := m.registry.GetOrCreate(symbol)
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for range ticker.C {
		snap := ob.Snapshot(m.depth)
		msg := snapshotMessage{Symbol: snap.Symbol, Bids: toViews(snap.Bids), Asks: toViews(snap.Asks)}

		if err := conn.WriteJSON(msg); err != nil {
			log.Info().Err(err).Str("symbol", symbol).Msg("marketdata client disconnected")
			return
		}
	}
}

func toViews(items []book.LevelView) []levelView {
	out := make([]levelView, len(items))
	for i, it := range items {
		out[i] = levelView{Price: it.Price.String(), Quantity: it.Quantity.String()}
	}
	return out
}

// Run serves the market-data handler until ctx is cancelled.
func (m *MarketDataServer) Run(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/marketdata", m.Handler)
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("marketdata feed listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}
