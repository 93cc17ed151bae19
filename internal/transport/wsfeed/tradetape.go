package wsfeed

import (
	"context"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"fenrir/internal/engine"
)

type tradeMessage struct {
	TradeID       uint64 `json:"trade_id"`
	Symbol        string `json:"symbol"`
	Price         string `json:"price"`
	Quantity      string `json:"quantity"`
	TimestampNS   int64  `json:"timestamp_ns"`
	MakerOrderID  uint64 `json:"maker_order_id"`
	TakerOrderID  uint64 `json:"taker_order_id"`
	AggressorSide string `json:"aggressor_side"`
}

// TradeTapeServer pushes every emitted trade to subscribed clients. Each
// client connection registers its own observer via
// OrderBook.RegisterTradeObserver, so one slow or disconnecting client
// never blocks delivery to the others.
type TradeTapeServer struct {
	registry *engine.Registry
}

// NewTradeTapeServer builds a trade-tape push server over registry.
func NewTradeTapeServer(registry *engine.Registry) *TradeTapeServer {
	return &TradeTapeServer{registry: registry}
}

// Handler upgrades GET /api/v1/trades?symbol=... to a websocket and
// streams that symbol's trades until the client disconnects.
func (t *TradeTapeServer) Handler(w http.ResponseWriter, r *http.Request) {
	symbol := r.URL.Query().Get("symbol")
	if symbol == "" {
		http.Error(w, "missing symbol query parameter", http.StatusBadRequest)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error().Err(err).Msg("trade tape upgrade failed")
		return
	}
	defer conn.Close()

	ob := t.registry.GetOrCreate(symbol)

	var writeMu sync.Mutex
	done := make(chan struct{})

	sub := ob.RegisterTradeObserver(func(trade engine.Trade) {
		msg := tradeMessage{
			TradeID:       trade.TradeID,
			Symbol:        trade.Symbol,
			Price:         trade.Price.String(),
			Quantity:      trade.Quantity.String(),
			TimestampNS:   trade.TimestampNS,
			MakerOrderID:  trade.MakerOrderID,
			TakerOrderID:  trade.TakerOrderID,
			AggressorSide: trade.AggressorSide.String(),
		}
		writeMu.Lock()
		err := conn.WriteJSON(msg)
		writeMu.Unlock()
		if err != nil {
			select {
			case <-done:
			default:
				close(done)
			}
		}
	})
	defer sub.Unsubscribe()

	// Block until the client disconnects (detected either by a failed
	// write above, or by the client closing the read side).
	go func() {
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				select {
				case <-done:
				default:
					close(done)
				}
				return
			}
		}
	}()
	<-done
	log.Info().Str("symbol", symbol).Msg("trade tape client disconnected")
}

// Run serves the trade-tape handler until ctx is cancelled.
func (t *TradeTapeServer) Run(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/trades", t.Handler)
	srv := &http.Server{Addr: addr, Handler: mux}

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", addr).Msg("trade tape feed listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		return srv.Shutdown(context.Background())
	case err := <-errCh:
		return err
	}
}
