// Command fenrir is the process entrypoint: it wires the engine registry to
// the HTTP order-entry surface and the two websocket feeds, and serves all
// three until signalled to stop.
package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"fenrir/internal/engine"
	"fenrir/internal/transport/httpapi"
	"fenrir/internal/transport/wsfeed"
)

func main() {
	ordersAddr := flag.String("orders-addr", "0.0.0.0:9001", "address for the order-submission HTTP surface")
	marketdataAddr := flag.String("marketdata-addr", "0.0.0.0:9002", "address for the market-data websocket feed")
	tradesAddr := flag.String("trades-addr", "0.0.0.0:9003", "address for the trade-tape websocket feed")
	marketdataInterval := flag.Duration("marketdata-interval", 50*time.Millisecond, "market-data push interval")
	marketdataDepth := flag.Int("marketdata-depth", 5, "market-data snapshot depth")
	tickSize := flag.String("tick-size", "0.01", "minimum price increment")
	lotSize := flag.String("lot-size", "0", "minimum quantity increment (0 disables the check)")
	maxDepth := flag.Int("max-depth", 50, "maximum snapshot depth a book will serve")
	flag.Parse()

	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGTERM,
		syscall.SIGINT,
	)
	defer stop()

	cfg := engine.DefaultConfig()
	if d, err := parseDecimalFlag(*tickSize); err == nil {
		cfg.TickSize = d
	} else {
		log.Fatal().Err(err).Str("flag", "tick-size").Msg("invalid flag value")
	}
	if d, err := parseDecimalFlag(*lotSize); err == nil {
		cfg.LotSize = d
	} else {
		log.Fatal().Err(err).Str("flag", "lot-size").Msg("invalid flag value")
	}
	cfg.MaxDepth = *maxDepth

	registry := engine.NewRegistry(cfg)

	ordersSrv := httpapi.New(*ordersAddr, registry)
	marketdataSrv := wsfeed.NewMarketDataServer(registry, *marketdataInterval, *marketdataDepth)
	tradesSrv := wsfeed.NewTradeTapeServer(registry)

	errCh := make(chan error, 3)
	go func() { errCh <- ordersSrv.Run(ctx) }()
	go func() { errCh <- marketdataSrv.Run(ctx, *marketdataAddr) }()
	go func() { errCh <- tradesSrv.Run(ctx, *tradesAddr) }()

	drained := 0
	select {
	case <-ctx.Done():
		log.Info().Msg("shutting down")
	case err := <-errCh:
		if err != nil {
			log.Error().Err(err).Msg("server exited with error")
		}
		stop()
		drained++
	}

	// Wait for the remaining servers to unwind their graceful shutdown so
	// their goroutines don't leak past main's return.
	for ; drained < 3; drained++ {
		<-errCh
	}
}
