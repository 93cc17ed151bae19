package engine

import "github.com/shopspring/decimal"

// Config holds the per-book options recognized by the core. There is no
// persisted state layout and no config file format — the core has no
// opinion on how a caller obtains these values; cmd/fenrir wires all but
// ObserverQueueBound from command-line flags.
type Config struct {
	// TickSize quantizes accepted prices. Orders priced off-tick are
	// rejected with ErrInvalidPrice. Default 0.01.
	TickSize decimal.Decimal
	// LotSize quantizes accepted quantities. Zero means any positive
	// quantity is accepted.
	LotSize decimal.Decimal
	// MaxDepth bounds the N accepted by Snapshot; a caller-requested
	// depth above this is clamped, not rejected.
	MaxDepth int
	// ObserverQueueBound bounds each trade-observer's outbound queue;
	// overflow drops the oldest queued trade and increments a counter.
	ObserverQueueBound int
}

// DefaultConfig returns reasonable defaults for a new OrderBook.
func DefaultConfig() Config {
	return Config{
		TickSize:           decimal.NewFromFloat(0.01),
		LotSize:            decimal.Zero,
		MaxDepth:           50,
		ObserverQueueBound: 4096,
	}
}
