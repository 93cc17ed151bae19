package engine

import "fenrir/internal/book"

// Snapshot is the immutable depth-of-book view returned by
// OrderBook.Snapshot. No order identity leaks into it — only aggregated
// per-level quantity.
type Snapshot struct {
	Symbol string
	Bids   []book.LevelView // best-first, descending price
	Asks   []book.LevelView // best-first, ascending price
}

// buildSnapshot aggregates the top N PriceLevels per side into
// (price, quantity) pairs using each level's already-maintained Total, so
// building a snapshot never walks individual orders. The caller must
// already hold the OrderBook's exclusion — this function does no locking
// of its own, it just shapes data already frozen under the lock.
func buildSnapshot(symbol string, bids, asks *book.SideBook, depth int) Snapshot {
	return Snapshot{
		Symbol: symbol,
		Bids:   bids.AggregateTop(depth),
		Asks:   asks.AggregateTop(depth),
	}
}
