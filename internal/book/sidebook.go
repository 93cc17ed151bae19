package book

import (
	"github.com/shopspring/decimal"
	"github.com/tidwall/btree"
)

// priceLevels is the ordered price->level map backing one side. A
// balanced ordered map gives O(log n) insert/erase and best-price access
// via Min, which descends the tree's height.
type priceLevels = btree.BTreeG[*PriceLevel]

// SideBook is the price-indexed collection of PriceLevels for one side of
// the book. Bids are ordered best-first by descending price, asks by
// ascending price; both expose the same Min-based "best" access by
// choosing the less-function direction at construction.
type SideBook struct {
	Side Side
	tree *priceLevels
}

// NewSideBook builds an empty SideBook for the given side.
func NewSideBook(side Side) *SideBook {
	var less func(a, b *PriceLevel) bool
	if side == Buy {
		less = func(a, b *PriceLevel) bool { return a.Price.GreaterThan(b.Price) }
	} else {
		less = func(a, b *PriceLevel) bool { return a.Price.LessThan(b.Price) }
	}
	return &SideBook{
		Side: side,
		tree: btree.NewBTreeG(less),
	}
}

// Best returns the best (top-of-book) PriceLevel, if the side is non-empty.
func (sb *SideBook) Best() (*PriceLevel, bool) {
	return sb.tree.MinMut()
}

// Len reports the number of distinct price levels.
func (sb *SideBook) Len() int {
	return sb.tree.Len()
}

// GetOrCreate returns the existing PriceLevel at price, or creates, inserts
// and returns a new empty one.
func (sb *SideBook) GetOrCreate(price decimal.Decimal) *PriceLevel {
	probe := &PriceLevel{Price: price}
	if level, ok := sb.tree.GetMut(probe); ok {
		return level
	}
	level := NewPriceLevel(sb.Side, price)
	sb.tree.Set(level)
	return level
}

// Get returns the PriceLevel at price without creating one.
func (sb *SideBook) Get(price decimal.Decimal) (*PriceLevel, bool) {
	return sb.tree.GetMut(&PriceLevel{Price: price})
}

// EraseIfEmpty removes level from the side if its aggregate quantity has
// hit zero. The matcher and cancel path both call this after any mutation
// that might have drained a level.
func (sb *SideBook) EraseIfEmpty(level *PriceLevel) {
	if level.Total.IsZero() {
		sb.tree.Delete(level)
	}
}

// Items returns every PriceLevel on this side, best-first. Used by tests
// and by AggregateTop; not on the per-order matching hot path.
func (sb *SideBook) Items() []*PriceLevel {
	return sb.tree.Items()
}

// LevelView is an aggregated, identity-free view of one price level, used
// in Snapshot and BBO responses. No order identity is ever exposed here.
type LevelView struct {
	Price    decimal.Decimal
	Quantity decimal.Decimal
}

// AggregateTop returns the top n levels, best-first, as (price, qty)
// pairs. n greater than the number of levels is returned as-is, no
// padding.
func (sb *SideBook) AggregateTop(n int) []LevelView {
	items := sb.tree.Items()
	if n > len(items) {
		n = len(items)
	}
	out := make([]LevelView, n)
	for i := 0; i < n; i++ {
		out[i] = LevelView{Price: items[i].Price, Quantity: items[i].Total}
	}
	return out
}

// WalkBestFirst visits levels best price first, stopping when fn returns
// false. Used by the FOK liquidity pre-scan, which must be read-only and
// may stop as soon as it has proven sufficiency.
func (sb *SideBook) WalkBestFirst(fn func(level *PriceLevel) bool) {
	for _, level := range sb.tree.Items() {
		if !fn(level) {
			return
		}
	}
}
