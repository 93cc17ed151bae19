package engine

import (
	"fmt"

	"github.com/shopspring/decimal"

	"fenrir/internal/book"
)

// Trade is the immutable record emitted by the matcher. It is never
// mutated after creation and is passed by value to observers. Fields are
// flattened to wire-shaped scalars rather than holding pointers to the
// two live Order objects, since a Trade must keep meaning something
// after its maker/taker orders have been filled and discarded.
type Trade struct {
	TradeID       uint64
	Symbol        string
	Price         decimal.Decimal
	Quantity      decimal.Decimal
	TimestampNS   int64
	MakerOrderID  uint64
	TakerOrderID  uint64
	AggressorSide book.Side
}

func (t Trade) String() string {
	return fmt.Sprintf(
		"trade %d %s %s@%s maker=%d taker=%d aggressor=%s",
		t.TradeID, t.Symbol, t.Quantity, t.Price, t.MakerOrderID, t.TakerOrderID, t.AggressorSide,
	)
}
