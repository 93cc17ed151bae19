package book

import "github.com/shopspring/decimal"

// Order is created once on submission and mutated only by the matcher
// (Quantity decreasing) and by cancel. OrderID is the book's own
// monotonic identity; ClientRef carries the caller-supplied correlation
// id and never participates in matching or ordering.
type Order struct {
	OrderID         uint64
	ClientRef       string
	Symbol          string
	Side            Side
	Type            OrderType
	Price           decimal.Decimal // ignored for MarketOrder
	Quantity        decimal.Decimal // remaining
	InitialQuantity decimal.Decimal
	ArrivalSeq      uint64
	TimestampNS     int64
}

// Filled reports whether the order has no remaining quantity.
func (o *Order) Filled() bool {
	return o.Quantity.Sign() <= 0
}
