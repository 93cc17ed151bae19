package book

import (
	"container/list"

	"github.com/shopspring/decimal"
)

// Handle is an opaque reference to a resting order's position within a
// PriceLevel, returned by Append and consumed by Remove. It exists so a
// secondary order-id index can remove an order in O(1) without PriceLevel
// exposing its internal list.
type Handle struct {
	elem *list.Element
}

// PriceLevel is the ordered sequence of resting orders at a single price.
// Time priority is the insertion order and is never reordered; a
// container/list.List gives O(1) append, front-removal and arbitrary
// removal-by-handle, which a plain slice cannot do without re-slicing on
// every cancel.
type PriceLevel struct {
	Price decimal.Decimal
	Side  Side
	Total decimal.Decimal

	orders *list.List
}

// NewPriceLevel constructs an empty level at price for side.
func NewPriceLevel(side Side, price decimal.Decimal) *PriceLevel {
	return &PriceLevel{
		Price:  price,
		Side:   side,
		Total:  decimal.Zero,
		orders: list.New(),
	}
}

// Len reports the number of resting orders in the level.
func (l *PriceLevel) Len() int {
	return l.orders.Len()
}

// Append adds a new resting order to the back of the level, preserving
// time priority, and returns a Handle for later removal.
func (l *PriceLevel) Append(o *Order) *Handle {
	elem := l.orders.PushBack(o)
	l.Total = l.Total.Add(o.Quantity)
	return &Handle{elem: elem}
}

// Front returns the head-of-queue order (the next to match), if any.
func (l *PriceLevel) Front() (*Order, bool) {
	elem := l.orders.Front()
	if elem == nil {
		return nil, false
	}
	return elem.Value.(*Order), true
}

// DeductFront reduces the head order's remaining quantity and the level's
// aggregate by qty. It does not remove the order even if it reaches zero;
// call PopFront for that once the caller is done inspecting it.
func (l *PriceLevel) DeductFront(qty decimal.Decimal) {
	order, ok := l.Front()
	if !ok {
		return
	}
	order.Quantity = order.Quantity.Sub(qty)
	l.Total = l.Total.Sub(qty)
}

// PopFront removes the head-of-queue order entirely (used once it is fully
// filled).
func (l *PriceLevel) PopFront() {
	elem := l.orders.Front()
	if elem == nil {
		return
	}
	l.orders.Remove(elem)
}

// Remove erases the order referenced by h from the level, wherever it sits
// in the queue, and adjusts Total by its remaining quantity. Used by cancel.
func (l *PriceLevel) Remove(h *Handle) {
	if h == nil || h.elem == nil {
		return
	}
	order := h.elem.Value.(*Order)
	l.Total = l.Total.Sub(order.Quantity)
	l.orders.Remove(h.elem)
}

// Orders returns a snapshot slice of the resting orders, best (earliest)
// first. Intended for tests and diagnostics, not the matching hot path.
func (l *PriceLevel) Orders() []*Order {
	out := make([]*Order, 0, l.orders.Len())
	for e := l.orders.Front(); e != nil; e = e.Next() {
		out = append(out, e.Value.(*Order))
	}
	return out
}
