package engine

import (
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fenrir/internal/book"
)

// resting records where an order sits so Cancel can find it in O(1)
// rather than scanning every level.
type resting struct {
	side  book.Side
	level *book.PriceLevel
	h     *book.Handle
}

// OrderBook couples a bid SideBook and an ask SideBook for one symbol,
// owns the sequence counters, and is the sole entry point for mutation.
// Every exported method that reads or writes book state takes mu: submit,
// cancel and snapshot are mutually exclusive with respect to one another
// for this symbol, and the critical section never suspends on I/O (trade
// publication only enqueues).
type OrderBook struct {
	mu sync.Mutex

	Symbol string
	cfg    Config

	Bids *book.SideBook
	Asks *book.SideBook

	index map[uint64]resting

	nextOrderID    uint64
	nextTradeID    uint64
	nextArrivalSeq uint64

	publisher *TradePublisher
	status    Status
}

// New constructs an empty OrderBook for symbol under cfg.
func New(symbol string, cfg Config) *OrderBook {
	return &OrderBook{
		Symbol:    symbol,
		cfg:       cfg,
		Bids:      book.NewSideBook(book.Buy),
		Asks:      book.NewSideBook(book.Sell),
		index:     make(map[uint64]resting),
		publisher: NewTradePublisher(cfg.ObserverQueueBound),
	}
}

// SubmitRequest is the validated order fields plus the client's own
// correlation id; Symbol is implicit (one OrderBook per symbol).
type SubmitRequest struct {
	ClientRef string
	Side      book.Side
	Type      book.OrderType
	Price     decimal.Decimal
	Quantity  decimal.Decimal
}

// RegisterTradeObserver installs fn to be invoked once per emitted trade,
// in emission order. Returns a handle to unregister later.
func (ob *OrderBook) RegisterTradeObserver(fn Observer) Subscription {
	return ob.publisher.Subscribe(fn)
}

// Submit validates and dispatches req to the matcher, returning the trades
// it produced in execution order. No state change occurs on a validation
// error.
func (ob *OrderBook) Submit(req SubmitRequest) ([]Trade, error) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	if err := ob.validate(req); err != nil {
		ob.status.OrdersRejected++
		return nil, err
	}

	order := &book.Order{
		OrderID:         ob.nextOrderID,
		ClientRef:       req.ClientRef,
		Symbol:          ob.Symbol,
		Side:            req.Side,
		Type:            req.Type,
		Price:           req.Price,
		Quantity:        req.Quantity,
		InitialQuantity: req.Quantity,
		ArrivalSeq:      ob.nextArrivalSeq,
		TimestampNS:     time.Now().UnixNano(),
	}
	ob.nextOrderID++
	ob.nextArrivalSeq++
	ob.status.OrdersAccepted++

	trades := ob.dispatch(order)

	ob.checkInvariants(order)

	ob.status.TradesEmitted += uint64(len(trades))
	for _, t := range trades {
		ob.publisher.Publish(t)
	}
	ob.status.ObserverDropped = ob.publisher.DroppedCount()
	ob.status.ObserverRemoved = ob.publisher.RemovedCount()

	return trades, nil
}

// dispatch runs the matching policy for order's type.
func (ob *OrderBook) dispatch(order *book.Order) []Trade {
	own, opposite := ob.sides(order.Side)

	switch order.Type {
	case book.LimitOrder:
		trades := ob.matchAgainst(order, opposite, &order.Price)
		if order.Quantity.Sign() > 0 {
			ob.rest(order, own)
		}
		return trades

	case book.MarketOrder:
		// Residual discarded regardless of whether the opposite side
		// empties before the order is filled.
		return ob.matchAgainst(order, opposite, nil)

	case book.IOCOrder:
		return ob.matchAgainst(order, opposite, &order.Price)

	case book.FOKOrder:
		available := ob.fokAvailable(order, opposite)
		if available.LessThan(order.Quantity) {
			return nil
		}
		return ob.matchAgainst(order, opposite, &order.Price)

	default:
		// Unreachable: validate rejects unknown types before dispatch.
		return nil
	}
}

func (ob *OrderBook) sides(side book.Side) (own, opposite *book.SideBook) {
	if side == book.Buy {
		return ob.Bids, ob.Asks
	}
	return ob.Asks, ob.Bids
}

// rest inserts the unfilled remainder of a LIMIT order into its own side
// and records it in the cancel index.
func (ob *OrderBook) rest(order *book.Order, own *book.SideBook) {
	if _, dup := ob.index[order.OrderID]; dup {
		panicInvariant("duplicate order id " + strconv.FormatUint(order.OrderID, 10))
	}
	level := own.GetOrCreate(order.Price)
	h := level.Append(order)
	ob.index[order.OrderID] = resting{side: order.Side, level: level, h: h}
}

// Cancel removes a resting order. Idempotent: cancelling an unknown or
// already-gone order id returns false with no state change.
func (ob *OrderBook) Cancel(orderID uint64) bool {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	ref, ok := ob.index[orderID]
	if !ok {
		return false
	}
	ref.level.Remove(ref.h)
	delete(ob.index, orderID)

	if ref.side == book.Buy {
		ob.Bids.EraseIfEmpty(ref.level)
	} else {
		ob.Asks.EraseIfEmpty(ref.level)
	}
	return true
}

// Snapshot returns the top N levels per side, best-first. Depth above
// Config.MaxDepth is clamped, not rejected.
func (ob *OrderBook) Snapshot(depth int) Snapshot {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	if depth > ob.cfg.MaxDepth {
		depth = ob.cfg.MaxDepth
	}
	if depth < 0 {
		depth = 0
	}
	return buildSnapshot(ob.Symbol, ob.Bids, ob.Asks, depth)
}

// BBO returns the best bid and best ask level, without the heavier
// N-level snapshot construction market-data consumers would otherwise
// pay for on every tick.
func (ob *OrderBook) BBO() (bid, ask *book.LevelView) {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	if lvl, ok := ob.Bids.Best(); ok {
		bid = &book.LevelView{Price: lvl.Price, Quantity: lvl.Total}
	}
	if lvl, ok := ob.Asks.Best(); ok {
		ask = &book.LevelView{Price: lvl.Price, Quantity: lvl.Total}
	}
	return bid, ask
}

// Status returns a point-in-time copy of the book's counters.
func (ob *OrderBook) Status() Status {
	ob.mu.Lock()
	defer ob.mu.Unlock()

	s := ob.status
	s.BidLevels = ob.Bids.Len()
	s.AskLevels = ob.Asks.Len()
	return s
}

// Close releases the trade-observer goroutines. Call once the book is
// permanently retired.
func (ob *OrderBook) Close() {
	ob.publisher.Close()
}

func (ob *OrderBook) validate(req SubmitRequest) error {
	switch req.Side {
	case book.Buy, book.Sell:
	default:
		return ErrInvalidSide
	}

	switch req.Type {
	case book.LimitOrder, book.MarketOrder, book.IOCOrder, book.FOKOrder:
	default:
		return ErrInvalidType
	}

	if req.Quantity.Sign() <= 0 {
		return ErrInvalidQuantity
	}
	if !ob.cfg.LotSize.IsZero() && !req.Quantity.Mod(ob.cfg.LotSize).IsZero() {
		return ErrInvalidQuantity
	}

	if req.Type == book.MarketOrder {
		// Price is ignored ("any") for MARKET; nothing further to check.
		return nil
	}

	if req.Price.Sign() <= 0 {
		return ErrInvalidPrice
	}
	if !ob.cfg.TickSize.IsZero() && !req.Price.Mod(ob.cfg.TickSize).IsZero() {
		return ErrInvalidPrice
	}
	return nil
}

// checkInvariants enforces, after every Submit, that the book is uncrossed
// and that the best level on each side has a positive aggregate; levels
// behind the best are not inspected. A violation here means the
// matching algorithm itself is broken, not that the caller sent a bad
// order — so it panics rather than returning an error.
func (ob *OrderBook) checkInvariants(order *book.Order) {
	id := strconv.FormatUint(order.OrderID, 10)
	bestBid, hasBid := ob.Bids.Best()
	bestAsk, hasAsk := ob.Asks.Best()
	if hasBid && hasAsk && !bestBid.Price.LessThan(bestAsk.Price) {
		panicInvariant("crossed book after submit of order " + id)
	}
	if hasBid && bestBid.Total.Sign() <= 0 {
		panicInvariant("non-positive aggregate on best bid level after submit of order " + id)
	}
	if hasAsk && bestAsk.Total.Sign() <= 0 {
		panicInvariant("non-positive aggregate on best ask level after submit of order " + id)
	}
}
