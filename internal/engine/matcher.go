package engine

import (
	"github.com/shopspring/decimal"

	"fenrir/internal/book"
)

// matchAgainst walks the opposite side best-first, consuming resting
// orders in time-priority order, until the taker is filled or the
// opposite side stops crossing. priceBound is the taker's limit (nil
// means "any price", used by MARKET). It is used, with a different
// priceBound, by LIMIT, MARKET and IOC alike — their differences are
// entirely in what dispatch does with the leftover quantity, and in the
// pre-scan FOK runs first.
func (ob *OrderBook) matchAgainst(taker *book.Order, opposite *book.SideBook, priceBound *decimal.Decimal) []Trade {
	var trades []Trade

	for taker.Quantity.Sign() > 0 {
		level, ok := opposite.Best()
		if !ok {
			break
		}
		if priceBound != nil && !crosses(taker.Side, *priceBound, level.Price) {
			break
		}

		for taker.Quantity.Sign() > 0 {
			maker, ok := level.Front()
			if !ok {
				break
			}

			qty := decimal.Min(maker.Quantity, taker.Quantity)
			trades = append(trades, ob.emitTrade(level.Price, qty, maker, taker))

			level.DeductFront(qty)
			taker.Quantity = taker.Quantity.Sub(qty)

			if maker.Quantity.Sign() <= 0 {
				delete(ob.index, maker.OrderID)
				level.PopFront()
			}
		}

		opposite.EraseIfEmpty(level)
	}

	return trades
}

// crosses reports whether a taker crosses a resting maker at makerPrice:
// a BUY taker crosses a SELL maker iff the taker's limit is at least
// makerPrice; symmetrically for SELL.
func crosses(takerSide book.Side, takerLimit, makerPrice decimal.Decimal) bool {
	if takerSide == book.Buy {
		return takerLimit.GreaterThanOrEqual(makerPrice)
	}
	return takerLimit.LessThanOrEqual(makerPrice)
}

// fokAvailable is FOK's read-only pre-scan: sum the quantity available at
// crossing price levels without mutating anything, so the caller can
// decide atomically whether to execute at all.
func (ob *OrderBook) fokAvailable(taker *book.Order, opposite *book.SideBook) decimal.Decimal {
	available := decimal.Zero
	opposite.WalkBestFirst(func(level *book.PriceLevel) bool {
		if !crosses(taker.Side, taker.Price, level.Price) {
			return false
		}
		available = available.Add(level.Total)
		return available.LessThan(taker.Quantity)
	})
	return available
}

// emitTrade builds a Trade for one maker/taker match and advances the
// trade-id sequence. Price is always the maker's resting price; quantity
// is the amount just matched.
func (ob *OrderBook) emitTrade(price, qty decimal.Decimal, maker, taker *book.Order) Trade {
	trade := Trade{
		TradeID:       ob.nextTradeID,
		Symbol:        ob.Symbol,
		Price:         price,
		Quantity:      qty,
		TimestampNS:   taker.TimestampNS,
		MakerOrderID:  maker.OrderID,
		TakerOrderID:  taker.OrderID,
		AggressorSide: taker.Side,
	}
	ob.nextTradeID++
	return trade
}
