package engine

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fenrir/internal/book"
)

func d(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

func newTestBook() *OrderBook {
	return New("BTC-USD", DefaultConfig())
}

func limit(side book.Side, price, qty string) SubmitRequest {
	return SubmitRequest{Side: side, Type: book.LimitOrder, Price: d(price), Quantity: d(qty)}
}

func TestSubmit_LimitRestsWhenNoCross(t *testing.T) {
	ob := newTestBook()

	trades, err := ob.Submit(limit(book.Buy, "99", "10"))
	require.NoError(t, err)
	assert.Empty(t, trades)

	bid, ask := ob.BBO()
	require.NotNil(t, bid)
	assert.Nil(t, ask)
	assert.True(t, bid.Price.Equal(d("99")))
	assert.True(t, bid.Quantity.Equal(d("10")))
}

func TestSubmit_LimitCrossesAndMatches(t *testing.T) {
	ob := newTestBook()

	_, err := ob.Submit(limit(book.Sell, "100", "10"))
	require.NoError(t, err)

	trades, err := ob.Submit(limit(book.Buy, "100", "4"))
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Price.Equal(d("100")))
	assert.True(t, trades[0].Quantity.Equal(d("4")))

	_, ask := ob.BBO()
	require.NotNil(t, ask)
	assert.True(t, ask.Quantity.Equal(d("6")))
}

func TestSubmit_TimePriorityWithinLevel(t *testing.T) {
	ob := newTestBook()

	_, err := ob.Submit(limit(book.Sell, "100", "5"))
	require.NoError(t, err)
	_, err = ob.Submit(limit(book.Sell, "100", "5"))
	require.NoError(t, err)

	trades, err := ob.Submit(limit(book.Buy, "100", "6"))
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.True(t, trades[0].Quantity.Equal(d("5")))
	assert.Equal(t, uint64(0), trades[0].MakerOrderID)
	assert.True(t, trades[1].Quantity.Equal(d("1")))
	assert.Equal(t, uint64(1), trades[1].MakerOrderID)
}

func TestSubmit_MarketSweepsMultipleLevelsAndDiscardsResidual(t *testing.T) {
	ob := newTestBook()

	_, err := ob.Submit(limit(book.Sell, "100", "5"))
	require.NoError(t, err)
	_, err = ob.Submit(limit(book.Sell, "101", "5"))
	require.NoError(t, err)

	trades, err := ob.Submit(SubmitRequest{Side: book.Buy, Type: book.MarketOrder, Quantity: d("20")})
	require.NoError(t, err)
	require.Len(t, trades, 2)
	assert.True(t, trades[0].Price.Equal(d("100")))
	assert.True(t, trades[1].Price.Equal(d("101")))

	_, ask := ob.BBO()
	assert.Nil(t, ask)
}

func TestSubmit_IOCDiscardsResidualWithoutResting(t *testing.T) {
	ob := newTestBook()

	_, err := ob.Submit(limit(book.Sell, "100", "5"))
	require.NoError(t, err)

	trades, err := ob.Submit(SubmitRequest{Side: book.Buy, Type: book.IOCOrder, Price: d("100"), Quantity: d("10")})
	require.NoError(t, err)
	require.Len(t, trades, 1)
	assert.True(t, trades[0].Quantity.Equal(d("5")))

	bid, ask := ob.BBO()
	assert.Nil(t, bid)
	assert.Nil(t, ask)
}

func TestSubmit_FOKKilledOnInsufficientLiquidityLeavesNoTrace(t *testing.T) {
	ob := newTestBook()

	_, err := ob.Submit(limit(book.Sell, "100", "5"))
	require.NoError(t, err)

	trades, err := ob.Submit(SubmitRequest{Side: book.Buy, Type: book.FOKOrder, Price: d("100"), Quantity: d("10")})
	require.NoError(t, err)
	assert.Empty(t, trades)

	_, ask := ob.BBO()
	require.NotNil(t, ask)
	assert.True(t, ask.Quantity.Equal(d("5")))
}

func TestSubmit_FOKExecutesFullyWhenLiquiditySufficient(t *testing.T) {
	ob := newTestBook()

	_, err := ob.Submit(limit(book.Sell, "100", "5"))
	require.NoError(t, err)
	_, err = ob.Submit(limit(book.Sell, "101", "5"))
	require.NoError(t, err)

	trades, err := ob.Submit(SubmitRequest{Side: book.Buy, Type: book.FOKOrder, Price: d("101"), Quantity: d("10")})
	require.NoError(t, err)
	require.Len(t, trades, 2)

	_, ask := ob.BBO()
	assert.Nil(t, ask)
}

func TestCancel_RemovesRestingOrderAndIsIdempotent(t *testing.T) {
	ob := newTestBook()

	_, err := ob.Submit(limit(book.Buy, "99", "10"))
	require.NoError(t, err)

	assert.True(t, ob.Cancel(0))
	assert.False(t, ob.Cancel(0))

	bid, _ := ob.BBO()
	assert.Nil(t, bid)
}

func TestSubmit_RejectsInvalidOrders(t *testing.T) {
	ob := newTestBook()

	_, err := ob.Submit(SubmitRequest{Side: book.Buy, Type: book.LimitOrder, Price: d("-1"), Quantity: d("1")})
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = ob.Submit(SubmitRequest{Side: book.Buy, Type: book.LimitOrder, Price: d("1"), Quantity: d("0")})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	status := ob.Status()
	assert.Equal(t, uint64(2), status.OrdersRejected)
	assert.Equal(t, uint64(0), status.OrdersAccepted)
}

func TestSubmit_TickAndLotSizeEnforcedWhenConfigured(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TickSize = d("0.5")
	cfg.LotSize = d("2")
	ob := New("BTC-USD", cfg)

	_, err := ob.Submit(SubmitRequest{Side: book.Buy, Type: book.LimitOrder, Price: d("100.25"), Quantity: d("2")})
	assert.ErrorIs(t, err, ErrInvalidPrice)

	_, err = ob.Submit(SubmitRequest{Side: book.Buy, Type: book.LimitOrder, Price: d("100.5"), Quantity: d("3")})
	assert.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = ob.Submit(SubmitRequest{Side: book.Buy, Type: book.LimitOrder, Price: d("100.5"), Quantity: d("4")})
	assert.NoError(t, err)
}

func TestSnapshot_ReturnsTopLevelsUpToRequestedDepth(t *testing.T) {
	ob := newTestBook()
	_, err := ob.Submit(limit(book.Buy, "99", "10"))
	require.NoError(t, err)
	_, err = ob.Submit(limit(book.Buy, "98", "5"))
	require.NoError(t, err)

	snap := ob.Snapshot(1)
	require.Len(t, snap.Bids, 1)
	assert.True(t, snap.Bids[0].Price.Equal(d("99")))
}

func TestRegisterTradeObserver_ReceivesEmittedTrades(t *testing.T) {
	ob := newTestBook()
	received := make(chan Trade, 4)
	sub := ob.RegisterTradeObserver(func(trade Trade) {
		received <- trade
	})
	defer sub.Unsubscribe()

	_, err := ob.Submit(limit(book.Sell, "100", "5"))
	require.NoError(t, err)
	_, err = ob.Submit(limit(book.Buy, "100", "5"))
	require.NoError(t, err)

	trade := <-received
	assert.True(t, trade.Quantity.Equal(d("5")))

	ob.Close()
}
