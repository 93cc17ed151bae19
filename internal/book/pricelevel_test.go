package book

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func qty(v string) decimal.Decimal {
	d, err := decimal.NewFromString(v)
	if err != nil {
		panic(err)
	}
	return d
}

func newTestOrder(id uint64, seq uint64, quantity string) *Order {
	return &Order{
		OrderID:         id,
		Symbol:          "BTC-USD",
		Side:            Buy,
		Type:            LimitOrder,
		Price:           qty("100"),
		Quantity:        qty(quantity),
		InitialQuantity: qty(quantity),
		ArrivalSeq:      seq,
	}
}

func TestPriceLevel_AppendPreservesTimePriority(t *testing.T) {
	level := NewPriceLevel(Buy, qty("100"))

	level.Append(newTestOrder(1, 0, "10"))
	level.Append(newTestOrder(2, 1, "20"))
	level.Append(newTestOrder(3, 2, "30"))

	assert.Equal(t, 3, level.Len())
	assert.True(t, level.Total.Equal(qty("60")))

	orders := level.Orders()
	assert.Equal(t, []uint64{1, 2, 3}, []uint64{orders[0].OrderID, orders[1].OrderID, orders[2].OrderID})
}

func TestPriceLevel_DeductFrontReducesAggregate(t *testing.T) {
	level := NewPriceLevel(Sell, qty("100"))
	level.Append(newTestOrder(1, 0, "10"))

	level.DeductFront(qty("4"))

	front, ok := level.Front()
	assert.True(t, ok)
	assert.True(t, front.Quantity.Equal(qty("6")))
	assert.True(t, level.Total.Equal(qty("6")))
}

func TestPriceLevel_PopFrontRemovesHead(t *testing.T) {
	level := NewPriceLevel(Buy, qty("100"))
	level.Append(newTestOrder(1, 0, "10"))
	level.Append(newTestOrder(2, 1, "20"))

	level.PopFront()

	assert.Equal(t, 1, level.Len())
	front, _ := level.Front()
	assert.Equal(t, uint64(2), front.OrderID)
}

func TestPriceLevel_RemoveByHandleAdjustsTotal(t *testing.T) {
	level := NewPriceLevel(Buy, qty("100"))
	level.Append(newTestOrder(1, 0, "10"))
	h2 := level.Append(newTestOrder(2, 1, "20"))
	level.Append(newTestOrder(3, 2, "30"))

	level.Remove(h2)

	assert.Equal(t, 2, level.Len())
	assert.True(t, level.Total.Equal(qty("40")))
	orders := level.Orders()
	assert.Equal(t, uint64(1), orders[0].OrderID)
	assert.Equal(t, uint64(3), orders[1].OrderID)
}
