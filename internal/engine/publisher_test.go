package engine

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fenrir/internal/book"
)

func TestTradePublisher_FanOutToMultipleSubscribers(t *testing.T) {
	p := NewTradePublisher(4)
	defer p.Close()

	var mu sync.Mutex
	var gotA, gotB []Trade

	p.Subscribe(func(tr Trade) {
		mu.Lock()
		gotA = append(gotA, tr)
		mu.Unlock()
	})
	p.Subscribe(func(tr Trade) {
		mu.Lock()
		gotB = append(gotB, tr)
		mu.Unlock()
	})

	p.Publish(Trade{TradeID: 1, AggressorSide: book.Buy})

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(gotA) == 1 && len(gotB) == 1
	}, time.Second, time.Millisecond)
}

func TestTradePublisher_DropsOldestOnOverflow(t *testing.T) {
	p := NewTradePublisher(1)
	defer p.Close()

	block := make(chan struct{})
	p.Subscribe(func(tr Trade) {
		<-block
	})

	p.Publish(Trade{TradeID: 1})
	p.Publish(Trade{TradeID: 2})
	p.Publish(Trade{TradeID: 3})

	close(block)

	require.Eventually(t, func() bool {
		return p.DroppedCount() >= 1
	}, time.Second, time.Millisecond)
}

func TestTradePublisher_UnsubscribeStopsDelivery(t *testing.T) {
	p := NewTradePublisher(4)
	defer p.Close()

	var mu sync.Mutex
	count := 0
	sub := p.Subscribe(func(tr Trade) {
		mu.Lock()
		count++
		mu.Unlock()
	})
	sub.Unsubscribe()

	p.Publish(Trade{TradeID: 1})
	time.Sleep(10 * time.Millisecond)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 0, count)
}

func TestTradePublisher_PanickingObserverIsRemoved(t *testing.T) {
	p := NewTradePublisher(4)
	defer p.Close()

	p.Subscribe(func(tr Trade) {
		panic("boom")
	})

	p.Publish(Trade{TradeID: 1})

	require.Eventually(t, func() bool {
		return p.RemovedCount() == 1
	}, time.Second, time.Millisecond)
}
