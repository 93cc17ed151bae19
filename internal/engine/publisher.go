package engine

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"
	tomb "gopkg.in/tomb.v2"
)

// Observer is a trade callback registered via OrderBook.RegisterTradeObserver.
type Observer func(Trade)

// TradePublisher is the trade fan-out: zero or more registered observers,
// each fed through its own bounded queue so a slow observer can never
// stall the matcher. Publish (called synchronously from inside Submit,
// under the book's exclusion) only enqueues — it never blocks on an
// observer — and a per-subscriber goroutine, supervised by a tomb.Tomb,
// drains the queue and invokes the callback. On overflow the oldest
// queued trade is dropped and a counter is incremented.
type TradePublisher struct {
	mu     sync.Mutex
	subs   map[int]*subscriber
	nextID int
	bound  int
	t      *tomb.Tomb

	dropped atomic.Uint64
	removed atomic.Uint64
}

// Subscription is the handle returned by Subscribe, used to unregister an
// observer later.
type Subscription struct {
	id  int
	pub *TradePublisher
}

// Unsubscribe removes the observer. Safe to call more than once.
func (s Subscription) Unsubscribe() {
	s.pub.unsubscribe(s.id)
}

type subscriber struct {
	id  int
	ch  chan Trade
	fn  Observer
	pub *TradePublisher
}

// NewTradePublisher builds a publisher whose per-observer queues are bound
// deep. bound should come from Config.ObserverQueueBound.
func NewTradePublisher(bound int) *TradePublisher {
	if bound <= 0 {
		bound = 1
	}
	return &TradePublisher{
		subs:  make(map[int]*subscriber),
		bound: bound,
		t:     new(tomb.Tomb),
	}
}

// Subscribe registers fn to be invoked once per emitted Trade, in emission
// order, and returns a handle to unregister it later. Fan-out is
// one-to-many: multiple subscribers may be registered concurrently without
// racing emission, since Subscribe only ever mutates the subscriber map
// under mu and Publish takes a stable snapshot of it.
func (p *TradePublisher) Subscribe(fn Observer) Subscription {
	p.mu.Lock()
	defer p.mu.Unlock()

	id := p.nextID
	p.nextID++
	sub := &subscriber{id: id, ch: make(chan Trade, p.bound), fn: fn, pub: p}
	p.subs[id] = sub
	p.t.Go(func() error {
		sub.run(p.t)
		return nil
	})
	return Subscription{id: id, pub: p}
}

func (p *TradePublisher) unsubscribe(id int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.subs, id)
}

// Publish hands trade to every live subscriber's queue. Never blocks: a
// full queue drops its oldest entry and counts it. Must be called under
// the OrderBook's exclusion so that emission order matches matcher order.
func (p *TradePublisher) Publish(trade Trade) {
	p.mu.Lock()
	snapshot := make([]*subscriber, 0, len(p.subs))
	for _, s := range p.subs {
		snapshot = append(snapshot, s)
	}
	p.mu.Unlock()

	for _, s := range snapshot {
		if s.enqueue(trade) {
			p.dropped.Add(1)
		}
	}
}

// DroppedCount returns the cumulative number of trades dropped across all
// observers due to queue overflow.
func (p *TradePublisher) DroppedCount() uint64 {
	return p.dropped.Load()
}

// RemovedCount returns the number of observers unregistered after a panic.
func (p *TradePublisher) RemovedCount() uint64 {
	return p.removed.Load()
}

// Close stops all subscriber goroutines and waits for them to exit.
func (p *TradePublisher) Close() {
	p.t.Kill(nil)
	_ = p.t.Wait()
}

// enqueue pushes trade onto the subscriber's bounded channel, dropping the
// oldest queued trade if it is full. Returns whether anything was dropped.
func (s *subscriber) enqueue(trade Trade) bool {
	select {
	case s.ch <- trade:
		return false
	default:
	}

	select {
	case <-s.ch:
	default:
	}

	select {
	case s.ch <- trade:
		return true
	default:
		// Extremely unlikely race against the draining goroutine; count
		// the new trade itself as dropped rather than block.
		return true
	}
}

func (s *subscriber) run(t *tomb.Tomb) {
	for {
		select {
		case <-t.Dying():
			return
		case trade := <-s.ch:
			s.invoke(trade)
		}
	}
}

// invoke calls the observer, recovering from a panic so a misbehaving
// observer never propagates into the matcher: it is unregistered and
// counted instead.
func (s *subscriber) invoke(trade Trade) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Int("subscriberID", s.id).
				Msg("trade observer panicked, unregistering")
			s.pub.removed.Add(1)
			s.pub.unsubscribe(s.id)
		}
	}()
	s.fn(trade)
}
