// Package events fans directory changes out to live subscribers, such as
// the SSE feed. Every published change gets a sequence number.
package events

import (
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/brianhealey/phonebook/internal/models"
)

const subBufferSize = 16

// Event is a change stamped with its position in the stream, starting at 1.
type Event struct {
	Seq    uint64
	Change models.Change
}

type subscriber struct {
	ch      chan Event
	dropped atomic.Uint64
}

// Bus delivers each published change to every subscriber. A subscriber that
// falls behind loses events rather than stalling publishers.
type Bus struct {
	mu   sync.Mutex
	seq  uint64
	subs map[string]*subscriber
}

// NewBus returns a bus with no subscribers.
func NewBus() *Bus {
	return &Bus{subs: make(map[string]*subscriber)}
}

// Subscription is a live feed of events. C is closed by Close.
type Subscription struct {
	C <-chan Event

	id  string
	sub *subscriber
	bus *Bus
}

// ID identifies the subscription in logs.
func (s *Subscription) ID() string { return s.id }

// Dropped reports how many events were discarded because C was full.
func (s *Subscription) Dropped() uint64 { return s.sub.dropped.Load() }

// Close stops delivery and closes C. It is safe to call more than once.
func (s *Subscription) Close() { s.bus.remove(s.id) }

// Subscribe starts a new subscription. Only changes published afterwards are delivered.
func (b *Bus) Subscribe() *Subscription {
	sub := &subscriber{ch: make(chan Event, subBufferSize)}
	id := uuid.NewString()

	b.mu.Lock()
	b.subs[id] = sub
	b.mu.Unlock()

	return &Subscription{C: sub.ch, id: id, sub: sub, bus: b}
}

func (b *Bus) remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if sub, ok := b.subs[id]; ok {
		close(sub.ch)
		delete(b.subs, id)
	}
}

// Publish stamps change with the next sequence number and hands it to every
// subscriber without blocking.
func (b *Bus) Publish(change models.Change) Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.seq++
	ev := Event{Seq: b.seq, Change: change}
	for id, sub := range b.subs {
		select {
		case sub.ch <- ev:
		default:
			n := sub.dropped.Add(1)
			slog.Debug("events: subscriber full, event dropped", "subscriber", id, "seq", ev.Seq, "dropped", n)
		}
	}
	return ev
}

// Seq returns the sequence number of the last published event, 0 if none.
func (b *Bus) Seq() uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seq
}

// SubscriberCount returns the number of open subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs)
}
