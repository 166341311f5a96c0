package feed

import (
	"context"
	"sync"
)

// Bus is an in-process feed used by the single-node deployment and by tests.
// It implements both Publisher and Feed.
type Bus struct {
	mu   sync.Mutex
	subs map[*busSub]struct{}
}

func NewBus() *Bus {
	return &Bus{subs: make(map[*busSub]struct{})}
}

func (b *Bus) Publish(_ context.Context, ev Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for s := range b.subs {
		if s.table != ev.Table {
			continue
		}
		select {
		case s.events <- ev:
		default:
			// Slow subscriber: drop rather than block the committing writer.
			// The subscriber self-heals via its next refetch.
		}
	}
	return nil
}

func (b *Bus) Subscribe(_ context.Context, table string) (Subscription, error) {
	s := &busSub{bus: b, table: table, events: make(chan Event, 64)}
	b.mu.Lock()
	b.subs[s] = struct{}{}
	b.mu.Unlock()
	return s, nil
}

type busSub struct {
	bus    *Bus
	table  string
	events chan Event
	once   sync.Once
}

func (s *busSub) Events() <-chan Event { return s.events }

func (s *busSub) Close() error {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s)
		s.bus.mu.Unlock()
		close(s.events)
	})
	return nil
}
