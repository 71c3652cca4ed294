package realtime

import (
	"context"
	"sync"

	"github.com/charmbracelet/log"
)

// Broker fans events out to channel subscribers.
type Broker interface {
	// Publish delivers an event to every current subscriber of the channel.
	Publish(ctx context.Context, channel string, event Event) error
	// Subscribe opens a subscription to a channel. The caller must Close it.
	Subscribe(ctx context.Context, channel string) (*Subscription, error)
	// Close releases broker resources. Open subscriptions are terminated.
	Close() error
}

// Subscription is one subscriber's event stream. C is closed when the
// subscription ends.
type Subscription struct {
	C     <-chan Event
	close func()
	once  sync.Once
}

// Close ends the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(s.close)
}

// MemoryBroker is an in-process [Broker] for single-instance deployments and
// tests.
type MemoryBroker struct {
	mu          sync.RWMutex
	subscribers map[string]map[int]chan Event
	nextID      int
	closed      bool
	logger      *log.Logger
}

// NewMemoryBroker creates a new MemoryBroker with the given logger
func NewMemoryBroker(logger *log.Logger) *MemoryBroker {
	return &MemoryBroker{
		subscribers: make(map[string]map[int]chan Event),
		logger:      logger,
	}
}

// Publish delivers the event to the channel's subscribers. Slow subscribers
// with a full buffer are skipped rather than blocking the publisher.
func (b *MemoryBroker) Publish(_ context.Context, channel string, event Event) error {
	b.mu.RLock()
	subs := make([]chan Event, 0, len(b.subscribers[channel]))
	for _, ch := range b.subscribers[channel] {
		subs = append(subs, ch)
	}
	b.mu.RUnlock()

	dropped := 0
	for _, ch := range subs {
		select {
		case ch <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 {
		b.logger.Warn("dropped events for slow subscribers", "channel", channel, "dropped", dropped)
	}
	return nil
}

// Subscribe registers a subscriber on the channel.
func (b *MemoryBroker) Subscribe(_ context.Context, channel string) (*Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch := make(chan Event, 32)
	if b.closed {
		close(ch)
		return &Subscription{C: ch, close: func() {}}, nil
	}

	id := b.nextID
	b.nextID++
	if b.subscribers[channel] == nil {
		b.subscribers[channel] = make(map[int]chan Event)
	}
	b.subscribers[channel][id] = ch

	return &Subscription{
		C: ch,
		close: func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if _, ok := b.subscribers[channel][id]; !ok {
				return
			}
			delete(b.subscribers[channel], id)
			if len(b.subscribers[channel]) == 0 {
				delete(b.subscribers, channel)
			}
			close(ch)
		},
	}, nil
}

// Close terminates every open subscription.
func (b *MemoryBroker) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	for channel, subs := range b.subscribers {
		for _, ch := range subs {
			close(ch)
		}
		delete(b.subscribers, channel)
	}
	return nil
}
