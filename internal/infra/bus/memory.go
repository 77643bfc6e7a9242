package bus

import (
	"sync"

	"agent-task-bridge/internal/domain/model"
	"agent-task-bridge/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.MessageBus = (*MemoryBus)(nil)

// MemoryBus is an in-process broadcast bus for message events. Dispatch is
// synchronous in the publisher's goroutine, so a single publisher's events
// reach each subscriber in publish order. Handlers must not block.
type MemoryBus struct {
	mu     sync.RWMutex
	nextID uint64
	subs   map[uint64]func(model.MessageEvent)
}

func NewMemoryBus() *MemoryBus {
	return &MemoryBus{subs: make(map[uint64]func(model.MessageEvent))}
}

// Publish delivers the event to every current subscriber. Fire-and-forget:
// there is no acknowledgement and no retry.
func (b *MemoryBus) Publish(event model.MessageEvent) {
	b.mu.RLock()
	handlers := make([]func(model.MessageEvent), 0, len(b.subs))
	for _, fn := range b.subs {
		handlers = append(handlers, fn)
	}
	b.mu.RUnlock()

	// Invoked outside the lock so a handler may close its own subscription.
	for _, fn := range handlers {
		fn(event)
	}
}

func (b *MemoryBus) Subscribe(fn func(model.MessageEvent)) adapter.Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.nextID++
	id := b.nextID
	b.subs[id] = fn
	return &subscription{bus: b, id: id}
}

// SubscriberCount reports the number of live listeners; used by tests to
// prove listeners are not leaked.
func (b *MemoryBus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

type subscription struct {
	bus  *MemoryBus
	id   uint64
	once sync.Once
}

func (s *subscription) Close() {
	s.once.Do(func() {
		s.bus.mu.Lock()
		delete(s.bus.subs, s.id)
		s.bus.mu.Unlock()
	})
}
