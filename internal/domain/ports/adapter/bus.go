package adapter

import "agent-task-bridge/internal/domain/model"

// MessageBus is the process-wide broadcast channel for message events.
// Publish is fire-and-forget; delivery to a given subscriber preserves the
// publish order of a single publisher goroutine, which is what the
// correlator's progress-then-final rule depends on.
type MessageBus interface {
	Publish(event model.MessageEvent)
	// Subscribe registers fn for every published event and returns a guard
	// that must be closed to release the listener.
	Subscribe(fn func(model.MessageEvent)) Subscription
}

// Subscription is a bounded-lifetime listener registration. Close is
// idempotent and safe to call from inside the subscriber callback.
type Subscription interface {
	Close()
}
