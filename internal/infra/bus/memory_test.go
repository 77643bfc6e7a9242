package bus

import (
	"testing"
	"time"

	"agent-task-bridge/internal/domain/model"
)

func ev(id, channel string) model.MessageEvent {
	return model.MessageEvent{
		ID:        id,
		ChannelID: channel,
		AuthorID:  "agent-1",
		Content:   "content " + id,
		CreatedAt: time.Now(),
	}
}

func TestMemoryBus_DeliversInPublishOrder(t *testing.T) {
	b := NewMemoryBus()

	var got []string
	sub := b.Subscribe(func(e model.MessageEvent) { got = append(got, e.ID) })
	defer sub.Close()

	for _, id := range []string{"m1", "m2", "m3"} {
		b.Publish(ev(id, "chan-1"))
	}

	if len(got) != 3 || got[0] != "m1" || got[1] != "m2" || got[2] != "m3" {
		t.Fatalf("want [m1 m2 m3], got %v", got)
	}
}

func TestMemoryBus_Broadcast(t *testing.T) {
	b := NewMemoryBus()

	var a, c int
	s1 := b.Subscribe(func(model.MessageEvent) { a++ })
	s2 := b.Subscribe(func(model.MessageEvent) { c++ })
	defer s1.Close()
	defer s2.Close()

	b.Publish(ev("m1", "chan-1"))
	if a != 1 || c != 1 {
		t.Fatalf("both subscribers should see the event: a=%d c=%d", a, c)
	}
}

func TestMemoryBus_CloseStopsDeliveryAndIsIdempotent(t *testing.T) {
	b := NewMemoryBus()

	var n int
	sub := b.Subscribe(func(model.MessageEvent) { n++ })

	b.Publish(ev("m1", "chan-1"))
	sub.Close()
	sub.Close()
	b.Publish(ev("m2", "chan-1"))

	if n != 1 {
		t.Fatalf("want 1 delivery, got %d", n)
	}
	if b.SubscriberCount() != 0 {
		t.Fatalf("want 0 subscribers, got %d", b.SubscriberCount())
	}
}

func TestMemoryBus_CloseFromInsideHandler(t *testing.T) {
	b := NewMemoryBus()

	var n int
	done := make(chan struct{})
	var sub interface{ Close() }
	sub = b.Subscribe(func(model.MessageEvent) {
		n++
		sub.Close()
		close(done)
	})

	b.Publish(ev("m1", "chan-1"))
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("handler never ran")
	}

	b.Publish(ev("m2", "chan-1"))
	if n != 1 {
		t.Fatalf("subscription should be released after self-close, got %d deliveries", n)
	}
}
