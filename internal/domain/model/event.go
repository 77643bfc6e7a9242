package model

import "time"

// EventKind classifies a bus event when the publisher sets it. Runtimes that
// predate the field publish with an empty kind and the correlator falls back
// to content inspection.
type EventKind string

const (
	EventKindProgress EventKind = "progress"
	EventKindFinal    EventKind = "final"
)

// MessageEvent is the broadcast "new message" notification carried by the
// in-process bus. One is published for the caller's prompt and one (or more,
// when the agent narrates tool use) for the agent's reply.
type MessageEvent struct {
	ID        string         `json:"id"`
	ChannelID string         `json:"channel_id"`
	AuthorID  string         `json:"author_id"`
	Content   string         `json:"content"`
	Kind      EventKind      `json:"kind,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// WellFormed reports whether every field the correlator needs is present.
// Malformed events are dropped without logging noise.
func (e MessageEvent) WellFormed() bool {
	return e.ID != "" && e.ChannelID != "" && e.AuthorID != "" &&
		e.Content != "" && !e.CreatedAt.IsZero()
}
