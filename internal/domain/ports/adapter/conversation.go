package adapter

import (
	"context"
	"time"
)

// PostedMessage is what the conversation layer reports back for a stored
// message.
type PostedMessage struct {
	ID        string
	CreatedAt time.Time
}

// ConversationAdapter is the transient-channel persistence collaborator. The
// bridge creates one channel per job to carry exactly one prompt and reply.
type ConversationAdapter interface {
	CreateChannel(ctx context.Context, channelID, kind string, participants []string, metadata map[string]any) error
	PostMessage(ctx context.Context, channelID, authorID, content string, metadata map[string]any) (PostedMessage, error)
}
