package conversation

import (
	"context"
	"sync"
	"time"

	"agent-task-bridge/internal/domain"
	"agent-task-bridge/internal/domain/ports/adapter"

	"github.com/google/uuid"
)

// Compile-time check
var _ adapter.ConversationAdapter = (*MemoryConversations)(nil)

type message struct {
	ID        string
	AuthorID  string
	Content   string
	CreatedAt time.Time
	Metadata  map[string]any
}

type channel struct {
	Kind         string
	Participants []string
	Metadata     map[string]any
	Messages     []message
}

// MemoryConversations is the in-process stand-in for the platform's
// conversation persistence service. Channels here are transient by design:
// they live exactly as long as the process.
type MemoryConversations struct {
	mu       sync.Mutex
	channels map[string]*channel
}

func NewMemoryConversations() *MemoryConversations {
	return &MemoryConversations{channels: make(map[string]*channel)}
}

func (c *MemoryConversations) CreateChannel(ctx context.Context, channelID, kind string, participants []string, metadata map[string]any) error {
	if channelID == "" {
		return domain.ErrInvalidArgument
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.channels[channelID]; ok {
		return domain.ErrAlreadyExists
	}
	c.channels[channelID] = &channel{Kind: kind, Participants: participants, Metadata: metadata}
	return nil
}

func (c *MemoryConversations) PostMessage(ctx context.Context, channelID, authorID, content string, metadata map[string]any) (adapter.PostedMessage, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.channels[channelID]
	if !ok {
		return adapter.PostedMessage{}, domain.ErrNotFound
	}
	m := message{
		ID:        uuid.NewString(),
		AuthorID:  authorID,
		Content:   content,
		CreatedAt: time.Now(),
		Metadata:  metadata,
	}
	ch.Messages = append(ch.Messages, m)
	return adapter.PostedMessage{ID: m.ID, CreatedAt: m.CreatedAt}, nil
}

// MessageCount reports how many messages a channel holds; used by tests.
func (c *MemoryConversations) MessageCount(channelID string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ch, ok := c.channels[channelID]; ok {
		return len(ch.Messages)
	}
	return 0
}
