package agents

import (
	"context"

	"agent-task-bridge/internal/domain"
	"agent-task-bridge/internal/domain/ports/adapter"
)

// Compile-time check
var _ adapter.AgentDirectory = (*StaticDirectory)(nil)

// StaticDirectory serves the agent roster from config. The real platform
// backs this with the agent runtime's registry; the bridge only needs
// existence and default resolution.
type StaticDirectory struct {
	defaultID string
	known     map[string]struct{}
}

func NewStaticDirectory(defaultID string, ids []string) *StaticDirectory {
	known := make(map[string]struct{}, len(ids)+1)
	for _, id := range ids {
		known[id] = struct{}{}
	}
	if defaultID != "" {
		known[defaultID] = struct{}{}
	}
	return &StaticDirectory{defaultID: defaultID, known: known}
}

func (d *StaticDirectory) ResolveDefault(ctx context.Context) (string, error) {
	if d.defaultID == "" {
		return "", domain.ErrNoDefaultAgent
	}
	return d.defaultID, nil
}

func (d *StaticDirectory) Exists(ctx context.Context, agentID string) (bool, error) {
	_, ok := d.known[agentID]
	return ok, nil
}
