package adapter

import "context"

// AgentDirectory resolves which agent should answer a job.
type AgentDirectory interface {
	// ResolveDefault returns the agent used when the caller names none;
	// domain.ErrNoDefaultAgent when the deployment has no default.
	ResolveDefault(ctx context.Context) (string, error)
	Exists(ctx context.Context, agentID string) (bool, error)
}
