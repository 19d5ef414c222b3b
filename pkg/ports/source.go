package ports

import "context"

// ProgramSource supplies the raw instruction text of every agent, in agent
// ID order. The scheduler re-reads the source at the start of each round,
// so edits made between rounds take effect on the next round but never
// mid-round.
type ProgramSource interface {
	Programs(ctx context.Context) ([]string, error)
}
