package ports

import (
	"context"

	"github.com/aretw0/loophound/pkg/domain"
)

// StateStore persists run state between rounds. This enables stop/resume of
// an exercise: the graph stays in memory, agent positions survive.
type StateStore interface {
	// Save persists the run state for a given session ID.
	Save(ctx context.Context, sessionID string, state *domain.RunState) error

	// Load retrieves the run state for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (*domain.RunState, error)

	// Delete removes the run state for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns the IDs of all stored sessions.
	List(ctx context.Context) ([]string, error)
}
