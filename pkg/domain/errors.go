package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned by stores when a session ID is unknown.
var ErrSessionNotFound = errors.New("session not found")

// ErrRunTerminated is returned when a round is requested on a run that
// already reached a terminal outcome. The stored outcome accompanies it.
var ErrRunTerminated = errors.New("run already terminated")

// MissingSectionError reports a graph document without a required section
// marker. The previously loaded graph must be left untouched by callers.
type MissingSectionError struct {
	Section string
}

func (e *MissingSectionError) Error() string {
	return fmt.Sprintf("graph text is missing the %q section", e.Section)
}

// UnknownLabelError reports an edge line that references a node label not
// declared in the Nodes section.
type UnknownLabelError struct {
	Label string
}

func (e *UnknownLabelError) Error() string {
	return fmt.Sprintf("edge references unknown node label %q", e.Label)
}
