package script

import "errors"

// Errors for Lua state operations.
var (
	// ErrStateClosed is returned when operating on a closed state.
	ErrStateClosed = errors.New("lua state is closed")

	// ErrInstructionLimit is returned when a chunk exhausts its
	// instruction budget.
	ErrInstructionLimit = errors.New("lua instruction limit exceeded")

	// ErrNoScreen is raised into Lua when a screen function is called
	// before initscr.
	ErrNoScreen = errors.New("initscr has not been called")
)
