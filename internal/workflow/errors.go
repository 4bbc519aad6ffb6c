package workflow

import "errors"

// Sentinel kinds for session outcomes. Sessions handle these locally
// and report to the user; callers only see them for logging.
var (
	// ErrTimedOut means no qualifying response arrived within the
	// step's bound. The whole session terminates.
	ErrTimedOut = errors.New("session timed out")

	// ErrDenied means the actor lacks the capability the flow
	// requires. No state was mutated.
	ErrDenied = errors.New("missing required capability")

	// ErrValidation means the actor's input was malformed or out of
	// range in a way the flow does not re-prompt for.
	ErrValidation = errors.New("input rejected")

	// ErrSurfaceUnavailable means a required external surface (a DM
	// channel, the review channel) could not be reached.
	ErrSurfaceUnavailable = errors.New("required surface unavailable")
)
