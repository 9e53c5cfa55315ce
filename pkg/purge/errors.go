package purge

import "errors"

var (
	// ErrMissingCollaborator is returned by NewEngine when a required
	// collaborator is nil.
	ErrMissingCollaborator = errors.New("purge: missing collaborator")

	// ErrAlreadyStarted is returned by Start on a running engine.
	ErrAlreadyStarted = errors.New("purge: engine already started")

	// ErrStopTimeout is returned by Stop when the worker did not exit in time.
	ErrStopTimeout = errors.New("purge: timed out waiting for worker")

	// ErrInterrupted marks a run cut short by engine shutdown.
	ErrInterrupted = errors.New("purge: run interrupted")

	// ErrPanic marks a run aborted by a panic in a collaborator.
	ErrPanic = errors.New("purge: run panicked")
)
