package session

import "errors"

// Domain errors for annotation sessions.
var (
	ErrNotReady        = errors.New("session is not ready")
	ErrNoTasks         = errors.New("no tasks available")
	ErrNoMoreTasks     = errors.New("no more tasks")
	ErrUnknownQuestion = errors.New("question does not belong to the current task")
	ErrNoAnswer        = errors.New("question has no answer yet")
	ErrClosed          = errors.New("session is closed")
)
