package store

import "errors"

var (
	// ErrTaskNotFound is returned when a task id is not present in the ledger.
	ErrTaskNotFound = errors.New("task not found")
	// ErrInvalidTransition is returned when a state change would violate
	// the task lifecycle (regression, or movement out of a terminal state).
	ErrInvalidTransition = errors.New("invalid task state transition")
	// ErrResultAlreadyRecorded is returned on a second RecordResult call.
	ErrResultAlreadyRecorded = errors.New("task result already recorded")
)
