package service

import (
	"fmt"

	"github.com/google/uuid"
)

type ErrDuplicateSubmission struct {
	error
	OriginalTaskID uuid.UUID
}

func NewErrDuplicateSubmission(original uuid.UUID) *ErrDuplicateSubmission {
	return &ErrDuplicateSubmission{
		error:          fmt.Errorf("duplicate submission detected, original task %s", original),
		OriginalTaskID: original,
	}
}

type ErrTaskNotFound struct {
	error
}

func NewErrTaskNotFound(id uuid.UUID) *ErrTaskNotFound {
	return &ErrTaskNotFound{fmt.Errorf("task %s not found", id)}
}

type ErrMissingDocument struct {
	error
}

func NewErrMissingDocument(role string) *ErrMissingDocument {
	return &ErrMissingDocument{fmt.Errorf("required document %q is missing", role)}
}

type ErrInvalidPayload struct {
	error
}

func NewErrInvalidPayload(field string, cause error) *ErrInvalidPayload {
	return &ErrInvalidPayload{fmt.Errorf("invalid %s payload: %s", field, cause)}
}
