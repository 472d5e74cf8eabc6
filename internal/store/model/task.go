package model

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	api "github.com/ayurankh/claims-processor/api/v1alpha1"
)

// TaskState is the lifecycle state of a claim-processing task.
type TaskState string

const (
	TaskPending    TaskState = "PENDING"
	TaskProcessing TaskState = "PROCESSING"
	TaskValidating TaskState = "VALIDATING"
	TaskCompleted  TaskState = "COMPLETED"
	TaskFlagged    TaskState = "FLAGGED"
	TaskFailed     TaskState = "FAILED"
	TaskError      TaskState = "ERROR"
)

// Terminal reports whether no further transition is allowed out of s.
func (s TaskState) Terminal() bool {
	switch s {
	case TaskCompleted, TaskFlagged, TaskFailed, TaskError:
		return true
	default:
		return false
	}
}

// rank orders the non-terminal phases so monotonicity can be enforced.
func (s TaskState) rank() int {
	switch s {
	case TaskPending:
		return 0
	case TaskProcessing:
		return 1
	case TaskValidating:
		return 2
	default:
		return 3
	}
}

// ReachableFrom reports whether a transition from prev to s is legal.
// Forward movement only; a non-terminal state may re-enter itself (the
// worker refreshes the step label, and redelivery restarts a PROCESSING
// task); ERROR is reachable from every non-terminal state.
func (s TaskState) ReachableFrom(prev TaskState) bool {
	if prev.Terminal() {
		return false
	}
	if s == TaskError {
		return true
	}
	if s == prev {
		return true
	}
	return s.rank() > prev.rank()
}

// Snapshot is the point-in-time view handed to pollers. It is published
// atomically as a whole so a reader never observes a partial write.
type Snapshot struct {
	State  TaskState
	Step   string
	Result *api.TaskResult
}

// Task is one entry of the append-only claim ledger. The owning worker is
// the only writer after creation; pollers read the latest snapshot.
type Task struct {
	ID        uuid.UUID
	Claim     *ClaimSubmission
	CreatedAt time.Time

	snapshot atomic.Pointer[Snapshot]
}

// NewTask creates a PENDING task owning the given claim. The id is the
// candidate previously bound in the idempotency table.
func NewTask(id uuid.UUID, claim *ClaimSubmission) *Task {
	t := &Task{
		ID:        id,
		Claim:     claim,
		CreatedAt: time.Now().UTC(),
	}
	t.snapshot.Store(&Snapshot{State: TaskPending})
	return t
}

// Snapshot returns the latest committed snapshot.
func (t *Task) Snapshot() *Snapshot {
	return t.snapshot.Load()
}

// CompareAndPublish swaps in next only if old is still the latest snapshot.
func (t *Task) CompareAndPublish(old, next *Snapshot) bool {
	return t.snapshot.CompareAndSwap(old, next)
}
