package store

import (
	"sync"

	"github.com/google/uuid"

	api "github.com/ayurankh/claims-processor/api/v1alpha1"
	"github.com/ayurankh/claims-processor/internal/store/model"
)

// Task is the append-only ledger of claim-processing tasks. Entries are
// never deleted within the process lifetime. After creation only the worker
// owning a task may transition it; pollers read committed snapshots.
type Task interface {
	Create(id uuid.UUID, claim *model.ClaimSubmission) *model.Task
	Get(id uuid.UUID) (*model.Task, error)
	// Transition moves the task to state and publishes the step label.
	// Illegal movements return ErrInvalidTransition.
	Transition(id uuid.UUID, state model.TaskState, step string) error
	// RecordResult sets the terminal state and payload, exactly once.
	RecordResult(id uuid.UUID, state model.TaskState, result *api.TaskResult) error
	// Stats counts ledger entries by current state.
	Stats() map[model.TaskState]int
}

type taskStore struct {
	mu    sync.RWMutex
	tasks map[uuid.UUID]*model.Task
}

func NewTaskStore() Task {
	return &taskStore{tasks: make(map[uuid.UUID]*model.Task)}
}

func (s *taskStore) Create(id uuid.UUID, claim *model.ClaimSubmission) *model.Task {
	t := model.NewTask(id, claim)

	s.mu.Lock()
	s.tasks[t.ID] = t
	s.mu.Unlock()

	return t
}

func (s *taskStore) Get(id uuid.UUID) (*model.Task, error) {
	s.mu.RLock()
	t, ok := s.tasks[id]
	s.mu.RUnlock()

	if !ok {
		return nil, ErrTaskNotFound
	}
	return t, nil
}

func (s *taskStore) Stats() map[model.TaskState]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := make(map[model.TaskState]int)
	for _, t := range s.tasks {
		stats[t.Snapshot().State]++
	}
	return stats
}

func (s *taskStore) Transition(id uuid.UUID, state model.TaskState, step string) error {
	t, err := s.Get(id)
	if err != nil {
		return err
	}

	for {
		cur := t.Snapshot()
		if !state.ReachableFrom(cur.State) {
			return ErrInvalidTransition
		}
		next := &model.Snapshot{State: state, Step: step}
		if t.CompareAndPublish(cur, next) {
			return nil
		}
	}
}

func (s *taskStore) RecordResult(id uuid.UUID, state model.TaskState, result *api.TaskResult) error {
	t, err := s.Get(id)
	if err != nil {
		return err
	}
	if !state.Terminal() {
		return ErrInvalidTransition
	}

	for {
		cur := t.Snapshot()
		if cur.State.Terminal() {
			return ErrResultAlreadyRecorded
		}
		next := &model.Snapshot{State: state, Result: result}
		if t.CompareAndPublish(cur, next) {
			return nil
		}
	}
}
