package store

// Store bundles the shared mutable state of the service: the task ledger,
// the idempotency table and the override log. The in-memory implementation
// is the only one shipped; durability is an extension point behind these
// interfaces.
type Store interface {
	Task() Task
	Idempotency() Idempotency
	Override() Override
	Close() error
}

type DataStore struct {
	task        Task
	idempotency Idempotency
	override    Override
}

func NewStore() Store {
	return &DataStore{
		task:        NewTaskStore(),
		idempotency: NewIdempotencyStore(),
		override:    NewOverrideStore(),
	}
}

func (s *DataStore) Task() Task {
	return s.task
}

func (s *DataStore) Idempotency() Idempotency {
	return s.idempotency
}

func (s *DataStore) Override() Override {
	return s.override
}

func (s *DataStore) Close() error {
	return nil
}
