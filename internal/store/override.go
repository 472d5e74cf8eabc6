package store

import (
	"sync"

	"github.com/ayurankh/claims-processor/internal/store/model"
)

// Override is the append-only ledger of human override decisions.
type Override interface {
	Append(entry model.OverrideLog)
	// List returns all entries in creation order.
	List() []model.OverrideLog
}

type overrideStore struct {
	mu      sync.RWMutex
	entries []model.OverrideLog
}

func NewOverrideStore() Override {
	return &overrideStore{}
}

func (s *overrideStore) Append(entry model.OverrideLog) {
	s.mu.Lock()
	s.entries = append(s.entries, entry)
	s.mu.Unlock()
}

func (s *overrideStore) List() []model.OverrideLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]model.OverrideLog, len(s.entries))
	copy(out, s.entries)
	return out
}
