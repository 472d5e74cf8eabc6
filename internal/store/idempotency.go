package store

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Idempotency is the bind-once table mapping submission keys to tasks.
// A key, once bound, is never overwritten.
type Idempotency interface {
	// Admit binds key to candidate if the key is unseen and reports true.
	// If the key is already bound it returns the original task id and false,
	// with no side effects. The check-and-bind is atomic.
	Admit(key string, candidate uuid.UUID) (uuid.UUID, bool)
}

// DeriveKey builds the idempotency key used when the caller supplies none:
// a digest over patient id, primary document name and diagnosis, so that
// byte-identical resubmissions collide and near-identical ones do not.
func DeriveKey(patientID, primaryDocName, diagnosis string) string {
	raw := fmt.Sprintf("%s-%s-%s", patientID, primaryDocName, diagnosis)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

type idempotencyStore struct {
	mu    sync.Mutex
	bound map[string]uuid.UUID
}

func NewIdempotencyStore() Idempotency {
	return &idempotencyStore{bound: make(map[string]uuid.UUID)}
}

func (s *idempotencyStore) Admit(key string, candidate uuid.UUID) (uuid.UUID, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if original, ok := s.bound[key]; ok {
		return original, false
	}
	s.bound[key] = candidate
	return candidate, true
}
