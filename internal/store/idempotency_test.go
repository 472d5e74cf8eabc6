package store_test

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayurankh/claims-processor/internal/store"
)

func TestDeriveKeyIsStable(t *testing.T) {
	first := store.DeriveKey("P123", "scan.dcm", "Critical")
	second := store.DeriveKey("P123", "scan.dcm", "Critical")

	assert.Equal(t, first, second)
	assert.Len(t, first, 64)
}

func TestDeriveKeySensitiveToEveryField(t *testing.T) {
	base := store.DeriveKey("P123", "scan.dcm", "Critical")

	assert.NotEqual(t, base, store.DeriveKey("P124", "scan.dcm", "Critical"))
	assert.NotEqual(t, base, store.DeriveKey("P123", "scan2.dcm", "Critical"))
	assert.NotEqual(t, base, store.DeriveKey("P123", "scan.dcm", "Routine"))
}

func TestAdmitBindsFirstCandidate(t *testing.T) {
	s := store.NewIdempotencyStore()
	first := uuid.New()

	bound, admitted := s.Admit("key-1", first)
	require.True(t, admitted)
	assert.Equal(t, first, bound)
}

func TestAdmitRejectsRebind(t *testing.T) {
	s := store.NewIdempotencyStore()
	first := uuid.New()

	_, admitted := s.Admit("key-1", first)
	require.True(t, admitted)

	bound, admitted := s.Admit("key-1", uuid.New())
	assert.False(t, admitted)
	assert.Equal(t, first, bound)
}

func TestAdmitDistinctKeysAreIndependent(t *testing.T) {
	s := store.NewIdempotencyStore()

	_, admitted := s.Admit("key-1", uuid.New())
	require.True(t, admitted)

	_, admitted = s.Admit("key-2", uuid.New())
	assert.True(t, admitted)
}

func TestAdmitConcurrentSingleWinner(t *testing.T) {
	s := store.NewIdempotencyStore()

	const racers = 32
	var wg sync.WaitGroup
	winners := make(chan uuid.UUID, racers)
	losers := make(chan uuid.UUID, racers)

	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			candidate := uuid.New()
			bound, admitted := s.Admit("contested", candidate)
			if admitted {
				winners <- bound
			} else {
				losers <- bound
			}
		}()
	}
	wg.Wait()
	close(winners)
	close(losers)

	require.Len(t, winners, 1)
	winner := <-winners
	for bound := range losers {
		assert.Equal(t, winner, bound)
	}
}
