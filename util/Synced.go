package util

import (
	"sync"

	"github.com/dolthub/swiss"
)

// SyncedSwissMap guards a swiss map with a read/write mutex.
type SyncedSwissMap[K comparable, V any] struct {
	mu sync.RWMutex
	m  *swiss.Map[K, V]
}

func NewSyncedSwissMap[K comparable, V any](initialSize uint32) *SyncedSwissMap[K, V] {
	return &SyncedSwissMap[K, V]{m: swiss.NewMap[K, V](initialSize)}
}

func (s *SyncedSwissMap[K, V]) Get(key K) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.m.Get(key)
}

// Update stores fn's result for key in one critical section, or deletes key when fn returns keep == false.
func (s *SyncedSwissMap[K, V]) Update(key K, fn func(value V, found bool) (newValue V, keep bool)) V {
	s.mu.Lock()
	defer s.mu.Unlock()

	value, found := s.m.Get(key)

	newValue, keep := fn(value, found)
	if keep {
		s.m.Put(key, newValue)
	} else if found {
		s.m.Delete(key)
	}

	return newValue
}

func (s *SyncedSwissMap[K, V]) Length() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.m.Count()
}
