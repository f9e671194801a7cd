// Package inflight tracks the (tenant, counterparty) conversations that are
// currently being answered.
package inflight

import (
	"strconv"
	"sync"
)

// Key identifies one conversation.
type Key struct {
	TenantID     uint
	Counterparty string
}

func (k Key) String() string {
	return strconv.FormatUint(uint64(k.TenantID), 10) + ":" + k.Counterparty
}

// Set is a process-wide lock set. The zero value is not usable; use New.
type Set struct {
	mu   sync.Mutex
	keys map[Key]struct{}
}

func New() *Set {
	return &Set{keys: make(map[Key]struct{})}
}

// TryAcquire claims key. It returns false when the key is already held.
// The returned release func is idempotent and must be called on every
// exit path.
func (s *Set) TryAcquire(key Key) (release func(), ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, held := s.keys[key]; held {
		return func() {}, false
	}
	s.keys[key] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.keys, key)
			s.mu.Unlock()
		})
	}, true
}

// Contains reports whether key is held.
func (s *Set) Contains(key Key) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, held := s.keys[key]
	return held
}

// Len returns the number of held keys.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.keys)
}
