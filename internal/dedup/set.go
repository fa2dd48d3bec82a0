package dedup

import "sync"

// Set is a concurrency-safe first-seen filter. Accept is an atomic
// check-then-insert: under concurrent callers racing on the same key,
// exactly one of them wins.
type Set struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewSet returns an empty Set.
func NewSet() *Set {
	return &Set{seen: make(map[string]struct{})}
}

// Accept records key and reports whether this call was the first to do so.
func (s *Set) Accept(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.seen[key]; ok {
		return false
	}
	s.seen[key] = struct{}{}
	return true
}

// Contains reports whether key has been accepted, without recording it.
func (s *Set) Contains(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.seen[key]
	return ok
}

// Len returns the number of accepted keys.
func (s *Set) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.seen)
}
