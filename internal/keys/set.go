package keys

import (
	"sync"
	"sync/atomic"
)

// Set holds the registered key regions. Readers take a snapshot that is never
// modified afterwards; writers publish a new slice.
type Set struct {
	mu      sync.Mutex // serialises writers
	regions atomic.Pointer[[]Region]
}

// NewSet creates an empty Set.
func NewSet() *Set {
	s := &Set{}
	empty := []Region{}
	s.regions.Store(&empty)
	return s
}

// Add appends a region.
func (s *Set) Add(r Region) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := *s.regions.Load()
	next := make([]Region, len(cur), len(cur)+1)
	copy(next, cur)
	next = append(next, r)
	s.regions.Store(&next)
}

// Replace swaps the whole region set in one step.
func (s *Set) Replace(regions []Region) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make([]Region, len(regions))
	copy(next, regions)
	s.regions.Store(&next)
}

// Clear removes all regions.
func (s *Set) Clear() {
	s.Replace(nil)
}

// Snapshot returns the current regions. The returned slice must not be modified.
func (s *Set) Snapshot() []Region {
	return *s.regions.Load()
}

// Len returns the number of registered regions.
func (s *Set) Len() int {
	return len(*s.regions.Load())
}

// Get returns the region with the given ID.
func (s *Set) Get(id string) (Region, bool) {
	for _, r := range s.Snapshot() {
		if r.ID == id {
			return r, true
		}
	}
	return Region{}, false
}
