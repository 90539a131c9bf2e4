// Package watchlist is a simple instrument-ID set with stable ordering.
// Add and Remove are idempotent; unknown IDs are validated upstream.
package watchlist

// Store holds watchlist membership in insertion order.
type Store struct {
	ids    []string
	member map[string]bool
}

// New creates an empty Store.
func New() *Store {
	return &Store{member: make(map[string]bool)}
}

// Add inserts an instrument ID. Returns false if it was already present.
func (s *Store) Add(instrumentID string) bool {
	if s.member[instrumentID] {
		return false
	}
	s.member[instrumentID] = true
	s.ids = append(s.ids, instrumentID)
	return true
}

// Remove deletes an instrument ID. Returns false if it was not present.
func (s *Store) Remove(instrumentID string) bool {
	if !s.member[instrumentID] {
		return false
	}
	delete(s.member, instrumentID)
	for i, id := range s.ids {
		if id == instrumentID {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			break
		}
	}
	return true
}

// Contains reports membership.
func (s *Store) Contains(instrumentID string) bool {
	return s.member[instrumentID]
}

// List returns a copy of the IDs in insertion order.
func (s *Store) List() []string {
	cp := make([]string, len(s.ids))
	copy(cp, s.ids)
	return cp
}

// Restore replaces the membership wholesale (startup rehydration).
func (s *Store) Restore(ids []string) {
	s.ids = nil
	s.member = make(map[string]bool, len(ids))
	for _, id := range ids {
		if s.member[id] {
			continue
		}
		s.member[id] = true
		s.ids = append(s.ids, id)
	}
}
