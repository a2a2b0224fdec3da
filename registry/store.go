package registry

import "sync"

// Store is the concurrency-safe in-memory table of registration records.
// All operations are atomic; List returns a point-in-time snapshot so callers
// iterating it are unaffected by concurrent mutation.
type Store struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{records: make(map[string]Record)}
}

// Put stores the record under its name, replacing any prior record.
func (s *Store) Put(rec Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Name] = rec.clone()
}

// Get returns a copy of the record for name, if present.
func (s *Store) Get(name string) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[name]
	if !ok {
		return Record{}, false
	}
	return rec.clone(), true
}

// Delete removes the record for name, reporting whether it existed.
func (s *Store) Delete(name string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.records[name]
	if ok {
		delete(s.records, name)
	}
	return ok
}

// List returns a snapshot of all records, expired ones included.
func (s *Store) List() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Record, 0, len(s.records))
	for _, rec := range s.records {
		out = append(out, rec.clone())
	}
	return out
}

// Len returns the number of stored records, expired ones included.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.records)
}
