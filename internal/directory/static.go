package directory

import (
	"context"
	"sync"
)

// Static is an in-memory Directory. It backs the "static" directory backend used
// for local development and tests.
type Static struct {
	mu     sync.RWMutex
	people map[string]Person
}

// NewStatic returns a Static directory holding people.
func NewStatic(people ...Person) *Static {
	s := &Static{people: make(map[string]Person, len(people))}
	for _, p := range people {
		s.people[p.CRSID] = p
	}
	return s
}

// Name identifies the backend in metrics and logs.
func (s *Static) Name() string { return "static" }

// Put adds or replaces a person.
func (s *Static) Put(p Person) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.people[p.CRSID] = p
}

// LookupPerson implements Directory.
func (s *Static) LookupPerson(_ context.Context, crsid string) (*Person, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.people[crsid]
	if !ok {
		return nil, ErrPersonNotFound
	}
	out := p
	out.Groups = append([]Group(nil), p.Groups...)
	out.Institutions = append([]Institution(nil), p.Institutions...)
	return &out, nil
}
