package template

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps templates in memory.
type MemoryStore struct {
	mu        sync.RWMutex
	templates map[string]*Template
	now       func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		templates: make(map[string]*Template),
		now:       time.Now,
	}
}

func (s *MemoryStore) List(_ context.Context) ([]*Template, error) {
	return s.filter(func(t *Template) bool { return t.Active }), nil
}

func (s *MemoryStore) ListByType(_ context.Context, typ Type) ([]*Template, error) {
	return s.filter(func(t *Template) bool { return t.Active && t.Type == typ }), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.templates[id]
	if !ok {
		return nil, notFound(id)
	}
	return clone(t), nil
}

func (s *MemoryStore) GetByName(_ context.Context, name string) (*Template, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if t := s.byName(name); t != nil {
		return clone(t), nil
	}
	return nil, notFound(name)
}

func (s *MemoryStore) Create(_ context.Context, t *Template) (*Template, error) {
	in := clone(t)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.byName(in.Name) != nil {
		return nil, nameTaken(in.Name)
	}
	now := s.now()
	in.ID = uuid.NewString()
	in.CreatedAt = now
	in.UpdatedAt = now
	s.templates[in.ID] = in
	return clone(in), nil
}

func (s *MemoryStore) Update(_ context.Context, id string, t *Template) (*Template, error) {
	in := clone(t)
	if err := in.Validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.templates[id]
	if !ok {
		return nil, notFound(id)
	}
	if other := s.byName(in.Name); other != nil && other.ID != id {
		return nil, nameTaken(in.Name)
	}
	in.ID = id
	in.CreatedAt = existing.CreatedAt
	in.UpdatedAt = s.now()
	s.templates[id] = in
	return clone(in), nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.templates[id]
	if !ok {
		return notFound(id)
	}
	t.Active = false
	t.UpdatedAt = s.now()
	return nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }

// byName must be called with s.mu held.
func (s *MemoryStore) byName(name string) *Template {
	for _, t := range s.templates {
		if t.Name == name {
			return t
		}
	}
	return nil
}

func (s *MemoryStore) filter(keep func(*Template) bool) []*Template {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Template, 0, len(s.templates))
	for _, t := range s.templates {
		if keep(t) {
			out = append(out, clone(t))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

func clone(t *Template) *Template {
	c := *t
	return &c
}
