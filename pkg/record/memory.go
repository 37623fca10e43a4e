package record

import (
	"context"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore keeps records in memory.
type MemoryStore struct {
	mu         sync.RWMutex
	cards      map[string]*Photocard
	selections []*Selection
	now        func() time.Time
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		cards: make(map[string]*Photocard),
		now:   time.Now,
	}
}

func (s *MemoryStore) Create(_ context.Context, p *Photocard) (*Photocard, error) {
	in := clone(p)
	if err := validate(in); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	in.ID = uuid.NewString()
	in.CreatedAt = s.now()
	s.cards[in.ID] = in
	return clone(in), nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (*Photocard, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.cards[id]
	if !ok {
		return nil, notFound(id)
	}
	return clone(p), nil
}

func (s *MemoryStore) ListByArtwork(_ context.Context, artworkID int64) ([]*Photocard, error) {
	return s.filter(func(p *Photocard) bool { return p.ArtworkID == artworkID }), nil
}

func (s *MemoryStore) ListByConversation(_ context.Context, conversationID int64) ([]*Photocard, error) {
	return s.filter(func(p *Photocard) bool { return p.ConversationID == conversationID }), nil
}

func (s *MemoryStore) Find(_ context.Context, conversationID, artworkID int64) (*Photocard, error) {
	found := s.filter(func(p *Photocard) bool {
		return p.ConversationID == conversationID && p.ArtworkID == artworkID
	})
	if len(found) == 0 {
		return nil, notFoundFor(conversationID, artworkID)
	}
	return found[0], nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.cards[id]; !ok {
		return notFound(id)
	}
	delete(s.cards, id)
	return nil
}

func (s *MemoryStore) Select(_ context.Context, sel *Selection) (*Selection, error) {
	in := *sel
	if err := validateSelection(&in); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	in.ID = uuid.NewString()
	in.SelectedAt = s.now()
	s.selections = append(s.selections, &in)
	out := in
	return &out, nil
}

func (s *MemoryStore) Selections(_ context.Context, artworkID int64) ([]*Selection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []*Selection{}
	for _, sel := range s.selections {
		if sel.ArtworkID == artworkID {
			c := *sel
			out = append(out, &c)
		}
	}
	return out, nil
}

func (s *MemoryStore) Close(context.Context) error { return nil }

func (s *MemoryStore) filter(keep func(*Photocard) bool) []*Photocard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*Photocard, 0)
	for _, p := range s.cards {
		if keep(p) {
			out = append(out, clone(p))
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

func clone(p *Photocard) *Photocard {
	c := *p
	c.Fallbacks = slices.Clone(p.Fallbacks)
	return &c
}
