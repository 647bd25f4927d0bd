package membership

import (
	"context"
	"sort"
	"sync"

	"github.com/dmitrymomot/projectauth/pkg/roles"
)

// MemoryStore is an in-memory Store for tests and single-process use. It
// honors the same contract as the persistent adapters: unique (project,
// user) pairs and compare-and-swap writes.
type MemoryStore struct {
	mu     sync.RWMutex
	byID   map[string]Membership
	byPair map[string]string // projectID+"/"+userID -> membership ID
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:   make(map[string]Membership),
		byPair: make(map[string]string),
	}
}

func pairKey(projectID, userID string) string {
	return projectID + "/" + userID
}

func (s *MemoryStore) Get(_ context.Context, id string) (Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, ok := s.byID[id]
	if !ok {
		return Membership{}, ErrNotFound
	}
	return m, nil
}

func (s *MemoryStore) GetByProjectAndUser(_ context.Context, projectID, userID string) (Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.byPair[pairKey(projectID, userID)]
	if !ok {
		return Membership{}, ErrNotFound
	}
	return s.byID[id], nil
}

func (s *MemoryStore) ListByProject(_ context.Context, projectID string) ([]Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []Membership
	for _, m := range s.byID {
		if m.ProjectID == projectID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].JoinedAt.Before(out[j].JoinedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *MemoryStore) CountByProjectAndRole(_ context.Context, projectID string, role roles.ProjectRole) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, m := range s.byID {
		if m.ProjectID == projectID && m.Role == role {
			count++
		}
	}
	return count, nil
}

func (s *MemoryStore) Create(_ context.Context, m Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := pairKey(m.ProjectID, m.UserID)
	if _, exists := s.byPair[key]; exists {
		return ErrDuplicateMembership
	}
	if _, exists := s.byID[m.ID]; exists {
		return ErrDuplicateMembership
	}

	s.byID[m.ID] = m
	s.byPair[key] = m.ID
	return nil
}

func (s *MemoryStore) UpdateIfVersion(_ context.Context, id string, next Membership, expectedVersion int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.byID[id]
	if !ok {
		return false, ErrNotFound
	}
	if current.Version != expectedVersion {
		return false, nil
	}

	// Identity fields are immutable; only role and version may move.
	next.ID = current.ID
	next.ProjectID = current.ProjectID
	next.UserID = current.UserID
	s.byID[id] = next
	return true, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	m, ok := s.byID[id]
	if !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	delete(s.byPair, pairKey(m.ProjectID, m.UserID))
	return nil
}
