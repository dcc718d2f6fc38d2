// Package memstore keeps every entity in process memory. Nothing survives a restart.
package memstore

import (
	"context"
	"sort"
	"sync"

	"moodcircle/internal/models"
	"moodcircle/internal/store"
)

// MemStore draws ids for every entity kind from one counter.
type MemStore struct {
	mu            sync.RWMutex
	nextID        int
	users         map[int]models.User
	journals      map[int]models.Journal
	circles       map[int]models.Circle
	circleMembers map[int]models.CircleMember
}

var _ store.Store = (*MemStore)(nil)

func New() *MemStore {
	return &MemStore{
		nextID:        1,
		users:         make(map[int]models.User),
		journals:      make(map[int]models.Journal),
		circles:       make(map[int]models.Circle),
		circleMembers: make(map[int]models.CircleMember),
	}
}

// id must be called with mu held for writing.
func (s *MemStore) id() int {
	id := s.nextID
	s.nextID++
	return id
}

func (s *MemStore) CreateUser(_ context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Username == user.Username {
			return store.ErrConflict
		}
	}
	user.ID = s.id()
	s.users[user.ID] = *user
	return nil
}

func (s *MemStore) GetUser(_ context.Context, id int) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *MemStore) GetUserByUsername(_ context.Context, username string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (s *MemStore) CreateJournal(_ context.Context, journal *models.Journal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[journal.UserID]; !ok {
		return store.ErrNotFound
	}
	journal.ID = s.id()
	s.journals[journal.ID] = copyJournal(*journal)
	return nil
}

func (s *MemStore) GetJournal(_ context.Context, id int) (*models.Journal, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.journals[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	j = copyJournal(j)
	return &j, nil
}

func (s *MemStore) ListJournals(_ context.Context) ([]models.Journal, error) {
	return s.filterJournals(func(models.Journal) bool { return true }), nil
}

func (s *MemStore) ListJournalsByUser(_ context.Context, userID int) ([]models.Journal, error) {
	return s.filterJournals(func(j models.Journal) bool { return j.UserID == userID }), nil
}

func (s *MemStore) filterJournals(keep func(models.Journal) bool) []models.Journal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Journal, 0)
	for _, j := range s.journals {
		if keep(j) {
			out = append(out, copyJournal(j))
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out
}

func (s *MemStore) UpdateJournalSharing(_ context.Context, id int, circleID *int) (*models.Journal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	j, ok := s.journals[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if circleID != nil {
		cid := *circleID
		j.SharedWithCircleID = &cid
	} else {
		j.SharedWithCircleID = nil
	}
	s.journals[id] = j
	j = copyJournal(j)
	return &j, nil
}

func (s *MemStore) CreateCircle(_ context.Context, circle *models.Circle) (*models.CircleMember, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[circle.OwnerID]; !ok {
		return nil, store.ErrNotFound
	}
	circle.ID = s.id()
	s.circles[circle.ID] = *circle

	admin := models.CircleMember{ID: s.id(), CircleID: circle.ID, UserID: circle.OwnerID, Role: models.RoleAdmin}
	s.circleMembers[admin.ID] = admin
	admin.Username = s.users[circle.OwnerID].Username
	return &admin, nil
}

func (s *MemStore) GetCircle(_ context.Context, id int) (*models.Circle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.circles[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &c, nil
}

func (s *MemStore) ListCirclesForUser(_ context.Context, userID int) ([]models.Circle, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	joined := make(map[int]bool)
	for _, m := range s.circleMembers {
		if m.UserID == userID {
			joined[m.CircleID] = true
		}
	}
	out := make([]models.Circle, 0)
	for _, c := range s.circles {
		if c.OwnerID == userID || joined[c.ID] {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out, nil
}

func (s *MemStore) AddCircleMember(_ context.Context, member *models.CircleMember) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.circles[member.CircleID]; !ok {
		return store.ErrNotFound
	}
	u, ok := s.users[member.UserID]
	if !ok {
		return store.ErrNotFound
	}
	for _, m := range s.circleMembers {
		if m.CircleID == member.CircleID && m.UserID == member.UserID {
			return store.ErrConflict
		}
	}
	member.ID = s.id()
	member.Username = ""
	s.circleMembers[member.ID] = *member
	member.Username = u.Username
	return nil
}

func (s *MemStore) RemoveCircleMember(_ context.Context, circleID, userID int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, m := range s.circleMembers {
		if m.CircleID == circleID && m.UserID == userID {
			delete(s.circleMembers, id)
		}
	}
	return nil
}

func (s *MemStore) ListCircleMembers(_ context.Context, circleID int) ([]models.CircleMember, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.CircleMember, 0)
	for _, m := range s.circleMembers {
		if m.CircleID == circleID {
			m.Username = s.users[m.UserID].Username
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, k int) bool { return out[i].ID < out[k].ID })
	return out, nil
}

func (s *MemStore) IsCircleMember(_ context.Context, circleID, userID int) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, m := range s.circleMembers {
		if m.CircleID == circleID && m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *MemStore) Ping(context.Context) error { return nil }

func (s *MemStore) Close() error { return nil }

// copyJournal detaches the shared-circle pointer so callers cannot mutate stored state.
func copyJournal(j models.Journal) models.Journal {
	if j.SharedWithCircleID != nil {
		cid := *j.SharedWithCircleID
		j.SharedWithCircleID = &cid
	}
	return j
}
