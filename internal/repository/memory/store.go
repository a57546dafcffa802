// Package memory is an in-process store backend for development and tests.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/reeltrack/reeltrack/internal/model"
	"github.com/reeltrack/reeltrack/internal/repository"
)

// Store implements repository.Store. It is safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	users   map[string]model.User
	lists   map[string]struct{}
	byOwner map[string][]model.List
}

var _ repository.Store = (*Store)(nil)

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		users:   make(map[string]model.User),
		lists:   make(map[string]struct{}),
		byOwner: make(map[string][]model.List),
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// GetUser returns a copy of the user, or repository.ErrUserNotFound.
func (s *Store) GetUser(_ context.Context, userID string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	return &u, nil
}

// CreateUserIfAbsent stores user unless the id is taken and reports whether it did.
func (s *Store) CreateUserIfAbsent(_ context.Context, user *model.User) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.UserID]; ok {
		return false, nil
	}
	s.users[user.UserID] = *user
	return true, nil
}

// PutUser creates or replaces a user.
func (s *Store) PutUser(_ context.Context, user *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.users[user.UserID] = *user
	return nil
}

// ScanUsers returns every user, oldest first.
func (s *Store) ScanUsers(context.Context) ([]*model.User, error) {
	s.mu.RLock()
	out := make([]*model.User, 0, len(s.users))
	for _, u := range s.users {
		u := u
		out = append(out, &u)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].UserID < out[j].UserID
	})
	return out, nil
}

// CreateList stores a new list, or returns repository.ErrListExists.
func (s *Store) CreateList(_ context.Context, list *model.List) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.lists[list.ListID]; ok {
		return repository.ErrListExists
	}
	s.lists[list.ListID] = struct{}{}

	owned := append(s.byOwner[list.OwnerID], *list)
	sort.SliceStable(owned, func(i, j int) bool { return listLess(owned[i], owned[j]) })
	s.byOwner[list.OwnerID] = owned
	return nil
}

// ListListsByOwner returns the owner's lists, oldest first.
func (s *Store) ListListsByOwner(_ context.Context, ownerID string) ([]*model.List, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	owned := s.byOwner[ownerID]
	out := make([]*model.List, 0, len(owned))
	for i := range owned {
		l := owned[i]
		out = append(out, &l)
	}
	return out, nil
}

func listLess(a, b model.List) bool {
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.ListID < b.ListID
}
