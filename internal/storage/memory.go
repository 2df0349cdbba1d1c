package storage

import (
	"slices"
	"sync"
)

// DefaultUsers are the records a new MemoryStore starts with.
var DefaultUsers = []User{
	{ID: 1, Name: "Alice", Email: "alice@example.com"},
	{ID: 2, Name: "Bob", Email: "bob@example.com"},
}

// MemoryStore is a thread-safe in-memory implementation of UserStore.
type MemoryStore struct {
	mu    sync.RWMutex
	users map[int]User
}

// NewMemoryStore creates a MemoryStore holding the given users.
// With no arguments it is seeded with DefaultUsers.
func NewMemoryStore(seed ...User) *MemoryStore {
	if seed == nil {
		seed = DefaultUsers
	}
	s := &MemoryStore{users: make(map[int]User, len(seed))}
	for _, u := range seed {
		s.users[u.ID] = u
	}
	return s
}

// NewEmptyMemoryStore creates a MemoryStore with no users.
func NewEmptyMemoryStore() *MemoryStore {
	return NewMemoryStore([]User{}...)
}

// List returns all users sorted by ID.
func (s *MemoryStore) List() []User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]User, 0, len(s.users))
	for _, u := range s.users {
		result = append(result, u)
	}
	slices.SortFunc(result, func(a, b User) int { return a.ID - b.ID })
	return result
}

// Get retrieves a user by ID.
func (s *MemoryStore) Get(id int) (User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return User{}, ErrNotFound
	}
	return u, nil
}

// Create stores a new user. The ID is one more than the highest ID in use,
// or 1 when the store is empty.
func (s *MemoryStore) Create(name, email string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := 1
	for id := range s.users {
		if id >= next {
			next = id + 1
		}
	}
	u := User{ID: next, Name: name, Email: email}
	s.users[u.ID] = u
	return u, nil
}

// Update replaces the name and email of an existing user.
func (s *MemoryStore) Update(id int, name, email string) (User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return User{}, ErrNotFound
	}
	u := User{ID: id, Name: name, Email: email}
	s.users[id] = u
	return u, nil
}

// Delete removes a user by ID.
func (s *MemoryStore) Delete(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return ErrNotFound
	}
	delete(s.users, id)
	return nil
}

// Count returns the number of stored users.
func (s *MemoryStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.users)
}

var _ UserStore = (*MemoryStore)(nil)
