// Package selection keeps the per-user list of chosen variants for the
// lifetime of the process.
package selection

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/m3rciful/kitbot/shop/catalog"
)

var (
	// ErrUserNotFound is returned when a user's list was never created or was deleted.
	ErrUserNotFound = errors.New("selection: user not found")
	// ErrElementNotFound is returned when removing a variant the user has not selected.
	ErrElementNotFound = errors.New("selection: element not found")
)

// Store maps user ids to an ordered list of selected variants.
// Lists must be created with Create or Ensure before use.
type Store struct {
	mu    sync.Mutex
	lists map[int64][]*catalog.Variant
}

// NewStore returns an empty store.
func NewStore() *Store {
	return &Store{lists: make(map[int64][]*catalog.Variant)}
}

// Create initializes or resets the user's list to empty.
func (s *Store) Create(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists[userID] = []*catalog.Variant{}
}

// Ensure creates an empty list unless one already exists and reports whether it did.
func (s *Store) Ensure(userID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lists[userID]; ok {
		return false
	}
	s.lists[userID] = []*catalog.Variant{}
	return true
}

// List returns a copy of the user's selection in insertion order.
func (s *Store) List(userID int64) ([]*catalog.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.lists[userID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUserNotFound, userID)
	}
	return slices.Clone(list), nil
}

// Add appends v. Selecting the same variant twice keeps both entries.
func (s *Store) Add(userID int64, v *catalog.Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.lists[userID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUserNotFound, userID)
	}
	s.lists[userID] = append(list, v)
	return nil
}

// Remove drops the first occurrence of v.
func (s *Store) Remove(userID int64, v *catalog.Variant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.lists[userID]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUserNotFound, userID)
	}
	i := slices.Index(list, v)
	if i < 0 {
		return fmt.Errorf("%w: %q", ErrElementNotFound, v.Name())
	}
	s.lists[userID] = slices.Delete(list, i, i+1)
	return nil
}

// Pop drops and returns the most recently added variant.
func (s *Store) Pop(userID int64) (*catalog.Variant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	list, ok := s.lists[userID]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUserNotFound, userID)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("%w: empty selection", ErrElementNotFound)
	}
	last := list[len(list)-1]
	s.lists[userID] = list[:len(list)-1]
	return last, nil
}

// Delete removes the user's entry entirely.
func (s *Store) Delete(userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lists[userID]; !ok {
		return fmt.Errorf("%w: %d", ErrUserNotFound, userID)
	}
	delete(s.lists, userID)
	return nil
}

// Users reports how many users have a list.
func (s *Store) Users() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.lists)
}
