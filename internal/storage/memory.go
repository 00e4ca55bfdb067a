// Package storage keeps the users who logged in through OAuth in process
// memory. Sessions of users unknown to the store are treated as logged out,
// so restarting the process logs everybody out.
package storage

import (
	"context"
	"errors"
	"sync"

	"github.com/atinyakov/go-shortage/internal/models"
)

// ErrUserNotFound is returned when no user has the requested id.
var ErrUserNotFound = errors.New("user not found")

// MemoryStorage is a map-backed user store.
type MemoryStorage struct {
	mu    sync.RWMutex
	users map[string]models.User
}

// CreateMemoryStorage returns an empty store.
func CreateMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		users: make(map[string]models.User),
	}
}

// Save inserts or replaces the user.
func (m *MemoryStorage) Save(_ context.Context, u models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users[u.ID] = u
	return nil
}

// FindByID looks a user up.
func (m *MemoryStorage) FindByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, ErrUserNotFound
	}

	return &u, nil
}

// PingContext always succeeds.
func (m *MemoryStorage) PingContext(context.Context) error {
	return nil
}
