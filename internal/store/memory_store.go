package store

import (
	"sync"

	"astrofusion/internal/domain"
)

// MemoryStore keeps users and dataset metadata in-process. Used in tests.
type MemoryStore struct {
	mu       sync.RWMutex
	users    map[string]domain.User    // key: user ID
	email    map[string]string         // email -> user ID
	datasets map[string]domain.Dataset // key: dataset ID
	order    []string                  // dataset insertion order
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:    make(map[string]domain.User),
		email:    make(map[string]string),
		datasets: make(map[string]domain.Dataset),
	}
}

// SaveUser stores or replaces a user record. Mirrors the unique email
// constraint of the database-backed store.
func (m *MemoryStore) SaveUser(u domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if owner, ok := m.email[u.Email]; ok && owner != u.ID {
		return ErrDuplicateEmail
	}
	if prev, ok := m.users[u.ID]; ok && prev.Email != u.Email {
		delete(m.email, prev.Email)
	}
	m.users[u.ID] = u
	m.email[u.Email] = u.ID
	return nil
}

// HasUserEmail checks whether the email is registered.
func (m *MemoryStore) HasUserEmail(email string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.email[email]
	return ok, nil
}

// GetUserByEmail looks up a user by email.
func (m *MemoryStore) GetUserByEmail(email string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	id, ok := m.email[email]
	if !ok {
		return domain.User{}, false, nil
	}
	u, ok := m.users[id]
	return u, ok, nil
}

// GetUserByID returns a user by ID.
func (m *MemoryStore) GetUserByID(id string) (domain.User, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.users[id]
	return u, ok, nil
}

// SaveDataset stores or replaces a dataset record and tracks insertion order.
func (m *MemoryStore) SaveDataset(d domain.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.datasets[d.ID]; !exists {
		m.order = append(m.order, d.ID)
	}
	m.datasets[d.ID] = d
	return nil
}

// GetDataset retrieves a dataset record.
func (m *MemoryStore) GetDataset(id string) (domain.Dataset, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	d, ok := m.datasets[id]
	return d, ok, nil
}

// ListDatasetsByOwner returns the owner's datasets in insertion order.
func (m *MemoryStore) ListDatasetsByOwner(userID string) ([]domain.Dataset, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	res := make([]domain.Dataset, 0, len(m.order))
	for _, id := range m.order {
		if d, ok := m.datasets[id]; ok && d.UserID == userID {
			res = append(res, d)
		}
	}
	return res, nil
}

// DeleteDataset removes a dataset record.
func (m *MemoryStore) DeleteDataset(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.datasets, id)
	return nil
}
