// Package mock provides in-memory implementations of database interfaces for testing.
package mock

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/facegate/facegate/internal/database"
)

// MockUserRepository is a mock implementation of database.UserRepository
type MockUserRepository struct {
	mu     sync.RWMutex
	users  map[int64]*database.User
	nextID int64

	// Error injection
	CreateError      error
	GetError         error
	ListError        error
	UpdateError      error
	DeleteError      error
	CountError       error
	FindSimilarError error
}

// NewMockUserRepository creates a new mock user repository
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users:  make(map[int64]*database.User),
		nextID: 1,
	}
}

// AddUser seeds the mock store with a user, assigning an ID if unset
func (m *MockUserRepository) AddUser(user database.User) *database.User {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user.ID == 0 {
		user.ID = m.nextID
	}
	if user.ID >= m.nextID {
		m.nextID = user.ID + 1
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now()
	}
	m.users[user.ID] = &user
	return &user
}

// Create stores a new user and returns it with the assigned ID
func (m *MockUserRepository) Create(ctx context.Context, user *database.User) (*database.User, error) {
	if m.CreateError != nil {
		return nil, m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.users {
		if existing.Email == user.Email {
			return nil, database.ErrDuplicateEmail
		}
	}
	created := *user
	created.ID = m.nextID
	created.CreatedAt = time.Now()
	m.nextID++
	m.users[created.ID] = &created
	return &created, nil
}

// Get retrieves a user by ID
func (m *MockUserRepository) Get(ctx context.Context, id int64) (*database.User, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.users[id], nil
}

// GetByEmail retrieves a user by email
func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*database.User, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, nil
}

// List returns all users ordered by creation time
func (m *MockUserRepository) List(ctx context.Context) ([]database.User, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	users := make([]database.User, 0, len(m.users))
	for _, user := range m.users {
		users = append(users, *user)
	}
	sort.Slice(users, func(i, j int) bool {
		if users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].ID < users[j].ID
		}
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

// Update replaces the mutable fields of an existing user
func (m *MockUserRepository) Update(ctx context.Context, user *database.User) error {
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	existing, ok := m.users[user.ID]
	if !ok {
		return fmt.Errorf("user %d not found", user.ID)
	}
	for _, other := range m.users {
		if other.ID != user.ID && other.Email == user.Email {
			return database.ErrDuplicateEmail
		}
	}
	updated := *user
	updated.CreatedAt = existing.CreatedAt
	m.users[user.ID] = &updated
	return nil
}

// Delete removes a user
func (m *MockUserRepository) Delete(ctx context.Context, id int64) (*database.User, error) {
	if m.DeleteError != nil {
		return nil, m.DeleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return nil, nil
	}
	delete(m.users, id)
	return user, nil
}

// Count returns the total number of users
func (m *MockUserRepository) Count(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.users), nil
}

// FindSimilar finds users with similar embeddings using cosine distance
func (m *MockUserRepository) FindSimilar(ctx context.Context, embedding []float32, limit int) ([]database.User, []float64, error) {
	if m.FindSimilarError != nil {
		return nil, nil, m.FindSimilarError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	type scored struct {
		user     database.User
		distance float64
	}
	results := make([]scored, 0, len(m.users))
	for _, user := range m.users {
		results = append(results, scored{*user, database.CosineDistance(embedding, user.Embedding)})
	}
	sort.Slice(results, func(i, j int) bool { return results[i].distance < results[j].distance })

	if limit > len(results) {
		limit = len(results)
	}
	users := make([]database.User, limit)
	distances := make([]float64, limit)
	for i := 0; i < limit; i++ {
		users[i] = results[i].user
		distances[i] = results[i].distance
	}
	return users, distances, nil
}

// MockHistoryRepository is a mock implementation of database.HistoryRepository
type MockHistoryRepository struct {
	mu      sync.RWMutex
	entries []database.HistoryEntry
	nextID  int64

	// Error injection
	RecordError error
	ListError   error
	CountError  error
}

// NewMockHistoryRepository creates a new mock history repository
func NewMockHistoryRepository() *MockHistoryRepository {
	return &MockHistoryRepository{nextID: 1}
}

// Record stores an audit entry
func (m *MockHistoryRepository) Record(ctx context.Context, entry *database.HistoryEntry) error {
	if m.RecordError != nil {
		return m.RecordError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry.ID = m.nextID
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	m.nextID++
	m.entries = append(m.entries, *entry)
	return nil
}

// List returns the most recent entries, newest first
func (m *MockHistoryRepository) List(ctx context.Context, limit int) ([]database.HistoryEntry, error) {
	if m.ListError != nil {
		return nil, m.ListError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	if limit > len(m.entries) {
		limit = len(m.entries)
	}
	entries := make([]database.HistoryEntry, limit)
	for i := 0; i < limit; i++ {
		entries[i] = m.entries[len(m.entries)-1-i]
	}
	return entries, nil
}

// Count returns the total number of entries
func (m *MockHistoryRepository) Count(ctx context.Context) (int, error) {
	if m.CountError != nil {
		return 0, m.CountError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries), nil
}

// MockStore bundles the mock repositories as a database.Store
type MockStore struct {
	UserRepo    *MockUserRepository
	HistoryRepo *MockHistoryRepository
}

// NewMockStore creates a store backed by fresh mock repositories
func NewMockStore() *MockStore {
	return &MockStore{
		UserRepo:    NewMockUserRepository(),
		HistoryRepo: NewMockHistoryRepository(),
	}
}

// Users returns the mock user repository
func (s *MockStore) Users() database.UserRepository {
	return s.UserRepo
}

// History returns the mock history repository
func (s *MockStore) History() database.HistoryRepository {
	return s.HistoryRepo
}

// Close is a no-op for the mock store
func (s *MockStore) Close() error {
	return nil
}
