package mock

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/jon4hz/moodiary/internal/models"
	"github.com/jon4hz/moodiary/internal/storage/driver"
)

// MockBackend is an in-memory driver.Backend with injectable errors for testing.
type MockBackend struct {
	mu sync.RWMutex

	users   []models.User
	entries []models.DiaryEntry

	// InitCalls counts calls to Init.
	InitCalls int

	// Error simulation
	InitError                error
	ListUsersError           error
	GetUserError             error
	CountUsersError          error
	CreateUserError          error
	DeleteNonAdminUsersError error
	ListEntriesError         error
	AddEntriesError          error
	UpdateEntryError         error
	DeleteEntryError         error
	DeleteAllEntriesError    error
}

var _ driver.Backend = (*MockBackend)(nil)

// NewMockBackend creates a new, empty MockBackend.
func NewMockBackend() *MockBackend {
	return &MockBackend{}
}

// Reset clears all data and errors.
func (m *MockBackend) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.users = nil
	m.entries = nil
	m.InitCalls = 0

	m.InitError = nil
	m.ListUsersError = nil
	m.GetUserError = nil
	m.CountUsersError = nil
	m.CreateUserError = nil
	m.DeleteNonAdminUsersError = nil
	m.ListEntriesError = nil
	m.AddEntriesError = nil
	m.UpdateEntryError = nil
	m.DeleteEntryError = nil
	m.DeleteAllEntriesError = nil
}

func (m *MockBackend) Init(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.InitCalls++
	return m.InitError
}

// User operations

func (m *MockBackend) ListUsers(ctx context.Context) ([]models.User, error) {
	if m.ListUsersError != nil {
		return nil, m.ListUsersError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.users), nil
}

func (m *MockBackend) GetUser(ctx context.Context, username string) (*models.User, error) {
	if m.GetUserError != nil {
		return nil, m.GetUserError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, nil
}

func (m *MockBackend) CountUsers(ctx context.Context) (int64, error) {
	if m.CountUsersError != nil {
		return 0, m.CountUsersError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return int64(len(m.users)), nil
}

func (m *MockBackend) CreateUser(ctx context.Context, user models.User) error {
	if m.CreateUserError != nil {
		return m.CreateUserError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if slices.ContainsFunc(m.users, func(u models.User) bool { return u.Username == user.Username }) {
		return fmt.Errorf("user %s: %w", user.Username, driver.ErrDuplicate)
	}
	m.users = append(m.users, user)
	return nil
}

func (m *MockBackend) DeleteNonAdminUsers(ctx context.Context) error {
	if m.DeleteNonAdminUsersError != nil {
		return m.DeleteNonAdminUsersError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.users = slices.DeleteFunc(m.users, func(u models.User) bool { return !u.IsAdmin })
	return nil
}

// Entry operations

func (m *MockBackend) ListEntries(ctx context.Context) ([]models.DiaryEntry, error) {
	if m.ListEntriesError != nil {
		return nil, m.ListEntriesError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return slices.Clone(m.entries), nil
}

func (m *MockBackend) AddEntries(ctx context.Context, entries ...models.DiaryEntry) error {
	if m.AddEntriesError != nil {
		return m.AddEntriesError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(slices.Clone(entries), m.entries...)
	return nil
}

func (m *MockBackend) UpdateEntry(ctx context.Context, id string, patch models.EntryPatch) error {
	if m.UpdateEntryError != nil {
		return m.UpdateEntryError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.entries {
		if m.entries[i].ID == id {
			patch.Apply(&m.entries[i])
			return nil
		}
	}
	return fmt.Errorf("entry %s: %w", id, driver.ErrNotFound)
}

func (m *MockBackend) DeleteEntry(ctx context.Context, id string) error {
	if m.DeleteEntryError != nil {
		return m.DeleteEntryError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = slices.DeleteFunc(m.entries, func(e models.DiaryEntry) bool { return e.ID == id })
	return nil
}

func (m *MockBackend) DeleteAllEntries(ctx context.Context) error {
	if m.DeleteAllEntriesError != nil {
		return m.DeleteAllEntriesError
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = nil
	return nil
}

func (m *MockBackend) Close() error {
	return nil
}
