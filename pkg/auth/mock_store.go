package auth

import "sync"

// MockStore implements TokenStore in memory for tests
type MockStore struct {
	mu    sync.RWMutex
	token string

	// Error injection for testing
	StoreError    error
	RetrieveError error
	DeleteError   error
}

// NewMockStore creates an empty mock store
func NewMockStore() *MockStore {
	return &MockStore{}
}

func (m *MockStore) Name() string { return "mock" }

func (m *MockStore) Store(token string) error {
	if m.StoreError != nil {
		return m.StoreError
	}
	if token == "" {
		return ErrInvalidToken
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = token
	return nil
}

func (m *MockStore) Retrieve() (string, error) {
	if m.RetrieveError != nil {
		return "", m.RetrieveError
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == "" {
		return "", ErrTokenNotFound
	}
	return m.token, nil
}

func (m *MockStore) Delete() error {
	if m.DeleteError != nil {
		return m.DeleteError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.token == "" {
		return ErrTokenNotFound
	}
	m.token = ""
	return nil
}

// NewMockManager creates a Manager over a single mock store
func NewMockManager() (*Manager, *MockStore) {
	mockStore := NewMockStore()
	return NewManagerWithStores(mockStore), mockStore
}
