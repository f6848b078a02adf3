package mocks

import (
	"github.com/example/storefront/internal/infrastructure/store"
)

// MockReadStore wraps the in-memory read store with error injection.
type MockReadStore struct {
	*store.ReadStore

	SetErr error
	GetErr error
}

// NewMockReadStore creates a new MockReadStore
func NewMockReadStore() *MockReadStore {
	return &MockReadStore{ReadStore: store.NewReadStore()}
}

func (m *MockReadStore) Set(collection, id string, data any) error {
	if m.SetErr != nil {
		return m.SetErr
	}
	return m.ReadStore.Set(collection, id, data)
}

func (m *MockReadStore) Get(collection, id string) (any, bool, error) {
	if m.GetErr != nil {
		return nil, false, m.GetErr
	}
	return m.ReadStore.Get(collection, id)
}
