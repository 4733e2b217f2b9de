package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/vytor/part107/internal/repository"
)

// MockStore is a mock implementation of repository.Store. Its repository
// accessors return the embedded mocks.
type MockStore struct {
	mock.Mock
	ProgressRepo *MockProgressRepository
	HistoryRepo  *MockHistoryRepository
	SettingsRepo *MockSettingsRepository
}

// NewMockStore returns a MockStore with fresh repository mocks.
func NewMockStore() *MockStore {
	return &MockStore{
		ProgressRepo: &MockProgressRepository{},
		HistoryRepo:  &MockHistoryRepository{},
		SettingsRepo: &MockSettingsRepository{},
	}
}

func (m *MockStore) Progress() repository.ProgressRepository   { return m.ProgressRepo }
func (m *MockStore) History() repository.TestHistoryRepository { return m.HistoryRepo }
func (m *MockStore) Settings() repository.SettingsRepository   { return m.SettingsRepo }

func (m *MockStore) Ping(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// AssertExpectations asserts on the store and every repository mock.
func (m *MockStore) AssertExpectations(t mock.TestingT) bool {
	ok := m.Mock.AssertExpectations(t)
	ok = m.ProgressRepo.AssertExpectations(t) && ok
	ok = m.HistoryRepo.AssertExpectations(t) && ok
	return m.SettingsRepo.AssertExpectations(t) && ok
}
