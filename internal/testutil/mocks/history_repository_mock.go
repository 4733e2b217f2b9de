package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/vytor/part107/internal/models"
)

// MockHistoryRepository is a mock implementation of repository.TestHistoryRepository
type MockHistoryRepository struct {
	mock.Mock
}

func (m *MockHistoryRepository) Append(ctx context.Context, attempt models.TestAttempt) error {
	args := m.Called(ctx, attempt)
	return args.Error(0)
}

func (m *MockHistoryRepository) Get(ctx context.Context, id string) (*models.TestAttempt, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.TestAttempt), args.Error(1)
}

func (m *MockHistoryRepository) List(ctx context.Context, filter models.HistoryFilter) ([]models.TestAttempt, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.TestAttempt), args.Error(1)
}

func (m *MockHistoryRepository) ReplaceAll(ctx context.Context, attempts []models.TestAttempt) error {
	args := m.Called(ctx, attempts)
	return args.Error(0)
}

func (m *MockHistoryRepository) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
