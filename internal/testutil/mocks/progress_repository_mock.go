package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/vytor/part107/internal/models"
)

// MockProgressRepository is a mock implementation of repository.ProgressRepository
type MockProgressRepository struct {
	mock.Mock
}

func (m *MockProgressRepository) Load(ctx context.Context, cardID string) (*models.CardScheduleState, error) {
	args := m.Called(ctx, cardID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CardScheduleState), args.Error(1)
}

func (m *MockProgressRepository) LoadAll(ctx context.Context) (map[string]models.CardScheduleState, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]models.CardScheduleState), args.Error(1)
}

func (m *MockProgressRepository) SaveAll(ctx context.Context, states map[string]models.CardScheduleState) error {
	args := m.Called(ctx, states)
	return args.Error(0)
}

func (m *MockProgressRepository) Clear(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}
