package mocks

import (
	"context"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/handlepay/handlepay/internal/domain/history"
)

// MockRepository is a mock implementation of history.Repository
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Append(ctx context.Context, e *history.Entry) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockRepository) GetByExecutionID(ctx context.Context, executionID uuid.UUID) (*history.Entry, error) {
	args := m.Called(ctx, executionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*history.Entry), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, filter history.Filter, limit, offset int) ([]*history.Entry, error) {
	args := m.Called(ctx, filter, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*history.Entry), args.Error(1)
}
