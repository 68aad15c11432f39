package service

import (
	"context"

	"github.com/Harshitk-cp/regula/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockExperimentStore mocks the ExperimentStore interface.
type MockExperimentStore struct {
	mock.Mock
}

func (m *MockExperimentStore) Create(ctx context.Context, e *domain.Experiment) error {
	args := m.Called(ctx, e)
	return args.Error(0)
}

func (m *MockExperimentStore) CreateRun(ctx context.Context, r *domain.ExperimentRun) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}

func (m *MockExperimentStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Experiment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Experiment), args.Error(1)
}

func (m *MockExperimentStore) List(ctx context.Context, limit int) ([]domain.Experiment, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Experiment), args.Error(1)
}

func (m *MockExperimentStore) ListRuns(ctx context.Context, experimentID uuid.UUID) ([]domain.ExperimentRun, error) {
	args := m.Called(ctx, experimentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExperimentRun), args.Error(1)
}

func (m *MockExperimentStore) FindSimilar(ctx context.Context, id uuid.UUID, limit int) ([]domain.ExperimentWithDistance, error) {
	args := m.Called(ctx, id, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.ExperimentWithDistance), args.Error(1)
}

// MockSnapshotStore mocks the SnapshotStore interface.
type MockSnapshotStore struct {
	mock.Mock
}

func (m *MockSnapshotStore) Save(ctx context.Context, s *domain.HypothesisSnapshot) error {
	args := m.Called(ctx, s)
	return args.Error(0)
}

func (m *MockSnapshotStore) Latest(ctx context.Context, sessionID uuid.UUID) (*domain.HypothesisSnapshot, error) {
	args := m.Called(ctx, sessionID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HypothesisSnapshot), args.Error(1)
}
