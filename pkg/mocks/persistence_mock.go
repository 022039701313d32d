package mocks

import (
	"context"

	"github.com/dukex/bizflow/pkg/models"
	"github.com/dukex/bizflow/pkg/persistence"
	"github.com/stretchr/testify/mock"
)

// MockProcessRepository is a mock implementation of persistence.ProcessRepository.
type MockProcessRepository struct {
	mock.Mock
}

func (m *MockProcessRepository) GetAll(ctx context.Context) ([]*models.BusinessProcess, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.BusinessProcess), args.Error(1)
}

func (m *MockProcessRepository) GetByID(ctx context.Context, id string) (*models.BusinessProcess, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.BusinessProcess), args.Error(1)
}

func (m *MockProcessRepository) Save(ctx context.Context, process *models.BusinessProcess) error {
	args := m.Called(ctx, process)

	return args.Error(0)
}

func (m *MockProcessRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)

	return args.Error(0)
}

func (m *MockProcessRepository) ReplaceAll(ctx context.Context, processes []*models.BusinessProcess) error {
	args := m.Called(ctx, processes)

	return args.Error(0)
}

// MockInstanceRepository is a mock implementation of persistence.InstanceRepository.
type MockInstanceRepository struct {
	mock.Mock
}

func (m *MockInstanceRepository) GetByID(ctx context.Context, id string) (*models.ProcessInstance, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).(*models.ProcessInstance), args.Error(1)
}

func (m *MockInstanceRepository) Save(ctx context.Context, instance *models.ProcessInstance) error {
	args := m.Called(ctx, instance)

	return args.Error(0)
}

func (m *MockInstanceRepository) GetByProcess(ctx context.Context, processID string) ([]*models.ProcessInstance, error) {
	args := m.Called(ctx, processID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.ProcessInstance), args.Error(1)
}

func (m *MockInstanceRepository) GetByStatus(ctx context.Context, status models.InstanceStatus) ([]*models.ProcessInstance, error) {
	args := m.Called(ctx, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.ProcessInstance), args.Error(1)
}

func (m *MockInstanceRepository) GetAll(ctx context.Context) ([]*models.ProcessInstance, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}

	return args.Get(0).([]*models.ProcessInstance), args.Error(1)
}

// MockPersistence routes repository calls to the wrapped backend unless a mock
// repository is set, so tests only stub what they need.
type MockPersistence struct {
	mock.Mock

	Backend   persistence.Persistence
	Processes persistence.ProcessRepository
	Instances persistence.InstanceRepository
}

func NewMockPersistence(backend persistence.Persistence) *MockPersistence {
	return &MockPersistence{Backend: backend}
}

func (m *MockPersistence) ProcessRepository() persistence.ProcessRepository {
	if m.Processes != nil {
		return m.Processes
	}

	return m.Backend.ProcessRepository()
}

func (m *MockPersistence) InstanceRepository() persistence.InstanceRepository {
	if m.Instances != nil {
		return m.Instances
	}

	return m.Backend.InstanceRepository()
}

func (m *MockPersistence) TaskRepository() persistence.TaskRepository {
	return m.Backend.TaskRepository()
}

func (m *MockPersistence) OrgRepository() persistence.OrgRepository {
	return m.Backend.OrgRepository()
}

func (m *MockPersistence) HealthCheck(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}

func (m *MockPersistence) Close(ctx context.Context) error {
	args := m.Called(ctx)

	return args.Error(0)
}
