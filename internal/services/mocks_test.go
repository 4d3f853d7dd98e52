package services

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/mathsia/memocard-service/internal/models"
	"github.com/mathsia/memocard-service/internal/repositories"
)

// MockMemocardRepository is a mock implementation of MemocardRepository
type MockMemocardRepository struct {
	mock.Mock
}

func (m *MockMemocardRepository) Create(ctx context.Context, memocard *models.Memocard) error {
	args := m.Called(ctx, memocard)
	return args.Error(0)
}

func (m *MockMemocardRepository) GetByID(ctx context.Context, id uint) (*models.Memocard, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Memocard), args.Error(1)
}

func (m *MockMemocardRepository) Update(ctx context.Context, memocard *models.Memocard) error {
	args := m.Called(ctx, memocard)
	return args.Error(0)
}

func (m *MockMemocardRepository) Delete(ctx context.Context, id uint) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockMemocardRepository) List(ctx context.Context, filters repositories.MemocardFilters) ([]*models.Memocard, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.Memocard), args.Get(1).(int64), args.Error(2)
}

func (m *MockMemocardRepository) ListForStudent(ctx context.Context, level models.SchoolLevel, excludeIDs []uint, skip, limit int) ([]*models.Memocard, error) {
	args := m.Called(ctx, level, excludeIDs, skip, limit)
	return args.Get(0).([]*models.Memocard), args.Error(1)
}

func (m *MockMemocardRepository) CountActiveByLevel(ctx context.Context, level models.SchoolLevel) (int64, error) {
	args := m.Called(ctx, level)
	return args.Get(0).(int64), args.Error(1)
}

// MockResponseRepository is a mock implementation of ResponseRepository
type MockResponseRepository struct {
	mock.Mock
}

func (m *MockResponseRepository) Create(ctx context.Context, response *models.Response) error {
	args := m.Called(ctx, response)
	return args.Error(0)
}

func (m *MockResponseRepository) GetByID(ctx context.Context, id uint) (*models.Response, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Response), args.Error(1)
}

func (m *MockResponseRepository) ListByStudent(ctx context.Context, studentID string, skip, limit int) ([]*models.Response, error) {
	args := m.Called(ctx, studentID, skip, limit)
	return args.Get(0).([]*models.Response), args.Error(1)
}

func (m *MockResponseRepository) ListByMemocard(ctx context.Context, memocardID uint, skip, limit int) ([]*models.Response, error) {
	args := m.Called(ctx, memocardID, skip, limit)
	return args.Get(0).([]*models.Response), args.Error(1)
}

func (m *MockResponseRepository) ListByStudentAndMemocard(ctx context.Context, studentID string, memocardID uint) ([]*models.Response, error) {
	args := m.Called(ctx, studentID, memocardID)
	return args.Get(0).([]*models.Response), args.Error(1)
}

func (m *MockResponseRepository) CountByStudent(ctx context.Context, studentID string) (int64, error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockResponseRepository) CountByStudentAndMemocard(ctx context.Context, studentID string, memocardID uint) (int64, error) {
	args := m.Called(ctx, studentID, memocardID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockResponseRepository) CountCorrectByStudent(ctx context.Context, studentID string) (int64, error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockResponseRepository) DistinctMemocardIDsByStudent(ctx context.Context, studentID string) ([]uint, error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).([]uint), args.Error(1)
}

func (m *MockResponseRepository) AverageTimeSpentByStudent(ctx context.Context, studentID string) (float64, error) {
	args := m.Called(ctx, studentID)
	return args.Get(0).(float64), args.Error(1)
}

func (m *MockResponseRepository) StatsByDimension(ctx context.Context, studentID string, dimension repositories.StatsDimension) ([]repositories.GroupedResponseStats, error) {
	args := m.Called(ctx, studentID, dimension)
	return args.Get(0).([]repositories.GroupedResponseStats), args.Error(1)
}

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserRepository) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) ListStudents(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	args := m.Called(ctx, filters)
	return args.Get(0).([]*models.User), args.Get(1).(int64), args.Error(2)
}

func (m *MockUserRepository) CountStudents(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockUserRepository) CountAdmins(ctx context.Context) (int64, error) {
	args := m.Called(ctx)
	return args.Get(0).(int64), args.Error(1)
}

// mockRepository aggregates the entity mocks behind the Repository interface
type mockRepository struct {
	memocards *MockMemocardRepository
	responses *MockResponseRepository
	users     *MockUserRepository
}

func newMockRepository() *mockRepository {
	return &mockRepository{
		memocards: new(MockMemocardRepository),
		responses: new(MockResponseRepository),
		users:     new(MockUserRepository),
	}
}

func (r *mockRepository) Memocard() repositories.MemocardRepository { return r.memocards }
func (r *mockRepository) Response() repositories.ResponseRepository { return r.responses }
func (r *mockRepository) User() repositories.UserRepository         { return r.users }
