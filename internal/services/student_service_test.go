package services

import (
	"context"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/mathsia/memocard-service/internal/cache"
	"github.com/mathsia/memocard-service/internal/models"
	"github.com/mathsia/memocard-service/internal/repositories"
	"github.com/mathsia/memocard-service/internal/utils"
)

func newTestStudentService(repo *mockRepository) StudentService {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return NewStudentService(repo, logger, utils.NewValidator(), cache.NoopCache{})
}

func studentUser(id string, level models.SchoolLevel) *models.User {
	l := level
	return &models.User{
		ID:       id,
		Username: "eleve",
		Email:    "eleve@example.com",
		Role:     models.RoleStudent,
		Level:    &l,
		IsActive: true,
	}
}

func TestStudentService_Create(t *testing.T) {
	ctx := context.Background()

	req := &CreateStudentRequest{
		Username: "eleve",
		Email:    "eleve@example.com",
		Password: "motdepasse",
		FullName: "Élève Test",
		Level:    models.LevelCinquieme,
	}

	t.Run("creates an active student with hashed password", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestStudentService(repo)

		repo.users.On("GetByUsername", ctx, req.Username).Return(nil, gorm.ErrRecordNotFound)
		repo.users.On("GetByEmail", ctx, req.Email).Return(nil, gorm.ErrRecordNotFound)
		repo.users.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil)

		user, err := service.Create(ctx, req)
		require.NoError(t, err)

		assert.NotEmpty(t, user.ID)
		assert.Equal(t, models.RoleStudent, user.Role)
		assert.True(t, user.IsActive)
		require.NotNil(t, user.Level)
		assert.Equal(t, models.LevelCinquieme, *user.Level)

		assert.NotEqual(t, req.Password, user.PasswordHash)
		assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)))
	})

	t.Run("duplicate username", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestStudentService(repo)

		repo.users.On("GetByUsername", ctx, req.Username).Return(studentUser("other", models.LevelSixieme), nil)

		_, err := service.Create(ctx, req)
		assert.ErrorIs(t, err, ErrUsernameExists)
	})

	t.Run("duplicate email", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestStudentService(repo)

		repo.users.On("GetByUsername", ctx, req.Username).Return(nil, gorm.ErrRecordNotFound)
		repo.users.On("GetByEmail", ctx, req.Email).Return(studentUser("other", models.LevelSixieme), nil)

		_, err := service.Create(ctx, req)
		assert.ErrorIs(t, err, ErrEmailExists)
	})
}

func TestStudentService_GetProgress(t *testing.T) {
	ctx := context.Background()
	const studentID = "student-1"

	t.Run("student without responses gets only the catalog count", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestStudentService(repo)

		repo.users.On("GetByID", ctx, studentID).Return(studentUser(studentID, models.LevelSixieme), nil)
		repo.memocards.On("CountActiveByLevel", ctx, models.LevelSixieme).Return(int64(25), nil)
		repo.responses.On("CountByStudent", ctx, studentID).Return(int64(0), nil)

		progress, err := service.GetProgress(ctx, studentID)
		require.NoError(t, err)

		assert.Equal(t, 25, progress.TotalMemocards)
		assert.Zero(t, progress.AnsweredMemocards)
		assert.Zero(t, progress.CorrectAnswers)
		assert.Zero(t, progress.AccuracyRate)
		assert.Zero(t, progress.AverageTimeSeconds)
		assert.Empty(t, progress.ByDifficulty)
		assert.Empty(t, progress.BySubject)

		repo.responses.AssertNotCalled(t, "StatsByDimension", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("full aggregation", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestStudentService(repo)

		repo.users.On("GetByID", ctx, studentID).Return(studentUser(studentID, models.LevelSixieme), nil)
		repo.memocards.On("CountActiveByLevel", ctx, models.LevelSixieme).Return(int64(40), nil)
		repo.responses.On("CountByStudent", ctx, studentID).Return(int64(8), nil)
		repo.responses.On("DistinctMemocardIDsByStudent", ctx, studentID).Return([]uint{1, 2, 3, 4, 5}, nil)
		repo.responses.On("CountCorrectByStudent", ctx, studentID).Return(int64(6), nil)
		repo.responses.On("AverageTimeSpentByStudent", ctx, studentID).Return(33.333333, nil)
		repo.responses.On("StatsByDimension", ctx, studentID, repositories.DimensionDifficulty).Return([]repositories.GroupedResponseStats{
			{Dimension: "easy", Answered: 6, Correct: 5},
			{Dimension: "medium", Answered: 2, Correct: 1},
		}, nil)
		repo.responses.On("StatsByDimension", ctx, studentID, repositories.DimensionSubject).Return([]repositories.GroupedResponseStats{
			{Dimension: "Mathématiques", Answered: 8, Correct: 6},
		}, nil)

		progress, err := service.GetProgress(ctx, studentID)
		require.NoError(t, err)

		assert.Equal(t, 40, progress.TotalMemocards)
		assert.Equal(t, 5, progress.AnsweredMemocards)
		assert.Equal(t, 6, progress.CorrectAnswers)
		// 6 correct out of 8 responses, not out of 5 cards.
		assert.InDelta(t, 75.0, progress.AccuracyRate, 0.001)
		assert.InDelta(t, 33.33, progress.AverageTimeSeconds, 0.001)

		require.Contains(t, progress.ByDifficulty, "easy")
		easy := progress.ByDifficulty["easy"]
		assert.Equal(t, 6, easy.Answered)
		assert.Equal(t, 5, easy.Correct)
		assert.InDelta(t, 83.33, easy.Accuracy, 0.001)
		// The aggregation never fills per-bucket catalog totals.
		assert.Zero(t, easy.Total)

		require.Contains(t, progress.BySubject, "Mathématiques")
		assert.InDelta(t, 75.0, progress.BySubject["Mathématiques"].Accuracy, 0.001)
	})

	t.Run("unknown student", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestStudentService(repo)

		repo.users.On("GetByID", ctx, "ghost").Return(nil, gorm.ErrRecordNotFound)

		_, err := service.GetProgress(ctx, "ghost")
		assert.ErrorIs(t, err, ErrStudentNotFound)
	})

	t.Run("admin is not a student", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestStudentService(repo)

		admin := &models.User{ID: "admin-1", Role: models.RoleAdmin, IsActive: true}
		repo.users.On("GetByID", ctx, admin.ID).Return(admin, nil)

		_, err := service.GetProgress(ctx, admin.ID)
		assert.ErrorIs(t, err, ErrNotAStudent)
	})

	t.Run("student without a level", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestStudentService(repo)

		user := studentUser(studentID, models.LevelSixieme)
		user.Level = nil
		repo.users.On("GetByID", ctx, studentID).Return(user, nil)

		_, err := service.GetProgress(ctx, studentID)
		assert.ErrorIs(t, err, ErrStudentNoLevel)
	})
}
