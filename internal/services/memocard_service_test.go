package services

import (
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/mathsia/memocard-service/internal/cache"
	"github.com/mathsia/memocard-service/internal/events"
	"github.com/mathsia/memocard-service/internal/models"
	"github.com/mathsia/memocard-service/internal/utils"
)

func newTestMemocardService(repo *mockRepository, publisher events.EventPublisher) MemocardService {
	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	return NewMemocardService(repo, logger, utils.NewValidator(), publisher, cache.NoopCache{})
}

func TestMemocardService_VerifyAnswer(t *testing.T) {
	ctx := context.Background()
	const studentID = "student-1"

	card := buildCard(t, models.TypeTrueFalse, models.TrueFalseContent{
		Statement:     "Un triangle a trois côtés.",
		CorrectAnswer: true,
	})

	t.Run("first attempt is numbered 1", func(t *testing.T) {
		repo := newMockRepository()
		publisher := events.NewMockEventPublisher()
		service := newTestMemocardService(repo, publisher)

		repo.memocards.On("GetByID", ctx, card.ID).Return(card, nil)
		repo.responses.On("CountByStudentAndMemocard", ctx, studentID, card.ID).Return(int64(0), nil)
		repo.responses.On("Create", ctx, mock.AnythingOfType("*models.Response")).Return(nil)

		response, err := service.VerifyAnswer(ctx, &VerifyAnswerRequest{
			MemocardID: card.ID,
			Answer:     json.RawMessage(`true`),
		}, studentID)
		require.NoError(t, err)

		assert.Equal(t, 1, response.Attempts)
		assert.True(t, response.IsCorrect)
		assert.Equal(t, "Bonne réponse !", response.Feedback)
		assert.Equal(t, studentID, response.StudentID)
		assert.JSONEq(t, `true`, string(response.Answer))
		assert.Nil(t, response.TimeSpentSeconds)

		require.Len(t, publisher.Events, 1)
		assert.Equal(t, events.EventResponseRecorded, publisher.Events[0].Type)

		repo.responses.AssertExpectations(t)
	})

	t.Run("attempt numbering continues from history", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestMemocardService(repo, events.NewMockEventPublisher())

		repo.memocards.On("GetByID", ctx, card.ID).Return(card, nil)
		repo.responses.On("CountByStudentAndMemocard", ctx, studentID, card.ID).Return(int64(4), nil)
		repo.responses.On("Create", ctx, mock.AnythingOfType("*models.Response")).Return(nil)

		response, err := service.VerifyAnswer(ctx, &VerifyAnswerRequest{
			MemocardID: card.ID,
			Answer:     json.RawMessage(`false`),
		}, studentID)
		require.NoError(t, err)

		assert.Equal(t, 5, response.Attempts)
		assert.False(t, response.IsCorrect)
	})

	t.Run("time spent is carried through", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestMemocardService(repo, events.NewMockEventPublisher())

		repo.memocards.On("GetByID", ctx, card.ID).Return(card, nil)
		repo.responses.On("CountByStudentAndMemocard", ctx, studentID, card.ID).Return(int64(0), nil)
		repo.responses.On("Create", ctx, mock.AnythingOfType("*models.Response")).Return(nil)

		timeSpent := 42
		response, err := service.VerifyAnswer(ctx, &VerifyAnswerRequest{
			MemocardID:       card.ID,
			Answer:           json.RawMessage(`true`),
			TimeSpentSeconds: &timeSpent,
		}, studentID)
		require.NoError(t, err)

		require.NotNil(t, response.TimeSpentSeconds)
		assert.Equal(t, 42, *response.TimeSpentSeconds)
	})

	t.Run("missing memocard", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestMemocardService(repo, events.NewMockEventPublisher())

		repo.memocards.On("GetByID", ctx, uint(99)).Return(nil, gorm.ErrRecordNotFound)

		_, err := service.VerifyAnswer(ctx, &VerifyAnswerRequest{
			MemocardID: 99,
			Answer:     json.RawMessage(`true`),
		}, studentID)
		assert.ErrorIs(t, err, ErrMemocardNotFound)
	})

	t.Run("inactive memocard", func(t *testing.T) {
		repo := newMockRepository()
		publisher := events.NewMockEventPublisher()
		service := newTestMemocardService(repo, publisher)

		inactive := buildCard(t, models.TypeTrueFalse, models.TrueFalseContent{
			Statement:     "Question",
			CorrectAnswer: true,
		})
		inactive.IsActive = false

		repo.memocards.On("GetByID", ctx, inactive.ID).Return(inactive, nil)

		_, err := service.VerifyAnswer(ctx, &VerifyAnswerRequest{
			MemocardID: inactive.ID,
			Answer:     json.RawMessage(`true`),
		}, studentID)
		assert.ErrorIs(t, err, ErrMemocardInactive)
		assert.Empty(t, publisher.Events)
	})

	t.Run("answer shape mismatch records nothing", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestMemocardService(repo, events.NewMockEventPublisher())

		repo.memocards.On("GetByID", ctx, card.ID).Return(card, nil)

		_, err := service.VerifyAnswer(ctx, &VerifyAnswerRequest{
			MemocardID: card.ID,
			Answer:     json.RawMessage(`"oui"`),
		}, studentID)
		assert.ErrorIs(t, err, ErrInvalidAnswerFormat)
		repo.responses.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})
}

func TestMemocardService_Create(t *testing.T) {
	ctx := context.Background()

	validContent, err := json.Marshal(models.NumericContent{
		Question:      "Combien font 3 x 4 ?",
		CorrectAnswer: 12,
	})
	require.NoError(t, err)

	baseReq := func() *CreateMemocardRequest {
		return &CreateMemocardRequest{
			Title:      "Multiplication",
			Level:      models.LevelSixieme,
			Difficulty: models.DifficultyEasy,
			Subject:    "Mathématiques",
			Type:       models.TypeNumeric,
			Content:    validContent,
		}
	}

	t.Run("valid card is stored active", func(t *testing.T) {
		repo := newMockRepository()
		publisher := events.NewMockEventPublisher()
		service := newTestMemocardService(repo, publisher)

		repo.memocards.On("Create", ctx, mock.AnythingOfType("*models.Memocard")).Return(nil)

		memocard, err := service.Create(ctx, baseReq(), "admin-1")
		require.NoError(t, err)

		assert.True(t, memocard.IsActive)
		assert.Equal(t, "admin-1", memocard.CreatedBy)
		require.Len(t, publisher.Events, 1)
		assert.Equal(t, events.EventMemocardCreated, publisher.Events[0].Type)
	})

	t.Run("invalid level", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestMemocardService(repo, events.NewMockEventPublisher())

		req := baseReq()
		req.Level = "CM2"
		_, err := service.Create(ctx, req, "admin-1")
		assert.ErrorIs(t, err, ErrInvalidLevel)
	})

	t.Run("content must match type", func(t *testing.T) {
		repo := newMockRepository()
		service := newTestMemocardService(repo, events.NewMockEventPublisher())

		req := baseReq()
		req.Content = json.RawMessage(`{"statement": "x", "correct_answer": true}`)
		_, err := service.Create(ctx, req, "admin-1")
		assert.ErrorIs(t, err, ErrValidationFailed)
	})
}

func TestMemocardService_Update_TypeIsImmutable(t *testing.T) {
	// UpdateMemocardRequest has no Type field at all; this test pins the
	// content revalidation that enforces the fixed type instead.
	ctx := context.Background()

	repo := newMockRepository()
	service := newTestMemocardService(repo, events.NewMockEventPublisher())

	card := buildCard(t, models.TypeNumeric, models.NumericContent{
		Question:      "Question",
		CorrectAnswer: 12,
	})
	repo.memocards.On("GetByID", ctx, card.ID).Return(card, nil)

	_, err := service.Update(ctx, card.ID, &UpdateMemocardRequest{
		Content: json.RawMessage(`{"statement": "x", "correct_answer": true}`),
	})
	assert.ErrorIs(t, err, ErrValidationFailed)
	repo.memocards.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestMemocardService_ListForStudent_ExcludesAnswered(t *testing.T) {
	ctx := context.Background()
	const studentID = "student-1"

	repo := newMockRepository()
	service := newTestMemocardService(repo, events.NewMockEventPublisher())

	answered := []uint{3, 7}
	remaining := []*models.Memocard{{ID: 9}}

	repo.responses.On("DistinctMemocardIDsByStudent", ctx, studentID).Return(answered, nil)
	repo.memocards.On("ListForStudent", ctx, models.LevelSixieme, answered, 0, 20).Return(remaining, nil)

	cards, err := service.ListForStudent(ctx, studentID, models.LevelSixieme, 0, 20)
	require.NoError(t, err)
	assert.Equal(t, remaining, cards)
	repo.memocards.AssertExpectations(t)
}
