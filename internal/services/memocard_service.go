package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/mathsia/memocard-service/internal/cache"
	"github.com/mathsia/memocard-service/internal/events"
	"github.com/mathsia/memocard-service/internal/models"
	"github.com/mathsia/memocard-service/internal/repositories"
	"github.com/mathsia/memocard-service/internal/utils"
)

// MemocardService covers the card catalog and the answer-verification flow.
type MemocardService interface {
	// Catalog operations
	Create(ctx context.Context, req *CreateMemocardRequest, createdBy string) (*models.Memocard, error)
	Update(ctx context.Context, id uint, req *UpdateMemocardRequest) (*models.Memocard, error)
	GetByID(ctx context.Context, id uint) (*models.Memocard, error)
	Delete(ctx context.Context, id uint) error
	List(ctx context.Context, filters repositories.MemocardFilters) ([]*models.Memocard, int64, error)
	ListForStudent(ctx context.Context, studentID string, level models.SchoolLevel, skip, limit int) ([]*models.Memocard, error)

	// Answer verification (attempt tracking)
	VerifyAnswer(ctx context.Context, req *VerifyAnswerRequest, studentID string) (*models.Response, error)

	// Response history
	ListResponsesByStudentAndMemocard(ctx context.Context, studentID string, memocardID uint) ([]*models.Response, error)
}

// ===== REQUEST STRUCTURES =====

type CreateMemocardRequest struct {
	Title       string                 `json:"title" validate:"required,min=1,max=200"`
	Description string                 `json:"description" validate:"max=1000"`
	Level       models.SchoolLevel     `json:"level" validate:"required"`
	Difficulty  models.DifficultyLevel `json:"difficulty" validate:"required"`
	Subject     string                 `json:"subject" validate:"required,max=100"`
	Chapter     string                 `json:"chapter" validate:"max=200"`
	Type        models.MemocardType    `json:"type" validate:"required"`
	IsActive    *bool                  `json:"is_active"`
	Content     json.RawMessage        `json:"content" validate:"required"`
	Tags        []string               `json:"tags"`
}

// UpdateMemocardRequest carries partial updates; nil fields are left as-is.
// Type is deliberately absent: a card's type is fixed at creation.
type UpdateMemocardRequest struct {
	Title       *string                 `json:"title" validate:"omitempty,min=1,max=200"`
	Description *string                 `json:"description" validate:"omitempty,max=1000"`
	Level       *models.SchoolLevel     `json:"level"`
	Difficulty  *models.DifficultyLevel `json:"difficulty"`
	Subject     *string                 `json:"subject" validate:"omitempty,max=100"`
	Chapter     *string                 `json:"chapter" validate:"omitempty,max=200"`
	IsActive    *bool                   `json:"is_active"`
	Content     json.RawMessage         `json:"content"`
	Tags        []string                `json:"tags"`
}

type VerifyAnswerRequest struct {
	MemocardID       uint            `json:"memocard_id" validate:"required"`
	Answer           json.RawMessage `json:"answer" validate:"required"`
	TimeSpentSeconds *int            `json:"time_spent_seconds" validate:"omitempty,min=0"`
}

type memocardService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *utils.Validator
	publisher events.EventPublisher
	cache     cache.CacheService
}

func NewMemocardService(
	repo repositories.Repository,
	logger *slog.Logger,
	validator *utils.Validator,
	publisher events.EventPublisher,
	cacheService cache.CacheService,
) MemocardService {
	return &memocardService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		publisher: publisher,
		cache:     cacheService,
	}
}

// ===== CATALOG OPERATIONS =====

func (s *memocardService) Create(ctx context.Context, req *CreateMemocardRequest, createdBy string) (*models.Memocard, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	if !models.IsValidSchoolLevel(req.Level) {
		s.logger.Warn("Memocard creation failed: invalid level", "level", req.Level)
		return nil, fmt.Errorf("%w: %q", ErrInvalidLevel, req.Level)
	}
	if !models.IsValidDifficultyLevel(req.Difficulty) {
		s.logger.Warn("Memocard creation failed: invalid difficulty", "difficulty", req.Difficulty)
		return nil, fmt.Errorf("%w: %q", ErrInvalidDifficulty, req.Difficulty)
	}
	if !models.IsValidMemocardType(req.Type) {
		s.logger.Warn("Memocard creation failed: invalid type", "type", req.Type)
		return nil, fmt.Errorf("%w: %q", ErrInvalidType, req.Type)
	}

	if err := s.validator.ValidateMemocardContent(req.Type, req.Content); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	isActive := true
	if req.IsActive != nil {
		isActive = *req.IsActive
	}

	tags, err := marshalTags(req.Tags)
	if err != nil {
		return nil, err
	}

	memocard := &models.Memocard{
		Title:       req.Title,
		Description: req.Description,
		Level:       req.Level,
		Difficulty:  req.Difficulty,
		Subject:     req.Subject,
		Chapter:     req.Chapter,
		Type:        req.Type,
		IsActive:    isActive,
		Content:     datatypes.JSON(req.Content),
		Tags:        tags,
		CreatedBy:   createdBy,
	}

	if err := s.repo.Memocard().Create(ctx, memocard); err != nil {
		return nil, fmt.Errorf("failed to create memocard: %w", err)
	}

	s.logger.Info("Memocard created",
		"memocard_id", memocard.ID,
		"level", memocard.Level,
		"type", memocard.Type,
		"created_by", createdBy)

	s.publishEvent(ctx, events.NewMemocardCreatedEvent(memocard))

	return memocard, nil
}

func (s *memocardService) Update(ctx context.Context, id uint, req *UpdateMemocardRequest) (*models.Memocard, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	memocard, err := s.repo.Memocard().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			s.logger.Warn("Memocard update failed: not found", "memocard_id", id)
			return nil, ErrMemocardNotFound
		}
		return nil, fmt.Errorf("failed to get memocard: %w", err)
	}

	if req.Level != nil {
		if !models.IsValidSchoolLevel(*req.Level) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidLevel, *req.Level)
		}
		memocard.Level = *req.Level
	}
	if req.Difficulty != nil {
		if !models.IsValidDifficultyLevel(*req.Difficulty) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDifficulty, *req.Difficulty)
		}
		memocard.Difficulty = *req.Difficulty
	}
	if req.Title != nil {
		memocard.Title = *req.Title
	}
	if req.Description != nil {
		memocard.Description = *req.Description
	}
	if req.Subject != nil {
		memocard.Subject = *req.Subject
	}
	if req.Chapter != nil {
		memocard.Chapter = *req.Chapter
	}
	if req.IsActive != nil {
		memocard.IsActive = *req.IsActive
	}
	if req.Content != nil {
		// New content must still fit the card's fixed type.
		if err := s.validator.ValidateMemocardContent(memocard.Type, req.Content); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
		}
		memocard.Content = datatypes.JSON(req.Content)
	}
	if req.Tags != nil {
		tags, err := marshalTags(req.Tags)
		if err != nil {
			return nil, err
		}
		memocard.Tags = tags
	}

	if err := s.repo.Memocard().Update(ctx, memocard); err != nil {
		return nil, fmt.Errorf("failed to update memocard: %w", err)
	}

	s.logger.Info("Memocard updated", "memocard_id", memocard.ID)

	// Progress grouping joins on the card's live difficulty/subject, so any
	// cached report may now be stale.
	if err := s.cache.DeletePattern(ctx, progressCachePattern); err != nil {
		s.logger.Warn("Failed to invalidate progress cache", "error", err)
	}

	s.publishEvent(ctx, events.NewMemocardUpdatedEvent(memocard))

	return memocard, nil
}

func (s *memocardService) GetByID(ctx context.Context, id uint) (*models.Memocard, error) {
	memocard, err := s.repo.Memocard().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrMemocardNotFound
		}
		return nil, fmt.Errorf("failed to get memocard: %w", err)
	}
	return memocard, nil
}

func (s *memocardService) Delete(ctx context.Context, id uint) error {
	memocard, err := s.repo.Memocard().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			s.logger.Warn("Memocard deletion failed: not found", "memocard_id", id)
			return ErrMemocardNotFound
		}
		return fmt.Errorf("failed to get memocard: %w", err)
	}

	if err := s.repo.Memocard().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete memocard: %w", err)
	}

	s.logger.Info("Memocard deleted", "memocard_id", id)
	s.publishEvent(ctx, events.NewMemocardDeletedEvent(memocard))

	return nil
}

func (s *memocardService) List(ctx context.Context, filters repositories.MemocardFilters) ([]*models.Memocard, int64, error) {
	if filters.Level != nil && !models.IsValidSchoolLevel(*filters.Level) {
		return nil, 0, fmt.Errorf("%w: %q", ErrInvalidLevel, *filters.Level)
	}
	if filters.Difficulty != nil && !models.IsValidDifficultyLevel(*filters.Difficulty) {
		return nil, 0, fmt.Errorf("%w: %q", ErrInvalidDifficulty, *filters.Difficulty)
	}

	memocards, total, err := s.repo.Memocard().List(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list memocards: %w", err)
	}
	return memocards, total, nil
}

// ListForStudent returns active cards at the student's level, excluding every
// card the student has already answered at least once.
func (s *memocardService) ListForStudent(ctx context.Context, studentID string, level models.SchoolLevel, skip, limit int) ([]*models.Memocard, error) {
	if !models.IsValidSchoolLevel(level) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLevel, level)
	}

	answeredIDs, err := s.repo.Response().DistinctMemocardIDsByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get answered memocard ids: %w", err)
	}

	memocards, err := s.repo.Memocard().ListForStudent(ctx, level, answeredIDs, skip, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list memocards for student: %w", err)
	}
	return memocards, nil
}

// ===== ANSWER VERIFICATION =====

// VerifyAnswer grades a submission and appends the graded attempt to the
// response ledger. Attempts carries no cap and no idempotency: every call
// inserts a new row with attempts = prior count + 1. Two concurrent
// submissions can read the same prior count and record the same attempt
// number; each grading is independent, so the duplicate is benign and no
// serialization point is taken here.
func (s *memocardService) VerifyAnswer(ctx context.Context, req *VerifyAnswerRequest, studentID string) (*models.Response, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	memocard, err := s.repo.Memocard().GetByID(ctx, req.MemocardID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			s.logger.Warn("Answer verification failed: memocard not found",
				"memocard_id", req.MemocardID,
				"student_id", studentID)
			return nil, ErrMemocardNotFound
		}
		return nil, fmt.Errorf("failed to get memocard: %w", err)
	}

	if !memocard.IsActive {
		s.logger.Warn("Answer verification failed: memocard inactive",
			"memocard_id", req.MemocardID,
			"student_id", studentID)
		return nil, ErrMemocardInactive
	}

	if !models.IsValidMemocardType(memocard.Type) {
		s.logger.Error("Answer verification failed: unknown memocard type",
			"memocard_id", memocard.ID,
			"type", memocard.Type)
		return nil, fmt.Errorf("%w: %q", ErrUnknownMemocardType, memocard.Type)
	}

	answer, err := models.ParseAnswer(memocard.Type, req.Answer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidAnswerFormat, err)
	}

	priorAttempts, err := s.repo.Response().CountByStudentAndMemocard(ctx, studentID, memocard.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to count prior responses: %w", err)
	}

	isCorrect, feedback, err := GradeAnswer(memocard, answer)
	if err != nil {
		return nil, err
	}

	response := &models.Response{
		StudentID:        studentID,
		MemocardID:       memocard.ID,
		Answer:           datatypes.JSON(answer.Raw),
		IsCorrect:        isCorrect,
		Feedback:         feedback,
		Attempts:         int(priorAttempts) + 1,
		TimeSpentSeconds: req.TimeSpentSeconds,
	}

	if err := s.repo.Response().Create(ctx, response); err != nil {
		return nil, fmt.Errorf("failed to create response: %w", err)
	}

	s.logger.Info("Answer verified",
		"response_id", response.ID,
		"memocard_id", memocard.ID,
		"student_id", studentID,
		"is_correct", isCorrect,
		"attempts", response.Attempts)

	if err := s.cache.Delete(ctx, progressCacheKey(studentID)); err != nil {
		s.logger.Warn("Failed to invalidate progress cache", "student_id", studentID, "error", err)
	}

	s.publishEvent(ctx, events.NewResponseRecordedEvent(response))

	return response, nil
}

func (s *memocardService) ListResponsesByStudentAndMemocard(ctx context.Context, studentID string, memocardID uint) ([]*models.Response, error) {
	responses, err := s.repo.Response().ListByStudentAndMemocard(ctx, studentID, memocardID)
	if err != nil {
		return nil, fmt.Errorf("failed to list responses: %w", err)
	}
	return responses, nil
}

// ===== HELPERS =====

func (s *memocardService) publishEvent(ctx context.Context, event *events.DomainEvent) {
	// Events are best-effort: a broker outage must not fail the request.
	if err := s.publisher.Publish(ctx, event); err != nil {
		s.logger.Error("Failed to publish event", "event_type", event.Type, "error", err)
	}
}

func marshalTags(tags []string) (datatypes.JSON, error) {
	if tags == nil {
		return nil, nil
	}
	data, err := json.Marshal(tags)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal tags: %w", err)
	}
	return datatypes.JSON(data), nil
}
