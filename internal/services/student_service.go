package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/mathsia/memocard-service/internal/cache"
	"github.com/mathsia/memocard-service/internal/models"
	"github.com/mathsia/memocard-service/internal/repositories"
	"github.com/mathsia/memocard-service/internal/utils"
)

const (
	progressCacheTTL     = 5 * time.Minute
	progressCachePattern = "progress:student:*"
)

func progressCacheKey(studentID string) string {
	return "progress:student:" + studentID
}

// StudentService manages student accounts and progress reporting.
type StudentService interface {
	Create(ctx context.Context, req *CreateStudentRequest) (*models.User, error)
	Update(ctx context.Context, id string, req *UpdateStudentRequest) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error)

	GetProgress(ctx context.Context, studentID string) (*models.StudentProgress, error)
}

// ===== REQUEST STRUCTURES =====

type CreateStudentRequest struct {
	Username string             `json:"username" validate:"required,min=3,max=50"`
	Email    string             `json:"email" validate:"required,email"`
	Password string             `json:"password" validate:"required,min=8,max=72"`
	FullName string             `json:"full_name" validate:"required,min=1,max=200"`
	Level    models.SchoolLevel `json:"level" validate:"required"`
}

type UpdateStudentRequest struct {
	Email    *string             `json:"email" validate:"omitempty,email"`
	Password *string             `json:"password" validate:"omitempty,min=8,max=72"`
	FullName *string             `json:"full_name" validate:"omitempty,min=1,max=200"`
	Level    *models.SchoolLevel `json:"level"`
	IsActive *bool               `json:"is_active"`
}

type studentService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *utils.Validator
	cache     cache.CacheService
}

func NewStudentService(
	repo repositories.Repository,
	logger *slog.Logger,
	validator *utils.Validator,
	cacheService cache.CacheService,
) StudentService {
	return &studentService{
		repo:      repo,
		logger:    logger,
		validator: validator,
		cache:     cacheService,
	}
}

// ===== ACCOUNT OPERATIONS =====

func (s *studentService) Create(ctx context.Context, req *CreateStudentRequest) (*models.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	if !models.IsValidSchoolLevel(req.Level) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidLevel, req.Level)
	}

	if _, err := s.repo.User().GetByUsername(ctx, req.Username); err == nil {
		s.logger.Warn("Student creation failed: username taken", "username", req.Username)
		return nil, ErrUsernameExists
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check username: %w", err)
	}

	if _, err := s.repo.User().GetByEmail(ctx, req.Email); err == nil {
		s.logger.Warn("Student creation failed: email taken", "email", req.Email)
		return nil, ErrEmailExists
	} else if !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	level := req.Level
	user := &models.User{
		ID:           uuid.NewString(),
		Username:     req.Username,
		Email:        req.Email,
		FullName:     req.FullName,
		PasswordHash: string(hash),
		Role:         models.RoleStudent,
		Level:        &level,
		IsActive:     true,
	}

	if err := s.repo.User().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create student: %w", err)
	}

	s.logger.Info("Student created",
		"student_id", user.ID,
		"username", user.Username,
		"level", level)

	return user, nil
}

func (s *studentService) Update(ctx context.Context, id string, req *UpdateStudentRequest) (*models.User, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidationFailed, err)
	}

	user, err := s.getStudent(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Email != nil && *req.Email != user.Email {
		if _, err := s.repo.User().GetByEmail(ctx, *req.Email); err == nil {
			return nil, ErrEmailExists
		} else if !repositories.IsNotFoundError(err) {
			return nil, fmt.Errorf("failed to check email: %w", err)
		}
		user.Email = *req.Email
	}
	if req.Password != nil {
		hash, err := bcrypt.GenerateFromPassword([]byte(*req.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = string(hash)
	}
	if req.FullName != nil {
		user.FullName = *req.FullName
	}
	if req.Level != nil {
		if !models.IsValidSchoolLevel(*req.Level) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidLevel, *req.Level)
		}
		level := *req.Level
		user.Level = &level
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.repo.User().Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update student: %w", err)
	}

	s.logger.Info("Student updated", "student_id", user.ID)

	// A level change swaps the card pool the progress report counts against.
	if err := s.cache.Delete(ctx, progressCacheKey(user.ID)); err != nil {
		s.logger.Warn("Failed to invalidate progress cache", "student_id", user.ID, "error", err)
	}

	return user, nil
}

func (s *studentService) GetByID(ctx context.Context, id string) (*models.User, error) {
	return s.getStudent(ctx, id)
}

func (s *studentService) Delete(ctx context.Context, id string) error {
	if _, err := s.getStudent(ctx, id); err != nil {
		return err
	}

	if err := s.repo.User().Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete student: %w", err)
	}

	s.logger.Info("Student deleted", "student_id", id)

	if err := s.cache.Delete(ctx, progressCacheKey(id)); err != nil {
		s.logger.Warn("Failed to invalidate progress cache", "student_id", id, "error", err)
	}

	return nil
}

func (s *studentService) List(ctx context.Context, filters repositories.UserFilters) ([]*models.User, int64, error) {
	if filters.Level != nil && !models.IsValidSchoolLevel(*filters.Level) {
		return nil, 0, fmt.Errorf("%w: %q", ErrInvalidLevel, *filters.Level)
	}

	users, total, err := s.repo.User().ListStudents(ctx, filters)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list students: %w", err)
	}
	return users, total, nil
}

// ===== PROGRESS REPORTING =====

// GetProgress assembles the student's progress report from the response
// ledger and the card catalog. Responses keep no snapshot of card metadata,
// so the by-difficulty and by-subject breakdowns reflect each card's current
// classification. That makes reclassification retroactive by construction.
func (s *studentService) GetProgress(ctx context.Context, studentID string) (*models.StudentProgress, error) {
	user, err := s.getStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if user.Level == nil {
		s.logger.Warn("Progress request failed: student has no level", "student_id", studentID)
		return nil, ErrStudentNoLevel
	}

	cacheKey := progressCacheKey(studentID)
	var cached models.StudentProgress
	if err := s.cache.Get(ctx, cacheKey, &cached); err == nil {
		return &cached, nil
	} else if !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.Warn("Progress cache read failed", "student_id", studentID, "error", err)
	}

	progress, err := s.computeProgress(ctx, studentID, *user.Level)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, cacheKey, progress, progressCacheTTL); err != nil {
		s.logger.Warn("Progress cache write failed", "student_id", studentID, "error", err)
	}

	return progress, nil
}

func (s *studentService) computeProgress(ctx context.Context, studentID string, level models.SchoolLevel) (*models.StudentProgress, error) {
	totalMemocards, err := s.repo.Memocard().CountActiveByLevel(ctx, level)
	if err != nil {
		return nil, fmt.Errorf("failed to count memocards: %w", err)
	}

	progress := &models.StudentProgress{
		TotalMemocards: int(totalMemocards),
		ByDifficulty:   map[string]*models.DimensionStats{},
		BySubject:      map[string]*models.DimensionStats{},
	}

	totalResponses, err := s.repo.Response().CountByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count responses: %w", err)
	}
	if totalResponses == 0 {
		return progress, nil
	}

	answeredIDs, err := s.repo.Response().DistinctMemocardIDsByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get answered memocard ids: %w", err)
	}
	progress.AnsweredMemocards = len(answeredIDs)

	correct, err := s.repo.Response().CountCorrectByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to count correct responses: %w", err)
	}
	progress.CorrectAnswers = int(correct)

	// Accuracy is per-response, not per-card: three attempts at one card
	// count three times in the denominator.
	progress.AccuracyRate = round2(float64(correct) / float64(totalResponses) * 100)

	avgTime, err := s.repo.Response().AverageTimeSpentByStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to average time spent: %w", err)
	}
	progress.AverageTimeSeconds = round2(avgTime)

	for _, dim := range []struct {
		dimension repositories.StatsDimension
		target    map[string]*models.DimensionStats
	}{
		{repositories.DimensionDifficulty, progress.ByDifficulty},
		{repositories.DimensionSubject, progress.BySubject},
	} {
		rows, err := s.repo.Response().StatsByDimension(ctx, studentID, dim.dimension)
		if err != nil {
			return nil, fmt.Errorf("failed to aggregate by %s: %w", dim.dimension, err)
		}
		for _, row := range rows {
			stats := &models.DimensionStats{
				Answered: row.Answered,
				Correct:  row.Correct,
			}
			if row.Answered > 0 {
				stats.Accuracy = round2(float64(row.Correct) / float64(row.Answered) * 100)
			}
			dim.target[row.Dimension] = stats
		}
	}

	return progress, nil
}

// getStudent fetches a user and enforces the student role.
func (s *studentService) getStudent(ctx context.Context, id string) (*models.User, error) {
	user, err := s.repo.User().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrStudentNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user.Role != models.RoleStudent {
		return nil, ErrNotAStudent
	}
	return user, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
