package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/mathsia/memocard-service/internal/models"
	"github.com/mathsia/memocard-service/internal/repositories"
)

type ResponsePostgreSQL struct {
	db *gorm.DB
}

func NewResponsePostgreSQL(db *gorm.DB) repositories.ResponseRepository {
	return &ResponsePostgreSQL{db: db}
}

func (r *ResponsePostgreSQL) Create(ctx context.Context, response *models.Response) error {
	return r.db.WithContext(ctx).Create(response).Error
}

func (r *ResponsePostgreSQL) GetByID(ctx context.Context, id uint) (*models.Response, error) {
	var response models.Response
	if err := r.db.WithContext(ctx).First(&response, id).Error; err != nil {
		return nil, err
	}
	return &response, nil
}

func (r *ResponsePostgreSQL) ListByStudent(ctx context.Context, studentID string, skip, limit int) ([]*models.Response, error) {
	var responses []*models.Response
	if err := r.db.WithContext(ctx).
		Where("student_id = ?", studentID).
		Order("created_at DESC").
		Offset(skip).
		Limit(normalizeLimit(limit)).
		Find(&responses).Error; err != nil {
		return nil, err
	}
	return responses, nil
}

func (r *ResponsePostgreSQL) ListByMemocard(ctx context.Context, memocardID uint, skip, limit int) ([]*models.Response, error) {
	var responses []*models.Response
	if err := r.db.WithContext(ctx).
		Where("memocard_id = ?", memocardID).
		Order("created_at DESC").
		Offset(skip).
		Limit(normalizeLimit(limit)).
		Find(&responses).Error; err != nil {
		return nil, err
	}
	return responses, nil
}

func (r *ResponsePostgreSQL) ListByStudentAndMemocard(ctx context.Context, studentID string, memocardID uint) ([]*models.Response, error) {
	var responses []*models.Response
	if err := r.db.WithContext(ctx).
		Where("student_id = ? AND memocard_id = ?", studentID, memocardID).
		Order("created_at DESC").
		Find(&responses).Error; err != nil {
		return nil, err
	}
	return responses, nil
}

func (r *ResponsePostgreSQL) CountByStudent(ctx context.Context, studentID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Response{}).
		Where("student_id = ?", studentID).
		Count(&count).Error
	return count, err
}

func (r *ResponsePostgreSQL) CountByStudentAndMemocard(ctx context.Context, studentID string, memocardID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Response{}).
		Where("student_id = ? AND memocard_id = ?", studentID, memocardID).
		Count(&count).Error
	return count, err
}

func (r *ResponsePostgreSQL) CountCorrectByStudent(ctx context.Context, studentID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Response{}).
		Where("student_id = ? AND is_correct = ?", studentID, true).
		Count(&count).Error
	return count, err
}

func (r *ResponsePostgreSQL) DistinctMemocardIDsByStudent(ctx context.Context, studentID string) ([]uint, error) {
	var ids []uint
	if err := r.db.WithContext(ctx).
		Model(&models.Response{}).
		Where("student_id = ?", studentID).
		Distinct("memocard_id").
		Pluck("memocard_id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *ResponsePostgreSQL) AverageTimeSpentByStudent(ctx context.Context, studentID string) (float64, error) {
	var avg *float64
	if err := r.db.WithContext(ctx).
		Model(&models.Response{}).
		Where("student_id = ? AND time_spent_seconds IS NOT NULL", studentID).
		Select("AVG(time_spent_seconds)").
		Scan(&avg).Error; err != nil {
		return 0, err
	}
	if avg == nil {
		return 0, nil
	}
	return *avg, nil
}

// StatsByDimension joins responses to the current catalog row, so a response
// to a card that was later reclassified counts under the new classification.
func (r *ResponsePostgreSQL) StatsByDimension(ctx context.Context, studentID string, dimension repositories.StatsDimension) ([]repositories.GroupedResponseStats, error) {
	var column string
	switch dimension {
	case repositories.DimensionDifficulty:
		column = "memocards.difficulty"
	case repositories.DimensionSubject:
		column = "memocards.subject"
	default:
		return nil, fmt.Errorf("unknown stats dimension %q", dimension)
	}

	var stats []repositories.GroupedResponseStats
	if err := r.db.WithContext(ctx).
		Model(&models.Response{}).
		Select(column+" AS dimension, COUNT(*) AS answered, SUM(CASE WHEN responses.is_correct THEN 1 ELSE 0 END) AS correct").
		Joins("JOIN memocards ON memocards.id = responses.memocard_id").
		Where("responses.student_id = ?", studentID).
		Group(column).
		Scan(&stats).Error; err != nil {
		return nil, err
	}

	return stats, nil
}
