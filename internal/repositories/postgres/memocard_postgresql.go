package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/mathsia/memocard-service/internal/models"
	"github.com/mathsia/memocard-service/internal/repositories"
)

type MemocardPostgreSQL struct {
	db *gorm.DB
}

func NewMemocardPostgreSQL(db *gorm.DB) repositories.MemocardRepository {
	return &MemocardPostgreSQL{db: db}
}

func (m *MemocardPostgreSQL) Create(ctx context.Context, memocard *models.Memocard) error {
	return m.db.WithContext(ctx).Create(memocard).Error
}

func (m *MemocardPostgreSQL) GetByID(ctx context.Context, id uint) (*models.Memocard, error) {
	var memocard models.Memocard
	if err := m.db.WithContext(ctx).First(&memocard, id).Error; err != nil {
		return nil, err
	}
	return &memocard, nil
}

func (m *MemocardPostgreSQL) Update(ctx context.Context, memocard *models.Memocard) error {
	return m.db.WithContext(ctx).Save(memocard).Error
}

func (m *MemocardPostgreSQL) Delete(ctx context.Context, id uint) error {
	return m.db.WithContext(ctx).Delete(&models.Memocard{}, id).Error
}

func (m *MemocardPostgreSQL) List(ctx context.Context, filters repositories.MemocardFilters) ([]*models.Memocard, int64, error) {
	var memocards []*models.Memocard
	var total int64

	query := m.db.WithContext(ctx).Model(&models.Memocard{})
	query = m.applyFilters(query, filters)

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if err := query.
		Order("created_at DESC").
		Offset(filters.Skip).
		Limit(normalizeLimit(filters.Limit)).
		Find(&memocards).Error; err != nil {
		return nil, 0, err
	}

	return memocards, total, nil
}

func (m *MemocardPostgreSQL) ListForStudent(ctx context.Context, level models.SchoolLevel, excludeIDs []uint, skip, limit int) ([]*models.Memocard, error) {
	var memocards []*models.Memocard

	query := m.db.WithContext(ctx).
		Where("level = ? AND is_active = ?", level, true)

	if len(excludeIDs) > 0 {
		query = query.Where("id NOT IN ?", excludeIDs)
	}

	if err := query.
		Order("created_at DESC").
		Offset(skip).
		Limit(normalizeLimit(limit)).
		Find(&memocards).Error; err != nil {
		return nil, err
	}

	return memocards, nil
}

func (m *MemocardPostgreSQL) CountActiveByLevel(ctx context.Context, level models.SchoolLevel) (int64, error) {
	var count int64
	err := m.db.WithContext(ctx).
		Model(&models.Memocard{}).
		Where("level = ? AND is_active = ?", level, true).
		Count(&count).Error
	return count, err
}

func (m *MemocardPostgreSQL) applyFilters(query *gorm.DB, filters repositories.MemocardFilters) *gorm.DB {
	if filters.Level != nil {
		query = query.Where("level = ?", *filters.Level)
	}
	if filters.Difficulty != nil {
		query = query.Where("difficulty = ?", *filters.Difficulty)
	}
	if filters.Subject != nil {
		query = query.Where("subject = ?", *filters.Subject)
	}
	if filters.Chapter != nil {
		query = query.Where("chapter = ?", *filters.Chapter)
	}
	if filters.IsActive != nil {
		query = query.Where("is_active = ?", *filters.IsActive)
	}
	return query
}
