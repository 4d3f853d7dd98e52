package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/mathsia/memocard-service/internal/models"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 100
)

// ===== SHARED FILTER STRUCTS =====

type MemocardFilters struct {
	Level      *models.SchoolLevel     `json:"level"`
	Difficulty *models.DifficultyLevel `json:"difficulty"`
	Subject    *string                 `json:"subject"`
	Chapter    *string                 `json:"chapter"`
	IsActive   *bool                   `json:"is_active"`
	Skip       int                     `json:"skip"`
	Limit      int                     `json:"limit"`
}

type UserFilters struct {
	Role  *models.UserRole    `json:"role"`
	Level *models.SchoolLevel `json:"level"`
	Skip  int                 `json:"skip"`
	Limit int                 `json:"limit"`
}

// StatsDimension selects the catalog column grouped statistics join on.
type StatsDimension string

const (
	DimensionDifficulty StatsDimension = "difficulty"
	DimensionSubject    StatsDimension = "subject"
)

// GroupedResponseStats is one row of a responses-to-memocards grouped
// aggregation: per-dimension answered and correct counts for a student.
// Grouping uses the card's current dimension value, not a snapshot taken when
// the response was recorded.
type GroupedResponseStats struct {
	Dimension string `json:"dimension"`
	Answered  int    `json:"answered"`
	Correct   int    `json:"correct"`
}

// ===== REPOSITORY INTERFACES =====

// MemocardRepository handles card catalog storage and filtered retrieval.
type MemocardRepository interface {
	Create(ctx context.Context, memocard *models.Memocard) error
	GetByID(ctx context.Context, id uint) (*models.Memocard, error)
	Update(ctx context.Context, memocard *models.Memocard) error
	Delete(ctx context.Context, id uint) error

	List(ctx context.Context, filters MemocardFilters) ([]*models.Memocard, int64, error)
	ListForStudent(ctx context.Context, level models.SchoolLevel, excludeIDs []uint, skip, limit int) ([]*models.Memocard, error)
	CountActiveByLevel(ctx context.Context, level models.SchoolLevel) (int64, error)
}

// ResponseRepository is append-only: no update or delete operation exists for
// responses anywhere in this interface.
type ResponseRepository interface {
	Create(ctx context.Context, response *models.Response) error
	GetByID(ctx context.Context, id uint) (*models.Response, error)

	ListByStudent(ctx context.Context, studentID string, skip, limit int) ([]*models.Response, error)
	ListByMemocard(ctx context.Context, memocardID uint, skip, limit int) ([]*models.Response, error)
	ListByStudentAndMemocard(ctx context.Context, studentID string, memocardID uint) ([]*models.Response, error)

	CountByStudent(ctx context.Context, studentID string) (int64, error)
	CountByStudentAndMemocard(ctx context.Context, studentID string, memocardID uint) (int64, error)
	CountCorrectByStudent(ctx context.Context, studentID string) (int64, error)
	DistinctMemocardIDsByStudent(ctx context.Context, studentID string) ([]uint, error)

	// AverageTimeSpentByStudent averages time_spent_seconds over responses
	// where it was recorded; rows without it are excluded entirely.
	AverageTimeSpentByStudent(ctx context.Context, studentID string) (float64, error)
	StatsByDimension(ctx context.Context, studentID string, dimension StatsDimension) ([]GroupedResponseStats, error)
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error

	ListStudents(ctx context.Context, filters UserFilters) ([]*models.User, int64, error)
	CountStudents(ctx context.Context) (int64, error)
	CountAdmins(ctx context.Context) (int64, error)
}

// Repository aggregates all entity repositories behind one injection point.
type Repository interface {
	Memocard() MemocardRepository
	Response() ResponseRepository
	User() UserRepository
}

// IsNotFoundError reports whether err represents a missing record, regardless
// of which repository implementation produced it.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
