package postgres

import (
	"gorm.io/gorm"

	"github.com/mathsia/memocard-service/internal/repositories"
)

type repository struct {
	memocard repositories.MemocardRepository
	response repositories.ResponseRepository
	user     repositories.UserRepository
}

// NewRepository wires all PostgreSQL-backed repositories around one gorm
// handle. The handle is injected, never a package-level global.
func NewRepository(db *gorm.DB) repositories.Repository {
	return &repository{
		memocard: NewMemocardPostgreSQL(db),
		response: NewResponsePostgreSQL(db),
		user:     NewUserPostgreSQL(db),
	}
}

func (r *repository) Memocard() repositories.MemocardRepository { return r.memocard }
func (r *repository) Response() repositories.ResponseRepository { return r.response }
func (r *repository) User() repositories.UserRepository         { return r.user }

// normalizeLimit clamps pagination to the catalog's defaults (100 max).
func normalizeLimit(limit int) int {
	if limit <= 0 || limit > repositories.MaxListLimit {
		return repositories.DefaultListLimit
	}
	return limit
}
