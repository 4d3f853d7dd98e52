package models

import (
	"time"

	"gorm.io/gorm"
)

type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleStudent UserRole = "student"
)

var UserRoles = []UserRole{RoleAdmin, RoleStudent}

func IsValidUserRole(role UserRole) bool {
	for _, r := range UserRoles {
		if r == role {
			return true
		}
	}
	return false
}

type User struct {
	ID           string   `json:"id" gorm:"primaryKey;size:36"`
	Username     string   `json:"username" gorm:"uniqueIndex;not null;size:100" validate:"required,min=3,max=100"`
	Email        string   `json:"email" gorm:"uniqueIndex;not null;size:255" validate:"required,email"`
	FullName     string   `json:"full_name" gorm:"size:200" validate:"max=200"`
	PasswordHash string   `json:"-" gorm:"not null;size:255"`
	Role         UserRole `json:"role" gorm:"not null;index" validate:"required,user_role"`

	// Student profile; only meaningful when Role is student.
	Level *SchoolLevel `json:"level,omitempty" gorm:"size:20" validate:"omitempty,school_level"`

	IsActive    bool       `json:"is_active" gorm:"default:true"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
}

func (User) TableName() string {
	return "users"
}
