package models

import (
	"time"
)

type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleCreator    UserRole = "creator"
	RoleRespondent UserRole = "respondent"
)

// RoleLevel returns the position of a role in the strict hierarchy
// admin > creator > respondent. Unknown roles rank below respondent.
func RoleLevel(role UserRole) int {
	switch role {
	case RoleAdmin:
		return 3
	case RoleCreator:
		return 2
	case RoleRespondent:
		return 1
	default:
		return 0
	}
}

type User struct {
	ID           string   `json:"id" gorm:"primaryKey;size:64"`
	Name         string   `json:"name" gorm:"not null;size:100" validate:"required,max=100"`
	Email        string   `json:"email" gorm:"uniqueIndex;not null;size:255" validate:"required,email"`
	PasswordHash string   `json:"-" gorm:"not null;size:100"`
	Role         UserRole `json:"role" gorm:"not null;size:20;default:respondent;index" validate:"omitempty,oneof=admin creator respondent"`
	IsActive     bool     `json:"is_active" gorm:"not null;default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
