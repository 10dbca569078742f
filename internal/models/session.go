package models

import (
	"time"

	"gorm.io/datatypes"
)

// Session is the server-side token row. Token doubles as the primary key;
// the login flow deletes any prior rows for the user, keeping at most one
// active session per user.
type Session struct {
	Token     string    `json:"token" gorm:"primaryKey;size:64"`
	UserID    string    `json:"user_id" gorm:"not null;index;size:64"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null;index"`
	CreatedAt time.Time `json:"created_at"`
}

func (Session) TableName() string {
	return "sessions"
}

// Expired reports whether the session has passed its expiry.
func (s *Session) Expired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// AuditLog records notable user actions (login, logout, admin edits).
type AuditLog struct {
	ID       string         `json:"id" gorm:"primaryKey;size:64"`
	UserID   string         `json:"user_id" gorm:"not null;index;size:64"`
	UserName string         `json:"user_name" gorm:"size:100"`
	Action   string         `json:"action" gorm:"not null;size:50;index"`
	Metadata datatypes.JSON `json:"metadata,omitempty" gorm:"type:jsonb"`

	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (AuditLog) TableName() string {
	return "audit_logs"
}

// OTPCode is a single-use, time-boxed registration code bound to an email.
type OTPCode struct {
	ID        string    `json:"id" gorm:"primaryKey;size:64"`
	Email     string    `json:"email" gorm:"not null;index;size:255"`
	Code      string    `json:"-" gorm:"not null;size:6"`
	ExpiresAt time.Time `json:"expires_at" gorm:"not null"`
	Used      bool      `json:"used" gorm:"not null;default:false"`
	CreatedAt time.Time `json:"created_at" gorm:"index"`
}

func (OTPCode) TableName() string {
	return "otp_codes"
}
