// Package domain contains the user model and its persistence contract.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// UserStatus represents account states.
type UserStatus string

const (
	UserStatusActive    UserStatus = "ACTIVE"
	UserStatusSuspended UserStatus = "SUSPENDED"
)

// User is a member account. CurrentTierLevel is kept in sync with the tier
// of the user's active subscription by the membership lifecycle; this core
// never deletes users.
type User struct {
	ID                   snowflake.ID `gorm:"primaryKey" json:"id"`
	Username             string       `gorm:"type:text;not null;uniqueIndex" json:"username"`
	Email                string       `gorm:"type:text;not null;uniqueIndex" json:"email"`
	Status               UserStatus   `gorm:"type:text;not null;default:ACTIVE" json:"status"`
	CurrentTierLevel     int          `gorm:"not null;default:1" json:"current_tier_level"`
	Cohort               *string      `gorm:"type:text" json:"cohort,omitempty"`
	MembershipStartAt    *time.Time   `gorm:"" json:"membership_start_at,omitempty"`
	LastTierEvaluationAt *time.Time   `gorm:"" json:"last_tier_evaluation_at,omitempty"`
	CreatedAt            time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt            time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

var (
	ErrUserNotFound = errors.New("user_not_found")
)
