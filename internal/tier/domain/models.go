// Package domain contains reference data models for membership tiers.
package domain

import (
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// MembershipTier is a ranked membership level. Tiers are reference data:
// created by seeding or operations tooling, never mutated by the lifecycle.
type MembershipTier struct {
	ID                 snowflake.ID `gorm:"primaryKey" json:"id"`
	Name               string       `gorm:"type:text;not null" json:"name"`
	TierLevel          int          `gorm:"not null;uniqueIndex" json:"tier_level"`
	DiscountPercentage float64      `gorm:"not null;default:0" json:"discount_percentage"`
	Active             bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (MembershipTier) TableName() string { return "membership_tiers" }

var (
	ErrTierNotFound = errors.New("tier_not_found")
)
