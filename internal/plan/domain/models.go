// Package domain contains membership plan reference data.
package domain

import (
	"errors"
	"math"
	"time"

	"github.com/bwmarrin/snowflake"
)

// MembershipPlan describes a purchasable subscription term. Prices are in
// minor currency units.
type MembershipPlan struct {
	ID                 snowflake.ID `gorm:"primaryKey" json:"id"`
	Name               string       `gorm:"type:text;not null" json:"name"`
	Description        string       `gorm:"type:text" json:"description"`
	DurationMonths     int          `gorm:"not null" json:"duration_months"`
	Price              int64        `gorm:"not null" json:"price"`
	DiscountPercentage float64      `gorm:"not null;default:0" json:"discount_percentage"`
	MaxTierLevel       *int         `gorm:"" json:"max_tier_level,omitempty"`
	Active             bool         `gorm:"not null;default:true" json:"active"`
	CreatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (MembershipPlan) TableName() string { return "membership_plans" }

// DiscountedPrice applies the plan discount, rounded to the nearest minor
// unit. Returns the list price when no discount is configured.
func (p MembershipPlan) DiscountedPrice() int64 {
	if p.DiscountPercentage == 0 {
		return p.Price
	}
	return int64(math.Round(float64(p.Price) * (1 - p.DiscountPercentage/100)))
}

// ApplicableForTier reports whether the plan may be purchased at the given
// tier level. A nil MaxTierLevel means the plan is unrestricted.
func (p MembershipPlan) ApplicableForTier(tierLevel int) bool {
	return p.MaxTierLevel == nil || tierLevel <= *p.MaxTierLevel
}

var (
	ErrPlanNotFound = errors.New("plan_not_found")
)
