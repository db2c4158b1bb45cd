// Package domain contains persistence models for subscriptions and their
// audit history.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// SubscriptionStatus represents lifecycle states for a subscription.
type SubscriptionStatus string

const (
	SubscriptionStatusActive    SubscriptionStatus = "ACTIVE"
	SubscriptionStatusCancelled SubscriptionStatus = "CANCELLED"
	SubscriptionStatusExpired   SubscriptionStatus = "EXPIRED"
)

// SubscriptionAction labels history entries.
type SubscriptionAction string

const (
	ActionCreated     SubscriptionAction = "CREATED"
	ActionRenewed     SubscriptionAction = "RENEWED"
	ActionUpgraded    SubscriptionAction = "UPGRADED"
	ActionDowngraded  SubscriptionAction = "DOWNGRADED"
	ActionCancelled   SubscriptionAction = "CANCELLED"
	ActionTierChanged SubscriptionAction = "TIER_CHANGED"
)

// TierChangeDirection constrains ChangeTier: the direction is asserted, not
// inferred, so a caller asking for an upgrade to a lower tier gets an error.
type TierChangeDirection string

const (
	DirectionUpgrade   TierChangeDirection = "UPGRADE"
	DirectionDowngrade TierChangeDirection = "DOWNGRADE"
)

// ActorSystem marks lifecycle mutations performed by scheduled jobs.
const ActorSystem = "SYSTEM"

// Subscription captures a user's membership agreement. Prices are minor
// currency units. Cancellation fields are set only while status is
// CANCELLED; renew clears them.
type Subscription struct {
	ID                 snowflake.ID       `gorm:"primaryKey" json:"id"`
	UserID             snowflake.ID       `gorm:"not null;index" json:"user_id"`
	PlanID             snowflake.ID       `gorm:"not null;index" json:"plan_id"`
	TierID             snowflake.ID       `gorm:"not null;index" json:"tier_id"`
	Status             SubscriptionStatus `gorm:"type:text;not null" json:"status"`
	StartAt            time.Time          `gorm:"not null" json:"start_at"`
	ExpiryAt           time.Time          `gorm:"not null" json:"expiry_at"`
	ActualPrice        int64              `gorm:"not null" json:"actual_price"`
	DiscountedPrice    *int64             `gorm:"" json:"discounted_price,omitempty"`
	AutoRenewal        bool               `gorm:"not null;default:true" json:"auto_renewal"`
	CancellationReason *string            `gorm:"type:text" json:"cancellation_reason,omitempty"`
	CancelledBy        *string            `gorm:"type:text" json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time         `gorm:"" json:"cancelled_at,omitempty"`
	CreatedAt          time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time          `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Subscription) TableName() string { return "subscriptions" }

// EffectivePrice is the discounted price when present, the actual price
// otherwise.
func (s Subscription) EffectivePrice() int64 {
	if s.DiscountedPrice != nil {
		return *s.DiscountedPrice
	}
	return s.ActualPrice
}

// ExpiredAt reports whether the subscription term has lapsed at the given
// instant, regardless of status. The expiry instant itself counts as lapsed,
// matching the expiry-sweep selection.
func (s Subscription) ExpiredAt(at time.Time) bool {
	return !at.Before(s.ExpiryAt)
}

// SubscriptionHistory is an append-only audit record of a lifecycle
// transition. Entries are never mutated or deleted.
type SubscriptionHistory struct {
	ID             snowflake.ID       `gorm:"primaryKey" json:"id"`
	SubscriptionID snowflake.ID       `gorm:"not null;index" json:"subscription_id"`
	UserID         snowflake.ID       `gorm:"not null;index" json:"user_id"`
	Action         SubscriptionAction `gorm:"type:text;not null" json:"action"`
	Description    string             `gorm:"type:text" json:"description"`
	OldValue       *string            `gorm:"type:text" json:"old_value,omitempty"`
	NewValue       *string            `gorm:"type:text" json:"new_value,omitempty"`
	OldPrice       *int64             `gorm:"" json:"old_price,omitempty"`
	NewPrice       *int64             `gorm:"" json:"new_price,omitempty"`
	PerformedBy    string             `gorm:"type:text;not null" json:"performed_by"`
	PerformedAt    time.Time          `gorm:"not null" json:"performed_at"`
	Metadata       datatypes.JSONMap  `gorm:"type:jsonb" json:"metadata,omitempty"`
}

// TableName sets the database table name.
func (SubscriptionHistory) TableName() string { return "subscription_history" }
