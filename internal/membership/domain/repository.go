package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	Update(ctx context.Context, db *gorm.DB, subscription *Subscription) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)
	// FindCurrentActive returns the user's ACTIVE subscription, or nil.
	FindCurrentActive(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*Subscription, error)
	// FindLatestByUser returns the most recent subscription regardless of
	// status; renew uses it to revive cancelled or expired terms.
	FindLatestByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*Subscription, error)
	// FindActiveExpiring lists ACTIVE subscriptions with expiry_at <= at,
	// in a stable order for the sweep.
	FindActiveExpiring(ctx context.Context, db *gorm.DB, at time.Time) ([]Subscription, error)
	InsertHistory(ctx context.Context, db *gorm.DB, entry *SubscriptionHistory) error
	ListHistoryByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID, limit int, before *time.Time) ([]SubscriptionHistory, error)
}
