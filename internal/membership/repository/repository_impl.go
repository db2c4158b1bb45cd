package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	membershipdomain "github.com/smallbiznis/tierway/internal/membership/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() membershipdomain.Repository {
	return &repo{}
}

const subscriptionColumns = `id, user_id, plan_id, tier_id, status, start_at, expiry_at, actual_price,
	discounted_price, auto_renewal, cancellation_reason, cancelled_by, cancelled_at, created_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, subscription *membershipdomain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscriptions (
			id, user_id, plan_id, tier_id, status, start_at, expiry_at, actual_price,
			discounted_price, auto_renewal, cancellation_reason, cancelled_by, cancelled_at,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		subscription.ID,
		subscription.UserID,
		subscription.PlanID,
		subscription.TierID,
		subscription.Status,
		subscription.StartAt,
		subscription.ExpiryAt,
		subscription.ActualPrice,
		subscription.DiscountedPrice,
		subscription.AutoRenewal,
		subscription.CancellationReason,
		subscription.CancelledBy,
		subscription.CancelledAt,
		subscription.CreatedAt,
		subscription.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, subscription *membershipdomain.Subscription) error {
	return db.WithContext(ctx).Exec(
		`UPDATE subscriptions SET
			tier_id = ?, status = ?, start_at = ?, expiry_at = ?, actual_price = ?,
			discounted_price = ?, auto_renewal = ?, cancellation_reason = ?, cancelled_by = ?,
			cancelled_at = ?, updated_at = ?
		 WHERE id = ?`,
		subscription.TierID,
		subscription.Status,
		subscription.StartAt,
		subscription.ExpiryAt,
		subscription.ActualPrice,
		subscription.DiscountedPrice,
		subscription.AutoRenewal,
		subscription.CancellationReason,
		subscription.CancelledBy,
		subscription.CancelledAt,
		subscription.UpdatedAt,
		subscription.ID,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*membershipdomain.Subscription, error) {
	var subscription membershipdomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM subscriptions WHERE id = ?`,
		id,
	).Scan(&subscription).Error
	if err != nil {
		return nil, err
	}
	if subscription.ID == 0 {
		return nil, nil
	}
	return &subscription, nil
}

func (r *repo) FindCurrentActive(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*membershipdomain.Subscription, error) {
	var subscription membershipdomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM subscriptions
		 WHERE user_id = ? AND status = ?
		 ORDER BY created_at DESC
		 LIMIT 1`,
		userID,
		membershipdomain.SubscriptionStatusActive,
	).Scan(&subscription).Error
	if err != nil {
		return nil, err
	}
	if subscription.ID == 0 {
		return nil, nil
	}
	return &subscription, nil
}

func (r *repo) FindLatestByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID) (*membershipdomain.Subscription, error) {
	var subscription membershipdomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM subscriptions
		 WHERE user_id = ?
		 ORDER BY created_at DESC
		 LIMIT 1`,
		userID,
	).Scan(&subscription).Error
	if err != nil {
		return nil, err
	}
	if subscription.ID == 0 {
		return nil, nil
	}
	return &subscription, nil
}

func (r *repo) FindActiveExpiring(ctx context.Context, db *gorm.DB, at time.Time) ([]membershipdomain.Subscription, error) {
	var subscriptions []membershipdomain.Subscription
	err := db.WithContext(ctx).Raw(
		`SELECT `+subscriptionColumns+` FROM subscriptions
		 WHERE status = ? AND expiry_at <= ?
		 ORDER BY expiry_at ASC, id ASC`,
		membershipdomain.SubscriptionStatusActive,
		at,
	).Scan(&subscriptions).Error
	if err != nil {
		return nil, err
	}
	return subscriptions, nil
}

func (r *repo) InsertHistory(ctx context.Context, db *gorm.DB, entry *membershipdomain.SubscriptionHistory) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscription_history (
			id, subscription_id, user_id, action, description, old_value, new_value,
			old_price, new_price, performed_by, performed_at, metadata
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.SubscriptionID,
		entry.UserID,
		entry.Action,
		entry.Description,
		entry.OldValue,
		entry.NewValue,
		entry.OldPrice,
		entry.NewPrice,
		entry.PerformedBy,
		entry.PerformedAt,
		entry.Metadata,
	).Error
}

func (r *repo) ListHistoryByUser(ctx context.Context, db *gorm.DB, userID snowflake.ID, limit int, before *time.Time) ([]membershipdomain.SubscriptionHistory, error) {
	query := `SELECT id, subscription_id, user_id, action, description, old_value, new_value,
		 old_price, new_price, performed_by, performed_at, metadata
		 FROM subscription_history
		 WHERE user_id = ?`
	args := []any{userID}
	if before != nil {
		query += ` AND performed_at < ?`
		args = append(args, *before)
	}
	query += ` ORDER BY performed_at DESC, id DESC LIMIT ?`
	args = append(args, limit)

	var entries []membershipdomain.SubscriptionHistory
	err := db.WithContext(ctx).Raw(query, args...).Scan(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
