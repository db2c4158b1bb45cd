package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/tierway/pkg/db/pagination"
)

type SubscribeRequest struct {
	UserID      string `json:"user_id"`
	PlanID      string `json:"plan_id"`
	TierID      string `json:"tier_id"`
	AutoRenewal bool   `json:"auto_renewal"`
	Actor       string `json:"-"`
}

type CancelRequest struct {
	UserID string `json:"user_id"`
	Reason string `json:"reason"`
	Actor  string `json:"-"`
}

type RenewRequest struct {
	UserID string `json:"user_id"`
	Actor  string `json:"-"`
}

type ChangeTierRequest struct {
	UserID    string              `json:"user_id"`
	TierID    string              `json:"tier_id"`
	Direction TierChangeDirection `json:"direction"`
	Actor     string              `json:"-"`
}

type HistoryRequest struct {
	UserID string
	pagination.Pagination
}

type HistoryResponse struct {
	pagination.PageInfo
	Entries []SubscriptionHistory `json:"entries"`
}

// Service is the subscription lifecycle state machine. Every operation runs
// as one transaction: subscription write, user tier sync and history append
// commit or roll back together.
//
// States: ACTIVE, CANCELLED, EXPIRED. Cancelled and Expired are terminal
// except through Renew, which revives either back to ACTIVE.
type Service interface {
	Subscribe(ctx context.Context, req SubscribeRequest) (Subscription, error)
	Cancel(ctx context.Context, req CancelRequest) (Subscription, error)
	Renew(ctx context.Context, req RenewRequest) (Subscription, error)
	ChangeTier(ctx context.Context, req ChangeTierRequest) (Subscription, error)

	// RenewSubscription extends a specific subscription's term; used by the
	// expiry sweep for auto-renewing lapsed terms.
	RenewSubscription(ctx context.Context, subscriptionID string, actor string) (Subscription, error)
	// Expire transitions an ACTIVE subscription past its expiry to EXPIRED;
	// only the sweep calls it.
	Expire(ctx context.Context, subscriptionID string) (Subscription, error)

	GetCurrent(ctx context.Context, userID string) (Subscription, error)
	ListExpiring(ctx context.Context, at time.Time) ([]Subscription, error)
	History(ctx context.Context, req HistoryRequest) (HistoryResponse, error)
}

var (
	ErrInvalidUser              = errors.New("invalid_user")
	ErrInvalidPlan              = errors.New("invalid_plan")
	ErrInvalidTier              = errors.New("invalid_tier")
	ErrInvalidSubscription      = errors.New("invalid_subscription")
	ErrSubscriptionNotFound     = errors.New("subscription_not_found")
	ErrActiveSubscriptionExists = errors.New("active_subscription_exists")
	ErrPlanNotApplicable        = errors.New("plan_not_applicable_for_tier")
	ErrTierNotHigher            = errors.New("tier_not_higher_than_current")
	ErrTierNotLower             = errors.New("tier_not_lower_than_current")
	ErrInvalidDirection         = errors.New("invalid_tier_change_direction")
	ErrSubscriptionNotActive    = errors.New("subscription_not_active")
	ErrSubscriptionNotExpired   = errors.New("subscription_not_past_expiry")
)
