package domain

import (
	"context"

	membershipdomain "github.com/smallbiznis/tierway/internal/membership/domain"
)

// MembershipStatus is the read-side projection of a user's standing: the
// account, the tier it currently sits on and the active subscription when
// one exists.
type MembershipStatus struct {
	User               User                           `json:"user"`
	TierName           string                         `json:"tier_name"`
	ActiveSubscription *membershipdomain.Subscription `json:"active_subscription,omitempty"`
}

type Service interface {
	Get(ctx context.Context, userID string) (User, error)
	MembershipStatus(ctx context.Context, userID string) (MembershipStatus, error)
}
