package domain

import "context"

type ListPlansRequest struct {
	DiscountsOnly bool
}

type Service interface {
	List(ctx context.Context, req ListPlansRequest) ([]MembershipPlan, error)
	ListForTier(ctx context.Context, tierLevel int) ([]MembershipPlan, error)
	Get(ctx context.Context, id string) (MembershipPlan, error)
}
