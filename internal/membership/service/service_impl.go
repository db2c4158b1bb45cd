package service

import (
	"context"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tierway/internal/clock"
	membershipdomain "github.com/smallbiznis/tierway/internal/membership/domain"
	plandomain "github.com/smallbiznis/tierway/internal/plan/domain"
	tierdomain "github.com/smallbiznis/tierway/internal/tier/domain"
	userdomain "github.com/smallbiznis/tierway/internal/user/domain"
	"github.com/smallbiznis/tierway/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service implements the subscription lifecycle. Every mutation runs inside
// a single transaction so the one-active-subscription invariant and the
// user/subscription tier agreement hold at commit time.
type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock

	repo     membershipdomain.Repository
	userRepo userdomain.Repository
	planRepo plandomain.Repository
	tierRepo tierdomain.Repository
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock

	Repo     membershipdomain.Repository
	UserRepo userdomain.Repository
	PlanRepo plandomain.Repository
	TierRepo tierdomain.Repository
}

func NewService(p ServiceParam) membershipdomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("membership.service"),
		genID: p.GenID,
		clock: p.Clock,

		repo:     p.Repo,
		userRepo: p.UserRepo,
		planRepo: p.PlanRepo,
		tierRepo: p.TierRepo,
	}
}

func (s *Service) Subscribe(ctx context.Context, req membershipdomain.SubscribeRequest) (membershipdomain.Subscription, error) {
	userID, err := parseID(req.UserID, membershipdomain.ErrInvalidUser)
	if err != nil {
		return membershipdomain.Subscription{}, err
	}
	planID, err := parseID(req.PlanID, membershipdomain.ErrInvalidPlan)
	if err != nil {
		return membershipdomain.Subscription{}, err
	}
	tierID, err := parseID(req.TierID, membershipdomain.ErrInvalidTier)
	if err != nil {
		return membershipdomain.Subscription{}, err
	}

	now := s.clock.Now()
	var created membershipdomain.Subscription

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.FindByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return membershipdomain.ErrInvalidUser
		}

		plan, err := s.planRepo.FindByID(ctx, tx, planID)
		if err != nil {
			return err
		}
		if plan == nil {
			return membershipdomain.ErrInvalidPlan
		}

		tier, err := s.tierRepo.FindByID(ctx, tx, tierID)
		if err != nil {
			return err
		}
		if tier == nil {
			return membershipdomain.ErrInvalidTier
		}

		if !plan.ApplicableForTier(tier.TierLevel) {
			return membershipdomain.ErrPlanNotApplicable
		}

		existing, err := s.repo.FindCurrentActive(ctx, tx, userID)
		if err != nil {
			return err
		}
		if existing != nil {
			return membershipdomain.ErrActiveSubscriptionExists
		}

		subscription := membershipdomain.Subscription{
			ID:          s.genID.Generate(),
			UserID:      userID,
			PlanID:      planID,
			TierID:      tierID,
			Status:      membershipdomain.SubscriptionStatusActive,
			StartAt:     now,
			ExpiryAt:    now.AddDate(0, plan.DurationMonths, 0),
			ActualPrice: plan.Price,
			AutoRenewal: req.AutoRenewal,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if plan.DiscountPercentage > 0 {
			discounted := plan.DiscountedPrice()
			subscription.DiscountedPrice = &discounted
		}

		if err := s.repo.Insert(ctx, tx, &subscription); err != nil {
			return err
		}

		if err := s.userRepo.UpdateTierLevel(ctx, tx, userID, tier.TierLevel, now); err != nil {
			return err
		}
		if user.MembershipStartAt == nil {
			if err := s.userRepo.UpdateMembershipStart(ctx, tx, userID, now); err != nil {
				return err
			}
		}

		actor := req.Actor
		if actor == "" {
			actor = user.Username
		}
		if err := s.appendHistory(ctx, tx, &subscription, membershipdomain.ActionCreated,
			"Subscription created", nil, &plan.Name, nil, &plan.Price, actor, now, nil); err != nil {
			return err
		}

		created = subscription
		return nil
	})
	if err != nil {
		return membershipdomain.Subscription{}, err
	}

	s.log.Info("subscription created",
		zap.String("user_id", userID.String()),
		zap.String("subscription_id", created.ID.String()),
	)
	return created, nil
}

func (s *Service) Cancel(ctx context.Context, req membershipdomain.CancelRequest) (membershipdomain.Subscription, error) {
	userID, err := parseID(req.UserID, membershipdomain.ErrInvalidUser)
	if err != nil {
		return membershipdomain.Subscription{}, err
	}

	now := s.clock.Now()
	var cancelled membershipdomain.Subscription

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.FindByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return membershipdomain.ErrInvalidUser
		}

		subscription, err := s.repo.FindCurrentActive(ctx, tx, userID)
		if err != nil {
			return err
		}
		if subscription == nil {
			return membershipdomain.ErrSubscriptionNotFound
		}

		actor := req.Actor
		if actor == "" {
			actor = user.Username
		}

		subscription.Status = membershipdomain.SubscriptionStatusCancelled
		subscription.CancellationReason = &req.Reason
		subscription.CancelledBy = &actor
		subscription.CancelledAt = &now
		subscription.UpdatedAt = now

		if err := s.repo.Update(ctx, tx, subscription); err != nil {
			return err
		}

		plan, err := s.planRepo.FindByID(ctx, tx, subscription.PlanID)
		if err != nil {
			return err
		}
		var oldValue *string
		var oldPrice *int64
		if plan != nil {
			oldValue = &plan.Name
			oldPrice = &plan.Price
		}
		if err := s.appendHistory(ctx, tx, subscription, membershipdomain.ActionCancelled,
			"Subscription cancelled: "+req.Reason, oldValue, nil, oldPrice, nil, actor, now, nil); err != nil {
			return err
		}

		cancelled = *subscription
		return nil
	})
	if err != nil {
		return membershipdomain.Subscription{}, err
	}

	s.log.Info("subscription cancelled",
		zap.String("user_id", userID.String()),
		zap.String("subscription_id", cancelled.ID.String()),
		zap.String("reason", req.Reason),
	)
	return cancelled, nil
}

func (s *Service) Renew(ctx context.Context, req membershipdomain.RenewRequest) (membershipdomain.Subscription, error) {
	userID, err := parseID(req.UserID, membershipdomain.ErrInvalidUser)
	if err != nil {
		return membershipdomain.Subscription{}, err
	}

	var renewed membershipdomain.Subscription
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.FindByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return membershipdomain.ErrInvalidUser
		}

		subscription, err := s.repo.FindLatestByUser(ctx, tx, userID)
		if err != nil {
			return err
		}
		if subscription == nil {
			return membershipdomain.ErrSubscriptionNotFound
		}

		actor := req.Actor
		if actor == "" {
			actor = user.Username
		}

		updated, err := s.renewTx(ctx, tx, subscription, actor)
		if err != nil {
			return err
		}
		renewed = *updated
		return nil
	})
	if err != nil {
		return membershipdomain.Subscription{}, err
	}
	return renewed, nil
}

func (s *Service) RenewSubscription(ctx context.Context, subscriptionID string, actor string) (membershipdomain.Subscription, error) {
	id, err := parseID(subscriptionID, membershipdomain.ErrInvalidSubscription)
	if err != nil {
		return membershipdomain.Subscription{}, err
	}

	var renewed membershipdomain.Subscription
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subscription, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if subscription == nil {
			return membershipdomain.ErrSubscriptionNotFound
		}

		updated, err := s.renewTx(ctx, tx, subscription, actor)
		if err != nil {
			return err
		}
		renewed = *updated
		return nil
	})
	if err != nil {
		return membershipdomain.Subscription{}, err
	}
	return renewed, nil
}

// renewTx extends the term by one plan duration from the current expiry,
// keeping recently lapsed terms contiguous. A term lapsed for longer than
// one duration restarts from now instead, so the new expiry is never in
// the past and an unexpired term is never shortened. Cancelled and Expired
// subscriptions come back to ACTIVE here.
func (s *Service) renewTx(ctx context.Context, tx *gorm.DB, subscription *membershipdomain.Subscription, actor string) (*membershipdomain.Subscription, error) {
	now := s.clock.Now()

	plan, err := s.planRepo.FindByID(ctx, tx, subscription.PlanID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		return nil, membershipdomain.ErrInvalidPlan
	}

	expiry := subscription.ExpiryAt.AddDate(0, plan.DurationMonths, 0)
	if !expiry.After(now) {
		expiry = now.AddDate(0, plan.DurationMonths, 0)
	}

	subscription.Status = membershipdomain.SubscriptionStatusActive
	subscription.ExpiryAt = expiry
	subscription.CancellationReason = nil
	subscription.CancelledBy = nil
	subscription.CancelledAt = nil
	subscription.UpdatedAt = now

	if err := s.repo.Update(ctx, tx, subscription); err != nil {
		return nil, err
	}

	if err := s.appendHistory(ctx, tx, subscription, membershipdomain.ActionRenewed,
		"Subscription renewed", &plan.Name, &plan.Name, &plan.Price, &plan.Price, actor, now, nil); err != nil {
		return nil, err
	}

	s.log.Info("subscription renewed",
		zap.String("subscription_id", subscription.ID.String()),
		zap.Time("expiry_at", subscription.ExpiryAt),
	)
	return subscription, nil
}

func (s *Service) ChangeTier(ctx context.Context, req membershipdomain.ChangeTierRequest) (membershipdomain.Subscription, error) {
	userID, err := parseID(req.UserID, membershipdomain.ErrInvalidUser)
	if err != nil {
		return membershipdomain.Subscription{}, err
	}
	tierID, err := parseID(req.TierID, membershipdomain.ErrInvalidTier)
	if err != nil {
		return membershipdomain.Subscription{}, err
	}

	now := s.clock.Now()
	var changed membershipdomain.Subscription

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		user, err := s.userRepo.FindByID(ctx, tx, userID)
		if err != nil {
			return err
		}
		if user == nil {
			return membershipdomain.ErrInvalidUser
		}

		newTier, err := s.tierRepo.FindByID(ctx, tx, tierID)
		if err != nil {
			return err
		}
		if newTier == nil {
			return membershipdomain.ErrInvalidTier
		}

		var action membershipdomain.SubscriptionAction
		switch req.Direction {
		case membershipdomain.DirectionUpgrade:
			if newTier.TierLevel <= user.CurrentTierLevel {
				return membershipdomain.ErrTierNotHigher
			}
			action = membershipdomain.ActionUpgraded
		case membershipdomain.DirectionDowngrade:
			if newTier.TierLevel >= user.CurrentTierLevel {
				return membershipdomain.ErrTierNotLower
			}
			action = membershipdomain.ActionDowngraded
		default:
			return membershipdomain.ErrInvalidDirection
		}

		oldTier, err := s.tierRepo.FindByLevel(ctx, tx, user.CurrentTierLevel)
		if err != nil {
			return err
		}

		if err := s.userRepo.UpdateTierLevel(ctx, tx, userID, newTier.TierLevel, now); err != nil {
			return err
		}

		subscription, err := s.repo.FindCurrentActive(ctx, tx, userID)
		if err != nil {
			return err
		}
		if subscription == nil {
			return membershipdomain.ErrSubscriptionNotFound
		}

		subscription.TierID = newTier.ID
		subscription.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, subscription); err != nil {
			return err
		}

		actor := req.Actor
		if actor == "" {
			actor = user.Username
		}

		oldName := ""
		if oldTier != nil {
			oldName = oldTier.Name
		}
		description := fmt.Sprintf("Tier changed from %s to %s", oldName, newTier.Name)
		metadata := map[string]any{
			"old_tier_level": user.CurrentTierLevel,
			"new_tier_level": newTier.TierLevel,
		}
		if err := s.appendHistory(ctx, tx, subscription, action,
			description, &oldName, &newTier.Name, nil, nil, actor, now, metadata); err != nil {
			return err
		}

		changed = *subscription
		return nil
	})
	if err != nil {
		return membershipdomain.Subscription{}, err
	}

	s.log.Info("tier changed",
		zap.String("user_id", userID.String()),
		zap.String("subscription_id", changed.ID.String()),
		zap.String("direction", string(req.Direction)),
	)
	return changed, nil
}

func (s *Service) Expire(ctx context.Context, subscriptionID string) (membershipdomain.Subscription, error) {
	id, err := parseID(subscriptionID, membershipdomain.ErrInvalidSubscription)
	if err != nil {
		return membershipdomain.Subscription{}, err
	}

	now := s.clock.Now()
	var expired membershipdomain.Subscription

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		subscription, err := s.repo.FindByID(ctx, tx, id)
		if err != nil {
			return err
		}
		if subscription == nil {
			return membershipdomain.ErrSubscriptionNotFound
		}
		if subscription.Status != membershipdomain.SubscriptionStatusActive {
			return membershipdomain.ErrSubscriptionNotActive
		}
		if !subscription.ExpiredAt(now) {
			return membershipdomain.ErrSubscriptionNotExpired
		}

		subscription.Status = membershipdomain.SubscriptionStatusExpired
		subscription.UpdatedAt = now
		if err := s.repo.Update(ctx, tx, subscription); err != nil {
			return err
		}

		plan, err := s.planRepo.FindByID(ctx, tx, subscription.PlanID)
		if err != nil {
			return err
		}
		var oldValue *string
		var oldPrice *int64
		if plan != nil {
			oldValue = &plan.Name
			oldPrice = &plan.Price
		}
		if err := s.appendHistory(ctx, tx, subscription, membershipdomain.ActionCancelled,
			"Subscription expired", oldValue, nil, oldPrice, nil, membershipdomain.ActorSystem, now, nil); err != nil {
			return err
		}

		expired = *subscription
		return nil
	})
	if err != nil {
		return membershipdomain.Subscription{}, err
	}

	s.log.Info("subscription expired",
		zap.String("subscription_id", expired.ID.String()),
	)
	return expired, nil
}

func (s *Service) GetCurrent(ctx context.Context, userID string) (membershipdomain.Subscription, error) {
	id, err := parseID(userID, membershipdomain.ErrInvalidUser)
	if err != nil {
		return membershipdomain.Subscription{}, err
	}

	subscription, err := s.repo.FindCurrentActive(ctx, s.db, id)
	if err != nil {
		return membershipdomain.Subscription{}, err
	}
	if subscription == nil {
		return membershipdomain.Subscription{}, membershipdomain.ErrSubscriptionNotFound
	}
	return *subscription, nil
}

func (s *Service) ListExpiring(ctx context.Context, at time.Time) ([]membershipdomain.Subscription, error) {
	return s.repo.FindActiveExpiring(ctx, s.db, at)
}

func (s *Service) History(ctx context.Context, req membershipdomain.HistoryRequest) (membershipdomain.HistoryResponse, error) {
	id, err := parseID(req.UserID, membershipdomain.ErrInvalidUser)
	if err != nil {
		return membershipdomain.HistoryResponse{}, err
	}

	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = 50
	}

	var before *time.Time
	if req.PageToken != "" {
		cursor, err := pagination.DecodeCursor(req.PageToken)
		if err != nil {
			return membershipdomain.HistoryResponse{}, err
		}
		if cursor.CreatedAt != "" {
			t, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
			if err != nil {
				return membershipdomain.HistoryResponse{}, err
			}
			before = &t
		}
	}

	entries, err := s.repo.ListHistoryByUser(ctx, s.db, id, pageSize+1, before)
	if err != nil {
		return membershipdomain.HistoryResponse{}, err
	}

	entries, pageInfo := pagination.BuildCursorPageInfo(entries, pageSize, func(entry membershipdomain.SubscriptionHistory) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{
			ID:        entry.ID.String(),
			CreatedAt: entry.PerformedAt.Format(time.RFC3339Nano),
		})
		return token
	})

	return membershipdomain.HistoryResponse{
		PageInfo: pageInfo,
		Entries:  entries,
	}, nil
}

func (s *Service) appendHistory(
	ctx context.Context,
	tx *gorm.DB,
	subscription *membershipdomain.Subscription,
	action membershipdomain.SubscriptionAction,
	description string,
	oldValue, newValue *string,
	oldPrice, newPrice *int64,
	actor string,
	at time.Time,
	metadata map[string]any,
) error {
	return s.repo.InsertHistory(ctx, tx, &membershipdomain.SubscriptionHistory{
		ID:             s.genID.Generate(),
		SubscriptionID: subscription.ID,
		UserID:         subscription.UserID,
		Action:         action,
		Description:    description,
		OldValue:       oldValue,
		NewValue:       newValue,
		OldPrice:       oldPrice,
		NewPrice:       newPrice,
		PerformedBy:    actor,
		PerformedAt:    at,
		Metadata:       datatypes.JSONMap(metadata),
	})
}

func parseID(raw string, invalid error) (snowflake.ID, error) {
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, invalid
	}
	return id, nil
}
