package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	membershipdomain "github.com/smallbiznis/tierway/internal/membership/domain"
	tierdomain "github.com/smallbiznis/tierway/internal/tier/domain"
	userdomain "github.com/smallbiznis/tierway/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Service exposes read-side user projections. All writes to users happen
// through the membership lifecycle, never here.
type Service struct {
	db  *gorm.DB
	log *zap.Logger

	repo           userdomain.Repository
	tierRepo       tierdomain.Repository
	membershipRepo membershipdomain.Repository
}

type ServiceParam struct {
	fx.In

	DB  *gorm.DB
	Log *zap.Logger

	Repo           userdomain.Repository
	TierRepo       tierdomain.Repository
	MembershipRepo membershipdomain.Repository
}

func NewService(p ServiceParam) userdomain.Service {
	return &Service{
		db:  p.DB,
		log: p.Log.Named("user.service"),

		repo:           p.Repo,
		tierRepo:       p.TierRepo,
		membershipRepo: p.MembershipRepo,
	}
}

func (s *Service) Get(ctx context.Context, userID string) (userdomain.User, error) {
	user, err := s.find(ctx, userID)
	if err != nil {
		return userdomain.User{}, err
	}
	return *user, nil
}

func (s *Service) MembershipStatus(ctx context.Context, userID string) (userdomain.MembershipStatus, error) {
	user, err := s.find(ctx, userID)
	if err != nil {
		return userdomain.MembershipStatus{}, err
	}

	status := userdomain.MembershipStatus{User: *user}

	tier, err := s.tierRepo.FindByLevel(ctx, s.db, user.CurrentTierLevel)
	if err != nil {
		return userdomain.MembershipStatus{}, err
	}
	if tier != nil {
		status.TierName = tier.Name
	}

	subscription, err := s.membershipRepo.FindCurrentActive(ctx, s.db, user.ID)
	if err != nil {
		return userdomain.MembershipStatus{}, err
	}
	status.ActiveSubscription = subscription

	return status, nil
}

func (s *Service) find(ctx context.Context, userID string) (*userdomain.User, error) {
	id, err := snowflake.ParseString(userID)
	if err != nil {
		return nil, userdomain.ErrUserNotFound
	}

	user, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, userdomain.ErrUserNotFound
	}
	return user, nil
}
