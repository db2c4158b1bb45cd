package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	plandomain "github.com/smallbiznis/tierway/internal/plan/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo plandomain.Repository
}

type ServiceParam struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo plandomain.Repository
}

func NewService(p ServiceParam) plandomain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("plan.service"),
		repo: p.Repo,
	}
}

func (s *Service) List(ctx context.Context, req plandomain.ListPlansRequest) ([]plandomain.MembershipPlan, error) {
	if req.DiscountsOnly {
		return s.repo.ListWithDiscounts(ctx, s.db)
	}
	return s.repo.ListActive(ctx, s.db)
}

func (s *Service) ListForTier(ctx context.Context, tierLevel int) ([]plandomain.MembershipPlan, error) {
	return s.repo.ListApplicableForTier(ctx, s.db, tierLevel)
}

func (s *Service) Get(ctx context.Context, id string) (plandomain.MembershipPlan, error) {
	planID, err := snowflake.ParseString(id)
	if err != nil {
		return plandomain.MembershipPlan{}, plandomain.ErrPlanNotFound
	}

	plan, err := s.repo.FindByID(ctx, s.db, planID)
	if err != nil {
		return plandomain.MembershipPlan{}, err
	}
	if plan == nil {
		return plandomain.MembershipPlan{}, plandomain.ErrPlanNotFound
	}
	return *plan, nil
}
