package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tierway/internal/clock"
	membershipdomain "github.com/smallbiznis/tierway/internal/membership/domain"
	tierdomain "github.com/smallbiznis/tierway/internal/tier/domain"
	tierupgradedomain "github.com/smallbiznis/tierway/internal/tierupgrade/domain"
	"github.com/smallbiznis/tierway/internal/tierupgrade/evaluation"
	userdomain "github.com/smallbiznis/tierway/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock

	userRepo       userdomain.Repository
	tierRepo       tierdomain.Repository
	ruleRepo       tierupgradedomain.Repository
	contextBuilder *evaluation.ContextBuilder
	ruleEngine     *evaluation.RuleEngine
	memberships    membershipdomain.Service
}

type ServiceParam struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock

	UserRepo       userdomain.Repository
	TierRepo       tierdomain.Repository
	RuleRepo       tierupgradedomain.Repository
	ContextBuilder *evaluation.ContextBuilder
	RuleEngine     *evaluation.RuleEngine
	Memberships    membershipdomain.Service
}

func NewService(p ServiceParam) tierupgradedomain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("tierupgrade.service"),
		clock: p.Clock,

		userRepo:       p.UserRepo,
		tierRepo:       p.TierRepo,
		ruleRepo:       p.RuleRepo,
		contextBuilder: p.ContextBuilder,
		ruleEngine:     p.RuleEngine,
		memberships:    p.Memberships,
	}
}

func (s *Service) Evaluate(ctx context.Context, userID string) ([]tierupgradedomain.EvaluationResult, error) {
	user, ectx, rules, err := s.prepare(ctx, userID)
	if err != nil {
		return nil, err
	}

	best := s.ruleEngine.FindBestApplicableRule(rules, ectx)
	if best == nil {
		s.log.Info("no applicable upgrade rules",
			zap.String("user_id", user.ID.String()),
		)
		return []tierupgradedomain.EvaluationResult{}, nil
	}
	return s.ruleEngine.EvaluateRule(*best, ectx), nil
}

func (s *Service) DetailedResults(ctx context.Context, userID string) ([]tierupgradedomain.EvaluationResult, error) {
	_, ectx, rules, err := s.prepare(ctx, userID)
	if err != nil {
		return nil, err
	}

	results := []tierupgradedomain.EvaluationResult{}
	for _, rule := range rules {
		results = append(results, s.ruleEngine.EvaluateRule(rule, ectx)...)
	}
	return results, nil
}

func (s *Service) ApplicableRules(ctx context.Context, userID string) ([]tierupgradedomain.RuleDefinition, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return nil, err
	}

	user, err := s.userRepo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, tierupgradedomain.ErrInvalidUser
	}

	return s.applicableRules(ctx, *user)
}

func (s *Service) BestApplicableRule(ctx context.Context, userID string) (*tierupgradedomain.RuleDefinition, error) {
	_, ectx, rules, err := s.prepare(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.ruleEngine.FindBestApplicableRule(rules, ectx), nil
}

func (s *Service) IsEligibleForUpgrade(ctx context.Context, userID string) (bool, error) {
	best, err := s.BestApplicableRule(ctx, userID)
	if err != nil {
		return false, err
	}
	return best != nil, nil
}

func (s *Service) ProcessAutomaticUpgrades(ctx context.Context, userID string) (bool, error) {
	user, ectx, rules, err := s.prepare(ctx, userID)
	if err != nil {
		return false, err
	}

	best := s.ruleEngine.FindBestApplicableRule(rules, ectx)
	if best == nil || !best.AutoUpgrade {
		s.log.Info("no automatic upgrade available",
			zap.String("user_id", user.ID.String()),
		)
		return false, nil
	}

	targetTier, err := s.tierRepo.FindByLevel(ctx, s.db, best.TargetTierLevel)
	if err != nil {
		return false, err
	}
	if targetTier == nil {
		return false, membershipdomain.ErrInvalidTier
	}

	if _, err := s.memberships.ChangeTier(ctx, membershipdomain.ChangeTierRequest{
		UserID:    user.ID.String(),
		TierID:    targetTier.ID.String(),
		Direction: membershipdomain.DirectionUpgrade,
		Actor:     membershipdomain.ActorSystem,
	}); err != nil {
		return false, err
	}

	if err := s.userRepo.StampTierEvaluation(ctx, s.db, user.ID, s.clock.Now()); err != nil {
		return false, err
	}

	s.log.Info("user auto-upgraded",
		zap.String("user_id", user.ID.String()),
		zap.String("rule", best.RuleName),
		zap.Int("target_tier_level", best.TargetTierLevel),
	)
	return true, nil
}

// prepare loads the user, builds the evaluation context and lists the rules
// applicable to the user's current tier.
func (s *Service) prepare(ctx context.Context, userID string) (userdomain.User, tierupgradedomain.EvaluationContext, []tierupgradedomain.RuleDefinition, error) {
	id, err := parseUserID(userID)
	if err != nil {
		return userdomain.User{}, tierupgradedomain.EvaluationContext{}, nil, err
	}

	user, err := s.userRepo.FindByID(ctx, s.db, id)
	if err != nil {
		return userdomain.User{}, tierupgradedomain.EvaluationContext{}, nil, err
	}
	if user == nil {
		return userdomain.User{}, tierupgradedomain.EvaluationContext{}, nil, tierupgradedomain.ErrInvalidUser
	}

	ectx, err := s.contextBuilder.Build(ctx, s.db, *user)
	if err != nil {
		return userdomain.User{}, tierupgradedomain.EvaluationContext{}, nil, err
	}

	rules, err := s.applicableRules(ctx, *user)
	if err != nil {
		return userdomain.User{}, tierupgradedomain.EvaluationContext{}, nil, err
	}
	return *user, ectx, rules, nil
}

func (s *Service) applicableRules(ctx context.Context, user userdomain.User) ([]tierupgradedomain.RuleDefinition, error) {
	rules, err := s.ruleRepo.FindActiveBySourceTier(ctx, s.db, user.CurrentTierLevel)
	if err != nil {
		return nil, err
	}

	definitions := make([]tierupgradedomain.RuleDefinition, 0, len(rules))
	for _, rule := range rules {
		definitions = append(definitions, rule.Definition())
	}
	return definitions, nil
}

func parseUserID(raw string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(raw)
	if err != nil {
		return 0, tierupgradedomain.ErrInvalidUser
	}
	return id, nil
}
