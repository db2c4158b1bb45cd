package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	plandomain "github.com/smallbiznis/tierway/internal/plan/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() plandomain.Repository {
	return &repo{}
}

const planColumns = `id, name, description, duration_months, price, discount_percentage, max_tier_level, active, created_at, updated_at`

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*plandomain.MembershipPlan, error) {
	var plan plandomain.MembershipPlan
	err := db.WithContext(ctx).Raw(
		`SELECT `+planColumns+` FROM membership_plans WHERE id = ?`,
		id,
	).Scan(&plan).Error
	if err != nil {
		return nil, err
	}
	if plan.ID == 0 {
		return nil, nil
	}
	return &plan, nil
}

func (r *repo) ListActive(ctx context.Context, db *gorm.DB) ([]plandomain.MembershipPlan, error) {
	var plans []plandomain.MembershipPlan
	err := db.WithContext(ctx).Raw(
		`SELECT ` + planColumns + ` FROM membership_plans WHERE active ORDER BY duration_months ASC, price ASC`,
	).Scan(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repo) ListWithDiscounts(ctx context.Context, db *gorm.DB) ([]plandomain.MembershipPlan, error) {
	var plans []plandomain.MembershipPlan
	err := db.WithContext(ctx).Raw(
		`SELECT ` + planColumns + ` FROM membership_plans
		 WHERE active AND discount_percentage > 0
		 ORDER BY discount_percentage DESC, price ASC`,
	).Scan(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}

func (r *repo) ListApplicableForTier(ctx context.Context, db *gorm.DB, tierLevel int) ([]plandomain.MembershipPlan, error) {
	var plans []plandomain.MembershipPlan
	err := db.WithContext(ctx).Raw(
		`SELECT `+planColumns+` FROM membership_plans
		 WHERE active AND (max_tier_level IS NULL OR max_tier_level >= ?)
		 ORDER BY duration_months ASC, price ASC`,
		tierLevel,
	).Scan(&plans).Error
	if err != nil {
		return nil, err
	}
	return plans, nil
}
