package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	tierdomain "github.com/smallbiznis/tierway/internal/tier/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() tierdomain.Repository {
	return &repo{}
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*tierdomain.MembershipTier, error) {
	var tier tierdomain.MembershipTier
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, tier_level, discount_percentage, active, created_at, updated_at
		 FROM membership_tiers WHERE id = ?`,
		id,
	).Scan(&tier).Error
	if err != nil {
		return nil, err
	}
	if tier.ID == 0 {
		return nil, nil
	}
	return &tier, nil
}

func (r *repo) FindByLevel(ctx context.Context, db *gorm.DB, level int) (*tierdomain.MembershipTier, error) {
	var tier tierdomain.MembershipTier
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, tier_level, discount_percentage, active, created_at, updated_at
		 FROM membership_tiers WHERE tier_level = ?`,
		level,
	).Scan(&tier).Error
	if err != nil {
		return nil, err
	}
	if tier.ID == 0 {
		return nil, nil
	}
	return &tier, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]tierdomain.MembershipTier, error) {
	var tiers []tierdomain.MembershipTier
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, tier_level, discount_percentage, active, created_at, updated_at
		 FROM membership_tiers ORDER BY tier_level ASC`,
	).Scan(&tiers).Error
	if err != nil {
		return nil, err
	}
	return tiers, nil
}
