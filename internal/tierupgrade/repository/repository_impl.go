package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	tierupgradedomain "github.com/smallbiznis/tierway/internal/tierupgrade/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() tierupgradedomain.Repository {
	return &repo{}
}

const ruleColumns = `id, rule_name, rule_description, source_tier_level, target_tier_level,
	min_orders_required, min_monthly_order_value, cohort_restriction, auto_upgrade, active,
	created_at, updated_at`

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*tierupgradedomain.TierUpgradeRule, error) {
	var rule tierupgradedomain.TierUpgradeRule
	err := db.WithContext(ctx).Raw(
		`SELECT `+ruleColumns+` FROM tier_upgrade_rules WHERE id = ?`,
		id,
	).Scan(&rule).Error
	if err != nil {
		return nil, err
	}
	if rule.ID == 0 {
		return nil, nil
	}
	return &rule, nil
}

func (r *repo) FindActiveBySourceTier(ctx context.Context, db *gorm.DB, sourceTierLevel int) ([]tierupgradedomain.TierUpgradeRule, error) {
	var rules []tierupgradedomain.TierUpgradeRule
	err := db.WithContext(ctx).Raw(
		`SELECT `+ruleColumns+` FROM tier_upgrade_rules
		 WHERE source_tier_level = ? AND active = ?
		 ORDER BY target_tier_level ASC, id ASC`,
		sourceTierLevel,
		true,
	).Scan(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]tierupgradedomain.TierUpgradeRule, error) {
	var rules []tierupgradedomain.TierUpgradeRule
	err := db.WithContext(ctx).Raw(
		`SELECT ` + ruleColumns + ` FROM tier_upgrade_rules ORDER BY source_tier_level ASC, target_tier_level ASC`,
	).Scan(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}
