package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*TierUpgradeRule, error)
	// FindActiveBySourceTier lists active rules whose source matches the
	// given tier level.
	FindActiveBySourceTier(ctx context.Context, db *gorm.DB, sourceTierLevel int) ([]TierUpgradeRule, error)
	List(ctx context.Context, db *gorm.DB) ([]TierUpgradeRule, error)
}
