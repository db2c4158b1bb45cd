package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*MembershipPlan, error)
	ListActive(ctx context.Context, db *gorm.DB) ([]MembershipPlan, error)
	ListWithDiscounts(ctx context.Context, db *gorm.DB) ([]MembershipPlan, error)
	ListApplicableForTier(ctx context.Context, db *gorm.DB, tierLevel int) ([]MembershipPlan, error)
}
