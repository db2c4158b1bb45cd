package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*MembershipTier, error)
	FindByLevel(ctx context.Context, db *gorm.DB, level int) (*MembershipTier, error)
	List(ctx context.Context, db *gorm.DB) ([]MembershipTier, error)
}
