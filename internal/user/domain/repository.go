package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*User, error)
	List(ctx context.Context, db *gorm.DB) ([]User, error)
	UpdateTierLevel(ctx context.Context, db *gorm.DB, id snowflake.ID, level int, now time.Time) error
	UpdateMembershipStart(ctx context.Context, db *gorm.DB, id snowflake.ID, startAt time.Time) error
	StampTierEvaluation(ctx context.Context, db *gorm.DB, id snowflake.ID, evaluatedAt time.Time) error
}
