package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	FindByUserIDAndStatus(ctx context.Context, db *gorm.DB, userID snowflake.ID, status OrderStatus) ([]Order, error)
}
