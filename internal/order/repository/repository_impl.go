package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	orderdomain "github.com/smallbiznis/tierway/internal/order/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() orderdomain.Repository {
	return &repo{}
}

func (r *repo) FindByUserIDAndStatus(ctx context.Context, db *gorm.DB, userID snowflake.ID, status orderdomain.OrderStatus) ([]orderdomain.Order, error) {
	var orders []orderdomain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT id, user_id, status, total_amount, discount_amount, final_amount, currency, created_at, updated_at
		 FROM orders
		 WHERE user_id = ? AND status = ?
		 ORDER BY created_at ASC`,
		userID,
		status,
	).Scan(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}
