package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	userdomain "github.com/smallbiznis/tierway/internal/user/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() userdomain.Repository {
	return &repo{}
}

const userColumns = `id, username, email, status, current_tier_level, cohort, membership_start_at, last_tier_evaluation_at, created_at, updated_at`

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*userdomain.User, error) {
	var user userdomain.User
	err := db.WithContext(ctx).Raw(
		`SELECT `+userColumns+` FROM users WHERE id = ?`,
		id,
	).Scan(&user).Error
	if err != nil {
		return nil, err
	}
	if user.ID == 0 {
		return nil, nil
	}
	return &user, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]userdomain.User, error) {
	var users []userdomain.User
	err := db.WithContext(ctx).Raw(
		`SELECT ` + userColumns + ` FROM users ORDER BY id ASC`,
	).Scan(&users).Error
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (r *repo) UpdateTierLevel(ctx context.Context, db *gorm.DB, id snowflake.ID, level int, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE users SET current_tier_level = ?, updated_at = ? WHERE id = ?`,
		level,
		now,
		id,
	).Error
}

func (r *repo) UpdateMembershipStart(ctx context.Context, db *gorm.DB, id snowflake.ID, startAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE users SET membership_start_at = ?, updated_at = ? WHERE id = ? AND membership_start_at IS NULL`,
		startAt,
		startAt,
		id,
	).Error
}

func (r *repo) StampTierEvaluation(ctx context.Context, db *gorm.DB, id snowflake.ID, evaluatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE users SET last_tier_evaluation_at = ?, updated_at = ? WHERE id = ?`,
		evaluatedAt,
		evaluatedAt,
		id,
	).Error
}
