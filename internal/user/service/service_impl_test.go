package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	membershipdomain "github.com/smallbiznis/tierway/internal/membership/domain"
	membershiprepository "github.com/smallbiznis/tierway/internal/membership/repository"
	tierdomain "github.com/smallbiznis/tierway/internal/tier/domain"
	tierrepository "github.com/smallbiznis/tierway/internal/tier/repository"
	userdomain "github.com/smallbiznis/tierway/internal/user/domain"
	userrepository "github.com/smallbiznis/tierway/internal/user/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newUserFixture(t *testing.T) (*gorm.DB, *snowflake.Node, userdomain.Service) {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&userdomain.User{},
		&tierdomain.MembershipTier{},
		&membershipdomain.Subscription{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := NewService(ServiceParam{
		DB:  db,
		Log: zap.NewNop(),

		Repo:           userrepository.Provide(),
		TierRepo:       tierrepository.Provide(),
		MembershipRepo: membershiprepository.Provide(),
	})
	return db, node, svc
}

func TestMembershipStatus(t *testing.T) {
	db, node, svc := newUserFixture(t)

	user := userdomain.User{
		ID:               node.Generate(),
		Username:         "alice",
		Email:            "alice@example.com",
		Status:           userdomain.UserStatusActive,
		CurrentTierLevel: 2,
	}
	require.NoError(t, db.Create(&user).Error)

	gold := tierdomain.MembershipTier{ID: node.Generate(), Name: "Gold", TierLevel: 2, Active: true}
	require.NoError(t, db.Create(&gold).Error)

	now := time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)
	subscription := membershipdomain.Subscription{
		ID:          node.Generate(),
		UserID:      user.ID,
		PlanID:      node.Generate(),
		TierID:      gold.ID,
		Status:      membershipdomain.SubscriptionStatusActive,
		StartAt:     now,
		ExpiryAt:    now.AddDate(0, 1, 0),
		ActualPrice: 3999,
		AutoRenewal: true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	require.NoError(t, db.Create(&subscription).Error)

	status, err := svc.MembershipStatus(context.Background(), user.ID.String())
	require.NoError(t, err)
	assert.Equal(t, user.ID, status.User.ID)
	assert.Equal(t, "Gold", status.TierName)
	require.NotNil(t, status.ActiveSubscription)
	assert.Equal(t, subscription.ID, status.ActiveSubscription.ID)
}

func TestMembershipStatus_NoActiveSubscription(t *testing.T) {
	db, node, svc := newUserFixture(t)

	user := userdomain.User{
		ID:               node.Generate(),
		Username:         "bob",
		Email:            "bob@example.com",
		Status:           userdomain.UserStatusActive,
		CurrentTierLevel: 1,
	}
	require.NoError(t, db.Create(&user).Error)

	status, err := svc.MembershipStatus(context.Background(), user.ID.String())
	require.NoError(t, err)
	assert.Empty(t, status.TierName)
	assert.Nil(t, status.ActiveSubscription)
}

func TestGetUser_NotFound(t *testing.T) {
	_, node, svc := newUserFixture(t)

	_, err := svc.Get(context.Background(), node.Generate().String())
	assert.ErrorIs(t, err, userdomain.ErrUserNotFound)

	_, err = svc.Get(context.Background(), "not-an-id")
	assert.ErrorIs(t, err, userdomain.ErrUserNotFound)
}
