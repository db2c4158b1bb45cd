package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/tierway/internal/clock"
	membershipdomain "github.com/smallbiznis/tierway/internal/membership/domain"
	orderdomain "github.com/smallbiznis/tierway/internal/order/domain"
	orderrepository "github.com/smallbiznis/tierway/internal/order/repository"
	tierdomain "github.com/smallbiznis/tierway/internal/tier/domain"
	tierrepository "github.com/smallbiznis/tierway/internal/tier/repository"
	tierupgradedomain "github.com/smallbiznis/tierway/internal/tierupgrade/domain"
	"github.com/smallbiznis/tierway/internal/tierupgrade/evaluation"
	tierupgraderepository "github.com/smallbiznis/tierway/internal/tierupgrade/repository"
	userdomain "github.com/smallbiznis/tierway/internal/user/domain"
	userrepository "github.com/smallbiznis/tierway/internal/user/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// mockMembershipSvc records tier changes instead of running the full
// lifecycle.
type mockMembershipSvc struct {
	membershipdomain.Service

	changeTierFunc func(ctx context.Context, req membershipdomain.ChangeTierRequest) (membershipdomain.Subscription, error)
	changeTierReqs []membershipdomain.ChangeTierRequest
}

func (m *mockMembershipSvc) ChangeTier(ctx context.Context, req membershipdomain.ChangeTierRequest) (membershipdomain.Subscription, error) {
	m.changeTierReqs = append(m.changeTierReqs, req)
	if m.changeTierFunc != nil {
		return m.changeTierFunc(ctx, req)
	}
	return membershipdomain.Subscription{}, nil
}

type upgradeFixture struct {
	db          *gorm.DB
	node        *snowflake.Node
	clock       *clock.FakeClock
	memberships *mockMembershipSvc
	svc         tierupgradedomain.Service

	user userdomain.User
	gold tierdomain.MembershipTier
}

func newUpgradeFixture(t *testing.T) *upgradeFixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&userdomain.User{},
		&orderdomain.Order{},
		&tierdomain.MembershipTier{},
		&tierupgradedomain.TierUpgradeRule{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fakeClock := clock.NewFakeClock(time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC))
	log := zap.NewNop()

	memberships := &mockMembershipSvc{}
	orderRepo := orderrepository.Provide()

	f := &upgradeFixture{
		db:          db,
		node:        node,
		clock:       fakeClock,
		memberships: memberships,
	}
	f.svc = NewService(ServiceParam{
		DB:    db,
		Log:   log,
		Clock: fakeClock,

		UserRepo: userrepository.Provide(),
		TierRepo: tierrepository.Provide(),
		RuleRepo: tierupgraderepository.Provide(),
		ContextBuilder: evaluation.NewContextBuilder(evaluation.ContextBuilderParam{
			Log:       log,
			Clock:     fakeClock,
			OrderRepo: orderRepo,
		}),
		RuleEngine: evaluation.NewRuleEngine(evaluation.RuleEngineParam{
			Log:        log,
			Evaluators: evaluation.Evaluators(),
		}),
		Memberships: memberships,
	})

	f.user = userdomain.User{
		ID:               node.Generate(),
		Username:         "alice",
		Email:            "alice@example.com",
		Status:           userdomain.UserStatusActive,
		CurrentTierLevel: 1,
	}
	require.NoError(t, db.Create(&f.user).Error)

	f.gold = tierdomain.MembershipTier{ID: node.Generate(), Name: "Gold", TierLevel: 2, Active: true}
	require.NoError(t, db.Create(&f.gold).Error)

	return f
}

func (f *upgradeFixture) addRule(t *testing.T, name string, target int, minOrders int, auto bool) {
	t.Helper()
	rule := tierupgradedomain.TierUpgradeRule{
		ID:                f.node.Generate(),
		RuleName:          name,
		SourceTierLevel:   1,
		TargetTierLevel:   target,
		MinOrdersRequired: &minOrders,
		AutoUpgrade:       auto,
		Active:            true,
	}
	require.NoError(t, f.db.Create(&rule).Error)
}

func (f *upgradeFixture) addCompletedOrders(t *testing.T, count int, amount int64) {
	t.Helper()
	for i := 0; i < count; i++ {
		order := orderdomain.Order{
			ID:          f.node.Generate(),
			UserID:      f.user.ID,
			Status:      orderdomain.OrderStatusCompleted,
			TotalAmount: amount,
			Currency:    "USD",
			CreatedAt:   f.clock.Now().Add(-time.Hour),
		}
		require.NoError(t, f.db.Create(&order).Error)
	}
}

func (f *upgradeFixture) reloadUser(t *testing.T) userdomain.User {
	t.Helper()
	var user userdomain.User
	require.NoError(t, f.db.First(&user, "id = ?", f.user.ID).Error)
	return user
}

func TestProcessAutomaticUpgrades(t *testing.T) {
	f := newUpgradeFixture(t)
	f.addRule(t, "silver-to-gold", 2, 5, true)
	f.addCompletedOrders(t, 5, 4000)

	changed, err := f.svc.ProcessAutomaticUpgrades(context.Background(), f.user.ID.String())
	require.NoError(t, err)
	assert.True(t, changed)

	require.Len(t, f.memberships.changeTierReqs, 1)
	req := f.memberships.changeTierReqs[0]
	assert.Equal(t, f.user.ID.String(), req.UserID)
	assert.Equal(t, f.gold.ID.String(), req.TierID)
	assert.Equal(t, membershipdomain.DirectionUpgrade, req.Direction)
	assert.Equal(t, membershipdomain.ActorSystem, req.Actor)

	user := f.reloadUser(t)
	require.NotNil(t, user.LastTierEvaluationAt)
	assert.True(t, user.LastTierEvaluationAt.Equal(f.clock.Now()))
}

func TestProcessAutomaticUpgrades_SecondCallIsNoOp(t *testing.T) {
	f := newUpgradeFixture(t)
	f.addRule(t, "silver-to-gold", 2, 5, true)
	f.addCompletedOrders(t, 5, 4000)

	// The lifecycle moves the user's tier level on upgrade; mirror that
	// here so the second call sees the post-upgrade state.
	f.memberships.changeTierFunc = func(ctx context.Context, req membershipdomain.ChangeTierRequest) (membershipdomain.Subscription, error) {
		err := f.db.Exec("UPDATE users SET current_tier_level = 2 WHERE id = ?", f.user.ID).Error
		return membershipdomain.Subscription{}, err
	}

	changed, err := f.svc.ProcessAutomaticUpgrades(context.Background(), f.user.ID.String())
	require.NoError(t, err)
	assert.True(t, changed)

	changed, err = f.svc.ProcessAutomaticUpgrades(context.Background(), f.user.ID.String())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Len(t, f.memberships.changeTierReqs, 1)
}

func TestProcessAutomaticUpgrades_BestRuleNotAutomatic(t *testing.T) {
	f := newUpgradeFixture(t)
	f.addRule(t, "silver-to-gold-manual", 2, 5, false)
	f.addCompletedOrders(t, 5, 4000)

	changed, err := f.svc.ProcessAutomaticUpgrades(context.Background(), f.user.ID.String())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, f.memberships.changeTierReqs)

	user := f.reloadUser(t)
	assert.Nil(t, user.LastTierEvaluationAt)
}

func TestProcessAutomaticUpgrades_NotEligible(t *testing.T) {
	f := newUpgradeFixture(t)
	f.addRule(t, "silver-to-gold", 2, 5, true)
	f.addCompletedOrders(t, 2, 4000)

	changed, err := f.svc.ProcessAutomaticUpgrades(context.Background(), f.user.ID.String())
	require.NoError(t, err)
	assert.False(t, changed)
	assert.Empty(t, f.memberships.changeTierReqs)
}

func TestProcessAutomaticUpgrades_ChangeTierFailureNotStamped(t *testing.T) {
	f := newUpgradeFixture(t)
	f.addRule(t, "silver-to-gold", 2, 5, true)
	f.addCompletedOrders(t, 5, 4000)

	f.memberships.changeTierFunc = func(ctx context.Context, req membershipdomain.ChangeTierRequest) (membershipdomain.Subscription, error) {
		return membershipdomain.Subscription{}, membershipdomain.ErrSubscriptionNotFound
	}

	changed, err := f.svc.ProcessAutomaticUpgrades(context.Background(), f.user.ID.String())
	assert.ErrorIs(t, err, membershipdomain.ErrSubscriptionNotFound)
	assert.False(t, changed)

	user := f.reloadUser(t)
	assert.Nil(t, user.LastTierEvaluationAt)
}

func TestEvaluate_ReturnsBestRuleResults(t *testing.T) {
	f := newUpgradeFixture(t)
	f.addRule(t, "silver-to-gold", 2, 5, true)
	f.addCompletedOrders(t, 6, 4000)

	results, err := f.svc.Evaluate(context.Background(), f.user.ID.String())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Passed)
	assert.Equal(t, tierupgradedomain.CriteriaOrderCount, results[0].CriteriaType)
}

func TestEvaluate_NoApplicableRules(t *testing.T) {
	f := newUpgradeFixture(t)

	results, err := f.svc.Evaluate(context.Background(), f.user.ID.String())
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestDetailedResults_CoversEveryRule(t *testing.T) {
	f := newUpgradeFixture(t)
	f.addRule(t, "silver-to-gold", 2, 5, true)
	f.addRule(t, "silver-to-platinum", 3, 50, false)
	f.addCompletedOrders(t, 6, 4000)

	results, err := f.svc.DetailedResults(context.Background(), f.user.ID.String())
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Passed)
	assert.False(t, results[1].Passed)
}

func TestBestApplicableRule_PrefersHigherTarget(t *testing.T) {
	f := newUpgradeFixture(t)
	f.addRule(t, "silver-to-gold", 2, 5, true)
	f.addRule(t, "silver-to-platinum", 3, 10, false)
	f.addCompletedOrders(t, 12, 4000)

	best, err := f.svc.BestApplicableRule(context.Background(), f.user.ID.String())
	require.NoError(t, err)
	require.NotNil(t, best)
	assert.Equal(t, "silver-to-platinum", best.RuleName)

	eligible, err := f.svc.IsEligibleForUpgrade(context.Background(), f.user.ID.String())
	require.NoError(t, err)
	assert.True(t, eligible)
}

func TestTierUpgrade_UnknownUser(t *testing.T) {
	f := newUpgradeFixture(t)

	_, err := f.svc.Evaluate(context.Background(), f.node.Generate().String())
	assert.ErrorIs(t, err, tierupgradedomain.ErrInvalidUser)

	_, err = f.svc.ProcessAutomaticUpgrades(context.Background(), "not-an-id")
	assert.ErrorIs(t, err, tierupgradedomain.ErrInvalidUser)
}
