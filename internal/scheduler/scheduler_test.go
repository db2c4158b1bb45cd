package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/tierway/internal/clock"
	"github.com/smallbiznis/tierway/internal/config"
	membershipdomain "github.com/smallbiznis/tierway/internal/membership/domain"
	obsmetrics "github.com/smallbiznis/tierway/internal/observability/metrics"
	tierupgradedomain "github.com/smallbiznis/tierway/internal/tierupgrade/domain"
	userdomain "github.com/smallbiznis/tierway/internal/user/domain"
	userrepository "github.com/smallbiznis/tierway/internal/user/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// mockTierUpgradeSvc stubs the upgrade pipeline; only the method the
// scheduler calls is wired.
type mockTierUpgradeSvc struct {
	tierupgradedomain.Service

	processFunc  func(ctx context.Context, userID string) (bool, error)
	processCalls []string
}

func (m *mockTierUpgradeSvc) ProcessAutomaticUpgrades(ctx context.Context, userID string) (bool, error) {
	m.processCalls = append(m.processCalls, userID)
	if m.processFunc != nil {
		return m.processFunc(ctx, userID)
	}
	return false, nil
}

type mockMembershipSvc struct {
	membershipdomain.Service

	expiring   []membershipdomain.Subscription
	renewFunc  func(ctx context.Context, subscriptionID string, actor string) (membershipdomain.Subscription, error)
	expireFunc func(ctx context.Context, subscriptionID string) (membershipdomain.Subscription, error)

	renewCalls  []string
	expireCalls []string
}

func (m *mockMembershipSvc) ListExpiring(ctx context.Context, at time.Time) ([]membershipdomain.Subscription, error) {
	return m.expiring, nil
}

func (m *mockMembershipSvc) RenewSubscription(ctx context.Context, subscriptionID string, actor string) (membershipdomain.Subscription, error) {
	m.renewCalls = append(m.renewCalls, subscriptionID)
	if m.renewFunc != nil {
		return m.renewFunc(ctx, subscriptionID, actor)
	}
	return membershipdomain.Subscription{}, nil
}

func (m *mockMembershipSvc) Expire(ctx context.Context, subscriptionID string) (membershipdomain.Subscription, error) {
	m.expireCalls = append(m.expireCalls, subscriptionID)
	if m.expireFunc != nil {
		return m.expireFunc(ctx, subscriptionID)
	}
	return membershipdomain.Subscription{}, nil
}

type schedulerFixture struct {
	db          *gorm.DB
	node        *snowflake.Node
	clock       *clock.FakeClock
	upgrades    *mockTierUpgradeSvc
	memberships *mockMembershipSvc
}

func newSchedulerFixture(t *testing.T, cfg Config) (*Scheduler, *schedulerFixture) {
	t.Helper()
	obsmetrics.ResetSchedulerMetricsForTest()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&userdomain.User{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)
	fakeClock := clock.NewFakeClock(time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC))

	f := &schedulerFixture{
		db:          db,
		node:        node,
		clock:       fakeClock,
		upgrades:    &mockTierUpgradeSvc{},
		memberships: &mockMembershipSvc{},
	}

	s, err := New(Params{
		DB:    db,
		Log:   zap.NewNop(),
		GenID: node,
		Clock: fakeClock,

		UserRepo:       userrepository.Provide(),
		TierUpgradeSvc: f.upgrades,
		MembershipSvc:  f.memberships,
		PolicyHolder: config.NewStaticEvaluationPolicyHolder(config.EvaluationPolicy{
			EvaluationIntervalDays: 30,
			MinMembershipDays:      30,
		}),

		Config: cfg,
	})
	require.NoError(t, err)
	return s, f
}

func (f *schedulerFixture) addUser(t *testing.T, username string, memberSince, lastEvaluated *time.Time) userdomain.User {
	t.Helper()
	user := userdomain.User{
		ID:                   f.node.Generate(),
		Username:             username,
		Email:                username + "@example.com",
		Status:               userdomain.UserStatusActive,
		CurrentTierLevel:     1,
		MembershipStartAt:    memberSince,
		LastTierEvaluationAt: lastEvaluated,
	}
	require.NoError(t, f.db.Create(&user).Error)
	return user
}

func timeptr(t time.Time) *time.Time { return &t }

func TestNew_MissingDependency(t *testing.T) {
	_, err := New(Params{})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestShouldEvaluate(t *testing.T) {
	policy := config.EvaluationPolicy{EvaluationIntervalDays: 30, MinMembershipDays: 30}
	now := time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

	// Never a member: skip.
	assert.False(t, shouldEvaluate(userdomain.User{}, now, policy))

	// Never evaluated: the minimum membership duration gates the first run.
	assert.False(t, shouldEvaluate(userdomain.User{
		MembershipStartAt: timeptr(now.Add(-29 * 24 * time.Hour)),
	}, now, policy))
	assert.True(t, shouldEvaluate(userdomain.User{
		MembershipStartAt: timeptr(now.Add(-30 * 24 * time.Hour)),
	}, now, policy))

	// Evaluated before: the interval gates re-evaluation, even for
	// long-standing members.
	assert.False(t, shouldEvaluate(userdomain.User{
		MembershipStartAt:    timeptr(now.Add(-365 * 24 * time.Hour)),
		LastTierEvaluationAt: timeptr(now.Add(-29 * 24 * time.Hour)),
	}, now, policy))
	assert.True(t, shouldEvaluate(userdomain.User{
		MembershipStartAt:    timeptr(now.Add(-365 * 24 * time.Hour)),
		LastTierEvaluationAt: timeptr(now.Add(-30 * 24 * time.Hour)),
	}, now, policy))
}

func TestRunTierReevaluation(t *testing.T) {
	s, f := newSchedulerFixture(t, DefaultConfig())
	now := f.clock.Now()

	due := f.addUser(t, "due", timeptr(now.Add(-40*24*time.Hour)), nil)
	f.addUser(t, "fresh", timeptr(now.Add(-2*24*time.Hour)), nil)
	f.addUser(t, "never-member", nil, nil)

	f.upgrades.processFunc = func(ctx context.Context, userID string) (bool, error) {
		return true, nil
	}

	report, err := s.RunTierReevaluation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Evaluated)
	assert.Equal(t, 1, report.Upgraded)
	require.Len(t, f.upgrades.processCalls, 1)
	assert.Equal(t, due.ID.String(), f.upgrades.processCalls[0])
}

func TestRunTierReevaluation_BatchSizeCapsRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EvaluationBatchSize = 2
	s, f := newSchedulerFixture(t, cfg)
	now := f.clock.Now()

	for _, name := range []string{"u1", "u2", "u3"} {
		f.addUser(t, name, timeptr(now.Add(-40*24*time.Hour)), nil)
	}

	report, err := s.RunTierReevaluation(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Evaluated)
	assert.Len(t, f.upgrades.processCalls, 2)
}

func TestRunTierReevaluation_OneFailureDoesNotStopTheBatch(t *testing.T) {
	s, f := newSchedulerFixture(t, DefaultConfig())
	now := f.clock.Now()

	bad := f.addUser(t, "bad", timeptr(now.Add(-40*24*time.Hour)), nil)
	f.addUser(t, "good", timeptr(now.Add(-40*24*time.Hour)), nil)

	boom := errors.New("evaluation blew up")
	f.upgrades.processFunc = func(ctx context.Context, userID string) (bool, error) {
		if userID == bad.ID.String() {
			return false, boom
		}
		return true, nil
	}

	report, err := s.RunTierReevaluation(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, report.Evaluated)
	assert.Equal(t, 1, report.Upgraded)
	assert.Len(t, f.upgrades.processCalls, 2)
}

func TestRunExpirySweep(t *testing.T) {
	s, f := newSchedulerFixture(t, DefaultConfig())

	autoRenew := membershipdomain.Subscription{ID: f.node.Generate(), UserID: f.node.Generate(), AutoRenewal: true}
	lapsing := membershipdomain.Subscription{ID: f.node.Generate(), UserID: f.node.Generate(), AutoRenewal: false}
	f.memberships.expiring = []membershipdomain.Subscription{autoRenew, lapsing}

	report, err := s.RunExpirySweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 1, report.Renewed)
	assert.Equal(t, 1, report.Expired)
	require.Len(t, f.memberships.renewCalls, 1)
	assert.Equal(t, autoRenew.ID.String(), f.memberships.renewCalls[0])
	require.Len(t, f.memberships.expireCalls, 1)
	assert.Equal(t, lapsing.ID.String(), f.memberships.expireCalls[0])
}

func TestRunExpirySweep_BatchSizeCapsRun(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ExpiryBatchSize = 1
	s, f := newSchedulerFixture(t, cfg)

	f.memberships.expiring = []membershipdomain.Subscription{
		{ID: f.node.Generate(), AutoRenewal: false},
		{ID: f.node.Generate(), AutoRenewal: false},
	}

	report, err := s.RunExpirySweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, report.Processed)
	assert.Len(t, f.memberships.expireCalls, 1)
}

func TestRunExpirySweep_OneFailureDoesNotStopTheBatch(t *testing.T) {
	s, f := newSchedulerFixture(t, DefaultConfig())

	first := membershipdomain.Subscription{ID: f.node.Generate(), AutoRenewal: false}
	second := membershipdomain.Subscription{ID: f.node.Generate(), AutoRenewal: false}
	f.memberships.expiring = []membershipdomain.Subscription{first, second}

	boom := errors.New("expire failed")
	f.memberships.expireFunc = func(ctx context.Context, subscriptionID string) (membershipdomain.Subscription, error) {
		if subscriptionID == first.ID.String() {
			return membershipdomain.Subscription{}, boom
		}
		return membershipdomain.Subscription{}, nil
	}

	report, err := s.RunExpirySweep(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, report.Processed)
	assert.Equal(t, 1, report.Expired)
	assert.Len(t, f.memberships.expireCalls, 2)
}

func TestRunOnce_RespectsEnabledJobs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.EnabledJobs = []string{JobExpirySweep}
	s, f := newSchedulerFixture(t, cfg)
	now := f.clock.Now()

	f.addUser(t, "due", timeptr(now.Add(-40*24*time.Hour)), nil)
	f.memberships.expiring = []membershipdomain.Subscription{
		{ID: f.node.Generate(), AutoRenewal: false},
	}

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Empty(t, f.upgrades.processCalls)
	assert.Len(t, f.memberships.expireCalls, 1)
}

func TestRunOnce_RunsBothJobsByDefault(t *testing.T) {
	s, f := newSchedulerFixture(t, DefaultConfig())
	now := f.clock.Now()

	f.addUser(t, "due", timeptr(now.Add(-40*24*time.Hour)), nil)
	f.memberships.expiring = []membershipdomain.Subscription{
		{ID: f.node.Generate(), AutoRenewal: true},
	}

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Len(t, f.upgrades.processCalls, 1)
	assert.Len(t, f.memberships.renewCalls, 1)
}

func TestIsJobEnabled(t *testing.T) {
	s, _ := newSchedulerFixture(t, DefaultConfig())
	assert.True(t, s.isJobEnabled(JobTierReevaluation))
	assert.True(t, s.isJobEnabled(JobExpirySweep))

	cfg := DefaultConfig()
	cfg.EnabledJobs = []string{"TIER_REEVALUATION"}
	s2, _ := newSchedulerFixture(t, cfg)
	assert.True(t, s2.isJobEnabled(JobTierReevaluation))
	assert.False(t, s2.isJobEnabled(JobExpirySweep))
}
