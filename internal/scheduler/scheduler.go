// Package scheduler runs the periodic membership jobs: tier re-evaluation
// and the subscription expiry sweep. Jobs are idempotent; a failure on one
// item never stops the rest of the batch.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tierway/internal/clock"
	"github.com/smallbiznis/tierway/internal/config"
	membershipdomain "github.com/smallbiznis/tierway/internal/membership/domain"
	obsmetrics "github.com/smallbiznis/tierway/internal/observability/metrics"
	tierupgradedomain "github.com/smallbiznis/tierway/internal/tierupgrade/domain"
	userdomain "github.com/smallbiznis/tierway/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	JobTierReevaluation = "tier_reevaluation"
	JobExpirySweep      = "expiry_sweep"
)

var ErrInvalidConfig = errors.New("scheduler: missing dependency")

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock

	UserRepo       userdomain.Repository
	TierUpgradeSvc tierupgradedomain.Service
	MembershipSvc  membershipdomain.Service
	PolicyHolder   *config.EvaluationPolicyHolder

	Config Config `optional:"true"`
}

type Scheduler struct {
	db    *gorm.DB
	log   *zap.Logger
	cfg   Config
	genID *snowflake.Node
	clock clock.Clock

	userRepo       userdomain.Repository
	tierUpgradeSvc tierupgradedomain.Service
	membershipSvc  membershipdomain.Service
	policyHolder   *config.EvaluationPolicyHolder
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.GenID == nil || p.Clock == nil ||
		p.UserRepo == nil || p.TierUpgradeSvc == nil || p.MembershipSvc == nil || p.PolicyHolder == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:    p.DB,
		log:   p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:   p.Config.withDefaults(),
		genID: p.GenID,
		clock: p.Clock,

		userRepo:       p.UserRepo,
		tierUpgradeSvc: p.TierUpgradeSvc,
		membershipSvc:  p.MembershipSvc,
		policyHolder:   p.PolicyHolder,
	}, nil
}

// TierReevaluationReport summarizes one tier re-evaluation pass.
type TierReevaluationReport struct {
	Evaluated int `json:"evaluated"`
	Upgraded  int `json:"upgraded"`
}

// ExpirySweepReport summarizes one expiry sweep pass.
type ExpirySweepReport struct {
	Processed int `json:"processed"`
	Renewed   int `json:"renewed"`
	Expired   int `json:"expired"`
}

func (s *Scheduler) runJob(parent context.Context, name string, fn func(ctx context.Context) error) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, s.cfg.JobTimeout)
	defer cancel()

	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.IncJobRun(name)

	err := fn(ctx)
	schedMetrics.ObserveJobDuration(name, time.Since(start))
	if err == nil {
		return nil
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		schedMetrics.IncJobTimeout(name)
		s.log.Warn("job timed out",
			zap.String("job", name),
			zap.Duration("timeout", s.cfg.JobTimeout),
			zap.Error(err),
		)
		return nil
	}

	schedMetrics.IncJobError(name)
	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error

	jobs := []struct {
		Name string
		Run  func(context.Context) error
	}{
		{JobTierReevaluation, func(ctx context.Context) error {
			return s.runJob(ctx, JobTierReevaluation, func(ctx context.Context) error {
				_, jobErr := s.RunTierReevaluation(ctx)
				return jobErr
			})
		}},
		{JobExpirySweep, func(ctx context.Context) error {
			return s.runJob(ctx, JobExpirySweep, func(ctx context.Context) error {
				_, jobErr := s.RunExpirySweep(ctx)
				return jobErr
			})
		}},
	}

	for _, job := range jobs {
		if s.isJobEnabled(job.Name) {
			err = errors.Join(err, job.Run(parent))
		}
	}

	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(s.cfg.RunInterval)
	schedMetrics := obsmetrics.Scheduler()

	for {
		runLag := time.Since(nextRun)
		if runLag > 0 {
			schedMetrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}
		nextRun = nextRun.Add(s.cfg.RunInterval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) isJobEnabled(jobName string) bool {
	if len(s.cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range s.cfg.EnabledJobs {
		if strings.EqualFold(enabled, jobName) {
			return true
		}
	}
	return false
}

// RunTierReevaluation evaluates every due user for an automatic tier
// upgrade. Users past the batch size wait for the next run.
func (s *Scheduler) RunTierReevaluation(ctx context.Context) (TierReevaluationReport, error) {
	run := s.newJobRun(JobTierReevaluation, s.cfg.EvaluationBatchSize)
	s.logJobStart(run)
	defer s.logJobFinish(run)

	now := s.clock.Now()
	policy := s.policyHolder.Get()
	var report TierReevaluationReport
	var jobErr error

	users, err := s.userRepo.List(ctx, s.db)
	if err != nil {
		s.logSchedulerError(run, "scheduler.user.list.failed", JobTierReevaluation, err)
		return report, err
	}

	for _, user := range users {
		if ctx.Err() != nil {
			jobErr = errors.Join(jobErr, ctx.Err())
			break
		}
		if report.Evaluated >= s.cfg.EvaluationBatchSize {
			break
		}
		if !shouldEvaluate(user, now, policy) {
			continue
		}

		report.Evaluated++
		changed, err := s.tierUpgradeSvc.ProcessAutomaticUpgrades(ctx, user.ID.String())
		if err != nil {
			jobErr = errors.Join(jobErr, err)
			s.logSchedulerError(run, "scheduler.user.evaluate.failed", JobTierReevaluation, err,
				zap.String("user_id", user.ID.String()),
			)
			continue
		}
		run.AddProcessed(1)
		if changed {
			report.Upgraded++
		}
	}

	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.AddItemsProcessed(JobTierReevaluation, "evaluated", report.Evaluated)
	schedMetrics.AddItemsProcessed(JobTierReevaluation, "upgraded", report.Upgraded)
	return report, jobErr
}

// RunExpirySweep settles every ACTIVE subscription past its expiry: renewed
// in place when auto-renewal is on, transitioned to EXPIRED otherwise.
func (s *Scheduler) RunExpirySweep(ctx context.Context) (ExpirySweepReport, error) {
	run := s.newJobRun(JobExpirySweep, s.cfg.ExpiryBatchSize)
	s.logJobStart(run)
	defer s.logJobFinish(run)

	now := s.clock.Now()
	var report ExpirySweepReport
	var jobErr error

	expiring, err := s.membershipSvc.ListExpiring(ctx, now)
	if err != nil {
		s.logSchedulerError(run, "scheduler.subscription.list.failed", JobExpirySweep, err)
		return report, err
	}
	if len(expiring) > s.cfg.ExpiryBatchSize {
		expiring = expiring[:s.cfg.ExpiryBatchSize]
	}

	for _, subscription := range expiring {
		if ctx.Err() != nil {
			jobErr = errors.Join(jobErr, ctx.Err())
			break
		}

		report.Processed++
		if subscription.AutoRenewal {
			if _, err := s.membershipSvc.RenewSubscription(ctx, subscription.ID.String(), membershipdomain.ActorSystem); err != nil {
				jobErr = errors.Join(jobErr, err)
				s.logSchedulerError(run, "scheduler.subscription.renew.failed", JobExpirySweep, err,
					zap.String("subscription_id", subscription.ID.String()),
					zap.String("user_id", subscription.UserID.String()),
				)
				continue
			}
			report.Renewed++
		} else {
			if _, err := s.membershipSvc.Expire(ctx, subscription.ID.String()); err != nil {
				jobErr = errors.Join(jobErr, err)
				s.logSchedulerError(run, "scheduler.subscription.expire.failed", JobExpirySweep, err,
					zap.String("subscription_id", subscription.ID.String()),
					zap.String("user_id", subscription.UserID.String()),
				)
				continue
			}
			report.Expired++
		}
		run.AddProcessed(1)
	}

	schedMetrics := obsmetrics.Scheduler()
	schedMetrics.AddItemsProcessed(JobExpirySweep, "renewed", report.Renewed)
	schedMetrics.AddItemsProcessed(JobExpirySweep, "expired", report.Expired)
	return report, jobErr
}

// shouldEvaluate applies the evaluation cadence: users without a membership
// start are skipped, previously evaluated users wait out the interval, and
// never-evaluated users must have been members for the minimum duration.
func shouldEvaluate(user userdomain.User, now time.Time, policy config.EvaluationPolicy) bool {
	if user.MembershipStartAt == nil {
		return false
	}
	if user.LastTierEvaluationAt != nil {
		return now.Sub(*user.LastTierEvaluationAt) >= time.Duration(policy.EvaluationIntervalDays)*24*time.Hour
	}
	return now.Sub(*user.MembershipStartAt) >= time.Duration(policy.MinMembershipDays)*24*time.Hour
}
