// Package server exposes the membership REST API.
package server

import (
	"context"
	"net/http"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/tierway/internal/config"
	"github.com/smallbiznis/tierway/internal/membership"
	membershipdomain "github.com/smallbiznis/tierway/internal/membership/domain"
	"github.com/smallbiznis/tierway/internal/order"
	"github.com/smallbiznis/tierway/internal/plan"
	plandomain "github.com/smallbiznis/tierway/internal/plan/domain"
	"github.com/smallbiznis/tierway/internal/scheduler"
	"github.com/smallbiznis/tierway/internal/tier"
	"github.com/smallbiznis/tierway/internal/tierupgrade"
	tierupgradedomain "github.com/smallbiznis/tierway/internal/tierupgrade/domain"
	"github.com/smallbiznis/tierway/internal/user"
	userdomain "github.com/smallbiznis/tierway/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	user.Module,
	order.Module,
	tier.Module,
	plan.Module,
	membership.Module,
	tierupgrade.Module,
	scheduler.Module,
	fx.Invoke(NewServer),
	fx.Invoke(run),
)

func NewEngine(log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(log))
	r.Use(MetricsMiddleware())
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(log *zap.Logger) *gin.Engine {
	return NewEngine(log)
}

func run(lc fx.Lifecycle, cfg config.Config, r *gin.Engine) {
	srv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: r,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
					panic(err)
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine *gin.Engine
	cfg    config.Config
	db     *gorm.DB
	genID  *snowflake.Node

	userSvc        userdomain.Service
	membershipSvc  membershipdomain.Service
	planSvc        plandomain.Service
	tierUpgradeSvc tierupgradedomain.Service
	scheduler      *scheduler.Scheduler
}

type ServerParams struct {
	fx.In

	Gin   *gin.Engine
	Cfg   config.Config
	DB    *gorm.DB
	GenID *snowflake.Node

	UserSvc        userdomain.Service
	MembershipSvc  membershipdomain.Service
	PlanSvc        plandomain.Service
	TierUpgradeSvc tierupgradedomain.Service
	Scheduler      *scheduler.Scheduler `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	s := &Server{
		engine: p.Gin,
		cfg:    p.Cfg,
		db:     p.DB,
		genID:  p.GenID,

		userSvc:        p.UserSvc,
		membershipSvc:  p.MembershipSvc,
		planSvc:        p.PlanSvc,
		tierUpgradeSvc: p.TierUpgradeSvc,
		scheduler:      p.Scheduler,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	api := s.engine.Group("/api")

	// Plan catalog
	api.GET("/plans", s.ListPlans)
	api.GET("/plans/:id", s.GetPlanByID)
	api.GET("/tiers/:level/plans", s.ListPlansForTier)

	// User projections
	api.GET("/users/:userId", s.GetUser)
	api.GET("/users/:userId/membership-status", s.GetMembershipStatus)

	// Subscription lifecycle
	api.POST("/memberships/subscribe", s.Subscribe)
	api.POST("/memberships/cancel", s.CancelMembership)
	api.POST("/memberships/renew", s.RenewMembership)
	api.POST("/memberships/change-tier", s.ChangeMembershipTier)
	api.GET("/memberships/users/:userId/current", s.GetCurrentSubscription)
	api.GET("/memberships/users/:userId/history", s.GetSubscriptionHistory)

	// Tier upgrade evaluation
	api.GET("/tier-upgrades/users/:userId/evaluate", s.EvaluateTierUpgrade)
	api.GET("/tier-upgrades/users/:userId/results", s.GetDetailedEvaluationResults)
	api.GET("/tier-upgrades/users/:userId/rules", s.GetApplicableRules)
	api.GET("/tier-upgrades/users/:userId/best-rule", s.GetBestApplicableRule)
	api.GET("/tier-upgrades/users/:userId/eligibility", s.GetUpgradeEligibility)
	api.POST("/tier-upgrades/users/:userId/process", s.ProcessAutomaticUpgrades)

	// Manual job triggers, for operators and tests
	admin := s.engine.Group("/admin")
	admin.POST("/jobs/tier-reevaluation", s.TriggerTierReevaluation)
	admin.POST("/jobs/expiry-sweep", s.TriggerExpirySweep)
}
