package migration

import (
	"github.com/smallbiznis/tierway/internal/config"
	membershipdomain "github.com/smallbiznis/tierway/internal/membership/domain"
	orderdomain "github.com/smallbiznis/tierway/internal/order/domain"
	plandomain "github.com/smallbiznis/tierway/internal/plan/domain"
	"github.com/smallbiznis/tierway/internal/seed"
	tierdomain "github.com/smallbiznis/tierway/internal/tier/domain"
	tierupgradedomain "github.com/smallbiznis/tierway/internal/tierupgrade/domain"
	userdomain "github.com/smallbiznis/tierway/internal/user/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config) error {
		if cfg.DBType == "postgres" {
			sqlDB, err := conn.DB()
			if err != nil {
				return err
			}
			if err := RunMigrations(sqlDB); err != nil {
				return err
			}
		} else {
			// sqlite and mysql are dev-only targets; schema comes from the
			// models directly.
			if err := conn.AutoMigrate(
				&userdomain.User{},
				&tierdomain.MembershipTier{},
				&plandomain.MembershipPlan{},
				&orderdomain.Order{},
				&membershipdomain.Subscription{},
				&membershipdomain.SubscriptionHistory{},
				&tierupgradedomain.TierUpgradeRule{},
			); err != nil {
				return err
			}
		}

		if err := seed.EnsureBaseline(conn); err != nil {
			return err
		}
		if cfg.SeedDemoData {
			return seed.EnsureDemoData(conn)
		}
		return nil
	}),
)
