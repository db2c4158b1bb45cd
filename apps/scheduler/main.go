package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tierway/internal/clock"
	"github.com/smallbiznis/tierway/internal/config"
	"github.com/smallbiznis/tierway/internal/logger"
	"github.com/smallbiznis/tierway/internal/membership"
	"github.com/smallbiznis/tierway/internal/migration"
	"github.com/smallbiznis/tierway/internal/order"
	"github.com/smallbiznis/tierway/internal/plan"
	"github.com/smallbiznis/tierway/internal/scheduler"
	"github.com/smallbiznis/tierway/internal/tier"
	"github.com/smallbiznis/tierway/internal/tierupgrade"
	"github.com/smallbiznis/tierway/internal/user"
	"github.com/smallbiznis/tierway/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Domain services required by the jobs
		user.Module,
		order.Module,
		tier.Module,
		plan.Module,
		membership.Module,
		tierupgrade.Module,

		// No server module
		scheduler.Module,
		fx.Invoke(scheduler.Run),
	)
	app.Run()
}

func RegisterSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}
