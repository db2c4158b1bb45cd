package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/tierway/internal/clock"
	"github.com/smallbiznis/tierway/internal/config"
	"github.com/smallbiznis/tierway/internal/logger"
	"github.com/smallbiznis/tierway/internal/migration"
	"github.com/smallbiznis/tierway/internal/scheduler"
	"github.com/smallbiznis/tierway/internal/server"
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

		server.Module,
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
