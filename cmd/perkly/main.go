package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/perkly/perkly/internal/config"
	"github.com/perkly/perkly/internal/logger"
	"github.com/perkly/perkly/internal/migration"
	"github.com/perkly/perkly/internal/server"
	"github.com/perkly/perkly/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		logger.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		migration.Module,
		server.Module,
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
