package main

import (
	"github.com/bwmarrin/snowflake"
	redis "github.com/redis/go-redis/v9"
	"github.com/vendopay/vendopay/internal/audit"
	"github.com/vendopay/vendopay/internal/clock"
	"github.com/vendopay/vendopay/internal/commission"
	"github.com/vendopay/vendopay/internal/config"
	"github.com/vendopay/vendopay/internal/logger"
	"github.com/vendopay/vendopay/internal/metrics"
	"github.com/vendopay/vendopay/internal/migration"
	"github.com/vendopay/vendopay/internal/order"
	"github.com/vendopay/vendopay/internal/payout"
	"github.com/vendopay/vendopay/internal/server"
	"github.com/vendopay/vendopay/internal/vendors"
	"github.com/vendopay/vendopay/pkg/db"
	"github.com/vendopay/vendopay/pkg/lock"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core infrastructure
		config.Module,
		logger.Module,
		fx.Provide(registerSnowflake),
		fx.Provide(registerLocker),
		db.Module,
		clock.Module,
		metrics.Module,
		migration.Module,

		// Domain modules
		audit.Module,
		order.Module,
		vendors.Module,
		commission.Module,
		payout.Module,

		// HTTP surface
		server.Module,
	)
	app.Run()
}

func registerSnowflake() *snowflake.Node {
	node, err := snowflake.NewNode(1)
	if err != nil {
		panic(err)
	}
	return node
}

// registerLocker returns a nil locker when redis is not configured; payout
// creation treats the lock as optional.
func registerLocker(cfg config.Config) *lock.Locker {
	if cfg.RedisAddr == "" {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	})
	return lock.NewLocker(client)
}
