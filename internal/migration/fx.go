package migration

import (
	"github.com/vendopay/vendopay/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func run(cfg config.Config, gdb *gorm.DB, log *zap.Logger) error {
	if cfg.DBType == "postgres" {
		sqlDB, err := gdb.DB()
		if err != nil {
			return err
		}
		if err := RunMigrations(sqlDB); err != nil {
			return err
		}
		log.Info("database migrations applied")
		return nil
	}

	if err := AutoMigrate(gdb); err != nil {
		return err
	}
	log.Info("database schema synchronized", zap.String("db_type", cfg.DBType))
	return nil
}

// Module applies the schema on startup.
var Module = fx.Module("migration",
	fx.Invoke(run),
)
