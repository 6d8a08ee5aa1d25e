package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/vendopay/vendopay/internal/audit/domain"
	commissiondomain "github.com/vendopay/vendopay/internal/commission/domain"
	orderdomain "github.com/vendopay/vendopay/internal/order/domain"
	payoutdomain "github.com/vendopay/vendopay/internal/payout/domain"
	vendordomain "github.com/vendopay/vendopay/internal/vendors/domain"
	"gorm.io/gorm"
)

// RunMigrations applies the embedded SQL migrations against postgres so the
// engine is usable out of the box on a fresh database.
func RunMigrations(db *sql.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}

	sub, err := fs.Sub(embeddedMigrations, migrationsDir)
	if err != nil {
		return fmt.Errorf("open migrations: %w", err)
	}

	source, err := iofs.New(sub, ".")
	if err != nil {
		return fmt.Errorf("create migration source: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("create migration driver: %w", err)
	}

	migrator, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("create migrator: %w", err)
	}

	upErr := migrator.Up()
	if upErr != nil && !errors.Is(upErr, migrate.ErrNoChange) {
		return fmt.Errorf("apply migrations: %w", upErr)
	}
	// Do not call migrator.Close here because it would close the shared *sql.DB.

	return nil
}

// AutoMigrate creates the schema through gorm for the sqlite/mysql dev path
// where the versioned postgres migrations do not apply.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&commissiondomain.Commission{},
		&payoutdomain.Payout{},
		&orderdomain.OrderLineItem{},
		&vendordomain.PerformanceSnapshot{},
		&auditdomain.AuditLog{},
	)
}
