package migration

import (
	"database/sql"
	"errors"
	"fmt"
	"io/fs"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	auditdomain "github.com/perkly/perkly/internal/audit/domain"
	customerdomain "github.com/perkly/perkly/internal/customer/domain"
	identitydomain "github.com/perkly/perkly/internal/identity/domain"
	ledgerdomain "github.com/perkly/perkly/internal/ledger/domain"
	rewarddomain "github.com/perkly/perkly/internal/reward/domain"
	tenantdomain "github.com/perkly/perkly/internal/tenant/domain"
	"gorm.io/gorm"
)

// RunMigrations applies the embedded SQL migrations so a fresh database is
// usable out of the box for local and self-hosted setups.
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

// AutoMigrate is the schema path for non-postgres databases, where the
// embedded SQL does not apply.
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("migration database handle is required")
	}
	return db.AutoMigrate(
		&tenantdomain.Tenant{},
		&customerdomain.Customer{},
		&rewarddomain.Reward{},
		&ledgerdomain.Visit{},
		&ledgerdomain.Transaction{},
		&auditdomain.AuditLog{},
		&identitydomain.APIToken{},
	)
}
