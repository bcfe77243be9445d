package seed

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/perkly/perkly/internal/config"
	identitydomain "github.com/perkly/perkly/internal/identity/domain"
	tenantdomain "github.com/perkly/perkly/internal/tenant/domain"
	"gorm.io/gorm"
)

const defaultOwnerTokenName = "bootstrap owner"

// EnsureDefaultTenant seeds a usable tenant on first start so local and
// self-hosted installs work without a provisioning step. When a bootstrap
// owner token is configured it is registered as a business_owner credential.
func EnsureDefaultTenant(db *gorm.DB, cfg config.Config) error {
	if db == nil {
		return errors.New("seed database handle is required")
	}

	name := strings.TrimSpace(cfg.Bootstrap.DefaultTenantName)
	if name == "" {
		return errors.New("seed tenant name is required")
	}

	node, err := snowflake.NewNode(1)
	if err != nil {
		return err
	}

	ctx := context.Background()
	return db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		tenant, err := ensureTenantTx(ctx, tx, node, name)
		if err != nil {
			return err
		}

		if token := strings.TrimSpace(cfg.Bootstrap.OwnerToken); token != "" {
			return ensureOwnerTokenTx(ctx, tx, node, tenant.ID, token)
		}
		return nil
	})
}

func ensureTenantTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, name string) (tenantdomain.Tenant, error) {
	var tenant tenantdomain.Tenant
	err := tx.WithContext(ctx).Where("name = ?", name).First(&tenant).Error
	if err == nil {
		return tenant, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return tenant, err
	}

	now := time.Now().UTC()
	tenant = tenantdomain.Tenant{
		ID:        node.Generate(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&tenant).Error; err != nil {
		return tenant, err
	}
	return tenant, nil
}

func ensureOwnerTokenTx(ctx context.Context, tx *gorm.DB, node *snowflake.Node, tenantID snowflake.ID, plaintext string) error {
	hash := identitydomain.HashToken(plaintext)

	var existing identitydomain.APIToken
	err := tx.WithContext(ctx).Where("token_hash = ?", hash).First(&existing).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	record := identitydomain.APIToken{
		ID:        node.Generate(),
		TenantID:  tenantID,
		Name:      defaultOwnerTokenName,
		Role:      identitydomain.RoleBusinessOwner,
		TokenHash: hash,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	}
	return tx.WithContext(ctx).Create(&record).Error
}
