package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/perkly/perkly/internal/identity/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, token *domain.APIToken) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO api_tokens (id, tenant_id, name, role, customer_id, token_hash, is_active, expires_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		token.ID,
		token.TenantID,
		token.Name,
		token.Role,
		token.CustomerID,
		token.TokenHash,
		token.IsActive,
		token.ExpiresAt,
		token.CreatedAt,
	).Error
}

func (r *repo) FindActiveByHash(ctx context.Context, db *gorm.DB, hash string) (*domain.APIToken, error) {
	var token domain.APIToken
	err := db.WithContext(ctx).Raw(
		`SELECT id, tenant_id, name, role, customer_id, token_hash, is_active, expires_at, created_at, revoked_at
		 FROM api_tokens
		 WHERE token_hash = ? AND is_active = ?
		 LIMIT 1`,
		hash,
		true,
	).Scan(&token).Error
	if err != nil {
		return nil, err
	}
	if token.ID == 0 {
		return nil, nil
	}
	if token.ExpiresAt != nil && !token.ExpiresAt.After(time.Now().UTC()) {
		return nil, nil
	}
	return &token, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*domain.APIToken, error) {
	var token domain.APIToken
	err := db.WithContext(ctx).Raw(
		`SELECT id, tenant_id, name, role, customer_id, token_hash, is_active, expires_at, created_at, revoked_at
		 FROM api_tokens WHERE tenant_id = ? AND id = ?`,
		tenantID,
		id,
	).Scan(&token).Error
	if err != nil {
		return nil, err
	}
	if token.ID == 0 {
		return nil, nil
	}
	return &token, nil
}

func (r *repo) Revoke(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE api_tokens SET is_active = ?, revoked_at = ? WHERE tenant_id = ? AND id = ? AND is_active = ?`,
		false,
		time.Now().UTC(),
		tenantID,
		id,
		true,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
