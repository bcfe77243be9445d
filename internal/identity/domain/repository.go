package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, token *APIToken) error
	FindActiveByHash(ctx context.Context, db *gorm.DB, hash string) (*APIToken, error)
	FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*APIToken, error)
	Revoke(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (bool, error)
}
