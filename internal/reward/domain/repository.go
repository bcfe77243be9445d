package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/perkly/perkly/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	Status RewardStatus
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, reward *Reward) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*Reward, error)
	List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, filter ListFilter, page pagination.Pagination) ([]*Reward, int64, error)
	// NamesByID resolves display names for the given reward ids, tolerating
	// ids that no longer exist.
	NamesByID(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, ids []snowflake.ID) (map[snowflake.ID]string, error)
	Delete(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (bool, error)
}
