package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/perkly/perkly/pkg/db/pagination"
	"gorm.io/gorm"
)

// SearchFilter matches name or email, case-insensitive, partial.
type SearchFilter struct {
	Query  string
	Status CustomerStatus
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*Customer, error)
	FindByEmail(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, email string) (*Customer, error)
	Search(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, filter SearchFilter, page pagination.Pagination) ([]*Customer, int64, error)
	SetStatus(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID, status CustomerStatus) (bool, error)
}
