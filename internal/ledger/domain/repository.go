package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/perkly/perkly/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	CustomerID snowflake.ID
	Type       TransactionType
}

// Repository runs the row-level ledger primitives. Multi-step mutations are
// composed by the service inside a single gorm transaction; every method
// accepts the transaction handle.
type Repository interface {
	InsertVisit(ctx context.Context, db *gorm.DB, visit *Visit) error
	InsertTransaction(ctx context.Context, db *gorm.DB, txn *Transaction) error
	// AddPoints unconditionally credits the balance. Returns false when the
	// customer row does not exist in the tenant.
	AddPoints(ctx context.Context, db *gorm.DB, tenantID, customerID snowflake.ID, points int64) (bool, error)
	// SpendPoints debits the balance only when it covers the requested
	// amount: a single conditional UPDATE, the serialization point for
	// concurrent redemptions.
	SpendPoints(ctx context.Context, db *gorm.DB, tenantID, customerID snowflake.ID, points int64) (bool, error)
	CurrentBalance(ctx context.Context, db *gorm.DB, tenantID, customerID snowflake.ID) (int64, bool, error)
	IncrementRedemptionCount(ctx context.Context, db *gorm.DB, tenantID, rewardID snowflake.ID) (bool, error)
	ListTransactions(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, filter ListFilter, page pagination.Pagination) ([]*Transaction, int64, error)
}
