package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/perkly/perkly/internal/ledger/domain"
	"github.com/perkly/perkly/pkg/db/option"
	"github.com/perkly/perkly/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertVisit(ctx context.Context, db *gorm.DB, visit *domain.Visit) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO visits (id, tenant_id, customer_id, amount, points, notes, visit_date, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		visit.ID,
		visit.TenantID,
		visit.CustomerID,
		visit.Amount,
		visit.Points,
		visit.Notes,
		visit.VisitDate,
		visit.CreatedAt,
	).Error
}

func (r *repo) InsertTransaction(ctx context.Context, db *gorm.DB, txn *domain.Transaction) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO transactions (id, tenant_id, customer_id, type, points, reward_id, description, balance, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.ID,
		txn.TenantID,
		txn.CustomerID,
		txn.Type,
		txn.Points,
		txn.RewardID,
		txn.Description,
		txn.Balance,
		txn.CreatedAt,
	).Error
}

func (r *repo) AddPoints(ctx context.Context, db *gorm.DB, tenantID, customerID snowflake.ID, points int64) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE customers SET points = points + ?, updated_at = ? WHERE tenant_id = ? AND id = ?`,
		points,
		time.Now().UTC(),
		tenantID,
		customerID,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) SpendPoints(ctx context.Context, db *gorm.DB, tenantID, customerID snowflake.ID, points int64) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE customers SET points = points - ?, updated_at = ?
		 WHERE tenant_id = ? AND id = ? AND points >= ?`,
		points,
		time.Now().UTC(),
		tenantID,
		customerID,
		points,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) CurrentBalance(ctx context.Context, db *gorm.DB, tenantID, customerID snowflake.ID) (int64, bool, error) {
	var row struct {
		ID     snowflake.ID `gorm:"column:id"`
		Points int64        `gorm:"column:points"`
	}
	err := db.WithContext(ctx).Raw(
		`SELECT id, points FROM customers WHERE tenant_id = ? AND id = ?`,
		tenantID,
		customerID,
	).Scan(&row).Error
	if err != nil {
		return 0, false, err
	}
	if row.ID == 0 {
		return 0, false, nil
	}
	return row.Points, true, nil
}

func (r *repo) IncrementRedemptionCount(ctx context.Context, db *gorm.DB, tenantID, rewardID snowflake.ID) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE rewards SET redemption_count = redemption_count + 1, updated_at = ? WHERE tenant_id = ? AND id = ?`,
		time.Now().UTC(),
		tenantID,
		rewardID,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) ListTransactions(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, filter domain.ListFilter, page pagination.Pagination) ([]*domain.Transaction, int64, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Transaction{}).
		Where("tenant_id = ?", tenantID).
		Where("customer_id = ?", filter.CustomerID)
	if filter.Type != "" {
		stmt = stmt.Where("type = ?", filter.Type)
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var txns []*domain.Transaction
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&txns).Error
	if err != nil {
		return nil, 0, err
	}
	return txns, total, nil
}
