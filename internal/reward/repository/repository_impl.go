package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/perkly/perkly/internal/reward/domain"
	"github.com/perkly/perkly/pkg/db/option"
	"github.com/perkly/perkly/pkg/db/pagination"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, reward *domain.Reward) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO rewards (id, tenant_id, name, description, points_required, status, redemption_count, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		reward.ID,
		reward.TenantID,
		reward.Name,
		reward.Description,
		reward.PointsRequired,
		reward.Status,
		reward.RedemptionCount,
		reward.CreatedAt,
		reward.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (*domain.Reward, error) {
	var reward domain.Reward
	err := db.WithContext(ctx).Raw(
		`SELECT id, tenant_id, name, description, points_required, status, redemption_count, created_at, updated_at
		 FROM rewards WHERE tenant_id = ? AND id = ?`,
		tenantID,
		id,
	).Scan(&reward).Error
	if err != nil {
		return nil, err
	}
	if reward.ID == 0 {
		return nil, nil
	}
	return &reward, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, filter domain.ListFilter, page pagination.Pagination) ([]*domain.Reward, int64, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Reward{}).
		Where("tenant_id = ?", tenantID)
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}

	var total int64
	if err := stmt.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rewards []*domain.Reward
	stmt = option.ApplyPagination(page).Apply(stmt)
	err := stmt.
		Order("created_at desc, id desc").
		Find(&rewards).Error
	if err != nil {
		return nil, 0, err
	}
	return rewards, total, nil
}

func (r *repo) NamesByID(ctx context.Context, db *gorm.DB, tenantID snowflake.ID, ids []snowflake.ID) (map[snowflake.ID]string, error) {
	names := make(map[snowflake.ID]string, len(ids))
	if len(ids) == 0 {
		return names, nil
	}

	var rows []struct {
		ID   snowflake.ID `gorm:"column:id"`
		Name string       `gorm:"column:name"`
	}
	err := db.WithContext(ctx).Raw(
		`SELECT id, name FROM rewards WHERE tenant_id = ? AND id IN ?`,
		tenantID,
		ids,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, tenantID, id snowflake.ID) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`DELETE FROM rewards WHERE tenant_id = ? AND id = ?`,
		tenantID,
		id,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
