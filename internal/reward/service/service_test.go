package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/perkly/perkly/internal/reward/domain"
	"github.com/perkly/perkly/internal/reward/repository"
	tenantdomain "github.com/perkly/perkly/internal/tenant/domain"
	"github.com/perkly/perkly/internal/tenantctx"
	"github.com/perkly/perkly/pkg/db"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node, snowflake.ID) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&tenantdomain.Tenant{}, &domain.Reward{}))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	svc := New(Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  repository.Provide(),
	})

	tenant := tenantdomain.Tenant{ID: node.Generate(), Name: "Main Street Coffee"}
	require.NoError(t, conn.Create(&tenant).Error)

	return svc, conn, node, tenant.ID
}

func tenantContext(tenantID snowflake.ID) context.Context {
	return tenantctx.WithTenantID(context.Background(), int64(tenantID))
}

func TestCreateReward(t *testing.T) {
	svc, _, _, tenantID := newTestService(t)
	ctx := tenantContext(tenantID)

	reward, err := svc.Create(ctx, domain.CreateRewardRequest{
		Name:           "Free Coffee",
		Description:    "Any size drip coffee",
		PointsRequired: 30,
	})
	require.NoError(t, err)
	require.Equal(t, tenantID, reward.TenantID)
	require.Equal(t, domain.RewardStatusActive, reward.Status)
	require.Zero(t, reward.RedemptionCount)
}

func TestCreateRewardValidation(t *testing.T) {
	svc, _, _, tenantID := newTestService(t)
	ctx := tenantContext(tenantID)

	_, err := svc.Create(ctx, domain.CreateRewardRequest{PointsRequired: 30})
	require.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateRewardRequest{Name: "Free Coffee", PointsRequired: 0})
	require.ErrorIs(t, err, domain.ErrInvalidPoints)

	_, err = svc.Create(context.Background(), domain.CreateRewardRequest{Name: "Free Coffee", PointsRequired: 30})
	require.ErrorIs(t, err, domain.ErrInvalidTenant)
}

func TestListRewardsScopedToTenant(t *testing.T) {
	svc, conn, node, tenantID := newTestService(t)
	ctx := tenantContext(tenantID)

	_, err := svc.Create(ctx, domain.CreateRewardRequest{Name: "Free Coffee", PointsRequired: 30})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateRewardRequest{Name: "Free Pastry", PointsRequired: 50})
	require.NoError(t, err)

	other := tenantdomain.Tenant{ID: node.Generate(), Name: "Other Shop"}
	require.NoError(t, conn.Create(&other).Error)
	_, err = svc.Create(tenantContext(other.ID), domain.CreateRewardRequest{Name: "Free Tea", PointsRequired: 20})
	require.NoError(t, err)

	resp, err := svc.List(ctx, domain.ListRewardRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(2), resp.Total)
	require.Len(t, resp.Rewards, 2)

	_, err = svc.List(ctx, domain.ListRewardRequest{Status: "bogus"})
	require.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestDeleteReward(t *testing.T) {
	svc, conn, node, tenantID := newTestService(t)
	ctx := tenantContext(tenantID)

	reward, err := svc.Create(ctx, domain.CreateRewardRequest{Name: "Free Coffee", PointsRequired: 30})
	require.NoError(t, err)

	// A reward belonging to another tenant cannot be deleted through this
	// tenant's scope.
	other := tenantdomain.Tenant{ID: node.Generate(), Name: "Other Shop"}
	require.NoError(t, conn.Create(&other).Error)
	err = svc.Delete(tenantContext(other.ID), domain.DeleteRewardRequest{ID: reward.ID.String()})
	require.ErrorIs(t, err, domain.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, domain.DeleteRewardRequest{ID: reward.ID.String()}))

	_, err = svc.GetByID(ctx, domain.GetRewardRequest{ID: reward.ID.String()})
	require.ErrorIs(t, err, domain.ErrNotFound)
}
