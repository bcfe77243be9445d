package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/perkly/perkly/internal/audit/domain"
	auditrepository "github.com/perkly/perkly/internal/audit/repository"
	auditservice "github.com/perkly/perkly/internal/audit/service"
	customerdomain "github.com/perkly/perkly/internal/customer/domain"
	ledgerdomain "github.com/perkly/perkly/internal/ledger/domain"
	"github.com/perkly/perkly/internal/ledger/repository"
	rewarddomain "github.com/perkly/perkly/internal/reward/domain"
	rewardrepository "github.com/perkly/perkly/internal/reward/repository"
	tenantdomain "github.com/perkly/perkly/internal/tenant/domain"
	"github.com/perkly/perkly/internal/tenantctx"
	"github.com/perkly/perkly/pkg/db"
	"github.com/perkly/perkly/pkg/db/pagination"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testEnv struct {
	svc      ledgerdomain.Service
	db       *gorm.DB
	node     *snowflake.Node
	tenantID snowflake.ID
	ctx      context.Context
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(
		&tenantdomain.Tenant{},
		&customerdomain.Customer{},
		&rewarddomain.Reward{},
		&ledgerdomain.Visit{},
		&ledgerdomain.Transaction{},
		&auditdomain.AuditLog{},
	))

	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	auditSvc := auditservice.NewService(auditservice.Params{
		DB:    conn,
		Log:   zap.NewNop(),
		GenID: node,
		Repo:  auditrepository.Provide(),
	})

	svc := NewService(Params{
		DB:       conn,
		Log:      zap.NewNop(),
		GenID:    node,
		Repo:     repository.Provide(),
		Rewards:  rewardrepository.Provide(),
		AuditSvc: auditSvc,
	})

	tenant := tenantdomain.Tenant{ID: node.Generate(), Name: "Main Street Coffee"}
	require.NoError(t, conn.Create(&tenant).Error)

	return &testEnv{
		svc:      svc,
		db:       conn,
		node:     node,
		tenantID: tenant.ID,
		ctx:      tenantContext(tenant.ID),
	}
}

func tenantContext(tenantID snowflake.ID) context.Context {
	return tenantctx.WithTenantID(context.Background(), int64(tenantID))
}

func (e *testEnv) createCustomer(t *testing.T, points int64) customerdomain.Customer {
	t.Helper()
	customer := customerdomain.Customer{
		ID:       e.node.Generate(),
		TenantID: e.tenantID,
		Name:     "Ada",
		Email:    fmt.Sprintf("ada+%s@example.com", e.node.Generate()),
		Points:   points,
		Status:   customerdomain.CustomerStatusActive,
	}
	require.NoError(t, e.db.Create(&customer).Error)
	return customer
}

func (e *testEnv) createReward(t *testing.T, tenantID snowflake.ID, required int64, status rewarddomain.RewardStatus) rewarddomain.Reward {
	t.Helper()
	reward := rewarddomain.Reward{
		ID:             e.node.Generate(),
		TenantID:       tenantID,
		Name:           "Free Coffee",
		PointsRequired: required,
		Status:         status,
	}
	require.NoError(t, e.db.Create(&reward).Error)
	return reward
}

func (e *testEnv) customerBalance(t *testing.T, customerID snowflake.ID) int64 {
	t.Helper()
	var customer customerdomain.Customer
	require.NoError(t, e.db.Where("tenant_id = ? AND id = ?", e.tenantID, customerID).First(&customer).Error)
	return customer.Points
}

func (e *testEnv) countRows(t *testing.T, model any) int64 {
	t.Helper()
	var count int64
	require.NoError(t, e.db.Model(model).Count(&count).Error)
	return count
}

func TestRecordVisitAccruesFloorOfAmount(t *testing.T) {
	env := newTestEnv(t)
	customer := env.createCustomer(t, 0)

	resp, err := env.svc.RecordVisit(env.ctx, ledgerdomain.RecordVisitRequest{
		CustomerID: customer.ID.String(),
		Amount:     decimal.NewFromFloat(12.75),
	})
	require.NoError(t, err)
	require.Equal(t, int64(12), resp.Visit.Points)
	require.Equal(t, int64(12), resp.Balance)
	require.Equal(t, int64(12), env.customerBalance(t, customer.ID))

	var txn ledgerdomain.Transaction
	require.NoError(t, env.db.Where("customer_id = ?", customer.ID).First(&txn).Error)
	require.Equal(t, ledgerdomain.TypeVisitPoints, txn.Type)
	require.Equal(t, int64(12), txn.Points)
	require.Equal(t, int64(12), txn.Balance)
	require.Nil(t, txn.RewardID)
}

func TestRecordVisitExplicitPointsOverride(t *testing.T) {
	env := newTestEnv(t)
	customer := env.createCustomer(t, 5)

	points := int64(20)
	resp, err := env.svc.RecordVisit(env.ctx, ledgerdomain.RecordVisitRequest{
		CustomerID: customer.ID.String(),
		Amount:     decimal.NewFromFloat(3.50),
		Points:     &points,
	})
	require.NoError(t, err)
	require.Equal(t, int64(20), resp.Visit.Points)
	require.Equal(t, int64(25), resp.Balance)
}

func TestRecordVisitValidation(t *testing.T) {
	env := newTestEnv(t)
	customer := env.createCustomer(t, 0)

	_, err := env.svc.RecordVisit(env.ctx, ledgerdomain.RecordVisitRequest{
		CustomerID: customer.ID.String(),
		Amount:     decimal.NewFromFloat(-1),
	})
	require.ErrorIs(t, err, ledgerdomain.ErrInvalidAmount)

	negative := int64(-5)
	_, err = env.svc.RecordVisit(env.ctx, ledgerdomain.RecordVisitRequest{
		CustomerID: customer.ID.String(),
		Amount:     decimal.NewFromFloat(4),
		Points:     &negative,
	})
	require.ErrorIs(t, err, ledgerdomain.ErrInvalidPoints)

	_, err = env.svc.RecordVisit(context.Background(), ledgerdomain.RecordVisitRequest{
		CustomerID: customer.ID.String(),
		Amount:     decimal.NewFromFloat(4),
	})
	require.ErrorIs(t, err, ledgerdomain.ErrInvalidTenant)
}

func TestRecordVisitUnknownCustomerWritesNothing(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.svc.RecordVisit(env.ctx, ledgerdomain.RecordVisitRequest{
		CustomerID: env.node.Generate().String(),
		Amount:     decimal.NewFromFloat(10),
	})
	require.ErrorIs(t, err, ledgerdomain.ErrCustomerNotFound)

	require.Zero(t, env.countRows(t, &ledgerdomain.Visit{}))
	require.Zero(t, env.countRows(t, &ledgerdomain.Transaction{}))
}

func TestRedeemReward(t *testing.T) {
	env := newTestEnv(t)
	customer := env.createCustomer(t, 50)
	reward := env.createReward(t, env.tenantID, 30, rewarddomain.RewardStatusActive)

	resp, err := env.svc.RedeemReward(env.ctx, ledgerdomain.RedeemRewardRequest{
		CustomerID: customer.ID.String(),
		RewardID:   reward.ID.String(),
	})
	require.NoError(t, err)
	require.Equal(t, int64(20), resp.RemainingPoints)
	require.Equal(t, int64(-30), resp.Transaction.Points)
	require.Equal(t, int64(20), resp.Transaction.Balance)
	require.Equal(t, ledgerdomain.TypeRewardRedeemed, resp.Transaction.Type)
	require.NotNil(t, resp.Transaction.RewardID)
	require.Equal(t, reward.ID, *resp.Transaction.RewardID)

	require.Equal(t, int64(20), env.customerBalance(t, customer.ID))

	var stored rewarddomain.Reward
	require.NoError(t, env.db.First(&stored, "id = ?", reward.ID).Error)
	require.Equal(t, int64(1), stored.RedemptionCount)
}

func TestRedeemRewardInsufficientPoints(t *testing.T) {
	env := newTestEnv(t)
	customer := env.createCustomer(t, 10)
	reward := env.createReward(t, env.tenantID, 30, rewarddomain.RewardStatusActive)

	_, err := env.svc.RedeemReward(env.ctx, ledgerdomain.RedeemRewardRequest{
		CustomerID: customer.ID.String(),
		RewardID:   reward.ID.String(),
	})
	require.ErrorIs(t, err, ledgerdomain.ErrInsufficientPoints)

	require.Equal(t, int64(10), env.customerBalance(t, customer.ID))
	require.Zero(t, env.countRows(t, &ledgerdomain.Transaction{}))

	var stored rewarddomain.Reward
	require.NoError(t, env.db.First(&stored, "id = ?", reward.ID).Error)
	require.Zero(t, stored.RedemptionCount)
}

func TestRedeemRewardInactive(t *testing.T) {
	env := newTestEnv(t)
	customer := env.createCustomer(t, 100)
	reward := env.createReward(t, env.tenantID, 30, rewarddomain.RewardStatusInactive)

	_, err := env.svc.RedeemReward(env.ctx, ledgerdomain.RedeemRewardRequest{
		CustomerID: customer.ID.String(),
		RewardID:   reward.ID.String(),
	})
	require.ErrorIs(t, err, ledgerdomain.ErrRewardInactive)
	require.Equal(t, int64(100), env.customerBalance(t, customer.ID))
}

func TestRedeemRewardOtherTenantInvisible(t *testing.T) {
	env := newTestEnv(t)
	customer := env.createCustomer(t, 100)

	other := tenantdomain.Tenant{ID: env.node.Generate(), Name: "Other Shop"}
	require.NoError(t, env.db.Create(&other).Error)
	reward := env.createReward(t, other.ID, 30, rewarddomain.RewardStatusActive)

	_, err := env.svc.RedeemReward(env.ctx, ledgerdomain.RedeemRewardRequest{
		CustomerID: customer.ID.String(),
		RewardID:   reward.ID.String(),
	})
	require.ErrorIs(t, err, ledgerdomain.ErrRewardNotFound)
	require.Equal(t, int64(100), env.customerBalance(t, customer.ID))
}

func TestRedeemRewardUnknownCustomer(t *testing.T) {
	env := newTestEnv(t)
	reward := env.createReward(t, env.tenantID, 30, rewarddomain.RewardStatusActive)

	_, err := env.svc.RedeemReward(env.ctx, ledgerdomain.RedeemRewardRequest{
		CustomerID: env.node.Generate().String(),
		RewardID:   reward.ID.String(),
	})
	require.ErrorIs(t, err, ledgerdomain.ErrCustomerNotFound)
}

func TestConcurrentRedemptionsSpendBalanceOnce(t *testing.T) {
	env := newTestEnv(t)
	customer := env.createCustomer(t, 50)
	reward := env.createReward(t, env.tenantID, 30, rewarddomain.RewardStatusActive)

	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = env.svc.RedeemReward(env.ctx, ledgerdomain.RedeemRewardRequest{
				CustomerID: customer.ID.String(),
				RewardID:   reward.ID.String(),
			})
		}(i)
	}
	wg.Wait()

	successes := 0
	insufficient := 0
	for _, err := range errs {
		switch {
		case err == nil:
			successes++
		case err == ledgerdomain.ErrInsufficientPoints:
			insufficient++
		default:
			t.Fatalf("unexpected redemption error: %v", err)
		}
	}
	require.Equal(t, 1, successes)
	require.Equal(t, 1, insufficient)

	require.Equal(t, int64(20), env.customerBalance(t, customer.ID))

	var count int64
	require.NoError(t, env.db.Model(&ledgerdomain.Transaction{}).
		Where("type = ?", ledgerdomain.TypeRewardRedeemed).
		Count(&count).Error)
	require.Equal(t, int64(1), count)
}

func TestListTransactions(t *testing.T) {
	env := newTestEnv(t)
	customer := env.createCustomer(t, 0)
	reward := env.createReward(t, env.tenantID, 30, rewarddomain.RewardStatusActive)

	_, err := env.svc.RecordVisit(env.ctx, ledgerdomain.RecordVisitRequest{
		CustomerID: customer.ID.String(),
		Amount:     decimal.NewFromFloat(42),
	})
	require.NoError(t, err)

	// Give the second entry a later timestamp so ordering is deterministic.
	time.Sleep(5 * time.Millisecond)

	_, err = env.svc.RedeemReward(env.ctx, ledgerdomain.RedeemRewardRequest{
		CustomerID: customer.ID.String(),
		RewardID:   reward.ID.String(),
	})
	require.NoError(t, err)

	resp, err := env.svc.ListTransactions(env.ctx, ledgerdomain.ListTransactionsRequest{
		CustomerID: customer.ID.String(),
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), resp.Total)
	require.Len(t, resp.Transactions, 2)
	require.Equal(t, ledgerdomain.TypeRewardRedeemed, resp.Transactions[0].Type)
	require.Equal(t, "Free Coffee", resp.Transactions[0].RewardName)
	require.Equal(t, ledgerdomain.TypeVisitPoints, resp.Transactions[1].Type)

	filtered, err := env.svc.ListTransactions(env.ctx, ledgerdomain.ListTransactionsRequest{
		CustomerID: customer.ID.String(),
		Type:       string(ledgerdomain.TypeVisitPoints),
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), filtered.Total)
	require.Len(t, filtered.Transactions, 1)

	paged, err := env.svc.ListTransactions(env.ctx, ledgerdomain.ListTransactionsRequest{
		Pagination: pagination.Pagination{Page: 1, Limit: 1},
		CustomerID: customer.ID.String(),
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), paged.Total)
	require.Equal(t, int64(2), paged.Pages)
	require.Len(t, paged.Transactions, 1)

	_, err = env.svc.ListTransactions(env.ctx, ledgerdomain.ListTransactionsRequest{
		CustomerID: customer.ID.String(),
		Type:       "BOGUS",
	})
	require.ErrorIs(t, err, ledgerdomain.ErrInvalidType)
}

func TestListTransactionsSurvivesDeletedReward(t *testing.T) {
	env := newTestEnv(t)
	customer := env.createCustomer(t, 50)
	reward := env.createReward(t, env.tenantID, 30, rewarddomain.RewardStatusActive)

	_, err := env.svc.RedeemReward(env.ctx, ledgerdomain.RedeemRewardRequest{
		CustomerID: customer.ID.String(),
		RewardID:   reward.ID.String(),
	})
	require.NoError(t, err)

	// The history outlives the catalog entry; the name simply goes blank.
	require.NoError(t, env.db.Delete(&rewarddomain.Reward{}, "id = ?", reward.ID).Error)

	resp, err := env.svc.ListTransactions(env.ctx, ledgerdomain.ListTransactionsRequest{
		CustomerID: customer.ID.String(),
		Type:       string(ledgerdomain.TypeRewardRedeemed),
	})
	require.NoError(t, err)
	require.Len(t, resp.Transactions, 1)
	require.Empty(t, resp.Transactions[0].RewardName)
	require.NotNil(t, resp.Transactions[0].RewardID)
	require.Equal(t, reward.ID, *resp.Transactions[0].RewardID)
}
