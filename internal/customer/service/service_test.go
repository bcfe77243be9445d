package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/perkly/perkly/internal/customer/domain"
	"github.com/perkly/perkly/internal/customer/repository"
	tenantdomain "github.com/perkly/perkly/internal/tenant/domain"
	"github.com/perkly/perkly/internal/tenantctx"
	"github.com/perkly/perkly/pkg/db"
	"github.com/perkly/perkly/pkg/db/pagination"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func newTestService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node, snowflake.ID) {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&tenantdomain.Tenant{}, &domain.Customer{}))

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

func TestRegisterCustomer(t *testing.T) {
	svc, _, _, tenantID := newTestService(t)
	ctx := tenantContext(tenantID)

	customer, err := svc.Register(ctx, domain.RegisterCustomerRequest{
		Name:  "Ada Lovelace",
		Email: "ada@example.com",
	})
	require.NoError(t, err)
	require.Equal(t, tenantID, customer.TenantID)
	require.Equal(t, domain.CustomerStatusActive, customer.Status)
	require.Zero(t, customer.Points)
}

func TestRegisterCustomerValidation(t *testing.T) {
	svc, _, _, tenantID := newTestService(t)
	ctx := tenantContext(tenantID)

	_, err := svc.Register(ctx, domain.RegisterCustomerRequest{Email: "ada@example.com"})
	require.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Register(ctx, domain.RegisterCustomerRequest{Name: "Ada", Email: "not-an-email"})
	require.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.Register(context.Background(), domain.RegisterCustomerRequest{Name: "Ada", Email: "ada@example.com"})
	require.ErrorIs(t, err, domain.ErrInvalidTenant)
}

func TestRegisterCustomerDuplicateEmailPerTenant(t *testing.T) {
	svc, conn, node, tenantID := newTestService(t)
	ctx := tenantContext(tenantID)

	_, err := svc.Register(ctx, domain.RegisterCustomerRequest{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, domain.RegisterCustomerRequest{Name: "Ada Again", Email: "ada@example.com"})
	require.ErrorIs(t, err, domain.ErrEmailTaken)

	// The same email is fine under a different tenant.
	other := tenantdomain.Tenant{ID: node.Generate(), Name: "Other Shop"}
	require.NoError(t, conn.Create(&other).Error)

	_, err = svc.Register(tenantContext(other.ID), domain.RegisterCustomerRequest{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)
}

func TestRegisterCustomerNormalizesEmailCase(t *testing.T) {
	svc, _, _, tenantID := newTestService(t)
	ctx := tenantContext(tenantID)

	customer, err := svc.Register(ctx, domain.RegisterCustomerRequest{Name: "Ada", Email: "Ada@Example.com"})
	require.NoError(t, err)
	require.Equal(t, "ada@example.com", customer.Email)

	_, err = svc.Register(ctx, domain.RegisterCustomerRequest{Name: "Ada Again", Email: "ADA@EXAMPLE.COM"})
	require.ErrorIs(t, err, domain.ErrEmailTaken)
}

func TestGetByIDScopedToTenant(t *testing.T) {
	svc, conn, node, tenantID := newTestService(t)
	ctx := tenantContext(tenantID)

	customer, err := svc.Register(ctx, domain.RegisterCustomerRequest{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	found, err := svc.GetByID(ctx, domain.GetCustomerRequest{ID: customer.ID.String()})
	require.NoError(t, err)
	require.Equal(t, customer.ID, found.ID)

	other := tenantdomain.Tenant{ID: node.Generate(), Name: "Other Shop"}
	require.NoError(t, conn.Create(&other).Error)

	_, err = svc.GetByID(tenantContext(other.ID), domain.GetCustomerRequest{ID: customer.ID.String()})
	require.ErrorIs(t, err, domain.ErrNotFound)
}

func TestSearchCustomers(t *testing.T) {
	svc, _, _, tenantID := newTestService(t)
	ctx := tenantContext(tenantID)

	_, err := svc.Register(ctx, domain.RegisterCustomerRequest{Name: "Ada Lovelace", Email: "ada@example.com"})
	require.NoError(t, err)
	_, err = svc.Register(ctx, domain.RegisterCustomerRequest{Name: "Grace Hopper", Email: "grace@example.com"})
	require.NoError(t, err)

	all, err := svc.Search(ctx, domain.SearchCustomerRequest{})
	require.NoError(t, err)
	require.Equal(t, int64(2), all.Total)
	require.Len(t, all.Customers, 2)

	byName, err := svc.Search(ctx, domain.SearchCustomerRequest{Query: "ada"})
	require.NoError(t, err)
	require.Equal(t, int64(1), byName.Total)
	require.Equal(t, "Ada Lovelace", byName.Customers[0].Name)

	paged, err := svc.Search(ctx, domain.SearchCustomerRequest{
		Pagination: pagination.Pagination{Page: 2, Limit: 1},
	})
	require.NoError(t, err)
	require.Equal(t, int64(2), paged.Total)
	require.Equal(t, int64(2), paged.Pages)
	require.Len(t, paged.Customers, 1)

	_, err = svc.Search(ctx, domain.SearchCustomerRequest{Status: "bogus"})
	require.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestDeactivateCustomer(t *testing.T) {
	svc, _, node, tenantID := newTestService(t)
	ctx := tenantContext(tenantID)

	customer, err := svc.Register(ctx, domain.RegisterCustomerRequest{Name: "Ada", Email: "ada@example.com"})
	require.NoError(t, err)

	updated, err := svc.Deactivate(ctx, domain.DeactivateCustomerRequest{ID: customer.ID.String()})
	require.NoError(t, err)
	require.Equal(t, domain.CustomerStatusInactive, updated.Status)

	_, err = svc.Deactivate(ctx, domain.DeactivateCustomerRequest{ID: node.Generate().String()})
	require.ErrorIs(t, err, domain.ErrNotFound)
}
