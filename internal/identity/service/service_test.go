package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/perkly/perkly/internal/identity/domain"
	"github.com/perkly/perkly/internal/identity/repository"
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
	require.NoError(t, conn.AutoMigrate(&tenantdomain.Tenant{}, &domain.APIToken{}))

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

func TestIssueAndResolveToken(t *testing.T) {
	svc, _, _, tenantID := newTestService(t)
	ctx := tenantContext(tenantID)

	issued, err := svc.Issue(ctx, domain.IssueTokenRequest{
		Name: "register till",
		Role: domain.RoleEmployee,
	})
	require.NoError(t, err)
	require.NotEmpty(t, issued.Secret)
	require.NotEqual(t, issued.Secret, issued.Token.TokenHash)

	identity, err := svc.Resolve(context.Background(), issued.Secret)
	require.NoError(t, err)
	require.Equal(t, tenantID, identity.TenantID)
	require.Equal(t, domain.RoleEmployee, identity.Role)
	require.Equal(t, issued.Token.ID, identity.TokenID)
}

func TestIssueTokenValidation(t *testing.T) {
	svc, _, _, tenantID := newTestService(t)
	ctx := tenantContext(tenantID)

	_, err := svc.Issue(ctx, domain.IssueTokenRequest{Role: domain.RoleEmployee})
	require.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Issue(ctx, domain.IssueTokenRequest{Name: "till", Role: "superuser"})
	require.ErrorIs(t, err, domain.ErrInvalidRole)

	_, err = svc.Issue(context.Background(), domain.IssueTokenRequest{Name: "till", Role: domain.RoleEmployee})
	require.ErrorIs(t, err, domain.ErrInvalidTenant)
}

func TestResolveRejectsUnknownAndRevoked(t *testing.T) {
	svc, _, _, tenantID := newTestService(t)
	ctx := tenantContext(tenantID)

	_, err := svc.Resolve(context.Background(), "pk_does_not_exist")
	require.ErrorIs(t, err, domain.ErrInvalidToken)

	issued, err := svc.Issue(ctx, domain.IssueTokenRequest{Name: "till", Role: domain.RoleEmployee})
	require.NoError(t, err)

	require.NoError(t, svc.Revoke(ctx, domain.RevokeTokenRequest{ID: issued.Token.ID.String()}))

	_, err = svc.Resolve(context.Background(), issued.Secret)
	require.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestResolveRejectsExpiredToken(t *testing.T) {
	svc, _, _, tenantID := newTestService(t)
	ctx := tenantContext(tenantID)

	expired := time.Now().UTC().Add(-time.Hour)
	issued, err := svc.Issue(ctx, domain.IssueTokenRequest{
		Name:      "till",
		Role:      domain.RoleEmployee,
		ExpiresAt: &expired,
	})
	require.NoError(t, err)

	_, err = svc.Resolve(context.Background(), issued.Secret)
	require.ErrorIs(t, err, domain.ErrInvalidToken)
}

func TestRevokeScopedToTenant(t *testing.T) {
	svc, conn, node, tenantID := newTestService(t)
	ctx := tenantContext(tenantID)

	issued, err := svc.Issue(ctx, domain.IssueTokenRequest{Name: "till", Role: domain.RoleEmployee})
	require.NoError(t, err)

	other := tenantdomain.Tenant{ID: node.Generate(), Name: "Other Shop"}
	require.NoError(t, conn.Create(&other).Error)

	err = svc.Revoke(tenantContext(other.ID), domain.RevokeTokenRequest{ID: issued.Token.ID.String()})
	require.ErrorIs(t, err, domain.ErrNotFound)

	// The token still resolves because the foreign revoke touched nothing.
	_, err = svc.Resolve(context.Background(), issued.Secret)
	require.NoError(t, err)
}

func TestEnsureTokenIsIdempotent(t *testing.T) {
	svc, conn, _, tenantID := newTestService(t)

	require.NoError(t, svc.EnsureToken(context.Background(), tenantID, "bootstrap owner", domain.RoleBusinessOwner, "pk_bootstrap_secret"))
	require.NoError(t, svc.EnsureToken(context.Background(), tenantID, "bootstrap owner", domain.RoleBusinessOwner, "pk_bootstrap_secret"))

	var count int64
	require.NoError(t, conn.Model(&domain.APIToken{}).Count(&count).Error)
	require.Equal(t, int64(1), count)

	identity, err := svc.Resolve(context.Background(), "pk_bootstrap_secret")
	require.NoError(t, err)
	require.Equal(t, domain.RoleBusinessOwner, identity.Role)
}
