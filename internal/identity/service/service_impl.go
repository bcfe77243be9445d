package service

import (
	"context"
	"crypto/subtle"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/perkly/perkly/internal/identity/domain"
	"github.com/perkly/perkly/internal/tenantctx"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("identity.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Resolve(ctx context.Context, bearer string) (domain.Identity, error) {
	bearer = strings.TrimSpace(bearer)
	if bearer == "" {
		return domain.Identity{}, domain.ErrInvalidToken
	}

	hash := domain.HashToken(bearer)
	token, err := s.repo.FindActiveByHash(ctx, s.db, hash)
	if err != nil {
		return domain.Identity{}, err
	}
	if token == nil || subtle.ConstantTimeCompare([]byte(token.TokenHash), []byte(hash)) != 1 {
		return domain.Identity{}, domain.ErrInvalidToken
	}

	return domain.Identity{
		TokenID:    token.ID,
		TenantID:   token.TenantID,
		Role:       token.Role,
		CustomerID: token.CustomerID,
	}, nil
}

func (s *Service) Issue(ctx context.Context, req domain.IssueTokenRequest) (domain.IssueTokenResponse, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return domain.IssueTokenResponse{}, domain.ErrInvalidTenant
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.IssueTokenResponse{}, domain.ErrInvalidName
	}

	role := strings.TrimSpace(req.Role)
	if !domain.ValidRole(role) {
		return domain.IssueTokenResponse{}, domain.ErrInvalidRole
	}

	var customerID *snowflake.ID
	if raw := strings.TrimSpace(req.CustomerID); raw != "" {
		parsed, err := snowflake.ParseString(raw)
		if err != nil || parsed == 0 {
			return domain.IssueTokenResponse{}, domain.ErrInvalidID
		}
		customerID = &parsed
	}

	plaintext, err := domain.NewToken()
	if err != nil {
		return domain.IssueTokenResponse{}, err
	}

	token := domain.APIToken{
		ID:         s.genID.Generate(),
		TenantID:   tenantID,
		Name:       name,
		Role:       role,
		CustomerID: customerID,
		TokenHash:  domain.HashToken(plaintext),
		IsActive:   true,
		ExpiresAt:  req.ExpiresAt,
		CreatedAt:  time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, s.db, &token); err != nil {
		return domain.IssueTokenResponse{}, err
	}

	return domain.IssueTokenResponse{Token: token, Secret: plaintext}, nil
}

func (s *Service) Revoke(ctx context.Context, req domain.RevokeTokenRequest) error {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return domain.ErrInvalidTenant
	}

	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil || id == 0 {
		return domain.ErrInvalidID
	}

	revoked, err := s.repo.Revoke(ctx, s.db, tenantID, id)
	if err != nil {
		return err
	}
	if !revoked {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Service) EnsureToken(ctx context.Context, tenantID snowflake.ID, name, role, plaintext string) error {
	if tenantID == 0 {
		return domain.ErrInvalidTenant
	}
	if !domain.ValidRole(role) {
		return domain.ErrInvalidRole
	}

	hash := domain.HashToken(plaintext)
	existing, err := s.repo.FindActiveByHash(ctx, s.db, hash)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	return s.repo.Insert(ctx, s.db, &domain.APIToken{
		ID:        s.genID.Generate(),
		TenantID:  tenantID,
		Name:      name,
		Role:      role,
		TokenHash: hash,
		IsActive:  true,
		CreatedAt: time.Now().UTC(),
	})
}
