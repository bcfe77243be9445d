package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/perkly/perkly/internal/customer/domain"
	"github.com/perkly/perkly/internal/tenantctx"
	"github.com/perkly/perkly/pkg/db"
	"github.com/perkly/perkly/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
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
		log:   p.Log.Named("customer.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterCustomerRequest) (domain.Customer, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return domain.Customer{}, domain.ErrInvalidTenant
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Customer{}, domain.ErrInvalidName
	}

	// Stored lowercase so the unique index on (tenant_id, email) also
	// catches case variants racing past the pre-insert check.
	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || !strings.Contains(email, "@") {
		return domain.Customer{}, domain.ErrInvalidEmail
	}

	existing, err := s.repo.FindByEmail(ctx, s.db, tenantID, email)
	if err != nil {
		return domain.Customer{}, err
	}
	if existing != nil {
		return domain.Customer{}, domain.ErrEmailTaken
	}

	now := time.Now().UTC()
	customer := domain.Customer{
		ID:        s.genID.Generate(),
		TenantID:  tenantID,
		Name:      name,
		Email:     email,
		Status:    domain.CustomerStatusActive,
		Metadata:  datatypes.JSONMap{},
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Insert(ctx, s.db, &customer); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Customer{}, domain.ErrEmailTaken
		}
		return domain.Customer{}, err
	}

	return customer, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetCustomerRequest) (domain.Customer, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return domain.Customer{}, domain.ErrInvalidTenant
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Customer{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, tenantID, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) Search(ctx context.Context, req domain.SearchCustomerRequest) (domain.SearchCustomerResponse, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return domain.SearchCustomerResponse{}, domain.ErrInvalidTenant
	}

	filter := domain.SearchFilter{Query: strings.TrimSpace(req.Query)}
	if status := strings.TrimSpace(req.Status); status != "" {
		switch domain.CustomerStatus(status) {
		case domain.CustomerStatusActive, domain.CustomerStatusInactive:
			filter.Status = domain.CustomerStatus(status)
		default:
			return domain.SearchCustomerResponse{}, domain.ErrInvalidStatus
		}
	}

	page := req.Pagination.Normalize()
	items, total, err := s.repo.Search(ctx, s.db, tenantID, filter, page)
	if err != nil {
		return domain.SearchCustomerResponse{}, err
	}

	customers := make([]domain.Customer, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		customers = append(customers, *item)
	}

	return domain.SearchCustomerResponse{
		PageInfo:  pagination.BuildPageInfo(page, total),
		Customers: customers,
	}, nil
}

func (s *Service) Deactivate(ctx context.Context, req domain.DeactivateCustomerRequest) (domain.Customer, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return domain.Customer{}, domain.ErrInvalidTenant
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Customer{}, err
	}

	updated, err := s.repo.SetStatus(ctx, s.db, tenantID, id, domain.CustomerStatusInactive)
	if err != nil {
		return domain.Customer{}, err
	}
	if !updated {
		return domain.Customer{}, domain.ErrNotFound
	}

	item, err := s.repo.FindByID(ctx, s.db, tenantID, id)
	if err != nil {
		return domain.Customer{}, err
	}
	if item == nil {
		return domain.Customer{}, domain.ErrNotFound
	}
	return *item, nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
