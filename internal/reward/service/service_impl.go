package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/perkly/perkly/internal/reward/domain"
	"github.com/perkly/perkly/internal/tenantctx"
	"github.com/perkly/perkly/pkg/db/pagination"
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
		log:   p.Log.Named("reward.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRewardRequest) (domain.Reward, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return domain.Reward{}, domain.ErrInvalidTenant
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Reward{}, domain.ErrInvalidName
	}
	if req.PointsRequired <= 0 {
		return domain.Reward{}, domain.ErrInvalidPoints
	}

	now := time.Now().UTC()
	reward := domain.Reward{
		ID:             s.genID.Generate(),
		TenantID:       tenantID,
		Name:           name,
		Description:    strings.TrimSpace(req.Description),
		PointsRequired: req.PointsRequired,
		Status:         domain.RewardStatusActive,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.Insert(ctx, s.db, &reward); err != nil {
		return domain.Reward{}, err
	}

	return reward, nil
}

func (s *Service) GetByID(ctx context.Context, req domain.GetRewardRequest) (domain.Reward, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return domain.Reward{}, domain.ErrInvalidTenant
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return domain.Reward{}, err
	}

	item, err := s.repo.FindByID(ctx, s.db, tenantID, id)
	if err != nil {
		return domain.Reward{}, err
	}
	if item == nil {
		return domain.Reward{}, domain.ErrNotFound
	}

	return *item, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRewardRequest) (domain.ListRewardResponse, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return domain.ListRewardResponse{}, domain.ErrInvalidTenant
	}

	filter := domain.ListFilter{}
	if status := strings.TrimSpace(req.Status); status != "" {
		switch domain.RewardStatus(status) {
		case domain.RewardStatusActive, domain.RewardStatusInactive:
			filter.Status = domain.RewardStatus(status)
		default:
			return domain.ListRewardResponse{}, domain.ErrInvalidStatus
		}
	}

	page := req.Pagination.Normalize()
	items, total, err := s.repo.List(ctx, s.db, tenantID, filter, page)
	if err != nil {
		return domain.ListRewardResponse{}, err
	}

	rewards := make([]domain.Reward, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		rewards = append(rewards, *item)
	}

	return domain.ListRewardResponse{
		PageInfo: pagination.BuildPageInfo(page, total),
		Rewards:  rewards,
	}, nil
}

func (s *Service) Delete(ctx context.Context, req domain.DeleteRewardRequest) error {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return domain.ErrInvalidTenant
	}

	id, err := s.parseID(req.ID)
	if err != nil {
		return err
	}

	deleted, err := s.repo.Delete(ctx, s.db, tenantID, id)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	return nil
}

func (s *Service) parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}
