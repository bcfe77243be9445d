package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/perkly/perkly/internal/audit/domain"
	ledgerdomain "github.com/perkly/perkly/internal/ledger/domain"
	obsmetrics "github.com/perkly/perkly/internal/observability/metrics"
	rewarddomain "github.com/perkly/perkly/internal/reward/domain"
	"github.com/perkly/perkly/internal/tenantctx"
	"github.com/perkly/perkly/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     ledgerdomain.Repository
	Rewards  rewarddomain.Repository
	AuditSvc auditdomain.Service
	Metrics  *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db       *gorm.DB
	log      *zap.Logger
	genID    *snowflake.Node
	repo     ledgerdomain.Repository
	rewards  rewarddomain.Repository
	auditSvc auditdomain.Service
	metrics  *obsmetrics.Metrics
}

func NewService(p Params) ledgerdomain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("ledger.service"),
		genID:    p.GenID,
		repo:     p.Repo,
		rewards:  p.Rewards,
		auditSvc: p.AuditSvc,
		metrics:  p.Metrics,
	}
}

func (s *Service) RecordVisit(ctx context.Context, req ledgerdomain.RecordVisitRequest) (ledgerdomain.RecordVisitResponse, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return ledgerdomain.RecordVisitResponse{}, ledgerdomain.ErrInvalidTenant
	}

	customerID, err := parseID(req.CustomerID)
	if err != nil {
		return ledgerdomain.RecordVisitResponse{}, err
	}

	if req.Amount.IsNegative() {
		return ledgerdomain.RecordVisitResponse{}, ledgerdomain.ErrInvalidAmount
	}

	// One point per whole currency unit unless the caller overrides.
	points := req.Amount.Floor().IntPart()
	if req.Points != nil {
		if *req.Points < 0 {
			return ledgerdomain.RecordVisitResponse{}, ledgerdomain.ErrInvalidPoints
		}
		points = *req.Points
	}

	now := time.Now().UTC()
	visitDate := now
	if req.VisitDate != nil && !req.VisitDate.IsZero() {
		visitDate = req.VisitDate.UTC()
	}

	visit := ledgerdomain.Visit{
		ID:         s.genID.Generate(),
		TenantID:   tenantID,
		CustomerID: customerID,
		Amount:     req.Amount,
		Points:     points,
		VisitDate:  visitDate,
		CreatedAt:  now,
	}
	if notes := strings.TrimSpace(req.Notes); notes != "" {
		visit.Notes = &notes
	}

	var balance int64
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		credited, err := s.repo.AddPoints(ctx, tx, tenantID, customerID, points)
		if err != nil {
			return err
		}
		if !credited {
			return ledgerdomain.ErrCustomerNotFound
		}

		newBalance, found, err := s.repo.CurrentBalance(ctx, tx, tenantID, customerID)
		if err != nil {
			return err
		}
		if !found {
			return ledgerdomain.ErrCustomerNotFound
		}
		balance = newBalance

		if err := s.repo.InsertVisit(ctx, tx, &visit); err != nil {
			return err
		}

		return s.repo.InsertTransaction(ctx, tx, &ledgerdomain.Transaction{
			ID:         s.genID.Generate(),
			TenantID:   tenantID,
			CustomerID: customerID,
			Type:       ledgerdomain.TypeVisitPoints,
			Points:     points,
			Balance:    balance,
			CreatedAt:  now,
		})
	})
	if err != nil {
		return ledgerdomain.RecordVisitResponse{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordVisit()
	}

	visitID := visit.ID.String()
	if err := s.auditSvc.AuditLog(ctx, &tenantID, "ledger.visit_recorded", "visit", &visitID, map[string]any{
		"customer_id": customerID.String(),
		"points":      points,
		"balance":     balance,
	}); err != nil {
		s.log.Warn("failed to write visit audit log", zap.Error(err))
	}

	return ledgerdomain.RecordVisitResponse{Visit: visit, Balance: balance}, nil
}

func (s *Service) RedeemReward(ctx context.Context, req ledgerdomain.RedeemRewardRequest) (ledgerdomain.RedeemRewardResponse, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return ledgerdomain.RedeemRewardResponse{}, ledgerdomain.ErrInvalidTenant
	}

	customerID, err := parseID(req.CustomerID)
	if err != nil {
		return ledgerdomain.RedeemRewardResponse{}, err
	}
	rewardID, err := parseID(req.RewardID)
	if err != nil {
		return ledgerdomain.RedeemRewardResponse{}, err
	}

	var (
		txn       ledgerdomain.Transaction
		remaining int64
	)
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Reward lookup is scoped to the caller's tenant: a reward id from
		// another tenant is indistinguishable from a missing one.
		reward, err := s.rewards.FindByID(ctx, tx, tenantID, rewardID)
		if err != nil {
			return err
		}
		if reward == nil {
			return ledgerdomain.ErrRewardNotFound
		}
		if reward.Status != rewarddomain.RewardStatusActive {
			return ledgerdomain.ErrRewardInactive
		}

		_, found, err := s.repo.CurrentBalance(ctx, tx, tenantID, customerID)
		if err != nil {
			return err
		}
		if !found {
			return ledgerdomain.ErrCustomerNotFound
		}

		spent, err := s.repo.SpendPoints(ctx, tx, tenantID, customerID, reward.PointsRequired)
		if err != nil {
			return err
		}
		if !spent {
			return ledgerdomain.ErrInsufficientPoints
		}

		newBalance, found, err := s.repo.CurrentBalance(ctx, tx, tenantID, customerID)
		if err != nil {
			return err
		}
		if !found {
			return ledgerdomain.ErrCustomerNotFound
		}
		remaining = newBalance

		incremented, err := s.repo.IncrementRedemptionCount(ctx, tx, tenantID, rewardID)
		if err != nil {
			return err
		}
		if !incremented {
			return ledgerdomain.ErrRewardNotFound
		}

		description := fmt.Sprintf("Redeemed %s", reward.Name)
		txn = ledgerdomain.Transaction{
			ID:          s.genID.Generate(),
			TenantID:    tenantID,
			CustomerID:  customerID,
			Type:        ledgerdomain.TypeRewardRedeemed,
			Points:      -reward.PointsRequired,
			RewardID:    &rewardID,
			Description: &description,
			Balance:     newBalance,
			CreatedAt:   time.Now().UTC(),
			RewardName:  reward.Name,
		}
		return s.repo.InsertTransaction(ctx, tx, &txn)
	})
	if err != nil {
		if s.metrics != nil {
			s.metrics.RecordRedemptionFailure(redemptionFailureReason(err))
		}
		return ledgerdomain.RedeemRewardResponse{}, err
	}

	if s.metrics != nil {
		s.metrics.RecordRedemption()
	}

	txnID := txn.ID.String()
	if err := s.auditSvc.AuditLog(ctx, &tenantID, "ledger.reward_redeemed", "transaction", &txnID, map[string]any{
		"customer_id": customerID.String(),
		"reward_id":   rewardID.String(),
		"points":      txn.Points,
		"balance":     remaining,
	}); err != nil {
		s.log.Warn("failed to write redemption audit log", zap.Error(err))
	}

	return ledgerdomain.RedeemRewardResponse{RemainingPoints: remaining, Transaction: txn}, nil
}

func (s *Service) ListTransactions(ctx context.Context, req ledgerdomain.ListTransactionsRequest) (ledgerdomain.ListTransactionsResponse, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return ledgerdomain.ListTransactionsResponse{}, ledgerdomain.ErrInvalidTenant
	}

	customerID, err := parseID(req.CustomerID)
	if err != nil {
		return ledgerdomain.ListTransactionsResponse{}, err
	}

	filter := ledgerdomain.ListFilter{CustomerID: customerID}
	if typeValue := strings.TrimSpace(req.Type); typeValue != "" {
		if !ledgerdomain.ValidTransactionType(typeValue) {
			return ledgerdomain.ListTransactionsResponse{}, ledgerdomain.ErrInvalidType
		}
		filter.Type = ledgerdomain.TransactionType(typeValue)
	}

	page := req.Pagination.Normalize()
	items, total, err := s.repo.ListTransactions(ctx, s.db, tenantID, filter, page)
	if err != nil {
		return ledgerdomain.ListTransactionsResponse{}, err
	}

	if err := s.attachRewardNames(ctx, tenantID, items); err != nil {
		// Display names are a nicety; the listing itself still stands.
		s.log.Warn("failed to resolve reward names", zap.Error(err))
	}

	txns := make([]ledgerdomain.Transaction, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		txns = append(txns, *item)
	}

	return ledgerdomain.ListTransactionsResponse{
		PageInfo:     pagination.BuildPageInfo(page, total),
		Transactions: txns,
	}, nil
}

func (s *Service) attachRewardNames(ctx context.Context, tenantID snowflake.ID, txns []*ledgerdomain.Transaction) error {
	ids := make([]snowflake.ID, 0, len(txns))
	seen := make(map[snowflake.ID]struct{}, len(txns))
	for _, txn := range txns {
		if txn == nil || txn.RewardID == nil {
			continue
		}
		if _, dup := seen[*txn.RewardID]; dup {
			continue
		}
		seen[*txn.RewardID] = struct{}{}
		ids = append(ids, *txn.RewardID)
	}
	if len(ids) == 0 {
		return nil
	}

	names, err := s.rewards.NamesByID(ctx, s.db, tenantID, ids)
	if err != nil {
		return err
	}
	for _, txn := range txns {
		if txn == nil || txn.RewardID == nil {
			continue
		}
		txn.RewardName = names[*txn.RewardID]
	}
	return nil
}

func redemptionFailureReason(err error) string {
	switch err {
	case ledgerdomain.ErrInsufficientPoints:
		return "insufficient_points"
	case ledgerdomain.ErrRewardNotFound, ledgerdomain.ErrCustomerNotFound:
		return "not_found"
	case ledgerdomain.ErrRewardInactive:
		return "reward_inactive"
	default:
		return "error"
	}
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, ledgerdomain.ErrInvalidID
	}
	return id, nil
}
