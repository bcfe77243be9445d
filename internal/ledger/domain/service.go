package domain

import (
	"context"
	"errors"
	"time"

	"github.com/perkly/perkly/pkg/db/pagination"
	"github.com/shopspring/decimal"
)

type RecordVisitRequest struct {
	CustomerID string
	Amount     decimal.Decimal
	Points     *int64
	Notes      string
	VisitDate  *time.Time
}

type RecordVisitResponse struct {
	Visit   Visit `json:"visit"`
	Balance int64 `json:"balance"`
}

type RedeemRewardRequest struct {
	CustomerID string
	RewardID   string
}

type RedeemRewardResponse struct {
	RemainingPoints int64       `json:"remaining_points"`
	Transaction     Transaction `json:"transaction"`
}

type ListTransactionsRequest struct {
	pagination.Pagination
	CustomerID string
	Type       string
}

type ListTransactionsResponse struct {
	pagination.PageInfo
	Transactions []Transaction `json:"transactions"`
}

// Service is the points ledger engine. Every mutation is atomic: the balance
// change and its companion visit/transaction rows commit or roll back as one
// unit, and a balance can never go negative.
type Service interface {
	RecordVisit(context.Context, RecordVisitRequest) (RecordVisitResponse, error)
	RedeemReward(context.Context, RedeemRewardRequest) (RedeemRewardResponse, error)
	ListTransactions(context.Context, ListTransactionsRequest) (ListTransactionsResponse, error)
}

var (
	ErrInvalidTenant      = errors.New("invalid_tenant")
	ErrInvalidID          = errors.New("invalid_id")
	ErrInvalidAmount      = errors.New("invalid_amount")
	ErrInvalidPoints      = errors.New("invalid_points")
	ErrInvalidType        = errors.New("invalid_type")
	ErrCustomerNotFound   = errors.New("customer_not_found")
	ErrRewardNotFound     = errors.New("reward_not_found")
	ErrRewardInactive     = errors.New("reward_inactive")
	ErrInsufficientPoints = errors.New("insufficient_points")
)
