package domain

import (
	"context"
	"errors"

	"github.com/perkly/perkly/pkg/db/pagination"
)

type CreateRewardRequest struct {
	Name           string
	Description    string
	PointsRequired int64
}

type GetRewardRequest struct {
	ID string
}

type ListRewardRequest struct {
	pagination.Pagination
	Status string
}

type ListRewardResponse struct {
	pagination.PageInfo
	Rewards []Reward `json:"rewards"`
}

type DeleteRewardRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateRewardRequest) (Reward, error)
	GetByID(context.Context, GetRewardRequest) (Reward, error)
	List(context.Context, ListRewardRequest) (ListRewardResponse, error)
	Delete(context.Context, DeleteRewardRequest) error
}

var (
	ErrInvalidTenant = errors.New("invalid_tenant")
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidPoints = errors.New("invalid_points_required")
	ErrInvalidStatus = errors.New("invalid_status")
	ErrInvalidID     = errors.New("invalid_id")
	ErrNotFound      = errors.New("not_found")
)
