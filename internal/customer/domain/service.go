package domain

import (
	"context"
	"errors"

	"github.com/perkly/perkly/pkg/db/pagination"
)

type RegisterCustomerRequest struct {
	Name  string
	Email string
}

type GetCustomerRequest struct {
	ID string
}

type SearchCustomerRequest struct {
	pagination.Pagination
	Query  string
	Status string
}

type SearchCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type DeactivateCustomerRequest struct {
	ID string
}

type Service interface {
	Register(context.Context, RegisterCustomerRequest) (Customer, error)
	GetByID(context.Context, GetCustomerRequest) (Customer, error)
	Search(context.Context, SearchCustomerRequest) (SearchCustomerResponse, error)
	Deactivate(context.Context, DeactivateCustomerRequest) (Customer, error)
}

var (
	ErrInvalidTenant = errors.New("invalid_tenant")
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidEmail  = errors.New("invalid_email")
	ErrInvalidStatus = errors.New("invalid_status")
	ErrInvalidID     = errors.New("invalid_id")
	ErrEmailTaken    = errors.New("email_taken")
	ErrNotFound      = errors.New("not_found")
)
