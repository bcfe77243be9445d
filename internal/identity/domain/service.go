package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

type IssueTokenRequest struct {
	Name       string
	Role       string
	CustomerID string
	ExpiresAt  *time.Time
}

// IssueTokenResponse carries the plaintext token exactly once.
type IssueTokenResponse struct {
	Token    APIToken `json:"token"`
	Secret   string   `json:"secret"`
}

type RevokeTokenRequest struct {
	ID string
}

type Service interface {
	// Resolve is the single verified decode path for bearer credentials.
	Resolve(ctx context.Context, bearer string) (Identity, error)
	Issue(ctx context.Context, req IssueTokenRequest) (IssueTokenResponse, error)
	Revoke(ctx context.Context, req RevokeTokenRequest) error
	// EnsureToken registers a pre-shared token, used by bootstrap seeding.
	EnsureToken(ctx context.Context, tenantID snowflake.ID, name, role, plaintext string) error
}

var (
	ErrInvalidTenant = errors.New("invalid_tenant")
	ErrInvalidToken  = errors.New("invalid_token")
	ErrInvalidName   = errors.New("invalid_name")
	ErrInvalidRole   = errors.New("invalid_role")
	ErrInvalidID     = errors.New("invalid_id")
	ErrNotFound      = errors.New("not_found")
)
