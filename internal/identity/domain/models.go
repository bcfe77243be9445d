package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Roles recognized by the authorization layer. business_owner inherits
// employee; admin inherits business_owner.
const (
	RoleAdmin         = "admin"
	RoleBusinessOwner = "business_owner"
	RoleEmployee      = "employee"
)

// APIToken is a hashed bearer credential bound to a tenant and role. The
// plaintext token is shown once at issue time and never stored.
type APIToken struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	TenantID   snowflake.ID  `gorm:"not null;index" json:"tenant_id"`
	Name       string        `gorm:"not null" json:"name"`
	Role       string        `gorm:"type:text;not null" json:"role"`
	CustomerID *snowflake.ID `gorm:"index" json:"customer_id,omitempty"`
	TokenHash  string        `gorm:"type:text;not null;uniqueIndex" json:"-"`
	IsActive   bool          `gorm:"not null;default:true" json:"is_active"`
	ExpiresAt  *time.Time    `json:"expires_at,omitempty"`
	CreatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	RevokedAt  *time.Time    `json:"revoked_at,omitempty"`
}

// TableName sets the database table name.
func (APIToken) TableName() string { return "api_tokens" }

// Identity is the verified claim set the ledger trusts. It is produced by
// exactly one resolution path and carried on the request context.
type Identity struct {
	TokenID    snowflake.ID
	TenantID   snowflake.ID
	Role       string
	CustomerID *snowflake.ID
}

func ValidRole(role string) bool {
	switch role {
	case RoleAdmin, RoleBusinessOwner, RoleEmployee:
		return true
	default:
		return false
	}
}
