package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// CustomerStatus is a soft lifecycle flag; customers are never deleted.
type CustomerStatus string

const (
	CustomerStatusActive   CustomerStatus = "active"
	CustomerStatusInactive CustomerStatus = "inactive"
)

// Customer is one customer profile under one tenant. The same email may
// exist under different tenants as distinct rows; uniqueness is enforced on
// (tenant_id, email). The points balance lives on this row so that a
// redemption is a single-row conditional update.
type Customer struct {
	ID        snowflake.ID      `gorm:"primaryKey" json:"id"`
	TenantID  snowflake.ID      `gorm:"not null;index;uniqueIndex:ux_customers_tenant_email,priority:1" json:"tenant_id"`
	Name      string            `gorm:"not null" json:"name"`
	Email     string            `gorm:"not null;uniqueIndex:ux_customers_tenant_email,priority:2" json:"email"`
	Points    int64             `gorm:"not null;default:0" json:"points"`
	Status    CustomerStatus    `gorm:"type:text;not null;default:'active'" json:"status"`
	Metadata  datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }
