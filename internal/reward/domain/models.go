package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// RewardStatus controls redemption eligibility. Inactive rewards stay
// visible to their owner but cannot be redeemed.
type RewardStatus string

const (
	RewardStatusActive   RewardStatus = "active"
	RewardStatusInactive RewardStatus = "inactive"
)

// Reward is a catalog entry owned by exactly one tenant.
// RedemptionCount equals the number of successful redemption transactions
// referencing this reward; it is incremented inside the redemption
// transaction and never recomputed.
type Reward struct {
	ID              snowflake.ID `gorm:"primaryKey" json:"id"`
	TenantID        snowflake.ID `gorm:"not null;index" json:"tenant_id"`
	Name            string       `gorm:"not null" json:"name"`
	Description     string       `gorm:"type:text" json:"description,omitempty"`
	PointsRequired  int64        `gorm:"not null" json:"points_required"`
	Status          RewardStatus `gorm:"type:text;not null;default:'active'" json:"status"`
	RedemptionCount int64        `gorm:"not null;default:0" json:"redemption_count"`
	CreatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Reward) TableName() string { return "rewards" }
