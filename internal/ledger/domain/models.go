package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

// TransactionType tags every balance-changing ledger event.
type TransactionType string

const (
	TypeVisitPoints    TransactionType = "VISIT_POINTS"
	TypeRewardRedeemed TransactionType = "REWARD_REDEEMED"
)

// Visit is the immutable fact that a customer transacted with the tenant.
// Points default to floor(amount): one point per whole currency unit.
type Visit struct {
	ID         snowflake.ID    `gorm:"primaryKey" json:"id"`
	TenantID   snowflake.ID    `gorm:"not null;index" json:"tenant_id"`
	CustomerID snowflake.ID    `gorm:"not null;index" json:"customer_id"`
	Amount     decimal.Decimal `gorm:"type:numeric(12,2);not null" json:"amount"`
	Points     int64           `gorm:"not null" json:"points"`
	Notes      *string         `gorm:"type:text" json:"notes,omitempty"`
	VisitDate  time.Time       `gorm:"not null" json:"visit_date"`
	CreatedAt  time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Visit) TableName() string { return "visits" }

// Transaction is an append-only ledger entry. Points carries the signed
// change; Balance snapshots the post-change balance so history can be
// reconstructed without replay.
type Transaction struct {
	ID          snowflake.ID    `gorm:"primaryKey" json:"id"`
	TenantID    snowflake.ID    `gorm:"not null;index" json:"tenant_id"`
	CustomerID  snowflake.ID    `gorm:"not null;index" json:"customer_id"`
	Type        TransactionType `gorm:"type:text;not null;index" json:"type"`
	Points      int64           `gorm:"not null" json:"points"`
	RewardID    *snowflake.ID   `gorm:"index" json:"reward_id,omitempty"`
	Description *string         `gorm:"type:text" json:"description,omitempty"`
	Balance     int64           `gorm:"not null" json:"balance"`
	CreatedAt   time.Time       `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`

	// RewardName is resolved at read time for display; blank when the
	// referenced reward no longer exists.
	RewardName string `gorm:"-" json:"reward_name,omitempty"`
}

// TableName sets the database table name.
func (Transaction) TableName() string { return "transactions" }

func ValidTransactionType(value string) bool {
	switch TransactionType(value) {
	case TypeVisitPoints, TypeRewardRedeemed:
		return true
	default:
		return false
	}
}
