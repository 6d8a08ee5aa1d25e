package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status is the lifecycle state of a payout. Completed is terminal; failed
// and cancelled payouts release their claimed commissions.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
	StatusCancelled  Status = "cancelled"
)

// CanTransition reports whether a payout status change is allowed.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusProcessing || to == StatusCompleted || to == StatusFailed || to == StatusCancelled
	case StatusProcessing:
		return to == StatusCompleted || to == StatusFailed || to == StatusCancelled
	default:
		return false
	}
}

// Payment methods accepted at payout creation.
const (
	MethodBankTransfer = "bank_transfer"
	MethodCard         = "card"
	MethodPayPal       = "paypal"
)

// Payout is one batched transfer of net commission earnings to a vendor. The
// set of commissions referencing a payout is fixed at creation time and rows
// are never deleted.
type Payout struct {
	ID               snowflake.ID `json:"id" gorm:"primaryKey"`
	Number           string       `json:"number" gorm:"type:text;not null;uniqueIndex"`
	VendorID         snowflake.ID `json:"vendor_id" gorm:"not null;index"`
	TotalAmount      int64        `json:"total_amount" gorm:"not null"`
	CommissionCount  int          `json:"commission_count" gorm:"not null"`
	PeriodStart      time.Time    `json:"period_start" gorm:"not null"`
	PeriodEnd        time.Time    `json:"period_end" gorm:"not null"`
	FeeRate          float64      `json:"fee_rate" gorm:"not null"`
	FeeAmount        int64        `json:"fee_amount" gorm:"not null"`
	NetAmount        int64        `json:"net_amount" gorm:"not null"`
	Status           Status       `json:"status" gorm:"type:text;not null;index"`
	PaymentMethod    string       `json:"payment_method" gorm:"type:text;not null"`
	PaymentReference *string      `json:"payment_reference" gorm:"type:text"`
	FailureReason    *string      `json:"failure_reason" gorm:"type:text"`
	CreatedAt        time.Time    `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
	ProcessedAt      *time.Time   `json:"processed_at"`
	UpdatedAt        time.Time    `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Payout) TableName() string { return "payouts" }
