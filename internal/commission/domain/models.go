package domain

import (
	"math"
	"time"

	"github.com/bwmarrin/snowflake"
)

// Status is the lifecycle state of a commission. A commission claimed by a
// payout keeps the calculated status and carries a payout reference; it only
// becomes paid when the payout settles.
type Status string

const (
	StatusPending    Status = "pending"
	StatusCalculated Status = "calculated"
	StatusPaid       Status = "paid"
	StatusDisputed   Status = "disputed"
)

// CanTransition reports whether a status change is allowed. Nothing leaves
// paid except a dispute, and disputed is terminal.
func CanTransition(from, to Status) bool {
	switch from {
	case StatusPending:
		return to == StatusCalculated
	case StatusCalculated:
		return to == StatusPaid || to == StatusDisputed
	case StatusPaid:
		return to == StatusDisputed
	default:
		return false
	}
}

// Commission is the platform's earned cut of one sold line item. Exactly one
// commission exists per (order, product) pair; rows are never deleted.
type Commission struct {
	ID           snowflake.ID  `json:"id" gorm:"primaryKey"`
	VendorID     snowflake.ID  `json:"vendor_id" gorm:"not null;index"`
	OrderID      snowflake.ID  `json:"order_id" gorm:"not null;uniqueIndex:ux_commissions_order_product,priority:1"`
	ProductID    snowflake.ID  `json:"product_id" gorm:"not null;uniqueIndex:ux_commissions_order_product,priority:2"`
	Category     string        `json:"category" gorm:"type:text"`
	SaleAmount   int64         `json:"sale_amount" gorm:"not null"`
	Rate         float64       `json:"rate" gorm:"not null"`
	Amount       int64         `json:"amount" gorm:"not null"`
	Status       Status        `json:"status" gorm:"type:text;not null;index"`
	PayoutID     *snowflake.ID `json:"payout_id" gorm:"index"`
	CreatedAt    time.Time     `json:"created_at" gorm:"not null;default:CURRENT_TIMESTAMP;index"`
	CalculatedAt *time.Time    `json:"calculated_at"`
	PaidAt       *time.Time    `json:"paid_at"`
	UpdatedAt    time.Time     `json:"updated_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (Commission) TableName() string { return "commissions" }

// AmountFor computes the commission amount in cents for a sale at a rate,
// rounded half away from zero.
func AmountFor(saleAmount int64, rate float64) int64 {
	return int64(math.Round(float64(saleAmount) * rate))
}
