package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// StatusUpdate carries the mutable settlement fields of a payout.
type StatusUpdate struct {
	Status           Status
	PaymentReference *string
	FailureReason    *string
	ProcessedAt      *time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, payout *Payout) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Payout, error)
	ListByVendor(ctx context.Context, db *gorm.DB, vendorID snowflake.ID) ([]Payout, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, update StatusUpdate, now time.Time) error
}
