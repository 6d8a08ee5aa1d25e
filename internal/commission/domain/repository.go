package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	VendorID  snowflake.ID
	Status    Status
	ProductID snowflake.ID
	DateFrom  *time.Time
	DateTo    *time.Time
	Cursor    *Cursor
	Limit     int
}

type Cursor struct {
	ID        snowflake.ID
	CreatedAt time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, commission *Commission) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Commission, error)
	// FindForVendor loads the given commissions restricted to one vendor.
	FindForVendor(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, ids []snowflake.ID) ([]Commission, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]*Commission, error)
	// ListRecalculable returns calculated, unclaimed commissions of a vendor,
	// optionally created on or after from.
	ListRecalculable(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, from *time.Time) ([]Commission, error)
	// UpdateRateAndAmount rewrites a commission's rate and amount only while it
	// is still calculated and unclaimed. Returns false when the conditional
	// update matched no row (claimed or transitioned since it was read).
	UpdateRateAndAmount(ctx context.Context, db *gorm.DB, id snowflake.ID, rate float64, amount int64, now time.Time) (bool, error)
	UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status Status, now time.Time) error

	// Claim atomically sets the payout reference on a commission that is
	// still calculated and unclaimed. Returns false when the conditional
	// update matched no row (claim race lost or state changed).
	Claim(ctx context.Context, db *gorm.DB, id, vendorID, payoutID snowflake.ID, now time.Time) (bool, error)
	// ReleaseClaims clears the payout reference of every commission claimed
	// by the payout, leaving them calculated and claimable again.
	ReleaseClaims(ctx context.Context, db *gorm.DB, payoutID snowflake.ID, now time.Time) error
	// MarkPaidByPayout flips every commission claimed by the payout to paid
	// and stamps the paid timestamp.
	MarkPaidByPayout(ctx context.Context, db *gorm.DB, payoutID snowflake.ID, paidAt time.Time) error
}
