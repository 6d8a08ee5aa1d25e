package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
)

// PerformanceSnapshot is the externally owned score record. The engine only
// reads the latest overall score per vendor.
type PerformanceSnapshot struct {
	ID           snowflake.ID `json:"id" gorm:"primaryKey"`
	VendorID     snowflake.ID `json:"vendor_id" gorm:"not null;index"`
	OverallScore float64      `json:"overall_score" gorm:"not null"`
	CapturedAt   time.Time    `json:"captured_at" gorm:"not null;index"`
}

// TableName sets the database table name.
func (PerformanceSnapshot) TableName() string { return "vendor_performance_snapshots" }

// Store exposes the vendor reads consumed by the rate resolver.
type Store interface {
	// PaidSalesTotal is the cumulative sale amount (cents) of the vendor's
	// paid commissions.
	PaidSalesTotal(ctx context.Context, vendorID snowflake.ID) (int64, error)
	// PerformanceScore is the vendor's latest overall score (0-100).
	PerformanceScore(ctx context.Context, vendorID snowflake.ID) (float64, error)
}

var (
	ErrNoPerformanceSnapshot = errors.New("no_performance_snapshot")
)
