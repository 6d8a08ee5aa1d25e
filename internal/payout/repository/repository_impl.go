package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	payoutdomain "github.com/vendopay/vendopay/internal/payout/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() payoutdomain.Repository {
	return &repo{}
}

const payoutColumns = `id, number, vendor_id, total_amount, commission_count, period_start, period_end, fee_rate, fee_amount, net_amount, status, payment_method, payment_reference, failure_reason, created_at, processed_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, p *payoutdomain.Payout) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO payouts (`+payoutColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.Number,
		p.VendorID,
		p.TotalAmount,
		p.CommissionCount,
		p.PeriodStart,
		p.PeriodEnd,
		p.FeeRate,
		p.FeeAmount,
		p.NetAmount,
		p.Status,
		p.PaymentMethod,
		p.PaymentReference,
		p.FailureReason,
		p.CreatedAt,
		p.ProcessedAt,
		p.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*payoutdomain.Payout, error) {
	var p payoutdomain.Payout
	err := db.WithContext(ctx).Raw(
		`SELECT `+payoutColumns+` FROM payouts WHERE id = ?`,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) ListByVendor(ctx context.Context, db *gorm.DB, vendorID snowflake.ID) ([]payoutdomain.Payout, error) {
	var items []payoutdomain.Payout
	err := db.WithContext(ctx).Raw(
		`SELECT `+payoutColumns+` FROM payouts WHERE vendor_id = ? ORDER BY created_at DESC`,
		vendorID,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, update payoutdomain.StatusUpdate, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE payouts
		 SET status = ?, payment_reference = COALESCE(?, payment_reference),
		     failure_reason = COALESCE(?, failure_reason),
		     processed_at = COALESCE(?, processed_at),
		     updated_at = ?
		 WHERE id = ?`,
		update.Status,
		update.PaymentReference,
		update.FailureReason,
		update.ProcessedAt,
		now,
		id,
	).Error
}
