package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	commissiondomain "github.com/vendopay/vendopay/internal/commission/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() commissiondomain.Repository {
	return &repo{}
}

const commissionColumns = `id, vendor_id, order_id, product_id, category, sale_amount, rate, amount, status, payout_id, created_at, calculated_at, paid_at, updated_at`

func (r *repo) Insert(ctx context.Context, db *gorm.DB, c *commissiondomain.Commission) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO commissions (`+commissionColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID,
		c.VendorID,
		c.OrderID,
		c.ProductID,
		c.Category,
		c.SaleAmount,
		c.Rate,
		c.Amount,
		c.Status,
		c.PayoutID,
		c.CreatedAt,
		c.CalculatedAt,
		c.PaidAt,
		c.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*commissiondomain.Commission, error) {
	var c commissiondomain.Commission
	err := db.WithContext(ctx).Raw(
		`SELECT `+commissionColumns+` FROM commissions WHERE id = ?`,
		id,
	).Scan(&c).Error
	if err != nil {
		return nil, err
	}
	if c.ID == 0 {
		return nil, nil
	}
	return &c, nil
}

func (r *repo) FindForVendor(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, ids []snowflake.ID) ([]commissiondomain.Commission, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []commissiondomain.Commission
	err := db.WithContext(ctx).Raw(
		`SELECT `+commissionColumns+` FROM commissions WHERE vendor_id = ? AND id IN ?`,
		vendorID,
		ids,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter commissiondomain.ListFilter) ([]*commissiondomain.Commission, error) {
	query := `SELECT ` + commissionColumns + ` FROM commissions WHERE vendor_id = ?`
	args := []any{filter.VendorID}

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, filter.Status)
	}
	if filter.ProductID != 0 {
		query += ` AND product_id = ?`
		args = append(args, filter.ProductID)
	}
	if filter.DateFrom != nil {
		query += ` AND created_at >= ?`
		args = append(args, filter.DateFrom.UTC())
	}
	if filter.DateTo != nil {
		query += ` AND created_at <= ?`
		args = append(args, filter.DateTo.UTC())
	}
	if filter.Cursor != nil {
		query += ` AND (created_at < ? OR (created_at = ? AND id < ?))`
		args = append(args, filter.Cursor.CreatedAt, filter.Cursor.CreatedAt, filter.Cursor.ID)
	}

	query += ` ORDER BY created_at DESC, id DESC`
	if filter.Limit > 0 {
		query += ` LIMIT ?`
		// One extra row so the caller can detect another page.
		args = append(args, filter.Limit+1)
	}

	var items []*commissiondomain.Commission
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) ListRecalculable(ctx context.Context, db *gorm.DB, vendorID snowflake.ID, from *time.Time) ([]commissiondomain.Commission, error) {
	query := `SELECT ` + commissionColumns + ` FROM commissions
		 WHERE vendor_id = ? AND status = ? AND payout_id IS NULL`
	args := []any{vendorID, commissiondomain.StatusCalculated}
	if from != nil {
		query += ` AND created_at >= ?`
		args = append(args, from.UTC())
	}
	query += ` ORDER BY created_at ASC`

	var items []commissiondomain.Commission
	if err := db.WithContext(ctx).Raw(query, args...).Scan(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) UpdateRateAndAmount(ctx context.Context, db *gorm.DB, id snowflake.ID, rate float64, amount int64, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE commissions SET rate = ?, amount = ?, updated_at = ?
		 WHERE id = ? AND status = ? AND payout_id IS NULL`,
		rate,
		amount,
		now,
		id,
		commissiondomain.StatusCalculated,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repo) UpdateStatus(ctx context.Context, db *gorm.DB, id snowflake.ID, status commissiondomain.Status, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE commissions SET status = ?, updated_at = ? WHERE id = ?`,
		status,
		now,
		id,
	).Error
}

func (r *repo) Claim(ctx context.Context, db *gorm.DB, id, vendorID, payoutID snowflake.ID, now time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE commissions SET payout_id = ?, updated_at = ?
		 WHERE id = ? AND vendor_id = ? AND status = ? AND payout_id IS NULL`,
		payoutID,
		now,
		id,
		vendorID,
		commissiondomain.StatusCalculated,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func (r *repo) ReleaseClaims(ctx context.Context, db *gorm.DB, payoutID snowflake.ID, now time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE commissions SET payout_id = NULL, updated_at = ?
		 WHERE payout_id = ? AND status = ?`,
		now,
		payoutID,
		commissiondomain.StatusCalculated,
	).Error
}

func (r *repo) MarkPaidByPayout(ctx context.Context, db *gorm.DB, payoutID snowflake.ID, paidAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE commissions SET status = ?, paid_at = ?, updated_at = ?
		 WHERE payout_id = ? AND status = ?`,
		commissiondomain.StatusPaid,
		paidAt,
		paidAt,
		payoutID,
		commissiondomain.StatusCalculated,
	).Error
}
