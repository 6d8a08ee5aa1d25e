package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	vendordomain "github.com/vendopay/vendopay/internal/vendors/domain"
	"go.uber.org/fx"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB *gorm.DB
}

type store struct {
	db *gorm.DB
}

func Provide(p Params) vendordomain.Store {
	return &store{db: p.DB}
}

func (s *store) PaidSalesTotal(ctx context.Context, vendorID snowflake.ID) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Raw(
		`SELECT COALESCE(SUM(sale_amount), 0) FROM commissions WHERE vendor_id = ? AND status = 'paid'`,
		vendorID,
	).Scan(&total).Error
	if err != nil {
		return 0, err
	}
	return total, nil
}

func (s *store) PerformanceScore(ctx context.Context, vendorID snowflake.ID) (float64, error) {
	var snapshot vendordomain.PerformanceSnapshot
	err := s.db.WithContext(ctx).Raw(
		`SELECT id, vendor_id, overall_score, captured_at
		 FROM vendor_performance_snapshots
		 WHERE vendor_id = ?
		 ORDER BY captured_at DESC
		 LIMIT 1`,
		vendorID,
	).Scan(&snapshot).Error
	if err != nil {
		return 0, err
	}
	if snapshot.ID == 0 {
		return 0, vendordomain.ErrNoPerformanceSnapshot
	}
	return snapshot.OverallScore, nil
}
