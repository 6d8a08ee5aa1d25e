package service

import (
	"context"
	"strings"

	commissiondomain "github.com/vendopay/vendopay/internal/commission/domain"
	"go.uber.org/zap"
)

// Recalculate re-derives rates for a vendor's calculated, unclaimed
// commissions against the current configuration snapshot. Amounts are only
// rewritten when the delta clears the configured epsilon, so re-running with
// unchanged rules is a no-op. Claimed or paid commissions are never touched.
func (s *Service) Recalculate(ctx context.Context, req commissiondomain.RecalculateRequest) (*commissiondomain.RecalculateResult, error) {
	vendorID, err := commissiondomain.ParseID(strings.TrimSpace(req.VendorID))
	if err != nil || vendorID == 0 {
		return nil, commissiondomain.ErrInvalidVendor
	}

	cfg := s.config.Get()

	items, err := s.repo.ListRecalculable(ctx, s.db, vendorID, req.FromDate)
	if err != nil {
		return nil, err
	}

	result := &commissiondomain.RecalculateResult{ConfigVersion: cfg.Version}
	for i := range items {
		item := &items[i]
		resolution := s.resolveRate(ctx, vendorID, item.Category, cfg)
		newAmount := commissiondomain.AmountFor(item.SaleAmount, resolution.Rate)

		delta := newAmount - item.Amount
		if abs64(delta) < cfg.RecalcEpsilonCents {
			continue
		}

		now := s.clock.Now()
		updated, err := s.repo.UpdateRateAndAmount(ctx, s.db, item.ID, resolution.Rate, newAmount, now)
		if err != nil {
			s.log.Warn("failed to rewrite commission during recalculation",
				zap.String("commission_id", item.ID.String()),
				zap.Error(err),
			)
			continue
		}
		// A payout may have claimed the commission since it was listed; its
		// amount is now fixed for that payout's totals.
		if !updated {
			continue
		}

		result.UpdatedCount++
		result.TotalAdjustment += delta
		if s.metrics != nil {
			s.metrics.CommissionsRecalced.Inc()
		}
	}

	vendorRef := vendorID
	targetID := vendorID.String()
	_ = s.audit.AuditLog(ctx, &vendorRef, "commission.recalculated", "vendor", &targetID, map[string]any{
		"updated_count":    result.UpdatedCount,
		"total_adjustment": result.TotalAdjustment,
		"config_version":   cfg.Version,
	})

	s.log.Info("recalculation finished",
		zap.String("vendor_id", vendorID.String()),
		zap.Int("updated", result.UpdatedCount),
		zap.Int64("adjustment", result.TotalAdjustment),
	)

	return result, nil
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
