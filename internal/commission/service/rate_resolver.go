package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	commissiondomain "github.com/vendopay/vendopay/internal/commission/domain"
	"github.com/vendopay/vendopay/internal/config"
	"go.uber.org/zap"
)

// resolveRate assembles the effective commission rate for one sale against a
// pinned configuration snapshot:
//
//  1. tier base rate from the vendor's cumulative paid sales, first matching
//     tier in configuration order wins
//  2. category override, which only ever raises the effective base
//  3. single best performance bonus at or below the vendor's score
//  4. clamp to the configured ceiling
//
// Lookup failures degrade to the configured default rate instead of failing;
// rate resolution must never block order completion.
func (s *Service) resolveRate(ctx context.Context, vendorID snowflake.ID, category string, cfg config.CommissionConfig) commissiondomain.RateResolution {
	resolution := commissiondomain.RateResolution{ConfigVersion: cfg.Version}

	baseRate := cfg.DefaultRate
	usedDefault := true
	total, err := s.vendors.PaidSalesTotal(ctx, vendorID)
	if err != nil {
		s.log.Warn("paid sales lookup failed, using default rate",
			zap.String("vendor_id", vendorID.String()),
			zap.Error(err),
		)
	} else if tier, ok := cfg.TierFor(total); ok {
		baseRate = tier.Rate
		resolution.TierName = tier.Name
		usedDefault = false
	}
	resolution.BaseRate = baseRate
	resolution.UsedDefault = usedDefault

	effective := baseRate
	if categoryRate, ok := cfg.CategoryRateFor(category); ok {
		resolution.CategoryRate = categoryRate
		if categoryRate > effective {
			effective = categoryRate
		}
	}

	if cfg.BonusesEnabled {
		score, err := s.vendors.PerformanceScore(ctx, vendorID)
		if err != nil {
			s.log.Warn("performance score lookup failed, skipping bonus",
				zap.String("vendor_id", vendorID.String()),
				zap.Error(err),
			)
		} else {
			resolution.Bonus = cfg.BonusFor(score)
			effective += resolution.Bonus
		}
	}

	if effective > cfg.MaxRate {
		effective = cfg.MaxRate
	}
	if effective < 0 {
		effective = 0
	}
	resolution.Rate = effective

	return resolution
}
