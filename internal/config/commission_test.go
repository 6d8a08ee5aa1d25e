package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBaseRateFor(t *testing.T) {
	cfg := DefaultCommissionConfig()

	cases := []struct {
		name  string
		total int64
		want  float64
	}{
		{"zero sales", 0, 0.15},
		{"bronze ceiling", 10_000_00, 0.15},
		{"silver floor", 10_000_01, 0.12},
		{"gold", 100_000_00, 0.10},
		{"platinum open ended", 900_000_00, 0.08},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.InDelta(t, tc.want, cfg.BaseRateFor(tc.total), 1e-9)
		})
	}
}

func TestTierFor(t *testing.T) {
	cfg := DefaultCommissionConfig()

	tier, ok := cfg.TierFor(50_000)
	require.True(t, ok)
	assert.Equal(t, "bronze", tier.Name)

	tier, ok = cfg.TierFor(900_000_00)
	require.True(t, ok)
	assert.Equal(t, "platinum", tier.Name)

	_, ok = CommissionConfig{
		Tiers: []CommissionTier{{Name: "vip", MinSales: 1_000_000, Rate: 0.05}},
	}.TierFor(10)
	assert.False(t, ok)
}

func TestCategoryKey(t *testing.T) {
	assert.Equal(t, "fruits-and-vegetables", CategoryKey("Fruits & Vegetables"))
	assert.Equal(t, "electronics", CategoryKey("  Electronics "))
}

func TestBaseRateForFirstMatchWins(t *testing.T) {
	ten := int64(10)
	cfg := CommissionConfig{
		DefaultRate: 0.05,
		Tiers: []CommissionTier{
			{Name: "a", MinSales: 0, MaxSales: &ten, Rate: 0.20},
			{Name: "b", MinSales: 0, MaxSales: &ten, Rate: 0.10}, // overlapping band
		},
	}
	assert.InDelta(t, 0.20, cfg.BaseRateFor(5), 1e-9)
}

func TestBaseRateForFallsBackToDefault(t *testing.T) {
	cfg := CommissionConfig{
		DefaultRate: 0.07,
		Tiers: []CommissionTier{
			{Name: "high rollers", MinSales: 1_000_000, Rate: 0.05},
		},
	}
	assert.InDelta(t, 0.07, cfg.BaseRateFor(10), 1e-9)
}

func TestCategoryRateForNormalizesKeys(t *testing.T) {
	cfg := normalizeCommissionConfig(CommissionConfig{
		CategoryRates: map[string]float64{
			"Fruits & Vegetables": 0.08,
		},
	})

	rate, ok := cfg.CategoryRateFor("fruits-and-vegetables")
	require.True(t, ok)
	assert.InDelta(t, 0.08, rate, 1e-9)

	rate, ok = cfg.CategoryRateFor("  Fruits & Vegetables ")
	require.True(t, ok)
	assert.InDelta(t, 0.08, rate, 1e-9)

	_, ok = cfg.CategoryRateFor("hardware")
	assert.False(t, ok)
}

func TestBonusFor(t *testing.T) {
	cfg := DefaultCommissionConfig()

	assert.Zero(t, cfg.BonusFor(74.9))
	assert.InDelta(t, 0.02, cfg.BonusFor(75), 1e-9)
	assert.InDelta(t, 0.02, cfg.BonusFor(89.9), 1e-9)
	assert.InDelta(t, 0.05, cfg.BonusFor(90), 1e-9)
	assert.InDelta(t, 0.05, cfg.BonusFor(100), 1e-9)

	cfg.BonusesEnabled = false
	assert.Zero(t, cfg.BonusFor(100))
}

func TestValidateCommissionConfig(t *testing.T) {
	require.NoError(t, validateCommissionConfig(DefaultCommissionConfig()))

	bad := DefaultCommissionConfig()
	bad.DefaultRate = 0.5
	bad.MaxRate = 0.3
	assert.Error(t, validateCommissionConfig(bad))

	bad = DefaultCommissionConfig()
	bad.MaxRate = 1.5
	assert.Error(t, validateCommissionConfig(bad))

	bad = DefaultCommissionConfig()
	bad.PayoutFeeRate = 1
	assert.Error(t, validateCommissionConfig(bad))

	bad = DefaultCommissionConfig()
	bad.RecalcEpsilonCents = -1
	assert.Error(t, validateCommissionConfig(bad))

	bad = DefaultCommissionConfig()
	low := int64(5)
	bad.Tiers = []CommissionTier{{MinSales: 10, MaxSales: &low, Rate: 0.1}}
	assert.Error(t, validateCommissionConfig(bad))

	bad = DefaultCommissionConfig()
	bad.CategoryRates = map[string]float64{"books": 1.2}
	assert.Error(t, validateCommissionConfig(bad))
}

func TestStaticHolderStoresSnapshot(t *testing.T) {
	holder := NewStaticCommissionConfigHolder(DefaultCommissionConfig())
	assert.Equal(t, "default", holder.Get().Version)

	updated := DefaultCommissionConfig()
	updated.Version = "v2"
	holder.Store(updated)
	assert.Equal(t, "v2", holder.Get().Version)
}
