package config

import (
	"errors"
	"fmt"
	"log"
	"strings"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/gosimple/slug"
	"github.com/spf13/viper"
)

// CommissionTier maps a band of cumulative paid sales (cents) to a base rate.
// MaxSales nil means the band is open-ended.
type CommissionTier struct {
	Name     string  `mapstructure:"name"`
	MinSales int64   `mapstructure:"minSales"`
	MaxSales *int64  `mapstructure:"maxSales"`
	Rate     float64 `mapstructure:"rate"`
}

// PerformanceBonus grants a flat rate bonus to vendors whose overall score is
// at or above MinScore. Bonuses are not cumulative.
type PerformanceBonus struct {
	MinScore float64 `mapstructure:"minScore"`
	Bonus    float64 `mapstructure:"bonus"`
}

// CommissionConfig is the versioned rule set consumed by the rate resolver and
// the payout batcher. It is passed by value so a calculation or recalculation
// run always works against one pinned snapshot.
type CommissionConfig struct {
	Version            string             `mapstructure:"version"`
	DefaultRate        float64            `mapstructure:"defaultRate"`
	MaxRate            float64            `mapstructure:"maxRate"`
	Tiers              []CommissionTier   `mapstructure:"tiers"`
	CategoryRates      map[string]float64 `mapstructure:"categoryRates"`
	BonusesEnabled     bool               `mapstructure:"bonusesEnabled"`
	PerformanceBonuses []PerformanceBonus `mapstructure:"performanceBonuses"`
	PayoutFeeRate      float64            `mapstructure:"payoutFeeRate"`
	RecalcEpsilonCents int64              `mapstructure:"recalcEpsilonCents"`
}

// TierFor returns the tier whose band contains totalPaidSales. Tiers are
// evaluated in configuration order; the first match wins even if bands were
// misconfigured to overlap.
func (c CommissionConfig) TierFor(totalPaidSales int64) (CommissionTier, bool) {
	for _, tier := range c.Tiers {
		if totalPaidSales < tier.MinSales {
			continue
		}
		if tier.MaxSales != nil && totalPaidSales > *tier.MaxSales {
			continue
		}
		return tier, true
	}
	return CommissionTier{}, false
}

// BaseRateFor returns the matching tier rate, or the default rate when no
// band contains totalPaidSales.
func (c CommissionConfig) BaseRateFor(totalPaidSales int64) float64 {
	if tier, ok := c.TierFor(totalPaidSales); ok {
		return tier.Rate
	}
	return c.DefaultRate
}

// CategoryRateFor looks up the override rate for a product category. Category
// keys are slugified so "Fruits & Vegetables" and "fruits-and-vegetables" match.
func (c CommissionConfig) CategoryRateFor(category string) (float64, bool) {
	if len(c.CategoryRates) == 0 {
		return 0, false
	}
	rate, ok := c.CategoryRates[CategoryKey(category)]
	return rate, ok
}

// BonusFor returns the single highest bonus whose threshold is at or below the
// score. Returns zero when bonuses are disabled or nothing matches.
func (c CommissionConfig) BonusFor(score float64) float64 {
	if !c.BonusesEnabled {
		return 0
	}
	best := 0.0
	matched := false
	for _, b := range c.PerformanceBonuses {
		if score < b.MinScore {
			continue
		}
		if !matched || b.Bonus > best {
			best = b.Bonus
			matched = true
		}
	}
	return best
}

// CategoryKey normalizes a category name into its configuration key.
func CategoryKey(category string) string {
	return slug.Make(strings.TrimSpace(category))
}

func DefaultCommissionConfig() CommissionConfig {
	return CommissionConfig{
		Version:     "default",
		DefaultRate: 0.10,
		MaxRate:     0.30,
		Tiers: []CommissionTier{
			{Name: "bronze", MinSales: 0, MaxSales: int64Ptr(10_000_00), Rate: 0.15},
			{Name: "silver", MinSales: 10_000_01, MaxSales: int64Ptr(50_000_00), Rate: 0.12},
			{Name: "gold", MinSales: 50_000_01, MaxSales: int64Ptr(200_000_00), Rate: 0.10},
			{Name: "platinum", MinSales: 200_000_01, MaxSales: nil, Rate: 0.08},
		},
		CategoryRates:  map[string]float64{},
		BonusesEnabled: true,
		PerformanceBonuses: []PerformanceBonus{
			{MinScore: 75, Bonus: 0.02},
			{MinScore: 90, Bonus: 0.05},
		},
		PayoutFeeRate:      0.025,
		RecalcEpsilonCents: 1,
	}
}

func int64Ptr(v int64) *int64 { return &v }

// CommissionConfigHolder serves the current commission rule set and reloads it
// when the config file changes on disk.
type CommissionConfigHolder struct {
	current atomic.Value // holds CommissionConfig
}

func NewCommissionConfigHolder() (*CommissionConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("commission")
	v.SetConfigType("yml")
	v.AddConfigPath("/var/lib/vendopay/config") // Volume-mounted config
	v.AddConfigPath("/etc/vendopay")            // System config
	v.AddConfigPath(".")                        // Current directory (dev mode)

	v.SetEnvPrefix("VENDOPAY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := DefaultCommissionConfig()
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	} else {
		if err := v.UnmarshalKey("commission", &cfg); err != nil {
			return nil, err
		}
	}
	cfg = normalizeCommissionConfig(cfg)
	if err := validateCommissionConfig(cfg); err != nil {
		return nil, err
	}

	holder := &CommissionConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated := DefaultCommissionConfig()
		if err := v.UnmarshalKey("commission", &updated); err != nil {
			log.Printf("[commission-config] reload failed: %v", err)
			return
		}
		updated = normalizeCommissionConfig(updated)
		if err := validateCommissionConfig(updated); err != nil {
			log.Printf("[commission-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[commission-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *CommissionConfigHolder) Get() CommissionConfig {
	return h.current.Load().(CommissionConfig)
}

// Store replaces the current snapshot. Used by tests and admin tooling.
func (h *CommissionConfigHolder) Store(cfg CommissionConfig) {
	h.current.Store(normalizeCommissionConfig(cfg))
}

// NewStaticCommissionConfigHolder pins a snapshot without file watching.
func NewStaticCommissionConfigHolder(cfg CommissionConfig) *CommissionConfigHolder {
	holder := &CommissionConfigHolder{}
	holder.current.Store(normalizeCommissionConfig(cfg))
	return holder
}

func normalizeCommissionConfig(cfg CommissionConfig) CommissionConfig {
	normalized := make(map[string]float64, len(cfg.CategoryRates))
	for category, rate := range cfg.CategoryRates {
		key := CategoryKey(category)
		if key == "" {
			continue
		}
		normalized[key] = rate
	}
	cfg.CategoryRates = normalized
	return cfg
}

func validateCommissionConfig(cfg CommissionConfig) error {
	if cfg.DefaultRate < 0 || cfg.DefaultRate > cfg.MaxRate {
		return errors.New("commission.defaultRate must be within [0, maxRate]")
	}
	if cfg.MaxRate <= 0 || cfg.MaxRate > 1 {
		return errors.New("commission.maxRate must be within (0, 1]")
	}
	if cfg.PayoutFeeRate < 0 || cfg.PayoutFeeRate >= 1 {
		return errors.New("commission.payoutFeeRate must be within [0, 1)")
	}
	if cfg.RecalcEpsilonCents < 0 {
		return errors.New("commission.recalcEpsilonCents cannot be negative")
	}
	for i, tier := range cfg.Tiers {
		if tier.Rate < 0 || tier.Rate > 1 {
			return fmt.Errorf("commission.tiers[%d].rate must be within [0, 1]", i)
		}
		if tier.MaxSales != nil && *tier.MaxSales < tier.MinSales {
			return fmt.Errorf("commission.tiers[%d] has maxSales below minSales", i)
		}
	}
	for i, bonus := range cfg.PerformanceBonuses {
		if bonus.Bonus < 0 {
			return fmt.Errorf("commission.performanceBonuses[%d].bonus cannot be negative", i)
		}
	}
	for category, rate := range cfg.CategoryRates {
		if rate < 0 || rate > 1 {
			return fmt.Errorf("commission.categoryRates[%s] must be within [0, 1]", category)
		}
	}
	return nil
}
