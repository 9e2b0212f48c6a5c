package config

import (
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"folio/native/fees"
)

const toleranceBase = 10_000

// ValidateConfig rejects configurations the engines would refuse at runtime.
func ValidateConfig(cfg *Config) error {
	if cfg.Owner != "" && !common.IsHexAddress(cfg.Owner) {
		return fmt.Errorf("owner: malformed address %q", cfg.Owner)
	}
	if cfg.MortgageToken != "" && !common.IsHexAddress(cfg.MortgageToken) {
		return fmt.Errorf("mortgage_token: malformed address %q", cfg.MortgageToken)
	}
	if cfg.Oracle.StalePeriodSeconds <= 0 {
		return fmt.Errorf("oracle: stale_period_seconds <= 0")
	}
	if cfg.Fund.PendingExpirationSeconds <= 0 {
		return fmt.Errorf("fund: pending_expiration_seconds <= 0")
	}
	if cfg.Fund.ValueTolerance > toleranceBase {
		return fmt.Errorf("fund: value_tolerance > %d", toleranceBase)
	}
	if cfg.Fund.ExecFeePercentage > toleranceBase {
		return fmt.Errorf("fund: exec_fee_percentage > %d", toleranceBase)
	}
	if cfg.Fund.AssetCapacity <= 0 {
		return fmt.Errorf("fund: asset_capacity <= 0")
	}
	if cfg.Fees.DefaultManagementRate >= fees.FeeBase {
		return fmt.Errorf("fees: default_management_rate >= %d", fees.FeeBase)
	}
	if cfg.Fees.DefaultPerformanceRate >= fees.FeeBase {
		return fmt.Errorf("fees: default_performance_rate >= %d", fees.FeeBase)
	}
	if cfg.Fees.DefaultCrystallizationSeconds < fees.MinCrystallizationPeriod {
		return fmt.Errorf("fees: default_crystallization_seconds < %d", fees.MinCrystallizationPeriod)
	}
	levels := make(map[uint64]bool, len(cfg.MortgageTiers))
	for _, tier := range cfg.MortgageTiers {
		if levels[tier.Level] {
			return fmt.Errorf("mortgage_tiers: duplicate level %d", tier.Level)
		}
		levels[tier.Level] = true
		if _, err := tier.BondAmount(); err != nil {
			return err
		}
	}
	return nil
}
