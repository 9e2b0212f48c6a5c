package comptroller

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// ToleranceBase is the denominator of the execution value-tolerance check and
// of the exec fee percentage.
const ToleranceBase = 10_000

// Config carries the scalar policy knobs shared by every fund. Whitelists and
// mortgage tiers live in their own tables.
type Config struct {
	Implementation    common.Address `json:"implementation"`
	ExecAction        common.Address `json:"execAction"`
	ExecFeeCollector  common.Address `json:"execFeeCollector"`
	ExecFeePercentage uint64         `json:"execFeePercentage"`
	PendingLiquidator common.Address `json:"pendingLiquidator"`
	PendingExpiration int64          `json:"pendingExpiration"`
	AssetCapacity     int            `json:"assetCapacity"`
	ValueTolerance    uint64         `json:"valueTolerance"`
	InitialAssetCheck bool           `json:"initialAssetCheck"`
	Halted            bool           `json:"halted"`
}

// Clone returns a deep copy of the config.
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}
	clone := *c
	return &clone
}

// MortgageTier is the bond a creator must stake to finalize a fund at the
// given risk level.
type MortgageTier struct {
	Level  uint64   `json:"level"`
	Amount *big.Int `json:"amount"`
}
