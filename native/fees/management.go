package fees

import (
	"math/big"

	"github.com/holiman/uint256"

	nativecommon "folio/native/common"
)

// FeeBase is the denominator shared by every fee rate in the protocol.
const FeeBase = 10_000

// secondsPerYear anchors the continuous compounding of the management fee.
const secondsPerYear = 31_536_000

// ManagementState carries the bookkeeping of the time-proportional management
// fee for one fund. Rate is annual, in FeeBase units; EffectiveRate64x64 is
// the precomputed per-second continuous rate ln(feeBase/(feeBase-r))/year so
// the hot accrual path is a single exponential.
type ManagementState struct {
	Rate               uint64   `json:"rate"`
	EffectiveRate64x64 *big.Int `json:"effectiveRate"`
	LastClaimTime      int64    `json:"lastClaimTime"`
}

// NewManagementState validates the annual rate and precomputes the effective
// continuous rate. Rates at or above FeeBase are rejected.
func NewManagementState(rate uint64, now int64) (*ManagementState, error) {
	if rate >= FeeBase {
		return nil, nativecommon.ManagementFeeRateOutOfRange
	}
	state := &ManagementState{
		Rate:               rate,
		EffectiveRate64x64: big.NewInt(0),
		LastClaimTime:      now,
	}
	if rate == 0 {
		return state, nil
	}
	ratio, err := fixDiv(uint256.NewInt(FeeBase), uint256.NewInt(FeeBase-rate))
	if err != nil {
		return nil, err
	}
	lnRatio, err := fixLn(ratio)
	if err != nil {
		return nil, err
	}
	perSecond := lnRatio.Div(lnRatio, uint256.NewInt(secondsPerYear))
	state.EffectiveRate64x64 = perSecond.ToBig()
	return state, nil
}

// Claim computes the share dilution accrued since the last claim and advances
// the claim timestamp. The returned amount is the share count to mint to the
// manager: totalShares x (exp(rate*dt) - 1), floored. A zero rate or zero
// elapsed time mints nothing.
func (s *ManagementState) Claim(totalShares *big.Int, now int64) (*big.Int, error) {
	if s == nil {
		return big.NewInt(0), nil
	}
	elapsed := now - s.LastClaimTime
	if elapsed <= 0 {
		return big.NewInt(0), nil
	}
	s.LastClaimTime = now
	if s.Rate == 0 || totalShares == nil || totalShares.Sign() == 0 {
		return big.NewInt(0), nil
	}

	effective, err := fromBig(s.EffectiveRate64x64)
	if err != nil {
		return nil, err
	}
	exponent, overflow := new(uint256.Int).MulOverflow(effective, uint256.NewInt(uint64(elapsed)))
	if overflow {
		return nil, errFixOverflow
	}
	factor, err := fixExp(exponent)
	if err != nil {
		return nil, err
	}
	if factor.Cmp(fixOne) <= 0 {
		return big.NewInt(0), nil
	}
	growth := factor.Sub(factor, fixOne)

	minted := new(big.Int).Mul(totalShares, growth.ToBig())
	return minted.Rsh(minted, 64), nil
}
