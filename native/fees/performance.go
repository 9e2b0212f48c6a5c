package fees

import (
	"math/big"

	"github.com/holiman/uint256"

	nativecommon "folio/native/common"
)

// MinCrystallizationPeriod is the shortest crystallization period a fund may
// configure, in seconds.
const MinCrystallizationPeriod = 1800

// PerformanceState carries the high-water-mark bookkeeping of the performance
// fee for one fund. Prices are Q64.64 gross share prices. OutstandingShares is
// the running fee claim held in the fund's outstanding account between
// crystallizations; it is recomputed on every share-price-affecting event and
// only moves to the manager at crystallization.
type PerformanceState struct {
	Rate                  uint64   `json:"rate"`
	CrystallizationPeriod int64    `json:"crystallizationPeriod"`
	LastCrystallization   int64    `json:"lastCrystallization"`
	HWM64x64              *big.Int `json:"hwm"`
	LastPrice64x64        *big.Int `json:"lastPrice"`
	OutstandingShares     *big.Int `json:"outstandingShares"`
}

// NewPerformanceState validates the rate and crystallization period and seeds
// the high-water mark at the 1:1 bootstrap share price.
func NewPerformanceState(rate uint64, period, now int64) (*PerformanceState, error) {
	if rate >= FeeBase {
		return nil, nativecommon.PerformanceFeeRateOutOfRange
	}
	if period < MinCrystallizationPeriod {
		return nil, nativecommon.PerformanceFeeCrystallizationShort
	}
	return &PerformanceState{
		Rate:                  rate,
		CrystallizationPeriod: period,
		LastCrystallization:   now,
		HWM64x64:              fixOne.ToBig(),
		LastPrice64x64:        fixOne.ToBig(),
		OutstandingShares:     big.NewInt(0),
	}, nil
}

// Update recomputes the outstanding fee claim from the current gross asset
// value and the net share supply (total shares excluding the outstanding
// account). It returns the delta to apply to the outstanding account: a
// positive count mints, a negative count burns back excess claim after a
// drawdown. A drawdown to or below the high-water mark always drives the
// claim to zero.
func (s *PerformanceState) Update(grossAssetValue, totalShares *big.Int) (*big.Int, error) {
	if s == nil {
		return big.NewInt(0), nil
	}
	if s.OutstandingShares == nil {
		s.OutstandingShares = big.NewInt(0)
	}
	if totalShares == nil || totalShares.Sign() == 0 {
		s.LastPrice64x64 = fixOne.ToBig()
		return s.retarget(big.NewInt(0)), nil
	}

	price, err := sharePrice64(grossAssetValue, totalShares)
	if err != nil {
		return nil, err
	}
	s.LastPrice64x64 = price.ToBig()

	hwm, err := fromBig(s.HWM64x64)
	if err != nil {
		return nil, err
	}
	if s.Rate == 0 || !price.Gt(hwm) {
		return s.retarget(big.NewInt(0)), nil
	}

	growth := new(uint256.Int).Sub(price, hwm)
	feePerShare, overflow := new(uint256.Int).MulOverflow(growth, uint256.NewInt(s.Rate))
	if overflow {
		return nil, errFixOverflow
	}
	feePerShare.Div(feePerShare, uint256.NewInt(FeeBase))
	feeTotal := new(big.Int).Mul(feePerShare.ToBig(), totalShares)
	feeTotal.Rsh(feeTotal, 64)

	denom := new(big.Int).Sub(grossAssetValue, feeTotal)
	if denom.Sign() <= 0 {
		return s.retarget(big.NewInt(0)), nil
	}
	target := new(big.Int).Mul(feeTotal, totalShares)
	target.Div(target, denom)
	return s.retarget(target), nil
}

// retarget replaces the outstanding claim and returns the signed delta.
func (s *PerformanceState) retarget(target *big.Int) *big.Int {
	delta := new(big.Int).Sub(target, s.OutstandingShares)
	s.OutstandingShares = target
	return delta
}

// NextCrystallization returns the earliest timestamp Crystallize will accept.
func (s *PerformanceState) NextCrystallization() int64 {
	return s.LastCrystallization + s.CrystallizationPeriod
}

// Crystallizable reports whether a crystallization period has fully elapsed.
func (s *PerformanceState) Crystallizable(now int64) bool {
	return s != nil && now >= s.NextCrystallization()
}

// Crystallize settles the outstanding claim. It refreshes the claim against
// the given valuation, returns the share count to transfer from the
// outstanding account to the manager, resets the high-water mark with the
// dilution correction (2*feeBase-rate)/feeBase applied to max(hwm, price),
// and advances the crystallization anchor by whole periods.
func (s *PerformanceState) Crystallize(grossAssetValue, totalShares *big.Int, now int64) (*big.Int, *big.Int, error) {
	if !s.Crystallizable(now) {
		return nil, nil, nativecommon.PerformanceFeeNotCrystallizable
	}
	delta, err := s.Update(grossAssetValue, totalShares)
	if err != nil {
		return nil, nil, err
	}
	claimed := s.OutstandingShares
	s.OutstandingShares = big.NewInt(0)

	price, err := fromBig(s.LastPrice64x64)
	if err != nil {
		return nil, nil, err
	}
	hwm, err := fromBig(s.HWM64x64)
	if err != nil {
		return nil, nil, err
	}
	if price.Gt(hwm) {
		hwm = price
	}
	corrected := new(big.Int).Mul(hwm.ToBig(), big.NewInt(2*FeeBase-int64(s.Rate)))
	s.HWM64x64 = corrected.Div(corrected, big.NewInt(FeeBase))

	elapsed := now - s.LastCrystallization
	s.LastCrystallization += (elapsed / s.CrystallizationPeriod) * s.CrystallizationPeriod
	return delta, claimed, nil
}

// sharePrice64 returns the Q64.64 gross share price grossAssetValue/shares.
func sharePrice64(grossAssetValue, totalShares *big.Int) (*uint256.Int, error) {
	gav, err := fromBig(grossAssetValue)
	if err != nil {
		return nil, err
	}
	shares, err := fromBig(totalShares)
	if err != nil {
		return nil, err
	}
	return fixDiv(gav, shares)
}
