package fund

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"folio/core/events"
	nativecommon "folio/native/common"
	"folio/observability"
)

// Execute hands the data to the configured ExecAction against the fund's
// execution vault, then requires the fund's value to survive within the
// comptroller's tolerance of its pre-call value. Assets the action dealt in
// join the tracked list under the usual permission and dust rules; a pending
// fund also attempts to settle from freshly realized liquidity.
func (e *Engine) Execute(caller common.Address, id common.Hash, data []byte) error {
	err := e.withFund(caller, id, func(record *Record) error {
		if caller != record.Manager {
			return nativecommon.FundNotPermittedCaller
		}
		if err := ensureStates(record, Executing, RedemptionPending); err != nil {
			return err
		}
		if e.action == nil {
			return errNilAction
		}
		if err := e.accrueManagementFee(record); err != nil {
			return err
		}
		pre, err := e.grossAssetValue(record)
		if err != nil {
			return err
		}

		dealing, err := e.action.Exec(record.Vault, data)
		if err != nil {
			return err
		}

		// Dealt assets join the tracked list before the post-valuation so a
		// diversifying swap is valued on both legs.
		for _, asset := range dealing {
			if err := e.addAsset(record, asset); err != nil {
				return err
			}
		}
		post, err := e.grossAssetValue(record)
		if err != nil {
			return err
		}
		cfg, err := e.comptroller.Config()
		if err != nil {
			return err
		}
		floor := new(big.Int).Mul(pre, new(big.Int).SetUint64(cfg.ValueTolerance))
		if new(big.Int).Mul(post, big.NewInt(toleranceBase)).Cmp(floor) < 0 {
			observability.Funds().RecordToleranceFailure()
			return nativecommon.ExecutionModuleInsufficientValue
		}

		if err := e.updatePerformanceFee(record, effectiveGAV(record, post)); err != nil {
			return err
		}
		e.emitter.Emit(events.FundExecuted{Fund: record.ID, PreValue: pre, PostValue: post})

		if record.State == RedemptionPending {
			if _, err := e.trySettle(record); err != nil {
				return err
			}
		}
		return nil
	})
	observability.Funds().RecordOperation("execute", err)
	return err
}

// Liquidate forces an expired RedemptionPending fund into Liquidating and
// hands its management to the comptroller's designated liquidator. The call
// fails strictly before pendingStartTime + pendingExpiration and succeeds at
// that instant and after.
func (e *Engine) Liquidate(caller common.Address, id common.Hash) error {
	err := e.withFund(caller, id, func(record *Record) error {
		if err := ensureStates(record, RedemptionPending); err != nil {
			return err
		}
		if record.PendingStartTime == 0 {
			return nativecommon.ShareModulePendingNotStarted
		}
		cfg, err := e.comptroller.Config()
		if err != nil {
			return err
		}
		if e.nowFn() < record.PendingStartTime+cfg.PendingExpiration {
			return nativecommon.ShareModulePendingNotExpired
		}
		record.Manager = cfg.PendingLiquidator
		e.transition(record, Liquidating)
		return nil
	})
	observability.Funds().RecordOperation("liquidate", err)
	return err
}

// Close winds the fund down. Every strategy position must already be unwound
// so the tracked list contains only the denomination, and any deferred
// redemption queue must settle out of the remaining reserve before the
// mortgage bond returns to the current manager (the liquidator, after a
// liquidation).
func (e *Engine) Close(caller common.Address, id common.Hash) error {
	err := e.withFund(caller, id, func(record *Record) error {
		if caller != record.Manager {
			return nativecommon.FundNotPermittedCaller
		}
		if err := ensureStates(record, Executing, RedemptionPending, Liquidating); err != nil {
			return err
		}
		if len(record.Assets) != 1 || record.Assets[0] != record.Denomination {
			return nativecommon.AssetModuleDifferentAssetRemaining
		}
		if record.PendingTotal.Sign() > 0 {
			settled, err := e.trySettle(record)
			if err != nil {
				return err
			}
			if !settled {
				return nativecommon.ShareModuleInsufficientReserve
			}
		}
		if e.vault != nil {
			if err := e.vault.Claim(record.Manager, record.ID); err != nil {
				return err
			}
		}
		e.transition(record, Closed)
		return nil
	})
	observability.Funds().RecordOperation("close", err)
	return err
}
