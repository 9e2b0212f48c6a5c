package fund

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"folio/core/events"
	nativecommon "folio/native/common"
	"folio/observability"
)

// Purchase accrues fees, transfers amount of the denomination into the
// execution vault, and mints shares at the current gross share price (1:1 on
// bootstrap). A purchase while RedemptionPending that lifts the reserve above
// the owed total settles the queue and resumes Executing.
func (e *Engine) Purchase(caller common.Address, id common.Hash, amount *big.Int) (*big.Int, error) {
	var minted *big.Int
	err := e.withFund(caller, id, func(record *Record) error {
		if err := ensureStates(record, Executing, RedemptionPending); err != nil {
			return err
		}
		if amount == nil || amount.Sign() == 0 {
			return nativecommon.ShareModulePurchaseZeroBalance
		}
		if err := e.accrueManagementFee(record); err != nil {
			return err
		}
		gav, err := e.grossAssetValue(record)
		if err != nil {
			return err
		}
		effective := effectiveGAV(record, gav)

		shares := new(big.Int).Set(amount)
		if record.TotalShares.Sign() > 0 && effective.Sign() > 0 {
			shares.Mul(amount, record.TotalShares)
			shares.Div(shares, effective)
		}
		if shares.Sign() == 0 {
			return nativecommon.ShareModulePurchaseZeroBalance
		}

		if e.ledger == nil {
			return errNilLedger
		}
		if err := e.ledger.Transfer(record.Denomination, caller, record.Vault, amount); err != nil {
			return err
		}
		mintShares(record, caller, shares)
		minted = shares

		if err := e.updatePerformanceFee(record, new(big.Int).Add(effective, amount)); err != nil {
			return err
		}
		e.emitter.Emit(events.FundPurchased{Fund: record.ID, Buyer: caller, Amount: amount, Shares: shares})

		if record.State == RedemptionPending {
			if _, err := e.trySettle(record); err != nil {
				return err
			}
		}
		return nil
	})
	observability.Funds().RecordOperation("purchase", err)
	if err != nil {
		return nil, err
	}
	return minted, nil
}

// Redeem burns the caller's shares and pays shares * grossSharePrice of the
// denomination. When the uncommitted reserve cannot cover the payout, a
// pending redemption defers the payout into the queue (entering
// RedemptionPending if not already there); a non-pending one fails.
func (e *Engine) Redeem(caller common.Address, id common.Hash, shares *big.Int, isPending bool) (*big.Int, error) {
	var payout *big.Int
	err := e.withFund(caller, id, func(record *Record) error {
		if err := ensureStates(record, Executing, RedemptionPending); err != nil {
			return err
		}
		if shares == nil || shares.Sign() == 0 {
			return nativecommon.ShareModuleInsufficientShare
		}
		if record.BalanceOf(caller).Cmp(shares) < 0 {
			return nativecommon.ShareModuleInsufficientShare
		}
		if err := e.accrueManagementFee(record); err != nil {
			return err
		}
		gav, err := e.grossAssetValue(record)
		if err != nil {
			return err
		}
		effective := effectiveGAV(record, gav)
		owed := sharePayout(record, shares, effective)

		reserve, err := e.reserve(record)
		if err != nil {
			return err
		}
		available := new(big.Int).Sub(reserve, record.PendingTotal)

		if available.Cmp(owed) >= 0 {
			if err := burnShares(record, caller, shares); err != nil {
				return err
			}
			if err := e.ledger.Transfer(record.Denomination, record.Vault, caller, owed); err != nil {
				return err
			}
			payout = owed
			if err := e.updatePerformanceFee(record, new(big.Int).Sub(effective, owed)); err != nil {
				return err
			}
			e.emitter.Emit(events.FundRedeemed{Fund: record.ID, Redeemer: caller, Shares: shares, Payout: owed})
			return nil
		}

		if !isPending {
			return nativecommon.ShareModuleInsufficientReserve
		}
		if err := burnShares(record, caller, shares); err != nil {
			return err
		}
		record.Pending = append(record.Pending, PendingRedemption{Redeemer: caller, Payout: owed})
		record.PendingTotal = new(big.Int).Add(record.PendingTotal, owed)
		payout = owed

		if record.State != RedemptionPending {
			record.PendingStartTime = e.nowFn()
			e.transition(record, RedemptionPending)
			shortfall := new(big.Int).Sub(record.PendingTotal, reserve)
			e.emitter.Emit(events.RedemptionPended{Fund: record.ID, Shortfall: shortfall, StartTime: record.PendingStartTime})
		}
		if err := e.updatePerformanceFee(record, effectiveGAV(record, gav)); err != nil {
			return err
		}
		e.emitter.Emit(events.FundRedeemed{Fund: record.ID, Redeemer: caller, Shares: shares, Payout: owed, Deferred: true})
		observability.Funds().SetPendingLiability(record.ID.Hex(), record.PendingTotal)
		return nil
	})
	observability.Funds().RecordOperation("redeem", err)
	if err != nil {
		return nil, err
	}
	return payout, nil
}

// Settle pays the deferred redemption queue once the vault reserve covers it.
// Any caller may trigger settlement while the fund is RedemptionPending; in
// Liquidating it is how the liquidator discharges the queue after unwinding
// positions.
func (e *Engine) Settle(caller common.Address, id common.Hash) error {
	err := e.withFund(caller, id, func(record *Record) error {
		if err := ensureStates(record, RedemptionPending, Liquidating); err != nil {
			return err
		}
		settled, err := e.trySettle(record)
		if err != nil {
			return err
		}
		if !settled {
			return nativecommon.ShareModuleInsufficientReserve
		}
		return nil
	})
	observability.Funds().RecordOperation("settle", err)
	return err
}

// ClaimManagementFee accrues the management fee on demand. Anything that
// changes share price or supply also accrues implicitly; this entry point
// exists so a dormant fund still pays its manager.
func (e *Engine) ClaimManagementFee(caller common.Address, id common.Hash) error {
	return e.withFund(caller, id, func(record *Record) error {
		if err := ensureStates(record, Executing, RedemptionPending); err != nil {
			return err
		}
		return e.accrueManagementFee(record)
	})
}

// Crystallize settles the outstanding performance-fee claim into the
// manager's balance. Only the manager may crystallize, and only once the
// crystallization period has elapsed.
func (e *Engine) Crystallize(caller common.Address, id common.Hash) (*big.Int, error) {
	var claimed *big.Int
	err := e.withFund(caller, id, func(record *Record) error {
		if caller != record.Manager {
			return nativecommon.FundNotPermittedCaller
		}
		if err := ensureStates(record, Executing, RedemptionPending); err != nil {
			return err
		}
		gav, err := e.grossAssetValue(record)
		if err != nil {
			return err
		}
		delta, moved, err := record.PFee.Crystallize(effectiveGAV(record, gav), record.NetShares(), e.nowFn())
		if err != nil {
			return err
		}
		applyOutstandingDelta(record, delta)
		if moved.Sign() > 0 {
			if err := burnShares(record, OutstandingAccount, moved); err != nil {
				return err
			}
			mintShares(record, record.Manager, moved)
		}
		claimed = moved
		e.emitter.Emit(events.PerformanceFeeClaimed{Fund: record.ID, Manager: record.Manager, Shares: moved})
		observability.Funds().RecordFeeShares("performance", moved)
		return nil
	})
	observability.Funds().RecordOperation("crystallize", err)
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

// accrueManagementFee mints the time-proportional dilution to the manager.
func (e *Engine) accrueManagementFee(record *Record) error {
	if record.MFee == nil {
		return nil
	}
	minted, err := record.MFee.Claim(record.TotalShares, e.nowFn())
	if err != nil {
		return err
	}
	if minted.Sign() == 0 {
		return nil
	}
	mintShares(record, record.Manager, minted)
	e.emitter.Emit(events.ManagementFeeClaimed{Fund: record.ID, Manager: record.Manager, Shares: minted})
	observability.Funds().RecordFeeShares("management", minted)
	return nil
}

// updatePerformanceFee retargets the outstanding fee claim against the given
// valuation.
func (e *Engine) updatePerformanceFee(record *Record, gav *big.Int) error {
	if record.PFee == nil {
		return nil
	}
	if gav.Sign() < 0 {
		gav = big.NewInt(0)
	}
	delta, err := record.PFee.Update(gav, record.NetShares())
	if err != nil {
		return err
	}
	applyOutstandingDelta(record, delta)
	return nil
}

func applyOutstandingDelta(record *Record, delta *big.Int) {
	if delta == nil || delta.Sign() == 0 {
		return
	}
	balance := record.BalanceOf(OutstandingAccount)
	record.Balances[OutstandingAccount] = balance.Add(balance, delta)
	record.TotalShares = new(big.Int).Add(record.TotalShares, delta)
}

// trySettle pays the whole pending queue if the reserve now covers it. A
// RedemptionPending fund resumes Executing; a Liquidating fund stays under
// the liquidator, queue cleared, so Close can follow. Partial settlement
// never happens; the queue clears atomically or not at all.
func (e *Engine) trySettle(record *Record) (bool, error) {
	if record.State != RedemptionPending && record.State != Liquidating {
		return false, nil
	}
	if record.PendingTotal.Sign() == 0 && record.State == Liquidating {
		return false, nil
	}
	reserve, err := e.reserve(record)
	if err != nil {
		return false, err
	}
	if reserve.Cmp(record.PendingTotal) < 0 {
		return false, nil
	}
	for _, pending := range record.Pending {
		if err := e.ledger.Transfer(record.Denomination, record.Vault, pending.Redeemer, pending.Payout); err != nil {
			return false, err
		}
	}
	payout := record.PendingTotal
	record.Pending = nil
	record.PendingTotal = big.NewInt(0)
	if record.State == RedemptionPending {
		e.transition(record, Executing)
	}
	e.emitter.Emit(events.RedemptionSettled{Fund: record.ID, Payout: payout})
	observability.Funds().SetPendingLiability(record.ID.Hex(), record.PendingTotal)
	return true, nil
}
