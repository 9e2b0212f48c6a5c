package comptroller

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"folio/core/events"
	nativecommon "folio/native/common"
)

// --- dealing assets ---

// PermitAssets whitelists assets for dealing at the given level.
func (e *Engine) PermitAssets(caller common.Address, level uint64, assets []common.Address) error {
	return e.setPermissions(caller, dimAsset, level, assets, nil, true)
}

// ForbidAssets removes assets from the level's dealing whitelist.
func (e *Engine) ForbidAssets(caller common.Address, level uint64, assets []common.Address) error {
	return e.setPermissions(caller, dimAsset, level, assets, nil, false)
}

// IsValidDealingAsset reports whether the asset is permitted for dealing at
// the level.
func (e *Engine) IsValidDealingAsset(level uint64, asset common.Address) (bool, error) {
	return e.checkPermission(dimAsset, level, asset, NoSelector, false)
}

// IsValidDealingAssets is the all-must-pass batch form.
func (e *Engine) IsValidDealingAssets(level uint64, assets []common.Address) (bool, error) {
	for _, asset := range assets {
		ok, err := e.IsValidDealingAsset(level, asset)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}

// IsValidInitialAsset is the dealing-asset check applied to a fund's initial
// holdings. When the initial-asset check is disabled the owner has opted to
// let funds start with assets outside the public dealing whitelist.
func (e *Engine) IsValidInitialAsset(level uint64, asset common.Address) (bool, error) {
	cfg, err := e.Config()
	if err != nil {
		return false, err
	}
	if !cfg.InitialAssetCheck {
		return true, nil
	}
	return e.IsValidDealingAsset(level, asset)
}

// IsValidInitialAssets is the all-must-pass batch form.
func (e *Engine) IsValidInitialAssets(level uint64, assets []common.Address) (bool, error) {
	cfg, err := e.Config()
	if err != nil {
		return false, err
	}
	if !cfg.InitialAssetCheck {
		return true, nil
	}
	return e.IsValidDealingAssets(level, assets)
}

// --- denominations ---

// PermitDenominations whitelists denominations with their dust thresholds.
func (e *Engine) PermitDenominations(caller common.Address, denominations []common.Address, dusts []*big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.authority.Check(caller); err != nil {
		return err
	}
	if len(denominations) != len(dusts) {
		return nativecommon.AssetRouterLengthInconsistent
	}
	for i, denomination := range denominations {
		if denomination == (common.Address{}) {
			return nativecommon.ComptrollerZeroAddress
		}
		dust := dusts[i]
		if dust == nil {
			dust = big.NewInt(0)
		}
		if err := e.state.SetDenomination(denomination, dust); err != nil {
			return err
		}
		e.emitter.Emit(events.DenominationUpdated{Denomination: denomination, Dust: dust, Permitted: true})
	}
	return nil
}

// ForbidDenominations removes denominations from the whitelist.
func (e *Engine) ForbidDenominations(caller common.Address, denominations []common.Address) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.authority.Check(caller); err != nil {
		return err
	}
	for _, denomination := range denominations {
		if err := e.state.DeleteDenomination(denomination); err != nil {
			return err
		}
		e.emitter.Emit(events.DenominationUpdated{Denomination: denomination, Permitted: false})
	}
	return nil
}

// IsValidDenomination reports whether the denomination is permitted.
func (e *Engine) IsValidDenomination(denomination common.Address) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	_, ok, err := e.state.Denomination(denomination)
	return ok, err
}

// DenominationDust returns the dust threshold configured for a permitted
// denomination.
func (e *Engine) DenominationDust(denomination common.Address) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	dust, ok, err := e.state.Denomination(denomination)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nativecommon.ComptrollerInvalidDenomination
	}
	return dust, nil
}

// --- creators ---

// PermitCreators whitelists fund creators. The creator dimension is global:
// it carries no level or selector.
func (e *Engine) PermitCreators(caller common.Address, creators []common.Address) error {
	return e.setPermissions(caller, dimCreator, AnyLevel, creators, nil, true)
}

// ForbidCreators removes creators from the whitelist.
func (e *Engine) ForbidCreators(caller common.Address, creators []common.Address) error {
	return e.setPermissions(caller, dimCreator, AnyLevel, creators, nil, false)
}

// IsValidCreator reports whether the address may create funds.
func (e *Engine) IsValidCreator(creator common.Address) (bool, error) {
	return e.checkPermission(dimCreator, AnyLevel, creator, NoSelector, false)
}

// --- delegate calls, contract calls, handler calls ---

// PermitDelegateCalls whitelists (target, selector) pairs for delegate calls
// at the level.
func (e *Engine) PermitDelegateCalls(caller common.Address, level uint64, targets []common.Address, selectors []Selector) error {
	return e.setPermissions(caller, dimDelegateCall, level, targets, selectors, true)
}

// ForbidDelegateCalls removes (target, selector) pairs from the delegate-call
// whitelist.
func (e *Engine) ForbidDelegateCalls(caller common.Address, level uint64, targets []common.Address, selectors []Selector) error {
	return e.setPermissions(caller, dimDelegateCall, level, targets, selectors, false)
}

// CanDelegateCall reports whether the fund level may delegate-call the
// target's selector.
func (e *Engine) CanDelegateCall(level uint64, target common.Address, selector Selector) (bool, error) {
	return e.checkPermission(dimDelegateCall, level, target, selector, true)
}

// CanDelegateCalls is the all-must-pass batch form.
func (e *Engine) CanDelegateCalls(level uint64, targets []common.Address, selectors []Selector) (bool, error) {
	return e.checkPermissions(dimDelegateCall, level, targets, selectors)
}

// PermitContractCalls whitelists (target, selector) pairs for plain calls at
// the level.
func (e *Engine) PermitContractCalls(caller common.Address, level uint64, targets []common.Address, selectors []Selector) error {
	return e.setPermissions(caller, dimContractCall, level, targets, selectors, true)
}

// ForbidContractCalls removes (target, selector) pairs from the contract-call
// whitelist.
func (e *Engine) ForbidContractCalls(caller common.Address, level uint64, targets []common.Address, selectors []Selector) error {
	return e.setPermissions(caller, dimContractCall, level, targets, selectors, false)
}

// CanContractCall reports whether the fund level may call the target's
// selector.
func (e *Engine) CanContractCall(level uint64, target common.Address, selector Selector) (bool, error) {
	return e.checkPermission(dimContractCall, level, target, selector, true)
}

// CanContractCalls is the all-must-pass batch form.
func (e *Engine) CanContractCalls(level uint64, targets []common.Address, selectors []Selector) (bool, error) {
	return e.checkPermissions(dimContractCall, level, targets, selectors)
}

// PermitHandlers whitelists (handler, selector) pairs at the level.
func (e *Engine) PermitHandlers(caller common.Address, level uint64, handlers []common.Address, selectors []Selector) error {
	return e.setPermissions(caller, dimHandler, level, handlers, selectors, true)
}

// ForbidHandlers removes (handler, selector) pairs from the handler
// whitelist.
func (e *Engine) ForbidHandlers(caller common.Address, level uint64, handlers []common.Address, selectors []Selector) error {
	return e.setPermissions(caller, dimHandler, level, handlers, selectors, false)
}

// CanHandlerCall reports whether the fund level may route through the
// handler's selector.
func (e *Engine) CanHandlerCall(level uint64, handler common.Address, selector Selector) (bool, error) {
	return e.checkPermission(dimHandler, level, handler, selector, true)
}

// CanHandlerCalls is the all-must-pass batch form.
func (e *Engine) CanHandlerCalls(level uint64, handlers []common.Address, selectors []Selector) (bool, error) {
	return e.checkPermissions(dimHandler, level, handlers, selectors)
}

// --- shared plumbing ---

func (e *Engine) setPermissions(caller common.Address, dimension string, level uint64, addrs []common.Address, selectors []Selector, allowed bool) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.authority.Check(caller); err != nil {
		return err
	}
	if selectors != nil && len(addrs) != len(selectors) {
		return nativecommon.AssetRouterLengthInconsistent
	}
	for i, addr := range addrs {
		selector := NoSelector
		if selectors != nil {
			selector = selectors[i]
		}
		key := permissionKey(level, addr, selector)
		if allowed {
			if err := e.state.SetPermission(dimension, key, true); err != nil {
				return err
			}
		} else {
			if err := e.state.DeletePermission(dimension, key); err != nil {
				return err
			}
		}
		e.emitter.Emit(events.PermissionUpdated{
			Dimension: dimension,
			Level:     level,
			Address:   addr,
			Selector:  selector.Hex(),
			Permitted: allowed,
		})
	}
	return nil
}

func (e *Engine) checkPermission(dimension string, level uint64, addr common.Address, selector Selector, selectorDimension bool) (bool, error) {
	if e == nil || e.state == nil {
		return false, errNilState
	}
	for _, key := range matchKeys(level, addr, selector, selectorDimension) {
		ok, err := e.state.Permission(dimension, key)
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

func (e *Engine) checkPermissions(dimension string, level uint64, addrs []common.Address, selectors []Selector) (bool, error) {
	if len(addrs) != len(selectors) {
		return false, nativecommon.AssetRouterLengthInconsistent
	}
	for i := range addrs {
		ok, err := e.checkPermission(dimension, level, addrs[i], selectors[i], true)
		if err != nil || !ok {
			return false, err
		}
	}
	return true, nil
}
