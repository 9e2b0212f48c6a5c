package fund

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"folio/core/events"
	nativecommon "folio/native/common"
)

// AddAsset appends an asset to the tracked list. The asset must be permitted
// for the fund's level and its valued vault balance must reach the
// denomination's dust threshold; sub-dust balances are silently ignored so
// dust spam cannot grief the list. Already-tracked assets are a no-op.
func (e *Engine) AddAsset(caller common.Address, id common.Hash, asset common.Address) error {
	return e.withFund(caller, id, func(record *Record) error {
		if caller != record.Manager {
			return nativecommon.FundNotPermittedCaller
		}
		if err := ensureStates(record, Executing, RedemptionPending); err != nil {
			return err
		}
		return e.addAsset(record, asset)
	})
}

// RemoveAsset splices an asset out of the tracked list, preserving order. It
// is a no-op if the asset is untracked, is the denomination, still holds more
// than dust, or is an open debt position. A liquidator may also remove while
// Liquidating, so an unwound fund can reach Closed.
func (e *Engine) RemoveAsset(caller common.Address, id common.Hash, asset common.Address) error {
	return e.withFund(caller, id, func(record *Record) error {
		if caller != record.Manager {
			return nativecommon.FundNotPermittedCaller
		}
		if err := ensureStates(record, Executing, RedemptionPending, Liquidating); err != nil {
			return err
		}
		return e.removeAsset(record, asset)
	})
}

// Assets returns the tracked asset list.
func (e *Engine) Assets(id common.Hash) ([]common.Address, error) {
	record, err := e.load(id)
	if err != nil {
		return nil, err
	}
	return append([]common.Address(nil), record.Assets...), nil
}

func (e *Engine) addAsset(record *Record, asset common.Address) error {
	if record.Tracked(asset) {
		return nil
	}
	ok, err := e.comptroller.IsValidDealingAsset(record.Level, asset)
	if err != nil {
		return err
	}
	if !ok {
		return nativecommon.AssetModuleInvalidAsset
	}
	value, err := e.assetValue(record, asset)
	if err != nil {
		return err
	}
	// Debt legs enter on magnitude; the sign only matters for removal.
	if new(big.Int).Abs(value).Cmp(record.Dust) < 0 {
		return nil
	}
	cfg, err := e.comptroller.Config()
	if err != nil {
		return err
	}
	if cfg.AssetCapacity > 0 && len(record.Assets) >= cfg.AssetCapacity {
		return nativecommon.AssetModuleFullAssetCapacity
	}
	record.Assets = append(record.Assets, asset)
	e.emitter.Emit(events.FundAssetAdded{Fund: record.ID, Asset: asset})
	return nil
}

func (e *Engine) removeAsset(record *Record, asset common.Address) error {
	if asset == record.Denomination || !record.Tracked(asset) {
		return nil
	}
	value, err := e.assetValue(record, asset)
	if err != nil {
		return err
	}
	if value.Sign() < 0 || value.Cmp(record.Dust) > 0 {
		return nil
	}
	assets := record.Assets[:0]
	for _, tracked := range record.Assets {
		if tracked != asset {
			assets = append(assets, tracked)
		}
	}
	record.Assets = assets
	e.emitter.Emit(events.FundAssetRemoved{Fund: record.ID, Asset: asset})
	return nil
}

// assetValue is the signed value of the vault's whole balance of the asset.
func (e *Engine) assetValue(record *Record, asset common.Address) (*big.Int, error) {
	if e.ledger == nil {
		return nil, errNilLedger
	}
	balance, err := e.ledger.BalanceOf(asset, record.Vault)
	if err != nil {
		return nil, err
	}
	return e.valuer.CalcAssetValue(asset, balance, record.Denomination)
}
