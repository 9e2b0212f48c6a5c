package router

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var virtualPriceBase = new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)

// CurveStableResolver values stable-pool LP tokens. An LP share is worth
// lpAmount × virtualPrice / 1e18 of the pool's configured underlying, which
// is then converted to the quote asset.
type CurveStableResolver struct {
	addr      common.Address
	converter Converter
	pools     CurvePoolView
}

// NewCurveStableResolver constructs a resolver for Curve-style stable pools.
func NewCurveStableResolver(addr common.Address, converter Converter, pools CurvePoolView) *CurveStableResolver {
	return &CurveStableResolver{addr: addr, converter: converter, pools: pools}
}

// Address returns the resolver's registry identity.
func (r *CurveStableResolver) Address() common.Address { return r.addr }

// IsDebt reports the resolver's sign contract.
func (r *CurveStableResolver) IsDebt() bool { return false }

// CalcAssetValue values amount of the LP token in quote units.
func (r *CurveStableResolver) CalcAssetValue(asset common.Address, amount *big.Int, quote common.Address) (*big.Int, error) {
	underlying, virtualPrice, err := r.pools.PoolInfo(asset)
	if err != nil {
		return nil, err
	}
	underlyingAmount := new(big.Int).Mul(amount, virtualPrice)
	underlyingAmount.Quo(underlyingAmount, virtualPriceBase)
	if underlyingAmount.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if underlying == quote {
		return underlyingAmount, nil
	}
	return r.converter.CalcConversionAmount(underlying, underlyingAmount, quote)
}
