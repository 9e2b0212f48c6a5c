package router

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// AaveAssetResolver values Aave-style interest-bearing tokens. An aToken
// balance redeems 1:1 for its underlying, so valuation redirects to the
// underlying and converts from there.
type AaveAssetResolver struct {
	addr      common.Address
	converter Converter
	tokens    ATokenView
}

// NewAaveAssetResolver constructs a resolver for Aave v2/v3 supply positions.
func NewAaveAssetResolver(addr common.Address, converter Converter, tokens ATokenView) *AaveAssetResolver {
	return &AaveAssetResolver{addr: addr, converter: converter, tokens: tokens}
}

// Address returns the resolver's registry identity.
func (r *AaveAssetResolver) Address() common.Address { return r.addr }

// IsDebt reports the resolver's sign contract.
func (r *AaveAssetResolver) IsDebt() bool { return false }

// CalcAssetValue values amount of the aToken in quote units.
func (r *AaveAssetResolver) CalcAssetValue(asset common.Address, amount *big.Int, quote common.Address) (*big.Int, error) {
	underlying, err := r.tokens.UnderlyingAsset(asset)
	if err != nil {
		return nil, err
	}
	if underlying == quote {
		return new(big.Int).Set(amount), nil
	}
	return r.converter.CalcConversionAmount(underlying, amount, quote)
}

// AaveDebtResolver values Aave-style debt tokens. A debt balance is a
// liability, so the resolved value is the negated underlying value.
type AaveDebtResolver struct {
	addr      common.Address
	converter Converter
	tokens    ATokenView
}

// NewAaveDebtResolver constructs a resolver for Aave v2/v3 borrow positions.
func NewAaveDebtResolver(addr common.Address, converter Converter, tokens ATokenView) *AaveDebtResolver {
	return &AaveDebtResolver{addr: addr, converter: converter, tokens: tokens}
}

// Address returns the resolver's registry identity.
func (r *AaveDebtResolver) Address() common.Address { return r.addr }

// IsDebt reports the resolver's sign contract.
func (r *AaveDebtResolver) IsDebt() bool { return true }

// CalcAssetValue values amount of the debt token in quote units, negated.
func (r *AaveDebtResolver) CalcAssetValue(asset common.Address, amount *big.Int, quote common.Address) (*big.Int, error) {
	underlying, err := r.tokens.UnderlyingAsset(asset)
	if err != nil {
		return nil, err
	}
	value := new(big.Int).Set(amount)
	if underlying != quote {
		value, err = r.converter.CalcConversionAmount(underlying, amount, quote)
		if err != nil {
			return nil, err
		}
	}
	return value.Neg(value), nil
}
