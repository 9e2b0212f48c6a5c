package router

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// CanonicalResolver values a plain asset through a direct oracle conversion.
type CanonicalResolver struct {
	addr      common.Address
	converter Converter
}

// NewCanonicalResolver constructs a resolver for canonical (non-derivative)
// assets.
func NewCanonicalResolver(addr common.Address, converter Converter) *CanonicalResolver {
	return &CanonicalResolver{addr: addr, converter: converter}
}

// Address returns the resolver's registry identity.
func (r *CanonicalResolver) Address() common.Address { return r.addr }

// IsDebt reports the resolver's sign contract.
func (r *CanonicalResolver) IsDebt() bool { return false }

// CalcAssetValue converts amount of asset into quote units.
func (r *CanonicalResolver) CalcAssetValue(asset common.Address, amount *big.Int, quote common.Address) (*big.Int, error) {
	if asset == quote {
		return new(big.Int).Set(amount), nil
	}
	return r.converter.CalcConversionAmount(asset, amount, quote)
}
