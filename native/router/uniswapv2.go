package router

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

var errEmptyPair = errors.New("uniswap resolver: pair has no liquidity")

// UniswapV2Resolver values AMM LP tokens as the pro-rata share of both
// reserves, each leg converted to the quote asset and summed.
type UniswapV2Resolver struct {
	addr      common.Address
	converter Converter
	pairs     PairView
}

// NewUniswapV2Resolver constructs a resolver for UniswapV2-like pairs.
func NewUniswapV2Resolver(addr common.Address, converter Converter, pairs PairView) *UniswapV2Resolver {
	return &UniswapV2Resolver{addr: addr, converter: converter, pairs: pairs}
}

// Address returns the resolver's registry identity.
func (r *UniswapV2Resolver) Address() common.Address { return r.addr }

// IsDebt reports the resolver's sign contract.
func (r *UniswapV2Resolver) IsDebt() bool { return false }

// CalcAssetValue values amount of the LP token in quote units.
func (r *UniswapV2Resolver) CalcAssetValue(asset common.Address, amount *big.Int, quote common.Address) (*big.Int, error) {
	pair, err := r.pairs.PairInfo(asset)
	if err != nil {
		return nil, err
	}
	if pair.TotalSupply == nil || pair.TotalSupply.Sign() == 0 {
		return nil, errEmptyPair
	}

	total := big.NewInt(0)
	legs := []struct {
		token   common.Address
		reserve *big.Int
	}{
		{pair.Token0, pair.Reserve0},
		{pair.Token1, pair.Reserve1},
	}
	for _, leg := range legs {
		if leg.reserve == nil || leg.reserve.Sign() == 0 {
			continue
		}
		share := new(big.Int).Mul(amount, leg.reserve)
		share.Quo(share, pair.TotalSupply)
		if share.Sign() == 0 {
			continue
		}
		if leg.token != quote {
			share, err = r.converter.CalcConversionAmount(leg.token, share, quote)
			if err != nil {
				return nil, err
			}
		}
		total.Add(total, share)
	}
	return total, nil
}
