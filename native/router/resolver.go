package router

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// Converter turns an amount of one canonical asset into another. The oracle
// engine satisfies this interface; resolvers use it for the final hop from
// their valued asset to the caller's quote asset.
type Converter interface {
	CalcConversionAmount(base common.Address, baseAmount *big.Int, quote common.Address) (*big.Int, error)
}

// Resolver values an amount of one asset in terms of a quote asset. Debt
// resolvers report non-positive values; the router enforces the sign contract
// on every call.
type Resolver interface {
	Address() common.Address
	IsDebt() bool
	CalcAssetValue(asset common.Address, amount *big.Int, quote common.Address) (*big.Int, error)
}

// ATokenView exposes the interest-bearing (or debt) token → underlying
// relation of an Aave-style market. Balances redeem 1:1 for the underlying.
type ATokenView interface {
	UnderlyingAsset(token common.Address) (common.Address, error)
}

// CurvePoolView exposes the stable-pool metadata needed to value LP shares:
// the pool's configured underlying and the current 1e18-scaled virtual price.
type CurvePoolView interface {
	PoolInfo(lpToken common.Address) (underlying common.Address, virtualPrice *big.Int, err error)
}

// PairReserves is a snapshot of a two-sided AMM pair.
type PairReserves struct {
	Token0      common.Address
	Token1      common.Address
	Reserve0    *big.Int
	Reserve1    *big.Int
	TotalSupply *big.Int
}

// PairView exposes UniswapV2-like pair state for LP valuation.
type PairView interface {
	PairInfo(lpToken common.Address) (PairReserves, error)
}
