package router

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

var (
	dai     = common.HexToAddress("0x2000000000000000000000000000000000000010")
	crvLP   = common.HexToAddress("0x2000000000000000000000000000000000000011")
	uniLP   = common.HexToAddress("0x2000000000000000000000000000000000000012")
	resAddr = common.HexToAddress("0x3000000000000000000000000000000000000010")
)

type fakePools map[common.Address]struct {
	underlying   common.Address
	virtualPrice *big.Int
}

func (p fakePools) PoolInfo(lpToken common.Address) (common.Address, *big.Int, error) {
	info := p[lpToken]
	return info.underlying, info.virtualPrice, nil
}

type fakePairs map[common.Address]PairReserves

func (p fakePairs) PairInfo(lpToken common.Address) (PairReserves, error) {
	return p[lpToken], nil
}

func TestCurveStableResolver(t *testing.T) {
	// Virtual price 1.02, valued in DAI, converted 1:1 to USDC.
	pools := fakePools{crvLP: {underlying: dai, virtualPrice: big.NewInt(1_020_000_000_000_000_000)}}
	converter := fakeConverter{{dai, usdc}: big.NewInt(1)}
	resolver := NewCurveStableResolver(resAddr, converter, pools)

	value, err := resolver.CalcAssetValue(crvLP, big.NewInt(1_000_000_000_000_000_000), usdc)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1_020_000_000_000_000_000), value)

	// Valued directly in the pool underlying skips the oracle hop.
	value, err = resolver.CalcAssetValue(crvLP, big.NewInt(1_000_000_000_000_000_000), dai)
	require.NoError(t, err)
	require.Equal(t, big.NewInt(1_020_000_000_000_000_000), value)
}

func TestUniswapV2Resolver(t *testing.T) {
	pairs := fakePairs{uniLP: {
		Token0:      weth,
		Token1:      usdc,
		Reserve0:    big.NewInt(10),
		Reserve1:    big.NewInt(20_000),
		TotalSupply: big.NewInt(100),
	}}
	converter := fakeConverter{{weth, usdc}: big.NewInt(2000)}
	resolver := NewUniswapV2Resolver(resAddr, converter, pairs)

	// 10% of the pool: 1 WETH (= 2,000 USDC) + 2,000 USDC.
	value, err := resolver.CalcAssetValue(uniLP, big.NewInt(10), usdc)
	require.NoError(t, err)
	require.Equal(t, int64(4000), value.Int64())

	empty := fakePairs{uniLP: {TotalSupply: big.NewInt(0)}}
	resolver = NewUniswapV2Resolver(resAddr, converter, empty)
	_, err = resolver.CalcAssetValue(uniLP, big.NewInt(10), usdc)
	require.ErrorIs(t, err, errEmptyPair)
}
