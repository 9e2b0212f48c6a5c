package router

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	nativecommon "folio/native/common"
)

var (
	vault    = common.HexToAddress("0x4000000000000000000000000000000000000001")
	usdc     = common.HexToAddress("0x2000000000000000000000000000000000000001")
	weth     = common.HexToAddress("0x2000000000000000000000000000000000000002")
	aWETH    = common.HexToAddress("0x2000000000000000000000000000000000000003")
	debtWETH = common.HexToAddress("0x2000000000000000000000000000000000000004")
	resAddrA = common.HexToAddress("0x3000000000000000000000000000000000000001")
	resAddrB = common.HexToAddress("0x3000000000000000000000000000000000000002")
	resAddrC = common.HexToAddress("0x3000000000000000000000000000000000000003")
)

// fakeRegistry maps assets straight to resolver addresses.
type fakeRegistry map[common.Address]common.Address

func (r fakeRegistry) Resolver(asset common.Address) (common.Address, error) {
	addr, ok := r[asset]
	if !ok {
		return common.Address{}, nativecommon.AssetRegistryUnregistered
	}
	return addr, nil
}

// fakeConverter applies fixed integer rates between asset pairs.
type fakeConverter map[[2]common.Address]*big.Int

func (c fakeConverter) CalcConversionAmount(base common.Address, amount *big.Int, quote common.Address) (*big.Int, error) {
	rate, ok := c[[2]common.Address{base, quote}]
	if !ok {
		return nil, nativecommon.OracleNonExistingAsset
	}
	return new(big.Int).Mul(amount, rate), nil
}

// fakeLedger serves balances for the MaxAmount sentinel.
type fakeLedger map[common.Address]map[common.Address]*big.Int

func (l fakeLedger) BalanceOf(token, holder common.Address) (*big.Int, error) {
	if balances, ok := l[token]; ok {
		if balance, ok := balances[holder]; ok {
			return new(big.Int).Set(balance), nil
		}
	}
	return big.NewInt(0), nil
}

func (l fakeLedger) Transfer(token, from, to common.Address, amount *big.Int) error {
	return nil
}

// fakeTokens is a trivial ATokenView.
type fakeTokens map[common.Address]common.Address

func (t fakeTokens) UnderlyingAsset(token common.Address) (common.Address, error) {
	return t[token], nil
}

// signedResolver lets tests violate the sign contract on purpose.
type signedResolver struct {
	addr  common.Address
	debt  bool
	value *big.Int
}

func (r *signedResolver) Address() common.Address { return r.addr }
func (r *signedResolver) IsDebt() bool            { return r.debt }

func (r *signedResolver) CalcAssetValue(common.Address, *big.Int, common.Address) (*big.Int, error) {
	return new(big.Int).Set(r.value), nil
}

func newTestRouter(ledger fakeLedger) (*Router, fakeConverter) {
	registry := fakeRegistry{
		weth:     resAddrA,
		aWETH:    resAddrB,
		debtWETH: resAddrC,
	}
	converter := fakeConverter{
		{weth, usdc}: big.NewInt(2000),
	}
	r := NewRouter(registry, ledger)
	r.WireResolver(NewCanonicalResolver(resAddrA, converter))
	tokens := fakeTokens{aWETH: weth, debtWETH: weth}
	r.WireResolver(NewAaveAssetResolver(resAddrB, converter, tokens))
	r.WireResolver(NewAaveDebtResolver(resAddrC, converter, tokens))
	return r, converter
}

func TestCalcAssetValueIdentityAndCanonical(t *testing.T) {
	r, _ := newTestRouter(nil)

	// Quote asset values by identity without any resolver lookup.
	value, err := r.CalcAssetValue(usdc, big.NewInt(123), usdc)
	require.NoError(t, err)
	require.Equal(t, int64(123), value.Int64())

	value, err = r.CalcAssetValue(weth, big.NewInt(3), usdc)
	require.NoError(t, err)
	require.Equal(t, int64(6000), value.Int64())

	// Zero amounts short-circuit to zero.
	value, err = r.CalcAssetValue(weth, big.NewInt(0), usdc)
	require.NoError(t, err)
	require.Zero(t, value.Sign())

	unknown := common.HexToAddress("0x2000000000000000000000000000000000000099")
	_, err = r.CalcAssetValue(unknown, big.NewInt(1), usdc)
	require.ErrorIs(t, err, nativecommon.AssetRegistryUnregistered)
}

func TestDebtResolverNetsAgainstAssets(t *testing.T) {
	r, _ := newTestRouter(nil)

	value, err := r.CalcAssetValue(aWETH, big.NewInt(5), usdc)
	require.NoError(t, err)
	require.Equal(t, int64(10000), value.Int64())

	value, err = r.CalcAssetValue(debtWETH, big.NewInt(2), usdc)
	require.NoError(t, err)
	require.Equal(t, int64(-4000), value.Int64())

	total, err := r.CalcAssetsTotalValue(
		[]common.Address{aWETH, debtWETH},
		[]*big.Int{big.NewInt(5), big.NewInt(2)},
		vault, usdc,
	)
	require.NoError(t, err)
	require.Equal(t, int64(6000), total.Int64())
}

func TestSignContractEnforced(t *testing.T) {
	registry := fakeRegistry{weth: resAddrA, debtWETH: resAddrB}
	r := NewRouter(registry, nil)
	r.WireResolver(&signedResolver{addr: resAddrA, debt: false, value: big.NewInt(-1)})
	r.WireResolver(&signedResolver{addr: resAddrB, debt: true, value: big.NewInt(1)})

	_, err := r.CalcAssetValue(weth, big.NewInt(1), usdc)
	require.ErrorIs(t, err, nativecommon.ResolverAssetValueNegative)

	_, err = r.CalcAssetValue(debtWETH, big.NewInt(1), usdc)
	require.ErrorIs(t, err, nativecommon.ResolverAssetValuePositive)
}

func TestCalcAssetsTotalValueGuards(t *testing.T) {
	r, _ := newTestRouter(nil)

	_, err := r.CalcAssetsTotalValue([]common.Address{weth}, nil, vault, usdc)
	require.ErrorIs(t, err, nativecommon.AssetRouterLengthInconsistent)

	// Net-negative positions are rejected at the aggregate level.
	_, err = r.CalcAssetsTotalValue(
		[]common.Address{aWETH, debtWETH},
		[]*big.Int{big.NewInt(1), big.NewInt(2)},
		vault, usdc,
	)
	require.ErrorIs(t, err, nativecommon.AssetRouterNegativeValue)
}

func TestMaxAmountSentinelUsesLiveBalance(t *testing.T) {
	ledger := fakeLedger{weth: {vault: big.NewInt(7)}}
	r, _ := newTestRouter(ledger)

	total, err := r.CalcAssetsTotalValue(
		[]common.Address{weth},
		[]*big.Int{new(big.Int).Set(MaxAmount)},
		vault, usdc,
	)
	require.NoError(t, err)
	require.Equal(t, int64(14000), total.Int64())
}
