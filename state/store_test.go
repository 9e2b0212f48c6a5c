package state

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"folio/native/comptroller"
	"folio/native/fees"
	"folio/native/fund"
	"folio/native/registry"
	"folio/storage"
)

var (
	owner    = common.HexToAddress("0x1000000000000000000000000000000000000001")
	asset    = common.HexToAddress("0x2000000000000000000000000000000000000001")
	resolver = common.HexToAddress("0x3000000000000000000000000000000000000001")
)

func newStore() *Store {
	return NewStore(storage.NewMemDB())
}

func TestResolverRoundTrip(t *testing.T) {
	store := newStore()

	_, ok, err := store.GetResolver(asset)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.PutResolver(asset, resolver))
	got, ok, err := store.GetResolver(asset)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, resolver, got)

	require.NoError(t, store.SetResolverBanned(resolver, true))
	banned, err := store.ResolverBanned(resolver)
	require.NoError(t, err)
	require.True(t, banned)
	require.NoError(t, store.SetResolverBanned(resolver, false))
	banned, err = store.ResolverBanned(resolver)
	require.NoError(t, err)
	require.False(t, banned)

	require.NoError(t, store.DeleteResolver(asset))
	_, ok, err = store.GetResolver(asset)
	require.NoError(t, err)
	require.False(t, ok)
}

// The registry engine runs unchanged over the persistent store.
func TestRegistryEngineOverStore(t *testing.T) {
	store := newStore()
	engine := registry.NewEngine(owner)
	engine.SetState(store)

	require.NoError(t, engine.Register(owner, asset, resolver))
	got, err := engine.Resolver(asset)
	require.NoError(t, err)
	require.Equal(t, resolver, got)
}

func TestComptrollerStateRoundTrip(t *testing.T) {
	store := newStore()

	cfg, err := store.GetConfig()
	require.NoError(t, err)
	require.Nil(t, cfg)

	want := &comptroller.Config{
		Implementation: resolver,
		ValueTolerance: 9000,
		AssetCapacity:  16,
		Halted:         true,
	}
	require.NoError(t, store.PutConfig(want))
	cfg, err = store.GetConfig()
	require.NoError(t, err)
	require.Equal(t, want, cfg)

	require.NoError(t, store.SetPermission("asset", "1/0xabc", true))
	ok, err := store.Permission("asset", "1/0xabc")
	require.NoError(t, err)
	require.True(t, ok)
	require.NoError(t, store.DeletePermission("asset", "1/0xabc"))
	ok, err = store.Permission("asset", "1/0xabc")
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, store.SetDenomination(asset, big.NewInt(100)))
	dust, ok, err := store.Denomination(asset)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(100), dust.Int64())

	require.NoError(t, store.SetMortgageTier(3, big.NewInt(5000)))
	amount, ok, err := store.MortgageTier(3)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(5000), amount.Int64())
	_, ok, err = store.MortgageTier(4)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestMortgageStateRoundTrip(t *testing.T) {
	store := newStore()
	id := common.HexToHash("0x01")

	amount, err := store.GetMortgage(id)
	require.NoError(t, err)
	require.Nil(t, amount)

	require.NoError(t, store.PutMortgage(id, big.NewInt(5000)))
	require.NoError(t, store.PutTotalMortgage(big.NewInt(5000)))

	amount, err = store.GetMortgage(id)
	require.NoError(t, err)
	require.Equal(t, int64(5000), amount.Int64())
	total, err := store.GetTotalMortgage()
	require.NoError(t, err)
	require.Equal(t, int64(5000), total.Int64())

	require.NoError(t, store.DeleteMortgage(id))
	amount, err = store.GetMortgage(id)
	require.NoError(t, err)
	require.Nil(t, amount)
}

func TestFundRecordRoundTrip(t *testing.T) {
	store := newStore()

	mfee, err := fees.NewManagementState(100, 42)
	require.NoError(t, err)
	pfee, err := fees.NewPerformanceState(1000, 3600, 42)
	require.NoError(t, err)

	record := &fund.Record{
		ID:           common.HexToHash("0x02"),
		Manager:      owner,
		Denomination: asset,
		Dust:         big.NewInt(100),
		Level:        1,
		State:        fund.Executing,
		Vault:        resolver,
		Assets:       []common.Address{asset},
		TotalShares:  big.NewInt(1000),
		Balances:     map[common.Address]*big.Int{owner: big.NewInt(1000)},
		PendingTotal: big.NewInt(0),
		MFee:         mfee,
		PFee:         pfee,
	}
	require.NoError(t, store.PutFund(record))

	got, err := store.GetFund(record.ID)
	require.NoError(t, err)
	require.Equal(t, record, got)

	missing, err := store.GetFund(common.HexToHash("0xff"))
	require.NoError(t, err)
	require.Nil(t, missing)

	require.NoError(t, store.PutFundCount(7))
	count, err := store.FundCount()
	require.NoError(t, err)
	require.Equal(t, uint64(7), count)

	ids, err := store.FundIDs()
	require.NoError(t, err)
	require.Equal(t, []common.Hash{record.ID}, ids)
}
