package comptroller

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	nativecommon "folio/native/common"
)

type memState struct {
	config        *Config
	permissions   map[string]map[string]bool
	denominations map[common.Address]*big.Int
	tiers         map[uint64]*big.Int
	bannedProxies map[common.Address]bool
}

func newMemState() *memState {
	return &memState{
		permissions:   make(map[string]map[string]bool),
		denominations: make(map[common.Address]*big.Int),
		tiers:         make(map[uint64]*big.Int),
		bannedProxies: make(map[common.Address]bool),
	}
}

func (s *memState) GetConfig() (*Config, error) { return s.config.Clone(), nil }

func (s *memState) PutConfig(cfg *Config) error {
	s.config = cfg.Clone()
	return nil
}

func (s *memState) Permission(dimension, key string) (bool, error) {
	return s.permissions[dimension][key], nil
}

func (s *memState) SetPermission(dimension, key string, allowed bool) error {
	if s.permissions[dimension] == nil {
		s.permissions[dimension] = make(map[string]bool)
	}
	s.permissions[dimension][key] = allowed
	return nil
}

func (s *memState) DeletePermission(dimension, key string) error {
	delete(s.permissions[dimension], key)
	return nil
}

func (s *memState) Denomination(addr common.Address) (*big.Int, bool, error) {
	dust, ok := s.denominations[addr]
	return dust, ok, nil
}

func (s *memState) SetDenomination(addr common.Address, dust *big.Int) error {
	s.denominations[addr] = new(big.Int).Set(dust)
	return nil
}

func (s *memState) DeleteDenomination(addr common.Address) error {
	delete(s.denominations, addr)
	return nil
}

func (s *memState) MortgageTier(level uint64) (*big.Int, bool, error) {
	amount, ok := s.tiers[level]
	return amount, ok, nil
}

func (s *memState) SetMortgageTier(level uint64, amount *big.Int) error {
	s.tiers[level] = new(big.Int).Set(amount)
	return nil
}

func (s *memState) ProxyBanned(addr common.Address) (bool, error) {
	return s.bannedProxies[addr], nil
}

func (s *memState) SetProxyBanned(addr common.Address, banned bool) error {
	s.bannedProxies[addr] = banned
	return nil
}

var (
	owner    = common.HexToAddress("0x1000000000000000000000000000000000000001")
	proxy    = common.HexToAddress("0x1000000000000000000000000000000000000002")
	implAddr = common.HexToAddress("0x1000000000000000000000000000000000000003")
	usdc     = common.HexToAddress("0x2000000000000000000000000000000000000001")
	handler  = common.HexToAddress("0x6000000000000000000000000000000000000001")
)

func newTestEngine(t *testing.T) *Engine {
	t.Helper()
	engine := NewEngine(owner)
	engine.SetState(newMemState())
	require.NoError(t, engine.SetImplementation(owner, implAddr))
	return engine
}

func TestImplementationHaltAndBan(t *testing.T) {
	engine := newTestEngine(t)

	got, err := engine.Implementation(proxy)
	require.NoError(t, err)
	require.Equal(t, implAddr, got)

	require.NoError(t, engine.Halt(owner))
	_, err = engine.Implementation(proxy)
	require.ErrorIs(t, err, nativecommon.ComptrollerHalted)
	require.NoError(t, engine.Unhalt(owner))

	require.NoError(t, engine.BanFundProxy(owner, proxy))
	_, err = engine.Implementation(proxy)
	require.ErrorIs(t, err, nativecommon.ComptrollerBanned)

	// Other proxies are unaffected by a scoped ban.
	other := common.HexToAddress("0x1000000000000000000000000000000000000009")
	_, err = engine.Implementation(other)
	require.NoError(t, err)

	require.NoError(t, engine.UnbanFundProxy(owner, proxy))
	_, err = engine.Implementation(proxy)
	require.NoError(t, err)
}

func TestScalarSettersRejectZeroAddress(t *testing.T) {
	engine := newTestEngine(t)

	require.ErrorIs(t, engine.SetExecAction(owner, common.Address{}), nativecommon.ComptrollerZeroAddress)
	require.ErrorIs(t, engine.SetExecFeeCollector(owner, common.Address{}), nativecommon.ComptrollerZeroAddress)
	require.ErrorIs(t, engine.SetPendingLiquidator(owner, common.Address{}), nativecommon.ComptrollerZeroAddress)
	require.ErrorIs(t, engine.SetImplementation(owner, common.Address{}), nativecommon.ComptrollerZeroAddress)
	require.ErrorIs(t, engine.SetValueTolerance(owner, ToleranceBase+1), nativecommon.ComptrollerToleranceOutOfRange)

	require.ErrorIs(t, engine.SetExecAction(proxy, handler), nativecommon.ErrUnauthorized)
}

func TestDealingAssetWhitelist(t *testing.T) {
	engine := newTestEngine(t)

	ok, err := engine.IsValidDealingAsset(1, usdc)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, engine.PermitAssets(owner, 1, []common.Address{usdc}))
	ok, _ = engine.IsValidDealingAsset(1, usdc)
	require.True(t, ok)
	ok, _ = engine.IsValidDealingAsset(2, usdc)
	require.False(t, ok)

	// ANY level grants across every level.
	weth := common.HexToAddress("0x2000000000000000000000000000000000000002")
	require.NoError(t, engine.PermitAssets(owner, AnyLevel, []common.Address{weth}))
	for _, level := range []uint64{0, 1, 7} {
		ok, _ = engine.IsValidDealingAsset(level, weth)
		require.True(t, ok, "level %d", level)
	}

	require.NoError(t, engine.ForbidAssets(owner, 1, []common.Address{usdc}))
	ok, _ = engine.IsValidDealingAsset(1, usdc)
	require.False(t, ok)
}

func TestHandlerWildcards(t *testing.T) {
	engine := newTestEngine(t)
	sig := Selector{0x01, 0x02, 0x03, 0x04}

	// Wildcard address+selector at level 3 covers arbitrary handlers there,
	// and only there.
	require.NoError(t, engine.PermitHandlers(owner, 3, []common.Address{AnyAddress}, []Selector{AnySelector}))
	ok, err := engine.CanHandlerCall(3, handler, sig)
	require.NoError(t, err)
	require.True(t, ok)
	ok, _ = engine.CanHandlerCall(2, handler, sig)
	require.False(t, ok)

	// Wildcard selector on one handler.
	require.NoError(t, engine.PermitHandlers(owner, 1, []common.Address{handler}, []Selector{AnySelector}))
	ok, _ = engine.CanHandlerCall(1, handler, sig)
	require.True(t, ok)
	ok, _ = engine.CanHandlerCall(1, common.HexToAddress("0x6000000000000000000000000000000000000002"), sig)
	require.False(t, ok)

	// Batch form requires every pair to pass.
	ok, _ = engine.CanHandlerCalls(1,
		[]common.Address{handler, common.HexToAddress("0x6000000000000000000000000000000000000002")},
		[]Selector{sig, sig})
	require.False(t, ok)
	ok, _ = engine.CanHandlerCalls(3,
		[]common.Address{handler, common.HexToAddress("0x6000000000000000000000000000000000000002")},
		[]Selector{sig, sig})
	require.True(t, ok)
}

func TestZeroSelectorMatchesWildcard(t *testing.T) {
	engine := newTestEngine(t)

	// The all-zero selector is a legal 4-byte signature and must still be
	// covered by a wildcard-selector grant.
	require.NoError(t, engine.PermitHandlers(owner, 1, []common.Address{handler}, []Selector{AnySelector}))
	ok, err := engine.CanHandlerCall(1, handler, Selector{})
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, engine.PermitContractCalls(owner, 2, []common.Address{AnyAddress}, []Selector{AnySelector}))
	ok, _ = engine.CanContractCall(2, handler, Selector{})
	require.True(t, ok)

	// An explicit zero-selector grant stays exact.
	require.NoError(t, engine.PermitDelegateCalls(owner, 3, []common.Address{handler}, []Selector{{}}))
	ok, _ = engine.CanDelegateCall(3, handler, Selector{})
	require.True(t, ok)
	ok, _ = engine.CanDelegateCall(3, handler, Selector{0x01, 0x02, 0x03, 0x04})
	require.False(t, ok)
}

func TestDelegateAndContractCallsAreIndependent(t *testing.T) {
	engine := newTestEngine(t)
	sig := Selector{0xaa, 0xbb, 0xcc, 0xdd}

	require.NoError(t, engine.PermitDelegateCalls(owner, 1, []common.Address{handler}, []Selector{sig}))
	ok, _ := engine.CanDelegateCall(1, handler, sig)
	require.True(t, ok)
	ok, _ = engine.CanContractCall(1, handler, sig)
	require.False(t, ok)
}

func TestDenominations(t *testing.T) {
	engine := newTestEngine(t)

	ok, _ := engine.IsValidDenomination(usdc)
	require.False(t, ok)
	_, err := engine.DenominationDust(usdc)
	require.ErrorIs(t, err, nativecommon.ComptrollerInvalidDenomination)

	require.NoError(t, engine.PermitDenominations(owner, []common.Address{usdc}, []*big.Int{big.NewInt(100)}))
	ok, _ = engine.IsValidDenomination(usdc)
	require.True(t, ok)
	dust, err := engine.DenominationDust(usdc)
	require.NoError(t, err)
	require.Equal(t, int64(100), dust.Int64())

	require.NoError(t, engine.ForbidDenominations(owner, []common.Address{usdc}))
	ok, _ = engine.IsValidDenomination(usdc)
	require.False(t, ok)
}

func TestInitialAssetCheckToggle(t *testing.T) {
	engine := newTestEngine(t)

	// Check disabled: everything passes.
	ok, err := engine.IsValidInitialAsset(1, usdc)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, engine.SetInitialAssetCheck(owner, true))
	ok, _ = engine.IsValidInitialAsset(1, usdc)
	require.False(t, ok)

	require.NoError(t, engine.PermitAssets(owner, 1, []common.Address{usdc}))
	ok, _ = engine.IsValidInitialAssets(1, []common.Address{usdc})
	require.True(t, ok)
}

func TestCreatorsAndTiers(t *testing.T) {
	engine := newTestEngine(t)
	creator := common.HexToAddress("0x7000000000000000000000000000000000000001")

	ok, _ := engine.IsValidCreator(creator)
	require.False(t, ok)
	require.NoError(t, engine.PermitCreators(owner, []common.Address{creator}))
	ok, _ = engine.IsValidCreator(creator)
	require.True(t, ok)

	require.NoError(t, engine.SetMortgageTier(owner, 1, big.NewInt(5000)))
	amount, exists, err := engine.MortgageTierAmount(1)
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, int64(5000), amount.Int64())
	_, exists, _ = engine.MortgageTierAmount(9)
	require.False(t, exists)
}
