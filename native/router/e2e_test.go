package router_test

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"

	nativecommon "folio/native/common"
	"folio/native/oracle"
	"folio/native/registry"
	"folio/native/router"
)

type registryMemState struct {
	resolvers map[common.Address]common.Address
	banned    map[common.Address]bool
}

func (s *registryMemState) GetResolver(asset common.Address) (common.Address, bool, error) {
	resolver, ok := s.resolvers[asset]
	return resolver, ok, nil
}

func (s *registryMemState) PutResolver(asset, resolver common.Address) error {
	s.resolvers[asset] = resolver
	return nil
}

func (s *registryMemState) DeleteResolver(asset common.Address) error {
	delete(s.resolvers, asset)
	return nil
}

func (s *registryMemState) ResolverBanned(resolver common.Address) (bool, error) {
	return s.banned[resolver], nil
}

func (s *registryMemState) SetResolverBanned(resolver common.Address, banned bool) error {
	s.banned[resolver] = banned
	return nil
}

type staticFeed struct {
	addr      common.Address
	answer    *big.Int
	updatedAt time.Time
}

func (f *staticFeed) Address() common.Address { return f.addr }

func (f *staticFeed) LatestRoundData() (*big.Int, time.Time, error) {
	return f.answer, f.updatedAt, nil
}

func (f *staticFeed) Decimals() uint8 { return 8 }

// Deploys registry + canonical resolver + oracle + router and cross-checks a
// WETH → USDC valuation against the hand-computed feed ratio.
func TestValuationPipelineEndToEnd(t *testing.T) {
	owner := common.HexToAddress("0x1000000000000000000000000000000000000001")
	weth := common.HexToAddress("0x2000000000000000000000000000000000000001")
	usdc := common.HexToAddress("0x2000000000000000000000000000000000000002")
	resolverAddr := common.HexToAddress("0x3000000000000000000000000000000000000001")
	vault := common.HexToAddress("0x4000000000000000000000000000000000000001")

	now := time.Unix(1_700_000_000, 0)

	oracleEngine := oracle.NewEngine(owner, time.Hour)
	oracleEngine.SetNowFn(func() time.Time { return now })
	wethFeed := &staticFeed{addr: common.Address{0x51}, answer: big.NewInt(2_000_00000000), updatedAt: now}
	usdcFeed := &staticFeed{addr: common.Address{0x52}, answer: big.NewInt(1_00000000), updatedAt: now}
	if err := oracleEngine.AddAssets(owner,
		[]common.Address{weth, usdc},
		[]uint8{18, 6},
		[]oracle.Aggregator{wethFeed, usdcFeed},
	); err != nil {
		t.Fatalf("add feeds: %v", err)
	}

	registryEngine := registry.NewEngine(owner)
	registryEngine.SetState(&registryMemState{
		resolvers: make(map[common.Address]common.Address),
		banned:    make(map[common.Address]bool),
	})
	if err := registryEngine.Register(owner, weth, resolverAddr); err != nil {
		t.Fatalf("register: %v", err)
	}

	r := router.NewRouter(registryEngine, nil)
	r.WireResolver(router.NewCanonicalResolver(resolverAddr, oracleEngine))

	oneWETH := new(big.Int).Exp(big.NewInt(10), big.NewInt(18), nil)
	value, err := r.CalcAssetValue(weth, oneWETH, usdc)
	if err != nil {
		t.Fatalf("calc: %v", err)
	}
	// (WETH price / USDC price) scaled to USDC's 6 decimals.
	want := big.NewInt(2_000_000_000)
	if value.Cmp(want) != 0 {
		t.Fatalf("got %s, want %s", value, want)
	}

	total, err := r.CalcAssetsTotalValue([]common.Address{weth, usdc},
		[]*big.Int{oneWETH, big.NewInt(500_000_000)}, vault, usdc)
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total.Cmp(big.NewInt(2_500_000_000)) != 0 {
		t.Fatalf("got total %s", total)
	}

	// Banning the resolver cuts off the asset without losing the mapping.
	if err := registryEngine.BanResolver(owner, resolverAddr); err != nil {
		t.Fatalf("ban: %v", err)
	}
	if _, err := r.CalcAssetValue(weth, oneWETH, usdc); !errors.Is(err, nativecommon.AssetRegistryBannedResolver) {
		t.Fatalf("expected BannedResolver, got %v", err)
	}
	if err := registryEngine.UnbanResolver(owner, resolverAddr); err != nil {
		t.Fatalf("unban: %v", err)
	}
	if _, err := r.CalcAssetValue(weth, oneWETH, usdc); err != nil {
		t.Fatalf("calc after unban: %v", err)
	}
}
