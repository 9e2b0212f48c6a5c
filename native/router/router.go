package router

import (
	"errors"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"folio/core/types"
	nativecommon "folio/native/common"
	"folio/observability"
)

var (
	errNilRegistry     = errors.New("asset router: registry not configured")
	errNilLedger       = errors.New("asset router: token ledger not configured")
	errResolverUnwired = errors.New("asset router: resolver registered but not wired")
)

// MaxAmount is the sentinel meaning "entire current balance of this asset".
// It is resolved to the real balance before valuation so strategy execution
// never values a stale ex-ante amount.
var MaxAmount = new(big.Int).Sub(new(big.Int).Lsh(big.NewInt(1), 256), big.NewInt(1))

type registryView interface {
	Resolver(asset common.Address) (common.Address, error)
}

// Router composes the asset registry and the resolver set into the valuation
// engine: arbitrary (asset, amount) pairs in, one signed quote-denominated
// value out.
type Router struct {
	mu        sync.RWMutex
	registry  registryView
	ledger    types.TokenLedger
	resolvers map[common.Address]Resolver
}

// NewRouter constructs a router over the given registry and token ledger.
func NewRouter(registry registryView, ledger types.TokenLedger) *Router {
	return &Router{
		registry:  registry,
		ledger:    ledger,
		resolvers: make(map[common.Address]Resolver),
	}
}

// WireResolver makes a resolver implementation dispatchable under its
// registry address.
func (r *Router) WireResolver(resolver Resolver) {
	if r == nil || resolver == nil {
		return
	}
	r.mu.Lock()
	r.resolvers[resolver.Address()] = resolver
	r.mu.Unlock()
}

// CalcAssetValue resolves the signed value of amount of asset in quote units.
// The quote asset itself is valued by identity without a resolver lookup,
// avoiding circular resolution for the quote leg.
func (r *Router) CalcAssetValue(asset common.Address, amount *big.Int, quote common.Address) (value *big.Int, err error) {
	defer func() { observability.Oracle().RecordValuation(err) }()
	if r == nil || r.registry == nil {
		return nil, errNilRegistry
	}
	if amount == nil || amount.Sign() == 0 {
		return big.NewInt(0), nil
	}
	if asset == quote {
		return new(big.Int).Set(amount), nil
	}

	resolverAddr, err := r.registry.Resolver(asset)
	if err != nil {
		return nil, err
	}
	r.mu.RLock()
	resolver := r.resolvers[resolverAddr]
	r.mu.RUnlock()
	if resolver == nil {
		return nil, errResolverUnwired
	}

	value, err = resolver.CalcAssetValue(asset, amount, quote)
	if err != nil {
		return nil, err
	}
	if resolver.IsDebt() {
		if value.Sign() > 0 {
			return nil, nativecommon.ResolverAssetValuePositive
		}
	} else if value.Sign() < 0 {
		return nil, nativecommon.ResolverAssetValueNegative
	}
	return value, nil
}

// CalcAssetsTotalValue sums the signed values of the (asset, amount) pairs in
// quote units. MaxAmount entries are resolved to owner's current balance.
// A negative net total is rejected; callers that need to observe a negative
// position must value legs individually.
func (r *Router) CalcAssetsTotalValue(assets []common.Address, amounts []*big.Int, owner, quote common.Address) (*big.Int, error) {
	if r == nil || r.registry == nil {
		return nil, errNilRegistry
	}
	if len(assets) != len(amounts) {
		return nil, nativecommon.AssetRouterLengthInconsistent
	}

	total := big.NewInt(0)
	for i := range assets {
		amount := amounts[i]
		if amount != nil && amount.Cmp(MaxAmount) == 0 {
			if r.ledger == nil {
				return nil, errNilLedger
			}
			balance, err := r.ledger.BalanceOf(assets[i], owner)
			if err != nil {
				return nil, err
			}
			amount = balance
		}
		value, err := r.CalcAssetValue(assets[i], amount, quote)
		if err != nil {
			return nil, err
		}
		total.Add(total, value)
	}
	if total.Sign() < 0 {
		return nil, nativecommon.AssetRouterNegativeValue
	}
	return total, nil
}
