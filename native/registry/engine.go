package registry

import (
	"errors"

	"github.com/ethereum/go-ethereum/common"

	"folio/core/events"
	nativecommon "folio/native/common"
)

var errNilState = errors.New("asset registry: state not configured")

type engineState interface {
	GetResolver(asset common.Address) (common.Address, bool, error)
	PutResolver(asset, resolver common.Address) error
	DeleteResolver(asset common.Address) error
	ResolverBanned(resolver common.Address) (bool, error)
	SetResolverBanned(resolver common.Address, banned bool) error
}

// Engine maintains the asset → resolver mapping consumed by the asset router.
// Banning a resolver freezes every asset bound to it without touching the
// underlying mappings, so an unban restores the exact pre-ban state.
type Engine struct {
	state     engineState
	authority nativecommon.Authority
	emitter   events.Emitter
}

// NewEngine constructs a registry engine owned by the given address.
func NewEngine(owner common.Address) *Engine {
	return &Engine{
		authority: nativecommon.Authority{Owner: owner},
		emitter:   events.NoopEmitter{},
	}
}

// SetState wires the engine to the external persistence layer.
func (e *Engine) SetState(state engineState) { e.state = state }

// SetEmitter wires the engine to an event sink.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

// Register binds an asset to a resolver. Re-binding requires an explicit
// Unregister first; there is no implicit overwrite.
func (e *Engine) Register(caller, asset, resolver common.Address) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.authority.Check(caller); err != nil {
		return err
	}
	return e.register(asset, resolver)
}

// RegisterMulti binds a batch of assets to their resolvers. The batch aborts
// on the first failure, including a length mismatch.
func (e *Engine) RegisterMulti(caller common.Address, assets, resolvers []common.Address) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.authority.Check(caller); err != nil {
		return err
	}
	if len(assets) != len(resolvers) {
		return nativecommon.AssetRouterLengthInconsistent
	}
	for i := range assets {
		if err := e.register(assets[i], resolvers[i]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) register(asset, resolver common.Address) error {
	if asset == (common.Address{}) || resolver == (common.Address{}) {
		return nativecommon.AssetRegistryZeroAddress
	}
	banned, err := e.state.ResolverBanned(resolver)
	if err != nil {
		return err
	}
	if banned {
		return nativecommon.AssetRegistryBannedResolver
	}
	if _, exists, err := e.state.GetResolver(asset); err != nil {
		return err
	} else if exists {
		return nativecommon.AssetRegistryRegisteredResolver
	}
	if err := e.state.PutResolver(asset, resolver); err != nil {
		return err
	}
	e.emitter.Emit(events.AssetRegistered{Asset: asset, Resolver: resolver})
	return nil
}

// Unregister removes an asset binding.
func (e *Engine) Unregister(caller, asset common.Address) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.authority.Check(caller); err != nil {
		return err
	}
	return e.unregister(asset)
}

// UnregisterMulti removes a batch of asset bindings.
func (e *Engine) UnregisterMulti(caller common.Address, assets []common.Address) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.authority.Check(caller); err != nil {
		return err
	}
	for _, asset := range assets {
		if err := e.unregister(asset); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) unregister(asset common.Address) error {
	if asset == (common.Address{}) {
		return nativecommon.AssetRegistryZeroAddress
	}
	if _, exists, err := e.state.GetResolver(asset); err != nil {
		return err
	} else if !exists {
		return nativecommon.AssetRegistryNonRegisteredResolver
	}
	if err := e.state.DeleteResolver(asset); err != nil {
		return err
	}
	e.emitter.Emit(events.AssetUnregistered{Asset: asset})
	return nil
}

// BanResolver freezes every asset bound to the resolver. Bindings are kept
// dormant so a later unban reactivates them unchanged.
func (e *Engine) BanResolver(caller, resolver common.Address) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.authority.Check(caller); err != nil {
		return err
	}
	if resolver == (common.Address{}) {
		return nativecommon.AssetRegistryZeroAddress
	}
	banned, err := e.state.ResolverBanned(resolver)
	if err != nil {
		return err
	}
	if banned {
		return nativecommon.AssetRegistryBannedResolver
	}
	if err := e.state.SetResolverBanned(resolver, true); err != nil {
		return err
	}
	e.emitter.Emit(events.ResolverBanned{Resolver: resolver})
	return nil
}

// UnbanResolver reactivates a frozen resolver.
func (e *Engine) UnbanResolver(caller, resolver common.Address) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.authority.Check(caller); err != nil {
		return err
	}
	if resolver == (common.Address{}) {
		return nativecommon.AssetRegistryZeroAddress
	}
	banned, err := e.state.ResolverBanned(resolver)
	if err != nil {
		return err
	}
	if !banned {
		return nativecommon.AssetRegistryNonBannedResolver
	}
	if err := e.state.SetResolverBanned(resolver, false); err != nil {
		return err
	}
	e.emitter.Emit(events.ResolverUnbanned{Resolver: resolver})
	return nil
}

// Resolver returns the resolver bound to the asset. Lookups fail when the
// asset is unregistered or its resolver is currently banned.
func (e *Engine) Resolver(asset common.Address) (common.Address, error) {
	if e == nil || e.state == nil {
		return common.Address{}, errNilState
	}
	resolver, exists, err := e.state.GetResolver(asset)
	if err != nil {
		return common.Address{}, err
	}
	if !exists {
		return common.Address{}, nativecommon.AssetRegistryUnregistered
	}
	banned, err := e.state.ResolverBanned(resolver)
	if err != nil {
		return common.Address{}, err
	}
	if banned {
		return common.Address{}, nativecommon.AssetRegistryBannedResolver
	}
	return resolver, nil
}
