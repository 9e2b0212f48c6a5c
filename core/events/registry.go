package events

import (
	"github.com/ethereum/go-ethereum/common"

	"folio/core/types"
)

const (
	// TypeAssetRegistered is emitted when an asset is bound to a resolver.
	TypeAssetRegistered = "registry.registered"
	// TypeAssetUnregistered is emitted when an asset binding is removed.
	TypeAssetUnregistered = "registry.unregistered"
	// TypeResolverBanned is emitted when a resolver is globally frozen.
	TypeResolverBanned = "registry.resolverBanned"
	// TypeResolverUnbanned is emitted when a frozen resolver is reactivated.
	TypeResolverUnbanned = "registry.resolverUnbanned"
)

// AssetRegistered captures a new asset → resolver binding.
type AssetRegistered struct {
	Asset    common.Address
	Resolver common.Address
}

// EventType satisfies the Event interface.
func (AssetRegistered) EventType() string { return TypeAssetRegistered }

// Event converts the structured payload into a broadcastable event.
func (e AssetRegistered) Event() *types.Event {
	return &types.Event{Type: TypeAssetRegistered, Attributes: map[string]string{
		"asset":    e.Asset.Hex(),
		"resolver": e.Resolver.Hex(),
	}}
}

// AssetUnregistered captures the removal of an asset binding.
type AssetUnregistered struct {
	Asset common.Address
}

// EventType satisfies the Event interface.
func (AssetUnregistered) EventType() string { return TypeAssetUnregistered }

// Event converts the structured payload into a broadcastable event.
func (e AssetUnregistered) Event() *types.Event {
	return &types.Event{Type: TypeAssetUnregistered, Attributes: map[string]string{
		"asset": e.Asset.Hex(),
	}}
}

// ResolverBanned captures a resolver freeze.
type ResolverBanned struct {
	Resolver common.Address
}

// EventType satisfies the Event interface.
func (ResolverBanned) EventType() string { return TypeResolverBanned }

// Event converts the structured payload into a broadcastable event.
func (e ResolverBanned) Event() *types.Event {
	return &types.Event{Type: TypeResolverBanned, Attributes: map[string]string{
		"resolver": e.Resolver.Hex(),
	}}
}

// ResolverUnbanned captures a resolver reactivation.
type ResolverUnbanned struct {
	Resolver common.Address
}

// EventType satisfies the Event interface.
func (ResolverUnbanned) EventType() string { return TypeResolverUnbanned }

// Event converts the structured payload into a broadcastable event.
func (e ResolverUnbanned) Event() *types.Event {
	return &types.Event{Type: TypeResolverUnbanned, Attributes: map[string]string{
		"resolver": e.Resolver.Hex(),
	}}
}
