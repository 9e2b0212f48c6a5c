package events

import (
	"github.com/ethereum/go-ethereum/common"

	"folio/core/types"
)

const (
	// TypeOracleAssetAdded is emitted when an asset gains a price feed.
	TypeOracleAssetAdded = "oracle.assetAdded"
	// TypeOracleAssetRemoved is emitted when an asset's price feed is dropped.
	TypeOracleAssetRemoved = "oracle.assetRemoved"
)

// OracleAssetAdded captures a new asset ↔ aggregator pair.
type OracleAssetAdded struct {
	Asset      common.Address
	Aggregator common.Address
}

// EventType satisfies the Event interface.
func (OracleAssetAdded) EventType() string { return TypeOracleAssetAdded }

// Event converts the structured payload into a broadcastable event.
func (e OracleAssetAdded) Event() *types.Event {
	return &types.Event{Type: TypeOracleAssetAdded, Attributes: map[string]string{
		"asset":      e.Asset.Hex(),
		"aggregator": e.Aggregator.Hex(),
	}}
}

// OracleAssetRemoved captures the removal of an asset's price feed.
type OracleAssetRemoved struct {
	Asset common.Address
}

// EventType satisfies the Event interface.
func (OracleAssetRemoved) EventType() string { return TypeOracleAssetRemoved }

// Event converts the structured payload into a broadcastable event.
func (e OracleAssetRemoved) Event() *types.Event {
	return &types.Event{Type: TypeOracleAssetRemoved, Attributes: map[string]string{
		"asset": e.Asset.Hex(),
	}}
}
