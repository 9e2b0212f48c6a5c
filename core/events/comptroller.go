package events

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"folio/core/types"
)

const (
	// TypePermissionUpdated is emitted once per (level, address, selector)
	// tuple on every permit/forbid batch.
	TypePermissionUpdated = "comptroller.permission"
	// TypeDenominationUpdated is emitted when a denomination is permitted or
	// forbidden.
	TypeDenominationUpdated = "comptroller.denomination"
	// TypeHaltSet is emitted when the global halt flag flips.
	TypeHaltSet = "comptroller.halt"
	// TypeProxyBanSet is emitted when a single fund proxy is banned or
	// unbanned.
	TypeProxyBanSet = "comptroller.proxyBan"
	// TypeMortgageTierSet is emitted when a level's bond requirement changes.
	TypeMortgageTierSet = "comptroller.mortgageTier"
)

// PermissionUpdated captures one whitelist tuple change.
type PermissionUpdated struct {
	Dimension string
	Level     uint64
	Address   common.Address
	Selector  string
	Permitted bool
}

// EventType satisfies the Event interface.
func (PermissionUpdated) EventType() string { return TypePermissionUpdated }

// Event converts the structured payload into a broadcastable event.
func (e PermissionUpdated) Event() *types.Event {
	return &types.Event{Type: TypePermissionUpdated, Attributes: map[string]string{
		"dimension": e.Dimension,
		"level":     strconv.FormatUint(e.Level, 10),
		"address":   e.Address.Hex(),
		"selector":  e.Selector,
		"permitted": strconv.FormatBool(e.Permitted),
	}}
}

// DenominationUpdated captures a denomination whitelist change.
type DenominationUpdated struct {
	Denomination common.Address
	Dust         *big.Int
	Permitted    bool
}

// EventType satisfies the Event interface.
func (DenominationUpdated) EventType() string { return TypeDenominationUpdated }

// Event converts the structured payload into a broadcastable event.
func (e DenominationUpdated) Event() *types.Event {
	return &types.Event{Type: TypeDenominationUpdated, Attributes: map[string]string{
		"denomination": e.Denomination.Hex(),
		"dust":         formatAmount(e.Dust),
		"permitted":    strconv.FormatBool(e.Permitted),
	}}
}

// HaltSet captures a flip of the global halt flag.
type HaltSet struct {
	Halted bool
}

// EventType satisfies the Event interface.
func (HaltSet) EventType() string { return TypeHaltSet }

// Event converts the structured payload into a broadcastable event.
func (e HaltSet) Event() *types.Event {
	return &types.Event{Type: TypeHaltSet, Attributes: map[string]string{
		"halted": strconv.FormatBool(e.Halted),
	}}
}

// ProxyBanSet captures a per-proxy ban change.
type ProxyBanSet struct {
	Proxy  common.Address
	Banned bool
}

// EventType satisfies the Event interface.
func (ProxyBanSet) EventType() string { return TypeProxyBanSet }

// Event converts the structured payload into a broadcastable event.
func (e ProxyBanSet) Event() *types.Event {
	return &types.Event{Type: TypeProxyBanSet, Attributes: map[string]string{
		"proxy":  e.Proxy.Hex(),
		"banned": strconv.FormatBool(e.Banned),
	}}
}

// MortgageTierSet captures a bond requirement change for a level.
type MortgageTierSet struct {
	Level  uint64
	Amount *big.Int
}

// EventType satisfies the Event interface.
func (MortgageTierSet) EventType() string { return TypeMortgageTierSet }

// Event converts the structured payload into a broadcastable event.
func (e MortgageTierSet) Event() *types.Event {
	return &types.Event{Type: TypeMortgageTierSet, Attributes: map[string]string{
		"level":  strconv.FormatUint(e.Level, 10),
		"amount": formatAmount(e.Amount),
	}}
}
