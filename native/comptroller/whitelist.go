package comptroller

import (
	"encoding/hex"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Selector is a 4-byte function identifier, matching the EVM calldata
// convention the execution action dispatches on.
type Selector [4]byte

// Hex renders the selector as 0x-prefixed hex.
func (s Selector) Hex() string { return "0x" + hex.EncodeToString(s[:]) }

// Wildcard sentinels. Permitting a sentinel in one dimension matches every
// concrete value of that dimension; checks always consult the sentinel in
// addition to the exact key.
var (
	AnyLevel    = ^uint64(0)
	AnyAddress  = common.HexToAddress("0xFFfFfFffFFfffFFfFFfFFFFFffFFFffffFfFFFfF")
	AnySelector = Selector{0xFF, 0xFF, 0xFF, 0xFF}
)

// Whitelist dimensions. The dimension tag namespaces the permission key space
// in storage.
const (
	dimAsset        = "asset"
	dimCreator      = "creator"
	dimDelegateCall = "delegateCall"
	dimContractCall = "contractCall"
	dimHandler      = "handler"
)

// NoSelector keys dimensions that do not carry a selector.
var NoSelector = Selector{}

func permissionKey(level uint64, addr common.Address, selector Selector) string {
	return fmt.Sprintf("%d/%s/%s", level, addr.Hex(), selector.Hex())
}

// matchKeys enumerates the exact key plus every wildcard combination, exact
// first so storage hits resolve in a deterministic order. selectorDimension
// marks dimensions keyed by (address, selector) pairs; there the all-zero
// selector is a legal concrete value and still falls back to the AnySelector
// wildcard, while selector-less dimensions never consult it.
func matchKeys(level uint64, addr common.Address, selector Selector, selectorDimension bool) []string {
	keys := make([]string, 0, 8)
	levels := []uint64{level}
	if level != AnyLevel {
		levels = append(levels, AnyLevel)
	}
	addrs := []common.Address{addr}
	if addr != AnyAddress {
		addrs = append(addrs, AnyAddress)
	}
	selectors := []Selector{selector}
	if selectorDimension && selector != AnySelector {
		selectors = append(selectors, AnySelector)
	}
	for _, l := range levels {
		for _, a := range addrs {
			for _, s := range selectors {
				keys = append(keys, permissionKey(l, a, s))
			}
		}
	}
	return keys
}
