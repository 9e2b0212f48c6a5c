package events

import (
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"folio/core/types"
)

const (
	// TypeFundCreated is emitted when a fund record is created.
	TypeFundCreated = "fund.created"
	// TypeFundStateTransited is emitted on every lifecycle transition.
	TypeFundStateTransited = "fund.stateTransited"
	// TypeFundPurchased is emitted when shares are minted for a purchase.
	TypeFundPurchased = "fund.purchased"
	// TypeFundRedeemed is emitted when shares are burned for a redemption.
	TypeFundRedeemed = "fund.redeemed"
	// TypeRedemptionPended is emitted when a redemption is deferred.
	TypeRedemptionPended = "fund.redemptionPended"
	// TypeRedemptionSettled is emitted when the pending queue is paid out.
	TypeRedemptionSettled = "fund.redemptionSettled"
	// TypeFundAssetAdded is emitted when an asset joins the tracked list.
	TypeFundAssetAdded = "fund.assetAdded"
	// TypeFundAssetRemoved is emitted when an asset leaves the tracked list.
	TypeFundAssetRemoved = "fund.assetRemoved"
	// TypeFundExecuted is emitted after a strategy execution passes the
	// value-tolerance check.
	TypeFundExecuted = "fund.executed"
	// TypeManagementFeeClaimed is emitted when management-fee shares mint.
	TypeManagementFeeClaimed = "fund.mFeeClaimed"
	// TypePerformanceFeeClaimed is emitted at crystallization.
	TypePerformanceFeeClaimed = "fund.pFeeClaimed"
)

// FundCreated captures a new fund record.
type FundCreated struct {
	Fund         common.Hash
	Owner        common.Address
	Denomination common.Address
	Level        uint64
}

// EventType satisfies the Event interface.
func (FundCreated) EventType() string { return TypeFundCreated }

// Event converts the structured payload into a broadcastable event.
func (e FundCreated) Event() *types.Event {
	return &types.Event{Type: TypeFundCreated, Attributes: map[string]string{
		"fund":         e.Fund.Hex(),
		"owner":        e.Owner.Hex(),
		"denomination": e.Denomination.Hex(),
		"level":        strconv.FormatUint(e.Level, 10),
	}}
}

// FundStateTransited captures a lifecycle transition.
type FundStateTransited struct {
	Fund common.Hash
	From string
	To   string
}

// EventType satisfies the Event interface.
func (FundStateTransited) EventType() string { return TypeFundStateTransited }

// Event converts the structured payload into a broadcastable event.
func (e FundStateTransited) Event() *types.Event {
	return &types.Event{Type: TypeFundStateTransited, Attributes: map[string]string{
		"fund": e.Fund.Hex(),
		"from": e.From,
		"to":   e.To,
	}}
}

// FundPurchased captures a share purchase.
type FundPurchased struct {
	Fund   common.Hash
	Buyer  common.Address
	Amount *big.Int
	Shares *big.Int
}

// EventType satisfies the Event interface.
func (FundPurchased) EventType() string { return TypeFundPurchased }

// Event converts the structured payload into a broadcastable event.
func (e FundPurchased) Event() *types.Event {
	return &types.Event{Type: TypeFundPurchased, Attributes: map[string]string{
		"fund":   e.Fund.Hex(),
		"buyer":  e.Buyer.Hex(),
		"amount": formatAmount(e.Amount),
		"shares": formatAmount(e.Shares),
	}}
}

// FundRedeemed captures a share redemption, immediate or deferred.
type FundRedeemed struct {
	Fund     common.Hash
	Redeemer common.Address
	Shares   *big.Int
	Payout   *big.Int
	Deferred bool
}

// EventType satisfies the Event interface.
func (FundRedeemed) EventType() string { return TypeFundRedeemed }

// Event converts the structured payload into a broadcastable event.
func (e FundRedeemed) Event() *types.Event {
	return &types.Event{Type: TypeFundRedeemed, Attributes: map[string]string{
		"fund":     e.Fund.Hex(),
		"redeemer": e.Redeemer.Hex(),
		"shares":   formatAmount(e.Shares),
		"payout":   formatAmount(e.Payout),
		"deferred": strconv.FormatBool(e.Deferred),
	}}
}

// RedemptionPended captures entry into the pending-redemption state.
type RedemptionPended struct {
	Fund      common.Hash
	Shortfall *big.Int
	StartTime int64
}

// EventType satisfies the Event interface.
func (RedemptionPended) EventType() string { return TypeRedemptionPended }

// Event converts the structured payload into a broadcastable event.
func (e RedemptionPended) Event() *types.Event {
	return &types.Event{Type: TypeRedemptionPended, Attributes: map[string]string{
		"fund":      e.Fund.Hex(),
		"shortfall": formatAmount(e.Shortfall),
		"startTime": strconv.FormatInt(e.StartTime, 10),
	}}
}

// RedemptionSettled captures the payout of the whole pending queue.
type RedemptionSettled struct {
	Fund   common.Hash
	Payout *big.Int
}

// EventType satisfies the Event interface.
func (RedemptionSettled) EventType() string { return TypeRedemptionSettled }

// Event converts the structured payload into a broadcastable event.
func (e RedemptionSettled) Event() *types.Event {
	return &types.Event{Type: TypeRedemptionSettled, Attributes: map[string]string{
		"fund":   e.Fund.Hex(),
		"payout": formatAmount(e.Payout),
	}}
}

// FundAssetAdded captures an asset joining the tracked list.
type FundAssetAdded struct {
	Fund  common.Hash
	Asset common.Address
}

// EventType satisfies the Event interface.
func (FundAssetAdded) EventType() string { return TypeFundAssetAdded }

// Event converts the structured payload into a broadcastable event.
func (e FundAssetAdded) Event() *types.Event {
	return &types.Event{Type: TypeFundAssetAdded, Attributes: map[string]string{
		"fund":  e.Fund.Hex(),
		"asset": e.Asset.Hex(),
	}}
}

// FundAssetRemoved captures an asset leaving the tracked list.
type FundAssetRemoved struct {
	Fund  common.Hash
	Asset common.Address
}

// EventType satisfies the Event interface.
func (FundAssetRemoved) EventType() string { return TypeFundAssetRemoved }

// Event converts the structured payload into a broadcastable event.
func (e FundAssetRemoved) Event() *types.Event {
	return &types.Event{Type: TypeFundAssetRemoved, Attributes: map[string]string{
		"fund":  e.Fund.Hex(),
		"asset": e.Asset.Hex(),
	}}
}

// FundExecuted captures a completed strategy execution with its before and
// after valuations.
type FundExecuted struct {
	Fund      common.Hash
	PreValue  *big.Int
	PostValue *big.Int
}

// EventType satisfies the Event interface.
func (FundExecuted) EventType() string { return TypeFundExecuted }

// Event converts the structured payload into a broadcastable event.
func (e FundExecuted) Event() *types.Event {
	return &types.Event{Type: TypeFundExecuted, Attributes: map[string]string{
		"fund":      e.Fund.Hex(),
		"preValue":  formatAmount(e.PreValue),
		"postValue": formatAmount(e.PostValue),
	}}
}

// ManagementFeeClaimed captures a management-fee share mint.
type ManagementFeeClaimed struct {
	Fund    common.Hash
	Manager common.Address
	Shares  *big.Int
}

// EventType satisfies the Event interface.
func (ManagementFeeClaimed) EventType() string { return TypeManagementFeeClaimed }

// Event converts the structured payload into a broadcastable event.
func (e ManagementFeeClaimed) Event() *types.Event {
	return &types.Event{Type: TypeManagementFeeClaimed, Attributes: map[string]string{
		"fund":    e.Fund.Hex(),
		"manager": e.Manager.Hex(),
		"shares":  formatAmount(e.Shares),
	}}
}

// PerformanceFeeClaimed captures a crystallization payout to the manager.
type PerformanceFeeClaimed struct {
	Fund    common.Hash
	Manager common.Address
	Shares  *big.Int
}

// EventType satisfies the Event interface.
func (PerformanceFeeClaimed) EventType() string { return TypePerformanceFeeClaimed }

// Event converts the structured payload into a broadcastable event.
func (e PerformanceFeeClaimed) Event() *types.Event {
	return &types.Event{Type: TypePerformanceFeeClaimed, Attributes: map[string]string{
		"fund":    e.Fund.Hex(),
		"manager": e.Manager.Hex(),
		"shares":  formatAmount(e.Shares),
	}}
}
