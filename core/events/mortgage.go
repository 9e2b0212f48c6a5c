package events

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"folio/core/types"
)

const (
	// TypeMortgageStaked is emitted when a creator bond is escrowed for a fund.
	TypeMortgageStaked = "mortgage.staked"
	// TypeMortgageClaimed is emitted when a fund's bond is released.
	TypeMortgageClaimed = "mortgage.claimed"
)

// MortgageStaked captures a bond escrowed for a fund.
type MortgageStaked struct {
	Sender common.Address
	FundID common.Hash
	Amount *big.Int
}

// EventType satisfies the Event interface.
func (MortgageStaked) EventType() string { return TypeMortgageStaked }

// Event converts the structured payload into a broadcastable event.
func (e MortgageStaked) Event() *types.Event {
	return &types.Event{Type: TypeMortgageStaked, Attributes: map[string]string{
		"sender": e.Sender.Hex(),
		"fund":   e.FundID.Hex(),
		"amount": formatAmount(e.Amount),
	}}
}

// MortgageClaimed captures a bond released back out of escrow.
type MortgageClaimed struct {
	Receiver common.Address
	FundID   common.Hash
	Amount   *big.Int
}

// EventType satisfies the Event interface.
func (MortgageClaimed) EventType() string { return TypeMortgageClaimed }

// Event converts the structured payload into a broadcastable event.
func (e MortgageClaimed) Event() *types.Event {
	return &types.Event{Type: TypeMortgageClaimed, Attributes: map[string]string{
		"receiver": e.Receiver.Hex(),
		"fund":     e.FundID.Hex(),
		"amount":   formatAmount(e.Amount),
	}}
}
