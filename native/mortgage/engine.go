package mortgage

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"folio/core/events"
	"folio/core/types"
	nativecommon "folio/native/common"
)

var (
	errNilState  = errors.New("mortgage vault: state not configured")
	errNilLedger = errors.New("mortgage vault: token ledger not configured")
)

type engineState interface {
	GetMortgage(fundID common.Hash) (*big.Int, error)
	PutMortgage(fundID common.Hash, amount *big.Int) error
	DeleteMortgage(fundID common.Hash) error
	GetTotalMortgage() (*big.Int, error)
	PutTotalMortgage(amount *big.Int) error
}

// Engine escrows the bonding token staked per fund. A fund carries at most
// one bond at a time; the bond economically ties the creator to the fund
// until it is closed.
type Engine struct {
	state        engineState
	ledger       types.TokenLedger
	token        common.Address
	vaultAddress common.Address
	emitter      events.Emitter
}

// NewEngine constructs a mortgage vault over the given bonding token and
// escrow account.
func NewEngine(token, vaultAddress common.Address, ledger types.TokenLedger) *Engine {
	return &Engine{
		ledger:       ledger,
		token:        token,
		vaultAddress: vaultAddress,
		emitter:      events.NoopEmitter{},
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

// Token returns the bonding token address.
func (e *Engine) Token() common.Address { return e.token }

// Mortgage escrows amount of the bonding token from sender on behalf of the
// fund. A zero amount is a no-op so tier-zero funds finalize without a token
// transfer; re-bonding an already-bonded fund is rejected.
func (e *Engine) Mortgage(sender common.Address, fundID common.Hash, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	existing, err := e.fundAmount(fundID)
	if err != nil {
		return err
	}
	if existing.Sign() > 0 {
		return nativecommon.MortgageVaultAlreadyMortgaged
	}
	if e.ledger == nil {
		return errNilLedger
	}
	if err := e.ledger.Transfer(e.token, sender, e.vaultAddress, amount); err != nil {
		return err
	}
	if err := e.state.PutMortgage(fundID, amount); err != nil {
		return err
	}
	total, err := e.totalAmount()
	if err != nil {
		return err
	}
	if err := e.state.PutTotalMortgage(new(big.Int).Add(total, amount)); err != nil {
		return err
	}
	e.emitter.Emit(events.MortgageStaked{Sender: sender, FundID: fundID, Amount: amount})
	return nil
}

// Claim releases the fund's bond to the receiver. Claiming an unbonded fund
// is a no-op.
func (e *Engine) Claim(receiver common.Address, fundID common.Hash) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if receiver == (common.Address{}) {
		return nativecommon.MortgageVaultZeroReceiver
	}
	amount, err := e.fundAmount(fundID)
	if err != nil {
		return err
	}
	if amount.Sign() == 0 {
		return nil
	}
	if e.ledger == nil {
		return errNilLedger
	}
	if err := e.ledger.Transfer(e.token, e.vaultAddress, receiver, amount); err != nil {
		return err
	}
	if err := e.state.DeleteMortgage(fundID); err != nil {
		return err
	}
	total, err := e.totalAmount()
	if err != nil {
		return err
	}
	if err := e.state.PutTotalMortgage(new(big.Int).Sub(total, amount)); err != nil {
		return err
	}
	e.emitter.Emit(events.MortgageClaimed{Receiver: receiver, FundID: fundID, Amount: amount})
	return nil
}

// FundAmount returns the bond currently escrowed for the fund.
func (e *Engine) FundAmount(fundID common.Hash) (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.fundAmount(fundID)
}

// TotalAmount returns the vault-wide escrowed bond total.
func (e *Engine) TotalAmount() (*big.Int, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.totalAmount()
}

func (e *Engine) fundAmount(fundID common.Hash) (*big.Int, error) {
	amount, err := e.state.GetMortgage(fundID)
	if err != nil {
		return nil, err
	}
	if amount == nil {
		return big.NewInt(0), nil
	}
	return amount, nil
}

func (e *Engine) totalAmount() (*big.Int, error) {
	total, err := e.state.GetTotalMortgage()
	if err != nil {
		return nil, err
	}
	if total == nil {
		return big.NewInt(0), nil
	}
	return total, nil
}
