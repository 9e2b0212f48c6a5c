package state

import (
	"errors"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"folio/storage"
)

const ledgerPrefix = "ledger/"

var errLedgerInsufficient = errors.New("ledger: insufficient balance")

// Ledger is the persistent token balance book backing the engines'
// types.TokenLedger boundary. Balances are stored per (token, holder) pair as
// decimal strings; a missing key reads as zero.
type Ledger struct {
	mu sync.Mutex
	db storage.Database
}

// NewLedger wraps the database in a token ledger.
func NewLedger(db storage.Database) *Ledger {
	return &Ledger{db: db}
}

// BalanceOf returns the holder's balance for the token.
func (l *Ledger) BalanceOf(token, holder common.Address) (*big.Int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.balance(token, holder)
}

// Transfer moves amount from one holder to another, failing when the sender's
// balance does not cover it.
func (l *Ledger) Transfer(token, from, to common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("ledger: malformed transfer amount")
	}
	if amount.Sign() == 0 || from == to {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	fromBalance, err := l.balance(token, from)
	if err != nil {
		return err
	}
	if fromBalance.Cmp(amount) < 0 {
		return errLedgerInsufficient
	}
	toBalance, err := l.balance(token, to)
	if err != nil {
		return err
	}
	if err := l.setBalance(token, from, fromBalance.Sub(fromBalance, amount)); err != nil {
		return err
	}
	return l.setBalance(token, to, toBalance.Add(toBalance, amount))
}

// Credit mints amount to the holder. Used when bridging deposits in and by
// test fixtures; the engines themselves never mint.
func (l *Ledger) Credit(token, holder common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() < 0 {
		return fmt.Errorf("ledger: malformed credit amount")
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	balance, err := l.balance(token, holder)
	if err != nil {
		return err
	}
	return l.setBalance(token, holder, balance.Add(balance, amount))
}

func (l *Ledger) balance(token, holder common.Address) (*big.Int, error) {
	raw, err := l.db.Get(ledgerKey(token, holder))
	if errors.Is(err, storage.ErrNotFound) {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, err
	}
	balance, ok := new(big.Int).SetString(string(raw), 10)
	if !ok {
		return nil, fmt.Errorf("ledger: corrupt balance for %s/%s", token.Hex(), holder.Hex())
	}
	return balance, nil
}

func (l *Ledger) setBalance(token, holder common.Address, balance *big.Int) error {
	key := ledgerKey(token, holder)
	if balance.Sign() == 0 {
		return l.db.Delete(key)
	}
	return l.db.Put(key, []byte(balance.String()))
}

func ledgerKey(token, holder common.Address) []byte {
	return []byte(ledgerPrefix + token.Hex() + "/" + holder.Hex())
}
