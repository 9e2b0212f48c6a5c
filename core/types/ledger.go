package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

// TokenLedger is the ERC-20 boundary. The protocol engines never implement
// token mechanics themselves; they move balances through this interface and
// treat failures as fatal for the enclosing transaction.
type TokenLedger interface {
	BalanceOf(token, holder common.Address) (*big.Int, error)
	Transfer(token, from, to common.Address, amount *big.Int) error
}
