package state

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/require"

	"folio/storage"
)

func TestLedgerTransfer(t *testing.T) {
	ledger := NewLedger(storage.NewMemDB())
	token := asset
	alice := owner
	bob := resolver

	balance, err := ledger.BalanceOf(token, alice)
	require.NoError(t, err)
	require.Zero(t, balance.Sign())

	require.NoError(t, ledger.Credit(token, alice, big.NewInt(1000)))
	require.NoError(t, ledger.Transfer(token, alice, bob, big.NewInt(400)))

	balance, err = ledger.BalanceOf(token, alice)
	require.NoError(t, err)
	require.Equal(t, int64(600), balance.Int64())
	balance, err = ledger.BalanceOf(token, bob)
	require.NoError(t, err)
	require.Equal(t, int64(400), balance.Int64())

	require.Error(t, ledger.Transfer(token, alice, bob, big.NewInt(601)))
	require.Error(t, ledger.Transfer(token, alice, bob, big.NewInt(-1)))

	// Zero-value and self transfers are no-ops.
	require.NoError(t, ledger.Transfer(token, alice, bob, big.NewInt(0)))
	require.NoError(t, ledger.Transfer(token, alice, alice, big.NewInt(600)))

	// Draining a balance removes the key; it still reads back as zero.
	require.NoError(t, ledger.Transfer(token, alice, bob, big.NewInt(600)))
	balance, err = ledger.BalanceOf(token, alice)
	require.NoError(t, err)
	require.Zero(t, balance.Sign())
}
