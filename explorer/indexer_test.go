package explorer

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"folio/core/events"
)

func openTestIndexer(t *testing.T) *Indexer {
	t.Helper()
	ix, err := Open(":memory:", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ix.Close() })
	return ix
}

func TestIndexerPersistsEvents(t *testing.T) {
	ix := openTestIndexer(t)

	fundA := common.HexToHash("0x0a")
	fundB := common.HexToHash("0x0b")
	buyer := common.HexToAddress("0x1000000000000000000000000000000000000001")

	ix.Emit(events.FundPurchased{Fund: fundA, Buyer: buyer, Amount: big.NewInt(1000), Shares: big.NewInt(1000)})
	ix.Emit(events.FundPurchased{Fund: fundB, Buyer: buyer, Amount: big.NewInt(500), Shares: big.NewInt(500)})
	ix.Emit(events.FundStateTransited{Fund: fundA, From: "Initializing", To: "Executing"})

	purchases, err := ix.EventsByType(events.TypeFundPurchased, 10)
	require.NoError(t, err)
	require.Len(t, purchases, 2)
	// Newest first.
	require.Equal(t, fundB.Hex(), purchases[0].Fund)
	require.Equal(t, fundA.Hex(), purchases[1].Fund)
	require.JSONEq(t, `{
		"fund": "`+fundA.Hex()+`",
		"buyer": "`+buyer.Hex()+`",
		"amount": "1000",
		"shares": "1000"
	}`, purchases[1].Attributes)

	byFund, err := ix.EventsByFund(fundA.Hex(), 10)
	require.NoError(t, err)
	require.Len(t, byFund, 2)
	require.Equal(t, events.TypeFundStateTransited, byFund[0].Type)
	require.Equal(t, events.TypeFundPurchased, byFund[1].Type)
}

func TestIndexerIgnoresBareEvents(t *testing.T) {
	ix := openTestIndexer(t)

	// Events without a structured payload are dropped, not stored half-empty.
	ix.Emit(bareEvent{})

	rows, err := ix.EventsByType("bare", 10)
	require.NoError(t, err)
	require.Empty(t, rows)
}

type bareEvent struct{}

func (bareEvent) EventType() string { return "bare" }

func TestEventLabel(t *testing.T) {
	require.Equal(t, "Purchased", EventLabel("fund.purchased"))
	require.Equal(t, "State Transited", EventLabel("fund.stateTransited"))
	require.Equal(t, "M Fee Claimed", EventLabel("fund.mFeeClaimed"))
	require.Equal(t, "Event", EventLabel(""))
}
