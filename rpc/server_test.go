package rpc

import (
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"

	"folio/explorer"
	nativecommon "folio/native/common"
	"folio/native/comptroller"
	"folio/native/fees"
	"folio/native/fund"
	"folio/native/oracle"
)

var (
	testManager = common.HexToAddress("0x1000000000000000000000000000000000000001")
	testDenom   = common.HexToAddress("0x2000000000000000000000000000000000000001")
	testFundID  = common.HexToHash("0x00000000000000000000000000000000000000000000000000000000000000aa")
)

type stubFunds struct {
	records map[common.Hash]*fund.Record
}

func (s *stubFunds) Fund(id common.Hash) (*fund.Record, error) {
	record, ok := s.records[id]
	if !ok {
		return nil, nativecommon.FundNotFound
	}
	return record, nil
}

func (s *stubFunds) FundIDs() ([]common.Hash, error) {
	ids := make([]common.Hash, 0, len(s.records))
	for id := range s.records {
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *stubFunds) GrossAssetValue(id common.Hash) (*big.Int, error) {
	if _, ok := s.records[id]; !ok {
		return nil, nativecommon.FundNotFound
	}
	return big.NewInt(1_000_000), nil
}

func (s *stubFunds) ReserveRatio(id common.Hash) (*big.Int, error) {
	if _, ok := s.records[id]; !ok {
		return nil, nativecommon.FundNotFound
	}
	return big.NewInt(10_000), nil
}

type stubControl struct{ cfg *comptroller.Config }

func (s *stubControl) Config() (*comptroller.Config, error) { return s.cfg, nil }

type stubOracle struct{ health []oracle.FeedHealth }

func (s *stubOracle) Health() []oracle.FeedHealth { return s.health }

type stubEvents struct{ rows []explorer.EventRecord }

func (s *stubEvents) EventsByFund(fund string, limit int) ([]explorer.EventRecord, error) {
	return s.rows, nil
}

func testRecord(t *testing.T) *fund.Record {
	t.Helper()
	mfee, err := fees.NewManagementState(100, 0)
	require.NoError(t, err)
	pfee, err := fees.NewPerformanceState(1000, 3600, 0)
	require.NoError(t, err)
	return &fund.Record{
		ID:           testFundID,
		Manager:      testManager,
		Denomination: testDenom,
		Dust:         big.NewInt(100),
		Level:        1,
		State:        fund.Executing,
		Vault:        common.HexToAddress("0x3000000000000000000000000000000000000001"),
		Assets:       []common.Address{testDenom},
		TotalShares:  big.NewInt(1000),
		Balances:     map[common.Address]*big.Int{testManager: big.NewInt(1000)},
		PendingTotal: big.NewInt(0),
		MFee:         mfee,
		PFee:         pfee,
	}
}

func newTestServer(t *testing.T, cfg ServerConfig) (*Server, *httptest.Server) {
	t.Helper()
	srv := NewServer(cfg, nil,
		&stubFunds{records: map[common.Hash]*fund.Record{testFundID: testRecord(t)}},
		&stubControl{cfg: &comptroller.Config{ValueTolerance: 9000, AssetCapacity: 16}},
		&stubOracle{health: []oracle.FeedHealth{{
			Asset:       testDenom,
			Aggregator:  common.HexToAddress("0x4000000000000000000000000000000000000001"),
			LastUpdated: time.Unix(1_700_000_000, 0),
			Stale:       false,
		}}},
		&stubEvents{rows: []explorer.EventRecord{{Type: "fund.purchased", Fund: testFundID.Hex()}}},
	)
	ts := httptest.NewServer(srv.Router())
	t.Cleanup(ts.Close)
	return srv, ts
}

func get(t *testing.T, url string, out any) int {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func TestHealthz(t *testing.T) {
	_, ts := newTestServer(t, ServerConfig{})

	var body map[string]string
	require.Equal(t, http.StatusOK, get(t, ts.URL+"/healthz", &body))
	require.Equal(t, "ok", body["status"])
}

func TestFundDetail(t *testing.T) {
	_, ts := newTestServer(t, ServerConfig{})

	var result FundResult
	require.Equal(t, http.StatusOK, get(t, ts.URL+"/v1/funds/"+testFundID.Hex(), &result))
	require.Equal(t, testFundID.Hex(), result.ID)
	require.Equal(t, testManager.Hex(), result.Manager)
	require.Equal(t, "Executing", result.State)
	require.Equal(t, "1000", result.TotalShares)
	require.Equal(t, "1000000", result.GrossAssetValue)
	require.Equal(t, "10000", result.ReserveRatio)
	require.Equal(t, uint64(100), result.ManagementRate)
	require.Equal(t, uint64(1000), result.PerformanceRate)

	var errBody errorBody
	missing := common.HexToHash("0xff").Hex()
	require.Equal(t, http.StatusNotFound, get(t, ts.URL+"/v1/funds/"+missing, &errBody))
	require.Equal(t, nativecommon.FundNotFound.Error(), errBody.Error)

	require.Equal(t, http.StatusBadRequest, get(t, ts.URL+"/v1/funds/nonsense", &errBody))
}

func TestFundListAndAssets(t *testing.T) {
	_, ts := newTestServer(t, ServerConfig{})

	var summaries []FundSummary
	require.Equal(t, http.StatusOK, get(t, ts.URL+"/v1/funds", &summaries))
	require.Len(t, summaries, 1)
	require.Equal(t, testFundID.Hex(), summaries[0].ID)

	var assets []AssetResult
	require.Equal(t, http.StatusOK, get(t, ts.URL+"/v1/funds/"+testFundID.Hex()+"/assets", &assets))
	require.Len(t, assets, 1)
	require.True(t, assets[0].Denomination)
}

func TestFundEvents(t *testing.T) {
	_, ts := newTestServer(t, ServerConfig{})

	var rows []explorer.EventRecord
	require.Equal(t, http.StatusOK, get(t, ts.URL+"/v1/funds/"+testFundID.Hex()+"/events", &rows))
	require.Len(t, rows, 1)
	require.Equal(t, "fund.purchased", rows[0].Type)

	var errBody errorBody
	require.Equal(t, http.StatusBadRequest,
		get(t, ts.URL+"/v1/funds/"+testFundID.Hex()+"/events?limit=zero", &errBody))
}

func TestComptrollerAndFeeds(t *testing.T) {
	_, ts := newTestServer(t, ServerConfig{})

	var cfg comptroller.Config
	require.Equal(t, http.StatusOK, get(t, ts.URL+"/v1/comptroller", &cfg))
	require.Equal(t, uint64(9000), cfg.ValueTolerance)

	var feeds []FeedResult
	require.Equal(t, http.StatusOK, get(t, ts.URL+"/v1/oracle/feeds", &feeds))
	require.Len(t, feeds, 1)
	require.Equal(t, testDenom.Hex(), feeds[0].Asset)
	require.False(t, feeds[0].Stale)
}

func TestRateLimit(t *testing.T) {
	_, ts := newTestServer(t, ServerConfig{RatePerSecond: 0.001, Burst: 1})

	require.Equal(t, http.StatusOK, get(t, ts.URL+"/healthz", nil))
	require.Equal(t, http.StatusTooManyRequests, get(t, ts.URL+"/healthz", nil))
}
