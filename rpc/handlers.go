package rpc

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"

	nativecommon "folio/native/common"
	"folio/native/fund"
)

const defaultEventLimit = 50

// FundSummary is the list-endpoint projection of a fund record.
type FundSummary struct {
	ID           string `json:"id"`
	Manager      string `json:"manager"`
	Denomination string `json:"denomination"`
	State        string `json:"state"`
	Level        uint64 `json:"level"`
}

// FundResult is the full fund detail served at /v1/funds/{id}.
type FundResult struct {
	FundSummary
	Vault            string   `json:"vault"`
	Dust             string   `json:"dust"`
	Assets           []string `json:"assets"`
	TotalShares      string   `json:"totalShares"`
	GrossAssetValue  string   `json:"grossAssetValue"`
	ReserveRatio     string   `json:"reserveRatio"`
	PendingTotal     string   `json:"pendingTotal,omitempty"`
	PendingStartTime int64    `json:"pendingStartTime,omitempty"`
	ManagementRate   uint64   `json:"managementRate"`
	PerformanceRate  uint64   `json:"performanceRate"`
}

// AssetResult pairs a tracked asset with its position in the list.
type AssetResult struct {
	Asset        string `json:"asset"`
	Denomination bool   `json:"denomination"`
}

// FeedResult reports a price feed's health.
type FeedResult struct {
	Asset       string `json:"asset"`
	Aggregator  string `json:"aggregator"`
	LastUpdated int64  `json:"lastUpdated"`
	Stale       bool   `json:"stale"`
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleFundList(w http.ResponseWriter, r *http.Request) {
	if s.funds == nil {
		writeError(w, http.StatusServiceUnavailable, "fund engine unavailable")
		return
	}
	ids, err := s.funds.FundIDs()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	summaries := make([]FundSummary, 0, len(ids))
	for _, id := range ids {
		record, err := s.funds.Fund(id)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		summaries = append(summaries, summarize(record))
	}
	writeJSON(w, http.StatusOK, summaries)
}

func (s *Server) handleFund(w http.ResponseWriter, r *http.Request) {
	if s.funds == nil {
		writeError(w, http.StatusServiceUnavailable, "fund engine unavailable")
		return
	}
	id, ok := parseHash(w, r)
	if !ok {
		return
	}
	record, err := s.funds.Fund(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	result := FundResult{
		FundSummary:      summarize(record),
		Vault:            record.Vault.Hex(),
		Dust:             record.Dust.String(),
		Assets:           hexAddresses(record.Assets),
		TotalShares:      record.TotalShares.String(),
		PendingStartTime: record.PendingStartTime,
	}
	if record.PendingTotal != nil && record.PendingTotal.Sign() > 0 {
		result.PendingTotal = record.PendingTotal.String()
	}
	if record.MFee != nil {
		result.ManagementRate = record.MFee.Rate
	}
	if record.PFee != nil {
		result.PerformanceRate = record.PFee.Rate
	}
	if gav, err := s.funds.GrossAssetValue(id); err == nil {
		result.GrossAssetValue = gav.String()
	}
	if ratio, err := s.funds.ReserveRatio(id); err == nil {
		result.ReserveRatio = ratio.String()
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleFundAssets(w http.ResponseWriter, r *http.Request) {
	if s.funds == nil {
		writeError(w, http.StatusServiceUnavailable, "fund engine unavailable")
		return
	}
	id, ok := parseHash(w, r)
	if !ok {
		return
	}
	record, err := s.funds.Fund(id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	assets := make([]AssetResult, 0, len(record.Assets))
	for _, asset := range record.Assets {
		assets = append(assets, AssetResult{
			Asset:        asset.Hex(),
			Denomination: asset == record.Denomination,
		})
	}
	writeJSON(w, http.StatusOK, assets)
}

func (s *Server) handleFundEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeError(w, http.StatusServiceUnavailable, "event index unavailable")
		return
	}
	id, ok := parseHash(w, r)
	if !ok {
		return
	}
	limit := defaultEventLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeError(w, http.StatusBadRequest, "malformed limit")
			return
		}
		limit = parsed
	}
	rows, err := s.events.EventsByFund(id.Hex(), limit)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleComptroller(w http.ResponseWriter, r *http.Request) {
	if s.control == nil {
		writeError(w, http.StatusServiceUnavailable, "comptroller unavailable")
		return
	}
	cfg, err := s.control.Config()
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleFeeds(w http.ResponseWriter, r *http.Request) {
	if s.oracle == nil {
		writeError(w, http.StatusServiceUnavailable, "oracle unavailable")
		return
	}
	health := s.oracle.Health()
	feeds := make([]FeedResult, 0, len(health))
	for _, entry := range health {
		feeds = append(feeds, FeedResult{
			Asset:       entry.Asset.Hex(),
			Aggregator:  entry.Aggregator.Hex(),
			LastUpdated: entry.LastUpdated.Unix(),
			Stale:       entry.Stale,
		})
	}
	writeJSON(w, http.StatusOK, feeds)
}

// fail maps engine errors onto HTTP statuses. Revert codes are client errors;
// anything else is a 500 and gets logged.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	var revert nativecommon.RevertCode
	if errors.As(err, &revert) {
		status := http.StatusBadRequest
		if revert == nativecommon.FundNotFound {
			status = http.StatusNotFound
		}
		writeError(w, status, err.Error())
		return
	}
	var state nativecommon.InvalidState
	if errors.As(err, &state) {
		writeError(w, http.StatusConflict, err.Error())
		return
	}
	s.log.Error("query failed", "path", r.URL.Path, "err", err)
	writeError(w, http.StatusInternalServerError, "internal error")
}

func summarize(record *fund.Record) FundSummary {
	return FundSummary{
		ID:           record.ID.Hex(),
		Manager:      record.Manager.Hex(),
		Denomination: record.Denomination.Hex(),
		State:        record.State.String(),
		Level:        record.Level,
	}
}

func parseHash(w http.ResponseWriter, r *http.Request) (common.Hash, bool) {
	raw := chi.URLParam(r, "id")
	trimmed := strings.TrimPrefix(raw, "0x")
	if len(trimmed) != common.HashLength*2 {
		writeError(w, http.StatusBadRequest, "malformed fund id")
		return common.Hash{}, false
	}
	for _, c := range trimmed {
		if !strings.ContainsRune("0123456789abcdefABCDEF", c) {
			writeError(w, http.StatusBadRequest, "malformed fund id")
			return common.Hash{}, false
		}
	}
	return common.HexToHash(raw), true
}

func hexAddresses(addrs []common.Address) []string {
	out := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		out = append(out, addr.Hex())
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: message})
}
