package fund

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"folio/native/fees"
)

// State is a fund's lifecycle position. Transitions are enumerated in the
// engine; every mutating call validates the state first.
type State uint8

const (
	Initializing State = iota
	Reviewing
	Executing
	RedemptionPending
	Liquidating
	Closed
)

var stateNames = map[State]string{
	Initializing:      "initializing",
	Reviewing:         "reviewing",
	Executing:         "executing",
	RedemptionPending: "redemptionPending",
	Liquidating:       "liquidating",
	Closed:            "closed",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return "unknown"
}

// OutstandingAccount holds not-yet-crystallized performance-fee shares. It is
// a sentinel in the share ledger, never a transactable party.
var OutstandingAccount = common.HexToAddress("0x000000000000000000000000000000000000Fee0")

// PendingRedemption is one deferred payout owed to a redeemer, recorded at
// the share price in effect when the redemption was deferred.
type PendingRedemption struct {
	Redeemer common.Address `json:"redeemer"`
	Payout   *big.Int       `json:"payout"`
}

// Record is the full per-fund state: identity, lifecycle, tracked assets,
// share ledger, pending-redemption queue, and fee bookkeeping. One record per
// fund ID in the arena.
type Record struct {
	ID           common.Hash    `json:"id"`
	Manager      common.Address `json:"manager"`
	Denomination common.Address `json:"denomination"`
	Dust         *big.Int       `json:"dust"`
	Level        uint64         `json:"level"`
	State        State          `json:"state"`
	Vault        common.Address `json:"vault"`

	Assets []common.Address `json:"assets"`

	TotalShares *big.Int                    `json:"totalShares"`
	Balances    map[common.Address]*big.Int `json:"balances"`

	Pending          []PendingRedemption `json:"pending,omitempty"`
	PendingTotal     *big.Int            `json:"pendingTotal"`
	PendingStartTime int64               `json:"pendingStartTime"`

	MFee *fees.ManagementState  `json:"mFee"`
	PFee *fees.PerformanceState `json:"pFee"`
}

// normalize backfills the allocatable fields a JSON round-trip may null out.
func (r *Record) normalize() {
	if r.Dust == nil {
		r.Dust = big.NewInt(0)
	}
	if r.TotalShares == nil {
		r.TotalShares = big.NewInt(0)
	}
	if r.Balances == nil {
		r.Balances = make(map[common.Address]*big.Int)
	}
	if r.PendingTotal == nil {
		r.PendingTotal = big.NewInt(0)
	}
}

// Clone deep-copies the record so callers cannot mutate stored state.
func (r *Record) Clone() *Record {
	if r == nil {
		return nil
	}
	out := *r
	out.Dust = copyBig(r.Dust)
	out.TotalShares = copyBig(r.TotalShares)
	out.PendingTotal = copyBig(r.PendingTotal)
	out.Assets = append([]common.Address(nil), r.Assets...)
	out.Balances = make(map[common.Address]*big.Int, len(r.Balances))
	for addr, balance := range r.Balances {
		out.Balances[addr] = copyBig(balance)
	}
	out.Pending = make([]PendingRedemption, len(r.Pending))
	for i, p := range r.Pending {
		out.Pending[i] = PendingRedemption{Redeemer: p.Redeemer, Payout: copyBig(p.Payout)}
	}
	if r.MFee != nil {
		mfee := *r.MFee
		mfee.EffectiveRate64x64 = copyBig(r.MFee.EffectiveRate64x64)
		out.MFee = &mfee
	}
	if r.PFee != nil {
		pfee := *r.PFee
		pfee.HWM64x64 = copyBig(r.PFee.HWM64x64)
		pfee.LastPrice64x64 = copyBig(r.PFee.LastPrice64x64)
		pfee.OutstandingShares = copyBig(r.PFee.OutstandingShares)
		out.PFee = &pfee
	}
	return &out
}

// Tracked reports whether the asset is on the tracked list.
func (r *Record) Tracked(asset common.Address) bool {
	for _, tracked := range r.Assets {
		if tracked == asset {
			return true
		}
	}
	return false
}

// BalanceOf returns the share balance of the holder.
func (r *Record) BalanceOf(holder common.Address) *big.Int {
	if balance, ok := r.Balances[holder]; ok && balance != nil {
		return new(big.Int).Set(balance)
	}
	return big.NewInt(0)
}

// NetShares returns the supply excluding the outstanding fee claim.
func (r *Record) NetShares() *big.Int {
	net := new(big.Int).Set(r.TotalShares)
	if r.PFee != nil && r.PFee.OutstandingShares != nil {
		net.Sub(net, r.PFee.OutstandingShares)
	}
	return net
}

func copyBig(v *big.Int) *big.Int {
	if v == nil {
		return nil
	}
	return new(big.Int).Set(v)
}
