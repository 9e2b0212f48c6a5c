package fund

import (
	"encoding/binary"
	"errors"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"folio/core/events"
	"folio/core/types"
	nativecommon "folio/native/common"
	"folio/native/comptroller"
	"folio/native/fees"
	"folio/native/router"
	"folio/observability"
)

var (
	errNilState  = errors.New("fund engine: state not configured")
	errNilLedger = errors.New("fund engine: token ledger not configured")
	errNilAction = errors.New("fund engine: exec action not configured")
)

type engineState interface {
	GetFund(id common.Hash) (*Record, error)
	PutFund(record *Record) error
	FundIDs() ([]common.Hash, error)
	FundCount() (uint64, error)
	PutFundCount(count uint64) error
}

// Comptroller is the policy surface the fund consults. The concrete
// comptroller engine satisfies it.
type Comptroller interface {
	Implementation(caller common.Address) (common.Address, error)
	Config() (*comptroller.Config, error)
	IsValidCreator(creator common.Address) (bool, error)
	IsValidDenomination(denomination common.Address) (bool, error)
	DenominationDust(denomination common.Address) (*big.Int, error)
	IsValidDealingAsset(level uint64, asset common.Address) (bool, error)
	IsValidInitialAssets(level uint64, assets []common.Address) (bool, error)
	MortgageTierAmount(level uint64) (*big.Int, bool, error)
}

// Valuer is the valuation surface of the asset router.
type Valuer interface {
	CalcAssetValue(asset common.Address, amount *big.Int, quote common.Address) (*big.Int, error)
	CalcAssetsTotalValue(assets []common.Address, amounts []*big.Int, owner, quote common.Address) (*big.Int, error)
}

// MortgageVault is the bonding escrow surface.
type MortgageVault interface {
	Mortgage(sender common.Address, fundID common.Hash, amount *big.Int) error
	Claim(receiver common.Address, fundID common.Hash) error
}

// ExecAction runs a strategy batch against the fund's execution vault and
// reports the assets it dealt in. It is a black box from the fund's view; the
// value-tolerance check after the call is the fund's only defense.
type ExecAction interface {
	Exec(vault common.Address, data []byte) ([]common.Address, error)
}

// Engine is the fund arena: every fund record keyed by ID, mutated through
// the lifecycle operations. All mutators resolve the comptroller
// implementation first so the global halt and per-proxy bans short-circuit
// everything.
type Engine struct {
	state       engineState
	comptroller Comptroller
	valuer      Valuer
	vault       MortgageVault
	ledger      types.TokenLedger
	action      ExecAction
	emitter     events.Emitter
	nowFn       func() int64

	defaultMFeeRate        uint64
	defaultPFeeRate        uint64
	defaultCrystallization int64
}

// UseDefaultRate is the sentinel fee rate meaning "use the engine's configured
// default". It is never a legal explicit rate (rates must stay below the fee
// base).
const UseDefaultRate = ^uint64(0)

// NewEngine constructs a fund engine over its collaborators.
func NewEngine(comptroller Comptroller, valuer Valuer, vault MortgageVault, ledger types.TokenLedger) *Engine {
	return &Engine{
		comptroller: comptroller,
		valuer:      valuer,
		vault:       vault,
		ledger:      ledger,
		emitter:     events.NoopEmitter{},
		nowFn:       func() int64 { return time.Now().Unix() },
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

// SetAction wires the batch execution engine.
func (e *Engine) SetAction(action ExecAction) { e.action = action }

// SetFeeDefaults configures the fee terms applied when CreateFund is called
// with the UseDefaultRate sentinel or a zero crystallization period.
func (e *Engine) SetFeeDefaults(mFeeRate, pFeeRate uint64, crystallizationPeriod int64) {
	e.defaultMFeeRate = mFeeRate
	e.defaultPFeeRate = pFeeRate
	e.defaultCrystallization = crystallizationPeriod
}

// SetNowFn overrides the clock, for tests.
func (e *Engine) SetNowFn(now func() int64) {
	if now != nil {
		e.nowFn = now
	}
}

// CreateFund opens a new fund record in Initializing. The creator must be
// whitelisted, the denomination permitted, and the level backed by a
// configured mortgage tier. Fee terms are validated here and frozen once the
// fund finalizes.
func (e *Engine) CreateFund(creator, denomination common.Address, level uint64, mFeeRate, pFeeRate uint64, crystallizationPeriod int64) (common.Hash, error) {
	if e == nil || e.state == nil {
		return common.Hash{}, errNilState
	}
	if _, err := e.comptroller.Implementation(creator); err != nil {
		return common.Hash{}, err
	}
	ok, err := e.comptroller.IsValidCreator(creator)
	if err != nil {
		return common.Hash{}, err
	}
	if !ok {
		return common.Hash{}, nativecommon.FundProxyInvalidCreator
	}
	ok, err = e.comptroller.IsValidDenomination(denomination)
	if err != nil {
		return common.Hash{}, err
	}
	if !ok {
		return common.Hash{}, nativecommon.FundProxyInvalidDenomination
	}
	dust, err := e.comptroller.DenominationDust(denomination)
	if err != nil {
		return common.Hash{}, err
	}
	if _, exists, err := e.comptroller.MortgageTierAmount(level); err != nil {
		return common.Hash{}, err
	} else if !exists {
		return common.Hash{}, nativecommon.FundProxyInvalidMortgageTier
	}

	if mFeeRate == UseDefaultRate {
		mFeeRate = e.defaultMFeeRate
	}
	if pFeeRate == UseDefaultRate {
		pFeeRate = e.defaultPFeeRate
	}
	if crystallizationPeriod == 0 {
		crystallizationPeriod = e.defaultCrystallization
	}

	now := e.nowFn()
	mfee, err := fees.NewManagementState(mFeeRate, now)
	if err != nil {
		return common.Hash{}, err
	}
	pfee, err := fees.NewPerformanceState(pFeeRate, crystallizationPeriod, now)
	if err != nil {
		return common.Hash{}, err
	}

	count, err := e.state.FundCount()
	if err != nil {
		return common.Hash{}, err
	}
	id := fundID(creator, denomination, count)
	if existing, err := e.state.GetFund(id); err != nil {
		return common.Hash{}, err
	} else if existing != nil {
		return common.Hash{}, nativecommon.FundProxyAlreadyExists
	}

	record := &Record{
		ID:           id,
		Manager:      creator,
		Denomination: denomination,
		Dust:         new(big.Int).Set(dust),
		Level:        level,
		State:        Initializing,
		Vault:        vaultAddress(id),
		TotalShares:  big.NewInt(0),
		Balances:     make(map[common.Address]*big.Int),
		PendingTotal: big.NewInt(0),
		MFee:         mfee,
		PFee:         pfee,
	}
	if err := e.state.PutFundCount(count + 1); err != nil {
		return common.Hash{}, err
	}
	if err := e.state.PutFund(record); err != nil {
		return common.Hash{}, err
	}
	e.emitter.Emit(events.FundCreated{Fund: id, Owner: creator, Denomination: denomination, Level: level})
	return id, nil
}

// Finalize moves an Initializing fund into Executing. The denomination must
// still be permitted, the tracked list empty, and the level's bond staked; on
// success the denomination becomes the first tracked asset.
func (e *Engine) Finalize(caller common.Address, id common.Hash) error {
	return e.withFund(caller, id, func(record *Record) error {
		if caller != record.Manager {
			return nativecommon.FundNotPermittedCaller
		}
		if err := ensureStates(record, Initializing); err != nil {
			return err
		}
		ok, err := e.comptroller.IsValidDenomination(record.Denomination)
		if err != nil {
			return err
		}
		if !ok {
			return nativecommon.FundProxyInvalidDenomination
		}
		if len(record.Assets) != 0 {
			return nativecommon.AssetModuleDifferentAssetRemaining
		}
		ok, err = e.comptroller.IsValidInitialAssets(record.Level, []common.Address{record.Denomination})
		if err != nil {
			return err
		}
		if !ok {
			return nativecommon.AssetModuleInvalidAsset
		}
		tier, exists, err := e.comptroller.MortgageTierAmount(record.Level)
		if err != nil {
			return err
		}
		if !exists {
			return nativecommon.FundProxyInvalidMortgageTier
		}
		if e.vault != nil {
			if err := e.vault.Mortgage(caller, record.ID, tier); err != nil {
				return err
			}
		}
		record.Assets = append(record.Assets, record.Denomination)
		e.transition(record, Executing)
		e.emitter.Emit(events.FundAssetAdded{Fund: record.ID, Asset: record.Denomination})
		return nil
	})
}

// SetManagementFeeRate replaces the management fee terms. Fee terms are only
// mutable while the fund is Initializing.
func (e *Engine) SetManagementFeeRate(caller common.Address, id common.Hash, rate uint64) error {
	return e.withFund(caller, id, func(record *Record) error {
		if caller != record.Manager {
			return nativecommon.FundNotPermittedCaller
		}
		if err := ensureStates(record, Initializing); err != nil {
			return err
		}
		mfee, err := fees.NewManagementState(rate, e.nowFn())
		if err != nil {
			return err
		}
		record.MFee = mfee
		return nil
	})
}

// SetPerformanceFeeRate replaces the performance fee rate, Initializing only.
func (e *Engine) SetPerformanceFeeRate(caller common.Address, id common.Hash, rate uint64) error {
	return e.withFund(caller, id, func(record *Record) error {
		if caller != record.Manager {
			return nativecommon.FundNotPermittedCaller
		}
		if err := ensureStates(record, Initializing); err != nil {
			return err
		}
		pfee, err := fees.NewPerformanceState(rate, record.PFee.CrystallizationPeriod, e.nowFn())
		if err != nil {
			return err
		}
		record.PFee = pfee
		return nil
	})
}

// SetCrystallizationPeriod replaces the crystallization period, Initializing
// only.
func (e *Engine) SetCrystallizationPeriod(caller common.Address, id common.Hash, period int64) error {
	return e.withFund(caller, id, func(record *Record) error {
		if caller != record.Manager {
			return nativecommon.FundNotPermittedCaller
		}
		if err := ensureStates(record, Initializing); err != nil {
			return err
		}
		pfee, err := fees.NewPerformanceState(record.PFee.Rate, period, e.nowFn())
		if err != nil {
			return err
		}
		record.PFee = pfee
		return nil
	})
}

// Fund returns a copy of the fund record.
func (e *Engine) Fund(id common.Hash) (*Record, error) {
	record, err := e.load(id)
	if err != nil {
		return nil, err
	}
	return record.Clone(), nil
}

// FundIDs lists every fund in the arena.
func (e *Engine) FundIDs() ([]common.Hash, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	return e.state.FundIDs()
}

// GrossAssetValue values the fund's whole tracked position in denomination
// units.
func (e *Engine) GrossAssetValue(id common.Hash) (*big.Int, error) {
	record, err := e.load(id)
	if err != nil {
		return nil, err
	}
	return e.grossAssetValue(record)
}

// ShareValue previews the denomination payout for a share count at the
// current gross share price.
func (e *Engine) ShareValue(id common.Hash, shares *big.Int) (*big.Int, error) {
	record, err := e.load(id)
	if err != nil {
		return nil, err
	}
	gav, err := e.grossAssetValue(record)
	if err != nil {
		return nil, err
	}
	return sharePayout(record, shares, effectiveGAV(record, gav)), nil
}

// ReserveRatio returns reserve / grossAssetValue in tolerance-base units.
func (e *Engine) ReserveRatio(id common.Hash) (*big.Int, error) {
	record, err := e.load(id)
	if err != nil {
		return nil, err
	}
	gav, err := e.grossAssetValue(record)
	if err != nil {
		return nil, err
	}
	if gav.Sign() == 0 {
		return big.NewInt(0), nil
	}
	reserve, err := e.reserve(record)
	if err != nil {
		return nil, err
	}
	ratio := new(big.Int).Mul(reserve, big.NewInt(toleranceBase))
	return ratio.Div(ratio, gav), nil
}

// --- shared plumbing ---

const toleranceBase = 10_000

func fundID(creator, denomination common.Address, count uint64) common.Hash {
	var nonce [8]byte
	binary.BigEndian.PutUint64(nonce[:], count)
	return crypto.Keccak256Hash(creator.Bytes(), denomination.Bytes(), nonce[:])
}

func vaultAddress(id common.Hash) common.Address {
	return common.BytesToAddress(crypto.Keccak256(id.Bytes(), []byte("vault"))[12:])
}

func ensureStates(record *Record, allowed ...State) error {
	for _, state := range allowed {
		if record.State == state {
			return nil
		}
	}
	return nativecommon.InvalidState(record.State)
}

func (e *Engine) load(id common.Hash) (*Record, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	record, err := e.state.GetFund(id)
	if err != nil {
		return nil, err
	}
	if record == nil {
		return nil, nativecommon.FundNotFound
	}
	record.normalize()
	return record, nil
}

// withFund runs one mutating operation: comptroller guard, load, mutate,
// persist.
func (e *Engine) withFund(caller common.Address, id common.Hash, mutate func(*Record) error) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if _, err := e.comptroller.Implementation(caller); err != nil {
		return err
	}
	record, err := e.load(id)
	if err != nil {
		return err
	}
	if err := mutate(record); err != nil {
		return err
	}
	return e.state.PutFund(record)
}

func (e *Engine) transition(record *Record, to State) {
	from := record.State
	record.State = to
	if from == RedemptionPending && to != RedemptionPending {
		record.PendingStartTime = 0
	}
	e.emitter.Emit(events.FundStateTransited{Fund: record.ID, From: from.String(), To: to.String()})
	observability.Funds().RecordTransition(to.String())
}

func (e *Engine) grossAssetValue(record *Record) (*big.Int, error) {
	if len(record.Assets) == 0 {
		return big.NewInt(0), nil
	}
	amounts := make([]*big.Int, len(record.Assets))
	for i := range amounts {
		amounts[i] = router.MaxAmount
	}
	return e.valuer.CalcAssetsTotalValue(record.Assets, amounts, record.Vault, record.Denomination)
}

func (e *Engine) reserve(record *Record) (*big.Int, error) {
	if e.ledger == nil {
		return nil, errNilLedger
	}
	return e.ledger.BalanceOf(record.Denomination, record.Vault)
}

// effectiveGAV nets the pending-redemption liability out of the valuation.
// Deferred payouts still sit in the vault's balances but belong to the queue,
// not to the remaining shareholders.
func effectiveGAV(record *Record, gav *big.Int) *big.Int {
	out := new(big.Int).Sub(gav, record.PendingTotal)
	if out.Sign() < 0 {
		out.SetInt64(0)
	}
	return out
}

func sharePayout(record *Record, shares, gav *big.Int) *big.Int {
	if shares == nil || shares.Sign() == 0 || record.TotalShares.Sign() == 0 {
		return big.NewInt(0)
	}
	payout := new(big.Int).Mul(shares, gav)
	return payout.Div(payout, record.TotalShares)
}

func mintShares(record *Record, holder common.Address, amount *big.Int) {
	if amount == nil || amount.Sign() == 0 {
		return
	}
	record.Balances[holder] = new(big.Int).Add(record.BalanceOf(holder), amount)
	record.TotalShares = new(big.Int).Add(record.TotalShares, amount)
}

func burnShares(record *Record, holder common.Address, amount *big.Int) error {
	if amount == nil || amount.Sign() == 0 {
		return nil
	}
	balance := record.BalanceOf(holder)
	if balance.Cmp(amount) < 0 {
		return nativecommon.ShareModuleInsufficientShare
	}
	record.Balances[holder] = balance.Sub(balance, amount)
	record.TotalShares = new(big.Int).Sub(record.TotalShares, amount)
	return nil
}
