package comptroller

import (
	"errors"
	"math/big"

	"github.com/ethereum/go-ethereum/common"

	"folio/core/events"
	nativecommon "folio/native/common"
)

var errNilState = errors.New("comptroller: state not configured")

type engineState interface {
	GetConfig() (*Config, error)
	PutConfig(cfg *Config) error
	Permission(dimension, key string) (bool, error)
	SetPermission(dimension, key string, allowed bool) error
	DeletePermission(dimension, key string) error
	Denomination(addr common.Address) (*big.Int, bool, error)
	SetDenomination(addr common.Address, dust *big.Int) error
	DeleteDenomination(addr common.Address) error
	MortgageTier(level uint64) (*big.Int, bool, error)
	SetMortgageTier(level uint64, amount *big.Int) error
	ProxyBanned(addr common.Address) (bool, error)
	SetProxyBanned(addr common.Address, banned bool) error
}

// Engine is the central policy authority. Every fund consults it before
// mutating state; the operator mutates it to steer the whole deployment.
type Engine struct {
	state     engineState
	authority nativecommon.Authority
	emitter   events.Emitter
}

// NewEngine constructs a comptroller engine owned by the given address.
func NewEngine(owner common.Address) *Engine {
	return &Engine{
		authority: nativecommon.Authority{Owner: owner},
		emitter:   events.NoopEmitter{},
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

// Owner returns the policy owner.
func (e *Engine) Owner() common.Address { return e.authority.Owner }

// Config returns a copy of the scalar policy config.
func (e *Engine) Config() (*Config, error) {
	if e == nil || e.state == nil {
		return nil, errNilState
	}
	cfg, err := e.state.GetConfig()
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = &Config{}
	}
	return cfg.Clone(), nil
}

func (e *Engine) mutateConfig(caller common.Address, mutate func(*Config) error) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.authority.Check(caller); err != nil {
		return err
	}
	cfg, err := e.state.GetConfig()
	if err != nil {
		return err
	}
	if cfg == nil {
		cfg = &Config{}
	}
	if err := mutate(cfg); err != nil {
		return err
	}
	return e.state.PutConfig(cfg)
}

// Implementation resolves the shared fund logic address for the caller. The
// halt flag and per-proxy bans short-circuit here, giving the operator an
// immediate next-transaction kill switch for all funds or one fund.
func (e *Engine) Implementation(caller common.Address) (common.Address, error) {
	if e == nil || e.state == nil {
		return common.Address{}, errNilState
	}
	cfg, err := e.state.GetConfig()
	if err != nil {
		return common.Address{}, err
	}
	if cfg == nil || cfg.Halted {
		return common.Address{}, nativecommon.ComptrollerHalted
	}
	banned, err := e.state.ProxyBanned(caller)
	if err != nil {
		return common.Address{}, err
	}
	if banned {
		return common.Address{}, nativecommon.ComptrollerBanned
	}
	return cfg.Implementation, nil
}

// --- scalar setters ---

// SetImplementation points every fund proxy at a new shared logic address.
func (e *Engine) SetImplementation(caller, implementation common.Address) error {
	return e.mutateConfig(caller, func(cfg *Config) error {
		if implementation == (common.Address{}) {
			return nativecommon.ComptrollerZeroAddress
		}
		cfg.Implementation = implementation
		return nil
	})
}

// SetExecAction configures the batch execution engine address.
func (e *Engine) SetExecAction(caller, action common.Address) error {
	return e.mutateConfig(caller, func(cfg *Config) error {
		if action == (common.Address{}) {
			return nativecommon.ComptrollerZeroAddress
		}
		cfg.ExecAction = action
		return nil
	})
}

// SetExecFeeCollector configures the execution fee recipient.
func (e *Engine) SetExecFeeCollector(caller, collector common.Address) error {
	return e.mutateConfig(caller, func(cfg *Config) error {
		if collector == (common.Address{}) {
			return nativecommon.ComptrollerZeroAddress
		}
		cfg.ExecFeeCollector = collector
		return nil
	})
}

// SetExecFeePercentage configures the execution fee in ToleranceBase units.
func (e *Engine) SetExecFeePercentage(caller common.Address, percentage uint64) error {
	return e.mutateConfig(caller, func(cfg *Config) error {
		if percentage > ToleranceBase {
			return nativecommon.ComptrollerToleranceOutOfRange
		}
		cfg.ExecFeePercentage = percentage
		return nil
	})
}

// SetPendingLiquidator configures the address funds hand ownership to when
// liquidated out of an expired pending state.
func (e *Engine) SetPendingLiquidator(caller, liquidator common.Address) error {
	return e.mutateConfig(caller, func(cfg *Config) error {
		if liquidator == (common.Address{}) {
			return nativecommon.ComptrollerZeroAddress
		}
		cfg.PendingLiquidator = liquidator
		return nil
	})
}

// SetPendingExpiration configures how long a fund may sit in the pending
// state before it becomes liquidatable, in seconds.
func (e *Engine) SetPendingExpiration(caller common.Address, seconds int64) error {
	return e.mutateConfig(caller, func(cfg *Config) error {
		cfg.PendingExpiration = seconds
		return nil
	})
}

// SetAssetCapacity bounds the tracked asset list length of every fund.
func (e *Engine) SetAssetCapacity(caller common.Address, capacity int) error {
	return e.mutateConfig(caller, func(cfg *Config) error {
		cfg.AssetCapacity = capacity
		return nil
	})
}

// SetValueTolerance configures the post-execution value floor in
// ToleranceBase units.
func (e *Engine) SetValueTolerance(caller common.Address, tolerance uint64) error {
	return e.mutateConfig(caller, func(cfg *Config) error {
		if tolerance > ToleranceBase {
			return nativecommon.ComptrollerToleranceOutOfRange
		}
		cfg.ValueTolerance = tolerance
		return nil
	})
}

// SetInitialAssetCheck toggles whether initial fund assets must pass the
// public dealing whitelist.
func (e *Engine) SetInitialAssetCheck(caller common.Address, enabled bool) error {
	return e.mutateConfig(caller, func(cfg *Config) error {
		cfg.InitialAssetCheck = enabled
		return nil
	})
}

// SetMortgageTier assigns the bond requirement for a risk level.
func (e *Engine) SetMortgageTier(caller common.Address, level uint64, amount *big.Int) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.authority.Check(caller); err != nil {
		return err
	}
	if amount == nil {
		amount = big.NewInt(0)
	}
	if err := e.state.SetMortgageTier(level, amount); err != nil {
		return err
	}
	e.emitter.Emit(events.MortgageTierSet{Level: level, Amount: amount})
	return nil
}

// MortgageTierAmount returns the bond requirement for a level.
func (e *Engine) MortgageTierAmount(level uint64) (*big.Int, bool, error) {
	if e == nil || e.state == nil {
		return nil, false, errNilState
	}
	return e.state.MortgageTier(level)
}

// --- halt and ban ---

// Halt freezes implementation resolution for every fund.
func (e *Engine) Halt(caller common.Address) error {
	return e.setHalted(caller, true)
}

// Unhalt lifts the global freeze.
func (e *Engine) Unhalt(caller common.Address) error {
	return e.setHalted(caller, false)
}

func (e *Engine) setHalted(caller common.Address, halted bool) error {
	err := e.mutateConfig(caller, func(cfg *Config) error {
		cfg.Halted = halted
		return nil
	})
	if err != nil {
		return err
	}
	e.emitter.Emit(events.HaltSet{Halted: halted})
	return nil
}

// BanFundProxy freezes implementation resolution for a single caller,
// isolating one compromised fund without a global halt.
func (e *Engine) BanFundProxy(caller, proxy common.Address) error {
	return e.setProxyBanned(caller, proxy, true)
}

// UnbanFundProxy lifts a per-proxy freeze.
func (e *Engine) UnbanFundProxy(caller, proxy common.Address) error {
	return e.setProxyBanned(caller, proxy, false)
}

func (e *Engine) setProxyBanned(caller, proxy common.Address, banned bool) error {
	if e == nil || e.state == nil {
		return errNilState
	}
	if err := e.authority.Check(caller); err != nil {
		return err
	}
	if proxy == (common.Address{}) {
		return nativecommon.ComptrollerZeroAddress
	}
	if err := e.state.SetProxyBanned(proxy, banned); err != nil {
		return err
	}
	e.emitter.Emit(events.ProxyBanSet{Proxy: proxy, Banned: banned})
	return nil
}
