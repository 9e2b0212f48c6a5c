package oracle

import (
	"errors"
	"math/big"
	"sort"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"folio/core/events"
	nativecommon "folio/native/common"
	"folio/observability"
)

var (
	errNilAggregator  = errors.New("oracle: aggregator not configured")
	errLengthMismatch = errors.New("oracle: assets and aggregators length mismatch")
)

// Aggregator is the Chainlink-compatible feed surface consumed by the engine.
// Answers are integers scaled by the aggregator's own decimals.
type Aggregator interface {
	Address() common.Address
	LatestRoundData() (answer *big.Int, updatedAt time.Time, err error)
	Decimals() uint8
}

type feed struct {
	aggregator    Aggregator
	tokenDecimals uint8
}

// FeedHealth captures per-feed metadata surfaced for monitoring.
type FeedHealth struct {
	Asset       common.Address
	Aggregator  common.Address
	LastUpdated time.Time
	Stale       bool
}

// Engine converts between two canonical assets using registered price feeds.
// It never returns negative values: debt and sign semantics live entirely in
// the router layer above.
type Engine struct {
	mu          sync.RWMutex
	feeds       map[common.Address]feed
	stalePeriod time.Duration
	nowFn       func() time.Time
	authority   nativecommon.Authority
	emitter     events.Emitter
}

// NewEngine constructs an oracle engine with the given staleness window.
func NewEngine(owner common.Address, stalePeriod time.Duration) *Engine {
	return &Engine{
		feeds:       make(map[common.Address]feed),
		stalePeriod: stalePeriod,
		nowFn:       time.Now,
		authority:   nativecommon.Authority{Owner: owner},
		emitter:     events.NoopEmitter{},
	}
}

// SetEmitter wires the engine to an event sink.
func (e *Engine) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		emitter = events.NoopEmitter{}
	}
	e.emitter = emitter
}

// SetNowFn overrides the clock, primarily for tests.
func (e *Engine) SetNowFn(nowFn func() time.Time) {
	if nowFn == nil {
		nowFn = time.Now
	}
	e.nowFn = nowFn
}

// SetStalePeriod updates the freshness window used when filtering quotes.
func (e *Engine) SetStalePeriod(caller common.Address, stalePeriod time.Duration) error {
	if err := e.authority.Check(caller); err != nil {
		return err
	}
	e.mu.Lock()
	e.stalePeriod = stalePeriod
	e.mu.Unlock()
	return nil
}

// AddAsset registers an asset ↔ aggregator pair. The aggregator must already
// be serving a fresh, positive price; a feed that is broken at registration
// time is rejected outright rather than discovered later.
func (e *Engine) AddAsset(caller, asset common.Address, tokenDecimals uint8, aggregator Aggregator) error {
	if err := e.authority.Check(caller); err != nil {
		return err
	}
	return e.addAsset(asset, tokenDecimals, aggregator)
}

// AddAssets registers a batch of pairs, aborting on the first failure.
func (e *Engine) AddAssets(caller common.Address, assets []common.Address, tokenDecimals []uint8, aggregators []Aggregator) error {
	if err := e.authority.Check(caller); err != nil {
		return err
	}
	if len(assets) != len(aggregators) || len(assets) != len(tokenDecimals) {
		return errLengthMismatch
	}
	for i := range assets {
		if err := e.addAsset(assets[i], tokenDecimals[i], aggregators[i]); err != nil {
			return err
		}
	}
	return nil
}

func (e *Engine) addAsset(asset common.Address, tokenDecimals uint8, aggregator Aggregator) error {
	if asset == (common.Address{}) {
		return nativecommon.OracleZeroAddress
	}
	if aggregator == nil || aggregator.Address() == (common.Address{}) {
		return nativecommon.OracleZeroAddress
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.feeds[asset]; exists {
		return nativecommon.OracleExistingAsset
	}
	if _, err := e.freshAnswer(aggregator); err != nil {
		return err
	}
	e.feeds[asset] = feed{aggregator: aggregator, tokenDecimals: tokenDecimals}
	e.emitter.Emit(events.OracleAssetAdded{Asset: asset, Aggregator: aggregator.Address()})
	return nil
}

// RemoveAsset drops an asset's price feed.
func (e *Engine) RemoveAsset(caller, asset common.Address) error {
	if err := e.authority.Check(caller); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, exists := e.feeds[asset]; !exists {
		return nativecommon.OracleNonExistingAsset
	}
	delete(e.feeds, asset)
	e.emitter.Emit(events.OracleAssetRemoved{Asset: asset})
	return nil
}

// RemoveAssets drops a batch of feeds, aborting on the first failure.
func (e *Engine) RemoveAssets(caller common.Address, assets []common.Address) error {
	for _, asset := range assets {
		if err := e.RemoveAsset(caller, asset); err != nil {
			return err
		}
	}
	return nil
}

// CalcConversionAmount converts baseAmount of base into quote units using the
// two registered feeds. The result is unsigned and floors toward zero.
func (e *Engine) CalcConversionAmount(base common.Address, baseAmount *big.Int, quote common.Address) (*big.Int, error) {
	if baseAmount == nil || baseAmount.Sign() == 0 {
		return nil, nativecommon.OracleZeroAmount
	}
	e.mu.RLock()
	baseFeed, baseOK := e.feeds[base]
	quoteFeed, quoteOK := e.feeds[quote]
	e.mu.RUnlock()
	if !baseOK || !quoteOK {
		return nil, nativecommon.OracleNonExistingAsset
	}

	basePrice, err := e.freshAnswer(baseFeed.aggregator)
	if err != nil {
		return nil, err
	}
	quotePrice, err := e.freshAnswer(quoteFeed.aggregator)
	if err != nil {
		return nil, err
	}

	// amount × basePrice × 10^(quoteAggDec+quoteTokenDec)
	// ─────────────────────────────────────────────────── floored.
	// quotePrice × 10^(baseAggDec+baseTokenDec)
	num := new(big.Int).Mul(baseAmount, basePrice)
	num.Mul(num, pow10(int(quoteFeed.aggregator.Decimals())+int(quoteFeed.tokenDecimals)))
	den := new(big.Int).Mul(quotePrice, pow10(int(baseFeed.aggregator.Decimals())+int(baseFeed.tokenDecimals)))
	return num.Quo(num, den), nil
}

// HasFeed reports whether the asset has a registered price feed.
func (e *Engine) HasFeed(asset common.Address) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.feeds[asset]
	return ok
}

// Health snapshots every registered feed, ordered by asset address.
func (e *Engine) Health() []FeedHealth {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]FeedHealth, 0, len(e.feeds))
	now := e.nowFn()
	for asset, f := range e.feeds {
		entry := FeedHealth{Asset: asset, Aggregator: f.aggregator.Address()}
		if _, updatedAt, err := f.aggregator.LatestRoundData(); err == nil {
			entry.LastUpdated = updatedAt
			entry.Stale = e.stalePeriod > 0 && now.Sub(updatedAt) > e.stalePeriod
			observability.Oracle().RecordFeedAge(asset.Hex(), now.Sub(updatedAt))
		} else {
			entry.Stale = true
		}
		out = append(out, entry)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Asset.Cmp(out[j].Asset) < 0
	})
	return out
}

func (e *Engine) freshAnswer(aggregator Aggregator) (*big.Int, error) {
	if aggregator == nil {
		return nil, errNilAggregator
	}
	answer, updatedAt, err := aggregator.LatestRoundData()
	if err != nil {
		return nil, err
	}
	if answer == nil || answer.Sign() <= 0 {
		return nil, nativecommon.OracleInvalidPrice
	}
	if e.stalePeriod > 0 && e.nowFn().Sub(updatedAt) > e.stalePeriod {
		return nil, nativecommon.OracleStalePrice
	}
	return answer, nil
}

func pow10(n int) *big.Int {
	return new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(n)), nil)
}
