package state

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"folio/native/comptroller"
	"folio/native/fund"
	"folio/storage"
)

// Store persists every native engine's state over one key-value database.
// Each engine sees only its own narrow interface; the prefixes below keep the
// keyspaces disjoint so engines cannot trample each other.
type Store struct {
	db storage.Database
}

// NewStore wraps the database.
func NewStore(db storage.Database) *Store {
	return &Store{db: db}
}

const (
	prefixResolver     = "registry/resolver/"
	prefixResolverBan  = "registry/banned/"
	keyComptrollerCfg  = "comptroller/config"
	prefixPermission   = "comptroller/permission/"
	prefixDenomination = "comptroller/denomination/"
	prefixTier         = "comptroller/tier/"
	prefixProxyBan     = "comptroller/proxyban/"
	prefixMortgage     = "mortgage/fund/"
	keyMortgageTotal   = "mortgage/total"
	prefixFund         = "fund/record/"
	keyFundCount       = "fund/count"
)

// --- asset registry state ---

// GetResolver returns the resolver bound to the asset, if any.
func (s *Store) GetResolver(asset common.Address) (common.Address, bool, error) {
	raw, err := s.db.Get([]byte(prefixResolver + asset.Hex()))
	if errors.Is(err, storage.ErrNotFound) {
		return common.Address{}, false, nil
	}
	if err != nil {
		return common.Address{}, false, err
	}
	return common.BytesToAddress(raw), true, nil
}

// PutResolver binds the asset to the resolver.
func (s *Store) PutResolver(asset, resolver common.Address) error {
	return s.db.Put([]byte(prefixResolver+asset.Hex()), resolver.Bytes())
}

// DeleteResolver removes the asset binding.
func (s *Store) DeleteResolver(asset common.Address) error {
	return s.db.Delete([]byte(prefixResolver + asset.Hex()))
}

// ResolverBanned reports the resolver's ban flag.
func (s *Store) ResolverBanned(resolver common.Address) (bool, error) {
	return s.getFlag(prefixResolverBan + resolver.Hex())
}

// SetResolverBanned stores the resolver's ban flag.
func (s *Store) SetResolverBanned(resolver common.Address, banned bool) error {
	return s.setFlag(prefixResolverBan+resolver.Hex(), banned)
}

// --- comptroller state ---

// GetConfig returns the stored scalar policy config, nil before first write.
func (s *Store) GetConfig() (*comptroller.Config, error) {
	raw, err := s.db.Get([]byte(keyComptrollerCfg))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	cfg := new(comptroller.Config)
	if err := json.Unmarshal(raw, cfg); err != nil {
		return nil, fmt.Errorf("state: decode comptroller config: %w", err)
	}
	return cfg, nil
}

// PutConfig stores the scalar policy config.
func (s *Store) PutConfig(cfg *comptroller.Config) error {
	raw, err := json.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("state: encode comptroller config: %w", err)
	}
	return s.db.Put([]byte(keyComptrollerCfg), raw)
}

// Permission reads one whitelist entry.
func (s *Store) Permission(dimension, key string) (bool, error) {
	return s.getFlag(prefixPermission + dimension + "/" + key)
}

// SetPermission writes one whitelist entry.
func (s *Store) SetPermission(dimension, key string, allowed bool) error {
	return s.setFlag(prefixPermission+dimension+"/"+key, allowed)
}

// DeletePermission removes one whitelist entry.
func (s *Store) DeletePermission(dimension, key string) error {
	return s.db.Delete([]byte(prefixPermission + dimension + "/" + key))
}

// Denomination returns the dust threshold of a permitted denomination.
func (s *Store) Denomination(addr common.Address) (*big.Int, bool, error) {
	raw, err := s.db.Get([]byte(prefixDenomination + addr.Hex()))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	dust, err := parseBig(raw)
	if err != nil {
		return nil, false, err
	}
	return dust, true, nil
}

// SetDenomination permits a denomination with its dust threshold.
func (s *Store) SetDenomination(addr common.Address, dust *big.Int) error {
	return s.db.Put([]byte(prefixDenomination+addr.Hex()), []byte(dust.String()))
}

// DeleteDenomination forbids a denomination.
func (s *Store) DeleteDenomination(addr common.Address) error {
	return s.db.Delete([]byte(prefixDenomination + addr.Hex()))
}

// MortgageTier returns the bond requirement of a level.
func (s *Store) MortgageTier(level uint64) (*big.Int, bool, error) {
	raw, err := s.db.Get([]byte(prefixTier + strconv.FormatUint(level, 10)))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	amount, err := parseBig(raw)
	if err != nil {
		return nil, false, err
	}
	return amount, true, nil
}

// SetMortgageTier stores the bond requirement of a level.
func (s *Store) SetMortgageTier(level uint64, amount *big.Int) error {
	return s.db.Put([]byte(prefixTier+strconv.FormatUint(level, 10)), []byte(amount.String()))
}

// ProxyBanned reports a fund proxy's ban flag.
func (s *Store) ProxyBanned(addr common.Address) (bool, error) {
	return s.getFlag(prefixProxyBan + addr.Hex())
}

// SetProxyBanned stores a fund proxy's ban flag.
func (s *Store) SetProxyBanned(addr common.Address, banned bool) error {
	return s.setFlag(prefixProxyBan+addr.Hex(), banned)
}

// --- mortgage vault state ---

// GetMortgage returns the bond escrowed for the fund, nil when unbonded.
func (s *Store) GetMortgage(fundID common.Hash) (*big.Int, error) {
	raw, err := s.db.Get([]byte(prefixMortgage + fundID.Hex()))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return parseBig(raw)
}

// PutMortgage stores the bond escrowed for the fund.
func (s *Store) PutMortgage(fundID common.Hash, amount *big.Int) error {
	return s.db.Put([]byte(prefixMortgage+fundID.Hex()), []byte(amount.String()))
}

// DeleteMortgage clears the fund's bond record.
func (s *Store) DeleteMortgage(fundID common.Hash) error {
	return s.db.Delete([]byte(prefixMortgage + fundID.Hex()))
}

// GetTotalMortgage returns the vault-wide bond total, nil before first write.
func (s *Store) GetTotalMortgage() (*big.Int, error) {
	raw, err := s.db.Get([]byte(keyMortgageTotal))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return parseBig(raw)
}

// PutTotalMortgage stores the vault-wide bond total.
func (s *Store) PutTotalMortgage(amount *big.Int) error {
	return s.db.Put([]byte(keyMortgageTotal), []byte(amount.String()))
}

// --- fund arena state ---

// GetFund returns the fund record, nil when absent.
func (s *Store) GetFund(id common.Hash) (*fund.Record, error) {
	raw, err := s.db.Get([]byte(prefixFund + id.Hex()))
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	record := new(fund.Record)
	if err := json.Unmarshal(raw, record); err != nil {
		return nil, fmt.Errorf("state: decode fund %s: %w", id.Hex(), err)
	}
	return record, nil
}

// PutFund stores the fund record.
func (s *Store) PutFund(record *fund.Record) error {
	raw, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("state: encode fund %s: %w", record.ID.Hex(), err)
	}
	return s.db.Put([]byte(prefixFund+record.ID.Hex()), raw)
}

// FundIDs lists every stored fund in key order.
func (s *Store) FundIDs() ([]common.Hash, error) {
	keys, err := s.db.Keys([]byte(prefixFund))
	if err != nil {
		return nil, err
	}
	ids := make([]common.Hash, 0, len(keys))
	for _, key := range keys {
		ids = append(ids, common.HexToHash(string(key[len(prefixFund):])))
	}
	return ids, nil
}

// FundCount returns the monotonic fund creation counter.
func (s *Store) FundCount() (uint64, error) {
	raw, err := s.db.Get([]byte(keyFundCount))
	if errors.Is(err, storage.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return strconv.ParseUint(string(raw), 10, 64)
}

// PutFundCount stores the fund creation counter.
func (s *Store) PutFundCount(count uint64) error {
	return s.db.Put([]byte(keyFundCount), []byte(strconv.FormatUint(count, 10)))
}

// --- codecs ---

func (s *Store) getFlag(key string) (bool, error) {
	has, err := s.db.Has([]byte(key))
	if err != nil {
		return false, err
	}
	if !has {
		return false, nil
	}
	raw, err := s.db.Get([]byte(key))
	if err != nil {
		return false, err
	}
	return string(raw) == "1", nil
}

func (s *Store) setFlag(key string, value bool) error {
	if !value {
		return s.db.Delete([]byte(key))
	}
	return s.db.Put([]byte(key), []byte("1"))
}

func parseBig(raw []byte) (*big.Int, error) {
	value, ok := new(big.Int).SetString(string(raw), 10)
	if !ok {
		return nil, fmt.Errorf("state: malformed integer %q", raw)
	}
	return value, nil
}
