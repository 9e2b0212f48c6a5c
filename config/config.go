package config

import (
	"fmt"
	"math/big"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// Config is the protocol node configuration, decoded from TOML.
type Config struct {
	Environment string `toml:"Environment"`
	DataDir     string `toml:"DataDir"`
	RPCAddress  string `toml:"RPCAddress"`
	ExplorerDB  string `toml:"ExplorerDB"`

	// Owner is the protocol authority address. MortgageToken is the ERC-20
	// bonded when funds are finalized.
	Owner         string `toml:"Owner"`
	MortgageToken string `toml:"MortgageToken"`

	Oracle OracleConfig `toml:"Oracle"`
	Fund   FundConfig   `toml:"Fund"`
	Fees   FeeConfig    `toml:"Fees"`

	MortgageTiers []TierConfig `toml:"MortgageTiers"`
}

// OracleConfig bounds the price-feed staleness window.
type OracleConfig struct {
	StalePeriodSeconds int64 `toml:"StalePeriodSeconds"`
}

// FundConfig carries the comptroller's scalar policy defaults.
type FundConfig struct {
	PendingExpirationSeconds int64  `toml:"PendingExpirationSeconds"`
	ValueTolerance           uint64 `toml:"ValueTolerance"`
	AssetCapacity            int    `toml:"AssetCapacity"`
	ExecFeePercentage        uint64 `toml:"ExecFeePercentage"`
	InitialAssetCheck        bool   `toml:"InitialAssetCheck"`
}

// FeeConfig carries the fee terms newly created funds start from.
type FeeConfig struct {
	DefaultManagementRate         uint64 `toml:"DefaultManagementRate"`
	DefaultPerformanceRate        uint64 `toml:"DefaultPerformanceRate"`
	DefaultCrystallizationSeconds int64  `toml:"DefaultCrystallizationSeconds"`
}

// TierConfig maps a fund risk level to its required bond, as a decimal string
// so bond amounts are not capped at 64 bits.
type TierConfig struct {
	Level  uint64 `toml:"Level"`
	Amount string `toml:"Amount"`
}

// BondAmount parses the tier's bond amount.
func (t TierConfig) BondAmount() (*big.Int, error) {
	amount, ok := new(big.Int).SetString(t.Amount, 10)
	if !ok || amount.Sign() < 0 {
		return nil, fmt.Errorf("config: tier %d: malformed bond amount %q", t.Level, t.Amount)
	}
	return amount, nil
}

// Load reads the configuration from the given path, creating a default file
// on first run.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return createDefault(path)
	}
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)
	return cfg, nil
}

func defaultConfig() *Config {
	return &Config{
		Environment: "local",
		DataDir:     "./folio-data",
		RPCAddress:  ":8648",
		ExplorerDB:  "./folio-data/explorer.db",
		Oracle:      OracleConfig{StalePeriodSeconds: 86_400},
		Fund: FundConfig{
			PendingExpirationSeconds: 4 * 86_400,
			ValueTolerance:           9_000,
			AssetCapacity:            64,
		},
		Fees: FeeConfig{
			DefaultCrystallizationSeconds: 30 * 86_400,
		},
		MortgageTiers: []TierConfig{{Level: 0, Amount: "0"}},
	}
}

func applyDefaults(cfg *Config) {
	def := defaultConfig()
	if cfg.Environment == "" {
		cfg.Environment = def.Environment
	}
	if cfg.DataDir == "" {
		cfg.DataDir = def.DataDir
	}
	if cfg.RPCAddress == "" {
		cfg.RPCAddress = def.RPCAddress
	}
	if cfg.ExplorerDB == "" {
		cfg.ExplorerDB = filepath.Join(cfg.DataDir, "explorer.db")
	}
	if cfg.Oracle.StalePeriodSeconds == 0 {
		cfg.Oracle.StalePeriodSeconds = def.Oracle.StalePeriodSeconds
	}
	if cfg.Fund.PendingExpirationSeconds == 0 {
		cfg.Fund.PendingExpirationSeconds = def.Fund.PendingExpirationSeconds
	}
	if cfg.Fund.ValueTolerance == 0 {
		cfg.Fund.ValueTolerance = def.Fund.ValueTolerance
	}
	if cfg.Fund.AssetCapacity == 0 {
		cfg.Fund.AssetCapacity = def.Fund.AssetCapacity
	}
	if cfg.Fees.DefaultCrystallizationSeconds == 0 {
		cfg.Fees.DefaultCrystallizationSeconds = def.Fees.DefaultCrystallizationSeconds
	}
	if len(cfg.MortgageTiers) == 0 {
		cfg.MortgageTiers = def.MortgageTiers
	}
}

func createDefault(path string) (*Config, error) {
	cfg := defaultConfig()
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	if err := toml.NewEncoder(file).Encode(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
