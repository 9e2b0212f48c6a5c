package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadCreatesDefault(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.toml")

	cfg, err := Load(path)
	require.NoError(t, err)
	require.FileExists(t, path)
	require.Equal(t, ":8648", cfg.RPCAddress)
	require.Equal(t, int64(86_400), cfg.Oracle.StalePeriodSeconds)
	require.Equal(t, uint64(9_000), cfg.Fund.ValueTolerance)
	require.NoError(t, ValidateConfig(cfg))

	// A second load reads the file it created.
	again, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg, again)
}

func TestLoadAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "folio.toml")
	require.NoError(t, os.WriteFile(path, []byte("RPCAddress = \":9000\"\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, ":9000", cfg.RPCAddress)
	require.Equal(t, "local", cfg.Environment)
	require.Equal(t, 64, cfg.Fund.AssetCapacity)
}

func TestValidateConfig(t *testing.T) {
	base := defaultConfig()

	cfg := *base
	cfg.Fund.ValueTolerance = 10_001
	require.Error(t, ValidateConfig(&cfg))

	cfg = *base
	cfg.Fees.DefaultManagementRate = 10_000
	require.Error(t, ValidateConfig(&cfg))

	cfg = *base
	cfg.Fees.DefaultCrystallizationSeconds = 60
	require.Error(t, ValidateConfig(&cfg))

	cfg = *base
	cfg.MortgageTiers = []TierConfig{{Level: 1, Amount: "10"}, {Level: 1, Amount: "20"}}
	require.Error(t, ValidateConfig(&cfg))

	cfg = *base
	cfg.MortgageTiers = []TierConfig{{Level: 1, Amount: "not-a-number"}}
	require.Error(t, ValidateConfig(&cfg))

	cfg = *base
	cfg.Owner = "not-an-address"
	require.Error(t, ValidateConfig(&cfg))
}
