package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	ethcrypto "github.com/ethereum/go-ethereum/crypto"

	"folio/config"
	"folio/explorer"
	"folio/native/comptroller"
	"folio/native/fund"
	"folio/native/mortgage"
	"folio/native/oracle"
	"folio/native/registry"
	"folio/native/router"
	"folio/observability/logging"
	"folio/rpc"
	"folio/state"
	"folio/storage"
)

func main() {
	configFile := flag.String("config", "./folio.toml", "Path to the configuration file")
	flag.Parse()

	env := strings.TrimSpace(os.Getenv("FOLIO_ENV"))
	logger := logging.Setup("foliod", env)

	cfg, err := config.Load(*configFile)
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}
	if err := config.ValidateConfig(cfg); err != nil {
		logger.Error("Invalid configuration", slog.Any("error", err))
		os.Exit(1)
	}

	db, err := storage.NewLevelDB(cfg.DataDir)
	if err != nil {
		panic(fmt.Sprintf("Failed to open database: %v", err))
	}
	defer db.Close()

	store := state.NewStore(db)
	ledger := state.NewLedger(db)
	owner := common.HexToAddress(cfg.Owner)

	indexer, err := explorer.Open(cfg.ExplorerDB, logger)
	if err != nil {
		logger.Error("Failed to open event index", slog.Any("error", err))
		os.Exit(1)
	}
	defer indexer.Close()

	registryEngine := registry.NewEngine(owner)
	registryEngine.SetState(store)
	registryEngine.SetEmitter(indexer)

	oracleEngine := oracle.NewEngine(owner, time.Duration(cfg.Oracle.StalePeriodSeconds)*time.Second)
	oracleEngine.SetEmitter(indexer)

	valuer := router.NewRouter(registryEngine, ledger)
	valuer.WireResolver(router.NewCanonicalResolver(moduleAddress("folio/resolver/canonical"), oracleEngine))

	control := comptroller.NewEngine(owner)
	control.SetState(store)
	control.SetEmitter(indexer)
	if err := seedComptroller(store, cfg, owner); err != nil {
		logger.Error("Failed to seed comptroller state", slog.Any("error", err))
		os.Exit(1)
	}

	vault := mortgage.NewEngine(common.HexToAddress(cfg.MortgageToken), moduleAddress("folio/mortgage/vault"), ledger)
	vault.SetState(store)
	vault.SetEmitter(indexer)

	fundEngine := fund.NewEngine(control, valuer, vault, ledger)
	fundEngine.SetState(store)
	fundEngine.SetEmitter(indexer)
	fundEngine.SetFeeDefaults(cfg.Fees.DefaultManagementRate, cfg.Fees.DefaultPerformanceRate, cfg.Fees.DefaultCrystallizationSeconds)

	server := rpc.NewServer(rpc.ServerConfig{Address: cfg.RPCAddress}, logger,
		fundEngine, control, oracleEngine, indexer)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("Query server failed", slog.Any("error", err))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("Shutdown failed", slog.Any("error", err))
		}
	}
}

// seedComptroller writes the configured policy on first boot. Later changes
// go through the comptroller engine's owner operations.
func seedComptroller(store *state.Store, cfg *config.Config, owner common.Address) error {
	existing, err := store.GetConfig()
	if err != nil {
		return err
	}
	if existing == nil {
		if err := store.PutConfig(&comptroller.Config{
			PendingLiquidator: owner,
			PendingExpiration: cfg.Fund.PendingExpirationSeconds,
			AssetCapacity:     cfg.Fund.AssetCapacity,
			ValueTolerance:    cfg.Fund.ValueTolerance,
			ExecFeePercentage: cfg.Fund.ExecFeePercentage,
			InitialAssetCheck: cfg.Fund.InitialAssetCheck,
		}); err != nil {
			return err
		}
	}
	for _, tier := range cfg.MortgageTiers {
		if _, ok, err := store.MortgageTier(tier.Level); err != nil {
			return err
		} else if ok {
			continue
		}
		amount, err := tier.BondAmount()
		if err != nil {
			return err
		}
		if err := store.SetMortgageTier(tier.Level, amount); err != nil {
			return err
		}
	}
	return nil
}

// moduleAddress derives the fixed address of a protocol-owned account.
func moduleAddress(name string) common.Address {
	return common.BytesToAddress(ethcrypto.Keccak256([]byte(name))[12:])
}
