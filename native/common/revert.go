package common

import "fmt"

// RevertCode is the stable numeric error catalog shared by every native
// engine. Codes are part of the protocol's versioned error contract: callers
// and tests branch on the integer value, never on message text. Values are
// assigned in per-module decades and must not be renumbered.
type RevertCode uint16

const (
	// Comptroller.
	ComptrollerHalted              RevertCode = 0
	ComptrollerBanned              RevertCode = 1
	ComptrollerZeroAddress         RevertCode = 2
	ComptrollerToleranceOutOfRange RevertCode = 3
	ComptrollerInvalidDenomination RevertCode = 4
	ComptrollerInvalidCreator      RevertCode = 5

	// AssetRegistry.
	AssetRegistryZeroAddress           RevertCode = 10
	AssetRegistryBannedResolver        RevertCode = 11
	AssetRegistryRegisteredResolver    RevertCode = 12
	AssetRegistryNonRegisteredResolver RevertCode = 13
	AssetRegistryUnregistered          RevertCode = 14
	AssetRegistryNonBannedResolver     RevertCode = 15

	// AssetRouter and resolvers.
	AssetRouterLengthInconsistent RevertCode = 20
	AssetRouterNegativeValue      RevertCode = 21
	ResolverAssetValueNegative    RevertCode = 22
	ResolverAssetValuePositive    RevertCode = 23
	ResolverUnderlyingMismatch    RevertCode = 24

	// Oracle.
	OracleZeroAddress      RevertCode = 30
	OracleExistingAsset    RevertCode = 31
	OracleNonExistingAsset RevertCode = 32
	OracleStalePrice       RevertCode = 33
	OracleInvalidPrice     RevertCode = 34
	OracleZeroAmount       RevertCode = 35

	// MortgageVault.
	MortgageVaultAlreadyMortgaged RevertCode = 40
	MortgageVaultZeroReceiver     RevertCode = 41

	// Fund share module.
	ShareModuleInsufficientShare   RevertCode = 50
	ShareModuleInsufficientReserve RevertCode = 51
	ShareModulePurchaseZeroBalance RevertCode = 52
	ShareModulePendingNotExpired   RevertCode = 53
	ShareModulePendingNotStarted   RevertCode = 54

	// Fund asset module.
	AssetModuleInvalidAsset            RevertCode = 60
	AssetModuleFullAssetCapacity       RevertCode = 61
	AssetModuleDifferentAssetRemaining RevertCode = 62

	// Fund execution module.
	ExecutionModuleInsufficientValue RevertCode = 70

	// Fund lifecycle.
	FundProxyInvalidDenomination RevertCode = 80
	FundProxyInvalidCreator      RevertCode = 81
	FundProxyInvalidMortgageTier RevertCode = 82
	FundProxyAlreadyExists       RevertCode = 83
	FundNotFound                 RevertCode = 84
	FundNotPermittedCaller       RevertCode = 85

	// Fee modules.
	ManagementFeeRateOutOfRange        RevertCode = 90
	PerformanceFeeRateOutOfRange       RevertCode = 91
	PerformanceFeeCrystallizationShort RevertCode = 92
	PerformanceFeeNotCrystallizable    RevertCode = 93
)

// Error renders the canonical machine-checkable form.
func (c RevertCode) Error() string { return fmt.Sprintf("revert(%d)", uint16(c)) }
