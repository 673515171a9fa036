package stake

import (
	"time"

	"github.com/stakepool-labs/stake-client/pkg/config"
	"github.com/stakepool-labs/stake-client/pkg/config/env"
	"github.com/stakepool-labs/stake-client/pkg/pool"
)

const (
	envConfigPrefix = "STAKE_CLIENT_"

	SolanaRpcUrlConfigEnvName = envConfigPrefix + "SOLANA_RPC_URL"
	defaultSolanaRpcUrl       = "https://api.mainnet-beta.solana.com"

	MintPublicKeyConfigEnvName = envConfigPrefix + "MINT_PUBLIC_KEY"
	defaultMintPublicKey       = pool.Mint

	PoolAuthorityPublicKeyConfigEnvName = envConfigPrefix + "POOL_AUTHORITY_PUBLIC_KEY"
	defaultPoolAuthorityPublicKey       = pool.Authority

	ReconcileBaseUrlConfigEnvName = envConfigPrefix + "RECONCILE_BASE_URL"
	defaultReconcileBaseUrl       = "http://localhost:5000"

	ConfirmationPollIntervalConfigEnvName = envConfigPrefix + "CONFIRMATION_POLL_INTERVAL"
	defaultConfirmationPollInterval       = 250 * time.Millisecond

	DepositLockStripesConfigEnvName = envConfigPrefix + "DEPOSIT_LOCK_STRIPES"
	defaultDepositLockStripes       = 64
)

type conf struct {
	solanaRpcUrl           config.String
	mintPublicKey          config.String
	poolAuthorityPublicKey config.String

	reconcileBaseUrl config.String

	confirmationPollInterval config.Duration
	depositLockStripes       config.Uint64
}

// ConfigProvider defines how config values are pulled
type ConfigProvider func() *conf

// WithEnvConfigs returns configuration pulled from environment variables
func WithEnvConfigs() ConfigProvider {
	return func() *conf {
		return &conf{
			solanaRpcUrl:           env.NewStringConfig(SolanaRpcUrlConfigEnvName, defaultSolanaRpcUrl),
			mintPublicKey:          env.NewStringConfig(MintPublicKeyConfigEnvName, defaultMintPublicKey),
			poolAuthorityPublicKey: env.NewStringConfig(PoolAuthorityPublicKeyConfigEnvName, defaultPoolAuthorityPublicKey),

			reconcileBaseUrl: env.NewStringConfig(ReconcileBaseUrlConfigEnvName, defaultReconcileBaseUrl),

			confirmationPollInterval: env.NewDurationConfig(ConfirmationPollIntervalConfigEnvName, defaultConfirmationPollInterval),
			depositLockStripes:       env.NewUint64Config(DepositLockStripesConfigEnvName, defaultDepositLockStripes),
		}
	}
}
