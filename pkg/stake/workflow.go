package stake

import (
	"context"
	"crypto/ed25519"
	"time"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/stakepool-labs/stake-client/pkg/metrics"
	"github.com/stakepool-labs/stake-client/pkg/pointer"
	"github.com/stakepool-labs/stake-client/pkg/pool"
	"github.com/stakepool-labs/stake-client/pkg/reconcile"
	"github.com/stakepool-labs/stake-client/pkg/solana"
	"github.com/stakepool-labs/stake-client/pkg/solana/token"
	sync_util "github.com/stakepool-labs/stake-client/pkg/sync"
	"github.com/stakepool-labs/stake-client/pkg/wallet"
)

const (
	metricsStructName = "stake.workflow"

	depositEventName           = "StakeDeposit"
	confirmationTimeMetricName = "stake/deposit_confirmation_time"
)

// DepositResult is the terminal outcome of a successful on-chain deposit.
type DepositResult struct {
	Signature solana.Signature
	Amount    float64
	RawAmount uint64

	// TotalDeposited is the remote ledger's cumulative total, when
	// reconciliation succeeded.
	TotalDeposited *float64

	// ReconciliationError is set when the remote ledger could not record the
	// deposit. The on-chain transfer is confirmed regardless; surface this as
	// a secondary warning only.
	ReconciliationError error
}

// Workflow sequences a deposit end to end: balance precondition, storage
// existence checks, transaction build, wallet signing, submission,
// confirmation, and best-effort reconciliation.
type Workflow struct {
	log *logrus.Entry

	sc         solana.Client
	checker    *ExistenceChecker
	resolver   *Resolver
	builder    *Builder
	confirmer  *Confirmer
	reconciler *reconcile.Client

	locks *sync_util.StripedLock
}

// New constructs a workflow from configuration.
func New(configProvider ConfigProvider) (*Workflow, error) {
	conf := configProvider()
	ctx := context.Background()

	mint, err := base58.Decode(conf.mintPublicKey.Get(ctx))
	if err != nil || len(mint) != ed25519.PublicKeySize {
		return nil, ErrInvalidIdentity
	}

	authority, err := base58.Decode(conf.poolAuthorityPublicKey.Get(ctx))
	if err != nil || len(authority) != ed25519.PublicKeySize {
		return nil, ErrInvalidIdentity
	}

	sc := solana.New(conf.solanaRpcUrl.Get(ctx))

	return NewWithClients(
		sc,
		token.NewClient(sc, mint),
		reconcile.NewClient(conf.reconcileBaseUrl.Get(ctx)),
		authority,
		NewConfirmer(sc, conf.confirmationPollInterval.Get(ctx)),
		uint(conf.depositLockStripes.Get(ctx)),
	), nil
}

// NewWithClients constructs a workflow with explicit collaborators.
func NewWithClients(
	sc solana.Client,
	tc *token.Client,
	reconciler *reconcile.Client,
	poolAuthority ed25519.PublicKey,
	confirmer *Confirmer,
	lockStripes uint,
) *Workflow {
	resolver := NewResolver(tc)

	return &Workflow{
		log: logrus.StandardLogger().WithField("type", "stake/workflow"),

		sc:         sc,
		checker:    NewExistenceChecker(tc),
		resolver:   resolver,
		builder:    NewBuilder(sc, resolver, tc.Token(), poolAuthority),
		confirmer:  confirmer,
		reconciler: reconciler,

		locks: sync_util.NewStripedLock(lockStripes),
	}
}

// Deposit transfers amount tokens from the session's owner to the pool. The
// amount is in whole tokens; conversion to minimal units uses the mint's
// decimals.
//
// Deposits are serialized per owner: a second call while one is pending
// fails fast with ErrDepositInFlight instead of racing the storage creation
// checks.
func (w *Workflow) Deposit(ctx context.Context, session *wallet.Session, amount float64) (*DepositResult, error) {
	tracer := metrics.TraceMethodCall(ctx, metricsStructName, "Deposit")
	defer tracer.End()

	result, err := w.deposit(ctx, session, amount)
	tracer.OnError(err)
	return result, err
}

func (w *Workflow) deposit(ctx context.Context, session *wallet.Session, amount float64) (*DepositResult, error) {
	owner := session.Identity()
	if owner == nil {
		return nil, wallet.ErrNotConnected
	}

	lock := w.locks.Get(owner)
	if !lock.TryLock() {
		return nil, ErrDepositInFlight
	}
	defer lock.Unlock()

	log := w.log.WithFields(logrus.Fields{
		"owner":  base58.Encode(owner),
		"amount": amount,
	})

	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	decimals, err := w.resolver.MintDecimals()
	if err != nil {
		return nil, newQueryFailedError(err)
	}

	rawAmount, err := pool.ToRawAmount(amount, decimals)
	if err != nil || rawAmount == 0 {
		return nil, ErrInvalidAmount
	}

	ownerStorage, err := w.resolver.StorageAddress(owner)
	if err != nil {
		return nil, err
	}

	ownerExistence, err := w.checker.Check(ownerStorage)
	if err != nil {
		return nil, err
	}

	recipientStorage, err := w.resolver.StorageAddress(w.builder.recipient)
	if err != nil {
		return nil, err
	}

	recipientExistence, err := w.checker.Check(recipientStorage)
	if err != nil {
		return nil, err
	}

	// The balance is fetched immediately before building so the precondition
	// can't go stale across earlier interactions.
	var balance uint64
	if ownerExistence == ExistencePresent {
		balance, _, err = w.sc.GetTokenAccountBalance(ownerStorage)
		if err == solana.ErrNoBalance {
			balance = 0
		} else if err != nil {
			return nil, newQueryFailedError(err)
		}
	}
	if rawAmount > balance {
		return nil, ErrInsufficientBalance
	}

	txn, blockhash, err := w.builder.Build(owner, rawAmount, ownerExistence, recipientExistence)
	if err != nil {
		return nil, err
	}

	var sig solana.Signature
	if submitter, ok := session.Provider().(wallet.SubmittingProvider); ok {
		sig, err = submitter.SignAndSendTransaction(ctx, txn)
		if err != nil {
			if txErr, ok := errors.Cause(err).(*solana.TransactionError); ok {
				return nil, newOnChainError(txErr)
			}
			return nil, err
		}
	} else {
		if err := session.SignTransaction(ctx, txn); err != nil {
			return nil, err
		}

		sig, err = w.confirmer.Submit(txn)
		if err != nil {
			return nil, err
		}
	}

	log = log.WithField("signature", sig.ToBase58())
	log.Info("deposit submitted")

	// An in-flight submission always runs to its terminal state. Abandoning
	// it on caller cancellation risks a duplicate resubmission later, so
	// confirmation is bounded by the blockhash window instead.
	confirmStart := time.Now()
	if err := w.confirmer.Confirm(context.WithoutCancel(ctx), sig, blockhash); err != nil {
		return nil, err
	}
	metrics.RecordDuration(ctx, confirmationTimeMetricName, time.Since(confirmStart))

	metrics.RecordEvent(ctx, depositEventName, map[string]interface{}{
		"owner":      base58.Encode(owner),
		"amount":     amount,
		"raw_amount": rawAmount,
		"signature":  sig.ToBase58(),
	})

	result := &DepositResult{
		Signature: sig,
		Amount:    amount,
		RawAmount: rawAmount,
	}

	total, err := w.reconciler.RecordDeposit(ctx, base58.Encode(owner), amount)
	if err != nil {
		log.WithError(err).Warn("deposit confirmed on chain but not recorded by remote ledger")
		result.ReconciliationError = err
	} else {
		result.TotalDeposited = pointer.Float64(total)
	}

	return result, nil
}
