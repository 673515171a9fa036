package stake

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"

	"github.com/stakepool-labs/stake-client/pkg/solana"
)

// Confirmer submits signed transactions and waits for a terminal outcome.
//
// Confirmation polling is bounded by the blockhash validity window: once the
// network's block height passes the blockhash's last valid height, the
// transaction can no longer land and the outcome is indeterminate. A timed
// out transaction must be rebuilt from scratch, never resubmitted as-is.
type Confirmer struct {
	log          *logrus.Entry
	sc           solana.Client
	pollInterval time.Duration
}

func NewConfirmer(sc solana.Client, pollInterval time.Duration) *Confirmer {
	if pollInterval <= 0 {
		pollInterval = solana.PollRate
	}

	return &Confirmer{
		log:          logrus.StandardLogger().WithField("type", "stake/confirmer"),
		sc:           sc,
		pollInterval: pollInterval,
	}
}

// Submit sends a signed transaction to the network. A structured rejection at
// submission time is surfaced as an OnChainError.
func (c *Confirmer) Submit(txn *solana.Transaction) (solana.Signature, error) {
	sig, err := c.sc.SubmitTransaction(*txn, solana.CommitmentConfirmed)
	if err != nil {
		if txErr, ok := errors.Cause(err).(*solana.TransactionError); ok {
			return solana.Signature{}, newOnChainError(txErr)
		}
		return solana.Signature{}, errors.Wrap(err, "failed to submit transaction")
	}

	return sig, nil
}

// Confirm polls the signature status until the transaction is confirmed,
// fails on chain, or the blockhash validity window lapses.
//
// Transient status query failures are logged and polling continues; the
// window bound guarantees termination. Context cancellation stops polling
// early, leaving the outcome unobserved.
func (c *Confirmer) Confirm(ctx context.Context, sig solana.Signature, blockhash solana.BlockhashWithExpiry) error {
	log := c.log.WithField("signature", sig.ToBase58())

	for {
		statuses, err := c.sc.GetSignatureStatuses([]solana.Signature{sig})
		if err != nil {
			log.WithError(err).Warn("failed to poll signature status")
		} else if statuses[0] != nil {
			status := statuses[0]

			if status.ErrorResult != nil {
				return newOnChainError(status.ErrorResult)
			}
			if status.Confirmed() {
				return nil
			}
		}

		height, err := c.sc.GetBlockHeight(solana.CommitmentConfirmed)
		if err != nil {
			log.WithError(err).Warn("failed to poll block height")
		} else if height > blockhash.LastValidBlockHeight {
			return ErrConfirmationTimedOut
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(c.pollInterval):
		}
	}
}
