package display

import (
	"context"
	"crypto/ed25519"
	"math"
	"sync"
	"time"

	"github.com/mr-tron/base58"
	"github.com/sirupsen/logrus"

	"github.com/stakepool-labs/stake-client/pkg/async"
	"github.com/stakepool-labs/stake-client/pkg/pool"
	"github.com/stakepool-labs/stake-client/pkg/rate"
	"github.com/stakepool-labs/stake-client/pkg/solana"
)

// hourlyRewardRate drives the cosmetic reward estimate: compounding per hour
// against the last recorded stake. Display only; reward economics live on
// the backend.
const hourlyRewardRate = 0.0001

// Snapshot is one observation of the owner's displayed state.
type Snapshot struct {
	Balance    float64
	RawBalance uint64
	Slot       uint64

	// RewardEstimate is a locally computed accrual figure, not a ledger
	// value.
	RewardEstimate float64

	ObservedAt time.Time
}

// Refresher periodically refreshes the owner's token balance, the current
// slot, and a reward estimate. It has no correctness dependency on the
// deposit workflow; a stale snapshot only affects display.
type Refresher struct {
	log *logrus.Entry

	sc       solana.Client
	storage  ed25519.PublicKey
	decimals uint8

	stakeLog *StakeLog
	limiter  rate.Limiter

	mu     sync.RWMutex
	latest Snapshot
}

// NewRefresher returns a display refresher for the owner's storage address.
func NewRefresher(sc solana.Client, storage ed25519.PublicKey, decimals uint8, stakeLog *StakeLog, limiter rate.Limiter) async.Service {
	if limiter == nil {
		limiter = &rate.NoLimiter{}
	}

	return &Refresher{
		log:      logrus.StandardLogger().WithField("type", "display/refresher"),
		sc:       sc,
		storage:  storage,
		decimals: decimals,
		stakeLog: stakeLog,
		limiter:  limiter,
	}
}

// Start runs the refresh loop until the context is cancelled. Failed
// refreshes keep the previous snapshot; the loop never terminates on a
// transient error.
func (r *Refresher) Start(ctx context.Context, interval time.Duration) error {
	r.refresh()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}

		allowed, err := r.limiter.Allow(base58.Encode(r.storage))
		if err != nil || !allowed {
			continue
		}

		r.refresh()
	}
}

// Latest returns the most recent snapshot.
func (r *Refresher) Latest() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.latest
}

func (r *Refresher) refresh() {
	snapshot := Snapshot{ObservedAt: time.Now()}

	rawBalance, _, err := r.sc.GetTokenAccountBalance(r.storage)
	if err == solana.ErrNoBalance {
		rawBalance = 0
	} else if err != nil {
		r.log.WithError(err).Warn("failed to refresh token balance")
		return
	}
	snapshot.RawBalance = rawBalance
	snapshot.Balance = pool.FromRawAmount(rawBalance, r.decimals)

	slot, err := r.sc.GetSlot(solana.CommitmentConfirmed)
	if err != nil {
		r.log.WithError(err).Warn("failed to refresh slot")
	} else {
		snapshot.Slot = slot
	}

	if r.stakeLog != nil {
		if amount, at, ok := r.stakeLog.LastStake(); ok {
			snapshot.RewardEstimate = estimateReward(amount, snapshot.ObservedAt.Sub(at))
		}
	}

	r.mu.Lock()
	r.latest = snapshot
	r.mu.Unlock()
}

func estimateReward(amount float64, elapsed time.Duration) float64 {
	if amount <= 0 || elapsed <= 0 {
		return 0
	}

	hours := elapsed.Hours()
	return amount * (math.Pow(1+hourlyRewardRate, hours) - 1)
}
