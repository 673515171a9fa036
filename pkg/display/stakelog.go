package display

import (
	"strconv"
	"sync"
	"time"
)

const (
	lastStakeTimeKey   = "last_stake_time"
	lastStakeAmountKey = "last_stake_amount"
)

// StakeLog holds the two ephemeral key/value entries backing the reward
// estimate: the time and amount of the most recent stake. The entries are
// display-only and never authoritative; on-chain state is the source of
// truth.
type StakeLog struct {
	mu      sync.RWMutex
	entries map[string]string
}

func NewStakeLog() *StakeLog {
	return &StakeLog{
		entries: make(map[string]string),
	}
}

// RecordStake overwrites the log with the latest stake.
func (l *StakeLog) RecordStake(amount float64, at time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries[lastStakeTimeKey] = strconv.FormatInt(at.Unix(), 10)
	l.entries[lastStakeAmountKey] = strconv.FormatFloat(amount, 'f', -1, 64)
}

// LastStake returns the recorded stake, if any.
func (l *StakeLog) LastStake() (amount float64, at time.Time, ok bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	rawTime, hasTime := l.entries[lastStakeTimeKey]
	rawAmount, hasAmount := l.entries[lastStakeAmountKey]
	if !hasTime || !hasAmount {
		return 0, time.Time{}, false
	}

	unix, err := strconv.ParseInt(rawTime, 10, 64)
	if err != nil {
		return 0, time.Time{}, false
	}

	amount, err = strconv.ParseFloat(rawAmount, 64)
	if err != nil {
		return 0, time.Time{}, false
	}

	return amount, time.Unix(unix, 0), true
}

// Clear drops both entries.
func (l *StakeLog) Clear() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = make(map[string]string)
}
