package stake

import (
	"crypto/ed25519"

	"github.com/stakepool-labs/stake-client/pkg/solana"
	"github.com/stakepool-labs/stake-client/pkg/solana/token"
)

// Existence is the tri-state outcome of an account existence check. A failed
// query is reported as an error, never as ExistenceAbsent.
type Existence uint8

const (
	ExistenceUnknown Existence = iota
	ExistencePresent
	ExistenceAbsent
)

func (e Existence) String() string {
	switch e {
	case ExistencePresent:
		return "present"
	case ExistenceAbsent:
		return "absent"
	default:
		return "unknown"
	}
}

// ExistenceChecker queries whether derived token accounts are initialized on
// the network.
type ExistenceChecker struct {
	tc *token.Client
}

func NewExistenceChecker(tc *token.Client) *ExistenceChecker {
	return &ExistenceChecker{tc: tc}
}

// Check reports whether the token account at the given address is initialized
// for the checker's mint. Query failures yield ExistenceUnknown and a
// QueryFailedError; callers must abort rather than assume absence.
func (c *ExistenceChecker) Check(address ed25519.PublicKey) (Existence, error) {
	if len(address) != ed25519.PublicKeySize {
		return ExistenceUnknown, ErrInvalidIdentity
	}

	_, err := c.tc.GetAccount(address, solana.CommitmentConfirmed)
	switch err {
	case nil:
		return ExistencePresent, nil
	case token.ErrAccountNotFound:
		return ExistenceAbsent, nil
	default:
		return ExistenceUnknown, newQueryFailedError(err)
	}
}
