package stake

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/stakepool-labs/stake-client/pkg/solana"
)

var (
	// ErrInvalidIdentity indicates a malformed owner or recipient identity.
	ErrInvalidIdentity = errors.New("invalid identity")

	// ErrInvalidAmount indicates the requested amount is zero, negative, or
	// rounds to zero minimal units.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInsufficientBalance indicates the freshly fetched owner balance does
	// not cover the requested amount.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrDepositInFlight indicates a deposit for the same owner is already
	// pending. The caller must wait for it to reach a terminal state.
	ErrDepositInFlight = errors.New("deposit already in flight")

	// ErrConfirmationTimedOut indicates the blockhash expired before the
	// transaction was observed as confirmed. The outcome is indeterminate;
	// the signed bytes must never be resubmitted.
	ErrConfirmationTimedOut = errors.New("confirmation timed out")
)

// QueryFailedError indicates an account existence check could not complete.
// It is deliberately distinct from "account absent": a failed query must
// abort the deposit rather than trigger account creation.
type QueryFailedError struct {
	cause error
}

func newQueryFailedError(cause error) *QueryFailedError {
	return &QueryFailedError{cause: cause}
}

func (e *QueryFailedError) Error() string {
	return fmt.Sprintf("account existence query failed: %v", e.cause)
}

func (e *QueryFailedError) Unwrap() error {
	return e.cause
}

// OnChainError indicates the network rejected or failed the transaction. The
// structured cause distinguishes it from transport failure.
type OnChainError struct {
	cause *solana.TransactionError
}

func newOnChainError(cause *solana.TransactionError) *OnChainError {
	return &OnChainError{cause: cause}
}

func (e *OnChainError) Error() string {
	return fmt.Sprintf("transaction failed on chain: %v", e.cause)
}

func (e *OnChainError) Unwrap() error {
	return e.cause
}

// Cause returns the structured network error for display.
func (e *OnChainError) Cause() *solana.TransactionError {
	return e.cause
}
