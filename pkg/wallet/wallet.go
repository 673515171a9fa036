package wallet

import (
	"context"
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/stakepool-labs/stake-client/pkg/solana"
)

var (
	// ErrProviderUnavailable indicates no wallet provider is installed or
	// reachable in the current environment.
	ErrProviderUnavailable = errors.New("wallet provider unavailable")

	// ErrUserRejected indicates the user declined the connection or signing
	// prompt.
	ErrUserRejected = errors.New("user rejected request")

	// ErrNotTrusted indicates a silent connect was requested but the provider
	// has no prior authorization for this origin. It is not a failure; callers
	// should remain disconnected without surfacing an error.
	ErrNotTrusted = errors.New("no prior trust for silent connect")

	// ErrNotConnected indicates a signing capability was borrowed before a
	// session was established.
	ErrNotConnected = errors.New("session not connected")
)

// ConnectOpts controls how a connection attempt behaves.
type ConnectOpts struct {
	// OnlyIfTrusted requests a silent reconnect. Providers must not open any
	// prompt when set, and must return ErrNotTrusted when no prior
	// authorization exists.
	OnlyIfTrusted bool
}

// Provider is the minimal capability set shared by all wallet providers:
// detection, connection, and transaction signing. Signing fills the
// transaction's signature slots in place.
type Provider interface {
	Name() string
	Available() bool
	Connect(ctx context.Context, opts ConnectOpts) (ed25519.PublicKey, error)
	SignTransaction(ctx context.Context, txn *solana.Transaction) error
}

// SubmittingProvider is implemented by providers that combine signing and
// network submission into a single call. Callers holding one must not submit
// the transaction themselves.
type SubmittingProvider interface {
	Provider

	SignAndSendTransaction(ctx context.Context, txn *solana.Transaction) (solana.Signature, error)
}

// Detect returns the first available provider, preserving the order given.
func Detect(providers ...Provider) (Provider, error) {
	for _, p := range providers {
		if p.Available() {
			return p, nil
		}
	}

	return nil, ErrProviderUnavailable
}
