package wallet

import (
	"context"
	"crypto/ed25519"
	"sync"

	"github.com/pkg/errors"

	"github.com/stakepool-labs/stake-client/pkg/solana"
)

// KeypairProvider signs with an in-process ed25519 keypair. Submission is the
// caller's responsibility.
type KeypairProvider struct {
	name string
	priv ed25519.PrivateKey

	mu      sync.Mutex
	trusted bool
}

// NewKeypairProvider creates a provider over the given private key.
func NewKeypairProvider(name string, priv ed25519.PrivateKey) *KeypairProvider {
	return &KeypairProvider{
		name: name,
		priv: priv,
	}
}

func (p *KeypairProvider) Name() string {
	return p.name
}

func (p *KeypairProvider) Available() bool {
	return len(p.priv) == ed25519.PrivateKeySize
}

func (p *KeypairProvider) Connect(_ context.Context, opts ConnectOpts) (ed25519.PublicKey, error) {
	if !p.Available() {
		return nil, ErrProviderUnavailable
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if opts.OnlyIfTrusted && !p.trusted {
		return nil, ErrNotTrusted
	}

	// An interactive connect establishes trust for later silent reconnects.
	p.trusted = true

	return p.priv.Public().(ed25519.PublicKey), nil
}

func (p *KeypairProvider) SignTransaction(_ context.Context, txn *solana.Transaction) error {
	if !p.Available() {
		return ErrProviderUnavailable
	}

	return txn.Sign(p.priv)
}

type rpcSubmittingProvider struct {
	*KeypairProvider

	sc solana.Client
}

// NewSubmittingProvider wraps a keypair provider with a network client so
// signing and submission happen in one call.
func NewSubmittingProvider(name string, priv ed25519.PrivateKey, sc solana.Client) SubmittingProvider {
	return &rpcSubmittingProvider{
		KeypairProvider: NewKeypairProvider(name, priv),
		sc:              sc,
	}
}

func (p *rpcSubmittingProvider) SignAndSendTransaction(ctx context.Context, txn *solana.Transaction) (solana.Signature, error) {
	if err := p.SignTransaction(ctx, txn); err != nil {
		return solana.Signature{}, err
	}

	sig, err := p.sc.SubmitTransaction(*txn, solana.CommitmentConfirmed)
	if err != nil {
		return solana.Signature{}, errors.Wrap(err, "failed to submit transaction")
	}

	return sig, nil
}
