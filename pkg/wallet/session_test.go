package wallet

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakepool-labs/stake-client/pkg/solana"
)

type stubProvider struct {
	name       string
	available  bool
	connectErr error
	identity   ed25519.PublicKey

	connects int
	prompts  int
}

func (p *stubProvider) Name() string    { return p.name }
func (p *stubProvider) Available() bool { return p.available }

func (p *stubProvider) Connect(_ context.Context, opts ConnectOpts) (ed25519.PublicKey, error) {
	p.connects++
	if !opts.OnlyIfTrusted {
		p.prompts++
	}
	if p.connectErr != nil {
		return nil, p.connectErr
	}
	return p.identity, nil
}

func (p *stubProvider) SignTransaction(context.Context, *solana.Transaction) error {
	return nil
}

func TestDetect(t *testing.T) {
	a := &stubProvider{name: "a"}
	b := &stubProvider{name: "b", available: true}

	p, err := Detect(a, b)
	require.NoError(t, err)
	assert.Equal(t, "b", p.Name())

	_, err = Detect(a)
	assert.Equal(t, ErrProviderUnavailable, err)
}

func TestSession_Connect(t *testing.T) {
	pub, _, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	provider := &stubProvider{name: "test", available: true, identity: pub}
	session := NewSession(provider)

	assert.Equal(t, StateDisconnected, session.State())
	assert.Nil(t, session.Identity())

	identity, err := session.Connect(context.Background(), ConnectOpts{})
	require.NoError(t, err)
	assert.Equal(t, pub, identity)
	assert.Equal(t, StateConnected, session.State())

	// Reconnecting while connected must not prompt again.
	identity, err = session.Connect(context.Background(), ConnectOpts{})
	require.NoError(t, err)
	assert.Equal(t, pub, identity)
	assert.Equal(t, 1, provider.connects)
}

func TestSession_SilentConnectWithoutTrust(t *testing.T) {
	provider := &stubProvider{name: "test", available: true, connectErr: ErrNotTrusted}
	session := NewSession(provider)

	identity, err := session.Connect(context.Background(), ConnectOpts{OnlyIfTrusted: true})
	require.NoError(t, err)
	assert.Nil(t, identity)
	assert.Equal(t, StateDisconnected, session.State())
	assert.Zero(t, provider.prompts)
}

func TestSession_ConnectErrors(t *testing.T) {
	session := NewSession(&stubProvider{name: "test"})
	_, err := session.Connect(context.Background(), ConnectOpts{})
	assert.Equal(t, ErrProviderUnavailable, err)

	session = NewSession(&stubProvider{name: "test", available: true, connectErr: ErrUserRejected})
	_, err = session.Connect(context.Background(), ConnectOpts{})
	assert.Equal(t, ErrUserRejected, err)
	assert.Equal(t, StateDisconnected, session.State())
}

func TestSession_SignRequiresConnection(t *testing.T) {
	session := NewSession(&stubProvider{name: "test", available: true})

	var txn solana.Transaction
	assert.Equal(t, ErrNotConnected, session.SignTransaction(context.Background(), &txn))
}

func TestKeypairProvider(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	provider := NewKeypairProvider("local", priv)
	require.True(t, provider.Available())

	// No silent reconnect before an interactive connect.
	_, err = provider.Connect(context.Background(), ConnectOpts{OnlyIfTrusted: true})
	assert.Equal(t, ErrNotTrusted, err)

	identity, err := provider.Connect(context.Background(), ConnectOpts{})
	require.NoError(t, err)
	assert.Equal(t, pub, identity)

	// Trust established; silent reconnect now succeeds.
	identity, err = provider.Connect(context.Background(), ConnectOpts{OnlyIfTrusted: true})
	require.NoError(t, err)
	assert.Equal(t, pub, identity)
}

func TestSessionIDsUnique(t *testing.T) {
	a := NewSession(&stubProvider{name: "test", available: true})
	b := NewSession(&stubProvider{name: "test", available: true})
	assert.NotEqual(t, a.ID(), b.ID())
}
