package wallet

import (
	"context"
	"crypto/ed25519"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/stakepool-labs/stake-client/pkg/solana"
)

// State is the connection state of a Session.
type State uint8

const (
	StateDisconnected State = iota
	StateConnecting
	StateConnected
)

func (s State) String() string {
	switch s {
	case StateDisconnected:
		return "disconnected"
	case StateConnecting:
		return "connecting"
	case StateConnected:
		return "connected"
	default:
		return "unknown"
	}
}

// Session tracks a single wallet connection over one provider. A connected
// session exposes the owner identity and lends out the provider's signing
// capability; it never persists key material itself.
type Session struct {
	log      *logrus.Entry
	id       uuid.UUID
	provider Provider

	mu       sync.Mutex
	state    State
	identity ed25519.PublicKey
}

// NewSession creates a disconnected session over the given provider.
func NewSession(provider Provider) *Session {
	id := uuid.New()
	return &Session{
		log: logrus.StandardLogger().WithFields(logrus.Fields{
			"type":    "wallet/session",
			"session": id.String(),
		}),
		id:       id,
		provider: provider,
	}
}

func (s *Session) ID() uuid.UUID {
	return s.id
}

func (s *Session) Provider() Provider {
	return s.provider
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Identity returns the connected owner identity, or nil when disconnected.
func (s *Session) Identity() ed25519.PublicKey {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.identity
}

// Connect establishes the session. Reconnecting while already connected is
// idempotent and returns the existing identity without prompting.
//
// With opts.OnlyIfTrusted set, a provider lacking prior authorization leaves
// the session disconnected and Connect returns a nil identity with no error.
func (s *Session) Connect(ctx context.Context, opts ConnectOpts) (ed25519.PublicKey, error) {
	s.mu.Lock()
	if s.state == StateConnected {
		identity := s.identity
		s.mu.Unlock()
		return identity, nil
	}
	if s.provider == nil || !s.provider.Available() {
		s.mu.Unlock()
		return nil, ErrProviderUnavailable
	}
	s.state = StateConnecting
	s.mu.Unlock()

	identity, err := s.provider.Connect(ctx, opts)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.state = StateDisconnected
		s.identity = nil

		if opts.OnlyIfTrusted && err == ErrNotTrusted {
			return nil, nil
		}

		s.log.WithError(err).WithField("provider", s.provider.Name()).Info("connect failed")
		return nil, err
	}

	s.state = StateConnected
	s.identity = identity

	return identity, nil
}

// Disconnect drops the connection state. The provider's own trust state is
// untouched, so a subsequent silent reconnect can succeed.
func (s *Session) Disconnect() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.state = StateDisconnected
	s.identity = nil
}

// SignTransaction borrows the provider's signing capability for one
// transaction. The session must be connected.
func (s *Session) SignTransaction(ctx context.Context, txn *solana.Transaction) error {
	if s.State() != StateConnected {
		return ErrNotConnected
	}

	return s.provider.SignTransaction(ctx, txn)
}
