package stake

import (
	"context"
	"crypto/ed25519"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakepool-labs/stake-client/pkg/reconcile"
	"github.com/stakepool-labs/stake-client/pkg/solana"
	"github.com/stakepool-labs/stake-client/pkg/solana/token"
	"github.com/stakepool-labs/stake-client/pkg/wallet"
)

type workflowEnv struct {
	client    *testClient
	workflow  *Workflow
	session   *wallet.Session
	owner     ed25519.PublicKey
	ownerPriv ed25519.PrivateKey
	mint      ed25519.PublicKey
	recipient ed25519.PublicKey
	server    *httptest.Server

	depositCalls atomic.Int64
}

func setupWorkflow(t *testing.T) *workflowEnv {
	env := &workflowEnv{
		client: newTestClient(),
	}

	var err error
	env.mint, _, err = ed25519.GenerateKey(nil)
	require.NoError(t, err)
	env.recipient, _, err = ed25519.GenerateKey(nil)
	require.NoError(t, err)
	env.owner, env.ownerPriv, err = ed25519.GenerateKey(nil)
	require.NoError(t, err)

	env.client.setMint(env.mint, 6)

	env.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		env.depositCalls.Add(1)
		_, _ = w.Write([]byte(`{"total_deposited": 42}`))
	}))
	t.Cleanup(env.server.Close)

	env.workflow = NewWithClients(
		env.client,
		token.NewClient(env.client, env.mint),
		reconcile.NewClient(env.server.URL),
		env.recipient,
		NewConfirmer(env.client, time.Millisecond),
		8,
	)

	env.session = wallet.NewSession(wallet.NewKeypairProvider("test", env.ownerPriv))
	_, err = env.session.Connect(context.Background(), wallet.ConnectOpts{})
	require.NoError(t, err)

	return env
}

func (e *workflowEnv) fundOwner(t *testing.T, amount uint64) ed25519.PublicKey {
	address, err := token.GetAssociatedAccount(e.owner, e.mint)
	require.NoError(t, err)
	e.client.setTokenAccount(address, e.mint, e.owner, amount)
	return address
}

func (e *workflowEnv) fundRecipient(t *testing.T) ed25519.PublicKey {
	address, err := token.GetAssociatedAccount(e.recipient, e.mint)
	require.NoError(t, err)
	e.client.setTokenAccount(address, e.mint, e.recipient, 0)
	return address
}

func confirmedStatuses() [][]*solana.SignatureStatus {
	return [][]*solana.SignatureStatus{
		{{ConfirmationStatus: "confirmed"}},
	}
}

func TestWorkflow_Deposit(t *testing.T) {
	env := setupWorkflow(t)
	ownerStorage := env.fundOwner(t, 20_000_000)
	recipientStorage := env.fundRecipient(t)
	env.client.statuses = confirmedStatuses()

	result, err := env.workflow.Deposit(context.Background(), env.session, 10)
	require.NoError(t, err)

	assert.Equal(t, 10.0, result.Amount)
	assert.EqualValues(t, 10_000_000, result.RawAmount)
	require.NotNil(t, result.TotalDeposited)
	assert.Equal(t, 42.0, *result.TotalDeposited)
	assert.NoError(t, result.ReconciliationError)

	// Both storages present, so the transaction is a bare transfer.
	require.Equal(t, 1, env.client.submittedCount())
	txn := env.client.submitted[0]
	require.Len(t, txn.Message.Instructions, 1)

	transfer, err := token.DecompileTransfer(txn.Message, 0)
	require.NoError(t, err)
	assert.Equal(t, ownerStorage, transfer.Source)
	assert.Equal(t, recipientStorage, transfer.Destination)
	assert.Equal(t, env.owner, transfer.Owner)
	assert.EqualValues(t, 10_000_000, transfer.Amount)

	assert.EqualValues(t, 1, env.depositCalls.Load())
}

func TestWorkflow_DepositCreatesOwnerStorage(t *testing.T) {
	env := setupWorkflow(t)
	env.fundRecipient(t)
	env.client.statuses = confirmedStatuses()

	// The owner's storage doesn't exist yet, so the balance reads as zero
	// and any positive amount must be rejected before a build happens.
	_, err := env.workflow.Deposit(context.Background(), env.session, 10)
	assert.Equal(t, ErrInsufficientBalance, err)
	assert.Zero(t, env.client.submittedCount())
}

func TestWorkflow_InsufficientBalance(t *testing.T) {
	env := setupWorkflow(t)
	env.fundOwner(t, 5_000_000) // balance of 5
	env.fundRecipient(t)

	_, err := env.workflow.Deposit(context.Background(), env.session, 10)
	assert.Equal(t, ErrInsufficientBalance, err)

	// Aborted before any transaction was built or submitted.
	assert.Zero(t, env.client.submittedCount())
	assert.Zero(t, env.depositCalls.Load())
}

func TestWorkflow_InvalidAmount(t *testing.T) {
	env := setupWorkflow(t)
	env.fundOwner(t, 20_000_000)
	env.fundRecipient(t)

	for _, amount := range []float64{0, -1} {
		_, err := env.workflow.Deposit(context.Background(), env.session, amount)
		assert.Equal(t, ErrInvalidAmount, err)
	}
}

func TestWorkflow_NotConnected(t *testing.T) {
	env := setupWorkflow(t)

	session := wallet.NewSession(wallet.NewKeypairProvider("test", env.ownerPriv))
	_, err := env.workflow.Deposit(context.Background(), session, 10)
	assert.Equal(t, wallet.ErrNotConnected, err)
}

func TestWorkflow_QueryFailureAbortsBuild(t *testing.T) {
	env := setupWorkflow(t)
	env.fundOwner(t, 20_000_000)
	env.fundRecipient(t)

	env.client.mu.Lock()
	env.client.accountInfoErr = assert.AnError
	env.client.mu.Unlock()

	// Existence can't be established, so nothing may be built; a failed
	// query must not be treated as absence.
	_, err := env.workflow.Deposit(context.Background(), env.session, 10)

	var queryErr *QueryFailedError
	require.ErrorAs(t, err, &queryErr)
	assert.Zero(t, env.client.submittedCount())
}

func TestWorkflow_ReentrancyGuard(t *testing.T) {
	env := setupWorkflow(t)
	env.fundOwner(t, 20_000_000)
	env.fundRecipient(t)
	env.client.statuses = confirmedStatuses()

	gate := make(chan struct{})
	env.client.submitGate = gate

	var wg sync.WaitGroup
	wg.Add(1)

	firstErr := make(chan error, 1)
	go func() {
		defer wg.Done()
		_, err := env.workflow.Deposit(context.Background(), env.session, 1)
		firstErr <- err
	}()

	// Wait for the first deposit to reach submission.
	require.Eventually(t, func() bool {
		return env.client.submittedCount() == 1
	}, time.Second, time.Millisecond)

	_, err := env.workflow.Deposit(context.Background(), env.session, 1)
	assert.Equal(t, ErrDepositInFlight, err)

	close(gate)
	wg.Wait()
	require.NoError(t, <-firstErr)

	// Only the first deposit ever reached the network.
	assert.Equal(t, 1, env.client.submittedCount())
}

func TestWorkflow_TimedOutIsNotRetried(t *testing.T) {
	env := setupWorkflow(t)
	env.fundOwner(t, 20_000_000)
	env.fundRecipient(t)

	env.client.mu.Lock()
	env.client.blockHeight = env.client.blockhash.LastValidBlockHeight + 1
	env.client.mu.Unlock()

	_, err := env.workflow.Deposit(context.Background(), env.session, 10)
	assert.Equal(t, ErrConfirmationTimedOut, err)

	// The outcome is indeterminate: exactly one submission, never a retry
	// with the same signed bytes, and no reconciliation.
	assert.Equal(t, 1, env.client.submittedCount())
	assert.Zero(t, env.depositCalls.Load())
}

func TestWorkflow_ReconciliationFailureIsSecondary(t *testing.T) {
	env := setupWorkflow(t)
	ownerStorage := env.fundOwner(t, 20_000_000)
	env.fundRecipient(t)
	env.client.statuses = confirmedStatuses()

	env.server.Close()

	result, err := env.workflow.Deposit(context.Background(), env.session, 10)
	require.NoError(t, err)

	require.Error(t, result.ReconciliationError)
	assert.Nil(t, result.TotalDeposited)

	// The on-chain outcome stands; the balance source of truth is untouched
	// by the reconciliation failure.
	assert.EqualValues(t, 10_000_000, result.RawAmount)
	balance, _, err := env.client.GetTokenAccountBalance(ownerStorage)
	require.NoError(t, err)
	assert.EqualValues(t, 20_000_000, balance)
}

func TestWorkflow_SubmittingProvider(t *testing.T) {
	env := setupWorkflow(t)
	env.fundOwner(t, 20_000_000)
	env.fundRecipient(t)
	env.client.statuses = confirmedStatuses()

	session := wallet.NewSession(wallet.NewSubmittingProvider("test", env.ownerPriv, env.client))
	_, err := session.Connect(context.Background(), wallet.ConnectOpts{})
	require.NoError(t, err)

	result, err := env.workflow.Deposit(context.Background(), session, 2.5)
	require.NoError(t, err)
	assert.EqualValues(t, 2_500_000, result.RawAmount)

	assert.Equal(t, 1, env.client.submittedCount())
}

func TestWorkflow_DifferentOwnersProceed(t *testing.T) {
	env := setupWorkflow(t)
	env.fundOwner(t, 20_000_000)
	env.fundRecipient(t)
	env.client.statuses = confirmedStatuses()

	otherPub, otherPriv, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)

	otherStorage, err := token.GetAssociatedAccount(otherPub, env.mint)
	require.NoError(t, err)
	env.client.setTokenAccount(otherStorage, env.mint, otherPub, 20_000_000)

	otherSession := wallet.NewSession(wallet.NewKeypairProvider("other", otherPriv))
	_, err = otherSession.Connect(context.Background(), wallet.ConnectOpts{})
	require.NoError(t, err)

	_, err = env.workflow.Deposit(context.Background(), env.session, 1)
	require.NoError(t, err)

	_, err = env.workflow.Deposit(context.Background(), otherSession, 1)
	require.NoError(t, err)

	assert.Equal(t, 2, env.client.submittedCount())
}

func TestWorkflow_RecordsDepositBody(t *testing.T) {
	env := setupWorkflow(t)
	env.fundOwner(t, 20_000_000)
	env.fundRecipient(t)
	env.client.statuses = confirmedStatuses()

	var body map[string]interface{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"total_deposited": 10}`))
	}))
	defer server.Close()

	env.workflow.reconciler = reconcile.NewClient(server.URL)

	_, err := env.workflow.Deposit(context.Background(), env.session, 10)
	require.NoError(t, err)

	assert.Equal(t, "completed", body["status"])
	assert.Equal(t, 10.0, body["amount"])
	assert.NotEmpty(t, body["wallet_address"])
}
