package stake

import (
	"crypto/ed25519"
	"sync"

	"github.com/stakepool-labs/stake-client/pkg/solana"
	"github.com/stakepool-labs/stake-client/pkg/solana/token"
)

// testClient is an in-memory stand-in for the JSON-RPC surface.
type testClient struct {
	mu sync.Mutex

	accounts  map[string]solana.AccountInfo
	balances  map[string]uint64
	blockhash solana.BlockhashWithExpiry

	blockHeight uint64

	// status returned on each successive poll; the last entry repeats.
	statuses  [][]*solana.SignatureStatus
	statusIdx int

	submitted  []solana.Transaction
	submitGate chan struct{}

	accountInfoErr error
}

func newTestClient() *testClient {
	return &testClient{
		accounts: make(map[string]solana.AccountInfo),
		balances: make(map[string]uint64),
		blockhash: solana.BlockhashWithExpiry{
			Blockhash:            solana.Blockhash{1, 2, 3, 4},
			LastValidBlockHeight: 100,
		},
	}
}

func (c *testClient) setTokenAccount(address ed25519.PublicKey, mint ed25519.PublicKey, owner ed25519.PublicKey, amount uint64) {
	account := token.Account{
		Mint:   mint,
		Owner:  owner,
		Amount: amount,
		State:  token.AccountStateInitialized,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.accounts[string(address)] = solana.AccountInfo{
		Data:  account.Marshal(),
		Owner: token.ProgramKey,
	}
	c.balances[string(address)] = amount
}

func (c *testClient) setMint(mint ed25519.PublicKey, decimals uint8) {
	state := token.Mint{
		Supply:        1,
		Decimals:      decimals,
		IsInitialized: true,
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.accounts[string(mint)] = solana.AccountInfo{
		Data:  state.Marshal(),
		Owner: token.ProgramKey,
	}
}

func (c *testClient) submittedCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.submitted)
}

func (c *testClient) GetAccountInfo(account ed25519.PublicKey, _ solana.Commitment) (solana.AccountInfo, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accountInfoErr != nil {
		return solana.AccountInfo{}, c.accountInfoErr
	}

	info, ok := c.accounts[string(account)]
	if !ok {
		return solana.AccountInfo{}, solana.ErrNoAccountInfo
	}

	return info, nil
}

func (c *testClient) GetBalance(ed25519.PublicKey) (uint64, error) {
	return 0, nil
}

func (c *testClient) GetBlockHeight(solana.Commitment) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.blockHeight, nil
}

func (c *testClient) GetLatestBlockhash() (solana.BlockhashWithExpiry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.blockhash, nil
}

func (c *testClient) GetMinimumBalanceForRentExemption(uint64) (uint64, error) {
	return 0, nil
}

func (c *testClient) GetSignatureStatus(solana.Signature, solana.Commitment) (*solana.SignatureStatus, error) {
	return nil, nil
}

func (c *testClient) GetSignatureStatuses(sigs []solana.Signature) ([]*solana.SignatureStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.statuses) == 0 {
		return make([]*solana.SignatureStatus, len(sigs)), nil
	}

	statuses := c.statuses[c.statusIdx]
	if c.statusIdx < len(c.statuses)-1 {
		c.statusIdx++
	}

	return statuses, nil
}

func (c *testClient) GetSlot(solana.Commitment) (uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.blockHeight, nil
}

func (c *testClient) GetTokenAccountBalance(account ed25519.PublicKey) (uint64, uint64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	balance, ok := c.balances[string(account)]
	if !ok {
		return 0, 0, solana.ErrNoBalance
	}

	return balance, 1, nil
}

func (c *testClient) SubmitTransaction(txn solana.Transaction, _ solana.Commitment) (solana.Signature, error) {
	c.mu.Lock()
	gate := c.submitGate
	c.submitted = append(c.submitted, txn)
	c.mu.Unlock()

	if gate != nil {
		<-gate
	}

	return txn.Signatures[0], nil
}

func (c *testClient) SubmitRawTransaction(txnBytes []byte, commitment solana.Commitment) (solana.Signature, error) {
	var txn solana.Transaction
	if err := txn.Unmarshal(txnBytes); err != nil {
		return solana.Signature{}, err
	}

	return c.SubmitTransaction(txn, commitment)
}
