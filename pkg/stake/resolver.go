package stake

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"

	"github.com/stakepool-labs/stake-client/pkg/cache"
	"github.com/stakepool-labs/stake-client/pkg/solana"
	"github.com/stakepool-labs/stake-client/pkg/solana/token"
)

const (
	resolverCacheBudget = 256

	decimalsCacheKey = "mint-decimals"
)

// Resolver derives the token storage address for an owner. Derivation is pure
// and deterministic, so results are cached for the process lifetime; the
// fixed recipient's address and the mint's decimal configuration can never
// change for a given mint.
type Resolver struct {
	tc    *token.Client
	cache cache.Cache
}

func NewResolver(tc *token.Client) *Resolver {
	return &Resolver{
		tc:    tc,
		cache: cache.NewCache(resolverCacheBudget),
	}
}

// StorageAddress derives the associated token account for the owner and the
// resolver's mint.
func (r *Resolver) StorageAddress(owner ed25519.PublicKey) (ed25519.PublicKey, error) {
	if len(owner) != ed25519.PublicKeySize {
		return nil, ErrInvalidIdentity
	}

	cacheKey := "ata/" + base58.Encode(owner)
	if cached, ok := r.cache.Retrieve(cacheKey); ok {
		return cached.(ed25519.PublicKey), nil
	}

	addr, err := token.GetAssociatedAccount(owner, r.tc.Token())
	if err != nil {
		return nil, errors.Wrap(err, "failed to derive storage address")
	}

	_ = r.cache.Insert(cacheKey, addr, 1)

	return addr, nil
}

// MintDecimals fetches the mint's decimal configuration, once.
func (r *Resolver) MintDecimals() (uint8, error) {
	if cached, ok := r.cache.Retrieve(decimalsCacheKey); ok {
		return cached.(uint8), nil
	}

	mint, err := r.tc.GetMint(solana.CommitmentFinalized)
	if err != nil {
		return 0, errors.Wrap(err, "failed to get mint state")
	}

	_ = r.cache.Insert(decimalsCacheKey, mint.Decimals, 1)

	return mint.Decimals, nil
}
