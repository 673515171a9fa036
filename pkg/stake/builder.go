package stake

import (
	"crypto/ed25519"

	"github.com/pkg/errors"

	"github.com/stakepool-labs/stake-client/pkg/solana"
	"github.com/stakepool-labs/stake-client/pkg/solana/token"
)

// Builder assembles the unsigned deposit transaction: conditional storage
// creation for owner and recipient, then the transfer itself. The owner pays
// fees and funds any account creation.
type Builder struct {
	sc        solana.Client
	resolver  *Resolver
	mint      ed25519.PublicKey
	recipient ed25519.PublicKey
}

func NewBuilder(sc solana.Client, resolver *Resolver, mint, recipient ed25519.PublicKey) *Builder {
	return &Builder{
		sc:        sc,
		resolver:  resolver,
		mint:      mint,
		recipient: recipient,
	}
}

// Build assembles the transaction moving rawAmount minimal units from the
// owner's storage to the fixed recipient's storage.
//
// Callers must have verified the balance precondition and resolved both
// existence states beforehand; an unknown existence state is rejected rather
// than guessed at. The blockhash is fetched last so the validity window is
// as wide as possible when the transaction reaches the signer.
func (b *Builder) Build(owner ed25519.PublicKey, rawAmount uint64, ownerExistence, recipientExistence Existence) (*solana.Transaction, solana.BlockhashWithExpiry, error) {
	if len(owner) != ed25519.PublicKeySize {
		return nil, solana.BlockhashWithExpiry{}, ErrInvalidIdentity
	}
	if rawAmount == 0 {
		return nil, solana.BlockhashWithExpiry{}, ErrInvalidAmount
	}
	if ownerExistence == ExistenceUnknown || recipientExistence == ExistenceUnknown {
		return nil, solana.BlockhashWithExpiry{}, newQueryFailedError(errors.New("existence state not resolved"))
	}

	ownerStorage, err := b.resolver.StorageAddress(owner)
	if err != nil {
		return nil, solana.BlockhashWithExpiry{}, err
	}

	recipientStorage, err := b.resolver.StorageAddress(b.recipient)
	if err != nil {
		return nil, solana.BlockhashWithExpiry{}, err
	}

	var instructions []solana.Instruction

	if ownerExistence != ExistencePresent {
		createOwner, _, err := token.CreateAssociatedTokenAccount(owner, owner, b.mint)
		if err != nil {
			return nil, solana.BlockhashWithExpiry{}, errors.Wrap(err, "failed to build owner storage creation")
		}
		instructions = append(instructions, createOwner)
	}

	if recipientExistence != ExistencePresent {
		createRecipient, _, err := token.CreateAssociatedTokenAccount(owner, b.recipient, b.mint)
		if err != nil {
			return nil, solana.BlockhashWithExpiry{}, errors.Wrap(err, "failed to build recipient storage creation")
		}
		instructions = append(instructions, createRecipient)
	}

	instructions = append(instructions, token.Transfer(ownerStorage, recipientStorage, owner, rawAmount))

	txn := solana.NewTransaction(owner, instructions...)

	blockhash, err := b.sc.GetLatestBlockhash()
	if err != nil {
		return nil, solana.BlockhashWithExpiry{}, errors.Wrap(err, "failed to get latest blockhash")
	}
	txn.SetBlockhash(blockhash.Blockhash)

	return &txn, blockhash, nil
}
