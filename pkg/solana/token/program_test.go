package token

import (
	"crypto/ed25519"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stakepool-labs/stake-client/pkg/solana"
)

func TestTransfer(t *testing.T) {
	keys := generateKeys(t, 3)

	instruction := Transfer(keys[0], keys[1], keys[2], 123456789)

	assert.Equal(t, byte(CommandTransfer), instruction.Data[0])
	assert.EqualValues(t, 123456789, binary.LittleEndian.Uint64(instruction.Data[1:]))

	assert.True(t, instruction.Accounts[0].IsWritable)
	assert.False(t, instruction.Accounts[0].IsSigner)
	assert.True(t, instruction.Accounts[1].IsWritable)
	assert.False(t, instruction.Accounts[1].IsSigner)
	assert.False(t, instruction.Accounts[2].IsWritable)
	assert.True(t, instruction.Accounts[2].IsSigner)

	decompiled, err := DecompileTransfer(solana.NewTransaction(keys[2], instruction).Message, 0)
	require.NoError(t, err)
	assert.Equal(t, keys[0], decompiled.Source)
	assert.Equal(t, keys[1], decompiled.Destination)
	assert.Equal(t, keys[2], decompiled.Owner)
	assert.EqualValues(t, 123456789, decompiled.Amount)
}

func TestDecompileTransfer_Invalid(t *testing.T) {
	keys := generateKeys(t, 3)

	instruction := Transfer(keys[0], keys[1], keys[2], 10)
	txn := solana.NewTransaction(keys[2], instruction)

	_, err := DecompileTransfer(txn.Message, 1)
	assert.Error(t, err)

	txn.Message.Instructions[0].Data = txn.Message.Instructions[0].Data[:5]
	_, err = DecompileTransfer(txn.Message, 0)
	assert.Error(t, err)

	instruction = Transfer(keys[0], keys[1], keys[2], 10)
	instruction.Program = keys[0]
	txn = solana.NewTransaction(keys[2], instruction)
	_, err = DecompileTransfer(txn.Message, 0)
	assert.Equal(t, solana.ErrIncorrectProgram, err)
}

func TestGetCommand(t *testing.T) {
	keys := generateKeys(t, 3)

	txn := solana.NewTransaction(keys[2], Transfer(keys[0], keys[1], keys[2], 10))

	command, err := GetCommand(txn.Message, 0)
	require.NoError(t, err)
	assert.Equal(t, CommandTransfer, command)

	_, err = GetCommand(txn.Message, 1)
	assert.Error(t, err)
}

func generateKeys(t *testing.T, amount int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, amount)

	for i := 0; i < amount; i++ {
		pub, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)

		keys[i] = pub
	}

	return keys
}
