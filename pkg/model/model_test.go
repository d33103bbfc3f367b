package model

import (
	"encoding/hex"
	"strings"
	"testing"

	"github.com/iotaledger/hive.go/crypto/ed25519"
	"github.com/stretchr/testify/require"

	"github.com/exonum/cryptocurrency/pkg/core/types"
)

func TestAccountCodec(t *testing.T) {
	keys := ed25519.GenerateKeyPair()
	account := NewAccount(keys.PublicKey, "alice", 100)

	encoded, err := account.Bytes()
	require.NoError(t, err)

	decoded, consumed, err := AccountFromBytes(encoded)
	require.NoError(t, err)
	require.Equal(t, len(encoded), consumed)
	require.Equal(t, account, decoded)
}

func TestAccountBalanceArithmetic(t *testing.T) {
	account := NewAccount(ed25519.GenerateKeyPair().PublicKey, "alice", 100)

	require.EqualValues(t, 130, account.Increased(30).Balance)
	require.EqualValues(t, 70, account.Decreased(30).Balance)

	// The original stays untouched; accounts are value types.
	require.EqualValues(t, 100, account.Balance)
}

func TestValidateAccountName(t *testing.T) {
	require.NoError(t, ValidateAccountName("alice"))
	require.NoError(t, ValidateAccountName(strings.Repeat("a", MaxAccountNameLength)))

	require.ErrorIs(t, ValidateAccountName(""), ErrInvalidAccountName)
	require.ErrorIs(t, ValidateAccountName(strings.Repeat("a", MaxAccountNameLength+1)), ErrInvalidAccountName)
	require.ErrorIs(t, ValidateAccountName(string([]byte{0xff, 0xfe})), ErrInvalidAccountName)
}

func TestPublicKeyFromHex(t *testing.T) {
	keys := ed25519.GenerateKeyPair()

	parsed, err := PublicKeyFromHex(hex.EncodeToString(keys.PublicKey[:]))
	require.NoError(t, err)
	require.Equal(t, keys.PublicKey, parsed)

	_, err = PublicKeyFromHex("zz")
	require.ErrorIs(t, err, ErrInvalidPublicKey)
	_, err = PublicKeyFromHex("abcd")
	require.ErrorIs(t, err, ErrInvalidPublicKey)
}

func TestBlockHeaderCodecAndHash(t *testing.T) {
	header := BlockHeader{
		Height:        7,
		PrevHash:      types.HashData([]byte("prev")),
		SchemaVersion: SchemaVersion,
		ProposerID:    3,
		TxCount:       2,
		TxHash:        types.HashData([]byte("txs")),
		StateHash:     types.HashData([]byte("state")),
	}

	encoded, err := header.Bytes()
	require.NoError(t, err)

	decoded, consumed, err := BlockHeaderFromBytes(encoded)
	require.NoError(t, err)
	require.Equal(t, len(encoded), consumed)
	require.Equal(t, header, decoded)
	require.Equal(t, header.Hash(), decoded.Hash())

	// The state hash is covered by the header hash.
	tampered := header
	tampered.StateHash = types.HashData([]byte("other"))
	require.NotEqual(t, header.Hash(), tampered.Hash())
}

func TestPrecommit(t *testing.T) {
	keys := ed25519.GenerateKeyPair()
	blockHash := types.HashData([]byte("block"))

	precommit := NewPrecommit(1, 7, blockHash, keys)
	require.True(t, precommit.Valid())

	encoded, err := precommit.Bytes()
	require.NoError(t, err)
	require.Len(t, encoded, PrecommitSize)

	decoded, consumed, err := PrecommitFromBytes(encoded)
	require.NoError(t, err)
	require.Equal(t, PrecommitSize, consumed)
	require.Equal(t, precommit, decoded)
	require.True(t, decoded.Valid())

	// A precommit for a different block does not verify.
	tampered := precommit
	tampered.BlockHash = types.HashData([]byte("other"))
	require.False(t, tampered.Valid())
}
