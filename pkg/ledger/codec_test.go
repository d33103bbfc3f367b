package ledger

import (
	"testing"

	"github.com/iotaledger/hive.go/crypto/ed25519"
	"github.com/stretchr/testify/require"

	"github.com/exonum/cryptocurrency/pkg/model"
)

func TestCreateAccountCodec(t *testing.T) {
	keys := ed25519.GenerateKeyPair()
	tx := NewSignedCreateAccount(keys, "alice")

	encoded, err := tx.Bytes()
	require.NoError(t, err)

	decoded, consumed, err := TransactionFromBytes(encoded)
	require.NoError(t, err)
	require.Equal(t, len(encoded), consumed)
	require.Equal(t, tx, decoded)
	require.Equal(t, tx.Hash(), decoded.Hash())
	require.NoError(t, decoded.Verify())
}

func TestTransferCodec(t *testing.T) {
	alice := ed25519.GenerateKeyPair()
	bob := ed25519.GenerateKeyPair()
	tx := NewSignedTransfer(alice, bob.PublicKey, 42, 7)

	encoded, err := tx.Bytes()
	require.NoError(t, err)

	decoded, consumed, err := TransactionFromBytes(encoded)
	require.NoError(t, err)
	require.Equal(t, len(encoded), consumed)
	require.Equal(t, tx, decoded)
	require.NoError(t, decoded.Verify())
}

func TestCodecRejectsUnknownServiceID(t *testing.T) {
	tx := NewSignedCreateAccount(ed25519.GenerateKeyPair(), "alice")
	encoded, err := tx.Bytes()
	require.NoError(t, err)

	encoded[0], encoded[1] = 0xff, 0xff
	_, _, err = TransactionFromBytes(encoded)
	require.ErrorIs(t, err, ErrUnknownServiceID)
}

func TestCodecRejectsUnknownKind(t *testing.T) {
	tx := NewSignedCreateAccount(ed25519.GenerateKeyPair(), "alice")
	encoded, err := tx.Bytes()
	require.NoError(t, err)

	encoded[2], encoded[3] = 0xff, 0xff
	_, _, err = TransactionFromBytes(encoded)
	require.ErrorIs(t, err, ErrUnknownTransaction)
}

func TestCodecRejectsTruncatedTrailer(t *testing.T) {
	tx := NewSignedTransfer(ed25519.GenerateKeyPair(), ed25519.GenerateKeyPair().PublicKey, 1, 0)
	encoded, err := tx.Bytes()
	require.NoError(t, err)

	_, _, err = TransactionFromBytes(encoded[:len(encoded)-1])
	require.Error(t, err)
}

func TestCodecRejectsOversizedName(t *testing.T) {
	// A name length beyond the cap must be rejected before any allocation.
	tx := NewSignedCreateAccount(ed25519.GenerateKeyPair(), "alice")
	encoded, err := tx.Bytes()
	require.NoError(t, err)

	// The name length sits right behind the tag and the owner key.
	lengthOffset := 2 + 2 + ed25519.PublicKeySize
	for i := 0; i < 8; i++ {
		encoded[lengthOffset+i] = 0xff
	}

	_, _, err = TransactionFromBytes(encoded)
	require.ErrorIs(t, err, model.ErrInvalidAccountName)
}
