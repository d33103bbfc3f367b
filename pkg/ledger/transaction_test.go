package ledger

import (
	"testing"

	"github.com/iotaledger/hive.go/crypto/ed25519"
	"github.com/iotaledger/hive.go/kvstore/mapdb"
	"github.com/stretchr/testify/require"

	"github.com/exonum/cryptocurrency/pkg/storage"
)

func newTestFork(t *testing.T) *storage.Fork {
	t.Helper()

	store, err := storage.New(mapdb.NewMapDB())
	require.NoError(t, err)

	return store.Fork()
}

func requireBalance(t *testing.T, fork *storage.Fork, owner ed25519.PublicKey, balance uint64) {
	t.Helper()

	account, exists, err := NewSchema(fork).Account(owner)
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, balance, account.Balance)
}

func TestCreateAccountVerify(t *testing.T) {
	keys := ed25519.GenerateKeyPair()

	tx := NewSignedCreateAccount(keys, "alice")
	require.NoError(t, tx.Verify())

	// Any payload change invalidates the signature.
	tampered := NewCreateAccount(tx.Owner, "mallory", tx.Signature)
	require.ErrorIs(t, tampered.Verify(), ErrInvalidSignature)

	unsigned := NewCreateAccount(keys.PublicKey, "alice", ed25519.Signature{})
	require.ErrorIs(t, unsigned.Verify(), ErrInvalidSignature)
}

func TestTransferVerify(t *testing.T) {
	alice := ed25519.GenerateKeyPair()
	bob := ed25519.GenerateKeyPair()

	tx := NewSignedTransfer(alice, bob.PublicKey, 10, 0)
	require.NoError(t, tx.Verify())

	foreign := NewTransfer(bob.PublicKey, alice.PublicKey, 10, 0, tx.Signature)
	require.ErrorIs(t, foreign.Verify(), ErrInvalidSignature)

	selfTransfer := NewSignedTransfer(alice, alice.PublicKey, 10, 0)
	require.ErrorIs(t, selfTransfer.Verify(), ErrSelfTransfer)
}

func TestCreateAccountExecute(t *testing.T) {
	fork := newTestFork(t)
	keys := ed25519.GenerateKeyPair()

	require.NoError(t, NewSignedCreateAccount(keys, "alice").Execute(fork))
	requireBalance(t, fork, keys.PublicKey, InitialBalance)

	account, _, err := NewSchema(fork).Account(keys.PublicKey)
	require.NoError(t, err)
	require.Equal(t, "alice", account.Name)
	require.Equal(t, keys.PublicKey, account.Owner)
}

func TestCreateAccountIdempotent(t *testing.T) {
	fork := newTestFork(t)
	keys := ed25519.GenerateKeyPair()

	require.NoError(t, NewSignedCreateAccount(keys, "alice").Execute(fork))

	alice, _, err := NewSchema(fork).Account(keys.PublicKey)
	require.NoError(t, err)

	// The replayed creation changes neither name nor balance.
	require.NoError(t, NewSignedCreateAccount(keys, "alice-again").Execute(fork))
	replayed, _, err := NewSchema(fork).Account(keys.PublicKey)
	require.NoError(t, err)
	require.Equal(t, alice, replayed)
}

func TestTransferExecute(t *testing.T) {
	fork := newTestFork(t)
	alice := ed25519.GenerateKeyPair()
	bob := ed25519.GenerateKeyPair()

	require.NoError(t, NewSignedCreateAccount(alice, "alice").Execute(fork))
	require.NoError(t, NewSignedCreateAccount(bob, "bob").Execute(fork))
	requireBalance(t, fork, alice.PublicKey, 100)
	requireBalance(t, fork, bob.PublicKey, 100)

	require.NoError(t, NewSignedTransfer(alice, bob.PublicKey, 30, 0).Execute(fork))
	requireBalance(t, fork, alice.PublicKey, 70)
	requireBalance(t, fork, bob.PublicKey, 130)
}

func TestTransferNoOps(t *testing.T) {
	fork := newTestFork(t)
	alice := ed25519.GenerateKeyPair()
	bob := ed25519.GenerateKeyPair()
	carol := ed25519.GenerateKeyPair()

	require.NoError(t, NewSignedCreateAccount(alice, "alice").Execute(fork))
	require.NoError(t, NewSignedCreateAccount(bob, "bob").Execute(fork))

	// Overdraft is ordered but economically inert.
	require.NoError(t, NewSignedTransfer(alice, bob.PublicKey, 101, 0).Execute(fork))
	requireBalance(t, fork, alice.PublicKey, 100)
	requireBalance(t, fork, bob.PublicKey, 100)

	// Unknown sender.
	require.NoError(t, NewSignedTransfer(carol, bob.PublicKey, 10, 0).Execute(fork))
	requireBalance(t, fork, bob.PublicKey, 100)

	// Unknown receiver.
	require.NoError(t, NewSignedTransfer(alice, carol.PublicKey, 10, 0).Execute(fork))
	requireBalance(t, fork, alice.PublicKey, 100)

	_, exists, err := NewSchema(fork).Account(carol.PublicKey)
	require.NoError(t, err)
	require.False(t, exists)
}

func TestTransferConservation(t *testing.T) {
	fork := newTestFork(t)
	alice := ed25519.GenerateKeyPair()
	bob := ed25519.GenerateKeyPair()

	require.NoError(t, NewSignedCreateAccount(alice, "alice").Execute(fork))
	require.NoError(t, NewSignedCreateAccount(bob, "bob").Execute(fork))

	for nonce := uint64(0); nonce < 5; nonce++ {
		require.NoError(t, NewSignedTransfer(alice, bob.PublicKey, 13, nonce).Execute(fork))
	}

	schema := NewSchema(fork)
	aliceAccount, _, err := schema.Account(alice.PublicKey)
	require.NoError(t, err)
	bobAccount, _, err := schema.Account(bob.PublicKey)
	require.NoError(t, err)
	require.Equal(t, 2*InitialBalance, aliceAccount.Balance+bobAccount.Balance)
	require.EqualValues(t, 35, aliceAccount.Balance)
	require.EqualValues(t, 165, bobAccount.Balance)
}

func TestTransactionHashes(t *testing.T) {
	alice := ed25519.GenerateKeyPair()
	bob := ed25519.GenerateKeyPair()

	first := NewSignedTransfer(alice, bob.PublicKey, 10, 0)
	second := NewSignedTransfer(alice, bob.PublicKey, 10, 1)

	// The nonce separates otherwise identical transfers.
	require.NotEqual(t, first.Hash(), second.Hash())
	require.Equal(t, first.Hash(), NewTransfer(first.From, first.To, first.Amount, first.Nonce, first.Signature).Hash())
}
