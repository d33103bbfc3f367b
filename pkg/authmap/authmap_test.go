package authmap

import (
	"encoding/json"
	"testing"

	"github.com/iotaledger/hive.go/kvstore/mapdb"
	"github.com/stretchr/testify/require"

	"github.com/exonum/cryptocurrency/pkg/core/types"
)

func TestTreeRootEvolution(t *testing.T) {
	tree := New(mapdb.NewMapDB())
	require.Equal(t, types.EmptyHash, tree.Root())

	require.NoError(t, tree.Set([]byte("alice"), []byte("account-1")))
	rootAfterFirst := tree.Root()
	require.NotEqual(t, types.EmptyHash, rootAfterFirst)

	require.NoError(t, tree.Set([]byte("bob"), []byte("account-2")))
	require.NotEqual(t, rootAfterFirst, tree.Root())

	// Identical contents yield identical roots, regardless of backing store.
	other := New(mapdb.NewMapDB())
	require.NoError(t, other.Set([]byte("bob"), []byte("account-2")))
	require.NoError(t, other.Set([]byte("alice"), []byte("account-1")))
	require.Equal(t, tree.Root(), other.Root())
}

func TestTreeGet(t *testing.T) {
	tree := New(mapdb.NewMapDB())

	_, exists, err := tree.Get([]byte("missing"))
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, tree.Set([]byte("alice"), []byte("account-1")))

	value, exists, err := tree.Get([]byte("alice"))
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, []byte("account-1"), value)

	// Overwrites replace the value wholesale.
	require.NoError(t, tree.Set([]byte("alice"), []byte("account-1b")))
	value, exists, err = tree.Get([]byte("alice"))
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, []byte("account-1b"), value)
}

func TestTreeProofs(t *testing.T) {
	tree := New(mapdb.NewMapDB())
	require.NoError(t, tree.Set([]byte("alice"), []byte("account-1")))
	require.NoError(t, tree.Set([]byte("bob"), []byte("account-2")))

	root := tree.Root()

	inclusion, err := tree.Prove([]byte("alice"))
	require.NoError(t, err)
	require.True(t, inclusion.Verify(root, []byte("alice"), []byte("account-1")))

	// A proof binds the exact value and the exact root.
	require.False(t, inclusion.Verify(root, []byte("alice"), []byte("account-2")))
	require.False(t, inclusion.Verify(types.EmptyHash, []byte("alice"), []byte("account-1")))

	absence, err := tree.Prove([]byte("carol"))
	require.NoError(t, err)
	require.True(t, absence.Verify(root, []byte("carol"), nil))
	require.False(t, absence.Verify(root, []byte("carol"), []byte("account-3")))
}

func TestTreeCommitAndImport(t *testing.T) {
	store := mapdb.NewMapDB()

	tree := New(store)
	require.NoError(t, tree.Set([]byte("alice"), []byte("account-1")))
	require.NoError(t, tree.Commit())
	committedRoot := tree.Root()

	imported := Import(store, committedRoot)
	require.Equal(t, committedRoot, imported.Root())

	value, exists, err := imported.Get([]byte("alice"))
	require.NoError(t, err)
	require.True(t, exists)
	require.Equal(t, []byte("account-1"), value)

	// Later commits do not disturb readers pinned at the older root.
	require.NoError(t, imported.Set([]byte("bob"), []byte("account-2")))
	require.NoError(t, imported.Commit())

	pinned := Import(store, committedRoot)
	require.Equal(t, committedRoot, pinned.Root())
	_, exists, err = pinned.Get([]byte("bob"))
	require.NoError(t, err)
	require.False(t, exists)
}

func TestTreeImportEmptyRoot(t *testing.T) {
	tree := Import(mapdb.NewMapDB(), types.EmptyHash)
	require.Equal(t, types.EmptyHash, tree.Root())
}

func TestProofJSONRoundTrip(t *testing.T) {
	tree := New(mapdb.NewMapDB())
	require.NoError(t, tree.Set([]byte("alice"), []byte("account-1")))
	root := tree.Root()

	proof, err := tree.Prove([]byte("alice"))
	require.NoError(t, err)

	encoded, err := json.Marshal(proof)
	require.NoError(t, err)

	decoded := &Proof{}
	require.NoError(t, json.Unmarshal(encoded, decoded))
	require.True(t, decoded.Verify(root, []byte("alice"), []byte("account-1")))
}
