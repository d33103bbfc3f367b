package authmap

import (
	"crypto/sha256"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/kvstore"
	"github.com/pokt-network/smt"

	"github.com/exonum/cryptocurrency/pkg/core/types"
)

// Tree is an authenticated key-value map: a sparse Merkle trie whose node
// store is a realm of the backing physical store. Every mutation stays in
// memory until Commit flushes the new nodes; a Tree imported at a committed
// root therefore only ever observes committed state.
type Tree struct {
	nodes *nodeStore
	trie  *smt.SMT
}

// New opens an empty tree on top of the given store.
func New(store kvstore.KVStore) *Tree {
	nodes := &nodeStore{kv: store}

	return &Tree{
		nodes: nodes,
		trie:  smt.NewSparseMerkleTrie(nodes, sha256.New()),
	}
}

// Import opens the tree at a previously committed root. Importing the empty
// root yields an empty tree.
func Import(store kvstore.KVStore, root types.Hash) *Tree {
	if root.Empty() {
		return New(store)
	}

	nodes := &nodeStore{kv: store}

	return &Tree{
		nodes: nodes,
		trie:  smt.ImportSparseMerkleTrie(nodes, sha256.New(), root[:]),
	}
}

// Get returns the value stored under key, or exists=false if the key is
// absent. Values are never empty.
func (t *Tree) Get(key []byte) (value []byte, exists bool, err error) {
	value, err = t.trie.Get(key)
	if err != nil {
		return nil, false, ierrors.Wrap(err, "failed to read from authenticated map")
	}

	return value, len(value) > 0, nil
}

func (t *Tree) Set(key []byte, value []byte) error {
	return t.trie.Update(key, value)
}

// Root returns the current root hash, including uncommitted mutations.
func (t *Tree) Root() types.Hash {
	root := t.trie.Root()
	if len(root) == 0 {
		return types.EmptyHash
	}

	return types.Hash(root)
}

// Prove builds an inclusion proof for a present key or an absence proof for
// a missing one. Both verify against Root.
func (t *Tree) Prove(key []byte) (*Proof, error) {
	proof, err := t.trie.Prove(key)
	if err != nil {
		return nil, ierrors.Wrap(err, "failed to build map proof")
	}

	return &Proof{proof: proof}, nil
}

// Commit persists all in-memory trie nodes to the node store.
func (t *Tree) Commit() error {
	return t.trie.Commit()
}

// nodeStore adapts a hive.go KVStore to the trie's node storage interface.
// Trie nodes are content-addressed, so commits only ever add entries and
// readers at older roots stay consistent.
type nodeStore struct {
	kv kvstore.KVStore
}

func (n *nodeStore) Get(key []byte) ([]byte, error) {
	return n.kv.Get(key)
}

func (n *nodeStore) Set(key []byte, value []byte) error {
	return n.kv.Set(key, value)
}

func (n *nodeStore) Delete(key []byte) error {
	return n.kv.Delete(key)
}

func (n *nodeStore) Len() int {
	var count int
	_ = n.kv.IterateKeys(kvstore.EmptyPrefix, func(kvstore.Key) bool {
		count++

		return true
	})

	return count
}

func (n *nodeStore) ClearAll() error {
	return n.kv.Clear()
}
