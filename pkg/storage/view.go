package storage

import (
	"github.com/iotaledger/hive.go/lo"

	"github.com/exonum/cryptocurrency/pkg/authmap"
	"github.com/exonum/cryptocurrency/pkg/core/types"
	"github.com/exonum/cryptocurrency/pkg/model"
)

// Snapshot is an immutable point-in-time view of the store as of the last
// commit. It never observes in-progress fork mutations.
type Snapshot struct {
	store          *Store
	roots          map[model.TableKey]types.Hash
	aggregatorRoot types.Hash
	latest         *committedBlock
}

// Table returns a read-only handle to the authenticated table, rooted at the
// table's committed root. An unregistered table reads as empty.
func (s *Snapshot) Table(key model.TableKey) (*authmap.Tree, error) {
	return authmap.Import(s.store.tableStore(key), s.roots[key]), nil
}

// TableRoot returns the committed root of the given table.
func (s *Snapshot) TableRoot(key model.TableKey) types.Hash {
	return s.roots[key]
}

// StateRoot returns the root of the state aggregator, i.e. the state hash
// certified by the latest block header.
func (s *Snapshot) StateRoot() types.Hash {
	return s.aggregatorRoot
}

// StateProof proves that the table registered under key contributes its root
// to the aggregated state commitment.
func (s *Snapshot) StateProof(key model.TableKey) (*authmap.Proof, error) {
	aggregator := authmap.Import(s.store.aggregatorStore(), s.aggregatorRoot)

	return aggregator.Prove(lo.PanicOnErr(key.Bytes()))
}

// LatestBlock returns the highest committed block header together with its
// quorum certificate.
func (s *Snapshot) LatestBlock() (model.BlockHeader, []model.Precommit, error) {
	if s.latest == nil {
		return model.BlockHeader{}, nil, ErrNoCommittedBlock
	}

	return s.latest.header, s.latest.precommits, nil
}

// Fork is the one mutable view a block is built against. Reads see the
// committed state plus the fork's own writes; nothing leaks out before
// CommitBlock.
type Fork struct {
	store  *Store
	roots  map[model.TableKey]types.Hash
	tables map[model.TableKey]*authmap.Tree
}

// Table returns the mutable handle for the given table. Opening a table
// registers it with the fork, so its root is folded into the state
// aggregator on commit even if it was never written to.
func (f *Fork) Table(key model.TableKey) (*authmap.Tree, error) {
	if tree, exists := f.tables[key]; exists {
		return tree, nil
	}

	tree := authmap.Import(f.store.tableStore(key), f.roots[key])
	f.tables[key] = tree

	return tree, nil
}

var (
	_ View = (*Snapshot)(nil)
	_ View = (*Fork)(nil)
)
