package storage

import (
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/kvstore"
	"github.com/iotaledger/hive.go/lo"
	"github.com/iotaledger/hive.go/runtime/syncutils"

	"github.com/exonum/cryptocurrency/pkg/authmap"
	"github.com/exonum/cryptocurrency/pkg/core/types"
	"github.com/exonum/cryptocurrency/pkg/model"
)

const (
	prefixTables byte = iota
	prefixAggregator
	prefixRoots
	prefixBlocks
)

var (
	// ErrNoCommittedBlock is returned when the block index is read before
	// genesis was committed. Once genesis exists this is unreachable.
	ErrNoCommittedBlock = ierrors.New("no committed block")

	aggregatorRootKey = []byte("aggregator")
)

// View is read access to the namespaced authenticated tables of the store.
// Snapshot implements it over committed state, Fork over one isolated
// mutable overlay.
type View interface {
	// Table returns the authenticated map registered under the given key.
	Table(key model.TableKey) (*authmap.Tree, error)
}

// Store owns the physical key-value store and enforces the snapshot/fork
// discipline: any number of concurrent snapshots, one fork writer, commits
// atomic under the write lock.
type Store struct {
	kv kvstore.KVStore

	mutex          syncutils.RWMutex
	roots          map[model.TableKey]types.Hash
	aggregatorRoot types.Hash
	latest         *committedBlock
}

type committedBlock struct {
	header     model.BlockHeader
	precommits []model.Precommit
}

// New opens a store on top of the given physical key-value store and
// restores the committed roots and the latest block from it.
func New(kv kvstore.KVStore) (*Store, error) {
	store := &Store{
		kv:    kv,
		roots: make(map[model.TableKey]types.Hash),
	}

	if err := store.restore(); err != nil {
		return nil, ierrors.Wrap(err, "failed to restore store state")
	}

	return store, nil
}

func (s *Store) restore() error {
	rootsStore := lo.PanicOnErr(s.kv.WithExtendedRealm(kvstore.Realm{prefixRoots}))

	aggregatorRoot, err := rootsStore.Get(aggregatorRootKey)
	if err != nil {
		if ierrors.Is(err, kvstore.ErrKeyNotFound) {
			return nil
		}

		return err
	}
	if s.aggregatorRoot, _, err = types.HashFromBytes(aggregatorRoot); err != nil {
		return err
	}

	if err := rootsStore.Iterate(kvstore.EmptyPrefix, func(key kvstore.Key, value kvstore.Value) bool {
		if len(key) != 4 {
			return true
		}
		tableKey, _, err := model.TableKeyFromBytes(key)
		if err != nil {
			return true
		}
		s.roots[tableKey] = types.Hash(value)

		return true
	}); err != nil {
		return err
	}

	latest, err := newBlockIndex(s.kv).Latest()
	if err != nil && !ierrors.Is(err, ErrNoCommittedBlock) {
		return err
	}
	s.latest = latest

	return nil
}

func (s *Store) tableStore(key model.TableKey) kvstore.KVStore {
	return lo.PanicOnErr(s.kv.WithExtendedRealm(append(kvstore.Realm{prefixTables}, lo.PanicOnErr(key.Bytes())...)))
}

func (s *Store) aggregatorStore() kvstore.KVStore {
	return lo.PanicOnErr(s.kv.WithExtendedRealm(kvstore.Realm{prefixAggregator}))
}

func (s *Store) rootsStore() kvstore.KVStore {
	return lo.PanicOnErr(s.kv.WithExtendedRealm(kvstore.Realm{prefixRoots}))
}

// Snapshot returns a frozen view of the store as of the last commit.
// Snapshots may be taken and read concurrently while a fork is being built.
func (s *Store) Snapshot() *Snapshot {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	roots := make(map[model.TableKey]types.Hash, len(s.roots))
	for key, root := range s.roots {
		roots[key] = root
	}

	return &Snapshot{
		store:          s,
		roots:          roots,
		aggregatorRoot: s.aggregatorRoot,
		latest:         s.latest,
	}
}

// Fork returns an isolated mutable view. Mutations stay invisible to
// snapshots until the fork is committed. The caller must guarantee a single
// writer; the ordering collaborator does so structurally.
func (s *Store) Fork() *Fork {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	roots := make(map[model.TableKey]types.Hash, len(s.roots))
	for key, root := range s.roots {
		roots[key] = root
	}

	return &Fork{
		store:  s,
		roots:  roots,
		tables: make(map[model.TableKey]*authmap.Tree),
	}
}

// SealFunc receives the state hash that results from applying a fork and
// returns the signed header and its quorum certificate.
type SealFunc func(stateHash types.Hash) (model.BlockHeader, []model.Precommit, error)

// CommitBlock atomically applies the fork, folds the new table roots into
// the state aggregator, lets the caller seal the block over the resulting
// state hash and persists the block. Either everything becomes visible or
// nothing does.
func (s *Store) CommitBlock(fork *Fork, seal SealFunc) (model.BlockHeader, error) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	aggregator := authmap.Import(s.aggregatorStore(), s.aggregatorRoot)
	rootsStore := s.rootsStore()

	newRoots := make(map[model.TableKey]types.Hash, len(fork.tables))
	for tableKey, tree := range fork.tables {
		if err := tree.Commit(); err != nil {
			return model.BlockHeader{}, ierrors.Wrapf(err, "failed to commit table %d/%d", tableKey.ServiceID, tableKey.TableID)
		}

		root := tree.Root()
		newRoots[tableKey] = root

		keyBytes := lo.PanicOnErr(tableKey.Bytes())
		if err := aggregator.Set(keyBytes, root[:]); err != nil {
			return model.BlockHeader{}, ierrors.Wrap(err, "failed to update state aggregator")
		}
		if err := rootsStore.Set(keyBytes, root[:]); err != nil {
			return model.BlockHeader{}, ierrors.Wrap(err, "failed to persist table root")
		}
	}

	if err := aggregator.Commit(); err != nil {
		return model.BlockHeader{}, ierrors.Wrap(err, "failed to commit state aggregator")
	}
	stateHash := aggregator.Root()
	if err := rootsStore.Set(aggregatorRootKey, stateHash[:]); err != nil {
		return model.BlockHeader{}, ierrors.Wrap(err, "failed to persist aggregator root")
	}

	header, precommits, err := seal(stateHash)
	if err != nil {
		return model.BlockHeader{}, ierrors.Wrap(err, "failed to seal block")
	}

	if err := newBlockIndex(s.kv).Push(header, precommits); err != nil {
		return model.BlockHeader{}, ierrors.Wrap(err, "failed to persist block")
	}

	for tableKey, root := range newRoots {
		s.roots[tableKey] = root
	}
	s.aggregatorRoot = stateHash
	s.latest = &committedBlock{header: header, precommits: precommits}

	return header, nil
}

func (s *Store) Close() error {
	if err := s.kv.Flush(); err != nil {
		return err
	}

	return s.kv.Close()
}
