package storage

import (
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/kvstore"
	"github.com/iotaledger/hive.go/lo"
	"github.com/iotaledger/hive.go/core/marshalutil"

	"github.com/exonum/cryptocurrency/pkg/model"
)

const (
	prefixBlockHeader byte = iota
	prefixBlockPrecommits
)

var latestHeightKey = []byte("latest")

// blockIndex persists committed block headers and their quorum certificates,
// keyed by height, plus a pointer to the highest committed height.
type blockIndex struct {
	kv kvstore.KVStore
}

func newBlockIndex(kv kvstore.KVStore) *blockIndex {
	return &blockIndex{kv: lo.PanicOnErr(kv.WithExtendedRealm(kvstore.Realm{prefixBlocks}))}
}

func (b *blockIndex) Push(header model.BlockHeader, precommits []model.Precommit) error {
	heightKey := heightToKey(header.Height)

	if err := b.kv.Set(append([]byte{prefixBlockHeader}, heightKey...), lo.PanicOnErr(header.Bytes())); err != nil {
		return ierrors.Wrap(err, "failed to store block header")
	}

	m := marshalutil.New()
	m.WriteUint32(uint32(len(precommits)))
	for _, precommit := range precommits {
		m.WriteBytes(lo.PanicOnErr(precommit.Bytes()))
	}
	if err := b.kv.Set(append([]byte{prefixBlockPrecommits}, heightKey...), m.Bytes()); err != nil {
		return ierrors.Wrap(err, "failed to store block precommits")
	}

	return b.kv.Set(latestHeightKey, heightKey)
}

// Latest returns the block at the highest committed height, or
// ErrNoCommittedBlock before genesis.
func (b *blockIndex) Latest() (*committedBlock, error) {
	heightKey, err := b.kv.Get(latestHeightKey)
	if err != nil {
		if ierrors.Is(err, kvstore.ErrKeyNotFound) {
			return nil, ErrNoCommittedBlock
		}

		return nil, err
	}

	headerBytes, err := b.kv.Get(append([]byte{prefixBlockHeader}, heightKey...))
	if err != nil {
		return nil, ierrors.Wrap(err, "failed to load block header")
	}
	header, _, err := model.BlockHeaderFromBytes(headerBytes)
	if err != nil {
		return nil, err
	}

	precommitsBytes, err := b.kv.Get(append([]byte{prefixBlockPrecommits}, heightKey...))
	if err != nil {
		return nil, ierrors.Wrap(err, "failed to load block precommits")
	}
	m := marshalutil.New(precommitsBytes)
	count, err := m.ReadUint32()
	if err != nil {
		return nil, ierrors.Wrap(err, "failed to parse precommit count")
	}
	precommits := make([]model.Precommit, 0, count)
	for i := uint32(0); i < count; i++ {
		precommitBytes, err := m.ReadBytes(model.PrecommitSize)
		if err != nil {
			return nil, ierrors.Wrap(err, "failed to parse precommits")
		}
		precommit, _, err := model.PrecommitFromBytes(precommitBytes)
		if err != nil {
			return nil, err
		}
		precommits = append(precommits, precommit)
	}

	return &committedBlock{header: header, precommits: precommits}, nil
}

func heightToKey(height uint64) []byte {
	m := marshalutil.New(8)
	m.WriteUint64(height)

	return m.Bytes()
}
