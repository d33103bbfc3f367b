package model

import (
	"encoding/hex"
	"encoding/json"

	"github.com/iotaledger/hive.go/crypto/ed25519"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/core/marshalutil"

	"github.com/exonum/cryptocurrency/pkg/core/types"
)

// SchemaVersion is bumped whenever the binary layout of headers, accounts or
// transactions changes.
const SchemaVersion uint16 = 0

// TableKey addresses one authenticated table inside the aggregated state
// commitment. Multiple services share one physical store; the pair keeps
// their tables apart.
type TableKey struct {
	ServiceID uint16 `json:"service_id"`
	TableID   uint16 `json:"table_id"`
}

func (k TableKey) Bytes() ([]byte, error) {
	m := marshalutil.New(4)
	m.WriteUint16(k.ServiceID)
	m.WriteUint16(k.TableID)

	return m.Bytes(), nil
}

func TableKeyFromBytes(bytes []byte) (TableKey, int, error) {
	var key TableKey
	var err error

	m := marshalutil.New(bytes)
	if key.ServiceID, err = m.ReadUint16(); err != nil {
		return key, m.ReadOffset(), ierrors.Wrap(err, "failed to parse service id")
	}
	if key.TableID, err = m.ReadUint16(); err != nil {
		return key, m.ReadOffset(), ierrors.Wrap(err, "failed to parse table id")
	}

	return key, m.ReadOffset(), nil
}

// BlockHeader describes one committed block. StateHash is the root of the
// state aggregator after all transactions of the block were applied; it is
// covered by the header hash and therefore by every precommit signature.
type BlockHeader struct {
	Height        uint64
	PrevHash      types.Hash
	SchemaVersion uint16
	ProposerID    uint16
	TxCount       uint32
	TxHash        types.Hash
	StateHash     types.Hash
}

func (h BlockHeader) Bytes() ([]byte, error) {
	m := marshalutil.New()
	m.WriteUint64(h.Height)
	m.WriteBytes(h.PrevHash[:])
	m.WriteUint16(h.SchemaVersion)
	m.WriteUint16(h.ProposerID)
	m.WriteUint32(h.TxCount)
	m.WriteBytes(h.TxHash[:])
	m.WriteBytes(h.StateHash[:])

	return m.Bytes(), nil
}

func BlockHeaderFromBytes(bytes []byte) (BlockHeader, int, error) {
	var header BlockHeader
	var err error

	m := marshalutil.New(bytes)
	if header.Height, err = m.ReadUint64(); err != nil {
		return header, m.ReadOffset(), ierrors.Wrap(err, "failed to parse block height")
	}
	if header.PrevHash, err = readHash(m); err != nil {
		return header, m.ReadOffset(), ierrors.Wrap(err, "failed to parse previous block hash")
	}
	if header.SchemaVersion, err = m.ReadUint16(); err != nil {
		return header, m.ReadOffset(), ierrors.Wrap(err, "failed to parse schema version")
	}
	if header.ProposerID, err = m.ReadUint16(); err != nil {
		return header, m.ReadOffset(), ierrors.Wrap(err, "failed to parse proposer id")
	}
	if header.TxCount, err = m.ReadUint32(); err != nil {
		return header, m.ReadOffset(), ierrors.Wrap(err, "failed to parse transaction count")
	}
	if header.TxHash, err = readHash(m); err != nil {
		return header, m.ReadOffset(), ierrors.Wrap(err, "failed to parse transactions root")
	}
	if header.StateHash, err = readHash(m); err != nil {
		return header, m.ReadOffset(), ierrors.Wrap(err, "failed to parse state hash")
	}

	return header, m.ReadOffset(), nil
}

// Hash returns the digest precommits are signed over.
func (h BlockHeader) Hash() types.Hash {
	bytes, err := h.Bytes()
	if err != nil {
		panic(err)
	}

	return types.HashData(bytes)
}

// PrecommitSize is the fixed encoded size of a precommit.
const PrecommitSize = 2 + 8 + types.HashLength + ed25519.PublicKeySize + ed25519.SignatureSize

// Precommit is one validator's signed endorsement of a block header. A block
// is committed once it carries precommits from a quorum of validators; the
// full set forms the block's quorum certificate.
type Precommit struct {
	ValidatorID uint16
	Height      uint64
	BlockHash   types.Hash
	PublicKey   ed25519.PublicKey
	Signature   ed25519.Signature
}

// NewPrecommit signs the given block hash with the validator's private key.
func NewPrecommit(validatorID uint16, height uint64, blockHash types.Hash, keys ed25519.KeyPair) Precommit {
	precommit := Precommit{
		ValidatorID: validatorID,
		Height:      height,
		BlockHash:   blockHash,
		PublicKey:   keys.PublicKey,
	}
	precommit.Signature = keys.PrivateKey.Sign(precommit.signingMessage())

	return precommit
}

func (p Precommit) signingMessage() []byte {
	m := marshalutil.New()
	m.WriteUint16(p.ValidatorID)
	m.WriteUint64(p.Height)
	m.WriteBytes(p.BlockHash[:])

	return m.Bytes()
}

// Valid reports whether the signature matches the embedded public key.
func (p Precommit) Valid() bool {
	return ed25519.Verify(p.PublicKey[:], p.signingMessage(), p.Signature[:])
}

func (p Precommit) Bytes() ([]byte, error) {
	m := marshalutil.New()
	m.WriteUint16(p.ValidatorID)
	m.WriteUint64(p.Height)
	m.WriteBytes(p.BlockHash[:])
	m.WriteBytes(p.PublicKey[:])
	m.WriteBytes(p.Signature[:])

	return m.Bytes(), nil
}

func PrecommitFromBytes(bytes []byte) (Precommit, int, error) {
	var precommit Precommit
	var err error

	m := marshalutil.New(bytes)
	if precommit.ValidatorID, err = m.ReadUint16(); err != nil {
		return precommit, m.ReadOffset(), ierrors.Wrap(err, "failed to parse validator id")
	}
	if precommit.Height, err = m.ReadUint64(); err != nil {
		return precommit, m.ReadOffset(), ierrors.Wrap(err, "failed to parse precommit height")
	}
	if precommit.BlockHash, err = readHash(m); err != nil {
		return precommit, m.ReadOffset(), ierrors.Wrap(err, "failed to parse precommit block hash")
	}
	keyBytes, err := m.ReadBytes(ed25519.PublicKeySize)
	if err != nil {
		return precommit, m.ReadOffset(), ierrors.Wrap(err, "failed to parse precommit public key")
	}
	copy(precommit.PublicKey[:], keyBytes)
	signatureBytes, err := m.ReadBytes(ed25519.SignatureSize)
	if err != nil {
		return precommit, m.ReadOffset(), ierrors.Wrap(err, "failed to parse precommit signature")
	}
	copy(precommit.Signature[:], signatureBytes)

	return precommit, m.ReadOffset(), nil
}

func (p Precommit) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		ValidatorID uint16 `json:"validator_id"`
		Height      uint64 `json:"height"`
		BlockHash   string `json:"block_hash"`
		PubKey      string `json:"pub_key"`
		Signature   string `json:"signature"`
	}{
		ValidatorID: p.ValidatorID,
		Height:      p.Height,
		BlockHash:   p.BlockHash.Hex(),
		PubKey:      hex.EncodeToString(p.PublicKey[:]),
		Signature:   hex.EncodeToString(p.Signature[:]),
	})
}

func readHash(m *marshalutil.MarshalUtil) (types.Hash, error) {
	bytes, err := m.ReadBytes(types.HashLength)
	if err != nil {
		return types.EmptyHash, err
	}

	return types.Hash(bytes), nil
}
