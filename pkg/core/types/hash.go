package types

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/iotaledger/hive.go/ierrors"
)

const HashLength = 32

// Hash is a 32-byte SHA-256 digest. It is used for transaction identities,
// table roots and block hashes alike.
type Hash [HashLength]byte

var EmptyHash = Hash{}

// HashData returns the digest of the concatenation of the given byte slices.
func HashData(data ...[]byte) Hash {
	h := sha256.New()
	for _, d := range data {
		h.Write(d)
	}

	return Hash(h.Sum(nil))
}

func HashFromBytes(bytes []byte) (Hash, int, error) {
	var hash Hash
	if len(bytes) < HashLength {
		return hash, 0, ierrors.Errorf("invalid hash length: %d", len(bytes))
	}
	copy(hash[:], bytes)

	return hash, HashLength, nil
}

func HashFromHex(s string) (Hash, error) {
	bytes, err := hex.DecodeString(s)
	if err != nil {
		return EmptyHash, ierrors.Wrap(err, "invalid hex encoding")
	}
	if len(bytes) != HashLength {
		return EmptyHash, ierrors.Errorf("invalid hash length: %d", len(bytes))
	}

	return Hash(bytes), nil
}

func (h Hash) Bytes() ([]byte, error) {
	return h[:], nil
}

func (h Hash) Hex() string {
	return hex.EncodeToString(h[:])
}

func (h Hash) String() string {
	return h.Hex()
}

func (h Hash) Empty() bool {
	return h == EmptyHash
}

func (h Hash) MarshalText() ([]byte, error) {
	return []byte(h.Hex()), nil
}

func (h *Hash) UnmarshalText(text []byte) error {
	decoded, err := HashFromHex(string(text))
	if err != nil {
		return err
	}
	*h = decoded

	return nil
}
