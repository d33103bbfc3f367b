package authmap

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"

	"github.com/iotaledger/hive.go/ierrors"
	"github.com/pokt-network/smt"

	"github.com/exonum/cryptocurrency/pkg/core/types"
)

// Proof certifies the presence of a key-value pair, or the absence of a key,
// under a specific root hash. It is a response-time artifact: composed once,
// serialized, and checked by the consumer.
type Proof struct {
	proof *smt.SparseMerkleProof
}

// Verify checks the proof against the given root. For an absence proof the
// value must be nil.
func (p *Proof) Verify(root types.Hash, key []byte, value []byte) bool {
	spec := smt.NewTrieSpec(sha256.New(), false)

	valid, err := smt.VerifyProof(p.proof, root[:], key, value, &spec)

	return err == nil && valid
}

type proofJSON struct {
	SideNodes             []string `json:"side_nodes"`
	NonMembershipLeafData string   `json:"non_membership_leaf_data,omitempty"`
	SiblingData           string   `json:"sibling_data,omitempty"`
}

func (p *Proof) MarshalJSON() ([]byte, error) {
	encoded := proofJSON{
		SideNodes:             make([]string, 0, len(p.proof.SideNodes)),
		NonMembershipLeafData: hex.EncodeToString(p.proof.NonMembershipLeafData),
		SiblingData:           hex.EncodeToString(p.proof.SiblingData),
	}
	for _, sideNode := range p.proof.SideNodes {
		encoded.SideNodes = append(encoded.SideNodes, hex.EncodeToString(sideNode))
	}

	return json.Marshal(encoded)
}

func (p *Proof) UnmarshalJSON(data []byte) error {
	var encoded proofJSON
	if err := json.Unmarshal(data, &encoded); err != nil {
		return err
	}

	decoded := &smt.SparseMerkleProof{}
	for _, sideNode := range encoded.SideNodes {
		bytes, err := hex.DecodeString(sideNode)
		if err != nil {
			return ierrors.Wrap(err, "invalid side node encoding")
		}
		decoded.SideNodes = append(decoded.SideNodes, bytes)
	}

	var err error
	if encoded.NonMembershipLeafData != "" {
		if decoded.NonMembershipLeafData, err = hex.DecodeString(encoded.NonMembershipLeafData); err != nil {
			return ierrors.Wrap(err, "invalid non-membership leaf encoding")
		}
	}
	if encoded.SiblingData != "" {
		if decoded.SiblingData, err = hex.DecodeString(encoded.SiblingData); err != nil {
			return ierrors.Wrap(err, "invalid sibling data encoding")
		}
	}
	p.proof = decoded

	return nil
}
