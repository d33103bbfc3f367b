// Package proof composes the three-layer authenticated response for account
// queries: the committed block header with its quorum certificate, the proof
// that the service's table root is part of the block's state commitment, and
// the map proof tying the requested account (or its absence) to that root.
package proof

import (
	"encoding/hex"
	"encoding/json"

	"github.com/iotaledger/hive.go/crypto/ed25519"
	"github.com/iotaledger/hive.go/ierrors"

	"github.com/exonum/cryptocurrency/pkg/authmap"
	"github.com/exonum/cryptocurrency/pkg/core/types"
	"github.com/exonum/cryptocurrency/pkg/ledger"
	"github.com/exonum/cryptocurrency/pkg/model"
	"github.com/exonum/cryptocurrency/pkg/storage"
)

// Bundle is the self-contained query response. It is derived fresh from one
// snapshot per request and carries no validation logic of its own;
// verification is the consumer's job.
type Bundle struct {
	Height        uint64            `json:"height"`
	PrevHash      types.Hash        `json:"prev_hash"`
	SchemaVersion uint16            `json:"schema_version"`
	ProposerID    uint16            `json:"proposer_id"`
	TxCount       uint32            `json:"tx_count"`
	TxHash        types.Hash        `json:"tx_hash"`
	Precommits    []model.Precommit `json:"precommits"`
	State         StateView         `json:"state"`

	// Header is the full header the precommits certify, including the state
	// hash the state proof verifies against. It is not serialized; the wire
	// representation exposes exactly the fields above.
	Header model.BlockHeader `json:"-"`
}

// StateView proves that the table addressed by the embedded key contributes
// its root to the block's state commitment.
type StateView struct {
	Proof   *authmap.Proof `json:"proof"`
	Entries []TableEntry   `json:"entries"`
}

type TableEntry struct {
	Key   model.TableKey `json:"key"`
	Value MapView        `json:"value"`
}

// MapView is the innermost layer: the accounts-table map proof plus the
// matching key/value pair, or no entries at all when the key is absent. An
// absence proof is still a valid, verifiable artifact.
type MapView struct {
	Proof   *authmap.Proof `json:"proof"`
	Entries []AccountEntry `json:"entries"`
}

type AccountEntry struct {
	Key   ed25519.PublicKey
	Value model.Account
}

func (e AccountEntry) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Key   string        `json:"key"`
		Value model.Account `json:"value"`
	}{
		Key:   hex.EncodeToString(e.Key[:]),
		Value: e.Value,
	})
}

// Build composes the bundle for the given account key against one snapshot.
// The snapshot is never mutated; all three layers are derived bottom-up in a
// single pass.
func Build(snapshot *storage.Snapshot, tableKey model.TableKey, accountKey ed25519.PublicKey) (*Bundle, error) {
	header, precommits, err := snapshot.LatestBlock()
	if err != nil {
		// Unreachable once genesis has been committed.
		return nil, ierrors.Wrap(err, "proof requested on a chain without committed blocks")
	}

	stateProof, err := snapshot.StateProof(tableKey)
	if err != nil {
		return nil, ierrors.Wrap(err, "failed to prove state commitment entry")
	}

	schema := ledger.NewSchema(snapshot)
	accounts, err := schema.Accounts()
	if err != nil {
		return nil, err
	}

	mapProof, err := accounts.Prove(accountKey[:])
	if err != nil {
		return nil, ierrors.Wrap(err, "failed to prove account entry")
	}

	mapView := MapView{Proof: mapProof, Entries: []AccountEntry{}}
	if account, exists, err := schema.Account(accountKey); err != nil {
		return nil, err
	} else if exists {
		mapView.Entries = append(mapView.Entries, AccountEntry{Key: accountKey, Value: account})
	}

	return &Bundle{
		Height:        header.Height,
		PrevHash:      header.PrevHash,
		SchemaVersion: header.SchemaVersion,
		ProposerID:    header.ProposerID,
		TxCount:       header.TxCount,
		TxHash:        header.TxHash,
		Precommits:    precommits,
		State: StateView{
			Proof: stateProof,
			// The embedded key is the key the map proof was generated
			// against; that pairing is what makes the bundle meaningful.
			Entries: []TableEntry{{Key: tableKey, Value: mapView}},
		},
		Header: header,
	}, nil
}
