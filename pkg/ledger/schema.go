package ledger

import (
	"github.com/iotaledger/hive.go/crypto/ed25519"
	"github.com/iotaledger/hive.go/ierrors"

	"github.com/exonum/cryptocurrency/pkg/authmap"
	"github.com/exonum/cryptocurrency/pkg/core/types"
	"github.com/exonum/cryptocurrency/pkg/model"
	"github.com/exonum/cryptocurrency/pkg/storage"
)

const (
	// ServiceID identifies this service inside the shared store and in the
	// transaction discriminant tag.
	ServiceID uint16 = 1

	// AccountsTableID is the ledger's single table.
	AccountsTableID uint16 = 0

	// InitialBalance is credited to every newly created account.
	InitialBalance uint64 = 100
)

// AccountsTableKey returns the state-commitment key of the accounts table.
func AccountsTableKey() model.TableKey {
	return model.TableKey{ServiceID: ServiceID, TableID: AccountsTableID}
}

// Schema maps the ledger's logical tables onto the authenticated store. It
// performs no locking of its own: isolation comes from the snapshot/fork
// discipline of the view it wraps.
type Schema struct {
	view storage.View
}

func NewSchema(view storage.View) *Schema {
	return &Schema{view: view}
}

// Accounts returns the authenticated accounts table of the wrapped view,
// read-only for snapshots and mutable for forks.
func (s *Schema) Accounts() (*authmap.Tree, error) {
	return s.view.Table(AccountsTableKey())
}

// Account looks up a single account by its owner key.
func (s *Schema) Account(owner ed25519.PublicKey) (model.Account, bool, error) {
	accounts, err := s.Accounts()
	if err != nil {
		return model.Account{}, false, err
	}

	value, exists, err := accounts.Get(owner[:])
	if err != nil || !exists {
		return model.Account{}, false, err
	}

	account, _, err := model.AccountFromBytes(value)
	if err != nil {
		return model.Account{}, false, ierrors.Wrap(err, "failed to decode stored account")
	}

	return account, true, nil
}

func (s *Schema) putAccount(account model.Account) error {
	accounts, err := s.Accounts()
	if err != nil {
		return err
	}

	bytes, err := account.Bytes()
	if err != nil {
		return err
	}

	return accounts.Set(account.Owner[:], bytes)
}

// StateCommitment returns the ordered list of root hashes this service
// contributes to the block's state commitment; exactly one entry, the
// accounts table root.
func (s *Schema) StateCommitment() ([]types.Hash, error) {
	accounts, err := s.Accounts()
	if err != nil {
		return nil, err
	}

	return []types.Hash{accounts.Root()}, nil
}
