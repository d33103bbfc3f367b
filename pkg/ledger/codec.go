package ledger

import (
	"github.com/iotaledger/hive.go/crypto/ed25519"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/core/marshalutil"

	"github.com/exonum/cryptocurrency/pkg/model"
)

// TransactionFromBytes decodes a wire-encoded transaction envelope. The
// discriminant tag selects between the two known kinds; anything else is
// rejected before the payload is even looked at.
func TransactionFromBytes(bytes []byte) (Transaction, int, error) {
	m := marshalutil.New(bytes)

	serviceID, err := m.ReadUint16()
	if err != nil {
		return nil, m.ReadOffset(), ierrors.Wrap(err, "failed to parse service id")
	}
	if serviceID != ServiceID {
		return nil, m.ReadOffset(), ierrors.Wrapf(ErrUnknownServiceID, "%d", serviceID)
	}

	kind, err := m.ReadUint16()
	if err != nil {
		return nil, m.ReadOffset(), ierrors.Wrap(err, "failed to parse transaction kind")
	}

	switch kind {
	case TxKindCreateAccount:
		return createAccountFromBytes(m)
	case TxKindTransfer:
		return transferFromBytes(m)
	default:
		return nil, m.ReadOffset(), ierrors.Wrapf(ErrUnknownTransaction, "%d", kind)
	}
}

func createAccountFromBytes(m *marshalutil.MarshalUtil) (*CreateAccount, int, error) {
	tx := &CreateAccount{}

	if err := readPublicKey(m, &tx.Owner); err != nil {
		return nil, m.ReadOffset(), ierrors.Wrap(err, "failed to parse owner key")
	}

	nameLength, err := m.ReadUint64()
	if err != nil {
		return nil, m.ReadOffset(), ierrors.Wrap(err, "failed to parse name length")
	}
	if nameLength > model.MaxAccountNameLength {
		return nil, m.ReadOffset(), model.ErrInvalidAccountName
	}
	nameBytes, err := m.ReadBytes(int(nameLength))
	if err != nil {
		return nil, m.ReadOffset(), ierrors.Wrap(err, "failed to parse name")
	}
	tx.Name = string(nameBytes)
	if err := model.ValidateAccountName(tx.Name); err != nil {
		return nil, m.ReadOffset(), err
	}

	if err := readSignature(m, &tx.Signature); err != nil {
		return nil, m.ReadOffset(), ierrors.Wrap(err, "failed to parse signature trailer")
	}

	return tx, m.ReadOffset(), nil
}

func transferFromBytes(m *marshalutil.MarshalUtil) (*Transfer, int, error) {
	tx := &Transfer{}
	var err error

	if err = readPublicKey(m, &tx.From); err != nil {
		return nil, m.ReadOffset(), ierrors.Wrap(err, "failed to parse sender key")
	}
	if err = readPublicKey(m, &tx.To); err != nil {
		return nil, m.ReadOffset(), ierrors.Wrap(err, "failed to parse receiver key")
	}
	if tx.Amount, err = m.ReadUint64(); err != nil {
		return nil, m.ReadOffset(), ierrors.Wrap(err, "failed to parse amount")
	}
	if tx.Nonce, err = m.ReadUint64(); err != nil {
		return nil, m.ReadOffset(), ierrors.Wrap(err, "failed to parse nonce")
	}

	if err = readSignature(m, &tx.Signature); err != nil {
		return nil, m.ReadOffset(), ierrors.Wrap(err, "failed to parse signature trailer")
	}

	return tx, m.ReadOffset(), nil
}

func readPublicKey(m *marshalutil.MarshalUtil, key *ed25519.PublicKey) error {
	bytes, err := m.ReadBytes(ed25519.PublicKeySize)
	if err != nil {
		return err
	}
	copy(key[:], bytes)

	return nil
}

func readSignature(m *marshalutil.MarshalUtil, signature *ed25519.Signature) error {
	bytes, err := m.ReadBytes(ed25519.SignatureSize)
	if err != nil {
		return err
	}
	copy(signature[:], bytes)

	return nil
}
