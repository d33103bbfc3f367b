package ledger

import (
	"github.com/iotaledger/hive.go/crypto/ed25519"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/core/marshalutil"

	"github.com/exonum/cryptocurrency/pkg/core/types"
	"github.com/exonum/cryptocurrency/pkg/model"
	"github.com/exonum/cryptocurrency/pkg/storage"
)

// Transaction kind discriminants. The set is closed: decoding knows exactly
// these two kinds and rejects everything else.
const (
	TxKindCreateAccount uint16 = 1
	TxKindTransfer      uint16 = 2
)

var (
	ErrInvalidSignature   = ierrors.New("transaction signature does not verify against the signer key")
	ErrSelfTransfer       = ierrors.New("transfer to self is forbidden")
	ErrUnknownServiceID   = ierrors.New("unknown service id")
	ErrUnknownTransaction = ierrors.New("unknown transaction kind")
)

// Transaction is one signed operation against the ledger. Implementations
// are value-carrying envelopes; Execute applies the deterministic state
// transition against a fork and reports errors only for storage failures,
// never for semantic no-ops.
type Transaction interface {
	// Kind returns the discriminant of the operation.
	Kind() uint16
	// SignerKey returns the public key the signature must verify against.
	SignerKey() ed25519.PublicKey
	// Verify checks the envelope before it may be handed to the ordering
	// collaborator. Envelopes failing verification never reach execution.
	Verify() error
	// Execute applies the transaction to the fork in one atomic step.
	Execute(fork *storage.Fork) error
	// Bytes returns the full wire encoding including the signature trailer.
	Bytes() ([]byte, error)
	// Hash returns the content hash identifying the transaction.
	Hash() types.Hash
}

// CreateAccount opens a new account with a fixed initial balance. Replayed
// creations for an existing owner are deliberate no-ops, which makes the
// operation safe under accidental redelivery.
type CreateAccount struct {
	Owner     ed25519.PublicKey
	Name      string
	Signature ed25519.Signature
}

func NewCreateAccount(owner ed25519.PublicKey, name string, signature ed25519.Signature) *CreateAccount {
	return &CreateAccount{Owner: owner, Name: name, Signature: signature}
}

// NewSignedCreateAccount builds and signs a creation envelope with the
// owner's key pair.
func NewSignedCreateAccount(keys ed25519.KeyPair, name string) *CreateAccount {
	tx := &CreateAccount{Owner: keys.PublicKey, Name: name}
	tx.Signature = keys.PrivateKey.Sign(tx.payloadBytes())

	return tx
}

func (t *CreateAccount) Kind() uint16 {
	return TxKindCreateAccount
}

func (t *CreateAccount) SignerKey() ed25519.PublicKey {
	return t.Owner
}

func (t *CreateAccount) Verify() error {
	if !ed25519.Verify(t.Owner[:], t.payloadBytes(), t.Signature[:]) {
		return ErrInvalidSignature
	}

	return nil
}

func (t *CreateAccount) Execute(fork *storage.Fork) error {
	schema := NewSchema(fork)

	if _, exists, err := schema.Account(t.Owner); err != nil {
		return err
	} else if exists {
		// Duplicate creation changes nothing.
		return nil
	}

	return schema.putAccount(model.NewAccount(t.Owner, t.Name, InitialBalance))
}

func (t *CreateAccount) payloadBytes() []byte {
	m := marshalutil.New()
	m.WriteUint16(ServiceID)
	m.WriteUint16(TxKindCreateAccount)
	m.WriteBytes(t.Owner[:])
	m.WriteUint64(uint64(len(t.Name)))
	m.WriteBytes([]byte(t.Name))

	return m.Bytes()
}

func (t *CreateAccount) Bytes() ([]byte, error) {
	m := marshalutil.New()
	m.WriteBytes(t.payloadBytes())
	m.WriteBytes(t.Signature[:])

	return m.Bytes(), nil
}

func (t *CreateAccount) Hash() types.Hash {
	bytes, _ := t.Bytes()

	return types.HashData(bytes)
}

// Transfer moves amount from one account to another. The nonce only makes
// otherwise identical transfers produce distinct hashes; it carries no
// replay protection. Transfers referencing unknown accounts or exceeding the
// sender's balance are accepted but executed as no-ops.
type Transfer struct {
	From      ed25519.PublicKey
	To        ed25519.PublicKey
	Amount    uint64
	Nonce     uint64
	Signature ed25519.Signature
}

func NewTransfer(from ed25519.PublicKey, to ed25519.PublicKey, amount uint64, nonce uint64, signature ed25519.Signature) *Transfer {
	return &Transfer{From: from, To: to, Amount: amount, Nonce: nonce, Signature: signature}
}

// NewSignedTransfer builds and signs a transfer envelope with the sender's
// key pair.
func NewSignedTransfer(keys ed25519.KeyPair, to ed25519.PublicKey, amount uint64, nonce uint64) *Transfer {
	tx := &Transfer{From: keys.PublicKey, To: to, Amount: amount, Nonce: nonce}
	tx.Signature = keys.PrivateKey.Sign(tx.payloadBytes())

	return tx
}

func (t *Transfer) Kind() uint16 {
	return TxKindTransfer
}

func (t *Transfer) SignerKey() ed25519.PublicKey {
	return t.From
}

func (t *Transfer) Verify() error {
	if t.From == t.To {
		return ErrSelfTransfer
	}
	if !ed25519.Verify(t.From[:], t.payloadBytes(), t.Signature[:]) {
		return ErrInvalidSignature
	}

	return nil
}

func (t *Transfer) Execute(fork *storage.Fork) error {
	schema := NewSchema(fork)

	sender, senderExists, err := schema.Account(t.From)
	if err != nil {
		return err
	}
	receiver, receiverExists, err := schema.Account(t.To)
	if err != nil {
		return err
	}

	// Unknown accounts and insufficient balance are economically inert: the
	// transaction stays ordered but changes nothing.
	if !senderExists || !receiverExists || sender.Balance < t.Amount {
		return nil
	}

	if err := schema.putAccount(sender.Decreased(t.Amount)); err != nil {
		return err
	}

	return schema.putAccount(receiver.Increased(t.Amount))
}

func (t *Transfer) payloadBytes() []byte {
	m := marshalutil.New()
	m.WriteUint16(ServiceID)
	m.WriteUint16(TxKindTransfer)
	m.WriteBytes(t.From[:])
	m.WriteBytes(t.To[:])
	m.WriteUint64(t.Amount)
	m.WriteUint64(t.Nonce)

	return m.Bytes()
}

func (t *Transfer) Bytes() ([]byte, error) {
	m := marshalutil.New()
	m.WriteBytes(t.payloadBytes())
	m.WriteBytes(t.Signature[:])

	return m.Bytes(), nil
}

func (t *Transfer) Hash() types.Hash {
	bytes, _ := t.Bytes()

	return types.HashData(bytes)
}
