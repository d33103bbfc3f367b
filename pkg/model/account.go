package model

import (
	"encoding/hex"
	"encoding/json"
	"unicode/utf8"

	"github.com/iotaledger/hive.go/crypto/ed25519"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/core/marshalutil"
)

// MaxAccountNameLength bounds the display name of an account.
const MaxAccountNameLength = 255

var (
	ErrInvalidAccountName       = ierrors.New("account name is empty, too long or not valid UTF-8")
	ErrInvalidPublicKey         = ierrors.New("invalid public key")
	ErrInvalidSignatureEncoding = ierrors.New("invalid signature encoding")
)

// Account is one ledger account. Accounts are value types: every balance
// change replaces the stored record wholesale.
type Account struct {
	// Owner is the public key that identifies the account. It never changes.
	Owner ed25519.PublicKey
	// Name is the display name chosen at creation time.
	Name string
	// Balance is the current balance. Unsigned by construction, so an
	// underflow is a programming error rather than a silent wrap.
	Balance uint64
}

func NewAccount(owner ed25519.PublicKey, name string, balance uint64) Account {
	return Account{
		Owner:   owner,
		Name:    name,
		Balance: balance,
	}
}

// Increased returns a copy of the account with the balance raised by amount.
func (a Account) Increased(amount uint64) Account {
	return NewAccount(a.Owner, a.Name, a.Balance+amount)
}

// Decreased returns a copy of the account with the balance lowered by amount.
// The caller must have checked that the balance is sufficient.
func (a Account) Decreased(amount uint64) Account {
	return NewAccount(a.Owner, a.Name, a.Balance-amount)
}

func (a Account) Bytes() ([]byte, error) {
	m := marshalutil.New()
	m.WriteBytes(a.Owner[:])
	m.WriteUint16(uint16(len(a.Name)))
	m.WriteBytes([]byte(a.Name))
	m.WriteUint64(a.Balance)

	return m.Bytes(), nil
}

func AccountFromBytes(bytes []byte) (Account, int, error) {
	var account Account

	m := marshalutil.New(bytes)
	ownerBytes, err := m.ReadBytes(ed25519.PublicKeySize)
	if err != nil {
		return account, m.ReadOffset(), ierrors.Wrap(err, "failed to parse account owner")
	}
	copy(account.Owner[:], ownerBytes)

	nameLength, err := m.ReadUint16()
	if err != nil {
		return account, m.ReadOffset(), ierrors.Wrap(err, "failed to parse account name length")
	}
	nameBytes, err := m.ReadBytes(int(nameLength))
	if err != nil {
		return account, m.ReadOffset(), ierrors.Wrap(err, "failed to parse account name")
	}
	account.Name = string(nameBytes)

	if account.Balance, err = m.ReadUint64(); err != nil {
		return account, m.ReadOffset(), ierrors.Wrap(err, "failed to parse account balance")
	}

	return account, m.ReadOffset(), nil
}

// ValidateAccountName reports whether name satisfies the bounds imposed on
// display names.
func ValidateAccountName(name string) error {
	if len(name) == 0 || len(name) > MaxAccountNameLength || !utf8.ValidString(name) {
		return ErrInvalidAccountName
	}

	return nil
}

func (a Account) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		PubKey  string `json:"pub_key"`
		Name    string `json:"name"`
		Balance uint64 `json:"balance"`
	}{
		PubKey:  hex.EncodeToString(a.Owner[:]),
		Name:    a.Name,
		Balance: a.Balance,
	})
}

// PublicKeyFromHex decodes a hex-encoded ed25519 public key, checking the
// length before conversion.
func PublicKeyFromHex(s string) (ed25519.PublicKey, error) {
	var key ed25519.PublicKey

	bytes, err := hex.DecodeString(s)
	if err != nil {
		return key, ierrors.Wrapf(ErrInvalidPublicKey, "not valid hex: %s", err.Error())
	}
	if len(bytes) != ed25519.PublicKeySize {
		return key, ierrors.Wrapf(ErrInvalidPublicKey, "wrong length %d", len(bytes))
	}
	copy(key[:], bytes)

	return key, nil
}

// SignatureFromHex decodes a hex-encoded ed25519 signature, checking the
// length before conversion.
func SignatureFromHex(s string) (ed25519.Signature, error) {
	var signature ed25519.Signature

	bytes, err := hex.DecodeString(s)
	if err != nil {
		return signature, ierrors.Wrapf(ErrInvalidSignatureEncoding, "not valid hex: %s", err.Error())
	}
	if len(bytes) != ed25519.SignatureSize {
		return signature, ierrors.Wrapf(ErrInvalidSignatureEncoding, "wrong length %d", len(bytes))
	}
	copy(signature[:], bytes)

	return signature, nil
}
