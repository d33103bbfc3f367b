package core

import (
	"github.com/labstack/echo/v4"

	"github.com/iotaledger/hive.go/ierrors"

	"github.com/exonum/cryptocurrency/pkg/core/types"
	"github.com/exonum/cryptocurrency/pkg/ledger"
	"github.com/exonum/cryptocurrency/pkg/model"
	"github.com/exonum/cryptocurrency/pkg/proof"
)

type createAccountRequest struct {
	PubKey    string `json:"pub_key"`
	Name      string `json:"name"`
	Signature string `json:"signature"`
}

type transferRequest struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Amount    uint64 `json:"amount"`
	Nonce     uint64 `json:"nonce"`
	Signature string `json:"signature"`
}

// TransactionResponse acknowledges acceptance of a transaction into the
// ordering pipeline. Acceptance does not imply execution effects.
type TransactionResponse struct {
	TxHash types.Hash `json:"tx_hash"`
}

func createAccount(c echo.Context) (*TransactionResponse, error) {
	request := &createAccountRequest{}
	if err := c.Bind(request); err != nil {
		return nil, ierrors.Wrapf(echo.ErrBadRequest, "invalid request, error: %s", err)
	}

	owner, err := model.PublicKeyFromHex(request.PubKey)
	if err != nil {
		return nil, ierrors.Wrapf(echo.ErrBadRequest, "invalid pub_key: %s", err)
	}
	if err := model.ValidateAccountName(request.Name); err != nil {
		return nil, ierrors.Wrapf(echo.ErrBadRequest, "invalid name: %s", err)
	}
	signature, err := model.SignatureFromHex(request.Signature)
	if err != nil {
		return nil, ierrors.Wrapf(echo.ErrBadRequest, "invalid signature: %s", err)
	}

	return submit(ledger.NewCreateAccount(owner, request.Name, signature))
}

func transfer(c echo.Context) (*TransactionResponse, error) {
	request := &transferRequest{}
	if err := c.Bind(request); err != nil {
		return nil, ierrors.Wrapf(echo.ErrBadRequest, "invalid request, error: %s", err)
	}

	from, err := model.PublicKeyFromHex(request.From)
	if err != nil {
		return nil, ierrors.Wrapf(echo.ErrBadRequest, "invalid from: %s", err)
	}
	to, err := model.PublicKeyFromHex(request.To)
	if err != nil {
		return nil, ierrors.Wrapf(echo.ErrBadRequest, "invalid to: %s", err)
	}
	signature, err := model.SignatureFromHex(request.Signature)
	if err != nil {
		return nil, ierrors.Wrapf(echo.ErrBadRequest, "invalid signature: %s", err)
	}

	return submit(ledger.NewTransfer(from, to, request.Amount, request.Nonce, signature))
}

func submit(tx ledger.Transaction) (*TransactionResponse, error) {
	txHash, err := deps.Blockchain.Submit(tx)
	if err != nil {
		switch {
		case ierrors.Is(err, ledger.ErrInvalidSignature), ierrors.Is(err, ledger.ErrSelfTransfer):
			return nil, ierrors.Wrapf(echo.ErrBadRequest, "transaction rejected: %s", err)
		default:
			return nil, ierrors.Wrapf(echo.ErrInternalServerError, "transaction not accepted: %s", err)
		}
	}

	return &TransactionResponse{TxHash: txHash}, nil
}

func accountInfo(c echo.Context) (*proof.Bundle, error) {
	owner, err := model.PublicKeyFromHex(c.Param(ParameterPubKey))
	if err != nil {
		return nil, ierrors.Wrapf(echo.ErrBadRequest, "invalid pub_key: %s", err)
	}

	bundle, err := proof.Build(deps.Blockchain.Store().Snapshot(), ledger.AccountsTableKey(), owner)
	if err != nil {
		return nil, ierrors.Wrapf(echo.ErrInternalServerError, "failed to build proof: %s", err)
	}

	return bundle, nil
}
