package blockchain

import (
	"github.com/iotaledger/hive.go/app"
)

// ParametersBlockchain contains the definition of the parameters used by the
// blockchain component.
type ParametersBlockchain struct {
	// BlockInterval is the interval at which pending transactions are
	// committed into a new block.
	BlockInterval string `default:"1s" usage:"the interval at which pending transactions are committed into a new block"`

	// MaxBlockTransactions is the maximum number of transactions per block.
	MaxBlockTransactions int `default:"256" usage:"the maximum number of transactions per block"`

	// SubmissionBufferSize is the capacity of the transaction submission channel.
	SubmissionBufferSize int `default:"1024" usage:"the capacity of the transaction submission channel"`
}

var ParamsBlockchain = &ParametersBlockchain{}

var params = &app.ComponentParams{
	Params: map[string]any{
		"blockchain": ParamsBlockchain,
	},
}
