package blockchain

import (
	"github.com/iotaledger/hive.go/runtime/event"

	"github.com/exonum/cryptocurrency/pkg/core/types"
	"github.com/exonum/cryptocurrency/pkg/model"
)

// Events exposes the observable happenings of the ordering collaborator.
type Events struct {
	// TransactionAccepted fires when a verified transaction enters the
	// submission pipeline.
	TransactionAccepted *event.Event1[types.Hash]

	// BlockCommitted fires after a block and its quorum certificate became
	// visible to snapshots.
	BlockCommitted *event.Event1[*model.BlockHeader]
}

func newEvents() *Events {
	return &Events{
		TransactionAccepted: event.New1[types.Hash](),
		BlockCommitted:      event.New1[*model.BlockHeader](),
	}
}
