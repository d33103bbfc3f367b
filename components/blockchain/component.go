package blockchain

import (
	"context"
	"time"

	"go.uber.org/dig"

	"github.com/iotaledger/hive.go/app"
	"github.com/iotaledger/hive.go/kvstore/mapdb"

	"github.com/exonum/cryptocurrency/pkg/blockchain"
	"github.com/exonum/cryptocurrency/pkg/core/types"
	"github.com/exonum/cryptocurrency/pkg/daemon"
	"github.com/exonum/cryptocurrency/pkg/model"
	"github.com/exonum/cryptocurrency/pkg/storage"
)

func init() {
	Component = &app.Component{
		Name:      "Blockchain",
		DepsFunc:  func(cDeps dependencies) { deps = cDeps },
		Params:    params,
		Provide:   provide,
		Configure: configure,
		Run:       run,
	}
}

var (
	Component *app.Component
	deps      dependencies
)

type dependencies struct {
	dig.In

	Store      *storage.Store
	Blockchain *blockchain.Blockchain
}

func provide(c *dig.Container) error {
	if err := c.Provide(func() *storage.Store {
		// The ledger runs on an in-memory store; restart means resync.
		store, err := storage.New(mapdb.NewMapDB())
		if err != nil {
			Component.LogPanicf("failed to open store: %s", err)
		}

		return store
	}); err != nil {
		return err
	}

	return c.Provide(func(store *storage.Store) *blockchain.Blockchain {
		blockInterval, err := time.ParseDuration(ParamsBlockchain.BlockInterval)
		if err != nil {
			Component.LogPanicf("invalid block interval: %s", err)
		}

		return blockchain.New(Component.Logger, store,
			blockchain.WithBlockInterval(blockInterval),
			blockchain.WithMaxBlockTransactions(ParamsBlockchain.MaxBlockTransactions),
			blockchain.WithSubmissionBufferSize(ParamsBlockchain.SubmissionBufferSize),
		)
	})
}

func configure() error {
	deps.Blockchain.Events.TransactionAccepted.Hook(func(txHash types.Hash) {
		Component.LogDebugf("TransactionAccepted: %s", txHash)
	})

	deps.Blockchain.Events.BlockCommitted.Hook(func(header *model.BlockHeader) {
		Component.LogInfof("BlockCommitted: height %d, state %s", header.Height, header.StateHash)
	})

	if err := deps.Blockchain.CommitGenesis(); err != nil {
		Component.LogPanicf("failed to commit genesis block: %s", err)
	}

	return nil
}

func run() error {
	if err := Component.Daemon().BackgroundWorker("Blockchain", func(ctx context.Context) {
		Component.LogInfo("Starting Blockchain ... done")
		deps.Blockchain.Run(ctx)
		Component.LogInfo("Stopping Blockchain ... done")
	}, daemon.PriorityBlockchain); err != nil {
		Component.LogPanicf("failed to start worker: %s", err)
	}

	return Component.Daemon().BackgroundWorker("Store", func(ctx context.Context) {
		<-ctx.Done()
		if err := deps.Store.Close(); err != nil {
			Component.LogWarnf("failed to close store: %s", err)
		}
	}, daemon.PriorityCloseDatabase)
}
