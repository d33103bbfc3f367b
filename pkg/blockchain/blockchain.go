package blockchain

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/iotaledger/hive.go/ads"
	"github.com/iotaledger/hive.go/crypto/ed25519"
	"github.com/iotaledger/hive.go/ds/shrinkingmap"
	dstypes "github.com/iotaledger/hive.go/ds/types"
	"github.com/iotaledger/hive.go/ierrors"
	"github.com/iotaledger/hive.go/kvstore/mapdb"
	"github.com/iotaledger/hive.go/log"
	"github.com/iotaledger/hive.go/runtime/options"
	"github.com/iotaledger/hive.go/runtime/syncutils"

	"github.com/exonum/cryptocurrency/pkg/core/types"
	"github.com/exonum/cryptocurrency/pkg/ledger"
	"github.com/exonum/cryptocurrency/pkg/model"
	"github.com/exonum/cryptocurrency/pkg/storage"
)

var (
	// ErrSubmissionClosed is returned when a transaction is submitted after
	// the ordering pipeline shut down.
	ErrSubmissionClosed = ierrors.New("transaction submission pipeline is closed")

	// ErrSubmissionOverflow is returned when the submission buffer is full.
	ErrSubmissionOverflow = ierrors.New("transaction submission buffer is full")
)

// Validator is one block-endorsing identity.
type Validator struct {
	ID   uint16
	Keys ed25519.KeyPair
}

// Blockchain orders verified transactions into blocks: it drains the
// submission channel, applies the transactions sequentially against a single
// fork, seals the resulting state into a signed header and commits the whole
// block atomically. It is the only writer of the store.
type Blockchain struct {
	Events *Events

	logger     log.Logger
	store      *storage.Store
	validators []Validator
	proposerID uint16

	blockInterval        time.Duration
	maxBlockTransactions int
	submissionBufferSize int

	submissions chan ledger.Transaction
	seen        *shrinkingmap.ShrinkingMap[types.Hash, dstypes.Empty]

	commitMutex    syncutils.Mutex
	shutdownMutex  syncutils.RWMutex
	isShutdown     bool
	submittedCount atomic.Uint64
	committedCount atomic.Uint64
}

func WithBlockInterval(interval time.Duration) options.Option[Blockchain] {
	return func(b *Blockchain) {
		b.blockInterval = interval
	}
}

func WithValidators(validators ...Validator) options.Option[Blockchain] {
	return func(b *Blockchain) {
		b.validators = validators
	}
}

func WithMaxBlockTransactions(max int) options.Option[Blockchain] {
	return func(b *Blockchain) {
		b.maxBlockTransactions = max
	}
}

func WithSubmissionBufferSize(size int) options.Option[Blockchain] {
	return func(b *Blockchain) {
		b.submissionBufferSize = size
	}
}

func New(logger log.Logger, store *storage.Store, opts ...options.Option[Blockchain]) *Blockchain {
	return options.Apply(&Blockchain{
		Events:               newEvents(),
		logger:               logger,
		store:                store,
		blockInterval:        time.Second,
		maxBlockTransactions: 256,
		submissionBufferSize: 1024,
		seen:                 shrinkingmap.New[types.Hash, dstypes.Empty](),
	}, opts, func(b *Blockchain) {
		if len(b.validators) == 0 {
			b.validators = []Validator{{ID: 0, Keys: ed25519.GenerateKeyPair()}}
		}
		b.proposerID = b.validators[0].ID
		b.submissions = make(chan ledger.Transaction, b.submissionBufferSize)
	})
}

// Store exposes the snapshot provider backing this chain.
func (b *Blockchain) Store() *storage.Store {
	return b.store
}

// Submit verifies the envelope and hands it to the ordering pipeline. The
// call is fire-and-forget: it returns the content hash immediately and never
// waits for execution or inclusion.
func (b *Blockchain) Submit(tx ledger.Transaction) (types.Hash, error) {
	if err := tx.Verify(); err != nil {
		return types.EmptyHash, err
	}

	b.shutdownMutex.RLock()
	defer b.shutdownMutex.RUnlock()

	if b.isShutdown {
		return types.EmptyHash, ErrSubmissionClosed
	}

	txHash := tx.Hash()
	select {
	case b.submissions <- tx:
	default:
		return types.EmptyHash, ErrSubmissionOverflow
	}

	b.submittedCount.Add(1)
	b.Events.TransactionAccepted.Trigger(txHash)

	return txHash, nil
}

// CommitGenesis commits the height-0 block if the chain is empty. It also
// registers the accounts table with the state aggregator so that state
// proofs are available from the first query on.
func (b *Blockchain) CommitGenesis() error {
	if _, _, err := b.store.Snapshot().LatestBlock(); err == nil {
		return nil
	} else if !ierrors.Is(err, storage.ErrNoCommittedBlock) {
		return err
	}

	b.commitMutex.Lock()
	defer b.commitMutex.Unlock()

	fork := b.store.Fork()
	if _, err := ledger.NewSchema(fork).Accounts(); err != nil {
		return err
	}

	header, err := b.commitFork(fork, nil, 0, types.EmptyHash)
	if err != nil {
		return err
	}
	b.logger.LogInfof("committed genesis block %s", header.Hash())

	return nil
}

// CommitBlock drains the pending submissions and commits them as one block.
// It does nothing when no transactions are pending.
func (b *Blockchain) CommitBlock() error {
	b.commitMutex.Lock()
	defer b.commitMutex.Unlock()

	batch := b.drainSubmissions()
	if len(batch) == 0 {
		return nil
	}

	prevHeader, _, err := b.store.Snapshot().LatestBlock()
	if err != nil {
		return ierrors.Wrap(err, "cannot build a block before genesis")
	}

	// Transactions are applied one at a time against the single fork, in
	// submission order. Exclusivity is structural, no locking needed here.
	fork := b.store.Fork()
	if _, err := ledger.NewSchema(fork).Accounts(); err != nil {
		return err
	}
	for _, tx := range batch {
		if err := tx.Execute(fork); err != nil {
			return ierrors.Wrapf(err, "failed to execute transaction %s", tx.Hash())
		}
	}

	header, err := b.commitFork(fork, batch, prevHeader.Height+1, prevHeader.Hash())
	if err != nil {
		return err
	}

	b.committedCount.Add(uint64(len(batch)))
	b.logger.LogInfof("committed block %d with %d transaction(s), state %s", header.Height, header.TxCount, header.StateHash)

	return nil
}

func (b *Blockchain) commitFork(fork *storage.Fork, batch []ledger.Transaction, height uint64, prevHash types.Hash) (model.BlockHeader, error) {
	txRoot, err := transactionsRoot(batch)
	if err != nil {
		return model.BlockHeader{}, err
	}

	header, err := b.store.CommitBlock(fork, func(stateHash types.Hash) (model.BlockHeader, []model.Precommit, error) {
		header := model.BlockHeader{
			Height:        height,
			PrevHash:      prevHash,
			SchemaVersion: model.SchemaVersion,
			ProposerID:    b.proposerID,
			TxCount:       uint32(len(batch)),
			TxHash:        txRoot,
			StateHash:     stateHash,
		}

		blockHash := header.Hash()
		precommits := make([]model.Precommit, 0, len(b.validators))
		for _, validator := range b.validators {
			precommits = append(precommits, model.NewPrecommit(validator.ID, header.Height, blockHash, validator.Keys))
		}

		return header, precommits, nil
	})
	if err != nil {
		return model.BlockHeader{}, err
	}

	b.Events.BlockCommitted.Trigger(&header)

	return header, nil
}

func (b *Blockchain) drainSubmissions() []ledger.Transaction {
	batch := make([]ledger.Transaction, 0)
	for len(batch) < b.maxBlockTransactions {
		select {
		case tx := <-b.submissions:
			// Identical content hashes are executed at most once.
			if !b.seen.Set(tx.Hash(), dstypes.Void) {
				continue
			}
			batch = append(batch, tx)
		default:
			return batch
		}
	}

	return batch
}

// Run produces blocks at the configured interval until the context is
// cancelled. It shuts the submission pipeline down on exit.
func (b *Blockchain) Run(ctx context.Context) {
	ticker := time.NewTicker(b.blockInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := b.CommitBlock(); err != nil {
				b.logger.LogWarnf("block commit failed: %s", err)
			}
		case <-ctx.Done():
			b.shutdown()

			return
		}
	}
}

func (b *Blockchain) shutdown() {
	b.shutdownMutex.Lock()
	defer b.shutdownMutex.Unlock()

	b.isShutdown = true
}

// LatestHeight returns the height of the latest committed block, or 0 before
// genesis.
func (b *Blockchain) LatestHeight() uint64 {
	header, _, err := b.store.Snapshot().LatestBlock()
	if err != nil {
		return 0
	}

	return header.Height
}

// SubmittedTransactions returns the number of accepted submissions.
func (b *Blockchain) SubmittedTransactions() uint64 {
	return b.submittedCount.Load()
}

// CommittedTransactions returns the number of transactions included in
// committed blocks.
func (b *Blockchain) CommittedTransactions() uint64 {
	return b.committedCount.Load()
}

// transactionsRoot builds the authenticated index of a block's transactions
// and returns its root. The empty batch yields the empty root.
func transactionsRoot(batch []ledger.Transaction) (types.Hash, error) {
	txTree := ads.NewMap[types.Hash](mapdb.NewMapDB(),
		types.Hash.Bytes,
		types.HashFromBytes,
		types.Hash.Bytes,
		types.HashFromBytes,
		ledger.Transaction.Bytes,
		ledger.TransactionFromBytes,
	)

	for _, tx := range batch {
		if err := txTree.Set(tx.Hash(), tx); err != nil {
			return types.EmptyHash, ierrors.Wrapf(err, "failed to index transaction %s", tx.Hash())
		}
	}

	return txTree.Root(), nil
}
