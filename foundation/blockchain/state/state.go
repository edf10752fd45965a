// Package state is the core API for the blockchain and implements all the
// business rules and processing.
package state

import (
	"errors"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
	"github.com/ardanlabs/ledger/foundation/blockchain/mempool"
)

// EventHandler defines a function that is called when events
// occur in the processing of persisting blocks.
type EventHandler func(v string, args ...any)

// Reasons a mining operation in flight is cancelled. The reason is passed to
// the worker and surfaces as the cause of the mining context.
var (
	ErrBlockAppended  = errors.New("block appended from outside the miner")
	ErrChainTruncated = errors.New("chain truncated to genesis")
	ErrShutdown       = errors.New("node shutting down")
)

// Worker interface represents the behavior required to be implemented by any
// package providing support for mining.
type Worker interface {
	Shutdown()
	SignalStartMining()
	SignalCancelMining(reason error) (done func())
}

// =============================================================================

// Config represents the configuration required to start
// the blockchain node.
type Config struct {
	BeneficiaryID database.AccountID
	Genesis       genesis.Genesis
	Storage       database.Serializer
	EvHandler     EventHandler
}

// State manages the blockchain database.
type State struct {
	mu sync.Mutex

	beneficiaryID database.AccountID
	evHandler     EventHandler

	genesis genesis.Genesis
	mempool *mempool.Mempool
	db      *database.Database

	// generation changes every time the chain is truncated. Transactions
	// drained by a mining run only go back to the pool within the same
	// generation.
	generation uint64

	Worker Worker
}

// New constructs a new blockchain for data management.
func New(cfg Config) (*State, error) {

	// Build a safe event handler function for use.
	ev := func(v string, args ...any) {
		if cfg.EvHandler != nil {
			cfg.EvHandler(v, args...)
		}
	}

	if err := cfg.Genesis.Validate(); err != nil {
		return nil, err
	}

	// Access the storage for the blockchain and replay the stored blocks
	// on top of the genesis ledger.
	db, err := database.New(cfg.Genesis, cfg.Storage, ev)
	if err != nil {
		return nil, err
	}

	// Create the State to provide support for managing the blockchain.
	state := State{
		beneficiaryID: cfg.BeneficiaryID,
		evHandler:     ev,

		genesis: cfg.Genesis,
		mempool: mempool.New(),
		db:      db,

		// The call to worker.Run will replace this with a worker that
		// mines in the background.
		Worker: idleWorker{},
	}

	return &state, nil
}

// Shutdown cleanly brings the node down.
func (s *State) Shutdown() error {
	s.evHandler("state: shutdown: started")
	defer s.evHandler("state: shutdown: completed")

	// Make sure the database file is properly closed.
	defer func() {
		s.db.Close()
	}()

	// Stop all blockchain writing activity.
	s.Worker.Shutdown()

	return nil
}

// Truncate resets the chain both in storage and in memory back to the
// genesis ledger. The caller is expected to cancel any mining in flight with
// ErrChainTruncated first.
func (s *State) Truncate() error {
	s.evHandler("state: truncate: started")
	defer s.evHandler("state: truncate: completed")

	s.mu.Lock()
	defer s.mu.Unlock()

	s.generation++
	s.mempool.Truncate()

	return s.db.Reset()
}

// =============================================================================

// idleWorker is used until a real worker registers itself.
type idleWorker struct{}

func (idleWorker) Shutdown()                              {}
func (idleWorker) SignalStartMining()                     {}
func (idleWorker) SignalCancelMining(error) (done func()) { return func() {} }
