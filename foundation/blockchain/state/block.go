package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// ErrNoTransactions is returned when a block is requested to be created
// and there are not enough transactions.
var ErrNoTransactions = errors.New("no transactions in mempool")

// =============================================================================

// MineNextBlock drains the mempool, drops the transactions that are no longer
// valid, solves the POW puzzle for the rest and appends the new block to the
// chain. Mining can be cancelled through the context, in which case the
// transactions are returned to the front of the mempool unless the chain
// was truncated in the meantime.
func (s *State) MineNextBlock(ctx context.Context) (database.Block, error) {
	s.evHandler("state: MineNextBlock: MINING: check mempool count")

	// Are there enough transactions in the pool.
	if s.mempool.Count() == 0 {
		return database.Block{}, ErrNoTransactions
	}

	s.evHandler("state: MineNextBlock: MINING: select transactions")

	trans, prevBlock, generation := s.selectTransactions()
	if len(trans) == 0 {
		return database.Block{}, ErrNoTransactions
	}

	s.evHandler("state: MineNextBlock: MINING: perform POW: trans[%d]", len(trans))

	// Attempt to create a new block by solving the POW puzzle. This can be cancelled.
	block, err := database.POW(ctx, database.POWArgs{
		BeneficiaryID: s.beneficiaryID,
		Difficulty:    s.genesis.Difficulty,
		PrevBlock:     prevBlock,
		Trans:         trans,
		EvHandler:     s.evHandler,
	})
	if err != nil {
		s.returnTransactions(ctx, trans, generation)
		return database.Block{}, err
	}

	// Just check one more time we were not cancelled.
	if ctx.Err() != nil {
		s.returnTransactions(ctx, trans, generation)
		return database.Block{}, ctx.Err()
	}

	s.evHandler("state: MineNextBlock: MINING: validate and update database")

	// The chain may have moved while mining. The block then fails to link
	// and the transactions go back to be revalidated by the next attempt.
	if err := s.validateUpdateDatabase(block); err != nil {
		s.returnTransactions(ctx, trans, generation)
		return database.Block{}, err
	}

	return block, nil
}

// AppendBlock takes a block produced somewhere else, validates it and if that
// passes, adds the block to the local blockchain. Any in flight mining is
// cancelled first since it is building on what is about to be a stale block.
func (s *State) AppendBlock(block database.Block) error {
	s.evHandler("state: AppendBlock: started: prevBlk[%.18s]: newBlk[%.18s]: numTrans[%d]", block.PrevBlockHash, block.Hash, len(block.Trans))
	defer s.evHandler("state: AppendBlock: completed: newBlk[%.18s]", block.Hash)

	// If the runMiningOperation function is being executed it needs to stop
	// immediately. The G executing runMiningOperation will not return from the
	// function until done is called. That allows this function to complete
	// its state changes before a new mining operation takes place.
	done := s.Worker.SignalCancelMining(ErrBlockAppended)
	defer func() {
		s.evHandler("state: AppendBlock: signal runMiningOperation to terminate")
		done()
	}()

	// Validate the block and then update the blockchain database.
	return s.validateUpdateDatabase(block)
}

// =============================================================================

// selectTransactions drains the next batch of transactions and runs them
// against a copy of the ledger in order. Transactions that fail are dropped
// from the pool and the ones that pass stay reserved for the block. The
// current generation is returned so the batch can be matched against a
// truncate that happens while mining.
func (s *State) selectTransactions() ([]database.SignedTx, database.Block, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	drained := s.mempool.Drain(int(s.genesis.TransPerBlock))
	staged := s.db.Ledger()

	var trans []database.SignedTx
	var dropped []database.SignedTx
	for _, tx := range drained {
		if err := staged.ApplyTx(tx); err != nil {
			s.evHandler("state: MineNextBlock: MINING: DROPPED: tx[%s]: %s", tx, err)
			dropped = append(dropped, tx)
			continue
		}
		trans = append(trans, tx)
	}

	s.mempool.Release(dropped)

	return trans, s.db.LatestBlock(), s.generation
}

// returnTransactions puts a batch that did not make it into a block back at
// the front of the pool. A batch drained before the chain was truncated is
// discarded: the pool and its reservations were cleared by the truncate and
// the same transactions may already have been submitted again.
func (s *State) returnTransactions(ctx context.Context, trans []database.SignedTx, generation uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if generation != s.generation || errors.Is(context.Cause(ctx), ErrChainTruncated) {
		s.evHandler("state: MineNextBlock: MINING: DISCARD: trans[%d]: chain truncated", len(trans))
		if generation == s.generation {
			s.mempool.Release(trans)
		}
		return
	}

	s.evHandler("state: MineNextBlock: MINING: REQUEUE: trans[%d]", len(trans))
	s.mempool.Requeue(trans)
}

// validateUpdateDatabase takes the block and validates the block against the
// chain rules. If the block passes, then the state of the node is updated
// including adding the block to storage.
func (s *State) validateUpdateDatabase(block database.Block) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.evHandler("state: validateUpdateDatabase: validate and apply block[%d]", block.Number)

	if err := s.db.AppendBlock(block); err != nil {
		s.evHandler("state: validateUpdateDatabase: REJECTED: block[%d]: %s", block.Number, err)
		return err
	}

	s.evHandler("state: validateUpdateDatabase: remove from mempool")

	// Reservations held by a local mining run are released and any copy of
	// the same transactions still waiting in the pool is removed.
	s.mempool.Release(block.Trans)
	for _, tx := range block.Trans {
		s.mempool.Delete(tx)
	}

	// Send an event about this new block.
	s.blockEvent(block)

	return nil
}

// blockEvent provides a specific event about a new block in the chain for
// application specific support.
func (s *State) blockEvent(block database.Block) {
	blockJSON, err := json.Marshal(database.NewBlockData(block))
	if err != nil {
		blockJSON = []byte(fmt.Sprintf("%q", err.Error()))
	}

	s.evHandler(`viewer: block: %s`, string(blockJSON))
}
