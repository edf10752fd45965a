package worker

import (
	"context"
	"errors"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/state"
)

// miningOperations handles mining.
func (w *Worker) miningOperations() {
	w.evHandler("worker: miningOperations: G started")
	defer w.evHandler("worker: miningOperations: G completed")

	for {
		select {
		case <-w.startMining:
			if !w.isShutdown() {
				w.runMiningOperation()
			}
		case <-w.shut:
			w.evHandler("worker: miningOperations: received shut signal")
			return
		}
	}
}

// miningResult is what a single call to MineNextBlock produced.
type miningResult struct {
	block    database.Block
	err      error
	duration time.Duration
}

// runMiningOperation takes the next batch of transactions from the mempool
// and writes a new block to the database. A cancel request stops the POW
// through the context cause, so the state knows whether the batch goes back
// to the mempool or belongs to a chain that no longer exists.
func (w *Worker) runMiningOperation() {
	w.evHandler("worker: runMiningOperation: MINING: started")
	defer w.evHandler("worker: runMiningOperation: MINING: completed")

	// Make sure there are transactions in the mempool.
	length := w.state.QueryMempoolLength()
	if length == 0 {
		w.evHandler("worker: runMiningOperation: MINING: no transactions to mine: Txs[%d]", length)
		return
	}

	// A request left over from when nothing was being mined refers to a
	// change that is already complete.
	select {
	case req := <-w.cancelMining:
		w.evHandler("worker: runMiningOperation: MINING: drained stale cancel: %s", req.reason)
	default:
	}

	ctx, cancel := context.WithCancelCause(context.Background())
	defer cancel(nil)

	mined := make(chan miningResult, 1)
	go func() {
		t := time.Now()
		block, err := w.state.MineNextBlock(ctx)
		mined <- miningResult{block: block, err: err, duration: time.Since(t)}
	}()

	var res miningResult
	select {
	case res = <-mined:

	case <-w.shut:
		cancel(state.ErrShutdown)
		res = <-mined

	case req := <-w.cancelMining:
		w.evHandler("worker: runMiningOperation: MINING: CANCEL: requested: %s", req.reason)
		cancel(req.reason)
		res = <-mined

		// The caller is changing the chain. Hold here until it is done so
		// the next operation mines on top of the new state.
		w.evHandler("worker: runMiningOperation: MINING: termination signal: waiting")
		<-req.wait
		w.evHandler("worker: runMiningOperation: MINING: termination signal: received")
	}

	w.report(ctx, res)

	// Pick up what is left, including anything that was requeued.
	// Nothing else is mined once shutdown has started.
	if length := w.state.QueryMempoolLength(); length > 0 && !w.isShutdown() {
		w.evHandler("worker: runMiningOperation: MINING: signal new mining operation: Txs[%d]", length)
		w.SignalStartMining()
	}
}

// report logs the outcome of a mining run.
func (w *Worker) report(ctx context.Context, res miningResult) {
	w.evHandler("worker: runMiningOperation: MINING: mining duration[%v]", res.duration)

	switch {
	case res.err == nil:
		w.evHandler("worker: runMiningOperation: MINING: block[%d]: hash[%.18s]: trans[%d]", res.block.Number, res.block.Hash, len(res.block.Trans))

	case errors.Is(res.err, state.ErrNoTransactions):
		w.evHandler("worker: runMiningOperation: MINING: WARNING: no transactions in mempool")

	case ctx.Err() != nil:
		w.evHandler("worker: runMiningOperation: MINING: CANCEL: complete: %s", context.Cause(ctx))

	default:
		w.evHandler("worker: runMiningOperation: MINING: ERROR: %s", res.err)
	}
}
