// Package worker implements mining for the blockchain.
package worker

import (
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/state"
)

// cancelRequest asks the mining G to stop. The reason becomes the cause of
// the mining context and the G holds until wait is closed.
type cancelRequest struct {
	reason error
	wait   chan struct{}
}

// Worker manages the POW workflows for the blockchain.
type Worker struct {
	state        *state.State
	wg           sync.WaitGroup
	shut         chan struct{}
	startMining  chan bool
	cancelMining chan cancelRequest
	evHandler    state.EventHandler
}

// Run creates a worker, registers the worker with the state package, and
// starts up all the background processes.
func Run(st *state.State, evHandler state.EventHandler) {
	if evHandler == nil {
		evHandler = func(string, ...any) {}
	}

	w := Worker{
		state:        st,
		shut:         make(chan struct{}),
		startMining:  make(chan bool, 1),
		cancelMining: make(chan cancelRequest, 1),
		evHandler:    evHandler,
	}

	// Register this worker with the state package.
	st.Worker = &w

	// Load the set of operations we need to run.
	operations := []func(){
		w.miningOperations,
	}

	// Set waitgroup to match the number of G's we need for the set
	// of operations we have.
	g := len(operations)
	w.wg.Add(g)

	// We don't want to return until we know all the G's are up and running.
	hasStarted := make(chan bool)

	// Start all the operational G's.
	for _, op := range operations {
		go func(op func()) {
			defer w.wg.Done()
			hasStarted <- true
			op()
		}(op)
	}

	// Wait for the G's to report they are running.
	for i := 0; i < g; i++ {
		<-hasStarted
	}

	// Pick up transactions that were queued before the worker existed.
	if st.QueryMempoolLength() > 0 {
		w.SignalStartMining()
	}
}

// =============================================================================
// These methods implement the state.Worker interface.

// Shutdown terminates the goroutine performing work. Mining in flight is
// cancelled with state.ErrShutdown.
func (w *Worker) Shutdown() {
	w.evHandler("worker: shutdown: started")
	defer w.evHandler("worker: shutdown: completed")

	w.evHandler("worker: shutdown: terminate goroutines")
	close(w.shut)
	w.wg.Wait()
}

// SignalStartMining starts a mining operation. If there is already a signal
// pending in the channel, just return since a mining operation will start.
func (w *Worker) SignalStartMining() {
	select {
	case w.startMining <- true:
	default:
	}
	w.evHandler("worker: SignalStartMining: mining signaled")
}

// SignalCancelMining signals the G executing the runMiningOperation function
// to stop immediately for the specified reason. That G will not return from
// the function until done is called. This allows the caller to complete any
// state changes before a new mining operation takes place. If a request is
// already pending the new one is dropped and done only releases the caller.
func (w *Worker) SignalCancelMining(reason error) (done func()) {
	req := cancelRequest{
		reason: reason,
		wait:   make(chan struct{}),
	}

	select {
	case w.cancelMining <- req:
		w.evHandler("worker: SignalCancelMining: MINING: CANCEL: signaled: %s", reason)
	default:
		w.evHandler("worker: SignalCancelMining: MINING: CANCEL: already pending: %s", reason)
	}

	var once sync.Once
	return func() { once.Do(func() { close(req.wait) }) }
}

// =============================================================================

// isShutdown is used to test if a shutdown has been signaled.
func (w *Worker) isShutdown() bool {
	select {
	case <-w.shut:
		return true
	default:
		return false
	}
}
