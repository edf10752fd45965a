// Package mempool maintains the mempool for the blockchain. Transactions are
// kept in the order they were submitted and are drained in that order.
package mempool

import (
	"errors"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// ErrDuplicate is returned when a transaction with the same from:nonce key
// is already pending or is being mined.
var ErrDuplicate = errors.New("transaction already pending")

// Mempool represents a queue of transactions waiting to be mined, organized
// by their account:nonce key. Drained transactions stay reserved until they
// are released or requeued.
type Mempool struct {
	mu       sync.RWMutex
	queue    []database.SignedTx
	pending  map[string]struct{}
	reserved map[string]struct{}
}

// New constructs a new empty mempool.
func New() *Mempool {
	return &Mempool{
		pending:  make(map[string]struct{}),
		reserved: make(map[string]struct{}),
	}
}

// Count returns the current number of transaction in the pool. Reserved
// transactions are not counted.
func (mp *Mempool) Count() int {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return len(mp.queue)
}

// Add places the transaction at the end of the queue.
func (mp *Mempool) Add(tx database.SignedTx) (int, error) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	key := tx.Key()
	if mp.known(key) {
		return len(mp.queue), ErrDuplicate
	}

	mp.queue = append(mp.queue, tx)
	mp.pending[key] = struct{}{}

	return len(mp.queue), nil
}

// Contains reports whether a transaction with the same key is pending or
// reserved.
func (mp *Mempool) Contains(tx database.SignedTx) bool {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	return mp.known(tx.Key())
}

// Drain removes up to howMany transactions from the front of the queue and
// reserves them. Pass -1 for all the transactions.
func (mp *Mempool) Drain(howMany int) []database.SignedTx {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	if howMany < 0 || howMany > len(mp.queue) {
		howMany = len(mp.queue)
	}

	trans := make([]database.SignedTx, howMany)
	copy(trans, mp.queue[:howMany])
	mp.queue = mp.queue[howMany:]

	for _, tx := range trans {
		key := tx.Key()
		delete(mp.pending, key)
		mp.reserved[key] = struct{}{}
	}

	return trans
}

// Release drops the reservation for the transactions. This is called once
// they are part of the chain or have been rejected.
func (mp *Mempool) Release(trans []database.SignedTx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	for _, tx := range trans {
		delete(mp.reserved, tx.Key())
	}
}

// Requeue returns reserved transactions to the front of the queue keeping
// their original order.
func (mp *Mempool) Requeue(trans []database.SignedTx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	front := make([]database.SignedTx, 0, len(trans)+len(mp.queue))
	for _, tx := range trans {
		key := tx.Key()
		if _, exists := mp.pending[key]; exists {
			continue
		}
		delete(mp.reserved, key)
		mp.pending[key] = struct{}{}
		front = append(front, tx)
	}

	mp.queue = append(front, mp.queue...)
}

// Delete removes any pending transaction with the same key.
func (mp *Mempool) Delete(tx database.SignedTx) {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	key := tx.Key()
	if _, exists := mp.pending[key]; !exists {
		return
	}

	for i := range mp.queue {
		if mp.queue[i].Key() == key {
			mp.queue = append(mp.queue[:i], mp.queue[i+1:]...)
			break
		}
	}
	delete(mp.pending, key)
}

// Truncate clears all the transactions from the pool including the
// reservations.
func (mp *Mempool) Truncate() {
	mp.mu.Lock()
	defer mp.mu.Unlock()

	mp.queue = nil
	mp.pending = make(map[string]struct{})
	mp.reserved = make(map[string]struct{})
}

// Copy returns the pending transactions in queue order.
func (mp *Mempool) Copy() []database.SignedTx {
	mp.mu.RLock()
	defer mp.mu.RUnlock()

	trans := make([]database.SignedTx, len(mp.queue))
	copy(trans, mp.queue)

	return trans
}

// =============================================================================

func (mp *Mempool) known(key string) bool {
	if _, exists := mp.pending[key]; exists {
		return true
	}
	_, exists := mp.reserved[key]
	return exists
}
