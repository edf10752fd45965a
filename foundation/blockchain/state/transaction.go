package state

import (
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// SubmitTransaction accepts a transaction from a wallet for inclusion. The
// transaction is validated against the current ledger and then queued. A
// transaction that is valid now can still be dropped at mining time if the
// ledger has changed by then.
func (s *State) SubmitTransaction(signedTx database.SignedTx) error {
	if err := s.addMempool(signedTx); err != nil {
		return err
	}

	s.Worker.SignalStartMining()

	return nil
}

func (s *State) addMempool(signedTx database.SignedTx) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.db.ValidateTx(signedTx); err != nil {
		s.evHandler("state: SubmitTransaction: REJECTED: tx[%s]: %s", signedTx, err)
		return err
	}

	n, err := s.mempool.Add(signedTx)
	if err != nil {
		return fmt.Errorf("%w: %s", database.ErrNonceReplay, err)
	}

	s.evHandler("state: SubmitTransaction: tx[%s]: mempool[%d]", signedTx, n)

	return nil
}
