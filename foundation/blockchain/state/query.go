package state

import (
	"fmt"

	"github.com/ardanlabs/ledger/foundation/blockchain/database"
)

// QueryLastest represents to query the latest block in the chain.
const QueryLastest = ^uint64(0) >> 1

// =============================================================================

// QueryAccount returns a copy of the account from the database.
func (s *State) QueryAccount(accountID database.AccountID) (database.Account, error) {
	account, exists := s.db.Account(accountID)
	if !exists {
		return database.Account{}, fmt.Errorf("%w: %s", database.ErrUnknownAccount, accountID)
	}

	return account, nil
}

// QueryMempoolLength returns the current length of the mempool.
func (s *State) QueryMempoolLength() int {
	return s.mempool.Count()
}

// QueryBlocksByNumber returns the set of blocks based on block numbers. This
// function reads the blockchain from storage first.
func (s *State) QueryBlocksByNumber(from uint64, to uint64) ([]database.Block, error) {
	latest := s.db.LatestBlock().Number

	if from == QueryLastest {
		from = latest
		to = from
	}
	if to == QueryLastest || to > latest {
		to = latest
	}
	if from == 0 {
		from = 1
	}

	var out []database.Block
	for i := from; i <= to; i++ {
		block, err := s.db.GetBlock(i)
		if err != nil {
			return nil, fmt.Errorf("block %d: %w", i, err)
		}
		out = append(out, block)
	}

	return out, nil
}

// QueryBlocksByAccount returns the set of blocks by account. If the account
// is empty, all blocks are returned. This function reads the blockchain
// from storage first.
func (s *State) QueryBlocksByAccount(accountID database.AccountID) ([]database.Block, error) {
	var out []database.Block

	iter := s.db.ForEach()
	for block, err := iter.Next(); !iter.Done(); block, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		if accountID == "" || block.BeneficiaryID == accountID {
			out = append(out, block)
			continue
		}

		for _, tx := range block.Trans {
			if tx.Involves(accountID) {
				out = append(out, block)
				break
			}
		}
	}

	return out, nil
}

// QueryTransactionProof returns the merkle proof that the transaction with
// the from:nonce key is part of the specified block.
func (s *State) QueryTransactionProof(number uint64, key string) (database.TxProof, error) {
	block, err := s.db.GetBlock(number)
	if err != nil {
		return database.TxProof{}, fmt.Errorf("block %d: %w", number, err)
	}

	return database.NewTxProof(block, key)
}
