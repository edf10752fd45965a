package state

import (
	"github.com/ardanlabs/ledger/foundation/blockchain/database"
	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
)

// RetrieveBeneficiary returns the account credited for blocks mined here.
func (s *State) RetrieveBeneficiary() database.AccountID {
	return s.beneficiaryID
}

// RetrieveGenesis returns a copy of the genesis information.
func (s *State) RetrieveGenesis() genesis.Genesis {
	return s.genesis
}

// RetrieveLatestBlock returns a copy the current latest block.
func (s *State) RetrieveLatestBlock() database.Block {
	return s.db.LatestBlock()
}

// RetrieveMempool returns a copy of the mempool in the order the
// transactions will be mined.
func (s *State) RetrieveMempool() []database.SignedTx {
	return s.mempool.Copy()
}

// RetrieveAccounts returns a copy of all the accounts in the ledger.
func (s *State) RetrieveAccounts() map[database.AccountID]database.Account {
	return s.db.Accounts()
}
