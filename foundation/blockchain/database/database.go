// Package database handles all the lower level support for maintaining the
// blockchain in storage and maintaining an in memory ledger of account
// information.
package database

import (
	"fmt"
	"sync"

	"github.com/ardanlabs/ledger/foundation/blockchain/genesis"
)

// Serializer interface represents the behavior required to be implemented by any
// package providing support for storing and reading the blockchain.
type Serializer interface {
	Write(blockData BlockData) error
	GetBlock(num uint64) (BlockData, error)
	ForEach() Iterator
	Close() error
	Reset() error
}

// Iterator interface represents the behavior required to be implemented by any
// package providing support to iterate over the blocks.
type Iterator interface {
	Next() (BlockData, error)
	Done() bool
}

// =============================================================================

// DatabaseIterator walks the stored blocks converting them into Block values.
type DatabaseIterator struct {
	iterator Iterator
}

// Next retrieves the next block from storage.
func (di *DatabaseIterator) Next() (Block, error) {
	blockData, err := di.iterator.Next()
	if err != nil {
		return Block{}, err
	}

	return ToBlock(blockData)
}

// Done returns the end of chain value.
func (di *DatabaseIterator) Done() bool {
	return di.iterator.Done()
}

// =============================================================================

// Database manages the ledger of accounts and the chain of blocks that
// produced it.
type Database struct {
	mu sync.RWMutex

	genesis     genesis.Genesis
	latestBlock Block
	ledger      *Ledger

	serializer Serializer
	evHandler  func(v string, args ...any)
}

// New constructs a new database seeded from the genesis information and
// replays any blocks already held by the serializer.
func New(genesis genesis.Genesis, serializer Serializer, evHandler func(v string, args ...any)) (*Database, error) {
	if evHandler == nil {
		evHandler = func(string, ...any) {}
	}

	ledger, err := GenesisLedger(genesis)
	if err != nil {
		return nil, err
	}

	db := Database{
		genesis:    genesis,
		ledger:     ledger,
		serializer: serializer,
		evHandler:  evHandler,
	}

	// Replay all the blocks from storage, validating each one against the
	// state produced by the blocks before it.
	iter := db.serializer.ForEach()
	for blockData, err := iter.Next(); !iter.Done(); blockData, err = iter.Next() {
		if err != nil {
			return nil, err
		}

		block, err := ToBlock(blockData)
		if err != nil {
			return nil, err
		}

		if err := block.ValidateBlock(db.latestBlock, genesis.Difficulty, evHandler); err != nil {
			return nil, fmt.Errorf("replay block %d: %w", block.Number, err)
		}

		if err := applyBlock(db.ledger, block); err != nil {
			return nil, fmt.Errorf("replay block %d: %w", block.Number, err)
		}

		db.latestBlock = block
	}

	return &db, nil
}

// GenesisLedger constructs the ledger described by the genesis accounts.
func GenesisLedger(g genesis.Genesis) (*Ledger, error) {
	ledger := NewLedger()

	for idStr, seed := range g.Accounts {
		accountID, err := ToAccountID(idStr)
		if err != nil {
			return nil, err
		}

		balance, err := seed.Balance()
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", accountID, err)
		}

		kind, err := ParseAccountKind(seed.Type)
		if err != nil {
			return nil, fmt.Errorf("account %s: %w", accountID, err)
		}

		accountType := AccountType{Kind: kind}
		if kind == KindValidator {
			accountType = ValidatorType(ValidatorInfo{
				IncorrectlyValidatedBlocks: seed.IncorrectlyValidatedBlocks,
				Flagged:                    seed.Flagged,
			})
		}

		if err := ledger.CreateAccount(accountID, accountType); err != nil {
			return nil, err
		}

		err = ledger.UpdateAccount(accountID, func(a *Account) error {
			a.Tokens.Set(balance)
			for k, v := range seed.Store {
				a.Store[k] = v
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}

	return ledger, nil
}

// Replay rebuilds the ledger from genesis by applying the blocks in order.
// Two replays of the same blocks always produce the same ledger.
func Replay(g genesis.Genesis, blocks []Block) (*Ledger, error) {
	ledger, err := GenesisLedger(g)
	if err != nil {
		return nil, err
	}

	noop := func(string, ...any) {}

	var prev Block
	for _, block := range blocks {
		if err := block.ValidateBlock(prev, g.Difficulty, noop); err != nil {
			return nil, fmt.Errorf("block %d: %w", block.Number, err)
		}

		if err := applyBlock(ledger, block); err != nil {
			return nil, fmt.Errorf("block %d: %w", block.Number, err)
		}

		prev = block
	}

	return ledger, nil
}

// applyBlock applies every transaction in the block to the ledger in order
// and credits the validator that produced it. The first failing transaction
// aborts the apply and the ledger must be discarded by the caller.
func applyBlock(ledger *Ledger, block Block) error {
	for _, tx := range block.Trans {
		if err := ledger.ApplyTx(tx); err != nil {
			return fmt.Errorf("tx %s: %w", tx, err)
		}
	}

	beneficiary, exists := ledger.Account(block.BeneficiaryID)
	if !exists || !beneficiary.Type.IsValidator() {
		return nil
	}

	return ledger.UpdateAccount(block.BeneficiaryID, func(a *Account) error {
		a.Type.Validator.CorrectlyValidatedBlocks++
		return nil
	})
}

// =============================================================================

// Close closes the open blocks database.
func (db *Database) Close() error {
	return db.serializer.Close()
}

// Reset re-initalizes the database back to the genesis state.
func (db *Database) Reset() error {
	ledger, err := GenesisLedger(db.genesis)
	if err != nil {
		return err
	}

	if err := db.serializer.Reset(); err != nil {
		return err
	}

	db.mu.Lock()
	defer db.mu.Unlock()

	db.latestBlock = Block{}
	db.ledger = ledger

	return nil
}

// AppendBlock validates the block as the next block in the chain, applies
// it to a staged copy of the ledger, writes it to storage and then makes the
// staged ledger current. On any error the database is left unchanged.
func (db *Database) AppendBlock(block Block) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	if err := block.ValidateBlock(db.latestBlock, db.genesis.Difficulty, db.evHandler); err != nil {
		return err
	}

	staged := db.ledger.Copy()
	if err := applyBlock(staged, block); err != nil {
		return fmt.Errorf("block %d rejected: %w", block.Number, err)
	}

	if err := db.serializer.Write(NewBlockData(block)); err != nil {
		return fmt.Errorf("write block %d: %w", block.Number, err)
	}

	db.ledger = staged
	db.latestBlock = block

	return nil
}

// Ledger returns a copy of the current ledger. Changes made to the copy do
// not affect the database.
func (db *Database) Ledger() *Ledger {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.ledger.Copy()
}

// Accounts returns a copy of the current accounts.
func (db *Database) Accounts() map[AccountID]Account {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.ledger.Accounts()
}

// Account returns a copy of the specified account.
func (db *Database) Account(accountID AccountID) (Account, bool) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.ledger.Account(accountID)
}

// Genesis returns the genesis information the database was built from.
func (db *Database) Genesis() genesis.Genesis {
	return db.genesis
}

// LatestBlock returns the latest block. The zero value is returned when the
// chain is empty.
func (db *Database) LatestBlock() Block {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return db.latestBlock
}

// ForEach returns an iterator to walk through all the blocks
// starting with block number 1.
func (db *Database) ForEach() DatabaseIterator {
	return DatabaseIterator{iterator: db.serializer.ForEach()}
}

// GetBlock searches the blockchain in storage to locate and return the
// contents of the specified block by number.
func (db *Database) GetBlock(num uint64) (Block, error) {
	blockData, err := db.serializer.GetBlock(num)
	if err != nil {
		return Block{}, err
	}
	return ToBlock(blockData)
}

// ValidateTx checks the transaction against the current ledger without
// changing it.
func (db *Database) ValidateTx(tx SignedTx) error {
	db.mu.RLock()
	defer db.mu.RUnlock()

	return ValidateTx(db.ledger, tx)
}
