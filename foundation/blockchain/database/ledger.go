package database

import (
	"fmt"
	"sort"
	"sync"

	"github.com/holiman/uint256"
)

// WorldState represents the behavior required to read and mutate the set of
// accounts. All account mutation goes through this interface.
type WorldState interface {
	AccountIDs() []AccountID
	Account(accountID AccountID) (Account, bool)
	UpdateAccount(accountID AccountID, fn func(*Account) error) error
	CreateAccount(accountID AccountID, accountType AccountType) error
}

// Snapshot is the view of the ledger a transaction is validated against.
type Snapshot interface {
	WorldState
	NonceConsumed(from AccountID, nonce *uint256.Int) bool
}

// =============================================================================

// nonceKey is the fixed size representation of a 128 bit nonce.
type nonceKey [16]byte

// toNonceKey converts the nonce into a map key.
func toNonceKey(nonce *uint256.Int) nonceKey {
	var k nonceKey
	if nonce == nil {
		return k
	}
	b := nonce.Bytes32()
	copy(k[:], b[16:])
	return k
}

// Ledger is the authoritative mapping of account ids to account state plus
// the set of transaction nonces that have been consumed.
type Ledger struct {
	mu       sync.RWMutex
	accounts map[AccountID]Account
	nonces   map[AccountID]map[nonceKey]struct{}
}

// NewLedger constructs an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		accounts: make(map[AccountID]Account),
		nonces:   make(map[AccountID]map[nonceKey]struct{}),
	}
}

// AccountIDs returns all the known accounts sorted by id.
func (l *Ledger) AccountIDs() []AccountID {
	l.mu.RLock()
	defer l.mu.RUnlock()

	ids := make([]AccountID, 0, len(l.accounts))
	for id := range l.accounts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	return ids
}

// Account returns a copy of the specified account.
func (l *Ledger) Account(accountID AccountID) (Account, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	account, exists := l.accounts[accountID]
	if !exists {
		return Account{}, false
	}

	return account.copy(), true
}

// UpdateAccount provides exclusive mutable access to the specified account for
// the duration of fn. If fn returns an error the mutation is discarded.
func (l *Ledger) UpdateAccount(accountID AccountID, fn func(*Account) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	account, exists := l.accounts[accountID]
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownAccount, accountID)
	}

	cpy := account.copy()
	if err := fn(&cpy); err != nil {
		return err
	}
	cpy.AccountID = accountID

	l.accounts[accountID] = cpy

	return nil
}

// CreateAccount adds a new account with a zero balance and an empty store.
func (l *Ledger) CreateAccount(accountID AccountID, accountType AccountType) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if _, exists := l.accounts[accountID]; exists {
		return fmt.Errorf("%w: %s", ErrAccountExists, accountID)
	}

	l.accounts[accountID] = newAccount(accountID, accountType)

	return nil
}

// NonceConsumed reports whether the nonce was already used by an applied
// transaction from the specified account.
func (l *Ledger) NonceConsumed(from AccountID, nonce *uint256.Int) bool {
	l.mu.RLock()
	defer l.mu.RUnlock()

	_, exists := l.nonces[from][toNonceKey(nonce)]
	return exists
}

// ConsumeNonce records the nonce as used by the specified account.
func (l *Ledger) ConsumeNonce(from AccountID, nonce *uint256.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()

	set, exists := l.nonces[from]
	if !exists {
		set = make(map[nonceKey]struct{})
		l.nonces[from] = set
	}
	set[toNonceKey(nonce)] = struct{}{}
}

// Accounts returns a copy of all the accounts in the ledger.
func (l *Ledger) Accounts() map[AccountID]Account {
	l.mu.RLock()
	defer l.mu.RUnlock()

	accounts := make(map[AccountID]Account, len(l.accounts))
	for id, account := range l.accounts {
		accounts[id] = account.copy()
	}
	return accounts
}

// Copy performs a deep copy of the ledger. This is used to stage changes
// that can be discarded.
func (l *Ledger) Copy() *Ledger {
	l.mu.RLock()
	defer l.mu.RUnlock()

	cpy := NewLedger()
	for id, account := range l.accounts {
		cpy.accounts[id] = account.copy()
	}
	for id, set := range l.nonces {
		nonces := make(map[nonceKey]struct{}, len(set))
		for k := range set {
			nonces[k] = struct{}{}
		}
		cpy.nonces[id] = nonces
	}

	return cpy
}

// =============================================================================

// ApplyTx validates the transaction against the ledger and if that passes,
// applies the effect of the transaction.
func (l *Ledger) ApplyTx(tx SignedTx) error {
	if err := ValidateTx(l, tx); err != nil {
		return err
	}

	r := tx.Record

	var err error
	switch {
	case r.CreateUserAccount != nil:
		err = l.CreateAccount(r.CreateUserAccount.NewID, UserType())

	case r.ChangeStoreValue != nil:
		err = l.UpdateAccount(tx.From, func(a *Account) error {
			a.Store[r.ChangeStoreValue.Key] = r.ChangeStoreValue.Value
			return nil
		})

	case r.TransferToken != nil:
		amount := r.TransferToken.Amount
		err = l.UpdateAccount(tx.From, func(a *Account) error {
			return debit(a, amount)
		})
		if err == nil {
			err = l.UpdateAccount(r.TransferToken.To, func(a *Account) error {
				return credit(a, amount)
			})
		}

	case r.CreateTokens != nil:
		err = l.UpdateAccount(r.CreateTokens.Receiver, func(a *Account) error {
			return credit(a, r.CreateTokens.Amount)
		})
	}

	if err != nil {
		return fmt.Errorf("%w: applying validated tx %s: %s", ErrInternal, tx, err)
	}

	l.ConsumeNonce(tx.From, tx.Nonce)

	return nil
}

// debit removes the amount from the account balance.
func debit(a *Account, amount *uint256.Int) error {
	if a.Tokens.Lt(amount) {
		return fmt.Errorf("%w: bal %s, needed %s", ErrInsufficientFunds, a.Tokens.Dec(), amount.Dec())
	}
	a.Tokens.Sub(&a.Tokens, amount)
	return nil
}

// credit adds the amount to the account balance.
func credit(a *Account, amount *uint256.Int) error {
	var sum uint256.Int
	sum.Add(&a.Tokens, amount)
	if !fits128(&sum) {
		return fmt.Errorf("%w: balance overflow", ErrInvalidAmount)
	}
	a.Tokens = sum
	return nil
}

// fits128 reports whether the value can be represented in 128 bits.
func fits128(v *uint256.Int) bool {
	return v.BitLen() <= 128
}
