package database

import (
	"crypto/ecdsa"
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"github.com/ardanlabs/ledger/foundation/blockchain/signature"
	"github.com/holiman/uint256"
)

// CreateUserAccount stores a new user account.
type CreateUserAccount struct {
	NewID AccountID `json:"new_id"`
}

// ChangeStoreValue changes a value in the sender's store.
type ChangeStoreValue struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// TransferToken moves tokens from the sender to another account.
type TransferToken struct {
	To     AccountID    `json:"to"`
	Amount *uint256.Int `json:"amount"`
}

// CreateTokens gives newly minted tokens to the receiver.
type CreateTokens struct {
	Receiver AccountID    `json:"receiver"`
	Amount   *uint256.Int `json:"amount"`
}

// Record is the operation a transaction performs. Exactly one of the
// fields must be set.
type Record struct {
	CreateUserAccount *CreateUserAccount `json:"create_user_account,omitempty"`
	ChangeStoreValue  *ChangeStoreValue  `json:"change_store_value,omitempty"`
	TransferToken     *TransferToken     `json:"transfer_token,omitempty"`
	CreateTokens      *CreateTokens      `json:"create_tokens,omitempty"`
}

// CreateUserAccountRecord constructs a record for creating a user account.
func CreateUserAccountRecord(newID AccountID) Record {
	return Record{CreateUserAccount: &CreateUserAccount{NewID: newID}}
}

// ChangeStoreValueRecord constructs a record for changing a store value.
func ChangeStoreValueRecord(key string, value string) Record {
	return Record{ChangeStoreValue: &ChangeStoreValue{Key: key, Value: value}}
}

// TransferTokenRecord constructs a record for transferring tokens.
func TransferTokenRecord(to AccountID, amount uint64) Record {
	return Record{TransferToken: &TransferToken{To: to, Amount: uint256.NewInt(amount)}}
}

// CreateTokensRecord constructs a record for minting tokens.
func CreateTokensRecord(receiver AccountID, amount uint64) Record {
	return Record{CreateTokens: &CreateTokens{Receiver: receiver, Amount: uint256.NewInt(amount)}}
}

// Kind returns the name of the operation for logging.
func (r Record) Kind() string {
	switch {
	case r.CreateUserAccount != nil:
		return "create_user_account"
	case r.ChangeStoreValue != nil:
		return "change_store_value"
	case r.TransferToken != nil:
		return "transfer_token"
	case r.CreateTokens != nil:
		return "create_tokens"
	}
	return "unknown"
}

// set returns the number of operations set in the record.
func (r Record) set() int {
	var n int
	if r.CreateUserAccount != nil {
		n++
	}
	if r.ChangeStoreValue != nil {
		n++
	}
	if r.TransferToken != nil {
		n++
	}
	if r.CreateTokens != nil {
		n++
	}
	return n
}

// =============================================================================

// Tx is a timestamped intent from an account to change the ledger.
type Tx struct {
	Nonce     *uint256.Int `json:"nonce"`      // Unique per sender, prevents replaying a signed transaction.
	From      AccountID    `json:"from"`       // Account that signs the transaction.
	CreatedAt int64        `json:"created_at"` // Unix time in nanoseconds the transaction was created.
	Record    Record       `json:"record"`     // Operation to perform.
}

// NewTx constructs a new transaction.
func NewTx(nonce *uint256.Int, from AccountID, record Record) (Tx, error) {
	if !from.IsAccountID() {
		return Tx{}, fmt.Errorf("from account is not properly formatted: %w", ErrInvalidAccountID)
	}

	if nonce == nil || !fits128(nonce) {
		return Tx{}, errors.New("nonce must be a 128 bit value")
	}

	if record.set() != 1 {
		return Tx{}, ErrInvalidRecord
	}

	tx := Tx{
		Nonce:     new(uint256.Int).Set(nonce),
		From:      from,
		CreatedAt: time.Now().UTC().UnixNano(),
		Record:    record,
	}

	return tx, nil
}

// NewNonce returns a random 128 bit nonce.
func NewNonce() (*uint256.Int, error) {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		return nil, err
	}
	return new(uint256.Int).SetBytes(b[:]), nil
}

// Encode returns the canonical encoding of the transaction. This is
// what is hashed and signed.
func (tx Tx) Encode() ([]byte, error) {
	return canonical.Marshal(toTxBody(tx))
}

// Hash returns the unique hash of the transaction body.
func (tx Tx) Hash() (string, error) {
	data, err := tx.Encode()
	if err != nil {
		return "", err
	}
	return signature.Hash(data), nil
}

// Sign uses the specified private key to sign the transaction.
func (tx Tx) Sign(privateKey *ecdsa.PrivateKey) (SignedTx, error) {

	// The from account must be the account for this private key.
	if PublicKeyToAccountID(privateKey.PublicKey) != tx.From {
		return SignedTx{}, errors.New("private key does not match from account")
	}

	data, err := tx.Encode()
	if err != nil {
		return SignedTx{}, err
	}

	sig, err := signature.Sign(data, privateKey)
	if err != nil {
		return SignedTx{}, err
	}

	signedTx := SignedTx{
		Tx:        tx,
		Signature: sig,
	}

	return signedTx, nil
}

// =============================================================================

// SignedTx is a signed version of the transaction. This is how clients like
// a wallet provide transactions for inclusion into the blockchain.
type SignedTx struct {
	Tx
	Signature string `json:"sig"`
}

// Validate verifies the transaction has a signature that was produced by the
// from account over the transaction body.
func (tx SignedTx) Validate() error {
	if tx.Signature == "" {
		return ErrMissingSignature
	}

	publicKey, err := tx.From.PublicKey()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	data, err := tx.Encode()
	if err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	if err := signature.Verify(data, tx.Signature, publicKey); err != nil {
		return fmt.Errorf("%w: %s", ErrInvalidSignature, err)
	}

	return nil
}

// Key returns the from:nonce pair that uniquely identifies the transaction.
func (tx SignedTx) Key() string {
	return fmt.Sprintf("%s:%x", tx.From, toNonceKey(tx.Nonce))
}

// String implements the fmt.Stringer interface for logging.
func (tx SignedTx) String() string {
	return fmt.Sprintf("%s:%s", tx.Key(), tx.Record.Kind())
}

// Involves reports whether the account sent the transaction or is the
// target of its operation.
func (tx SignedTx) Involves(accountID AccountID) bool {
	if tx.From == accountID {
		return true
	}

	r := tx.Record
	switch {
	case r.CreateUserAccount != nil:
		return r.CreateUserAccount.NewID == accountID
	case r.TransferToken != nil:
		return r.TransferToken.To == accountID
	case r.CreateTokens != nil:
		return r.CreateTokens.Receiver == accountID
	}

	return false
}
