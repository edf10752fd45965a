package database

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/holiman/uint256"
)

// AccountKind identifies the variant of an account.
type AccountKind string

// Set of account kinds.
const (
	KindUser      AccountKind = "user"
	KindContract  AccountKind = "contract"
	KindValidator AccountKind = "validator"
)

// ParseAccountKind converts the string into an account kind.
func ParseAccountKind(s string) (AccountKind, error) {
	switch k := AccountKind(strings.ToLower(s)); k {
	case KindUser, KindContract, KindValidator:
		return k, nil
	}
	return "", fmt.Errorf("unknown account kind %q", s)
}

// ValidatorInfo is the bookkeeping carried by validator accounts.
type ValidatorInfo struct {
	CorrectlyValidatedBlocks   uint64 `json:"correctly_validated_blocks"`
	IncorrectlyValidatedBlocks uint64 `json:"incorrectly_validated_blocks"`
	Flagged                    bool   `json:"flagged"`
}

// AccountType is the tagged variant describing an account. Validator is only
// set when Kind is KindValidator.
type AccountType struct {
	Kind      AccountKind    `json:"kind"`
	Validator *ValidatorInfo `json:"validator,omitempty"`
}

// UserType returns the type for a user account.
func UserType() AccountType {
	return AccountType{Kind: KindUser}
}

// ContractType returns the type for a contract account.
func ContractType() AccountType {
	return AccountType{Kind: KindContract}
}

// ValidatorType returns the type for a validator account.
func ValidatorType(info ValidatorInfo) AccountType {
	return AccountType{Kind: KindValidator, Validator: &info}
}

// IsValidator reports whether the account type is a validator.
func (at AccountType) IsValidator() bool {
	return at.Kind == KindValidator && at.Validator != nil
}

// copy performs a deep copy so the validator info is never shared.
func (at AccountType) copy() AccountType {
	if at.Validator == nil {
		return at
	}
	info := *at.Validator
	return AccountType{Kind: at.Kind, Validator: &info}
}

// =============================================================================

// Account represents information stored in the ledger for an individual account.
type Account struct {
	AccountID AccountID
	Store     map[string]string
	Type      AccountType
	Tokens    uint256.Int
}

// newAccount constructs a new account value for use.
func newAccount(accountID AccountID, accountType AccountType) Account {
	return Account{
		AccountID: accountID,
		Store:     make(map[string]string),
		Type:      accountType.copy(),
	}
}

// copy performs a deep copy of the account.
func (a Account) copy() Account {
	store := make(map[string]string, len(a.Store))
	for k, v := range a.Store {
		store[k] = v
	}

	return Account{
		AccountID: a.AccountID,
		Store:     store,
		Type:      a.Type.copy(),
		Tokens:    a.Tokens,
	}
}

// =============================================================================

// AccountID represents an account id that is used to sign transactions and is
// associated with transactions on the blockchain. It is the hex encoding of
// a compressed secp256k1 public key.
type AccountID string

// compressedKeyLength is the number of bytes in a compressed public key.
const compressedKeyLength = 33

// ToAccountID converts a hex-encoded string to an account and validates the
// hex-encoded string is formatted correctly.
func ToAccountID(hex string) (AccountID, error) {
	a := AccountID(strings.ToLower(hex))
	if !a.IsAccountID() {
		return "", fmt.Errorf("%w: %q", ErrInvalidAccountID, hex)
	}

	return a, nil
}

// PublicKeyToAccountID converts the public key to an account value.
func PublicKeyToAccountID(pk ecdsa.PublicKey) AccountID {
	return AccountID(hexutil.Encode(crypto.CompressPubkey(&pk)))
}

// IsAccountID verifies whether the underlying data represents a valid
// hex-encoded compressed public key.
func (a AccountID) IsAccountID() bool {
	if len(a) != 2+2*compressedKeyLength || a[:2] != "0x" {
		return false
	}

	if a[2:4] != "02" && a[2:4] != "03" {
		return false
	}

	for _, c := range []byte(a[2:]) {
		if !isHexCharacter(c) {
			return false
		}
	}

	return true
}

// PublicKey returns the compressed public key bytes the account id
// represents. The key is validated to be a point on the curve.
func (a AccountID) PublicKey() ([]byte, error) {
	if !a.IsAccountID() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidAccountID, string(a))
	}

	pk, err := hexutil.Decode(string(a))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAccountID, err)
	}

	if _, err := crypto.DecompressPubkey(pk); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrInvalidAccountID, err)
	}

	return pk, nil
}

// isHexCharacter returns bool of c being a valid lowercase hexadecimal.
func isHexCharacter(c byte) bool {
	return ('0' <= c && c <= '9') || ('a' <= c && c <= 'f')
}
