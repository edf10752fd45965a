package database

import (
	"fmt"

	"github.com/holiman/uint256"
)

// ValidateTx checks the transaction against the snapshot of the ledger. It
// performs no mutation and is run when a transaction is submitted and again
// when it is applied as part of a block.
func ValidateTx(snap Snapshot, tx SignedTx) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	if tx.Nonce == nil || !fits128(tx.Nonce) {
		return fmt.Errorf("%w: nonce must be a 128 bit value", ErrInvalidRecord)
	}

	if snap.NonceConsumed(tx.From, tx.Nonce) {
		return fmt.Errorf("%w: %s", ErrNonceReplay, tx.Key())
	}

	r := tx.Record
	if r.set() != 1 {
		return fmt.Errorf("%w: exactly one operation must be set", ErrInvalidRecord)
	}

	switch {
	case r.CreateUserAccount != nil:
		return validateCreateUserAccount(snap, r.CreateUserAccount)

	case r.ChangeStoreValue != nil:
		if _, exists := snap.Account(tx.From); !exists {
			return fmt.Errorf("%w: %s", ErrUnknownSender, tx.From)
		}
		return nil

	case r.TransferToken != nil:
		return validateTransferToken(snap, tx.From, r.TransferToken)

	default:
		return validateCreateTokens(snap, tx.From, r.CreateTokens)
	}
}

// =============================================================================

func validateCreateUserAccount(snap Snapshot, op *CreateUserAccount) error {
	if !op.NewID.IsAccountID() {
		return fmt.Errorf("%w: %q", ErrInvalidAccountID, op.NewID)
	}

	if _, exists := snap.Account(op.NewID); exists {
		return fmt.Errorf("%w: %s", ErrAccountExists, op.NewID)
	}

	return nil
}

func validateTransferToken(snap Snapshot, from AccountID, op *TransferToken) error {
	if err := validateAmount(op.Amount); err != nil {
		return err
	}

	sender, exists := snap.Account(from)
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownSender, from)
	}

	// Funds are checked before the recipient so a sender learns about an
	// overdraft regardless of who the tokens were sent to.
	if sender.Tokens.Lt(op.Amount) {
		return fmt.Errorf("%w: bal %s, needed %s", ErrInsufficientFunds, sender.Tokens.Dec(), op.Amount.Dec())
	}

	recipient, exists := snap.Account(op.To)
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownRecipient, op.To)
	}

	// Sending to yourself leaves the balance where it is.
	if from == op.To {
		return nil
	}

	return validateCredit(recipient, op.Amount)
}

func validateCreateTokens(snap Snapshot, from AccountID, op *CreateTokens) error {
	if err := validateAmount(op.Amount); err != nil {
		return err
	}

	minter, exists := snap.Account(from)
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownSender, from)
	}

	if !minter.Type.IsValidator() {
		return fmt.Errorf("%w: %s is not a validator", ErrUnauthorized, from)
	}

	if minter.Type.Validator.Flagged {
		return fmt.Errorf("%w: validator %s is flagged", ErrUnauthorized, from)
	}

	receiver, exists := snap.Account(op.Receiver)
	if !exists {
		return fmt.Errorf("%w: %s", ErrUnknownRecipient, op.Receiver)
	}

	return validateCredit(receiver, op.Amount)
}

// validateAmount checks the amount is present, not zero, and fits in 128 bits.
func validateAmount(amount *uint256.Int) error {
	switch {
	case amount == nil || amount.IsZero():
		return fmt.Errorf("%w: amount must be greater than zero", ErrInvalidAmount)
	case !fits128(amount):
		return fmt.Errorf("%w: amount exceeds 128 bits", ErrInvalidAmount)
	}
	return nil
}

// validateCredit checks the account balance can receive the amount.
func validateCredit(account Account, amount *uint256.Int) error {
	var sum uint256.Int
	sum.Add(&account.Tokens, amount)
	if !fits128(&sum) {
		return fmt.Errorf("%w: balance of %s would exceed 128 bits", ErrInvalidAmount, account.AccountID)
	}
	return nil
}
