package database

import "errors"

// Set of errors returned when a transaction or block is rejected. Callers
// should use errors.Is since these are usually wrapped with more context.
var (
	ErrAccountExists      = errors.New("account exists")
	ErrUnknownAccount     = errors.New("unknown account")
	ErrUnknownSender      = errors.New("unknown sender")
	ErrUnknownRecipient   = errors.New("unknown recipient")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInvalidAmount      = errors.New("invalid amount")
	ErrInvalidAccountID   = errors.New("invalid account id")
	ErrInvalidRecord      = errors.New("invalid transaction record")
	ErrUnauthorized       = errors.New("unauthorized")
	ErrMissingSignature   = errors.New("missing signature")
	ErrInvalidSignature   = errors.New("invalid signature")
	ErrNonceReplay        = errors.New("nonce replay")
	ErrChainLinkMismatch  = errors.New("chain link mismatch")
	ErrProofOfWorkInvalid = errors.New("proof of work invalid")
	ErrEmptyBlock         = errors.New("empty block rejected")
)

// ErrInternal is returned when a block passed validation but could not be
// applied. This represents a bug and not bad input.
var ErrInternal = errors.New("internal ledger error")

// rejections is the set of errors caused by bad input.
var rejections = []error{
	ErrAccountExists,
	ErrUnknownAccount,
	ErrUnknownSender,
	ErrUnknownRecipient,
	ErrInsufficientFunds,
	ErrInvalidAmount,
	ErrInvalidAccountID,
	ErrInvalidRecord,
	ErrUnauthorized,
	ErrMissingSignature,
	ErrInvalidSignature,
	ErrNonceReplay,
	ErrChainLinkMismatch,
	ErrProofOfWorkInvalid,
	ErrEmptyBlock,
}

// IsRejection reports whether the error was caused by a transaction or block
// that failed validation.
func IsRejection(err error) bool {
	for _, r := range rejections {
		if errors.Is(err, r) {
			return true
		}
	}
	return false
}
