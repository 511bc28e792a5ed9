package accountresolution

import (
	"fmt"

	"github.com/code-payments/account-resolution/pkg/solana"
)

// AccountResolutionError is a program error code returned by account
// resolution. Codes are stable and surface on chain as custom program errors.
type AccountResolutionError uint32

const (
	ErrIncorrectAccount AccountResolutionError = iota + 2_724_315_840
	ErrNotEnoughAccounts
	ErrTlvUninitialized
	ErrTlvInitialized
	ErrTooManyPubkeys
	ErrInvalidPubkey
	ErrAccountTypeNotAccountMeta
	ErrSeedConfigsTooLarge
	ErrNotEnoughBytesForSeed
	ErrInvalidBytesForSeed
	ErrInvalidSeedConfig
	ErrInstructionDataTooSmall
	ErrAccountNotFound
	ErrCalculationFailure
)

var errorMessages = map[AccountResolutionError]string{
	ErrIncorrectAccount:          "incorrect account provided",
	ErrNotEnoughAccounts:         "not enough accounts provided",
	ErrTlvUninitialized:          "no value initialized in tlv data",
	ErrTlvInitialized:            "some value initialized in tlv data",
	ErrTooManyPubkeys:            "too many pubkeys provided",
	ErrInvalidPubkey:             "failed to parse pubkey from bytes",
	ErrAccountTypeNotAccountMeta: "account requirement has seed configurations rather than a fixed address",
	ErrSeedConfigsTooLarge:       "provided list of seed configurations too large for a validation account",
	ErrNotEnoughBytesForSeed:     "not enough bytes available to pack seed configuration",
	ErrInvalidBytesForSeed:       "the provided bytes are not valid for a seed configuration",
	ErrInvalidSeedConfig:         "tried to pack an invalid seed configuration",
	ErrInstructionDataTooSmall:   "instruction data too small for seed configuration",
	ErrAccountNotFound:           "could not find account at specified index",
	ErrCalculationFailure:        "error in checked math operation",
}

func (e AccountResolutionError) Error() string {
	if msg, ok := errorMessages[e]; ok {
		return msg
	}
	return fmt.Sprintf("unknown account resolution error: %d", uint32(e))
}

// CustomError returns the custom program error carrying this code.
func (e AccountResolutionError) CustomError() solana.CustomError {
	return solana.CustomError(e)
}

// ErrorFromCode returns the AccountResolutionError for a custom program error
// code, if it is one.
func ErrorFromCode(code solana.CustomError) (AccountResolutionError, bool) {
	e := AccountResolutionError(code)
	_, ok := errorMessages[e]
	return e, ok
}
