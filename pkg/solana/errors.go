package solana

import (
	"fmt"

	"github.com/pkg/errors"
)

// CustomError is the numerical error returned by a non-system program.
type CustomError uint32

func (c CustomError) Error() string {
	return fmt.Sprintf("custom program error: %#x", uint32(c))
}

// ProgramError is implemented by program specific error enumerations that are
// surfaced on chain as a CustomError.
type ProgramError interface {
	error
	CustomError() CustomError
}

// AsCustomError returns the on-chain representation of err, if it (or any
// error it wraps) is a program error.
func AsCustomError(err error) (CustomError, bool) {
	var custom CustomError
	if errors.As(err, &custom) {
		return custom, true
	}

	var programErr ProgramError
	if errors.As(err, &programErr) {
		return programErr.CustomError(), true
	}

	return 0, false
}
