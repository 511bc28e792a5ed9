package accountresolution

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"

	"github.com/code-payments/account-resolution/pkg/solana"
	"github.com/code-payments/account-resolution/pkg/testutil"
)

func TestErrorCodes(t *testing.T) {
	assert.EqualValues(t, 2_724_315_840, ErrIncorrectAccount)
	assert.EqualValues(t, 2_724_315_841, ErrNotEnoughAccounts)
	assert.EqualValues(t, 2_724_315_852, ErrAccountNotFound)
	assert.EqualValues(t, 2_724_315_853, ErrCalculationFailure)

	for code := ErrIncorrectAccount; code <= ErrCalculationFailure; code++ {
		assert.NotContains(t, code.Error(), "unknown")

		actual, ok := ErrorFromCode(code.CustomError())
		assert.True(t, ok)
		assert.Equal(t, code, actual)
	}

	_, ok := ErrorFromCode(solana.CustomError(0))
	assert.False(t, ok)
	assert.Contains(t, AccountResolutionError(1).Error(), "unknown")
}

func TestErrorAsCustomError(t *testing.T) {
	err := errors.Wrap(ErrAccountNotFound, "error resolving")
	assert.True(t, errors.Is(err, ErrAccountNotFound))
	testutil.AssertCustomError(t, err, solana.CustomError(2_724_315_852))
}
