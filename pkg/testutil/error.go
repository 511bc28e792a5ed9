package testutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/account-resolution/pkg/solana"
)

// AssertCustomError verifies that the provided error surfaces as the provided
// custom program error code.
func AssertCustomError(t *testing.T, err error, code solana.CustomError) {
	require.Error(t, err)
	actual, ok := solana.AsCustomError(err)
	require.True(t, ok)
	assert.Equal(t, code, actual)
}
