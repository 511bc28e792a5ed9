package solana

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

type testProgramError uint32

func (e testProgramError) Error() string {
	return "test program error"
}

func (e testProgramError) CustomError() CustomError {
	return CustomError(e)
}

func TestCustomError(t *testing.T) {
	assert.Equal(t, "custom program error: 0x3", CustomError(3).Error())

	custom, ok := AsCustomError(CustomError(3))
	assert.True(t, ok)
	assert.Equal(t, CustomError(3), custom)

	custom, ok = AsCustomError(errors.Wrap(CustomError(4), "context"))
	assert.True(t, ok)
	assert.Equal(t, CustomError(4), custom)

	custom, ok = AsCustomError(errors.Wrap(testProgramError(5), "context"))
	assert.True(t, ok)
	assert.Equal(t, CustomError(5), custom)

	_, ok = AsCustomError(errors.New("not a program error"))
	assert.False(t, ok)

	_, ok = AsCustomError(nil)
	assert.False(t, ok)
}
