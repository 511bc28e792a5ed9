package memory

import (
	"testing"

	"github.com/code-payments/account-resolution/pkg/validationstore/tests"
)

func TestValidationMemoryStore(t *testing.T) {
	testStore := New()
	teardown := func() {
		testStore.(*store).reset()
	}
	tests.RunTests(t, testStore, teardown)
}
