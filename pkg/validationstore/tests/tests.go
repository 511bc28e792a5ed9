package tests

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/account-resolution/pkg/solana"
	"github.com/code-payments/account-resolution/pkg/testutil"
	"github.com/code-payments/account-resolution/pkg/validationstore"
)

func RunTests(t *testing.T, s validationstore.Store, teardown func()) {
	for _, tf := range []func(t *testing.T, s validationstore.Store){
		testHappyPath,
		testGetAllByProgram,
		testInvalidRecord,
	} {
		tf(t, s)
		teardown()
	}
}

// NewTestRecord returns a valid record with a random address and program.
func NewTestRecord(t *testing.T) *validationstore.Record {
	keys := testutil.GenerateSolanaKeys(t, 2)
	return &validationstore.Record{
		Address: solana.PublicKeyToString(keys[0]),
		Program: solana.PublicKeyToString(keys[1]),
		Data:    []byte{1, 2, 3, 4},
	}
}

func testHappyPath(t *testing.T, s validationstore.Store) {
	t.Run("testHappyPath", func(t *testing.T) {
		ctx := context.Background()
		start := time.Now()
		time.Sleep(time.Millisecond)

		record := NewTestRecord(t)
		cloned := record.Clone()

		_, err := s.Get(ctx, record.Address)
		assert.Equal(t, validationstore.ErrNotFound, err)

		assert.Equal(t, validationstore.ErrNotFound, s.Update(ctx, record))

		require.NoError(t, s.Put(ctx, record))
		assert.True(t, record.CreatedAt.After(start))

		assert.Equal(t, validationstore.ErrAlreadyExists, s.Put(ctx, record))

		actual, err := s.Get(ctx, record.Address)
		require.NoError(t, err)
		assert.True(t, actual.CreatedAt.After(start))
		assert.True(t, actual.LastUpdatedAt.After(start))
		assertEquivalentRecords(t, &cloned, actual)

		// Returned records don't alias stored data
		actual.Data[0] = 0xff
		actual, err = s.Get(ctx, record.Address)
		require.NoError(t, err)
		assert.EqualValues(t, 1, actual.Data[0])

		updateTime := time.Now()
		time.Sleep(time.Millisecond)
		record.Data = []byte{5, 6, 7, 8, 9}
		cloned = record.Clone()
		require.NoError(t, s.Update(ctx, record))
		assert.True(t, record.LastUpdatedAt.After(updateTime))

		actual, err = s.Get(ctx, record.Address)
		require.NoError(t, err)
		assert.True(t, actual.CreatedAt.Before(updateTime))
		assert.True(t, actual.LastUpdatedAt.After(updateTime))
		assertEquivalentRecords(t, &cloned, actual)

		// Program can't be changed by an update
		other := NewTestRecord(t)
		other.Address = record.Address
		assert.Equal(t, validationstore.ErrNotFound, s.Update(ctx, other))
	})
}

func testGetAllByProgram(t *testing.T, s validationstore.Store) {
	t.Run("testGetAllByProgram", func(t *testing.T) {
		ctx := context.Background()

		program := NewTestRecord(t).Program

		_, err := s.GetAllByProgram(ctx, program)
		assert.Equal(t, validationstore.ErrNotFound, err)

		var expected []*validationstore.Record
		for i := 0; i < 5; i++ {
			record := NewTestRecord(t)
			record.Program = program
			record.Data = []byte{byte(i)}
			require.NoError(t, s.Put(ctx, record))
			expected = append(expected, record)
		}

		require.NoError(t, s.Put(ctx, NewTestRecord(t)))

		actual, err := s.GetAllByProgram(ctx, program)
		require.NoError(t, err)
		require.Len(t, actual, len(expected))

		for i := 1; i < len(actual); i++ {
			assert.True(t, actual[i-1].Address < actual[i].Address)
		}

		for _, record := range expected {
			var found bool
			for _, item := range actual {
				if item.Address == record.Address {
					assertEquivalentRecords(t, record, item)
					found = true
				}
			}
			assert.True(t, found)
		}
	})
}

func testInvalidRecord(t *testing.T, s validationstore.Store) {
	t.Run("testInvalidRecord", func(t *testing.T) {
		ctx := context.Background()

		for _, mutate := range []func(r *validationstore.Record){
			func(r *validationstore.Record) { r.Address = "" },
			func(r *validationstore.Record) { r.Address = "invalid" },
			func(r *validationstore.Record) { r.Program = "" },
			func(r *validationstore.Record) { r.Data = nil },
		} {
			record := NewTestRecord(t)
			mutate(record)

			assert.Error(t, s.Put(ctx, record))
			assert.Error(t, s.Update(ctx, record))
		}
	})
}

func assertEquivalentRecords(t *testing.T, obj1, obj2 *validationstore.Record) {
	assert.Equal(t, obj1.Address, obj2.Address)
	assert.Equal(t, obj1.Program, obj2.Program)
	assert.Equal(t, obj1.Data, obj2.Data)
}
