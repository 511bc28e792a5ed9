package accountresolution

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/account-resolution/pkg/solana"
	"github.com/code-payments/account-resolution/pkg/testutil"
)

func TestRequirementSize(t *testing.T) {
	assert.Equal(t, 34, SeedSize)
	assert.Equal(t, 276, RequirementSize)
}

func TestRequirement_FixedLayout(t *testing.T) {
	address := testutil.GenerateSolanaKeys(t, 1)[0]

	data, err := NewFixedRequirement(address, false, true).Marshal()
	require.NoError(t, err)
	require.Len(t, data, RequirementSize)

	assert.EqualValues(t, RequirementTypeFixed, data[0])
	assert.EqualValues(t, address, data[1:33])
	assert.Equal(t, make([]byte, 274-33), data[33:274])
	assert.EqualValues(t, 0, data[274])
	assert.EqualValues(t, 1, data[275])

	var actual AccountRequirement
	require.NoError(t, actual.Unmarshal(data))
	assert.Equal(t, RequirementTypeFixed, actual.Type)
	assert.EqualValues(t, address, actual.Address)
	assert.Nil(t, actual.Seeds)
	assert.False(t, actual.IsSigner)
	assert.True(t, actual.IsWritable)
}

func TestRequirement_DerivedLayout(t *testing.T) {
	seeds := []Seed{
		LiteralSeed{Bytes: []byte("seed")},
		InstructionDataSeed{Index: 0, Length: 1},
		AccountKeySeed{Index: 0},
	}

	requirement, err := NewDerivedRequirement(seeds, true, false)
	require.NoError(t, err)

	data, err := requirement.Marshal()
	require.NoError(t, err)

	assert.EqualValues(t, RequirementTypeDerived, data[0])
	assert.EqualValues(t, 3, data[1])
	assert.EqualValues(t, SeedTypeLiteral, data[2])
	assert.EqualValues(t, SeedTypeInstructionData, data[2+SeedSize])
	assert.EqualValues(t, SeedTypeAccountKey, data[2+2*SeedSize])
	assert.Equal(t, make([]byte, 5*SeedSize), data[2+3*SeedSize:274])
	assert.EqualValues(t, 1, data[274])
	assert.EqualValues(t, 0, data[275])

	var actual AccountRequirement
	require.NoError(t, actual.Unmarshal(data))
	assert.Equal(t, requirement, actual)
}

func TestRequirement_Validate(t *testing.T) {
	address := testutil.GenerateSolanaKeys(t, 1)[0]

	assert.NoError(t, NewFixedRequirement(address, false, false).Validate())
	assert.Equal(t, ErrInvalidPubkey, NewFixedRequirement(address[:31], false, false).Validate())

	_, err := NewDerivedRequirement(nil, false, false)
	assert.Equal(t, ErrInvalidSeedConfig, err)

	seeds := make([]Seed, MaxSeeds)
	for i := range seeds {
		seeds[i] = AccountKeySeed{Index: uint8(i)}
	}
	_, err = NewDerivedRequirement(seeds, false, false)
	assert.NoError(t, err)

	_, err = NewDerivedRequirement(append(seeds, AccountKeySeed{}), false, false)
	assert.Equal(t, ErrSeedConfigsTooLarge, err)

	_, err = NewDerivedRequirement([]Seed{LiteralSeed{Bytes: make([]byte, 33)}}, false, false)
	assert.Equal(t, ErrInvalidSeedConfig, err)

	_, err = NewDerivedRequirement([]Seed{nil}, false, false)
	assert.Equal(t, ErrInvalidSeedConfig, err)

	assert.Equal(t, ErrInvalidSeedConfig, AccountRequirement{Type: 2}.Validate())

	_, err = AccountRequirement{Type: 2}.Marshal()
	assert.Equal(t, ErrInvalidSeedConfig, err)
}

func TestRequirement_UnmarshalInvalid(t *testing.T) {
	var r AccountRequirement
	assert.Equal(t, ErrNotEnoughBytesForSeed, r.Unmarshal(make([]byte, RequirementSize-1)))

	data := make([]byte, RequirementSize)
	data[0] = 2
	assert.Equal(t, ErrInvalidSeedConfig, r.Unmarshal(data))

	data[0] = byte(RequirementTypeDerived)
	assert.Equal(t, ErrInvalidBytesForSeed, r.Unmarshal(data))

	data[1] = MaxSeeds + 1
	assert.Equal(t, ErrInvalidBytesForSeed, r.Unmarshal(data))

	// Seed count covers an uninitialized seed
	data[1] = 1
	assert.Equal(t, ErrInvalidBytesForSeed, r.Unmarshal(data))
}

func TestRequirement_AccountMeta(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 1)

	meta, err := NewFixedRequirement(keys[0], true, false).AccountMeta()
	require.NoError(t, err)
	assert.True(t, meta.Equal(solana.NewReadonlyAccountMeta(keys[0], true)))

	derived, err := NewDerivedRequirement([]Seed{LiteralSeed{Bytes: []byte("seed")}}, false, false)
	require.NoError(t, err)

	_, err = derived.AccountMeta()
	assert.Equal(t, ErrAccountTypeNotAccountMeta, err)
}

func TestRequirement_FromAccount(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 2)

	r := RequirementFromAccountMeta(solana.NewAccountMeta(keys[0], true))
	assert.Equal(t, NewFixedRequirement(keys[0], true, true), r)

	info := solana.NewAccountInfo(keys[1], false, true, 10, []byte{1, 2}, keys[0])
	r = RequirementFromAccountInfo(info)
	assert.Equal(t, NewFixedRequirement(keys[1], false, true), r)
}

func TestRequirement_Resolve(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 2)
	program := keys[0]

	requirement, err := NewDerivedRequirement([]Seed{
		LiteralSeed{Bytes: []byte("seed")},
		AccountKeySeed{Index: 0},
	}, false, true)
	require.NoError(t, err)

	expected, err := solana.FindProgramAddress(program, []byte("seed"), keys[1])
	require.NoError(t, err)

	meta, err := requirement.Resolve(program, keys[1:], nil)
	require.NoError(t, err)
	assert.EqualValues(t, expected, meta.PublicKey)
	assert.False(t, meta.IsSigner)
	assert.True(t, meta.IsWritable)

	_, err = requirement.Resolve(program, nil, nil)
	assert.Equal(t, ErrAccountNotFound, err)
}
