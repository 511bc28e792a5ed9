package accountresolution

import (
	"crypto/ed25519"
	"math/rand"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/account-resolution/pkg/solana"
	"github.com/code-payments/account-resolution/pkg/solana/tlv"
	"github.com/code-payments/account-resolution/pkg/testutil"
)

func TestExtendInstruction_FixedRoundTrip(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 6)
	program := keys[0]

	metas := []solana.AccountMeta{
		solana.NewAccountMeta(keys[1], true),
		solana.NewReadonlyAccountMeta(keys[2], false),
		solana.NewAccountMeta(keys[3], false),
		solana.NewReadonlyAccountMeta(keys[4], true),
	}
	data := initList(t, testDiscriminator, requirementsFromMetas(metas))

	original := solana.NewAccountMeta(keys[5], false)
	ix := solana.NewInstruction(program, []byte{1, 2, 3}, original)

	require.NoError(t, ExtendInstruction(&ix, data, testDiscriminator))
	require.Len(t, ix.Accounts, 1+len(metas))
	assert.True(t, original.Equal(ix.Accounts[0]))
	for i, meta := range metas {
		assert.True(t, meta.Equal(ix.Accounts[i+1]))
	}
	assert.Equal(t, []byte{1, 2, 3}, ix.Data)
	assert.EqualValues(t, program, ix.Program)
}

func TestExtendInstruction_Scenario(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 3)
	program, a, b := keys[0], keys[1], keys[2]

	data := initList(t, testDiscriminator, []AccountRequirement{
		NewFixedRequirement(a, false, true),
		mustNewDerivedRequirement(t, []Seed{
			LiteralSeed{Bytes: []byte("seed")},
			InstructionDataSeed{Index: 0, Length: 1},
			AccountKeySeed{Index: 0},
		}, false, false),
	})

	ix := solana.NewInstruction(program, []byte{7}, solana.NewReadonlyAccountMeta(b, false))
	require.NoError(t, ExtendInstruction(&ix, data, testDiscriminator))

	expected, err := solana.FindProgramAddress(program, []byte("seed"), []byte{7}, b)
	require.NoError(t, err)

	require.Len(t, ix.Accounts, 3)
	assert.True(t, solana.NewReadonlyAccountMeta(b, false).Equal(ix.Accounts[0]))
	assert.True(t, solana.NewAccountMeta(a, false).Equal(ix.Accounts[1]))
	assert.True(t, solana.NewReadonlyAccountMeta(expected, false).Equal(ix.Accounts[2]))
}

func TestExtendInstruction_Deterministic(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 2)
	program := keys[0]

	data := initList(t, testDiscriminator, []AccountRequirement{
		mustNewDerivedRequirement(t, []Seed{
			InstructionDataSeed{Index: 2, Length: 4},
			AccountKeySeed{Index: 0},
		}, true, true),
	})

	var resolved []ed25519.PublicKey
	for i := 0; i < 3; i++ {
		ix := solana.NewInstruction(program, []byte{0, 1, 2, 3, 4, 5}, solana.NewAccountMeta(keys[1], true))
		require.NoError(t, ExtendInstruction(&ix, data, testDiscriminator))
		require.Len(t, ix.Accounts, 2)
		assert.True(t, ix.Accounts[1].IsSigner)
		assert.True(t, ix.Accounts[1].IsWritable)
		resolved = append(resolved, ix.Accounts[1].PublicKey)
	}

	assert.Equal(t, resolved[0], resolved[1])
	assert.Equal(t, resolved[0], resolved[2])

	// Different instruction data yields a different address
	ix := solana.NewInstruction(program, []byte{0, 1, 2, 3, 4, 6}, solana.NewAccountMeta(keys[1], true))
	require.NoError(t, ExtendInstruction(&ix, data, testDiscriminator))
	assert.NotEqual(t, resolved[0], ix.Accounts[1].PublicKey)
}

func TestExtendInstruction_Chaining(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 2)
	program := keys[0]

	data := initList(t, testDiscriminator, []AccountRequirement{
		mustNewDerivedRequirement(t, []Seed{
			LiteralSeed{Bytes: []byte("first")},
			AccountKeySeed{Index: 0},
		}, false, true),
		mustNewDerivedRequirement(t, []Seed{
			LiteralSeed{Bytes: []byte("second")},
			AccountKeySeed{Index: 1},
		}, false, false),
		mustNewDerivedRequirement(t, []Seed{
			AccountKeySeed{Index: 2},
			AccountKeySeed{Index: 1},
		}, false, false),
	})

	ix := solana.NewInstruction(program, nil, solana.NewAccountMeta(keys[1], true))
	require.NoError(t, ExtendInstruction(&ix, data, testDiscriminator))
	require.Len(t, ix.Accounts, 4)

	first, err := solana.FindProgramAddress(program, []byte("first"), keys[1])
	require.NoError(t, err)
	second, err := solana.FindProgramAddress(program, []byte("second"), first)
	require.NoError(t, err)
	third, err := solana.FindProgramAddress(program, second, first)
	require.NoError(t, err)

	assert.EqualValues(t, first, ix.Accounts[1].PublicKey)
	assert.EqualValues(t, second, ix.Accounts[2].PublicKey)
	assert.EqualValues(t, third, ix.Accounts[3].PublicKey)
}

func TestExtendInstruction_AccountNotFound(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 4)
	program := keys[0]

	data := initList(t, testDiscriminator, []AccountRequirement{
		mustNewDerivedRequirement(t, []Seed{AccountKeySeed{Index: 5}}, false, false),
	})

	accounts := []solana.AccountMeta{
		solana.NewAccountMeta(keys[1], true),
		solana.NewAccountMeta(keys[2], false),
		solana.NewReadonlyAccountMeta(keys[3], false),
	}
	ix := solana.NewInstruction(program, nil, accounts...)

	err := ExtendInstruction(&ix, data, testDiscriminator)
	assert.Equal(t, ErrAccountNotFound, err)
	assert.Equal(t, accounts, ix.Accounts)
}

func TestExtendInstruction_ForwardReference(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 3)
	program := keys[0]

	// The second requirement references the third, which hasn't been
	// resolved yet.
	data := initList(t, testDiscriminator, []AccountRequirement{
		NewFixedRequirement(keys[1], false, false),
		mustNewDerivedRequirement(t, []Seed{AccountKeySeed{Index: 3}}, false, false),
		NewFixedRequirement(keys[2], false, false),
	})

	ix := solana.NewInstruction(program, nil, solana.NewAccountMeta(keys[0], false))
	err := ExtendInstruction(&ix, data, testDiscriminator)
	assert.Equal(t, ErrAccountNotFound, err)
	assert.Len(t, ix.Accounts, 1)
}

func TestExtendInstruction_InstructionDataTooSmall(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 1)

	data := initList(t, testDiscriminator, []AccountRequirement{
		mustNewDerivedRequirement(t, []Seed{InstructionDataSeed{Index: 1, Length: 8}}, false, false),
	})

	ix := solana.NewInstruction(keys[0], make([]byte, 8))
	err := ExtendInstruction(&ix, data, testDiscriminator)
	testutil.AssertCustomError(t, err, ErrInstructionDataTooSmall.CustomError())
	assert.Empty(t, ix.Accounts)
}

func TestExtendInstruction_MissingList(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 1)
	data := initList(t, testDiscriminator, nil)

	ix := solana.NewInstruction(keys[0], nil)
	require.NoError(t, ExtendInstruction(&ix, data, testDiscriminator))
	assert.Empty(t, ix.Accounts)

	err := ExtendInstruction(&ix, data, testOtherDiscriminator)
	assert.ErrorIs(t, err, tlv.ErrTypeNotFound)
}

func TestExtendInstruction_TraceLogging(t *testing.T) {
	hook := testutil.CaptureLogs(t)

	keys := testutil.GenerateSolanaKeys(t, 2)
	data := initList(t, testDiscriminator, []AccountRequirement{
		NewFixedRequirement(keys[1], false, true),
	})

	ix := solana.NewInstruction(keys[0], nil)
	require.NoError(t, ExtendInstruction(&ix, data, testDiscriminator))

	var found bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == logrus.TraceLevel && entry.Message == "resolved account" {
			assert.Equal(t, solana.PublicKeyToString(keys[1]), entry.Data["account"])
			found = true
		}
	}
	assert.True(t, found)
}

func TestExtendInstructionAndAccountInfos(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 4)
	program, owner := keys[0], keys[1]

	requirements := []AccountRequirement{
		NewFixedRequirement(keys[2], false, true),
		mustNewDerivedRequirement(t, []Seed{
			LiteralSeed{Bytes: []byte("pda")},
			AccountKeySeed{Index: 1},
		}, false, true),
		NewFixedRequirement(keys[3], false, false),
	}
	data := initList(t, testDiscriminator, requirements)

	pda, err := solana.FindProgramAddress(program, []byte("pda"), keys[2])
	require.NoError(t, err)

	unrelated := testutil.GenerateSolanaKeys(t, 3)
	pool := testutil.GenerateAccountInfos(t, owner, append([]ed25519.PublicKey{keys[2], pda, keys[3], owner}, unrelated...)...)

	caller := solana.NewAccountInfo(owner, true, true, 100, nil, program)

	var expectedAccounts []solana.AccountMeta
	var expectedInfos []solana.AccountInfo

	r := rand.New(rand.NewSource(1))
	for i := 0; i < 10; i++ {
		shuffled := make([]solana.AccountInfo, len(pool))
		copy(shuffled, pool)
		r.Shuffle(len(shuffled), func(i, j int) { shuffled[i], shuffled[j] = shuffled[j], shuffled[i] })

		ix := solana.NewInstruction(program, nil, caller.AccountMeta())
		infos := []solana.AccountInfo{caller}

		require.NoError(t, ExtendInstructionAndAccountInfos(&ix, &infos, data, testDiscriminator, shuffled))
		require.Len(t, ix.Accounts, 4)
		require.Len(t, infos, 4)

		assert.EqualValues(t, caller.PublicKey, infos[0].PublicKey)
		for j, meta := range ix.Accounts {
			assert.EqualValues(t, meta.PublicKey, infos[j].PublicKey)
		}
		assert.EqualValues(t, keys[2], infos[1].PublicKey)
		assert.EqualValues(t, pda, infos[2].PublicKey)
		assert.EqualValues(t, keys[3], infos[3].PublicKey)

		if expectedAccounts == nil {
			expectedAccounts = ix.Accounts
			expectedInfos = infos
			continue
		}
		assert.Equal(t, expectedAccounts, ix.Accounts)
		assert.Equal(t, expectedInfos, infos)
	}
}

func TestExtendInstructionAndAccountInfos_IncorrectAccount(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 4)
	program := keys[0]

	data := initList(t, testDiscriminator, []AccountRequirement{
		NewFixedRequirement(keys[1], false, true),
		NewFixedRequirement(keys[2], false, true),
	})

	pool := testutil.GenerateAccountInfos(t, program, keys[1], keys[3])

	accounts := []solana.AccountMeta{solana.NewAccountMeta(keys[3], false)}
	ix := solana.NewInstruction(program, nil, accounts...)
	infos := []solana.AccountInfo{pool[1]}

	err := ExtendInstructionAndAccountInfos(&ix, &infos, data, testDiscriminator, pool)
	assert.Equal(t, ErrIncorrectAccount, err)
	assert.Equal(t, accounts, ix.Accounts)
	assert.Equal(t, []solana.AccountInfo{pool[1]}, infos)
}

func TestExtendInstructionAndAccountInfos_ResolutionFailure(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 2)
	program := keys[0]

	data := initList(t, testDiscriminator, []AccountRequirement{
		NewFixedRequirement(keys[1], false, true),
		mustNewDerivedRequirement(t, []Seed{AccountKeySeed{Index: 10}}, false, false),
	})

	pool := testutil.GenerateAccountInfos(t, program, keys[1])

	ix := solana.NewInstruction(program, nil)
	var infos []solana.AccountInfo

	err := ExtendInstructionAndAccountInfos(&ix, &infos, data, testDiscriminator, pool)
	assert.Equal(t, ErrAccountNotFound, err)
	assert.Empty(t, ix.Accounts)
	assert.Empty(t, infos)
}

func initList(t *testing.T, d tlv.Discriminator, requirements []AccountRequirement) []byte {
	size, err := SizeOf(len(requirements))
	require.NoError(t, err)

	data := make([]byte, size)
	require.NoError(t, InitWithRequirements(data, d, requirements))
	return data
}

func requirementsFromMetas(metas []solana.AccountMeta) []AccountRequirement {
	requirements := make([]AccountRequirement, len(metas))
	for i, meta := range metas {
		requirements[i] = RequirementFromAccountMeta(meta)
	}
	return requirements
}
