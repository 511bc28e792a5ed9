package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/code-payments/account-resolution/pkg/solana"
	"github.com/code-payments/account-resolution/pkg/solana/accountresolution"
	"github.com/code-payments/account-resolution/pkg/solana/tlv"
	"github.com/code-payments/account-resolution/pkg/testutil"
)

func TestLoad(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 4)
	program, address, fixed, caller := keys[0], keys[1], keys[2], keys[3]

	doc := fmt.Sprintf(`
program: %s
address: %s
lists:
  - discriminator_name: "test:execute"
    requirements:
      - address: %s
        writable: true
      - seeds:
          - literal: "seed"
          - literal_hex: "0a0b"
          - instruction_data: {index: 8, length: 1}
          - account_key: 0
        signer: true
  - discriminator: "0102030405060708"
    requirements: []
instructions:
  - discriminator_name: "test:execute"
    data: "%s07"
    accounts:
      - address: %s
        signer: true
        writable: true
  - discriminator: "0102030405060708"
`,
		solana.PublicKeyToString(program),
		solana.PublicKeyToString(address),
		solana.PublicKeyToString(fixed),
		tlv.NewDiscriminatorFromHash("test:execute").String(),
		solana.PublicKeyToString(caller),
	)

	path := filepath.Join(t.TempDir(), "manifest.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0644))

	m, err := Load(path)
	require.NoError(t, err)

	actualProgram, err := m.ProgramKey()
	require.NoError(t, err)
	assert.EqualValues(t, program, actualProgram)

	actualAddress, err := m.AddressKey()
	require.NoError(t, err)
	assert.EqualValues(t, address, actualAddress)

	require.Len(t, m.Lists, 2)

	d, err := m.Lists[0].ToDiscriminator()
	require.NoError(t, err)
	assert.Equal(t, tlv.NewDiscriminatorFromHash("test:execute"), d)

	requirements, err := m.Lists[0].ToRequirements()
	require.NoError(t, err)
	require.Len(t, requirements, 2)
	assert.Equal(t, accountresolution.NewFixedRequirement(fixed, false, true), requirements[0])

	expectedDerived, err := accountresolution.NewDerivedRequirement([]accountresolution.Seed{
		accountresolution.LiteralSeed{Bytes: []byte("seed")},
		accountresolution.LiteralSeed{Bytes: []byte{0x0a, 0x0b}},
		accountresolution.InstructionDataSeed{Index: 8, Length: 1},
		accountresolution.AccountKeySeed{Index: 0},
	}, true, false)
	require.NoError(t, err)
	assert.Equal(t, expectedDerived, requirements[1])

	d, err = m.Lists[1].ToDiscriminator()
	require.NoError(t, err)
	assert.Equal(t, tlv.Discriminator{1, 2, 3, 4, 5, 6, 7, 8}, d)

	requirements, err = m.Lists[1].ToRequirements()
	require.NoError(t, err)
	assert.Empty(t, requirements)

	require.Len(t, m.Instructions, 2)

	ix, d, err := m.Instructions[0].ToInstruction(program)
	require.NoError(t, err)
	assert.Equal(t, tlv.NewDiscriminatorFromHash("test:execute"), d)
	assert.EqualValues(t, program, ix.Program)
	assert.Equal(t, append(d[:], 7), ix.Data)
	require.Len(t, ix.Accounts, 1)
	assert.True(t, solana.NewAccountMeta(caller, true).Equal(ix.Accounts[0]))

	ix, d, err = m.Instructions[1].ToInstruction(program)
	require.NoError(t, err)
	assert.Equal(t, d[:], ix.Data)
	assert.Empty(t, ix.Accounts)
}

func TestParse_Invalid(t *testing.T) {
	keys := testutil.GenerateSolanaKeys(t, 2)
	program := solana.PublicKeyToString(keys[0])
	address := solana.PublicKeyToString(keys[1])

	for _, tc := range []struct {
		name string
		doc  string
	}{
		{"yaml", "program: [\n"},
		{"missing program", fmt.Sprintf("address: %s\n", address)},
		{"invalid address", fmt.Sprintf("program: %s\naddress: invalid\n", program)},
		{"missing discriminator", fmt.Sprintf("program: %s\naddress: %s\nlists:\n  - requirements: []\n", program, address)},
		{"both discriminators", fmt.Sprintf("program: %s\naddress: %s\nlists:\n  - discriminator: \"0102030405060708\"\n    discriminator_name: name\n", program, address)},
		{"short discriminator", fmt.Sprintf("program: %s\naddress: %s\nlists:\n  - discriminator: \"0102\"\n", program, address)},
		{"zero discriminator", fmt.Sprintf("program: %s\naddress: %s\nlists:\n  - discriminator: \"0000000000000000\"\n", program, address)},
		{"duplicate discriminator", fmt.Sprintf("program: %s\naddress: %s\nlists:\n  - discriminator_name: name\n  - discriminator_name: name\n", program, address)},
		{"empty requirement", fmt.Sprintf("program: %s\naddress: %s\nlists:\n  - discriminator_name: name\n    requirements:\n      - writable: true\n", program, address)},
		{"address and seeds", fmt.Sprintf("program: %s\naddress: %s\nlists:\n  - discriminator_name: name\n    requirements:\n      - address: %s\n        seeds:\n          - account_key: 0\n", program, address, address)},
		{"multiple seed types", fmt.Sprintf("program: %s\naddress: %s\nlists:\n  - discriminator_name: name\n    requirements:\n      - seeds:\n          - account_key: 0\n            literal: seed\n", program, address)},
		{"invalid data", fmt.Sprintf("program: %s\naddress: %s\ninstructions:\n  - discriminator_name: name\n    data: zz\n", program, address)},
		{"invalid account", fmt.Sprintf("program: %s\naddress: %s\ninstructions:\n  - discriminator_name: name\n    accounts:\n      - address: invalid\n", program, address)},
	} {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse([]byte(tc.doc))
			assert.True(t, errors.Is(err, ErrInvalidManifest), err)
		})
	}

	doc := fmt.Sprintf("program: %s\naddress: %s\nlists:\n  - discriminator_name: name\n    requirements:\n      - seeds:\n          - literal_hex: \"%x\"\n", program, address, make([]byte, 33))
	_, err := Parse([]byte(doc))
	assert.True(t, errors.Is(err, accountresolution.ErrInvalidSeedConfig))
}
