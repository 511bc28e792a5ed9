package solana

import (
	"bytes"
	"crypto/ed25519"
)

// AccountMeta represents the account information required
// for building transactions.
type AccountMeta struct {
	PublicKey  ed25519.PublicKey
	IsSigner   bool
	IsWritable bool
}

// NewAccountMeta creates a new AccountMeta representing a writable
// account.
func NewAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: true,
	}
}

// NewReadonlyAccountMeta creates a new AccountMeta representing a readonly
// account.
func NewReadonlyAccountMeta(pub ed25519.PublicKey, isSigner bool) AccountMeta {
	return AccountMeta{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: false,
	}
}

// Equal reports whether both metas reference the same key with the same
// signer and writable flags.
func (m AccountMeta) Equal(other AccountMeta) bool {
	return bytes.Equal(m.PublicKey, other.PublicKey) &&
		m.IsSigner == other.IsSigner &&
		m.IsWritable == other.IsWritable
}

// Instruction represents a transaction instruction.
type Instruction struct {
	Program  ed25519.PublicKey
	Accounts []AccountMeta
	Data     []byte
}

// NewInstruction creates a new instruction.
func NewInstruction(program ed25519.PublicKey, data []byte, accounts ...AccountMeta) Instruction {
	return Instruction{
		Program:  program,
		Data:     data,
		Accounts: accounts,
	}
}

// AccountKeys returns the public keys of the instruction's accounts, in order.
func (i Instruction) AccountKeys() []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, len(i.Accounts))
	for j, a := range i.Accounts {
		keys[j] = a.PublicKey
	}
	return keys
}
