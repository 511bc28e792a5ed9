package solana

import (
	"crypto/ed25519"
)

// AccountInfo is a handle to an account that is available to the current
// execution context, as provided by the runtime or fetched over RPC.
type AccountInfo struct {
	PublicKey  ed25519.PublicKey
	IsSigner   bool
	IsWritable bool

	Lamports   uint64
	Data       []byte
	Owner      ed25519.PublicKey
	Executable bool
	RentEpoch  uint64
}

// NewAccountInfo returns an AccountInfo over the provided backing data.
func NewAccountInfo(pub ed25519.PublicKey, isSigner, isWritable bool, lamports uint64, data []byte, owner ed25519.PublicKey) AccountInfo {
	return AccountInfo{
		PublicKey:  pub,
		IsSigner:   isSigner,
		IsWritable: isWritable,
		Lamports:   lamports,
		Data:       data,
		Owner:      owner,
	}
}

// Clone returns a copy of the handle. The copy shares the backing data buffer
// with the original, the same way runtime account handles alias one account.
func (a AccountInfo) Clone() AccountInfo {
	return a
}

// AccountMeta returns the AccountMeta describing this handle.
func (a AccountInfo) AccountMeta() AccountMeta {
	return AccountMeta{
		PublicKey:  a.PublicKey,
		IsSigner:   a.IsSigner,
		IsWritable: a.IsWritable,
	}
}
