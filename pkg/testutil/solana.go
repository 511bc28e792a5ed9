package testutil

import (
	"crypto/ed25519"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/code-payments/account-resolution/pkg/solana"
)

func GenerateSolanaKeypair(t *testing.T) ed25519.PrivateKey {
	_, p, err := ed25519.GenerateKey(nil)
	require.NoError(t, err)
	return p
}

func GenerateSolanaKeys(t *testing.T, n int) []ed25519.PublicKey {
	keys := make([]ed25519.PublicKey, n)
	for i := 0; i < n; i++ {
		p, _, err := ed25519.GenerateKey(nil)
		require.NoError(t, err)
		keys[i] = p
	}
	return keys
}

// GenerateAccountInfos returns an account info with random data for each
// key, owned by owner.
func GenerateAccountInfos(t *testing.T, owner ed25519.PublicKey, keys ...ed25519.PublicKey) []solana.AccountInfo {
	infos := make([]solana.AccountInfo, len(keys))
	for i, key := range keys {
		data := make([]byte, 8)
		copy(data, GenerateSolanaKeys(t, 1)[0])
		infos[i] = solana.NewAccountInfo(key, i%2 == 0, true, uint64(i+1), data, owner)
	}
	return infos
}
