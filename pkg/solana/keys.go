package solana

import (
	"crypto/ed25519"

	"github.com/mr-tron/base58"
	"github.com/pkg/errors"
)

// PublicKeyFromString decodes a base58 encoded public key.
func PublicKeyFromString(value string) (ed25519.PublicKey, error) {
	decoded, err := base58.Decode(value)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid base58 public key: %s", value)
	}

	if len(decoded) != ed25519.PublicKeySize {
		return nil, errors.Wrapf(ErrInvalidPublicKey, "unexpected key length %d for %s", len(decoded), value)
	}

	return decoded, nil
}

// MustPublicKeyFromString is like PublicKeyFromString, but panics on invalid
// input. It's intended for well known addresses declared at package scope.
func MustPublicKeyFromString(value string) ed25519.PublicKey {
	pub, err := PublicKeyFromString(value)
	if err != nil {
		panic(err)
	}
	return pub
}

// PublicKeyToString base58 encodes a public key.
func PublicKeyToString(pub ed25519.PublicKey) string {
	return base58.Encode(pub)
}
