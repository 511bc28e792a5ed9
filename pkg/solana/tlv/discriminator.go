package tlv

import (
	"crypto/sha256"
	"encoding/hex"

	"github.com/pkg/errors"
)

// DiscriminatorSize is the size of a type discriminator.
const DiscriminatorSize = 8

// Discriminator tags a TLV entry with the type of value it holds. The all
// zero discriminator is reserved to mark uninitialized space.
type Discriminator [DiscriminatorSize]byte

// UninitializedDiscriminator marks the end of the initialized entries.
var UninitializedDiscriminator Discriminator

// NewDiscriminator returns the discriminator for an 8 byte value.
func NewDiscriminator(value []byte) (Discriminator, error) {
	var d Discriminator
	if len(value) != DiscriminatorSize {
		return d, errors.Errorf("discriminator must be %d bytes, got %d", DiscriminatorSize, len(value))
	}

	copy(d[:], value)
	return d, nil
}

// NewDiscriminatorFromHash derives a discriminator from the first 8 bytes of
// the sha256 hash of the provided input, typically a namespaced instruction
// name such as "spl-transfer-hook-interface:execute".
func NewDiscriminatorFromHash(input string) Discriminator {
	var d Discriminator
	hash := sha256.Sum256([]byte(input))
	copy(d[:], hash[:DiscriminatorSize])
	return d
}

// IsInitialized reports whether d is a usable discriminator.
func (d Discriminator) IsInitialized() bool {
	return d != UninitializedDiscriminator
}

func (d Discriminator) String() string {
	return hex.EncodeToString(d[:])
}
