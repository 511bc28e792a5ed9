package accountresolution

import (
	"crypto/ed25519"
	"fmt"

	"github.com/code-payments/account-resolution/pkg/solana"
	"github.com/code-payments/account-resolution/pkg/solana/binary"
)

// SeedType is the tag stored in the first byte of a packed seed.
type SeedType uint8

const (
	SeedTypeUninitialized SeedType = iota
	SeedTypeLiteral
	SeedTypeInstructionData
	SeedTypeAccountKey
)

const SeedSize = (1 + // type
	1 + // literal length
	solana.MaxSeedLength) // literal bytes

// Seed describes how a single seed for a program derived address is produced
// during resolution. The set of implementations is closed: LiteralSeed,
// InstructionDataSeed and AccountKeySeed.
type Seed interface {
	Type() SeedType
	String() string

	validate() error
	marshal(dst []byte)
	evaluate(keys []ed25519.PublicKey, data []byte) ([]byte, error)
}

// LiteralSeed is a fixed byte string.
type LiteralSeed struct {
	Bytes []byte
}

// InstructionDataSeed takes Length bytes of instruction data starting at Index.
type InstructionDataSeed struct {
	Index  uint8
	Length uint8
}

// AccountKeySeed takes the address of the account at Index, counting the
// instruction's accounts followed by every account resolved before it.
type AccountKeySeed struct {
	Index uint8
}

func (s LiteralSeed) Type() SeedType         { return SeedTypeLiteral }
func (s InstructionDataSeed) Type() SeedType { return SeedTypeInstructionData }
func (s AccountKeySeed) Type() SeedType      { return SeedTypeAccountKey }

func (s LiteralSeed) String() string {
	return fmt.Sprintf("Literal{bytes=%x}", s.Bytes)
}

func (s InstructionDataSeed) String() string {
	return fmt.Sprintf("InstructionData{index=%d,length=%d}", s.Index, s.Length)
}

func (s AccountKeySeed) String() string {
	return fmt.Sprintf("AccountKey{index=%d}", s.Index)
}

func (s LiteralSeed) validate() error {
	if len(s.Bytes) > solana.MaxSeedLength {
		return ErrInvalidSeedConfig
	}
	return nil
}

func (s InstructionDataSeed) validate() error {
	if s.Length == 0 || int(s.Length) > solana.MaxSeedLength {
		return ErrInvalidSeedConfig
	}
	return nil
}

func (s AccountKeySeed) validate() error {
	return nil
}

func (s LiteralSeed) marshal(dst []byte) {
	var offset int
	binary.PutUint8(dst[offset:], uint8(SeedTypeLiteral), &offset)
	binary.PutUint8(dst[offset:], uint8(len(s.Bytes)), &offset)
	binary.PutFixedBytes(dst[offset:], s.Bytes, solana.MaxSeedLength, &offset)
}

func (s InstructionDataSeed) marshal(dst []byte) {
	var offset int
	binary.PutUint8(dst[offset:], uint8(SeedTypeInstructionData), &offset)
	binary.PutUint8(dst[offset:], s.Index, &offset)
	binary.PutUint8(dst[offset:], s.Length, &offset)
	clearBytes(dst[offset:SeedSize])
}

func (s AccountKeySeed) marshal(dst []byte) {
	var offset int
	binary.PutUint8(dst[offset:], uint8(SeedTypeAccountKey), &offset)
	binary.PutUint8(dst[offset:], s.Index, &offset)
	clearBytes(dst[offset:SeedSize])
}

func (s LiteralSeed) evaluate(_ []ed25519.PublicKey, _ []byte) ([]byte, error) {
	return s.Bytes, nil
}

func (s InstructionDataSeed) evaluate(_ []ed25519.PublicKey, data []byte) ([]byte, error) {
	start := int(s.Index)
	end := start + int(s.Length)
	if len(data) < end {
		return nil, ErrInstructionDataTooSmall
	}
	return data[start:end], nil
}

func (s AccountKeySeed) evaluate(keys []ed25519.PublicKey, _ []byte) ([]byte, error) {
	if int(s.Index) >= len(keys) {
		return nil, ErrAccountNotFound
	}
	return keys[s.Index], nil
}

// unmarshalSeed decodes a single SeedSize byte seed record. Uninitialized
// records decode to a nil Seed.
func unmarshalSeed(src []byte) (Seed, error) {
	if len(src) < SeedSize {
		return nil, ErrNotEnoughBytesForSeed
	}

	var offset int
	var seedType uint8
	binary.GetUint8(src[offset:], &seedType, &offset)

	switch SeedType(seedType) {
	case SeedTypeUninitialized:
		return nil, nil
	case SeedTypeLiteral:
		var length uint8
		binary.GetUint8(src[offset:], &length, &offset)
		if int(length) > solana.MaxSeedLength {
			return nil, ErrInvalidBytesForSeed
		}

		var value []byte
		binary.GetFixedBytes(src[offset:], &value, int(length), solana.MaxSeedLength, &offset)
		return LiteralSeed{Bytes: value}, nil
	case SeedTypeInstructionData:
		var s InstructionDataSeed
		binary.GetUint8(src[offset:], &s.Index, &offset)
		binary.GetUint8(src[offset:], &s.Length, &offset)
		if err := s.validate(); err != nil {
			return nil, ErrInvalidBytesForSeed
		}
		return s, nil
	case SeedTypeAccountKey:
		var s AccountKeySeed
		binary.GetUint8(src[offset:], &s.Index, &offset)
		return s, nil
	default:
		return nil, ErrInvalidBytesForSeed
	}
}

// evaluateSeeds produces the seed byte strings for a derived address, in order.
func evaluateSeeds(seeds []Seed, keys []ed25519.PublicKey, data []byte) ([][]byte, error) {
	values := make([][]byte, len(seeds))
	for i, s := range seeds {
		value, err := s.evaluate(keys, data)
		if err != nil {
			return nil, err
		}
		values[i] = value
	}
	return values, nil
}

func clearBytes(b []byte) {
	for i := range b {
		b[i] = 0
	}
}
