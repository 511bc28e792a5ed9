package accountresolution

import (
	"crypto/ed25519"
	"fmt"
	"strings"

	"github.com/code-payments/account-resolution/pkg/solana"
	"github.com/code-payments/account-resolution/pkg/solana/binary"
)

// MaxSeeds is the maximum number of seeds a derived requirement can carry.
const MaxSeeds = 8

const addressConfigSize = (1 + // seed count
	MaxSeeds*SeedSize) // seeds

const RequirementSize = (1 + // type
	addressConfigSize + // address config
	1 + // is signer
	1) // is writable

// RequirementType is the discriminant stored in the first byte of a packed
// requirement.
type RequirementType uint8

const (
	RequirementTypeFixed RequirementType = iota
	RequirementTypeDerived
)

// AccountRequirement is an account that must be appended to an instruction.
// Fixed requirements carry an Address, derived requirements carry the Seeds
// used to find a program address for the instruction's program.
type AccountRequirement struct {
	Type       RequirementType
	Address    ed25519.PublicKey
	Seeds      []Seed
	IsSigner   bool
	IsWritable bool
}

// NewFixedRequirement returns a requirement for a known address.
func NewFixedRequirement(address ed25519.PublicKey, isSigner, isWritable bool) AccountRequirement {
	return AccountRequirement{
		Type:       RequirementTypeFixed,
		Address:    address,
		IsSigner:   isSigner,
		IsWritable: isWritable,
	}
}

// NewDerivedRequirement returns a requirement for a program derived address.
func NewDerivedRequirement(seeds []Seed, isSigner, isWritable bool) (AccountRequirement, error) {
	r := AccountRequirement{
		Type:       RequirementTypeDerived,
		Seeds:      seeds,
		IsSigner:   isSigner,
		IsWritable: isWritable,
	}
	if err := r.Validate(); err != nil {
		return AccountRequirement{}, err
	}
	return r, nil
}

// RequirementFromAccountMeta returns a fixed requirement for meta.
func RequirementFromAccountMeta(meta solana.AccountMeta) AccountRequirement {
	return NewFixedRequirement(meta.PublicKey, meta.IsSigner, meta.IsWritable)
}

// RequirementFromAccountInfo returns a fixed requirement for info.
func RequirementFromAccountInfo(info solana.AccountInfo) AccountRequirement {
	return NewFixedRequirement(info.PublicKey, info.IsSigner, info.IsWritable)
}

// Validate checks that the requirement can be packed into a record.
func (r AccountRequirement) Validate() error {
	switch r.Type {
	case RequirementTypeFixed:
		if len(r.Address) != ed25519.PublicKeySize {
			return ErrInvalidPubkey
		}
		if len(r.Seeds) > 0 {
			return ErrInvalidSeedConfig
		}
	case RequirementTypeDerived:
		if len(r.Seeds) == 0 {
			return ErrInvalidSeedConfig
		}
		if len(r.Seeds) > MaxSeeds {
			return ErrSeedConfigsTooLarge
		}
		for _, s := range r.Seeds {
			if s == nil {
				return ErrInvalidSeedConfig
			}
			if err := s.validate(); err != nil {
				return err
			}
		}
	default:
		return ErrInvalidSeedConfig
	}
	return nil
}

// AccountMeta returns the meta for a fixed requirement.
// ErrAccountTypeNotAccountMeta is returned for derived requirements, whose
// address is only known at resolution time.
func (r AccountRequirement) AccountMeta() (solana.AccountMeta, error) {
	if r.Type != RequirementTypeFixed {
		return solana.AccountMeta{}, ErrAccountTypeNotAccountMeta
	}
	return solana.AccountMeta{
		PublicKey:  r.Address,
		IsSigner:   r.IsSigner,
		IsWritable: r.IsWritable,
	}, nil
}

// Resolve computes the meta for the requirement. keys holds every address
// placed on the instruction so far, in order.
func (r AccountRequirement) Resolve(program ed25519.PublicKey, keys []ed25519.PublicKey, data []byte) (solana.AccountMeta, error) {
	switch r.Type {
	case RequirementTypeFixed:
		return r.AccountMeta()
	case RequirementTypeDerived:
		seeds, err := evaluateSeeds(r.Seeds, keys, data)
		if err != nil {
			return solana.AccountMeta{}, err
		}

		address, _, err := solana.FindProgramAddressAndBump(program, seeds...)
		if err != nil {
			return solana.AccountMeta{}, ErrCalculationFailure
		}

		return solana.AccountMeta{
			PublicKey:  address,
			IsSigner:   r.IsSigner,
			IsWritable: r.IsWritable,
		}, nil
	default:
		return solana.AccountMeta{}, ErrInvalidSeedConfig
	}
}

// Marshal packs the requirement into a RequirementSize byte record.
func (r AccountRequirement) Marshal() ([]byte, error) {
	if err := r.Validate(); err != nil {
		return nil, err
	}

	data := make([]byte, RequirementSize)

	var offset int
	binary.PutUint8(data[offset:], uint8(r.Type), &offset)

	switch r.Type {
	case RequirementTypeFixed:
		binary.PutFixedBytes(data[offset:], r.Address, addressConfigSize, &offset)
	case RequirementTypeDerived:
		config := data[offset : offset+addressConfigSize]
		config[0] = uint8(len(r.Seeds))
		for i, s := range r.Seeds {
			start := 1 + i*SeedSize
			s.marshal(config[start : start+SeedSize])
		}
		offset += addressConfigSize
	}

	binary.PutBool(data[offset:], r.IsSigner, &offset)
	binary.PutBool(data[offset:], r.IsWritable, &offset)

	return data, nil
}

func (r *AccountRequirement) Unmarshal(data []byte) error {
	if len(data) < RequirementSize {
		return ErrNotEnoughBytesForSeed
	}

	var offset int
	var requirementType uint8
	binary.GetUint8(data[offset:], &requirementType, &offset)

	config := data[offset : offset+addressConfigSize]
	offset += addressConfigSize

	r.Type = RequirementType(requirementType)
	r.Address = nil
	r.Seeds = nil

	switch r.Type {
	case RequirementTypeFixed:
		var configOffset int
		binary.GetKey32(config, &r.Address, &configOffset)
	case RequirementTypeDerived:
		count := int(config[0])
		if count == 0 || count > MaxSeeds {
			return ErrInvalidBytesForSeed
		}

		r.Seeds = make([]Seed, count)
		for i := 0; i < count; i++ {
			start := 1 + i*SeedSize
			s, err := unmarshalSeed(config[start : start+SeedSize])
			if err != nil {
				return err
			}
			if s == nil {
				return ErrInvalidBytesForSeed
			}
			r.Seeds[i] = s
		}
	default:
		return ErrInvalidSeedConfig
	}

	binary.GetBool(data[offset:], &r.IsSigner, &offset)
	binary.GetBool(data[offset:], &r.IsWritable, &offset)

	return nil
}

func (r AccountRequirement) String() string {
	var config string
	switch r.Type {
	case RequirementTypeFixed:
		config = fmt.Sprintf("address=%s", solana.PublicKeyToString(r.Address))
	case RequirementTypeDerived:
		seeds := make([]string, len(r.Seeds))
		for i, s := range r.Seeds {
			seeds[i] = s.String()
		}
		config = fmt.Sprintf("seeds=[%s]", strings.Join(seeds, ","))
	default:
		config = fmt.Sprintf("type=%d", r.Type)
	}

	return fmt.Sprintf(
		"AccountRequirement{%s,signer=%v,writable=%v}",
		config,
		r.IsSigner,
		r.IsWritable,
	)
}
