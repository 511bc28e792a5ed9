// Package manifest loads YAML documents describing the requirement lists of a
// validation account and the instructions to resolve against them.
//
// Example:
//
//	program: <base58>
//	address: <base58>
//	lists:
//	  - discriminator_name: "spl-transfer-hook-interface:execute"
//	    requirements:
//	      - address: <base58>
//	        writable: true
//	      - seeds:
//	          - literal: "seed"
//	          - instruction_data: {index: 8, length: 8}
//	          - account_key: 0
//	instructions:
//	  - discriminator: "692565c54bfb661a"
//	    data: "..."
//	    accounts:
//	      - address: <base58>
//	        signer: true
package manifest

import (
	"crypto/ed25519"
	"encoding/hex"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/code-payments/account-resolution/pkg/solana"
	"github.com/code-payments/account-resolution/pkg/solana/accountresolution"
	"github.com/code-payments/account-resolution/pkg/solana/tlv"
)

var (
	ErrInvalidManifest = errors.New("invalid manifest")
)

type Manifest struct {
	Program      string        `yaml:"program"`
	Address      string        `yaml:"address"`
	Lists        []List        `yaml:"lists"`
	Instructions []Instruction `yaml:"instructions"`
}

// Discriminator identifies a list either by its raw hex encoded bytes, or by
// a name hashed into a discriminator.
type Discriminator struct {
	Hex  string `yaml:"discriminator,omitempty"`
	Name string `yaml:"discriminator_name,omitempty"`
}

type List struct {
	Discriminator `yaml:",inline"`
	Requirements  []Requirement `yaml:"requirements"`
}

type Requirement struct {
	Address  string `yaml:"address,omitempty"`
	Seeds    []Seed `yaml:"seeds,omitempty"`
	Signer   bool   `yaml:"signer"`
	Writable bool   `yaml:"writable"`
}

// Seed sets exactly one of its fields.
type Seed struct {
	Literal         *string              `yaml:"literal,omitempty"`
	LiteralHex      *string              `yaml:"literal_hex,omitempty"`
	InstructionData *InstructionDataSeed `yaml:"instruction_data,omitempty"`
	AccountKey      *uint8               `yaml:"account_key,omitempty"`
}

type InstructionDataSeed struct {
	Index  uint8 `yaml:"index"`
	Length uint8 `yaml:"length"`
}

type Instruction struct {
	Discriminator `yaml:",inline"`
	Data          string    `yaml:"data,omitempty"`
	Accounts      []Account `yaml:"accounts,omitempty"`
}

type Account struct {
	Address  string `yaml:"address"`
	Signer   bool   `yaml:"signer"`
	Writable bool   `yaml:"writable"`
}

// Load reads and validates the manifest at path.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "error reading manifest %s", path)
	}
	return Parse(data)
}

// Parse decodes and validates a manifest.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, errors.Wrapf(ErrInvalidManifest, "error decoding yaml: %s", err)
	}

	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

func (m *Manifest) Validate() error {
	if _, err := m.ProgramKey(); err != nil {
		return err
	}
	if _, err := m.AddressKey(); err != nil {
		return err
	}

	seen := make(map[tlv.Discriminator]struct{})
	for i, l := range m.Lists {
		d, err := l.ToDiscriminator()
		if err != nil {
			return errors.Wrapf(err, "list %d", i)
		}
		if _, ok := seen[d]; ok {
			return errors.Wrapf(ErrInvalidManifest, "list %d: duplicate discriminator %s", i, d)
		}
		seen[d] = struct{}{}

		if _, err := l.ToRequirements(); err != nil {
			return errors.Wrapf(err, "list %d", i)
		}
	}

	for i, ix := range m.Instructions {
		if _, _, err := ix.ToInstruction(nil); err != nil {
			return errors.Wrapf(err, "instruction %d", i)
		}
	}

	return nil
}

func (m *Manifest) ProgramKey() (ed25519.PublicKey, error) {
	return parseKey("program", m.Program)
}

func (m *Manifest) AddressKey() (ed25519.PublicKey, error) {
	return parseKey("address", m.Address)
}

func (d Discriminator) ToDiscriminator() (tlv.Discriminator, error) {
	switch {
	case len(d.Hex) > 0 && len(d.Name) > 0:
		return tlv.Discriminator{}, errors.Wrap(ErrInvalidManifest, "only one of discriminator and discriminator_name can be set")
	case len(d.Hex) > 0:
		decoded, err := hex.DecodeString(d.Hex)
		if err != nil {
			return tlv.Discriminator{}, errors.Wrapf(ErrInvalidManifest, "invalid discriminator hex: %s", d.Hex)
		}

		res, err := tlv.NewDiscriminator(decoded)
		if err != nil {
			return tlv.Discriminator{}, errors.Wrapf(ErrInvalidManifest, "invalid discriminator: %s", err)
		}
		if !res.IsInitialized() {
			return tlv.Discriminator{}, errors.Wrap(ErrInvalidManifest, "discriminator cannot be zero")
		}
		return res, nil
	case len(d.Name) > 0:
		return tlv.NewDiscriminatorFromHash(d.Name), nil
	default:
		return tlv.Discriminator{}, errors.Wrap(ErrInvalidManifest, "discriminator is required")
	}
}

func (l List) ToRequirements() ([]accountresolution.AccountRequirement, error) {
	res := make([]accountresolution.AccountRequirement, len(l.Requirements))
	for i, r := range l.Requirements {
		requirement, err := r.ToRequirement()
		if err != nil {
			return nil, errors.Wrapf(err, "requirement %d", i)
		}
		res[i] = requirement
	}
	return res, nil
}

func (r Requirement) ToRequirement() (accountresolution.AccountRequirement, error) {
	switch {
	case len(r.Address) > 0 && len(r.Seeds) > 0:
		return accountresolution.AccountRequirement{}, errors.Wrap(ErrInvalidManifest, "only one of address and seeds can be set")
	case len(r.Address) > 0:
		address, err := parseKey("address", r.Address)
		if err != nil {
			return accountresolution.AccountRequirement{}, err
		}
		return accountresolution.NewFixedRequirement(address, r.Signer, r.Writable), nil
	case len(r.Seeds) > 0:
		seeds := make([]accountresolution.Seed, len(r.Seeds))
		for i, s := range r.Seeds {
			seed, err := s.ToSeed()
			if err != nil {
				return accountresolution.AccountRequirement{}, errors.Wrapf(err, "seed %d", i)
			}
			seeds[i] = seed
		}
		return accountresolution.NewDerivedRequirement(seeds, r.Signer, r.Writable)
	default:
		return accountresolution.AccountRequirement{}, errors.Wrap(ErrInvalidManifest, "one of address and seeds is required")
	}
}

func (s Seed) ToSeed() (accountresolution.Seed, error) {
	var res []accountresolution.Seed

	if s.Literal != nil {
		res = append(res, accountresolution.LiteralSeed{Bytes: []byte(*s.Literal)})
	}
	if s.LiteralHex != nil {
		decoded, err := hex.DecodeString(*s.LiteralHex)
		if err != nil {
			return nil, errors.Wrapf(ErrInvalidManifest, "invalid literal hex: %s", *s.LiteralHex)
		}
		res = append(res, accountresolution.LiteralSeed{Bytes: decoded})
	}
	if s.InstructionData != nil {
		res = append(res, accountresolution.InstructionDataSeed{
			Index:  s.InstructionData.Index,
			Length: s.InstructionData.Length,
		})
	}
	if s.AccountKey != nil {
		res = append(res, accountresolution.AccountKeySeed{Index: *s.AccountKey})
	}

	if len(res) != 1 {
		return nil, errors.Wrap(ErrInvalidManifest, "exactly one seed type must be set")
	}
	return res[0], nil
}

// ToInstruction returns the instruction for program, along with the
// discriminator of the list to resolve it against. Unless data is set, the
// instruction's data is the discriminator.
func (i Instruction) ToInstruction(program ed25519.PublicKey) (solana.Instruction, tlv.Discriminator, error) {
	d, err := i.ToDiscriminator()
	if err != nil {
		return solana.Instruction{}, tlv.Discriminator{}, err
	}

	data := d[:]
	if len(i.Data) > 0 {
		data, err = hex.DecodeString(i.Data)
		if err != nil {
			return solana.Instruction{}, tlv.Discriminator{}, errors.Wrapf(ErrInvalidManifest, "invalid data hex: %s", i.Data)
		}
	}

	accounts := make([]solana.AccountMeta, len(i.Accounts))
	for j, a := range i.Accounts {
		key, err := parseKey("account", a.Address)
		if err != nil {
			return solana.Instruction{}, tlv.Discriminator{}, errors.Wrapf(err, "account %d", j)
		}
		accounts[j] = solana.AccountMeta{
			PublicKey:  key,
			IsSigner:   a.Signer,
			IsWritable: a.Writable,
		}
	}

	return solana.NewInstruction(program, data, accounts...), d, nil
}

func parseKey(field, value string) (ed25519.PublicKey, error) {
	if len(value) == 0 {
		return nil, errors.Wrapf(ErrInvalidManifest, "%s is required", field)
	}

	key, err := solana.PublicKeyFromString(value)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidManifest, "invalid %s: %s", field, err)
	}
	return key, nil
}
