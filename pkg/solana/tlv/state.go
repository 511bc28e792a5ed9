// Package tlv implements a type-length-value buffer that multiplexes several
// independently typed byte ranges in a single, fixed size account.
//
// Each entry is laid out as:
//
//	[0..8)   discriminator
//	[8..12)  u32 little endian value length
//	[12..)   value
//
// Entries are packed back to back. The first all zero discriminator marks the
// start of uninitialized space.
package tlv

import (
	"github.com/pkg/errors"

	"github.com/code-payments/account-resolution/pkg/solana/binary"
)

const (
	// LengthSize is the size of the value length field.
	LengthSize = 4

	// HeaderSize is the size of the discriminator and length prefix of an entry.
	HeaderSize = DiscriminatorSize + LengthSize
)

var (
	ErrTypeNotFound               = errors.New("type not found in tlv data")
	ErrTypeAlreadyExists          = errors.New("type already exists in tlv data")
	ErrBufferTooSmall             = errors.New("tlv buffer too small for entry")
	ErrInvalidLength              = errors.New("tlv entry length exceeds buffer")
	ErrUninitializedDiscriminator = errors.New("cannot use the uninitialized discriminator")
)

type entry struct {
	discriminator Discriminator
	valueStart    int
	valueEnd      int
}

// State is a view over a TLV encoded buffer. Values returned by State alias
// the buffer it was unpacked from.
type State struct {
	data []byte
}

// BaseLen is the number of bytes used by an entry in addition to its value.
func BaseLen() int {
	return HeaderSize
}

// Unpack validates the entries in data and returns a view over it.
func Unpack(data []byte) (*State, error) {
	s := &State{data: data}
	if _, _, err := s.entries(); err != nil {
		return nil, err
	}
	return s, nil
}

// Data returns the underlying buffer.
func (s *State) Data() []byte {
	return s.data
}

// GetFirstBytes returns the value of the first entry tagged with d.
func (s *State) GetFirstBytes(d Discriminator) ([]byte, error) {
	entries, _, err := s.entries()
	if err != nil {
		return nil, err
	}

	for _, e := range entries {
		if e.discriminator == d {
			return s.data[e.valueStart:e.valueEnd:e.valueEnd], nil
		}
	}

	return nil, ErrTypeNotFound
}

// Discriminators returns the discriminator of every initialized entry, in
// buffer order.
func (s *State) Discriminators() ([]Discriminator, error) {
	entries, _, err := s.entries()
	if err != nil {
		return nil, err
	}

	res := make([]Discriminator, len(entries))
	for i, e := range entries {
		res[i] = e.discriminator
	}
	return res, nil
}

// Alloc reserves length bytes for a new entry tagged with d at the start of
// the uninitialized space, and returns the value range.
//
// ErrTypeAlreadyExists is returned if an entry for d exists and
// allowRepetition is false. ErrBufferTooSmall is returned if the remaining
// space can't hold the entry.
func (s *State) Alloc(d Discriminator, length int, allowRepetition bool) ([]byte, error) {
	if !d.IsInitialized() {
		return nil, ErrUninitializedDiscriminator
	}
	if length < 0 || uint64(length) > uint64(^uint32(0)) {
		return nil, ErrInvalidLength
	}

	entries, free, err := s.entries()
	if err != nil {
		return nil, err
	}

	if !allowRepetition {
		for _, e := range entries {
			if e.discriminator == d {
				return nil, ErrTypeAlreadyExists
			}
		}
	}

	if free+HeaderSize+length > len(s.data) {
		return nil, ErrBufferTooSmall
	}

	offset := free
	binary.PutFixedBytes(s.data[offset:], d[:], DiscriminatorSize, &offset)
	binary.PutUint32(s.data[offset:], uint32(length), &offset)

	return s.data[offset : offset+length : offset+length], nil
}

// entries walks the buffer, returning the initialized entries and the offset
// of the first uninitialized byte.
func (s *State) entries() ([]entry, int, error) {
	var res []entry

	offset := 0
	for offset < len(s.data) {
		if offset+DiscriminatorSize > len(s.data) {
			// Too short to hold another entry, so it's free space.
			break
		}

		var d Discriminator
		copy(d[:], s.data[offset:offset+DiscriminatorSize])
		if !d.IsInitialized() {
			break
		}

		if offset+HeaderSize > len(s.data) {
			return nil, 0, ErrInvalidLength
		}

		var length uint32
		lengthOffset := offset + DiscriminatorSize
		binary.GetUint32(s.data[lengthOffset:], &length, &lengthOffset)

		valueStart := offset + HeaderSize
		if uint64(length) > uint64(len(s.data)-valueStart) {
			return nil, 0, ErrInvalidLength
		}
		valueEnd := valueStart + int(length)

		res = append(res, entry{
			discriminator: d,
			valueStart:    valueStart,
			valueEnd:      valueEnd,
		})

		offset = valueEnd
	}

	return res, offset, nil
}
