package binary

import (
	"crypto/ed25519"
	"encoding/binary"
)

// The Put* and Get* helpers advance offset by the encoded size of the value,
// so fixed layouts can be written as a sequence of calls over b[offset:].

func PutKey32(dst []byte, src []byte, offset *int) {
	copy(dst[:ed25519.PublicKeySize], src)
	*offset += ed25519.PublicKeySize
}

func PutUint32(dst []byte, v uint32, offset *int) {
	binary.LittleEndian.PutUint32(dst, v)
	*offset += 4
}

func PutUint8(dst []byte, v uint8, offset *int) {
	dst[0] = v
	*offset += 1
}

func PutBool(dst []byte, v bool, offset *int) {
	if v {
		dst[0] = 1
	} else {
		dst[0] = 0
	}
	*offset += 1
}

// PutFixedBytes writes src into a size byte field, zero padding any bytes src
// doesn't cover.
func PutFixedBytes(dst []byte, src []byte, size int, offset *int) {
	n := copy(dst[:size], src)
	for i := n; i < size; i++ {
		dst[i] = 0
	}
	*offset += size
}

func GetKey32(src []byte, dst *ed25519.PublicKey, offset *int) {
	*dst = make([]byte, ed25519.PublicKeySize)
	copy(*dst, src)
	*offset += ed25519.PublicKeySize
}

func GetUint32(src []byte, dst *uint32, offset *int) {
	*dst = binary.LittleEndian.Uint32(src)
	*offset += 4
}

func GetUint8(src []byte, dst *uint8, offset *int) {
	*dst = src[0]
	*offset += 1
}

func GetBool(src []byte, dst *bool, offset *int) {
	*dst = src[0] != 0
	*offset += 1
}

// GetFixedBytes copies the first length bytes of a size byte field.
func GetFixedBytes(src []byte, dst *[]byte, length, size int, offset *int) {
	*dst = make([]byte, length)
	copy(*dst, src[:length])
	*offset += size
}
