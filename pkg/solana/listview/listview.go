// Package listview provides a zero-copy, length prefixed array of fixed size
// records over a caller owned byte buffer.
//
// Layout:
//
//	[0..4)        u32 little endian number of populated records
//	[4..4+n*size) records, packed with no padding
//
// The capacity of a view is derived from the size of the buffer it's created
// over and never changes.
package listview

import (
	"math"

	"github.com/pkg/errors"

	"github.com/code-payments/account-resolution/pkg/solana/binary"
)

// LengthSize is the size of the record count prefix.
const LengthSize = 4

var (
	ErrCalculationFailure = errors.New("error in checked math operation")
	ErrBufferTooSmall     = errors.New("provided byte buffer too small for expected type")
	ErrBufferTooLarge     = errors.New("provided byte buffer too large for expected type")
	ErrInvalidRecordSize  = errors.New("invalid record size")
)

// SizeOf returns the number of bytes needed to store numItems records of
// recordSize bytes.
func SizeOf(recordSize, numItems int) (int, error) {
	if recordSize <= 0 {
		return 0, ErrInvalidRecordSize
	}
	if numItems < 0 || numItems > (math.MaxInt32-LengthSize)/recordSize {
		return 0, ErrCalculationFailure
	}
	return LengthSize + numItems*recordSize, nil
}

// CapacityOf returns the number of recordSize records a buffer of bufLen
// bytes can hold.
func CapacityOf(recordSize, bufLen int) (int, error) {
	if recordSize <= 0 {
		return 0, ErrInvalidRecordSize
	}
	if bufLen < LengthSize {
		return 0, ErrBufferTooSmall
	}
	if (bufLen-LengthSize)%recordSize != 0 {
		return 0, ErrBufferTooLarge
	}
	return (bufLen - LengthSize) / recordSize, nil
}

// ListView is a read only view over a serialized list.
type ListView struct {
	buf        []byte
	recordSize int
	length     int
	capacity   int
}

// Unpack interprets buf as a list of recordSize records. The stored length
// must not exceed the capacity the buffer can hold.
func Unpack(buf []byte, recordSize int) (*ListView, error) {
	capacity, err := CapacityOf(recordSize, len(buf))
	if err != nil {
		return nil, err
	}

	var offset int
	var length uint32
	binary.GetUint32(buf, &length, &offset)

	if uint64(length) > uint64(capacity) {
		return nil, ErrBufferTooSmall
	}

	return &ListView{
		buf:        buf,
		recordSize: recordSize,
		length:     int(length),
		capacity:   capacity,
	}, nil
}

// Len returns the number of populated records.
func (l *ListView) Len() int {
	return l.length
}

// Capacity returns the maximum number of records the view can hold.
func (l *ListView) Capacity() int {
	return l.capacity
}

// RecordSize returns the size of a single record.
func (l *ListView) RecordSize() int {
	return l.recordSize
}

// Get returns the record at index i. The returned slice aliases the
// underlying buffer.
func (l *ListView) Get(i int) ([]byte, bool) {
	if i < 0 || i >= l.length {
		return nil, false
	}

	start := LengthSize + i*l.recordSize
	return l.buf[start : start+l.recordSize : start+l.recordSize], true
}

// ListViewMut is a mutable view over a serialized list.
type ListViewMut struct {
	ListView
}

// Init interprets buf as an empty list of recordSize records, resetting the
// stored length to zero.
func Init(buf []byte, recordSize int) (*ListViewMut, error) {
	capacity, err := CapacityOf(recordSize, len(buf))
	if err != nil {
		return nil, err
	}

	var offset int
	binary.PutUint32(buf, 0, &offset)

	return &ListViewMut{
		ListView: ListView{
			buf:        buf,
			recordSize: recordSize,
			capacity:   capacity,
		},
	}, nil
}

// UnpackMut is the mutable equivalent of Unpack.
func UnpackMut(buf []byte, recordSize int) (*ListViewMut, error) {
	view, err := Unpack(buf, recordSize)
	if err != nil {
		return nil, err
	}
	return &ListViewMut{ListView: *view}, nil
}

// Push appends a record to the end of the list. ErrBufferTooSmall is returned
// if the list is at capacity.
func (l *ListViewMut) Push(record []byte) error {
	if len(record) != l.recordSize {
		return ErrInvalidRecordSize
	}
	if l.length >= l.capacity {
		return ErrBufferTooSmall
	}

	start := LengthSize + l.length*l.recordSize
	copy(l.buf[start:start+l.recordSize], record)

	l.length++

	var offset int
	binary.PutUint32(l.buf, uint32(l.length), &offset)

	return nil
}

// Clear resets the list to empty and zeroes every record slot.
func (l *ListViewMut) Clear() {
	for i := LengthSize; i < len(l.buf); i++ {
		l.buf[i] = 0
	}

	l.length = 0

	var offset int
	binary.PutUint32(l.buf, 0, &offset)
}
