package ebml

import (
	"errors"
)

var (
	ErrTruncated   = errors.New("ebml: truncated input")
	ErrInvalidVint = errors.New("ebml: invalid vint")
)

// ReadID reads an element id starting at pos. Ids keep their length-marker
// bits, so the Segment id reads back as 0x18538067.
func ReadID(buf []byte, pos int) (id uint32, n int, err error) {
	if pos >= len(buf) {
		return 0, 0, ErrTruncated
	}
	b := buf[pos]
	switch {
	case b&0x80 != 0: // Class A ID (1 byte)
		n = 1
	case b&0x40 != 0: // Class B ID (2 bytes)
		n = 2
	case b&0x20 != 0: // Class C ID (3 bytes)
		n = 3
	case b&0x10 != 0: // Class D ID (4 bytes)
		n = 4
	default:
		return 0, 0, ErrInvalidVint
	}
	if pos+n > len(buf) {
		return 0, 0, ErrTruncated
	}
	return uint32(pack(buf[pos : pos+n])), n, nil
}

// ReadVint reads a marker-stripped variable length integer at pos, the
// form used by element sizes and block track numbers.
func ReadVint(buf []byte, pos int) (v uint64, n int, err error) {
	if pos >= len(buf) {
		return 0, 0, ErrTruncated
	}
	b := buf[pos]
	if b == 0 {
		return 0, 0, ErrInvalidVint
	}
	n = 1
	mask := byte(0x80)
	for b&mask == 0 {
		mask >>= 1
		n++
	}
	if pos+n > len(buf) {
		return 0, 0, ErrTruncated
	}
	v = uint64(b & (mask - 1))
	for i := 1; i < n; i++ {
		v = v<<8 | uint64(buf[pos+i])
	}
	return v, n, nil
}

// ReadSize reads an element size vint at pos. The reserved all-ones data
// pattern is the unknown-size form and reports unknown instead of a value.
func ReadSize(buf []byte, pos int) (size uint64, n int, unknown bool, err error) {
	size, n, err = ReadVint(buf, pos)
	if err != nil {
		return 0, 0, false, err
	}
	if size == maxVint(n) {
		return 0, n, true, nil
	}
	return size, n, false, nil
}

// EncodeID emits the stored big-endian form of an element id.
func EncodeID(id uint32) []byte {
	switch {
	case id&0xff000000 != 0:
		return []byte{byte(id >> 24), byte(id >> 16), byte(id >> 8), byte(id)}
	case id&0xff0000 != 0:
		return []byte{byte(id >> 16), byte(id >> 8), byte(id)}
	case id&0xff00 != 0:
		return []byte{byte(id >> 8), byte(id)}
	default:
		return []byte{byte(id)}
	}
}

// EncodeSize produces the minimal-length size encoding of v. Values that
// would collide with the unknown-size pattern widen by one byte. Values of
// 1<<56-1 and above have no known-size vint form and panic.
func EncodeSize(v uint64) []byte {
	if v >= maxVint(8) {
		panic("ebml: size too large for a vint")
	}
	n := 1
	for n < 8 && v >= maxVint(n) {
		n++
	}
	b := unpack(n, v)
	b[0] |= 0x80 >> (n - 1)
	return b
}

// EncodeUnknownSize produces the n-byte reserved unknown-size encoding.
func EncodeUnknownSize(n int) []byte {
	b := make([]byte, n)
	b[0] = 0xff >> (n - 1)
	for i := 1; i < n; i++ {
		b[i] = 0xff
	}
	return b
}

// maxVint is the largest value an n-byte vint can carry; carrying exactly
// this value is the reserved unknown-size pattern.
func maxVint(n int) uint64 {
	return 1<<(7*uint(n)) - 1
}

func pack(b []byte) uint64 {
	var v uint64
	for _, c := range b {
		v = v<<8 | uint64(c)
	}
	return v
}

func unpack(n int, v uint64) []byte {
	b := make([]byte, n)
	for i := n - 1; i >= 0; i-- {
		b[i] = byte(v)
		v >>= 8
	}
	return b
}
