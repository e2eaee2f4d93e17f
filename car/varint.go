package car

import (
	"io"

	mvarint "github.com/multiformats/go-varint"
)

// Varint is a decoded unsigned LEB128 integer together with the number of
// input bytes that encoded it.
type Varint struct {
	Value uint64
	Len   int
}

// InvalidVarint is returned when no byte could be read at all.
var InvalidVarint = Varint{Value: 0, Len: -1}

// Valid reports whether at least one byte was decoded.
func (v Varint) Valid() bool { return v.Len >= 1 }

// ReadVarint decodes an unsigned LEB128 integer from r one byte at a time.
//
// Each byte contributes its low 7 bits, least significant group first.
// Decoding stops at the first byte with the 0x80 bit clear or when r is
// exhausted. Encodings are not required to be minimal; groups beyond the
// 64th bit are dropped. If r yields no byte, InvalidVarint is returned and
// it is up to the caller to decide whether that is an error.
func ReadVarint(r io.ByteReader) Varint {
	v, _ := readVarint(r)
	return v
}

// readVarint is ReadVarint that also reports whether a terminating byte
// (0x80 clear) was seen.
func readVarint(r io.ByteReader) (Varint, bool) {
	var value uint64
	n := 0
	for {
		b, err := r.ReadByte()
		if err != nil {
			break
		}
		if shift := uint(7 * n); shift < 64 {
			value |= uint64(b&0x7f) << shift
		}
		n++
		if b&0x80 == 0 {
			return Varint{Value: value, Len: n}, true
		}
	}
	if n == 0 {
		return InvalidVarint, false
	}
	return Varint{Value: value, Len: n}, false
}

// DecodeVarint decodes an unsigned LEB128 integer from the front of b.
// It follows the same rules as ReadVarint.
func DecodeVarint(b []byte) Varint {
	var value uint64
	n := 0
	for _, c := range b {
		if shift := uint(7 * n); shift < 64 {
			value |= uint64(c&0x7f) << shift
		}
		n++
		if c&0x80 == 0 {
			break
		}
	}
	if n == 0 {
		return InvalidVarint
	}
	return Varint{Value: value, Len: n}
}

// EncodedLen returns the number of bytes in the minimal LEB128 encoding of v.
func EncodedLen(v uint64) int {
	return mvarint.UvarintSize(v)
}
