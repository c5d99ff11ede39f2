// Package encoding packs unsigned integers into fixed-width little-endian
// slots of 1 to 8 bytes, as used by the prime table entry region.
package encoding

import "encoding/binary"

// MaxWidth is the widest supported slot.
const MaxWidth = 8

// Put writes the low width bytes of v into slot pos of buf.
// Panics if width is outside [1, MaxWidth] or buf is too short.
func Put(buf []byte, pos, width int, v uint64) {
	off := pos * width
	switch width {
	case 1:
		buf[off] = uint8(v)
	case 2:
		binary.LittleEndian.PutUint16(buf[off:], uint16(v))
	case 4:
		binary.LittleEndian.PutUint32(buf[off:], uint32(v))
	case 8:
		binary.LittleEndian.PutUint64(buf[off:], v)
	case 3, 5, 6, 7:
		b := buf[off : off+width]
		for i := range b {
			b[i] = uint8(v >> (i * 8))
		}
	default:
		panic("encoding: Put: unsupported width")
	}
}

// Get reads slot pos of buf. It is the counterpart to Put.
func Get(buf []byte, pos, width int) uint64 {
	off := pos * width
	switch width {
	case 1:
		return uint64(buf[off])
	case 2:
		return uint64(binary.LittleEndian.Uint16(buf[off:]))
	case 4:
		return uint64(binary.LittleEndian.Uint32(buf[off:]))
	case 8:
		return binary.LittleEndian.Uint64(buf[off:])
	case 3, 5, 6, 7:
		var v uint64
		for i, c := range buf[off : off+width] {
			v |= uint64(c) << (i * 8)
		}
		return v
	default:
		panic("encoding: Get: unsupported width")
	}
}

// Fits reports whether v fits in width bytes.
func Fits(v uint64, width int) bool {
	if width >= MaxWidth {
		return true
	}
	return v>>(uint(width)*8) == 0
}
