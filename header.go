package wheelsieve

import (
	"encoding/binary"

	sieveerrors "github.com/tamirms/wheelsieve/errors"
	intbits "github.com/tamirms/wheelsieve/internal/bits"
	"github.com/tamirms/wheelsieve/internal/encoding"
)

const (
	// magic number for prime table files
	// "WSPT" in little-endian
	magic = uint32(0x54505357)

	// version is the current format version
	version = uint16(0x0001)

	// headerSize is the exact size of the serialized header (64 bytes)
	headerSize = 64

	// footerSize is the exact size of the serialized footer (32 bytes)
	footerSize = 32

	// maxTableCeiling bounds the ceiling accepted by WriteTable.
	maxTableCeiling = uint64(1) << 40
)

// header is the 64-byte table file header.
//
// Layout:
//
//	Offset  Size  Field      Type
//	0       4     Magic      0x54505357 ("WSPT")
//	4       2     Version    0x0001
//	6       8     Count      uint64_le (number of primes stored)
//	14      8     Ceiling    uint64_le (every prime <= Ceiling is stored)
//	22      8     MaxPrime   uint64_le (largest stored prime, 0 if none)
//	30      1     EntrySize  uint8 (bytes per entry, 1..8)
//	31      33    Reserved   [33]byte (zero)
type header struct {
	Magic     uint32
	Version   uint16
	Count     uint64
	Ceiling   uint64
	MaxPrime  uint64
	EntrySize uint8
	Reserved  [33]byte
}

// encodeTo serializes the header to an existing buffer.
func (h *header) encodeTo(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], h.Magic)
	binary.LittleEndian.PutUint16(buf[4:6], h.Version)
	binary.LittleEndian.PutUint64(buf[6:14], h.Count)
	binary.LittleEndian.PutUint64(buf[14:22], h.Ceiling)
	binary.LittleEndian.PutUint64(buf[22:30], h.MaxPrime)
	buf[30] = h.EntrySize
	copy(buf[31:64], h.Reserved[:])
}

// decodeHeader parses a 64-byte header.
func decodeHeader(buf []byte) (*header, error) {
	if len(buf) < headerSize {
		return nil, sieveerrors.ErrTruncatedFile
	}

	h := &header{
		Magic:     binary.LittleEndian.Uint32(buf[0:4]),
		Version:   binary.LittleEndian.Uint16(buf[4:6]),
		Count:     binary.LittleEndian.Uint64(buf[6:14]),
		Ceiling:   binary.LittleEndian.Uint64(buf[14:22]),
		MaxPrime:  binary.LittleEndian.Uint64(buf[22:30]),
		EntrySize: buf[30],
	}
	copy(h.Reserved[:], buf[31:64])

	if h.Magic != magic {
		return nil, sieveerrors.ErrInvalidMagic
	}
	if h.Version != version {
		return nil, sieveerrors.ErrInvalidVersion
	}
	if h.EntrySize == 0 || h.EntrySize > encoding.MaxWidth {
		return nil, sieveerrors.ErrCorruptedTable
	}
	if h.MaxPrime > h.Ceiling || h.Ceiling > maxTableCeiling {
		return nil, sieveerrors.ErrCorruptedTable
	}
	if (h.Count == 0) != (h.MaxPrime == 0) {
		return nil, sieveerrors.ErrCorruptedTable
	}
	if int(h.EntrySize) < intbits.ByteWidth(h.MaxPrime) {
		return nil, sieveerrors.ErrCorruptedTable
	}

	return h, nil
}

// entrySizeInt returns EntrySize as int for arithmetic convenience.
func (h *header) entrySizeInt() int {
	return int(h.EntrySize)
}

// regionSize returns the byte length of the entry region.
func (h *header) regionSize() uint64 {
	return h.Count * uint64(h.EntrySize)
}

// footer is the 32-byte table file footer.
//
// Layout:
//
//	Offset  Size  Field         Type
//	0       8     EntryHash     uint64_le (xxHash64 of entry region)
//	8       8     MetadataHash  uint64_le (xxHash64 of user metadata)
//	16      16    Reserved      [16]byte (zero)
type footer struct {
	EntryHash    uint64
	MetadataHash uint64
	Reserved     [16]byte
}

// encodeTo serializes the footer into an existing buffer.
func (f *footer) encodeTo(buf []byte) {
	binary.LittleEndian.PutUint64(buf[0:8], f.EntryHash)
	binary.LittleEndian.PutUint64(buf[8:16], f.MetadataHash)
	copy(buf[16:32], f.Reserved[:])
}

// decodeFooter parses a 32-byte footer.
func decodeFooter(buf []byte) (*footer, error) {
	if len(buf) < footerSize {
		return nil, sieveerrors.ErrTruncatedFile
	}

	f := &footer{
		EntryHash:    binary.LittleEndian.Uint64(buf[0:8]),
		MetadataHash: binary.LittleEndian.Uint64(buf[8:16]),
	}
	copy(f.Reserved[:], buf[16:32])

	return f, nil
}
