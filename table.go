package wheelsieve

import (
	"encoding/binary"
	"errors"
	"fmt"
	"iter"
	"os"
	"sort"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"
	sieveerrors "github.com/tamirms/wheelsieve/errors"
	"github.com/tamirms/wheelsieve/internal/encoding"
)

// minFileSize is the size of an empty table: header, metadata length, footer.
const minFileSize = headerSize + 4 + footerSize

// Table is a read-only prime table produced by WriteTable.
//
// Thread Safety:
// - At, Contains, CountUpTo, All and other read methods are safe for concurrent use
// - Close is NOT safe to call concurrently with reads
// - After Close returns, read methods return ErrTableClosed
type Table struct {
	// Memory map (no file handle needed after mmap)
	mmap mmap.MMap
	data []byte

	header       *header
	userMetadata []byte

	entryRegionOffset uint64
	entrySize         int

	closed atomic.Bool
}

// TableStats holds table statistics.
type TableStats struct {
	Count         uint64
	Ceiling       uint64
	MaxPrime      uint64
	EntrySize     int
	BytesPerPrime float64
	FileSize      int64
}

func newTableStats(h *header, fileSize int64) *TableStats {
	bytesPerPrime := float64(0)
	if h.Count > 0 {
		bytesPerPrime = float64(fileSize) / float64(h.Count)
	}
	return &TableStats{
		Count:         h.Count,
		Ceiling:       h.Ceiling,
		MaxPrime:      h.MaxPrime,
		EntrySize:     h.entrySizeInt(),
		BytesPerPrime: bytesPerPrime,
		FileSize:      fileSize,
	}
}

// Open opens a prime table file.
// It opens the file, memory-maps it, and closes the file descriptor.
func Open(path string) (*Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open table file: %w", err)
	}
	defer file.Close()
	return OpenFile(file)
}

// OpenFile opens a prime table by memory-mapping the given file.
// The caller is responsible for closing f. Per POSIX mmap(2), f may be
// closed immediately after OpenFile returns.
func OpenFile(f *os.File) (*Table, error) {
	stat, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat table file: %w", err)
	}
	if stat.Size() < int64(minFileSize) {
		return nil, sieveerrors.ErrTruncatedFile
	}

	fadviseRandom(int(f.Fd()), stat.Size())

	mm, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("mmap table file: %w", err)
	}

	t := &Table{
		mmap: mm,
		data: []byte(mm),
	}
	if err := t.initFromData(); err != nil {
		return nil, errors.Join(err, t.Close())
	}
	return t, nil
}

// OpenBytes creates a table from an in-memory byte slice.
// No file is opened or memory-mapped; Close is a no-op.
// The caller must ensure data is not modified while the Table is in use.
func OpenBytes(data []byte) (*Table, error) {
	if len(data) < minFileSize {
		return nil, sieveerrors.ErrTruncatedFile
	}
	t := &Table{data: data}
	if err := t.initFromData(); err != nil {
		return nil, err
	}
	return t, nil
}

// initFromData parses the header and user metadata and checks that the
// entry region and footer exactly fill the rest of the data.
func (t *Table) initFromData() error {
	fileSize := uint64(len(t.data))

	hdr, err := decodeHeader(t.data[:headerSize])
	if err != nil {
		return err
	}
	t.header = hdr

	offset := uint64(headerSize)
	userMetadataLen := binary.LittleEndian.Uint32(t.data[offset:])
	offset += 4
	if offset+uint64(userMetadataLen)+footerSize > fileSize {
		return sieveerrors.ErrTruncatedFile
	}
	t.userMetadata = t.data[offset : offset+uint64(userMetadataLen)]
	offset += uint64(userMetadataLen)

	t.entryRegionOffset = offset
	t.entrySize = hdr.entrySizeInt()

	// Count is untrusted: compare via division to avoid overflow.
	available := fileSize - footerSize - offset
	if hdr.Count > available/uint64(t.entrySize) {
		return sieveerrors.ErrTruncatedFile
	}
	if hdr.regionSize() != available {
		return sieveerrors.ErrCorruptedTable
	}

	return nil
}

// Close closes the table and releases resources.
func (t *Table) Close() error {
	if t.closed.Swap(true) {
		return nil // Already closed
	}

	if t.mmap != nil {
		return t.mmap.Unmap()
	}
	return nil
}

// entry returns the i-th stored prime without bounds or close checks.
func (t *Table) entry(i uint64) uint64 {
	return encoding.Get(t.data[t.entryRegionOffset:], int(i), t.entrySize)
}

// Len returns the number of primes stored.
func (t *Table) Len() uint64 {
	return t.header.Count
}

// Ceiling returns the bound the table was written for.
func (t *Table) Ceiling() uint64 {
	return t.header.Ceiling
}

// MaxPrime returns the largest stored prime, or 0 for an empty table.
func (t *Table) MaxPrime() uint64 {
	return t.header.MaxPrime
}

// UserMetadata returns the variable-length user-defined metadata.
// The returned slice is backed by the memory-mapped file data.
func (t *Table) UserMetadata() []byte {
	return t.userMetadata
}

// At returns the i-th prime (0-based), so At(0) == 2.
// Returns ErrIndexOutOfRange if i >= Len().
func (t *Table) At(i uint64) (uint64, error) {
	if t.closed.Load() {
		return 0, sieveerrors.ErrTableClosed
	}
	if i >= t.header.Count {
		return 0, sieveerrors.ErrIndexOutOfRange
	}
	return t.entry(i), nil
}

// CountUpTo returns π(n), the number of primes <= n.
// Returns ErrIndexOutOfRange if n is above the table's ceiling.
func (t *Table) CountUpTo(n uint64) (uint64, error) {
	if t.closed.Load() {
		return 0, sieveerrors.ErrTableClosed
	}
	if n > t.header.Ceiling {
		return 0, sieveerrors.ErrIndexOutOfRange
	}
	return t.countUpTo(n), nil
}

func (t *Table) countUpTo(n uint64) uint64 {
	return uint64(sort.Search(int(t.header.Count), func(i int) bool {
		return t.entry(uint64(i)) > n
	}))
}

// Contains reports whether n is prime.
// Returns ErrIndexOutOfRange if n is above the table's ceiling.
func (t *Table) Contains(n uint64) (bool, error) {
	if t.closed.Load() {
		return false, sieveerrors.ErrTableClosed
	}
	if n > t.header.Ceiling {
		return false, sieveerrors.ErrIndexOutOfRange
	}
	c := t.countUpTo(n)
	return c > 0 && t.entry(c-1) == n, nil
}

// All returns the stored primes in increasing order. Iteration stops early
// if the table is closed.
func (t *Table) All() iter.Seq[uint64] {
	return func(yield func(uint64) bool) {
		for i := uint64(0); i < t.header.Count; i++ {
			if t.closed.Load() {
				return
			}
			if !yield(t.entry(i)) {
				return
			}
		}
	}
}

// GetStats returns statistics for a table file.
func GetStats(path string) (*TableStats, error) {
	t, err := Open(path)
	if err != nil {
		return nil, err
	}

	return t.Stats(), t.Close()
}

// Stats returns statistics for the table.
func (t *Table) Stats() *TableStats {
	return newTableStats(t.header, int64(len(t.data)))
}

// Verify checks the footer hashes against the entry region and user
// metadata, and that entries are strictly increasing and within the ceiling.
//
// The footer is decoded on each Verify call rather than at Open time, so
// Open only touches the header and metadata.
func (t *Table) Verify() error {
	if t.closed.Load() {
		return sieveerrors.ErrTableClosed
	}

	fileSize := uint64(len(t.data))
	ft, err := decodeFooter(t.data[fileSize-footerSize:])
	if err != nil {
		return err
	}

	regionEnd := t.entryRegionOffset + t.header.regionSize()
	if xxhash.Sum64(t.data[t.entryRegionOffset:regionEnd]) != ft.EntryHash {
		return sieveerrors.ErrChecksumFailed
	}
	if xxhash.Sum64(t.userMetadata) != ft.MetadataHash {
		return sieveerrors.ErrChecksumFailed
	}

	var prev uint64
	for i := uint64(0); i < t.header.Count; i++ {
		p := t.entry(i)
		if p <= prev || p > t.header.Ceiling {
			return sieveerrors.ErrCorruptedTable
		}
		prev = p
	}
	if prev != t.header.MaxPrime {
		return sieveerrors.ErrCorruptedTable
	}

	return nil
}
