package wheelsieve

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/edsrzf/mmap-go"
	sieveerrors "github.com/tamirms/wheelsieve/errors"
	intbits "github.com/tamirms/wheelsieve/internal/bits"
	"github.com/tamirms/wheelsieve/internal/encoding"
)

// hashChunkEntries is how many entries accumulate before they are folded
// into the streaming region hash, while still hot in cache.
const hashChunkEntries = 4096

// tableWriter writes a prime table through a memory-mapped, pre-allocated file.
// File layout: [Header 64B][UserMetaLen 4B][UserMeta][Entries Count×EntrySize][Footer 32B]
type tableWriter struct {
	file *os.File
	mmap mmap.MMap // Memory-mapped region
	data []byte    // View into mmap for direct writes
	path string

	entryRegionOffset uint64
	entrySize         int
	capacity          uint64 // Max entries the pre-allocated region holds
	estimatedSize     uint64 // Pre-allocated file size

	// Streaming hash of the entry region, fed in chunks of hashChunkEntries.
	hasher     *xxhash.Digest
	hashedUpTo uint64 // Entries already folded into hasher

	header       header
	userMetadata []byte

	count    uint64
	maxPrime uint64
}

// newTableWriter creates the file sized for every prime <= ceiling and maps it.
func newTableWriter(path string, ceiling uint64, cfg *tableConfig) (*tableWriter, error) {
	entrySize := intbits.ByteWidth(ceiling)
	capacity := primeCountUpperBound(ceiling)

	entryRegionOffset := uint64(headerSize) + 4 + uint64(len(cfg.userMetadata))
	estimatedSize := entryRegionOffset + capacity*uint64(entrySize) + footerSize

	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create table file: %w", err)
	}

	// Pre-allocate disk blocks to prevent SIGBUS on disk full
	if err := fallocateFile(file, int64(estimatedSize)); err != nil {
		primaryErr := fmt.Errorf("failed to allocate disk space: %w", err)
		return nil, errors.Join(primaryErr, file.Close(), os.Remove(path))
	}

	mm, err := mmap.MapRegion(file, int(estimatedSize), mmap.RDWR, 0, 0)
	if err != nil {
		primaryErr := fmt.Errorf("failed to mmap file: %w", err)
		return nil, errors.Join(primaryErr, file.Close(), os.Remove(path))
	}

	tw := &tableWriter{
		file:              file,
		mmap:              mm,
		data:              []byte(mm),
		path:              path,
		entryRegionOffset: entryRegionOffset,
		entrySize:         entrySize,
		capacity:          capacity,
		estimatedSize:     estimatedSize,
		hasher:            xxhash.New(),
		userMetadata:      cfg.userMetadata,
		header: header{
			Magic:     magic,
			Version:   version,
			Ceiling:   ceiling,
			EntrySize: uint8(entrySize),
		},
	}

	// On Linux 5.14+, uses MADV_POPULATE_WRITE. No-op on other platforms.
	prefaultRegion(tw.data[entryRegionOffset : entryRegionOffset+capacity*uint64(entrySize)])

	return tw, nil
}

// add appends p. Primes must arrive in increasing order.
func (tw *tableWriter) add(p uint64) error {
	if tw.mmap == nil {
		return sieveerrors.ErrWriterClosed
	}
	if tw.count >= tw.capacity {
		return fmt.Errorf("table capacity %d exceeded", tw.capacity)
	}
	if tw.count > 0 && p <= tw.maxPrime {
		return fmt.Errorf("prime %d not above previous %d", p, tw.maxPrime)
	}
	if !encoding.Fits(p, tw.entrySize) {
		return fmt.Errorf("prime %d does not fit in %d-byte entry", p, tw.entrySize)
	}

	encoding.Put(tw.data[tw.entryRegionOffset:], int(tw.count), tw.entrySize, p)
	tw.count++
	tw.maxPrime = p

	if tw.count-tw.hashedUpTo >= hashChunkEntries {
		tw.foldEntries()
	}
	return nil
}

// foldEntries feeds entries written since the last fold into the region hash.
func (tw *tableWriter) foldEntries() {
	start := tw.entryRegionOffset + tw.hashedUpTo*uint64(tw.entrySize)
	end := tw.entryRegionOffset + tw.count*uint64(tw.entrySize)
	if _, err := tw.hasher.Write(tw.data[start:end]); err != nil {
		panic("hash.Hash.Write returned unexpected error: " + err.Error())
	}
	tw.hashedUpTo = tw.count
}

// finalize writes header, metadata and footer, then shrinks the file to its
// actual size. On error, delegates to abort() for cleanup.
// On success, nils mmap/file so that abort() is a safe no-op.
func (tw *tableWriter) finalize() error {
	if tw.mmap == nil {
		return sieveerrors.ErrWriterClosed
	}
	tw.foldEntries()

	regionEnd := tw.entryRegionOffset + tw.count*uint64(tw.entrySize)
	actualSize := regionEnd + footerSize

	tw.header.Count = tw.count
	tw.header.MaxPrime = tw.maxPrime
	tw.header.encodeTo(tw.data[0:headerSize])

	// UserMetadata: [length 4B][data]
	binary.LittleEndian.PutUint32(tw.data[headerSize:], uint32(len(tw.userMetadata)))
	copy(tw.data[headerSize+4:], tw.userMetadata)

	ftr := footer{
		EntryHash:    tw.hasher.Sum64(),
		MetadataHash: xxhash.Sum64(tw.userMetadata),
	}
	ftr.encodeTo(tw.data[regionEnd:])

	// Flush dirty pages to file (ensures writes visible before unmap)
	if err := tw.mmap.Flush(); err != nil {
		return errors.Join(fmt.Errorf("mmap flush failed: %w", err), tw.abort())
	}

	// Unmap before truncate (required order).
	// Nil mmap regardless of outcome to prevent abort() from retrying.
	unmapErr := tw.mmap.Unmap()
	tw.mmap = nil
	if unmapErr != nil {
		return errors.Join(fmt.Errorf("mmap unmap failed: %w", unmapErr), tw.abort())
	}

	if err := tw.file.Truncate(int64(actualSize)); err != nil {
		return errors.Join(fmt.Errorf("truncate failed: %w", err), tw.abort())
	}

	closeErr := tw.file.Close()
	tw.file = nil
	return closeErr
}

// abort releases the mapping and file and removes the partial table.
// Idempotent: safe to call multiple times.
func (tw *tableWriter) abort() error {
	var unmapErr error
	if tw.mmap != nil {
		unmapErr = tw.mmap.Unmap()
		tw.mmap = nil
	}
	var closeErr, removeErr error
	if tw.file != nil {
		closeErr = tw.file.Close()
		tw.file = nil
		removeErr = os.Remove(tw.path)
	}
	return errors.Join(unmapErr, closeErr, removeErr)
}

// stats describes the table as written.
func (tw *tableWriter) stats() *TableStats {
	size := int64(tw.entryRegionOffset + tw.count*uint64(tw.entrySize) + footerSize)
	return newTableStats(&tw.header, size)
}

// WriteTable sieves every prime <= ceiling into a table file at path.
// The file is created (or truncated), pre-allocated from an upper bound on
// the prime count, filled through a memory map and shrunk to size. On error
// the partial file is removed.
//
// Returns ErrCeilingTooLarge if ceiling exceeds 2^40.
func WriteTable(ctx context.Context, path string, ceiling uint64, opts ...TableOption) (*TableStats, error) {
	if ceiling > maxTableCeiling {
		return nil, sieveerrors.ErrCeilingTooLarge
	}
	cfg := defaultTableConfig()
	for _, opt := range opts {
		opt(cfg)
	}

	tw, err := newTableWriter(path, ceiling, cfg)
	if err != nil {
		return nil, err
	}

	s := New()
	for i := 0; ; i++ {
		if i%cfg.contextCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, errors.Join(err, tw.abort())
			}
		}
		p, err := s.Next()
		if err != nil {
			return nil, errors.Join(err, tw.abort())
		}
		if p > ceiling {
			break
		}
		if err := tw.add(p); err != nil {
			return nil, errors.Join(err, tw.abort())
		}
	}

	if err := tw.finalize(); err != nil {
		return nil, err
	}
	return tw.stats(), nil
}
