// Package errors defines all exported error sentinels for the wheelsieve library.
//
// This is the single source of truth for error values. Both the top-level
// wheelsieve package and internal packages import from here, ensuring
// errors.Is checks work across package boundaries.
package errors

import "errors"

// Collection errors
var (
	ErrEmptyCollection = errors.New("wheelsieve: empty collection")
)

// Sieve errors
var (
	ErrOverflow        = errors.New("wheelsieve: integer overflow")
	ErrInvalidWorkers  = errors.New("wheelsieve: worker count must be at least 1")
	ErrCeilingTooLarge = errors.New("wheelsieve: ceiling exceeds maximum table ceiling (2^40)")
)

// Table errors
var (
	ErrInvalidMagic    = errors.New("wheelsieve: invalid magic number")
	ErrInvalidVersion  = errors.New("wheelsieve: unsupported version")
	ErrChecksumFailed  = errors.New("wheelsieve: file checksum verification failed")
	ErrTruncatedFile   = errors.New("wheelsieve: table file is truncated")
	ErrCorruptedTable  = errors.New("wheelsieve: table data is corrupted")
	ErrTableClosed     = errors.New("wheelsieve: table is closed")
	ErrIndexOutOfRange = errors.New("wheelsieve: index out of range")
	ErrWriterClosed    = errors.New("wheelsieve: writer is closed")
)
