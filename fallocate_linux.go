//go:build linux

package wheelsieve

import (
	"os"

	"golang.org/x/sys/unix"
)

// fallocateFile reserves size bytes for a table file so writes through the
// mapping cannot SIGBUS on a full disk.
func fallocateFile(file *os.File, size int64) error {
	fd := int(file.Fd())
	if err := unix.Fallocate(fd, 0, 0, size); err != nil {
		// NFS and some other filesystems reject fallocate; size the file anyway.
		return unix.Ftruncate(fd, size)
	}
	// fallocate with mode 0 extends the file, but set the size explicitly.
	return unix.Ftruncate(fd, size)
}
