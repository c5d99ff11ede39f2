//go:build linux

package wheelsieve

import "golang.org/x/sys/unix"

// fadviseRandom tells the kernel that lookups will hit the table file at
// random offsets, which turns off readahead for the mapping's backing pages.
// Errors are ignored.
func fadviseRandom(fd int, length int64) {
	_ = unix.Fadvise(fd, 0, length, unix.FADV_RANDOM)
}
