//go:build !linux && !darwin

package wheelsieve

import "os"

// fallocateFile sizes the table file. Disk blocks may stay unreserved.
func fallocateFile(file *os.File, size int64) error {
	return file.Truncate(size)
}
