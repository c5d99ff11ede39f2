//go:build !linux

package wheelsieve

// fadviseRandom is a no-op outside Linux.
func fadviseRandom(fd int, length int64) {}
