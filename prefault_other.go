//go:build !linux

package wheelsieve

// prefaultRegion is a no-op outside Linux.
func prefaultRegion(data []byte) {}
