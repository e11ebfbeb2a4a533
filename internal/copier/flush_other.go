//go:build !linux

package copier

import "os"

// flush falls back to File.Sync where fdatasync is unavailable.
func flush(f *os.File) error {
	return f.Sync()
}
