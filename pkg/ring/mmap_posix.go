//go:build !windows

package ring

import (
	"os"

	"golang.org/x/sys/unix"

	"github.com/retrigger-io/retrigger/pkg/logging"
)

// mapFile maps the first size bytes of f read-write and shared, so that
// writes are visible to any other process mapping the same file. logger is
// unused on this platform but kept in the signature to match the Windows
// implementation, which needs it to log a failed file-mapping-handle close.
func mapFile(f *os.File, size int, _ *logging.Logger) ([]byte, error) {
	return unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
}

// unmapFile releases a mapping previously returned by mapFile.
func unmapFile(data []byte) error {
	return unix.Munmap(data)
}
