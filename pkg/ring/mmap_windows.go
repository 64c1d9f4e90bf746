//go:build windows

package ring

import (
	"os"
	"reflect"
	"unsafe"

	"golang.org/x/sys/windows"

	"github.com/retrigger-io/retrigger/pkg/logging"
	"github.com/retrigger-io/retrigger/pkg/must"
)

// mapFile maps the first size bytes of f read-write and shared via a named
// file mapping object, the Windows equivalent of a POSIX MAP_SHARED mmap.
func mapFile(f *os.File, size int, logger *logging.Logger) ([]byte, error) {
	mapping, err := windows.CreateFileMapping(windows.Handle(f.Fd()), nil, windows.PAGE_READWRITE, 0, uint32(size), nil)
	if err != nil {
		return nil, err
	}
	defer must.CloseWindowsHandle(mapping, logger)

	addr, err := windows.MapViewOfFile(mapping, windows.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if err != nil {
		return nil, err
	}

	var data []byte
	header := (*reflect.SliceHeader)(unsafe.Pointer(&data))
	header.Data = addr
	header.Len = size
	header.Cap = size
	return data, nil
}

// unmapFile releases a mapping previously returned by mapFile.
func unmapFile(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return windows.UnmapViewOfFile(uintptr(unsafe.Pointer(&data[0])))
}
