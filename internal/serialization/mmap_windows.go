//go:build windows

package serialization

import (
	"os"
	"syscall"
	"unsafe"

	"github.com/pkg/errors"
)

// mapReadOnly maps the first size bytes of f as a read-only view.
func mapReadOnly(f *os.File, size int64) ([]byte, error) {
	handle, err := syscall.CreateFileMapping(
		syscall.Handle(f.Fd()),
		nil,
		syscall.PAGE_READONLY,
		uint32(size>>32), //nolint:gosec // G115: high half of the size
		uint32(size),     //nolint:gosec // G115: low half of the size
		nil,
	)
	if err != nil {
		return nil, errors.Wrapf(err, "CreateFileMapping %s", f.Name())
	}
	defer func() {
		_ = syscall.CloseHandle(handle) // The view keeps the mapping alive
	}()

	addr, err := syscall.MapViewOfFile(handle, syscall.FILE_MAP_READ, 0, 0, uintptr(size))
	if err != nil {
		return nil, errors.Wrapf(err, "MapViewOfFile %s", f.Name())
	}
	//nolint:gosec // G103: addr is a valid mapped view of exactly size bytes
	return unsafe.Slice((*byte)(unsafe.Pointer(addr)), int(size)), nil
}

func unmap(data []byte) error {
	return errors.Wrap(syscall.UnmapViewOfFile(uintptr(unsafe.Pointer(unsafe.SliceData(data)))), "UnmapViewOfFile")
}
