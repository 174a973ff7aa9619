//go:build unix

package serialization

import (
	"math"
	"os"
	"syscall"

	"github.com/pkg/errors"
)

// mapReadOnly maps the first size bytes of f as a shared read-only view.
func mapReadOnly(f *os.File, size int64) ([]byte, error) {
	if size > math.MaxInt {
		return nil, errors.Errorf("file of %d bytes cannot be mapped", size)
	}
	data, err := syscall.Mmap(int(f.Fd()), 0, int(size), syscall.PROT_READ, syscall.MAP_SHARED) //nolint:gosec // G115: fd fits in int
	if err != nil {
		return nil, errors.Wrapf(err, "mmap %s", f.Name())
	}
	return data, nil
}

func unmap(data []byte) error {
	return errors.Wrap(syscall.Munmap(data), "munmap")
}
