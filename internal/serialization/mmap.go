package serialization

import (
	"os"

	"github.com/pkg/errors"

	"github.com/born-ml/autograd/internal/autodiff"
	"github.com/born-ml/autograd/internal/tensor"
)

// File provides memory-mapped access to a SafeTensors file. Only the header
// is parsed by Open; tensor data is read on demand through the OS page
// cache.
//
// Important: Always call Close() when done to unmap the file (use defer).
type File struct {
	file   *os.File
	data   []byte // mmap'd region (read-only)
	size   int64
	header *header
	closed bool
}

// Open maps the file at path read-only and validates its header.
func Open(path string) (*File, error) {
	//nolint:gosec // G304: path is caller supplied
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "open")
	}
	size, err := fileSize(file)
	if err != nil {
		_ = file.Close()
		return nil, err
	}

	f := &File{file: file, size: size}
	if size > 0 {
		f.data, err = mapReadOnly(file, size)
		if err != nil {
			_ = file.Close()
			return nil, err
		}
	}

	f.header, err = parseHeader(f.data)
	if err != nil {
		_ = f.Close()
		return nil, errors.WithMessagef(err, "open %s", path)
	}
	return f, nil
}

// Names returns the tensor names in alphabetical order.
func (f *File) Names() []string {
	return sortedNames(f.header.infos)
}

// Info returns the header entry of the named tensor.
func (f *File) Info(name string) (TensorInfo, bool) {
	info, ok := f.header.infos[name]
	return info, ok
}

// Metadata returns the free-form metadata, without ChecksumKey.
func (f *File) Metadata() map[string]string {
	return f.header.metadata
}

// Tensor copies one tensor out of the mapping into a new leaf of ctx.
func (f *File) Tensor(ctx *autodiff.Context, name string, trainable bool) (*autodiff.Tensor, error) {
	if f.closed {
		return nil, tensor.UseAfterFreeErrorf("file is closed")
	}
	if ctx == nil {
		return nil, tensor.ValidationErrorf("tensor %q: nil context", name)
	}
	return f.header.tensor(ctx, name, trainable)
}

// Verify checks the data section against the stored digest. Files written
// without one always verify.
func (f *File) Verify() error {
	if f.closed {
		return tensor.UseAfterFreeErrorf("file is closed")
	}
	if f.header.checksum == "" {
		return nil
	}
	return ValidateChecksum(f.header.data, f.header.checksum)
}

// Close unmaps the file and closes it. Calling it again is a no-op.
func (f *File) Close() error {
	if f.closed {
		return nil
	}
	f.closed = true

	var err error
	if f.data != nil {
		err = unmap(f.data)
		f.data = nil
	}
	if closeErr := f.file.Close(); err == nil {
		err = closeErr
	}
	return err
}
