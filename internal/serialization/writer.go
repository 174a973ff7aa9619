package serialization

import (
	"bytes"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/autograd/internal/autodiff"
	"github.com/born-ml/autograd/internal/tensor"
)

// Save writes tensors to path in the SafeTensors layout. Each tensor keeps
// its own data type. The metadata map may be nil.
func Save(path string, tensors map[string]*autodiff.Tensor, metadata map[string]string) error {
	//nolint:gosec // G304: File path comes from user input, which is expected for model saving
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", path)
	}
	n, err := Encode(file, tensors, metadata)
	if closeErr := file.Close(); err == nil && closeErr != nil {
		err = errors.Wrapf(closeErr, "failed to close %s", path)
	}
	if err != nil {
		return errors.WithMessagef(err, "save %s", path)
	}
	klog.V(1).Infof("saved %d tensors to %s (%s)", len(tensors), path, humanize.Bytes(uint64(n)))
	return nil
}

// Encode writes tensors to w in the SafeTensors layout and returns the
// number of bytes written.
//
// Tensors are written in alphabetical order by name. The metadata gains a
// ChecksumKey entry with the SHA-256 digest of the data section.
func Encode(w io.Writer, tensors map[string]*autodiff.Tensor, metadata map[string]string) (int64, error) {
	names := sortedNames(tensors)
	header := make(map[string]any, len(tensors)+1)

	var data bytes.Buffer
	for _, name := range names {
		if err := ValidateTensorName(name); err != nil {
			return 0, err
		}
		t := tensors[name]
		if t == nil {
			return 0, tensor.ValidationErrorf("tensor %q is nil", name)
		}
		if err := t.Raw().Check(); err != nil {
			return 0, errors.WithMessagef(err, "tensor %q", name)
		}
		dtype, ok := dtypeToString(t.DType())
		if !ok {
			return 0, &ValidationError{Type: TypeInvalidDType, Tensor: name, Details: t.DType().String()}
		}

		shape := make([]int64, len(t.Shape()))
		for i, d := range t.Shape() {
			shape[i] = int64(d)
		}
		begin := int64(data.Len())
		buf := make([]byte, t.NumElements()*t.DType().Size())
		putValues(buf, t.Data(), t.DType())
		data.Write(buf)

		header[name] = TensorInfo{
			DType:       dtype,
			Shape:       shape,
			DataOffsets: [2]int64{begin, int64(data.Len())},
		}
	}

	meta := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}
	digest := ComputeChecksum(data.Bytes())
	meta[ChecksumKey] = hex.EncodeToString(digest[:])
	header[MetadataKey] = meta

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return 0, errors.Wrap(err, "failed to marshal header")
	}
	if pad := len(headerJSON) % HeaderAlignment; pad != 0 {
		headerJSON = append(headerJSON, bytes.Repeat([]byte{' '}, HeaderAlignment-pad)...)
	}
	if len(headerJSON) > MaxHeaderSize {
		return 0, &ValidationError{
			Type:    TypeHeaderTooLarge,
			Details: humanize.Bytes(uint64(len(headerJSON))),
		}
	}

	var size [HeaderSizeBytes]byte
	binary.LittleEndian.PutUint64(size[:], uint64(len(headerJSON)))
	var written int64
	for _, chunk := range [][]byte{size[:], headerJSON, data.Bytes()} {
		n, err := w.Write(chunk)
		written += int64(n)
		if err != nil {
			return written, errors.Wrap(err, "failed to write")
		}
	}
	return written, nil
}
