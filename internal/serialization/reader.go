package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"
	"k8s.io/klog/v2"

	"github.com/born-ml/autograd/internal/autodiff"
	"github.com/born-ml/autograd/internal/tensor"
)

// header is a parsed and validated SafeTensors header.
type header struct {
	infos    map[string]TensorInfo
	metadata map[string]string
	checksum string // Hex digest from the metadata, or ""
	data     []byte // Data section
}

// parseHeader splits buf into header and data section and validates every
// entry against the data section.
func parseHeader(buf []byte) (*header, error) {
	if len(buf) < HeaderSizeBytes {
		return nil, &ValidationError{
			Type:    TypeInvalidHeader,
			Details: fmt.Sprintf("file too small: %d bytes (minimum %d bytes required)", len(buf), HeaderSizeBytes),
		}
	}
	n := binary.LittleEndian.Uint64(buf[:HeaderSizeBytes])
	if n > MaxHeaderSize {
		return nil, &ValidationError{
			Type:    TypeHeaderTooLarge,
			Details: fmt.Sprintf("%s > max %s", humanize.Bytes(n), humanize.Bytes(MaxHeaderSize)),
		}
	}
	if n > uint64(len(buf)-HeaderSizeBytes) {
		return nil, &ValidationError{
			Type:    TypeOutOfBounds,
			Details: fmt.Sprintf("header of %d bytes in a file of %d bytes", n, len(buf)),
		}
	}
	end := HeaderSizeBytes + int(n)

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(buf[HeaderSizeBytes:end], &raw); err != nil {
		return nil, &ValidationError{Type: TypeInvalidHeader, Details: err.Error()}
	}

	h := &header{
		infos: make(map[string]TensorInfo, len(raw)),
		data:  buf[end:],
	}
	for name, msg := range raw {
		if name == MetadataKey {
			if err := json.Unmarshal(msg, &h.metadata); err != nil {
				return nil, &ValidationError{Type: TypeInvalidHeader, Tensor: name, Details: err.Error()}
			}
			continue
		}
		var info TensorInfo
		if err := json.Unmarshal(msg, &info); err != nil {
			return nil, &ValidationError{Type: TypeInvalidHeader, Tensor: name, Details: err.Error()}
		}
		h.infos[name] = info
	}
	if digest, ok := h.metadata[ChecksumKey]; ok {
		h.checksum = digest
		delete(h.metadata, ChecksumKey)
	}
	if err := ValidateHeader(h.infos, int64(len(h.data))); err != nil {
		return nil, err
	}
	return h, nil
}

// tensor decodes one validated entry into a new leaf of ctx.
func (h *header) tensor(ctx *autodiff.Context, name string, trainable bool) (*autodiff.Tensor, error) {
	info, ok := h.infos[name]
	if !ok {
		return nil, tensor.ValidationErrorf("no tensor named %q", name)
	}
	dt, _ := stringToDtype(info.DType)
	shape := shapeOf(info.Shape)
	values := make([]float64, shape.NumElements())
	readValues(values, h.data[info.DataOffsets[0]:info.DataOffsets[1]], dt)

	opts := []autodiff.TensorOption{autodiff.Named(name), autodiff.OfDType(dt)}
	if trainable {
		opts = append(opts, autodiff.Trainable())
	}
	return ctx.FromSlice(values, shape, opts...)
}

// Decode parses a complete SafeTensors image held in memory and creates one
// leaf of ctx per tensor, trainable when requested. The returned metadata
// excludes ChecksumKey, which is verified when present.
func Decode(buf []byte, ctx *autodiff.Context, trainable bool) (map[string]*autodiff.Tensor, map[string]string, error) {
	h, err := parseHeader(buf)
	if err != nil {
		return nil, nil, err
	}
	return h.decodeAll(ctx, trainable)
}

// Load reads every tensor stored at path into ctx. See Decode.
func Load(path string, ctx *autodiff.Context, trainable bool) (map[string]*autodiff.Tensor, map[string]string, error) {
	f, err := Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = f.Close() // Values were copied out
	}()

	tensors, metadata, err := f.header.decodeAll(ctx, trainable)
	if err != nil {
		return nil, nil, errors.WithMessagef(err, "load %s", path)
	}
	klog.V(1).Infof("loaded %d tensors from %s (%s)", len(tensors), path, humanize.Bytes(uint64(f.size)))
	return tensors, metadata, nil
}

func (h *header) decodeAll(ctx *autodiff.Context, trainable bool) (map[string]*autodiff.Tensor, map[string]string, error) {
	if ctx == nil {
		return nil, nil, tensor.ValidationErrorf("decode: nil context")
	}
	if h.checksum != "" {
		if err := ValidateChecksum(h.data, h.checksum); err != nil {
			return nil, nil, err
		}
	}
	tensors := make(map[string]*autodiff.Tensor, len(h.infos))
	for _, name := range sortedNames(h.infos) {
		t, err := h.tensor(ctx, name, trainable)
		if err != nil {
			return nil, nil, errors.WithMessagef(err, "tensor %q", name)
		}
		tensors[name] = t
	}
	return tensors, h.metadata, nil
}

// fileSize stats an open file.
func fileSize(file *os.File) (int64, error) {
	stat, err := file.Stat()
	if err != nil {
		return 0, errors.Wrap(err, "failed to stat file")
	}
	return stat.Size(), nil
}
