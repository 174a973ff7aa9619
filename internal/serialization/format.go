package serialization

import (
	"encoding/binary"
	"math"

	"github.com/x448/float16"

	"github.com/born-ml/autograd/internal/tensor"
)

// Format constants.
const (
	HeaderSizeBytes = 8              // Little-endian uint64 header length
	HeaderAlignment = 8              // JSON header is space padded to this multiple
	MetadataKey     = "__metadata__" // Header entry holding free-form metadata
	ChecksumKey     = "born.sha256"  // Metadata entry holding the data section digest
)

// Data type string constants for serialization.
const (
	DTypeF16 = "F16"
	DTypeF32 = "F32"
	DTypeF64 = "F64"
)

// TensorInfo describes one tensor in the JSON header.
type TensorInfo struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// entry is a TensorInfo with its name, used while validating.
type entry struct {
	Name string
	TensorInfo
}

// Size returns the number of data bytes the entry claims.
func (e entry) Size() int64 {
	return e.DataOffsets[1] - e.DataOffsets[0]
}

// dtypeToString converts tensor.DataType to its header string.
func dtypeToString(dt tensor.DataType) (string, bool) {
	switch dt {
	case tensor.Float16:
		return DTypeF16, true
	case tensor.Float32:
		return DTypeF32, true
	case tensor.Float64:
		return DTypeF64, true
	default:
		return "", false
	}
}

// stringToDtype converts a header string to tensor.DataType.
func stringToDtype(s string) (tensor.DataType, bool) {
	switch s {
	case DTypeF16:
		return tensor.Float16, true
	case DTypeF32:
		return tensor.Float32, true
	case DTypeF64:
		return tensor.Float64, true
	default:
		return 0, false
	}
}

// putValues encodes values little-endian into dst, which must hold
// len(values) * dt.Size() bytes.
func putValues(dst []byte, values []float64, dt tensor.DataType) {
	le := binary.LittleEndian
	switch dt {
	case tensor.Float16:
		for i, v := range values {
			le.PutUint16(dst[2*i:], float16.Fromfloat32(float32(v)).Bits())
		}
	case tensor.Float32:
		for i, v := range values {
			le.PutUint32(dst[4*i:], math.Float32bits(float32(v)))
		}
	default:
		for i, v := range values {
			le.PutUint64(dst[8*i:], math.Float64bits(v))
		}
	}
}

// readValues decodes len(dst) little-endian values from src.
func readValues(dst []float64, src []byte, dt tensor.DataType) {
	le := binary.LittleEndian
	switch dt {
	case tensor.Float16:
		for i := range dst {
			dst[i] = float64(float16.Frombits(le.Uint16(src[2*i:])).Float32())
		}
	case tensor.Float32:
		for i := range dst {
			dst[i] = float64(math.Float32frombits(le.Uint32(src[4*i:])))
		}
	default:
		for i := range dst {
			dst[i] = math.Float64frombits(le.Uint64(src[8*i:]))
		}
	}
}
