// Package tensor provides the dense array types shared by the kernels and
// the autodiff graph: shapes, data types, reference-counted raw buffers and
// the error kinds every operation reports.
package tensor

import (
	"github.com/x448/float16"
)

// DataType represents runtime type information for tensors.
//
// Buffers always hold float64 values; the data type decides the precision
// every stored value is rounded to.
type DataType int

// Supported data types for tensors.
const (
	Float32 DataType = iota
	Float64
	Float16
)

// Size returns the byte size of one element of the data type.
func (dt DataType) Size() int {
	switch dt {
	case Float16:
		return 2
	case Float32:
		return 4
	case Float64:
		return 8
	default:
		panic("unknown data type")
	}
}

// String returns a human-readable name for the data type.
func (dt DataType) String() string {
	switch dt {
	case Float16:
		return "float16"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	default:
		return "unknown"
	}
}

// Valid reports whether dt is one of the supported data types.
func (dt DataType) Valid() bool {
	return dt == Float16 || dt == Float32 || dt == Float64
}

// Round quantizes v to the precision of the data type.
func (dt DataType) Round(v float64) float64 {
	switch dt {
	case Float16:
		return float64(float16.Fromfloat32(float32(v)).Float32())
	case Float32:
		return float64(float32(v))
	default:
		return v
	}
}

// RoundSlice quantizes every value of data in place.
func (dt DataType) RoundSlice(data []float64) {
	if dt == Float64 {
		return
	}
	for i, v := range data {
		data[i] = dt.Round(v)
	}
}

// ParseDataType converts a name produced by String back to a DataType.
func ParseDataType(name string) (DataType, error) {
	switch name {
	case "float16":
		return Float16, nil
	case "float32":
		return Float32, nil
	case "float64":
		return Float64, nil
	default:
		return 0, ValidationErrorf("unknown data type %q", name)
	}
}

// Promote returns the most precise of the given data types.
func Promote(dts ...DataType) DataType {
	best := Float16
	for _, dt := range dts {
		if precision(dt) > precision(best) {
			best = dt
		}
	}
	return best
}

func precision(dt DataType) int {
	switch dt {
	case Float16:
		return 0
	case Float32:
		return 1
	default:
		return 2
	}
}
